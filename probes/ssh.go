// Package probes implements the built-in byte-level protocol recognizers
// (SSH, OpenVPN, tinc, XMPP, HTTP, ADB, SOCKS5, always-match) plus the
// regex-backed custom probe. Each file registers itself with the protomux
// registry from its init(), mirroring the teacher's per-module
// self-registration idiom.
package probes

import (
	"bytes"

	"github.com/sslh-go/protomux"
)

func init() {
	protomux.RegisterProbe("ssh", SSH)
}

var sshPrefix = []byte("SSH-")

// SSH recognizes an SSH version-exchange banner: AGAIN if fewer than 4
// bytes are available, MATCH iff the first 4 bytes are "SSH-", else NEXT.
func SSH(data []byte, _ *protomux.ProtocolEntry) protomux.ProbeOutcome {
	if len(data) < 4 {
		return protomux.Again
	}
	if bytes.Equal(data[:4], sshPrefix) {
		return protomux.Match
	}
	return protomux.Next
}
