package probes

import (
	"bytes"

	"github.com/sslh-go/protomux"
)

func init() {
	protomux.RegisterProbe("tinc", Tinc)
}

var tincPrefix = []byte("0 ")

// Tinc recognizes a tinc meta-connection opener: AGAIN if fewer than 2
// bytes are available, MATCH iff the first 2 bytes are "0 " (zero,
// space), else NEXT.
func Tinc(data []byte, _ *protomux.ProtocolEntry) protomux.ProbeOutcome {
	if len(data) < 2 {
		return protomux.Again
	}
	if bytes.Equal(data[:2], tincPrefix) {
		return protomux.Match
	}
	return protomux.Next
}
