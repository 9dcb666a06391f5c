package probes

import (
	"bytes"

	"github.com/sslh-go/protomux"
)

func init() {
	protomux.RegisterProbe("xmpp", XMPP)
}

// maxSearchPrefix bounds how much of the buffer substring-search probes
// (XMPP, HTTP) scan, so an adversarial client cannot force unbounded work
// by sending a long prefix that never contains the needle (spec.md §9).
const maxSearchPrefix = 1024

var xmppNeedle = []byte("jabber")

// XMPP recognizes an XMPP stream opener: MATCH if "jabber" appears anywhere
// in the (bounded) prefix. Otherwise AGAIN while the buffer is still
// shorter than 50 bytes (waiting for the rest of the opening stream
// element), else NEXT.
func XMPP(data []byte, _ *protomux.ProtocolEntry) protomux.ProbeOutcome {
	if bytes.Contains(bounded(data, maxSearchPrefix), xmppNeedle) {
		return protomux.Match
	}
	if len(data) < 50 {
		return protomux.Again
	}
	return protomux.Next
}

func bounded(data []byte, max int) []byte {
	if len(data) > max {
		return data[:max]
	}
	return data
}
