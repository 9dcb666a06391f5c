package tls

import "github.com/sslh-go/protomux"

func init() {
	protomux.RegisterProbe("tls", Probe)
}

// Probe implements the "tls" protomux probe: parse a TLS record +
// ClientHello from the front of data and, if parsing succeeds, evaluate
// the entry's configured Policy (spec.md §4.B).
func Probe(data []byte, entry *protomux.ProtocolEntry) protomux.ProbeOutcome {
	outcome, ch := parseClientHello(data)
	switch outcome {
	case parseAgain:
		return protomux.Again
	case parseNext:
		return protomux.Next
	}

	policy, _ := entry.Data.(*Policy)
	if !policy.evaluate(ch) {
		return protomux.Next
	}
	return protomux.Match
}
