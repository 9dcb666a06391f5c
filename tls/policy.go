package tls

import (
	"strings"

	"golang.org/x/net/idna"
)

// Policy is the per-entry opaque data a "tls" ProtocolEntry carries: the
// configured SNI and ALPN allow-lists that must hold for the probe to
// return Match rather than Next (spec.md §4.B step 7). It implements
// protomux.ProbeData.
type Policy struct {
	// SNIAllow, if non-empty, requires the ClientHello's server name to
	// match at least one entry. Matching is case-insensitive exact, with
	// left-most-label "*" wildcard support (matches exactly one label).
	SNIAllow []string
	// ALPNAllow, if non-empty, requires at least one of the ClientHello's
	// ALPN protocols to match at least one entry, case-sensitive exact.
	ALPNAllow []string
}

func (*Policy) ProbeData() {}

// evaluate reports whether ch satisfies p's configured allow-lists. A nil
// Policy (no policy configured on the entry) always evaluates true.
func (p *Policy) evaluate(ch *clientHello) bool {
	if p == nil {
		return true
	}
	if len(p.SNIAllow) > 0 && !matchSNI(p.SNIAllow, ch.serverName) {
		return false
	}
	if len(p.ALPNAllow) > 0 && !matchALPN(p.ALPNAllow, ch.alpn) {
		return false
	}
	return true
}

// toASCIILower folds s to lower case and, where possible, to its
// ASCII/Punycode form so allow-lists written in plain ASCII still match
// internationalized host names (spec.md §4.B: "ASCII/IDNA-encoded host").
// If idna conversion fails (e.g. the input isn't a valid domain name at
// all), the lower-cased input is used as-is rather than rejecting the
// match outright.
func toASCIILower(s string) string {
	lower := strings.ToLower(s)
	ascii, err := idna.ToASCII(lower)
	if err != nil {
		return lower
	}
	return ascii
}

func matchSNI(allow []string, serverName string) bool {
	if serverName == "" {
		return false
	}
	host := toASCIILower(serverName)
	for _, pattern := range allow {
		if matchHostPattern(toASCIILower(pattern), host) {
			return true
		}
	}
	return false
}

// matchHostPattern implements "left-most label * matches exactly one
// label", everything else exact (spec.md §4.B step 7). Both arguments are
// expected already lower-cased/ASCII-normalized.
func matchHostPattern(pattern, host string) bool {
	pLabels := strings.Split(pattern, ".")
	hLabels := strings.Split(host, ".")
	if len(pLabels) != len(hLabels) {
		return false
	}
	for i, label := range pLabels {
		if i == 0 && label == "*" {
			continue
		}
		if label != hLabels[i] {
			return false
		}
	}
	return true
}

func matchALPN(allow, protos []string) bool {
	for _, a := range allow {
		for _, p := range protos {
			if a == p {
				return true
			}
		}
	}
	return false
}
