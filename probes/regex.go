package probes

import (
	"regexp"

	"github.com/sslh-go/protomux"
)

// RegexSet is the per-entry opaque data a "regex" ProtocolEntry carries: an
// ordered list of compiled patterns. It implements protomux.ProbeData.
type RegexSet struct {
	Patterns []*regexp.Regexp
}

func (*RegexSet) ProbeData() {}

// NewRegexProbe builds a protomux.ProbeFunc bound to the given compiled
// patterns. Unlike the built-in probes, the regex probe is never present in
// the static registry (spec.md §4.C: "regex ... never exposed as a
// built-in, only resolvable by name during configuration binding") — the
// config binder calls this directly and assigns the result to
// ProtocolEntry.Probe.
//
// The regex probe never returns Again: patterns are expected to tolerate
// partial input, or the entry's min_length handles short buffers.
func NewRegexProbe(patterns []*regexp.Regexp) protomux.ProbeFunc {
	set := &RegexSet{Patterns: patterns}
	return func(data []byte, entry *protomux.ProtocolEntry) protomux.ProbeOutcome {
		rs, ok := entry.Data.(*RegexSet)
		if !ok || rs == nil {
			rs = set
		}
		for _, p := range rs.Patterns {
			// Region-aware: Match operates only over data[:len(data)],
			// so the engine never reads past the valid region.
			if p.Match(data) {
				return protomux.Match
			}
		}
		return protomux.Next
	}
}
