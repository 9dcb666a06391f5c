package protomux

import log "github.com/sirupsen/logrus"

// ProbeBuffer runs the configured probe chain against the accumulated
// buffer and returns the three-valued outcome plus, on Match, the winning
// entry. It implements spec.md §4.D's algorithm exactly: declaration order
// is authoritative, the first Match wins, and any inconclusive (Again or
// min_length-short) entry along the way forces an overall Again unless a
// later entry matches first.
//
// ProbeBuffer is pure and reentrant: it has no side effects beyond optional
// logging, and its result depends only on cfg and data.
func ProbeBuffer(cfg *Configuration, data []byte) (ProbeOutcome, *ProtocolEntry) {
	anyAgain := false

	for i, entry := range cfg.Entries {
		if entry.Probe == nil {
			continue
		}
		if isTrailingAnyprot(cfg, i) {
			break
		}
		if entry.MinLength > 0 && len(data) < entry.MinLength {
			anyAgain = true
			logDecision(cfg, entry, Again, "buffer shorter than min_length")
			continue
		}

		outcome := entry.Probe(data, entry)
		logDecision(cfg, entry, outcome, "")
		switch outcome {
		case Match:
			return Match, entry
		case Again:
			anyAgain = true
		case Next:
			// try the next entry
		}
	}

	if anyAgain {
		return Again, nil
	}
	if len(cfg.Entries) == 0 {
		return Again, nil
	}
	last := cfg.Entries[len(cfg.Entries)-1]
	logDecision(cfg, last, Match, "exhaustion fallback")
	return Match, last
}

// isTrailingAnyprot reports whether cfg.Entries[i] is the last entry and is
// named "anyprot" — the arbiter never invokes that entry as a probe,
// treating it instead as the residual fallback when the chain is
// exhausted (spec.md §3, "Ordering invariant").
func isTrailingAnyprot(cfg *Configuration, i int) bool {
	return i == len(cfg.Entries)-1 && cfg.Entries[i].Name == anyprotName
}

func logDecision(cfg *Configuration, entry *ProtocolEntry, outcome ProbeOutcome, note string) {
	if cfg.Verbose <= 0 {
		return
	}
	fields := log.Fields{"entry": entry.Name, "outcome": outcome.String()}
	if note != "" {
		fields["note"] = note
	}
	log.WithFields(fields).Debug("protomux: probe decision")
}
