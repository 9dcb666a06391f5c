package protomux

// TimeoutProtocol returns the entry to select when a connection has been
// idle past the configured detection window with no Match yet (spec.md
// §4.F, "Timeout fallback"): the entry named cfg.OnTimeout, or the first
// configured entry if OnTimeout is empty or does not resolve to a known
// entry.
func TimeoutProtocol(cfg *Configuration) *ProtocolEntry {
	if cfg.OnTimeout != "" {
		if e := cfg.byName(cfg.OnTimeout); e != nil {
			return e
		}
	}
	if len(cfg.Entries) == 0 {
		return nil
	}
	return cfg.Entries[0]
}
