package probes

import "github.com/sslh-go/protomux"

func init() {
	protomux.RegisterProbe("anyprot", AnyProt)
}

// AnyProt unconditionally matches. It is used only as the residual
// fallback entry; per spec.md §3 and §4.D the arbiter never invokes it as
// part of the probe chain — it is registered here so that ResolveProbe
// (and, via the "timeout" alias, the fallback entry) can bind a real
// ProbeFunc to it, and so a configuration can still declare an explicit
// "anyprot" entry that resolves through the normal registry path.
func AnyProt(_ []byte, _ *protomux.ProtocolEntry) protomux.ProbeOutcome {
	return protomux.Match
}
