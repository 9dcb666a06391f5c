package protomux

import "fmt"

// reservedTimeout and reservedRegex are the two pseudo-names spec.md §4.C
// calls out: "timeout" resolves to the always-match sentinel registered
// under anyprotName, and "regex" is never present in the static table at
// all — it is only constructible at configuration-bind time via
// probes.NewRegexProbe.
const (
	reservedTimeout = "timeout"
	reservedRegex   = "regex"
	anyprotName     = "anyprot"
)

var registry = make(map[string]ProbeFunc, 10)

// RegisterProbe adds a built-in probe function to the static registry. It
// is called from probe packages' init() functions (see probes/*.go),
// mirroring the teacher's RegisterScan/RegisterLookup self-registration
// idiom. Re-registering an existing name is a configuration/programming
// error and panics at init time, same as the teacher's log.Fatalf on
// duplicate registration.
func RegisterProbe(name string, fn ProbeFunc) {
	if name == reservedTimeout || name == reservedRegex {
		panic(fmt.Sprintf("protomux: %q is a reserved name and cannot be registered", name))
	}
	if _, exists := registry[name]; exists {
		panic(fmt.Sprintf("protomux: probe %q already registered", name))
	}
	registry[name] = fn
}

// ResolveProbe looks up a probe function by configuration name. It is used
// during configuration binding, never at runtime against user-supplied
// names. "timeout" resolves to whatever is registered under "anyprot"
// (typically the always-match sentinel); "regex" never resolves here since
// it requires per-entry compiled patterns supplied by the config binder.
func ResolveProbe(name string) (ProbeFunc, bool) {
	switch name {
	case reservedRegex:
		return nil, false
	case reservedTimeout:
		fn, ok := registry[anyprotName]
		return fn, ok
	default:
		fn, ok := registry[name]
		return fn, ok
	}
}
