// Package config loads a YAML protocol-list document into a fully-bound
// protomux.Configuration, resolving each entry's declared probe name
// against the protomux registry (or constructing a regex/TLS probe
// directly for the two names the registry doesn't carry statically). This
// is the "configuration-loaded list of ProtocolEntry with probe references
// already bound" collaborator named in spec.md §6.
package config

import (
	"fmt"
	"io/ioutil"
	"regexp"

	"gopkg.in/yaml.v2"

	"github.com/sslh-go/protomux"
	"github.com/sslh-go/protomux/probes"
	tlsprobe "github.com/sslh-go/protomux/tls"
)

// entryDoc is the on-disk shape of a single protocol declaration.
type entryDoc struct {
	Name                    string   `yaml:"name"`
	Probe                   string   `yaml:"probe"`
	MinLength               int      `yaml:"min_length"`
	Host                    string   `yaml:"host"`
	Port                    uint16   `yaml:"port"`
	SNI                     []string `yaml:"sni"`
	ALPN                    []string `yaml:"alpn"`
	Patterns                []string `yaml:"patterns"`
	ADBDisableEmptyMsgCheck bool     `yaml:"adb_disable_empty_heuristic"`
}

// document is the on-disk shape of the whole configuration file.
type document struct {
	OnTimeout string     `yaml:"on_timeout"`
	Verbose   int        `yaml:"verbose"`
	Protocols []entryDoc `yaml:"protocols"`
}

// Load reads and binds a configuration file at path.
func Load(path string) (*protomux.Configuration, error) {
	raw, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse binds a configuration document already in memory. Exposed
// separately from Load so tests and embedders needn't touch the
// filesystem.
func Parse(raw []byte) (*protomux.Configuration, error) {
	var doc document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("config: parsing document: %w", err)
	}

	cfg := &protomux.Configuration{
		OnTimeout: doc.OnTimeout,
		Verbose:   doc.Verbose,
	}

	seen := make(map[string]bool, len(doc.Protocols))
	for i, ed := range doc.Protocols {
		if ed.Name == "" {
			return nil, fmt.Errorf("config: protocol entry %d: missing name", i)
		}
		if seen[ed.Name] {
			return nil, fmt.Errorf("config: duplicate protocol name %q", ed.Name)
		}
		seen[ed.Name] = true

		entry, err := bindEntry(ed)
		if err != nil {
			return nil, err
		}
		cfg.Entries = append(cfg.Entries, entry)
	}

	if err := validateOrdering(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func bindEntry(ed entryDoc) (*protomux.ProtocolEntry, error) {
	entry := &protomux.ProtocolEntry{
		Name:      ed.Name,
		MinLength: ed.MinLength,
		Host:      ed.Host,
		Port:      ed.Port,
	}

	switch ed.Probe {
	case "":
		// No probe: managed externally, skipped by the arbiter.
		return entry, nil

	case "regex":
		patterns := make([]*regexp.Regexp, 0, len(ed.Patterns))
		for _, p := range ed.Patterns {
			re, err := regexp.Compile(p)
			if err != nil {
				return nil, fmt.Errorf("config: entry %q: bad pattern %q: %w", ed.Name, p, err)
			}
			patterns = append(patterns, re)
		}
		entry.Probe = probes.NewRegexProbe(patterns)
		entry.Data = &probes.RegexSet{Patterns: patterns}
		return entry, nil

	case "tls":
		fn, ok := protomux.ResolveProbe("tls")
		if !ok {
			return nil, fmt.Errorf("config: entry %q: tls probe not registered (missing tls package import?)", ed.Name)
		}
		entry.Probe = fn
		entry.Data = &tlsprobe.Policy{SNIAllow: ed.SNI, ALPNAllow: ed.ALPN}
		return entry, nil

	case "adb":
		fn, ok := protomux.ResolveProbe("adb")
		if !ok {
			return nil, fmt.Errorf("config: entry %q: adb probe not registered", ed.Name)
		}
		entry.Probe = fn
		if ed.ADBDisableEmptyMsgCheck {
			entry.Data = &probes.ADBOptions{DisableEmptyMessageHeuristic: true}
		}
		return entry, nil

	default:
		fn, ok := protomux.ResolveProbe(ed.Probe)
		if !ok {
			return nil, fmt.Errorf("config: entry %q: unknown probe %q", ed.Name, ed.Probe)
		}
		entry.Probe = fn
		return entry, nil
	}
}

// validateOrdering enforces spec.md §3's ordering invariant: an "anyprot"
// entry, if present, must be last.
func validateOrdering(cfg *protomux.Configuration) error {
	for i, e := range cfg.Entries {
		if e.Name == "anyprot" && i != len(cfg.Entries)-1 {
			return fmt.Errorf("config: %q must be the last entry if present", "anyprot")
		}
	}
	return nil
}
