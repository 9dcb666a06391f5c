// Package metrics exposes Prometheus counters over the arbiter's
// classification decisions, generalizing the teacher's (zgrab2)
// per-scanner success/failure counting (scanner.go's Monitor/statusesChan)
// to per-outcome counters for a demultiplexer.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Decisions holds the counters a server/arbiter reports into. Construct it
// with NewDecisions (the zero value has nil counters) and call Register to
// attach it to a prometheus.Registerer. Server increments only Match and
// TimeoutFallback; nothing in this module increments Next, AgainTerminal or
// ExhaustionFallback, so those stay at zero.
type Decisions struct {
	Match              *prometheus.CounterVec
	Next               *prometheus.CounterVec
	AgainTerminal      prometheus.Counter
	TimeoutFallback    prometheus.Counter
	ExhaustionFallback prometheus.Counter
}

// NewDecisions constructs a Decisions with all counters initialized.
func NewDecisions() *Decisions {
	return &Decisions{
		Match: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "protomux",
			Name:      "match_total",
			Help:      "Number of connections matched to a protocol, by entry name.",
		}, []string{"entry"}),
		Next: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "protomux",
			Name:      "probe_next_total",
			Help:      "Number of times a probe ruled itself out, by entry name.",
		}, []string{"entry"}),
		AgainTerminal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "protomux",
			Name:      "again_exhausted_total",
			Help:      "Number of connections that hit the buffer cap while still Again.",
		}),
		TimeoutFallback: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "protomux",
			Name:      "timeout_fallback_total",
			Help:      "Number of connections resolved by the idle-timeout fallback.",
		}),
		ExhaustionFallback: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "protomux",
			Name:      "exhaustion_fallback_total",
			Help:      "Number of connections resolved by the chain-exhaustion fallback.",
		}),
	}
}

// Register attaches every counter in d to reg.
func (d *Decisions) Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{d.Match, d.Next, d.AgainTerminal, d.TimeoutFallback, d.ExhaustionFallback}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
