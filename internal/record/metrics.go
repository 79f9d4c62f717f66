package record

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics aggregates steps into Prometheus collectors.
// If a path is set, the registry is written there
// in the text exposition format on every flush.
type Metrics struct {
	registry  *prometheus.Registry
	accesses  *prometheus.CounterVec
	actions   *prometheus.CounterVec
	resident  *prometheus.GaugeVec
	free      *prometheus.GaugeVec
	elapsed   *prometheus.GaugeVec
	path      string
	recorded  int
	lastFlush int
}

const namespace = "pagesim"

// NewMetrics creates a metrics sink with its own registry.
// path may be empty, in which case nothing is written.
func NewMetrics(path string) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		path:     path,
		accesses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "accesses_total",
			Help:      "Page accesses by policy and outcome.",
		}, []string{"run", "policy", "outcome"}),
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actions_total",
			Help:      "Replacement actions by policy and kind.",
		}, []string{"run", "policy", "kind"}),
		resident: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "resident_units",
			Help:      "Units on each list after the last access.",
		}, []string{"run", "policy", "list"}),
		free: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "free_units",
			Help:      "Free slots after the last access.",
		}, []string{"run", "policy"}),
		elapsed: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "elapsed_seconds",
			Help:      "Logical time elapsed at the last access.",
		}, []string{"run", "policy"}),
	}
	m.registry.MustRegister(m.accesses, m.actions, m.resident, m.free, m.elapsed)
	return m
}

// Registry returns the registry the collectors are registered with.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Record updates the collectors from step.
func (m *Metrics) Record(step Step) error {
	var (
		event    = step.Event
		snapshot = step.Snapshot
	)
	m.accesses.WithLabelValues(step.Run, step.Policy, event.Outcome.String()).Inc()
	for _, action := range event.Actions {
		m.actions.WithLabelValues(step.Run, step.Policy, action.Kind.String()).Inc()
		if action.Dirty {
			m.actions.WithLabelValues(step.Run, step.Policy, "write back").Inc()
		}
	}
	m.resident.WithLabelValues(step.Run, step.Policy, "active").Set(float64(len(snapshot.Active)))
	m.resident.WithLabelValues(step.Run, step.Policy, "inactive").Set(float64(len(snapshot.Inactive)))
	m.free.WithLabelValues(step.Run, step.Policy).Set(float64(snapshot.Free))
	m.elapsed.WithLabelValues(step.Run, step.Policy).Set(step.Elapsed.Seconds())
	m.recorded++
	return nil
}

// Flush writes the registry to the configured path.
func (m *Metrics) Flush() error {
	if m.path == "" || m.recorded == m.lastFlush {
		return nil
	}
	if err := prometheus.WriteToTextfile(m.path, m.registry); err != nil {
		return err
	}
	m.lastFlush = m.recorded
	return nil
}

// Close performs a final flush.
func (m *Metrics) Close() error { return m.Flush() }
