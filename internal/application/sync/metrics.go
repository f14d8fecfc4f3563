package sync

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts remote sync traffic.
type Metrics struct {
	Pulls        prometheus.Counter
	PullFailures prometheus.Counter
	Pushes       prometheus.Counter
	PushFailures prometheus.Counter
}

// NewMetrics creates unregistered sync counters.
func NewMetrics() *Metrics {
	return &Metrics{
		Pulls: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "priospace_sync_pulls_total",
			Help: "Completed remote pull operations",
		}),
		PullFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "priospace_sync_pull_failures_total",
			Help: "Remote pull operations that failed",
		}),
		Pushes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "priospace_sync_pushes_total",
			Help: "Completed remote push operations",
		}),
		PushFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "priospace_sync_push_failures_total",
			Help: "Remote push operations that failed and were dropped",
		}),
	}
}

// Register registers the counters with the given registry.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{m.Pulls, m.PullFailures, m.Pushes, m.PushFailures} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
