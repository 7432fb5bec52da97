package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	OperationsTotal    *prometheus.CounterVec
	AuthFailuresTotal  prometheus.Counter
	WriteFailuresTotal prometheus.Counter
}

// New registers the ATM counters on reg. Tests pass a fresh registry so
// suites never collide on duplicate registration.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		OperationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "caspomat_operations_total",
			Help: "ATM operations by operation and outcome",
		}, []string{"operation", "outcome"}),
		AuthFailuresTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "caspomat_auth_failures_total",
			Help: "Failed authentication attempts",
		}),
		WriteFailuresTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "caspomat_durable_write_failures_total",
			Help: "Durable saves that failed; in-memory state kept serving",
		}),
	}
}

// The increment helpers are nil-safe so callers without telemetry wired can
// hold a nil *Metrics.

func (m *Metrics) ObserveOperation(operation, outcome string) {
	if m == nil {
		return
	}
	m.OperationsTotal.WithLabelValues(operation, outcome).Inc()
}

func (m *Metrics) IncAuthFailures() {
	if m == nil {
		return
	}
	m.AuthFailuresTotal.Inc()
}

func (m *Metrics) IncWriteFailures() {
	if m == nil {
		return
	}
	m.WriteFailuresTotal.Inc()
}
