package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for the reservation core.
type Metrics struct {
	// ReservationsCreatedTotal counts successful admissions.
	ReservationsCreatedTotal prometheus.Counter

	// AdmissionConflictsTotal counts admissions rejected because the
	// locker was unavailable for the requested window.
	AdmissionConflictsTotal prometheus.Counter

	// SweepRunsTotal counts expiry sweep executions.
	SweepRunsTotal prometheus.Counter

	// SweepCompletedTotal counts reservations auto-completed by sweeps.
	SweepCompletedTotal prometheus.Counter

	// SweepFailuresTotal counts per-reservation sweep failures.
	SweepFailuresTotal prometheus.Counter

	// SweepDuration is the time one full sweep takes.
	SweepDuration prometheus.Histogram
}

// NewMetrics creates and registers reservation metrics on the default
// registry. Call once per process.
func NewMetrics(namespace string) *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer, namespace)
}

// NewMetricsWith registers reservation metrics on the given registerer.
func NewMetricsWith(reg prometheus.Registerer, namespace string) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ReservationsCreatedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reservations_created_total",
			Help:      "Total number of reservations admitted",
		}),
		AdmissionConflictsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "admission_conflicts_total",
			Help:      "Total number of admissions rejected for unavailability",
		}),
		SweepRunsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sweep_runs_total",
			Help:      "Total number of expiry sweep runs",
		}),
		SweepCompletedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sweep_completed_total",
			Help:      "Total number of reservations completed by sweeps",
		}),
		SweepFailuresTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sweep_failures_total",
			Help:      "Total number of per-reservation sweep failures",
		}),
		SweepDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sweep_duration_seconds",
			Help:      "Duration of one full expiry sweep",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}
