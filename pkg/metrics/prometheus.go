package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all prometheus metrics
type Metrics struct {
	Operations            *prometheus.CounterVec
	OperationDuration     *prometheus.HistogramVec
	ErrorsCount           *prometheus.CounterVec
	ReservationsCreated   prometheus.Counter
	ReservationsCancelled prometheus.Counter
}

// NewMetrics creates new prometheus metrics registered on reg
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		Operations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "The total number of reservation operations by outcome",
		}, []string{"operation", "outcome"}),
		OperationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Time taken to complete reservation operations",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		ErrorsCount: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "The total number of errors",
		}, []string{"operation", "kind"}),
		ReservationsCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reservations_created_total",
			Help:      "The total number of reservations created",
		}),
		ReservationsCancelled: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reservations_cancelled_total",
			Help:      "The total number of cancellation requests that succeeded",
		}),
	}
}

// Observe records the outcome and latency of one operation. kind is empty on success.
func (m *Metrics) Observe(operation string, started time.Time, kind string) {
	if m == nil {
		return
	}
	m.OperationDuration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
	if kind == "" {
		m.Operations.WithLabelValues(operation, "success").Inc()
		return
	}
	m.Operations.WithLabelValues(operation, "error").Inc()
	m.ErrorsCount.WithLabelValues(operation, kind).Inc()
}
