package metrics

import (
	"errors"
	"time"

	custom_error "github.com/NuwanHarshanaFernando/sirti-next-sub002/pkg/errors"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "stockledger"

const (
	OutcomeSuccess    = "success"
	OutcomePartial    = "partial"
	OutcomeValidation = "validation"
	OutcomeConflict   = "conflict"
	OutcomeError      = "error"
)

// Metrics groups the collectors of the service. A nil *Metrics records nothing.
type Metrics struct {
	transitions       *prometheus.CounterVec
	auditSinkFailures prometheus.Counter
	requestDuration   *prometheus.HistogramVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transitions_total",
			Help:      "Stock ledger operations by outcome.",
		}, []string{"operation", "outcome"}),
		auditSinkFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audit_sink_failures_total",
			Help:      "Activity and notification writes that failed after a committed transition.",
		}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}

	reg.MustRegister(m.transitions, m.auditSinkFailures, m.requestDuration)
	return m
}

func (m *Metrics) ObserveTransition(operation, outcome string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(operation, outcome).Inc()
}

func (m *Metrics) AuditSinkFailure() {
	if m == nil {
		return
	}
	m.auditSinkFailures.Inc()
}

func (m *Metrics) ObserveRequest(method, route, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requestDuration.WithLabelValues(method, route, status).Observe(elapsed.Seconds())
}

// Classify maps an operation error to its outcome label.
func Classify(err error) string {
	var (
		validationErr *custom_error.ValidationError
		conflictErr   *custom_error.ConflictError
	)
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.As(err, &validationErr):
		return OutcomeValidation
	case errors.As(err, &conflictErr):
		return OutcomeConflict
	default:
		return OutcomeError
	}
}
