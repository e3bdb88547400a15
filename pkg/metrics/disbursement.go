package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DisbursementMetrics records outcomes of batch disbursement runs.
type DisbursementMetrics struct {
	batchDuration   *prometheus.HistogramVec
	instructions    *prometheus.CounterVec
	rateLimitRetry  prometheus.Counter
	provisionMisses *prometheus.CounterVec
}

// NewDisbursementMetrics registers the disbursement metrics on the provided registerer.
func NewDisbursementMetrics(reg prometheus.Registerer) *DisbursementMetrics {
	if reg == nil {
		return &DisbursementMetrics{}
	}
	batchDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "batch_processing_duration_seconds",
		Help:    "Wall-clock duration of batch disbursement runs.",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 12),
	}, []string{"outcome"})
	instructions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_instructions_total",
		Help: "Payment instructions by final outcome.",
	}, []string{"outcome"})
	rateLimitRetry := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gateway_rate_limit_retries_total",
		Help: "Retries triggered by gateway rate limiting.",
	})
	provisionMisses := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "resource_provision_total",
		Help: "Gateway resources provisioned on cache miss, by kind.",
	}, []string{"kind"})
	reg.MustRegister(batchDuration, instructions, rateLimitRetry, provisionMisses)
	return &DisbursementMetrics{
		batchDuration:   batchDuration,
		instructions:    instructions,
		rateLimitRetry:  rateLimitRetry,
		provisionMisses: provisionMisses,
	}
}

// ObserveBatchDuration records the duration of a batch run with its outcome.
func (m *DisbursementMetrics) ObserveBatchDuration(outcome string, duration time.Duration) {
	if m == nil || m.batchDuration == nil {
		return
	}
	m.batchDuration.WithLabelValues(normalizeLabel(outcome)).Observe(duration.Seconds())
}

// IncInstruction counts a payment instruction outcome (pending, failed).
func (m *DisbursementMetrics) IncInstruction(outcome string) {
	if m == nil || m.instructions == nil {
		return
	}
	m.instructions.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncRateLimitRetry counts a retry caused by a gateway 429.
func (m *DisbursementMetrics) IncRateLimitRetry() {
	if m == nil || m.rateLimitRetry == nil {
		return
	}
	m.rateLimitRetry.Inc()
}

// IncProvision counts a gateway resource created on cache miss.
func (m *DisbursementMetrics) IncProvision(kind string) {
	if m == nil || m.provisionMisses == nil {
		return
	}
	m.provisionMisses.WithLabelValues(normalizeLabel(kind)).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
