// Package tmmetrics is the optional metrics sink the topic manager reports
// counters and latencies through. It is injected, never required: a nil
// Sink means "no metrics".
package tmmetrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/twmb/franz-go/plugin/kprom"
)

// Sink receives counter/latency updates keyed by operation name. A single
// Sink instance is shared by every admin/consumer implementation class and
// bootstrap URL the process talks to; callers that need per-cluster
// breakdown pass the bootstrap string as a label value themselves.
type Sink interface {
	IncOperation(op string, bootstrap string, success bool)
	ObserveLatency(op string, bootstrap string, d time.Duration)
}

// PrometheusSink is the default Sink, backed by prometheus/client_golang.
type PrometheusSink struct {
	operations *prometheus.CounterVec
	latency    *prometheus.HistogramVec
}

// NewPrometheusSink registers the topic manager's metrics against reg. reg
// may be prometheus.DefaultRegisterer.
func NewPrometheusSink(reg prometheus.Registerer) *PrometheusSink {
	factory := promauto.With(reg)
	return &PrometheusSink{
		operations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "topicmgr_operations_total",
			Help: "Count of topic manager operations by name, bootstrap, and outcome.",
		}, []string{"op", "bootstrap", "outcome"}),
		latency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "topicmgr_operation_duration_seconds",
			Help:    "Latency of topic manager operations by name and bootstrap.",
			Buckets: prometheus.DefBuckets,
		}, []string{"op", "bootstrap"}),
	}
}

// IncOperation records one completed operation.
func (s *PrometheusSink) IncOperation(op string, bootstrap string, success bool) {
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	s.operations.WithLabelValues(op, bootstrap, outcome).Inc()
}

// ObserveLatency records how long one operation took.
func (s *PrometheusSink) ObserveLatency(op string, bootstrap string, d time.Duration) {
	s.latency.WithLabelValues(op, bootstrap).Observe(d.Seconds())
}

// NewConsumerHooksOpt builds and returns a kprom.Metrics instance wired to
// reg. It implements the kgo hook interfaces; installing it with
// kgo.WithHooks makes the client's own fetch/byte/error counters land in the
// same registry as the orchestrator-level counters above.
func NewConsumerHooksOpt(reg prometheus.Registerer, namespace string) *kprom.Metrics {
	return kprom.NewMetrics(namespace, kprom.Registerer(reg))
}

var _ Sink = (*PrometheusSink)(nil)
