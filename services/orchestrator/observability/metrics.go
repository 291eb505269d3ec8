// Package observability provides Prometheus metrics for the assist pipeline.
//
// Metrics cover the policy-relevant events (PII deflections, guardrail
// rewrites, retrieval failures) alongside the usual request counters and
// latency histograms, and are exposed via the /metrics endpoint.
//
// Label values are closed vocabularies (intent names, statuses); raw user
// input never becomes a label.
//
// # Thread Safety
//
// All metric operations are thread-safe via Prometheus's internal locking.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace for all metrics
const metricsNamespace = "bankassist"

// Subsystem for assist pipeline metrics
const pipelineSubsystem = "pipeline"

// PipelineMetrics holds all Prometheus metrics for assist operations.
// Initialize once at startup via InitMetrics().
type PipelineMetrics struct {
	// RequestsTotal counts assist requests by intent and payload status.
	// Labels: intent (transactional:login, transactional:feature, knowledge,
	// transactional, pii_deflected), status (ok, error)
	RequestsTotal *prometheus.CounterVec

	// PIIDeflectionsTotal counts requests short-circuited by the PII gate.
	PIIDeflectionsTotal prometheus.Counter

	// GuardrailRewritesTotal counts answers the output guardrail changed.
	// Labels: intent
	GuardrailRewritesTotal *prometheus.CounterVec

	// RetrievalFailuresTotal counts knowledge-base lookups that failed and
	// were degraded to an ungrounded answer.
	RetrievalFailuresTotal prometheus.Counter

	// CBSLookupFailuresTotal counts failed core-banking status calls.
	CBSLookupFailuresTotal prometheus.Counter

	// LLMDurationSeconds measures model call latency.
	// Labels: status (success, error)
	LLMDurationSeconds *prometheus.HistogramVec

	// RequestDurationSeconds measures whole-pipeline latency.
	// Labels: intent
	RequestDurationSeconds *prometheus.HistogramVec
}

// DefaultMetrics is the singleton instance of PipelineMetrics.
// Initialized by InitMetrics().
var DefaultMetrics *PipelineMetrics

// InitMetrics creates and registers all Prometheus metrics. Safe to call
// more than once; registration only happens on the first call.
func InitMetrics() *PipelineMetrics {
	if DefaultMetrics != nil {
		return DefaultMetrics
	}
	DefaultMetrics = &PipelineMetrics{
		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: pipelineSubsystem,
				Name:      "requests_total",
				Help:      "Total number of assist requests by intent and status",
			},
			[]string{"intent", "status"},
		),

		PIIDeflectionsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: pipelineSubsystem,
				Name:      "pii_deflections_total",
				Help:      "Total requests deflected by the PII gate before any external call",
			},
		),

		GuardrailRewritesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: pipelineSubsystem,
				Name:      "guardrail_rewrites_total",
				Help:      "Total model answers rewritten by the output guardrail",
			},
			[]string{"intent"},
		),

		RetrievalFailuresTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: pipelineSubsystem,
				Name:      "retrieval_failures_total",
				Help:      "Total knowledge-base retrievals that failed open",
			},
		),

		CBSLookupFailuresTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: pipelineSubsystem,
				Name:      "cbs_lookup_failures_total",
				Help:      "Total core banking status lookups that failed",
			},
		),

		LLMDurationSeconds: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: pipelineSubsystem,
				Name:      "llm_duration_seconds",
				Help:      "Model call latency in seconds",
				Buckets:   []float64{0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0},
			},
			[]string{"status"},
		),

		RequestDurationSeconds: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: pipelineSubsystem,
				Name:      "request_duration_seconds",
				Help:      "Whole assist pipeline latency in seconds",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
			},
			[]string{"intent"},
		),
	}

	return DefaultMetrics
}
