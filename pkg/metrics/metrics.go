package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTagged tracks completed requests by method, path and status
	RequestsTagged = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "requests_tagged_total",
			Help: "Total number of tagged HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// RequestDuration tracks request handling duration in seconds
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP request handling in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// TagSequence tracks the most recently issued identifier
	TagSequence = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tag_sequence_last",
			Help: "Most recently issued request identifier",
		},
	)

	// TagExhaustions tracks failed identifier allocations
	TagExhaustions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tag_exhaustions_total",
			Help: "Total number of identifier allocations that failed because the sequence was spent",
		},
	)

	// AuditQueueDepth tracks the current audit queue depth
	AuditQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "audit_queue_depth",
			Help: "Current number of visit events waiting in the audit queue",
		},
	)

	// AuditEventsDropped tracks visit events dropped due to a full queue
	AuditEventsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "audit_events_dropped_total",
			Help: "Total number of visit events dropped because the audit queue was full",
		},
	)

	// AuditSinkErrors tracks audit sink write failures after retries
	AuditSinkErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "audit_sink_errors_total",
			Help: "Total number of visit events the audit sink failed to write",
		},
	)

	// ReusedRequestIDs tracks client-supplied identifiers seen more than once
	ReusedRequestIDs = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reused_request_ids_total",
			Help: "Total number of client-supplied request identifiers reused within the detection window",
		},
	)
)

// RecordRequest records a completed request with its duration
func RecordRequest(method, path string, statusCode int, seconds float64) {
	RequestsTagged.WithLabelValues(method, path, fmt.Sprintf("%d", statusCode)).Inc()
	RequestDuration.WithLabelValues(method, path).Observe(seconds)
}

// SetTagSequence records the most recently issued identifier
func SetTagSequence(sequence uint64) {
	TagSequence.Set(float64(sequence))
}

// RecordExhaustion records a failed identifier allocation
func RecordExhaustion() {
	TagExhaustions.Inc()
}

// SetAuditQueueDepth records the current audit queue depth
func SetAuditQueueDepth(depth int) {
	AuditQueueDepth.Set(float64(depth))
}

// RecordAuditDrop records a visit event dropped due to a full queue
func RecordAuditDrop() {
	AuditEventsDropped.Inc()
}

// RecordSinkError records an audit sink write failure
func RecordSinkError() {
	AuditSinkErrors.Inc()
}

// RecordReusedID records a reused client-supplied request identifier
func RecordReusedID() {
	ReusedRequestIDs.Inc()
}
