package models

import (
	"time"
)

// VisitEvent describes one tagged request. The access-log middleware builds
// an event after the response is written and publishes it to the audit trail.
type VisitEvent struct {
	// Identifier assigned to the request
	RequestID string
	Sequence  uint64
	Instance  string

	// True when the identifier was supplied by the client rather than
	// allocated by the generator
	ClientSupplied bool

	// Request data
	Method     string
	Path       string
	RemoteAddr string
	UserAgent  string

	// Response data
	StatusCode int

	// Timing
	ReceivedAt  time.Time
	CompletedAt time.Time
	Duration    time.Duration
}

// Outcome buckets the response status for metrics and audit records.
func (e *VisitEvent) Outcome() Outcome {
	switch {
	case e.StatusCode >= 500:
		return OutcomeServerError
	case e.StatusCode >= 400:
		return OutcomeClientError
	default:
		return OutcomeOK
	}
}

// Outcome classifies a completed request.
type Outcome string

const (
	OutcomeOK          Outcome = "ok"
	OutcomeClientError Outcome = "client_error"
	OutcomeServerError Outcome = "server_error"
)
