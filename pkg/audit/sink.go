package audit

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/reqtag/request-tagger/internal/models"
)

// Sink receives visit events drained from the queue.
type Sink interface {
	Write(ctx context.Context, ev *models.VisitEvent) error
}

// LogSink writes visit events to the structured log.
type LogSink struct {
	logger *logrus.Logger
}

// NewLogSink creates a sink that records visit events via the given logger
func NewLogSink(logger *logrus.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Write emits one audit record for the visit
func (s *LogSink) Write(ctx context.Context, ev *models.VisitEvent) error {
	s.logger.WithFields(logrus.Fields{
		"request_id":      ev.RequestID,
		"sequence":        ev.Sequence,
		"instance":        ev.Instance,
		"client_supplied": ev.ClientSupplied,
		"method":          ev.Method,
		"path":            ev.Path,
		"remote_addr":     ev.RemoteAddr,
		"status_code":     ev.StatusCode,
		"outcome":         string(ev.Outcome()),
		"duration_ms":     ev.Duration.Milliseconds(),
	}).Info("Request audited")
	return nil
}
