package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/reqtag/request-tagger/internal/models"
	"github.com/reqtag/request-tagger/pkg/audit"
	"github.com/reqtag/request-tagger/pkg/metrics"
	"github.com/reqtag/request-tagger/pkg/tag"
)

// AccessLog returns middleware that logs one record per completed request
// and, when trail is non-nil, publishes a visit event to the audit queue.
// Auditing never blocks request handling; events are dropped when the queue
// is full.
func AccessLog(logger *logrus.Logger, trail *audit.VisitQueue) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Wrap the response writer to capture the status code
			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(rw, r)

			duration := time.Since(start)

			requestID := "-"
			var sequence uint64
			var instance string
			var clientSupplied bool
			if t, ok := tag.FromContext(r.Context()); ok {
				requestID = t.String()
				sequence = t.Sequence()
				instance = t.Instance()
				clientSupplied = t.ClientSupplied()
			}

			logger.WithFields(logrus.Fields{
				"request_id":  requestID,
				"method":      r.Method,
				"path":        r.URL.Path,
				"remote_addr": r.RemoteAddr,
				"status_code": rw.statusCode,
				"duration_ms": duration.Milliseconds(),
			}).Info("HTTP request")

			metrics.RecordRequest(r.Method, r.URL.Path, rw.statusCode, duration.Seconds())

			if trail == nil {
				return
			}

			ev := &models.VisitEvent{
				RequestID:      requestID,
				Sequence:       sequence,
				Instance:       instance,
				ClientSupplied: clientSupplied,
				Method:         r.Method,
				Path:           r.URL.Path,
				RemoteAddr:     r.RemoteAddr,
				UserAgent:      r.UserAgent(),
				StatusCode:     rw.statusCode,
				ReceivedAt:     start,
				CompletedAt:    start.Add(duration),
				Duration:       duration,
			}

			if err := trail.TryEnqueue(ev); err != nil {
				if errors.Is(err, audit.ErrQueueFull) {
					metrics.RecordAuditDrop()
				}
				logger.WithFields(logrus.Fields{
					"request_id": requestID,
					"error":      err.Error(),
				}).Debug("Visit event dropped")
			}
		})
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
