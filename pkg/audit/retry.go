package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/reqtag/request-tagger/internal/models"
	"github.com/reqtag/request-tagger/pkg/metrics"
)

// RetryConfig holds retry logic configuration
type RetryConfig struct {
	MaxRetries        int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
}

// DefaultRetryConfig returns default retry configuration
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:        3,
		InitialBackoff:    100 * time.Millisecond,
		MaxBackoff:        5 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// RetryingSink wraps a sink with capped exponential backoff for transient
// write failures
type RetryingSink struct {
	config RetryConfig
	sink   Sink
	logger *logrus.Logger
}

// NewRetryingSink creates a new retrying sink
func NewRetryingSink(sink Sink, config RetryConfig, logger *logrus.Logger) *RetryingSink {
	return &RetryingSink{
		config: config,
		sink:   sink,
		logger: logger,
	}
}

// Write attempts the underlying write, retrying with exponential backoff.
// Gives up after MaxRetries retries or when ctx is cancelled.
func (rs *RetryingSink) Write(ctx context.Context, ev *models.VisitEvent) error {
	var lastErr error

	for attempt := 0; attempt <= rs.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := rs.calculateBackoff(attempt)

			rs.logger.WithFields(logrus.Fields{
				"request_id": ev.RequestID,
				"attempt":    attempt,
				"backoff":    backoff,
				"error":      lastErr.Error(),
			}).Info("Retrying visit event write")

			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return fmt.Errorf("write retry cancelled: %w", ctx.Err())
			}
		}

		lastErr = rs.sink.Write(ctx, ev)
		if lastErr == nil {
			return nil
		}
	}

	metrics.RecordSinkError()
	return fmt.Errorf("write failed after %d retries: %w", rs.config.MaxRetries, lastErr)
}

// calculateBackoff calculates the backoff duration using exponential backoff
func (rs *RetryingSink) calculateBackoff(attempt int) time.Duration {
	backoff := float64(rs.config.InitialBackoff)

	for i := 1; i < attempt; i++ {
		backoff *= rs.config.BackoffMultiplier
	}

	duration := time.Duration(backoff)

	// Cap at max backoff
	if duration > rs.config.MaxBackoff {
		duration = rs.config.MaxBackoff
	}

	return duration
}

// BackoffDurations returns the backoff durations for each retry attempt
func (rs *RetryingSink) BackoffDurations() []time.Duration {
	durations := make([]time.Duration, rs.config.MaxRetries)
	for i := 0; i < rs.config.MaxRetries; i++ {
		durations[i] = rs.calculateBackoff(i + 1)
	}
	return durations
}
