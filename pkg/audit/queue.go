package audit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/reqtag/request-tagger/internal/models"
	"github.com/reqtag/request-tagger/pkg/metrics"
)

// ErrQueueClosed is returned when operating on a closed queue.
var ErrQueueClosed = errors.New("audit queue is closed")

// ErrQueueFull is returned by TryEnqueue when the queue is at capacity.
// Callers drop the event rather than block request handling.
var ErrQueueFull = errors.New("audit queue is full")

// VisitQueue is an in-memory bounded queue of visit events awaiting audit.
type VisitQueue struct {
	queue    chan *models.VisitEvent
	capacity int
	depth    int64 // atomic counter for current queue depth
	logger   *logrus.Logger
	mu       sync.RWMutex
	closed   bool
}

// NewVisitQueue creates a new visit queue with the specified capacity
func NewVisitQueue(capacity int, logger *logrus.Logger) *VisitQueue {
	return &VisitQueue{
		queue:    make(chan *models.VisitEvent, capacity),
		capacity: capacity,
		logger:   logger,
	}
}

// TryEnqueue adds a visit event to the queue without blocking.
// Returns ErrQueueFull when at capacity and ErrQueueClosed after Close.
func (q *VisitQueue) TryEnqueue(ev *models.VisitEvent) error {
	// Hold the read lock across the send so Close cannot close the channel
	// underneath us; the select never blocks
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.queue <- ev:
		depth := atomic.AddInt64(&q.depth, 1)
		metrics.SetAuditQueueDepth(int(depth))
		q.logger.WithFields(logrus.Fields{
			"request_id":  ev.RequestID,
			"queue_depth": depth,
		}).Debug("Visit event enqueued")
		return nil
	default:
		return fmt.Errorf("%w (capacity: %d)", ErrQueueFull, q.capacity)
	}
}

// Dequeue removes and returns a visit event from the queue (FIFO)
// Blocks until an event is available or context is cancelled
func (q *VisitQueue) Dequeue(ctx context.Context) (*models.VisitEvent, error) {
	select {
	case ev, ok := <-q.queue:
		if !ok {
			return nil, ErrQueueClosed
		}
		depth := atomic.AddInt64(&q.depth, -1)
		metrics.SetAuditQueueDepth(int(depth))
		return ev, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("dequeue cancelled: %w", ctx.Err())
	}
}

// Depth returns the current number of events in the queue
func (q *VisitQueue) Depth() int {
	return int(atomic.LoadInt64(&q.depth))
}

// Capacity returns the maximum capacity of the queue
func (q *VisitQueue) Capacity() int {
	return q.capacity
}

// Close closes the queue. Queued events can still be drained; further
// enqueues fail with ErrQueueClosed.
func (q *VisitQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.queue)

	q.logger.WithFields(logrus.Fields{
		"remaining": atomic.LoadInt64(&q.depth),
	}).Info("Audit queue closed")
}
