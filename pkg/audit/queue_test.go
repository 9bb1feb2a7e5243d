package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/reqtag/request-tagger/internal/models"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func testEvent(id string) *models.VisitEvent {
	return &models.VisitEvent{
		RequestID:  id,
		Method:     "GET",
		Path:       "/echo",
		StatusCode: 200,
		ReceivedAt: time.Now(),
	}
}

func TestVisitQueue_EnqueueDequeue(t *testing.T) {
	q := NewVisitQueue(10, testLogger())
	defer q.Close()

	if err := q.TryEnqueue(testEvent("1")); err != nil {
		t.Fatalf("TryEnqueue() failed: %v", err)
	}
	if err := q.TryEnqueue(testEvent("2")); err != nil {
		t.Fatalf("TryEnqueue() failed: %v", err)
	}

	if q.Depth() != 2 {
		t.Errorf("Depth() = %d, want 2", q.Depth())
	}

	ctx := context.Background()

	first, err := q.Dequeue(ctx)
	if err != nil {
		t.Fatalf("Dequeue() failed: %v", err)
	}
	if first.RequestID != "1" {
		t.Errorf("first event RequestID = %s, want 1 (FIFO order)", first.RequestID)
	}

	second, err := q.Dequeue(ctx)
	if err != nil {
		t.Fatalf("Dequeue() failed: %v", err)
	}
	if second.RequestID != "2" {
		t.Errorf("second event RequestID = %s, want 2", second.RequestID)
	}

	if q.Depth() != 0 {
		t.Errorf("Depth() = %d after draining, want 0", q.Depth())
	}
}

func TestVisitQueue_Full(t *testing.T) {
	q := NewVisitQueue(1, testLogger())
	defer q.Close()

	if err := q.TryEnqueue(testEvent("1")); err != nil {
		t.Fatalf("TryEnqueue() failed: %v", err)
	}

	err := q.TryEnqueue(testEvent("2"))
	if !errors.Is(err, ErrQueueFull) {
		t.Errorf("TryEnqueue() error = %v, want ErrQueueFull", err)
	}
}

func TestVisitQueue_Closed(t *testing.T) {
	q := NewVisitQueue(10, testLogger())
	q.Close()

	if err := q.TryEnqueue(testEvent("1")); !errors.Is(err, ErrQueueClosed) {
		t.Errorf("TryEnqueue() error = %v, want ErrQueueClosed", err)
	}

	// Close is idempotent
	q.Close()
}

func TestVisitQueue_DrainAfterClose(t *testing.T) {
	q := NewVisitQueue(10, testLogger())

	if err := q.TryEnqueue(testEvent("1")); err != nil {
		t.Fatalf("TryEnqueue() failed: %v", err)
	}
	q.Close()

	ev, err := q.Dequeue(context.Background())
	if err != nil {
		t.Fatalf("Dequeue() after close failed: %v", err)
	}
	if ev.RequestID != "1" {
		t.Errorf("event RequestID = %s, want 1", ev.RequestID)
	}

	if _, err := q.Dequeue(context.Background()); !errors.Is(err, ErrQueueClosed) {
		t.Errorf("Dequeue() on drained closed queue error = %v, want ErrQueueClosed", err)
	}
}

func TestVisitQueue_DequeueCancelled(t *testing.T) {
	q := NewVisitQueue(10, testLogger())
	defer q.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := q.Dequeue(ctx); err == nil {
		t.Error("Dequeue() succeeded on an empty queue with an expired context")
	}
}
