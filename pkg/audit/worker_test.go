package audit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/reqtag/request-tagger/internal/models"
)

// collectingSink records every event it receives
type collectingSink struct {
	mu     sync.Mutex
	events []*models.VisitEvent
}

func (s *collectingSink) Write(ctx context.Context, ev *models.VisitEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return nil
}

func (s *collectingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

// panicSink panics on every write
type panicSink struct {
	calls int64
	mu    sync.Mutex
}

func (s *panicSink) Write(ctx context.Context, ev *models.VisitEvent) error {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	panic("sink exploded")
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestWorkerPool_DrainsQueue(t *testing.T) {
	logger := testLogger()
	q := NewVisitQueue(10, logger)
	sink := &collectingSink{}

	pool := NewWorkerPool(q, 2, sink, logger)
	pool.Start()
	defer pool.Stop(time.Second)

	for i := 0; i < 5; i++ {
		if err := q.TryEnqueue(testEvent("e")); err != nil {
			t.Fatalf("TryEnqueue() failed: %v", err)
		}
	}

	waitFor(t, 2*time.Second, func() bool { return sink.count() == 5 })

	if q.Depth() != 0 {
		t.Errorf("Depth() = %d after draining, want 0", q.Depth())
	}
}

func TestWorkerPool_RecoversFromSinkPanic(t *testing.T) {
	logger := testLogger()
	q := NewVisitQueue(10, logger)
	sink := &panicSink{}

	pool := NewWorkerPool(q, 1, sink, logger)
	pool.Start()
	defer pool.Stop(time.Second)

	if err := q.TryEnqueue(testEvent("boom")); err != nil {
		t.Fatalf("TryEnqueue() failed: %v", err)
	}
	if err := q.TryEnqueue(testEvent("boom")); err != nil {
		t.Fatalf("TryEnqueue() failed: %v", err)
	}

	// Both events are processed despite the first panic
	waitFor(t, 2*time.Second, func() bool {
		sink.mu.Lock()
		defer sink.mu.Unlock()
		return sink.calls == 2
	})
}

func TestWorkerPool_StopIsIdempotent(t *testing.T) {
	logger := testLogger()
	q := NewVisitQueue(10, logger)
	pool := NewWorkerPool(q, 2, &collectingSink{}, logger)

	pool.Start()

	if err := pool.Stop(time.Second); err != nil {
		t.Errorf("Stop() failed: %v", err)
	}
	if err := pool.Stop(time.Second); err != nil {
		t.Errorf("second Stop() failed: %v", err)
	}
}
