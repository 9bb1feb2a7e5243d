package audit

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// ReuseDetector remembers client-supplied request identifiers for a TTL
// window and flags replays. Only consulted when inbound IDs are trusted;
// generated identifiers are unique by construction and never pass through.
type ReuseDetector struct {
	seen      map[string]time.Time
	ttl       time.Duration
	mu        sync.Mutex
	logger    *logrus.Logger
	stopChan  chan struct{}
	stopOnce  sync.Once
	hitCount  int64
	missCount int64
}

// NewReuseDetector creates a new reuse detector with the given window
func NewReuseDetector(ttl time.Duration, logger *logrus.Logger) *ReuseDetector {
	rd := &ReuseDetector{
		seen:     make(map[string]time.Time),
		ttl:      ttl,
		logger:   logger,
		stopChan: make(chan struct{}),
	}

	// Start cleanup goroutine
	go rd.cleanupLoop()

	return rd
}

// Seen records id and reports whether it was already seen within the window
func (rd *ReuseDetector) Seen(id string) bool {
	now := time.Now()

	rd.mu.Lock()
	lastSeen, exists := rd.seen[id]
	rd.seen[id] = now
	if exists && now.Sub(lastSeen) < rd.ttl {
		rd.hitCount++
		rd.mu.Unlock()

		rd.logger.WithFields(logrus.Fields{
			"request_id": id,
			"age":        now.Sub(lastSeen),
		}).Debug("Reused request identifier detected")
		return true
	}
	rd.missCount++
	rd.mu.Unlock()

	return false
}

// Stats returns hit and miss counts
func (rd *ReuseDetector) Stats() (hits, misses int64) {
	rd.mu.Lock()
	defer rd.mu.Unlock()
	return rd.hitCount, rd.missCount
}

// Stop terminates the cleanup goroutine
func (rd *ReuseDetector) Stop() {
	rd.stopOnce.Do(func() {
		close(rd.stopChan)
	})
}

// cleanupLoop periodically removes expired entries
func (rd *ReuseDetector) cleanupLoop() {
	interval := rd.ttl
	if interval < time.Second {
		interval = time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rd.cleanup()
		case <-rd.stopChan:
			return
		}
	}
}

// cleanup removes entries older than the TTL
func (rd *ReuseDetector) cleanup() {
	now := time.Now()

	rd.mu.Lock()
	removed := 0
	for id, lastSeen := range rd.seen {
		if now.Sub(lastSeen) >= rd.ttl {
			delete(rd.seen, id)
			removed++
		}
	}
	remaining := len(rd.seen)
	rd.mu.Unlock()

	if removed > 0 {
		rd.logger.WithFields(logrus.Fields{
			"removed":   removed,
			"remaining": remaining,
		}).Debug("Reuse detector cleanup")
	}
}
