package shutdown

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// CleanupFunc performs one component's cleanup during shutdown
type CleanupFunc func(ctx context.Context) error

type cleanup struct {
	name string
	fn   CleanupFunc
}

// Manager coordinates graceful shutdown of registered components
type Manager struct {
	logger   *logrus.Logger
	cleanups []cleanup
	mu       sync.Mutex
	once     sync.Once
}

// NewManager creates a new shutdown manager
func NewManager(logger *logrus.Logger) *Manager {
	return &Manager{
		logger: logger,
	}
}

// RegisterCleanup adds a named cleanup to be run during shutdown
func (m *Manager) RegisterCleanup(name string, fn CleanupFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cleanups = append(m.cleanups, cleanup{name: name, fn: fn})
}

// Shutdown runs all registered cleanups concurrently and waits for them to
// finish or for ctx to expire. Safe to call more than once; only the first
// call does any work.
func (m *Manager) Shutdown(ctx context.Context) error {
	var shutdownErr error

	m.once.Do(func() {
		m.logger.Info("Starting graceful shutdown")
		start := time.Now()

		m.mu.Lock()
		cleanups := make([]cleanup, len(m.cleanups))
		copy(cleanups, m.cleanups)
		m.mu.Unlock()

		var wg sync.WaitGroup
		var errMu sync.Mutex
		var failed int

		for _, c := range cleanups {
			wg.Add(1)
			go func(c cleanup) {
				defer wg.Done()

				m.logger.WithField("handler", c.name).Info("Executing shutdown handler")
				handlerStart := time.Now()

				if err := c.fn(ctx); err != nil {
					errMu.Lock()
					failed++
					errMu.Unlock()

					m.logger.WithFields(logrus.Fields{
						"handler":  c.name,
						"duration": time.Since(handlerStart).Seconds(),
						"error":    err.Error(),
					}).Error("Shutdown handler failed")
					return
				}

				m.logger.WithFields(logrus.Fields{
					"handler":  c.name,
					"duration": time.Since(handlerStart).Seconds(),
				}).Info("Shutdown handler completed")
			}(c)
		}

		done := make(chan struct{})
		go func() {
			wg.Wait()
			close(done)
		}()

		select {
		case <-done:
			duration := time.Since(start)
			if failed > 0 {
				shutdownErr = fmt.Errorf("%d shutdown handlers failed", failed)
				m.logger.WithFields(logrus.Fields{
					"duration": duration.Seconds(),
					"errors":   failed,
				}).Warn("Shutdown completed with errors")
			} else {
				m.logger.WithFields(logrus.Fields{
					"duration": duration.Seconds(),
				}).Info("Shutdown completed successfully")
			}
		case <-ctx.Done():
			shutdownErr = fmt.Errorf("shutdown timeout exceeded: %w", ctx.Err())
			m.logger.Error("Shutdown timeout exceeded")
		}
	})

	return shutdownErr
}
