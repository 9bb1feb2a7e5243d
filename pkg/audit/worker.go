package audit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/reqtag/request-tagger/internal/models"
)

// writeTimeout bounds a single sink write, including its retries.
const writeTimeout = 30 * time.Second

// WorkerPool manages a pool of worker goroutines that drain the visit queue
// into a sink
type WorkerPool struct {
	queue    *VisitQueue
	workers  int
	sink     Sink
	logger   *logrus.Logger
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
	stopOnce sync.Once
}

// NewWorkerPool creates a new worker pool
func NewWorkerPool(queue *VisitQueue, workers int, sink Sink, logger *logrus.Logger) *WorkerPool {
	ctx, cancel := context.WithCancel(context.Background())

	return &WorkerPool{
		queue:   queue,
		workers: workers,
		sink:    sink,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start starts all worker goroutines
func (wp *WorkerPool) Start() {
	wp.logger.WithFields(logrus.Fields{
		"workers": wp.workers,
	}).Info("Starting audit worker pool")

	for i := 0; i < wp.workers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

// Stop gracefully stops the worker pool
// Waits for in-flight writes to complete with the given timeout
func (wp *WorkerPool) Stop(timeout time.Duration) error {
	var stopErr error

	wp.stopOnce.Do(func() {
		wp.logger.Info("Stopping audit worker pool")

		// Signal workers to stop
		wp.cancel()

		// Wait for workers to finish with timeout
		done := make(chan struct{})
		go func() {
			wp.wg.Wait()
			close(done)
		}()

		select {
		case <-done:
			wp.logger.Info("All audit workers stopped gracefully")
		case <-time.After(timeout):
			stopErr = fmt.Errorf("audit worker pool shutdown timeout after %v", timeout)
			wp.logger.Warn("Audit worker pool shutdown timeout, some workers may still be running")
		}
	})

	return stopErr
}

// worker is a goroutine that processes visit events from the queue
func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	workerLogger := wp.logger.WithField("worker_id", id)
	workerLogger.Debug("Audit worker started")

	for {
		select {
		case <-wp.ctx.Done():
			workerLogger.Debug("Audit worker stopping")
			return
		default:
			ev, err := wp.queue.Dequeue(wp.ctx)
			if err != nil {
				if wp.ctx.Err() != nil {
					// Context cancelled, worker should stop
					return
				}
				// Queue closed or other error
				workerLogger.WithError(err).Debug("Dequeue error")
				return
			}

			wp.processEvent(workerLogger, ev)
		}
	}
}

// processEvent writes a single visit event with panic recovery
func (wp *WorkerPool) processEvent(logger *logrus.Entry, ev *models.VisitEvent) {
	defer func() {
		if r := recover(); r != nil {
			logger.WithFields(logrus.Fields{
				"request_id": ev.RequestID,
				"panic":      r,
			}).Error("Audit worker panic recovered")
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	if err := wp.sink.Write(ctx, ev); err != nil {
		logger.WithFields(logrus.Fields{
			"request_id": ev.RequestID,
			"error":      err.Error(),
		}).Error("Visit event write failed")
	}
}
