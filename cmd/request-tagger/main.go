package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/reqtag/request-tagger/pkg/audit"
	"github.com/reqtag/request-tagger/pkg/config"
	"github.com/reqtag/request-tagger/pkg/logging"
	"github.com/reqtag/request-tagger/pkg/server"
	"github.com/reqtag/request-tagger/pkg/shutdown"
	"github.com/reqtag/request-tagger/pkg/tag"
)

const workerShutdownTimeout = 30 * time.Second

func main() {
	// Bootstrap configuration from the environment (.env supported)
	env := config.LoadFromEnv()

	// Initialize logger
	logger := logging.NewLogger(env.LogLevel)

	logger.Info("Request Tagger starting...")

	// Load configuration
	cfg, err := config.Load(env.ConfigFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.WithField("config_path", env.ConfigFile).Info("No config file found, using defaults")
			cfg = config.Default()
		} else {
			logger.WithError(err).Fatal("Failed to load configuration")
		}
	}

	// Resolve file-backed secrets (admin token)
	secrets, err := config.LoadSecretsFromFiles(env.SecretsDir)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load secrets")
	}
	config.InjectSecretsIntoConfig(cfg, secrets)

	// Config log level wins over the bootstrap one
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	logger.WithFields(logrus.Fields{
		"log_level":      cfg.LogLevel,
		"port":           cfg.Server.Port,
		"tag_header":     cfg.Tagging.Header,
		"trust_incoming": cfg.Tagging.TrustIncoming,
		"audit_workers":  cfg.Audit.Workers,
		"audit_buffer":   cfg.Audit.BufferSize,
		"admin_enabled":  cfg.Admin.Token != "",
	}).Info("Configuration loaded")

	// Identifier generator; one per process
	generator := tag.NewGenerator()

	// Audit trail: queue, retrying log sink, worker pool
	trail := audit.NewVisitQueue(cfg.Audit.BufferSize, logger)
	sink := audit.NewRetryingSink(audit.NewLogSink(logger), audit.DefaultRetryConfig(), logger)
	workerPool := audit.NewWorkerPool(trail, cfg.Audit.Workers, sink, logger)

	// Reuse detection only applies when client IDs are trusted
	var reuse *audit.ReuseDetector
	if cfg.Tagging.TrustIncoming {
		window, _ := cfg.ParseDuration(cfg.Tagging.ReuseWindow)
		reuse = audit.NewReuseDetector(window, logger)
	}

	// Create the HTTP server
	srv := server.NewServer(cfg, logger, generator, trail, reuse)

	// Setup graceful shutdown
	shutdownManager := shutdown.NewManager(logger)
	shutdownManager.RegisterCleanup("http-server", func(ctx context.Context) error {
		return srv.Shutdown(ctx)
	})
	shutdownManager.RegisterCleanup("audit-workers", func(ctx context.Context) error {
		return workerPool.Stop(workerShutdownTimeout)
	})
	shutdownManager.RegisterCleanup("audit-queue", func(ctx context.Context) error {
		trail.Close()
		return nil
	})
	if reuse != nil {
		shutdownManager.RegisterCleanup("reuse-detector", func(ctx context.Context) error {
			reuse.Stop()
			return nil
		})
	}

	// Start audit workers
	workerPool.Start()

	// Mark server as ready
	srv.SetReady(true)

	logging.LogStartup(logger, generator.Instance(), cfg.Server.Port)

	// Start HTTP server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal or server error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logging.LogShutdownInitiated(logger, sig.String())
	case err := <-serverErr:
		logger.WithError(err).Error("Server error occurred")
	}

	// Graceful shutdown
	shutdownStart := time.Now()
	shutdownTimeout, _ := cfg.ParseDuration(cfg.Server.ShutdownTimeout)
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := shutdownManager.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Graceful shutdown failed")
		os.Exit(1)
	}

	logging.LogShutdownComplete(logger, time.Since(shutdownStart).Seconds())
}
