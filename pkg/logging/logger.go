package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// NewLogger creates and configures a new structured logger
func NewLogger(level string) *logrus.Logger {
	logger := logrus.New()

	// Set output to stdout
	logger.SetOutput(os.Stdout)

	// Use JSON formatter for structured logging
	logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "message",
		},
	})

	// Set log level, defaulting to info on parse failure
	if parsed, err := logrus.ParseLevel(level); err == nil {
		logger.SetLevel(parsed)
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}

	return logger
}

// LogStartup logs service startup information
func LogStartup(logger *logrus.Logger, instance string, port int) {
	logger.WithFields(logrus.Fields{
		"event":    "startup",
		"instance": instance,
		"port":     port,
	}).Info("Request Tagger starting")
}

// LogConfigurationLoaded logs successful configuration loading
func LogConfigurationLoaded(logger *logrus.Logger, configPath string, trustIncoming bool) {
	logger.WithFields(logrus.Fields{
		"event":          "configuration_loaded",
		"config_path":    configPath,
		"trust_incoming": trustIncoming,
	}).Info("Configuration loaded successfully")
}

// LogShutdownInitiated logs when shutdown is initiated
func LogShutdownInitiated(logger *logrus.Logger, signal string) {
	logger.WithFields(logrus.Fields{
		"event":  "shutdown_initiated",
		"signal": signal,
	}).Warn("Shutdown initiated")
}

// LogShutdownComplete logs when shutdown completes
func LogShutdownComplete(logger *logrus.Logger, duration float64) {
	logger.WithFields(logrus.Fields{
		"event":            "shutdown_complete",
		"duration_seconds": duration,
	}).Info("Shutdown complete")
}

// LogWithRequestID returns a logger with request ID field
func LogWithRequestID(logger *logrus.Logger, requestID string) *logrus.Entry {
	return logger.WithField("request_id", requestID)
}
