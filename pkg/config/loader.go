package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Valid log levels, mirroring what logrus.ParseLevel accepts
var validLogLevels = []string{"trace", "debug", "info", "warn", "warning", "error", "fatal", "panic"}

// Load reads and parses the YAML configuration file
func Load(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables in the config
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Apply defaults
	cfg.applyDefaults()

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Default returns a configuration with all defaults applied and no file
// loaded. Useful when the service runs without a config file.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults sets default values for unspecified configuration options
func (c *Config) applyDefaults() {
	// Server defaults
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == "" {
		c.Server.ReadTimeout = "30s"
	}
	if c.Server.WriteTimeout == "" {
		c.Server.WriteTimeout = "30s"
	}
	if c.Server.MaxRequestSize == 0 {
		c.Server.MaxRequestSize = 1 * 1024 * 1024 // 1MB
	}
	if c.Server.ShutdownTimeout == "" {
		c.Server.ShutdownTimeout = "30s"
	}

	// Tagging defaults
	if c.Tagging.Header == "" {
		c.Tagging.Header = "X-Request-ID"
	}
	if c.Tagging.ReuseWindow == "" {
		c.Tagging.ReuseWindow = "5m"
	}

	// Audit defaults
	if c.Audit.BufferSize == 0 {
		c.Audit.BufferSize = 256
	}
	if c.Audit.Workers == 0 {
		c.Audit.Workers = 2
	}

	// Logging defaults
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Validate checks the configuration for required fields and valid values
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got: %d", c.Server.Port)
	}

	if err := validateHeaderName(c.Tagging.Header); err != nil {
		return fmt.Errorf("tagging.header: %w", err)
	}

	if c.Audit.BufferSize < 1 {
		return fmt.Errorf("audit.buffer_size must be positive, got: %d", c.Audit.BufferSize)
	}
	if c.Audit.Workers < 1 {
		return fmt.Errorf("audit.workers must be positive, got: %d", c.Audit.Workers)
	}

	if err := validateLogLevel(c.LogLevel); err != nil {
		return err
	}

	// Validate duration strings
	durations := map[string]string{
		"server.read_timeout":     c.Server.ReadTimeout,
		"server.write_timeout":    c.Server.WriteTimeout,
		"server.shutdown_timeout": c.Server.ShutdownTimeout,
		"tagging.reuse_window":    c.Tagging.ReuseWindow,
	}

	for name, value := range durations {
		if _, err := c.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
	}

	return nil
}

// validateHeaderName rejects header names that cannot appear on the wire
func validateHeaderName(name string) error {
	if name == "" {
		return fmt.Errorf("header name is required")
	}
	if strings.ContainsAny(name, " \t:") {
		return fmt.Errorf("invalid header name: %q", name)
	}
	return nil
}

func validateLogLevel(level string) error {
	for _, valid := range validLogLevels {
		if level == valid {
			return nil
		}
	}
	return fmt.Errorf("invalid log_level '%s', must be one of: %s",
		level, strings.Join(validLogLevels, ", "))
}
