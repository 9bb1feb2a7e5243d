package config

import "time"

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig  `yaml:"server"`
	Tagging  TaggingConfig `yaml:"tagging"`
	Audit    AuditConfig   `yaml:"audit"`
	Admin    AdminConfig   `yaml:"admin"`
	LogLevel string        `yaml:"log_level"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            int    `yaml:"port"`
	ReadTimeout     string `yaml:"read_timeout"`
	WriteTimeout    string `yaml:"write_timeout"`
	MaxRequestSize  int64  `yaml:"max_request_size"`
	ShutdownTimeout string `yaml:"shutdown_timeout"`
}

// TaggingConfig controls how requests are tagged
type TaggingConfig struct {
	// Header carrying the request identifier on responses (and on requests
	// when incoming IDs are trusted)
	Header string `yaml:"header"`

	// TrustIncoming reuses a client-supplied identifier instead of
	// allocating a fresh one. Off by default so two concurrent requests can
	// never share an identifier.
	TrustIncoming bool `yaml:"trust_incoming"`

	// ReuseWindow is how long a client-supplied identifier is remembered
	// for replay detection. Only used when TrustIncoming is set.
	ReuseWindow string `yaml:"reuse_window"`
}

// AuditConfig holds audit trail settings
type AuditConfig struct {
	BufferSize int `yaml:"buffer_size"`
	Workers    int `yaml:"workers"`
}

// AdminConfig holds admin endpoint settings. Admin routes are only
// registered when a token is configured.
type AdminConfig struct {
	// Token is the bearer token guarding /admin endpoints. Supports the
	// file:<name> form resolved from the secrets directory.
	Token string `yaml:"token"`
}

// ParseDuration converts string duration to time.Duration
func (c *Config) ParseDuration(s string) (time.Duration, error) {
	return time.ParseDuration(s)
}
