package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// EnvConfig holds environment variable-based configuration
type EnvConfig struct {
	Port       int
	LogLevel   string
	ConfigFile string
	SecretsDir string
}

// LoadFromEnv reads bootstrap configuration from environment variables.
// A .env file in the working directory is loaded first, if present.
func LoadFromEnv() *EnvConfig {
	_ = godotenv.Load()

	env := &EnvConfig{
		Port:       getEnvAsInt("PORT", 8080),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		ConfigFile: getEnv("CONFIG_FILE", "config.yaml"),
		SecretsDir: getEnv("SECRETS_DIR", "/secrets"),
	}

	return env
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
