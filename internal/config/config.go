package config

import (
	"os"
	"strconv"

	"powersim/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Engine   EngineConfig
}

// DatabaseConfig holds database connection settings. URL empty means
// persistence is disabled and runs stay in memory.
type DatabaseConfig struct {
	URL string
}

// ServerConfig holds HTTP API settings
type ServerConfig struct {
	Port    string
	GinMode string
}

// EngineConfig holds simulation engine defaults
type EngineConfig struct {
	DefaultParallelism int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	config := &Config{
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Server: ServerConfig{
			Port:    getEnvDefault("PORT", "8080"),
			GinMode: getEnvDefault("GIN_MODE", "release"),
		},
	}

	parallelism, err := getEnvInt("ENGINE_PARALLELISM", 0)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load engine configuration")
	}
	if parallelism < 0 {
		return nil, errors.ConfigInvalid("ENGINE_PARALLELISM must be nonnegative")
	}
	config.Engine.DefaultParallelism = parallelism

	return config, nil
}

func getEnvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.ConfigInvalid(key + " must be an integer")
	}
	return n, nil
}
