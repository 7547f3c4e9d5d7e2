package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port          int
	MaxUploadSize int64

	Environment string
	LogLevel    string

	// TempDir is where per-request raster scratch files live.
	TempDir string

	// PdftoppmPath overrides the poppler binary looked up on PATH.
	PdftoppmPath string

	RequestTimeout time.Duration
}

func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	cfg.Port = getEnvInt("PORT", 8080)
	cfg.MaxUploadSize = getEnvInt64("MAX_UPLOAD_SIZE", 100*1024*1024)

	cfg.Environment = getEnvString("ENVIRONMENT", "development")
	cfg.LogLevel = getEnvString("LOG_LEVEL", "info")

	cfg.TempDir = getEnvString("TEMP_DIR", os.TempDir())
	cfg.PdftoppmPath = getEnvString("PDFTOPPM_PATH", "pdftoppm")

	cfg.RequestTimeout, err = getEnvDuration("REQUEST_TIMEOUT", "120s")
	if err != nil {
		return nil, fmt.Errorf("invalid REQUEST_TIMEOUT: %w", err)
	}

	return cfg, nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key, defaultValue string) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		value = defaultValue
	}
	return time.ParseDuration(value)
}

func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}

	if c.MaxUploadSize < 1 {
		return fmt.Errorf("invalid max upload size: %d", c.MaxUploadSize)
	}

	if c.RequestTimeout < time.Second {
		return fmt.Errorf("request timeout too small: %s", c.RequestTimeout)
	}

	return nil
}
