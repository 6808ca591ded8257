// Package config loads runtime configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	log "github.com/sirupsen/logrus"
)

// Prefix is the environment variable prefix, e.g. CREASE_ADDR.
const Prefix = "crease"

type Config struct {
	// Addr is the HTTP listen address.
	Addr string `default:"127.0.0.1:8765"`

	// DataDir holds the history database. Empty means ~/.crease.
	DataDir string `split_words:"true"`

	// StaticDir is served at / when set.
	StaticDir string `split_words:"true"`

	CameraID int `split_words:"true" default:"0"`

	// TickInterval is the live loop cadence.
	TickInterval time.Duration `split_words:"true" default:"66ms"`

	// CaptureDuration is how long a capture window records after its countdown.
	CaptureDuration time.Duration `split_words:"true" default:"5s"`

	CountdownSteps    int           `split_words:"true" default:"3"`
	CountdownInterval time.Duration `split_words:"true" default:"1s"`

	// BatchStride samples every Nth decoded video frame.
	BatchStride int `split_words:"true" default:"3"`

	LogLevel string `split_words:"true" default:"info"`
	LogJSON  bool   `envconfig:"LOG_JSON"`

	// Tray shows the system tray menu when serving.
	Tray bool `default:"false"`
}

// Load reads an optional .env file from the working directory and then
// the CREASE_* environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.WithError(err).Warn("failed to load .env file")
	}
	return Parse()
}

// Parse reads the CREASE_* environment without touching .env files.
func Parse() (*Config, error) {
	var c Config
	if err := envconfig.Process(Prefix, &c); err != nil {
		_ = envconfig.Usage(Prefix, &c)
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.TickInterval <= 0:
		return fmt.Errorf("tick interval must be positive, got %s", c.TickInterval)
	case c.CaptureDuration <= 0:
		return fmt.Errorf("capture duration must be positive, got %s", c.CaptureDuration)
	case c.CountdownSteps < 0:
		return fmt.Errorf("countdown steps must not be negative, got %d", c.CountdownSteps)
	case c.CountdownSteps > 0 && c.CountdownInterval <= 0:
		return fmt.Errorf("countdown interval must be positive, got %s", c.CountdownInterval)
	case c.BatchStride < 1:
		return fmt.Errorf("batch stride must be at least 1, got %d", c.BatchStride)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	return nil
}

// DataPath returns the data directory, defaulting to ~/.crease.
func (c *Config) DataPath() (string, error) {
	if c.DataDir != "" {
		return c.DataDir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".crease"), nil
}

// DBPath returns the history database file path.
func (c *Config) DBPath() (string, error) {
	dir, err := c.DataPath()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "crease.db"), nil
}

// ConfigureLogging applies the log level and formatter to the standard logger.
func (c *Config) ConfigureLogging() {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if c.LogJSON {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}
