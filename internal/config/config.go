package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultBanner identifies the service on the info endpoint
const DefaultBanner = "Go-powered Iris Classification API deployed via AWS ECS — Muhammad Talha"

// Config holds application configuration
type Config struct {
	Server struct {
		Port            string        `yaml:"port"`
		Mode            string        `yaml:"mode"` // gin mode: "release", "debug" or "test"
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	Log struct {
		Level      string `yaml:"level"`
		File       string `yaml:"file"` // optional rotating log file, empty for console only
		MaxSizeMB  int    `yaml:"max_size_mb"`
		MaxBackups int    `yaml:"max_backups"`
		MaxAgeDays int    `yaml:"max_age_days"`
	} `yaml:"log"`

	Model struct {
		C         float64 `yaml:"c"`
		MaxIter   int     `yaml:"max_iter"`
		Tolerance float64 `yaml:"tolerance"`
	} `yaml:"model"`

	History struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"` // SQLite path
	} `yaml:"history"`

	RateLimit struct {
		RequestsPerSecond float64 `yaml:"requests_per_second"` // 0 disables limiting
		Burst             int     `yaml:"burst"`
	} `yaml:"rate_limit"`

	Banner string `yaml:"banner"`
}

// LoadConfig loads configuration from a YAML file. A missing file yields the
// defaults, the service needs no secrets to start.
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}

	file, err := os.Open(configPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to open config file: %w", err)
	default:
		defer file.Close()

		decoder := yaml.NewDecoder(file)
		if err := decoder.Decode(config); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to decode config file: %w", err)
		}
	}

	config.applyDefaults()
	config.applyEnv()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Default returns a configuration with every default applied
func Default() *Config {
	config := &Config{}
	config.applyDefaults()
	return config
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "5000"
	}

	if c.Server.Mode == "" {
		c.Server.Mode = "release"
	}

	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 10 * time.Second
	}

	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 10 * time.Second
	}

	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 5 * time.Second
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}

	if c.Log.MaxSizeMB == 0 {
		c.Log.MaxSizeMB = 100
	}

	if c.Log.MaxBackups == 0 {
		c.Log.MaxBackups = 3
	}

	if c.Log.MaxAgeDays == 0 {
		c.Log.MaxAgeDays = 28
	}

	if c.Model.C == 0 {
		c.Model.C = 1.0
	}

	if c.Model.MaxIter == 0 {
		c.Model.MaxIter = 200
	}

	if c.Model.Tolerance == 0 {
		c.Model.Tolerance = 1e-4
	}

	if c.History.Path == "" {
		c.History.Path = "./data/predictions.db"
	}

	if c.RateLimit.RequestsPerSecond > 0 && c.RateLimit.Burst == 0 {
		c.RateLimit.Burst = int(c.RateLimit.RequestsPerSecond) * 2
		if c.RateLimit.Burst < 1 {
			c.RateLimit.Burst = 1
		}
	}

	if c.Banner == "" {
		c.Banner = DefaultBanner
	}
}

// applyEnv expands environment variables in paths and honours PORT
func (c *Config) applyEnv() {
	if port := os.Getenv("PORT"); port != "" {
		if _, err := strconv.Atoi(port); err == nil {
			c.Server.Port = port
		}
	}

	c.Log.File = os.ExpandEnv(c.Log.File)
	c.History.Path = os.ExpandEnv(c.History.Path)
}

// Validate rejects settings the service cannot start with
func (c *Config) Validate() error {
	port, err := strconv.Atoi(c.Server.Port)
	if err != nil || port < 0 || port > 65535 {
		return fmt.Errorf("invalid server port %q", c.Server.Port)
	}

	switch c.Server.Mode {
	case "release", "debug", "test":
	default:
		return fmt.Errorf("invalid server mode %q", c.Server.Mode)
	}

	if c.Model.C < 0 || c.Model.MaxIter < 0 || c.Model.Tolerance < 0 {
		return fmt.Errorf("model parameters must be positive")
	}

	if c.RateLimit.RequestsPerSecond < 0 {
		return fmt.Errorf("rate_limit.requests_per_second must not be negative")
	}

	return nil
}
