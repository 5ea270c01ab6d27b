package common

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string            `toml:"environment"` // "development" or "production"
	Server      ServerConfig      `toml:"server"`
	Storage     StorageConfig     `toml:"storage"`
	Logging     LoggingConfig     `toml:"logging"`
	Limits      LimitsConfig      `toml:"limits"`
	Claude      ClaudeConfig      `toml:"claude"`
	Gemini      GeminiConfig      `toml:"gemini"`
	Maintenance MaintenanceConfig `toml:"maintenance"`
}

type ServerConfig struct {
	Port int    `toml:"port" validate:"min=1,max=65535"`
	Host string `toml:"host" validate:"required"`
	// RequestsPerSecond caps inbound API requests (token bucket). 0 disables.
	RequestsPerSecond int `toml:"requests_per_second" validate:"min=0"`
	RequestBurst      int `toml:"request_burst" validate:"min=0"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path" validate:"required"` // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"`         // Delete database on startup for clean test runs
}

type LoggingConfig struct {
	Level  string   `toml:"level" validate:"oneof=debug info warn error"`
	Format string   `toml:"format"` // "json" or "text"
	Output []string `toml:"output"` // "stdout", "file"
}

// LimitsConfig carries the daily generation caps and cache TTLs.
// Injected at construction so tests can override caps without touching
// globals or the environment.
type LimitsConfig struct {
	MaxTokensPerDay int    `toml:"max_tokens_per_day" validate:"min=1"`
	MaxImagesPerDay int    `toml:"max_images_per_day" validate:"min=1"`
	UsageTTL        string `toml:"usage_ttl" validate:"required"` // e.g. "24h"
	IndexTTL        string `toml:"index_ttl" validate:"required"` // e.g. "24h"
}

// UsageTTLDuration parses the usage record TTL.
func (l LimitsConfig) UsageTTLDuration() (time.Duration, error) {
	d, err := time.ParseDuration(l.UsageTTL)
	if err != nil {
		return 0, fmt.Errorf("invalid usage_ttl %q: %w", l.UsageTTL, err)
	}
	return d, nil
}

// IndexTTLDuration parses the index cache TTL.
func (l LimitsConfig) IndexTTLDuration() (time.Duration, error) {
	d, err := time.ParseDuration(l.IndexTTL)
	if err != nil {
		return 0, fmt.Errorf("invalid index_ttl %q: %w", l.IndexTTL, err)
	}
	return d, nil
}

// ClaudeConfig holds Anthropic API settings for text completion and moderation.
type ClaudeConfig struct {
	APIKey            string  `toml:"api_key"`
	Model             string  `toml:"model"`
	ModerationModel   string  `toml:"moderation_model"`
	Timeout           string  `toml:"timeout"`
	MaxTokens         int     `toml:"max_tokens"`
	Temperature       float32 `toml:"temperature"`
	RequestsPerSecond int     `toml:"requests_per_second" validate:"min=0"` // outbound pacing, 0 disables
}

// GeminiConfig holds Google genai settings for image generation.
type GeminiConfig struct {
	APIKey       string `toml:"api_key"`
	ImageModel   string `toml:"image_model"`
	ImageTimeout string `toml:"image_timeout"` // image call abandoned past this bound
}

// ImageTimeoutDuration parses the image generation timeout.
func (g GeminiConfig) ImageTimeoutDuration() (time.Duration, error) {
	d, err := time.ParseDuration(g.ImageTimeout)
	if err != nil {
		return 0, fmt.Errorf("invalid image_timeout %q: %w", g.ImageTimeout, err)
	}
	return d, nil
}

// MaintenanceConfig controls the optional scheduled index refresh and
// expired-record purge.
type MaintenanceConfig struct {
	Enabled  bool   `toml:"enabled"`
	Schedule string `toml:"schedule"` // cron format
}

// NewDefaultConfig returns the baseline configuration before file/env/CLI overrides.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port:              8085,
			Host:              "localhost",
			RequestsPerSecond: 0,
			RequestBurst:      0,
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path:           "./data/guide",
				ResetOnStartup: false,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: []string{"stdout"},
		},
		Limits: LimitsConfig{
			MaxTokensPerDay: 100000,
			MaxImagesPerDay: 10,
			UsageTTL:        "24h",
			IndexTTL:        "24h",
		},
		Claude: ClaudeConfig{
			Model:             "claude-sonnet-4-20250514",
			ModerationModel:   "claude-3-5-haiku-20241022",
			Timeout:           "60s",
			MaxTokens:         2048,
			Temperature:       0.8,
			RequestsPerSecond: 0,
		},
		Gemini: GeminiConfig{
			ImageModel:   "imagen-3.0-generate-002",
			ImageTimeout: "10s",
		},
		Maintenance: MaintenanceConfig{
			Enabled:  false,
			Schedule: "0 4 * * *",
		},
	}
}

// LoadFromFiles loads configuration from multiple files with priority:
// defaults -> file1 -> file2 -> ... -> env. Later files override earlier ones.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("GUIDE_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	if port := os.Getenv("GUIDE_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("GUIDE_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	if badgerPath := os.Getenv("GUIDE_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	if level := os.Getenv("GUIDE_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	// API keys: service-specific names win over the vendor defaults
	if key := os.Getenv("GUIDE_CLAUDE_API_KEY"); key != "" {
		config.Claude.APIKey = key
	} else if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		config.Claude.APIKey = key
	}
	if key := os.Getenv("GUIDE_GEMINI_API_KEY"); key != "" {
		config.Gemini.APIKey = key
	} else if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		config.Gemini.APIKey = key
	}
}

// ApplyFlagOverrides applies command-line flag overrides (highest priority)
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// Validate checks the resolved configuration for structural errors.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if _, err := c.Limits.UsageTTLDuration(); err != nil {
		return err
	}
	if _, err := c.Limits.IndexTTLDuration(); err != nil {
		return err
	}
	if _, err := c.Gemini.ImageTimeoutDuration(); err != nil {
		return err
	}
	if _, err := time.ParseDuration(c.Claude.Timeout); err != nil {
		return fmt.Errorf("invalid claude timeout %q: %w", c.Claude.Timeout, err)
	}
	return nil
}
