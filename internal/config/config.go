// Package config loads application configuration from the environment with
// an optional YAML overlay file for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment identifies the deployment environment
type Environment string

const (
	Development Environment = "development"
	Staging     Environment = "staging"
	Production  Environment = "production"
)

// Config is the full application configuration
type Config struct {
	Environment Environment   `yaml:"environment"`
	Server      ServerConfig  `yaml:"server"`
	Log         LogConfig     `yaml:"log"`
	Supabase    Supabase      `yaml:"supabase"`
	Scraper     Provider      `yaml:"scraper"`
	Analysis    Provider      `yaml:"analysis"`
	Canvas      CanvasConfig  `yaml:"canvas"`
	Tracing     TracingConfig `yaml:"tracing"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Addr returns the listen address
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LogConfig holds logging settings
type LogConfig struct {
	Level string `yaml:"level"`
}

// Supabase holds persistence credentials. When unset the server runs on the
// in-memory gateway.
type Supabase struct {
	URL            string `yaml:"url"`
	ServiceRoleKey string `yaml:"service_role_key"`
}

// Enabled reports whether Supabase persistence is configured
func (s Supabase) Enabled() bool {
	return s.URL != "" && s.ServiceRoleKey != ""
}

// Provider holds settings for an external HTTP provider
type Provider struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
}

// CanvasConfig tunes canvas behavior
type CanvasConfig struct {
	SnapThreshold   float64       `yaml:"snap_threshold"`
	CullPadding     float64       `yaml:"cull_padding"`
	FrameInterval   time.Duration `yaml:"frame_interval"`
	SaveDebounce    time.Duration `yaml:"save_debounce"`
	PollInterval    time.Duration `yaml:"poll_interval"`
	MaxPollAttempts int           `yaml:"max_poll_attempts"`
}

// TracingConfig holds OpenTelemetry export settings
type TracingConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Endpoint    string  `yaml:"endpoint"`
	SampleRatio float64 `yaml:"sample_ratio"`
}

// Load builds configuration from the environment. If CONFIG_FILE points at
// a YAML file its values apply first, then environment variables override.
func Load() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := applyYAML(path, cfg); err != nil {
			return nil, err
		}
	}
	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Environment: Development,
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Log: LogConfig{Level: "info"},
		Canvas: CanvasConfig{
			SnapThreshold:   10,
			CullPadding:     100,
			FrameInterval:   16 * time.Millisecond,
			SaveDebounce:    2 * time.Second,
			PollInterval:    time.Second,
			MaxPollAttempts: 30,
		},
		Tracing: TracingConfig{
			Endpoint:    "localhost:4317",
			SampleRatio: 0.1,
		},
	}
}

func applyYAML(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Environment = Environment(getEnv("ENVIRONMENT", string(cfg.Environment)))

	cfg.Server.Host = getEnv("SERVER_HOST", cfg.Server.Host)
	cfg.Server.Port = getEnvInt("SERVER_PORT", cfg.Server.Port)
	cfg.Server.ReadTimeout = getEnvDuration("SERVER_READ_TIMEOUT", cfg.Server.ReadTimeout)
	cfg.Server.WriteTimeout = getEnvDuration("SERVER_WRITE_TIMEOUT", cfg.Server.WriteTimeout)
	cfg.Server.ShutdownTimeout = getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", cfg.Server.ShutdownTimeout)

	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)

	cfg.Supabase.URL = getEnv("SUPABASE_URL", cfg.Supabase.URL)
	cfg.Supabase.ServiceRoleKey = getEnv("SUPABASE_SERVICE_ROLE_KEY", cfg.Supabase.ServiceRoleKey)

	cfg.Scraper.BaseURL = getEnv("SCRAPER_BASE_URL", cfg.Scraper.BaseURL)
	cfg.Scraper.APIKey = getEnv("SCRAPER_API_KEY", cfg.Scraper.APIKey)
	cfg.Analysis.BaseURL = getEnv("ANALYSIS_BASE_URL", cfg.Analysis.BaseURL)
	cfg.Analysis.APIKey = getEnv("ANALYSIS_API_KEY", cfg.Analysis.APIKey)

	cfg.Canvas.SnapThreshold = getEnvFloat("CANVAS_SNAP_THRESHOLD", cfg.Canvas.SnapThreshold)
	cfg.Canvas.CullPadding = getEnvFloat("CANVAS_CULL_PADDING", cfg.Canvas.CullPadding)
	cfg.Canvas.FrameInterval = getEnvDuration("CANVAS_FRAME_INTERVAL", cfg.Canvas.FrameInterval)
	cfg.Canvas.SaveDebounce = getEnvDuration("CANVAS_SAVE_DEBOUNCE", cfg.Canvas.SaveDebounce)
	cfg.Canvas.PollInterval = getEnvDuration("INGESTION_POLL_INTERVAL", cfg.Canvas.PollInterval)
	cfg.Canvas.MaxPollAttempts = getEnvInt("INGESTION_MAX_POLL_ATTEMPTS", cfg.Canvas.MaxPollAttempts)

	cfg.Tracing.Enabled = getEnvBool("TRACING_ENABLED", cfg.Tracing.Enabled)
	cfg.Tracing.Endpoint = getEnv("TRACING_ENDPOINT", cfg.Tracing.Endpoint)
	cfg.Tracing.SampleRatio = getEnvFloat("TRACING_SAMPLE_RATIO", cfg.Tracing.SampleRatio)
}

// Validate checks the configuration for inconsistencies
func (c *Config) Validate() error {
	switch c.Environment {
	case Development, Staging, Production:
	default:
		return fmt.Errorf("unknown environment %q", c.Environment)
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Server.Port)
	}
	if c.Canvas.SnapThreshold <= 0 {
		return fmt.Errorf("snap threshold must be positive, got %v", c.Canvas.SnapThreshold)
	}
	if c.Canvas.CullPadding < 0 {
		return fmt.Errorf("cull padding must not be negative, got %v", c.Canvas.CullPadding)
	}
	if c.Canvas.FrameInterval <= 0 || c.Canvas.SaveDebounce <= 0 || c.Canvas.PollInterval <= 0 {
		return fmt.Errorf("canvas intervals must be positive")
	}
	if c.Canvas.MaxPollAttempts < 1 {
		return fmt.Errorf("max poll attempts must be at least 1, got %d", c.Canvas.MaxPollAttempts)
	}
	if c.Tracing.Enabled && c.Tracing.Endpoint == "" {
		return fmt.Errorf("tracing enabled without an endpoint")
	}
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		return fmt.Errorf("tracing sample ratio %v out of range", c.Tracing.SampleRatio)
	}
	if c.Environment == Production && !c.Supabase.Enabled() {
		return fmt.Errorf("production requires supabase credentials")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
