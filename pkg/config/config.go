package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the main configuration for the planwise service.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Gemini    GeminiConfig    `yaml:"gemini"`
	Auth      AuthConfig      `yaml:"auth"`
	Storage   StorageConfig   `yaml:"storage"`
	Events    EventsConfig    `yaml:"events"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig configures the HTTP server
type ServerConfig struct {
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
}

// DatabaseConfig configures persistence
type DatabaseConfig struct {
	Type string `yaml:"type"` // "sqlite", "postgres"
	Path string `yaml:"path"` // For SQLite
	DSN  string `yaml:"dsn"`  // For Postgres
}

// GeminiConfig configures the plan-generation upstream. The API key is
// normally supplied through the environment, not the file.
type GeminiConfig struct {
	APIKey  string        `yaml:"api_key"`
	Model   string        `yaml:"model"`
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"` // per generateContent attempt
}

// AuthConfig configures session tokens
type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

// StorageConfig configures the project file store
type StorageConfig struct {
	Path    string `yaml:"path"`
	BaseURL string `yaml:"base_url"` // public prefix for stored files
}

// EventsConfig configures the board event bus
type EventsConfig struct {
	Enabled bool   `yaml:"enabled"`
	NatsURL string `yaml:"nats_url"`
}

// TelemetryConfig configures tracing export
type TelemetryConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 120 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
		Database: DatabaseConfig{
			Type: "sqlite",
			Path: "planwise.db",
		},
		Gemini: GeminiConfig{
			Model:   "gemini-1.5-flash",
			Timeout: 30 * time.Second,
		},
		Auth: AuthConfig{
			TokenTTL: 24 * time.Hour,
		},
		Storage: StorageConfig{
			Path:    "data/files",
			BaseURL: "/files",
		},
	}
}

// LoadConfigFromFile reads a YAML config file and applies environment
// overrides on top of it.
func LoadConfigFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyEnv()
	return cfg, nil
}

// LoadConfig returns the file-based config when path exists, defaults plus
// environment overrides otherwise.
func LoadConfig(path string) *Config {
	if cfg, err := LoadConfigFromFile(path); err == nil {
		return cfg
	}
	cfg := DefaultConfig()
	cfg.applyEnv()
	return cfg
}

// applyEnv layers environment variables over whatever the file provided.
// GEMINI_API_KEY wins over GOOGLE_GEMINI_API when both are set.
func (c *Config) applyEnv() {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.Gemini.APIKey = key
	} else if key := os.Getenv("GOOGLE_GEMINI_API"); key != "" {
		c.Gemini.APIKey = key
	}
	if model := os.Getenv("GEMINI_MODEL"); model != "" {
		c.Gemini.Model = model
	}
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		c.Database.Type = "postgres"
		c.Database.DSN = dsn
	}
	if secret := os.Getenv("PLANWISE_JWT_SECRET"); secret != "" {
		c.Auth.JWTSecret = secret
	}
}
