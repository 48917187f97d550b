package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Server.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Database.Type != "sqlite" {
		t.Errorf("Database.Type = %q, want sqlite", cfg.Database.Type)
	}
	if cfg.Gemini.Model != "gemini-1.5-flash" {
		t.Errorf("Gemini.Model = %q", cfg.Gemini.Model)
	}
	if cfg.Gemini.Timeout != 30*time.Second {
		t.Errorf("Gemini.Timeout = %v", cfg.Gemini.Timeout)
	}
	if cfg.Auth.TokenTTL != 24*time.Hour {
		t.Errorf("Auth.TokenTTL = %v", cfg.Auth.TokenTTL)
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: 9090
gemini:
  model: gemini-1.5-pro
  timeout: 45s
events:
  enabled: true
  nats_url: nats://broker:4222
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfigFromFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFromFile() error = %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Gemini.Model != "gemini-1.5-pro" {
		t.Errorf("Model = %q", cfg.Gemini.Model)
	}
	if cfg.Gemini.Timeout != 45*time.Second {
		t.Errorf("Timeout = %v", cfg.Gemini.Timeout)
	}
	if !cfg.Events.Enabled || cfg.Events.NatsURL != "nats://broker:4222" {
		t.Errorf("Events = %+v", cfg.Events)
	}
	// Unset keys keep their defaults.
	if cfg.Database.Type != "sqlite" {
		t.Errorf("Database.Type = %q, want default", cfg.Database.Type)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if cfg.Server.Port != 8080 {
		t.Errorf("Port = %d, want default 8080", cfg.Server.Port)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "primary-key")
	t.Setenv("GOOGLE_GEMINI_API", "secondary-key")
	t.Setenv("GEMINI_MODEL", "gemini-2.0-flash-exp")
	t.Setenv("DATABASE_URL", "postgres://localhost/planwise")
	t.Setenv("PLANWISE_JWT_SECRET", "env-secret")

	cfg := DefaultConfig()
	cfg.applyEnv()

	// GEMINI_API_KEY wins when both key variables are set.
	if cfg.Gemini.APIKey != "primary-key" {
		t.Errorf("APIKey = %q, want primary-key", cfg.Gemini.APIKey)
	}
	if cfg.Gemini.Model != "gemini-2.0-flash-exp" {
		t.Errorf("Model = %q", cfg.Gemini.Model)
	}
	if cfg.Database.Type != "postgres" || cfg.Database.DSN != "postgres://localhost/planwise" {
		t.Errorf("Database = %+v", cfg.Database)
	}
	if cfg.Auth.JWTSecret != "env-secret" {
		t.Errorf("JWTSecret = %q", cfg.Auth.JWTSecret)
	}
}

func TestEnvFallbackKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_GEMINI_API", "secondary-key")

	cfg := DefaultConfig()
	cfg.applyEnv()
	if cfg.Gemini.APIKey != "secondary-key" {
		t.Errorf("APIKey = %q, want secondary-key", cfg.Gemini.APIKey)
	}
}
