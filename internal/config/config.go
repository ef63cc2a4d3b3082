package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	API     APIConfig
	Session SessionConfig
	Log     LogConfig
	Audit   AuditConfig
	OTel    OTelConfig
}

type APIConfig struct {
	BaseURL string        `env:"SURVEY_API_BASE_URL" envDefault:"http://127.0.0.1:8000"`
	Timeout time.Duration `env:"SURVEY_API_TIMEOUT" envDefault:"0s"`
}

type SessionConfig struct {
	Backend     string `env:"SURVEY_SESSION_BACKEND" envDefault:"file"`
	File        string `env:"SURVEY_SESSION_FILE" envDefault:"./data/session.json"`
	SQLitePath  string `env:"SURVEY_SESSION_SQLITE_PATH" envDefault:"./data/session.db"`
	DatabaseURL string `env:"SURVEY_DATABASE_URL"`
}

type LogConfig struct {
	Level  string `env:"SURVEY_LOG_LEVEL" envDefault:"info"`
	Format string `env:"SURVEY_LOG_FORMAT" envDefault:"text"`
}

type AuditConfig struct {
	File string `env:"SURVEY_AUDIT_LOG_FILE" envDefault:"./data/activity.log"`
}

type OTelConfig struct {
	Endpoint string `env:"SURVEY_OTEL_ENDPOINT"`
}

const (
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.Session.Backend = strings.ToLower(strings.TrimSpace(cfg.Session.Backend))
	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))
	cfg.Log.Format = strings.ToLower(strings.TrimSpace(cfg.Log.Format))

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("SURVEY_API_BASE_URL must be an http(s) URL, got %q", c.API.BaseURL)
	}
	if c.API.Timeout < 0 {
		return fmt.Errorf("SURVEY_API_TIMEOUT must be >= 0")
	}

	switch c.Session.Backend {
	case BackendFile:
		if c.Session.File == "" {
			return fmt.Errorf("SURVEY_SESSION_FILE must not be empty")
		}
	case BackendSQLite:
		if c.Session.SQLitePath == "" {
			return fmt.Errorf("SURVEY_SESSION_SQLITE_PATH must not be empty")
		}
	case BackendPostgres:
		if c.Session.DatabaseURL == "" {
			return fmt.Errorf("SURVEY_DATABASE_URL must not be empty for the postgres session backend")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("SURVEY_SESSION_BACKEND must be one of file, sqlite, postgres, memory; got %q", c.Session.Backend)
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("SURVEY_LOG_LEVEL must be one of debug, info, warn, error; got %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("SURVEY_LOG_FORMAT must be text or json, got %q", c.Log.Format)
	}
	return nil
}
