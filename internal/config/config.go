// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type AdminConfig struct {
	Token      string        `yaml:"token"`       // static admin bearer token
	JWTSecret  string        `yaml:"jwt_secret"`  // HS256 signing key for session tokens
	SessionTTL time.Duration `yaml:"session_ttl"` // lifetime of issued session tokens
}

type CleanupConfig struct {
	IntervalMinutes   int `yaml:"interval_minutes"`   // throttle between opportunistic sweeps
	BackgroundMinutes int `yaml:"background_minutes"` // background loop tick; 0 disables the loop
}

type RateLimitConfig struct {
	Enabled       bool          `yaml:"enabled"`
	MaxValidation int           `yaml:"max_validation"` // validation attempts per window per IP
	Window        time.Duration `yaml:"window"`
}

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Admin     AdminConfig     `yaml:"admin"`
	Cleanup   CleanupConfig   `yaml:"cleanup"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.Runtime.Dev = dev

	// defaults
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Admin.SessionTTL <= 0 {
		cfg.Admin.SessionTTL = time.Hour
	}
	if cfg.Cleanup.IntervalMinutes <= 0 {
		cfg.Cleanup.IntervalMinutes = 5
	}
	if cfg.RateLimit.MaxValidation <= 0 {
		cfg.RateLimit.MaxValidation = 10
	}
	if cfg.RateLimit.Window <= 0 {
		cfg.RateLimit.Window = time.Minute
	}

	// env overrides for secrets, so they can stay out of the file
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("ADMIN_TOKEN"); v != "" {
		cfg.Admin.Token = v
	}
	if v := os.Getenv("ADMIN_JWT_SECRET"); v != "" {
		cfg.Admin.JWTSecret = v
	}

	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required (or set DATABASE_URL)")
	}
	if cfg.Admin.Token == "" {
		return nil, errors.New("admin.token is required (or set ADMIN_TOKEN)")
	}
	return &cfg, nil
}

// CleanupInterval returns the opportunistic sweep throttle as a duration.
func (c *Config) CleanupInterval() time.Duration {
	return time.Duration(c.Cleanup.IntervalMinutes) * time.Minute
}

// BackgroundCleanupInterval returns the background loop tick, zero when disabled.
func (c *Config) BackgroundCleanupInterval() time.Duration {
	return time.Duration(c.Cleanup.BackgroundMinutes) * time.Minute
}
