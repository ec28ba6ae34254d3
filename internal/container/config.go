// Package container provides dependency injection and lifecycle management
// for the media collection service.
package container

import (
	"fmt"
	"time"
)

// Config holds all configuration for the Container.
type Config struct {
	Database DatabaseConfig
	Auth     AuthConfig
	Review   ReviewConfig
	Cache    CacheConfig
	Lark     LarkConfig
	Export   ExportConfig
	Metrics  MetricsConfig
	Server   ServerConfig
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// Path to SQLite database file
	Path string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	BusyTimeout     time.Duration

	// AutoMigrate applies pending embedded migrations on start
	AutoMigrate bool
}

// AuthConfig holds token and password settings.
type AuthConfig struct {
	JWTSecret  string
	Issuer     string
	TokenTTL   time.Duration
	BcryptCost int
}

// ReviewConfig holds the review rules.
type ReviewConfig struct {
	AllowReReview bool

	// NotePolicy is "optional" or "required"
	NotePolicy string
}

// CacheConfig selects the query cache backend.
type CacheConfig struct {
	// Backend is "memory", "redis" or "none"
	Backend   string
	RedisURL  string
	Namespace string
	TTL       time.Duration
}

// LarkConfig holds Lark API settings. Notifications are disabled when
// any value is empty.
type LarkConfig struct {
	AppID        string
	AppSecret    string
	ReviewChatID string
}

// ExportConfig holds spreadsheet export settings.
type ExportConfig struct {
	SheetName string

	// Timezone is an IANA name used to render timestamps
	Timezone string
}

// MetricsConfig holds Prometheus settings.
type MetricsConfig struct {
	Enabled   bool
	Namespace string
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	AllowOrigin     string
	Mode            string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:            "data/media-collect.db",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
			BusyTimeout:     5 * time.Second,
			AutoMigrate:     true,
		},
		Auth: AuthConfig{
			Issuer:     "media-collect",
			TokenTTL:   12 * time.Hour,
			BcryptCost: 10,
		},
		Review: ReviewConfig{
			AllowReReview: true,
			NotePolicy:    "optional",
		},
		Cache: CacheConfig{
			Backend:   "memory",
			Namespace: "media-collect",
			TTL:       30 * time.Second,
		},
		Export: ExportConfig{
			SheetName: "Submissions",
			Timezone:  "UTC",
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: "media_collect",
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			AllowOrigin:     "*",
			Mode:            "release",
		},
	}
}

// MinJWTSecretLength is the shortest accepted signing secret
const MinJWTSecretLength = 16

// Validate checks that required configuration values are present.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if len(c.Auth.JWTSecret) < MinJWTSecretLength {
		return fmt.Errorf("auth.jwt_secret must be at least %d characters", MinJWTSecretLength)
	}

	switch c.Review.NotePolicy {
	case "optional", "required":
	default:
		return fmt.Errorf("review.note_policy must be optional or required, got %q", c.Review.NotePolicy)
	}

	switch c.Cache.Backend {
	case "memory", "none":
	case "redis":
		if c.Cache.RedisURL == "" {
			return fmt.Errorf("cache.redis_url is required when cache.backend is redis")
		}
	default:
		return fmt.Errorf("unknown cache.backend %q", c.Cache.Backend)
	}

	if c.Export.Timezone != "" {
		if _, err := time.LoadLocation(c.Export.Timezone); err != nil {
			return fmt.Errorf("export.timezone: %w", err)
		}
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}

	return nil
}
