package config

import (
	"github.com/garyjia/media-collect/internal/container"
	"github.com/garyjia/media-collect/pkg/utils"
)

// ToContainerConfig converts the application Config to a container.Config.
func (c *Config) ToContainerConfig() *container.Config {
	return &container.Config{
		Database: container.DatabaseConfig{
			Path:            c.Database.Path,
			MaxOpenConns:    c.Database.MaxOpenConns,
			MaxIdleConns:    c.Database.MaxIdleConns,
			ConnMaxLifetime: c.Database.ConnMaxLifetime,
			BusyTimeout:     c.Database.BusyTimeout,
			AutoMigrate:     c.Database.AutoMigrate,
		},
		Auth: container.AuthConfig{
			JWTSecret:  c.Auth.JWTSecret,
			Issuer:     c.Auth.Issuer,
			TokenTTL:   c.Auth.TokenTTL,
			BcryptCost: c.Auth.BcryptCost,
		},
		Review: container.ReviewConfig{
			AllowReReview: c.Review.AllowReReview,
			NotePolicy:    c.Review.NotePolicy,
		},
		Cache: container.CacheConfig{
			Backend:   c.Cache.Backend,
			RedisURL:  c.Cache.RedisURL,
			Namespace: c.Cache.Namespace,
			TTL:       c.Cache.TTL,
		},
		Lark: container.LarkConfig{
			AppID:        c.Lark.AppID,
			AppSecret:    c.Lark.AppSecret,
			ReviewChatID: c.Lark.ReviewChatID,
		},
		Export: container.ExportConfig{
			SheetName: c.Export.SheetName,
			Timezone:  c.Export.Timezone,
		},
		Metrics: container.MetricsConfig{
			Enabled:   c.Metrics.Enabled,
			Namespace: c.Metrics.Namespace,
		},
		Server: container.ServerConfig{
			Host:            c.Server.Host,
			Port:            c.Server.Port,
			ReadTimeout:     c.Server.ReadTimeout,
			WriteTimeout:    c.Server.WriteTimeout,
			ShutdownTimeout: c.Server.ShutdownTimeout,
			AllowOrigin:     c.Server.AllowOrigin,
			Mode:            c.Server.Mode,
		},
	}
}

// LoggerConfig converts the logger section for utils.NewLogger.
func (c *Config) LoggerConfig() utils.LoggerConfig {
	return utils.LoggerConfig{
		Level:      c.Logger.Level,
		OutputPath: c.Logger.OutputPath,
		Format:     c.Logger.Format,
		Service:    "media-collect",
	}
}
