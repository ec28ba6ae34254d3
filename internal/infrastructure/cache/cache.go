package cache

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/media-collect/internal/application/port"
)

// Backend names accepted by New
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendNone   = "none"
)

// Config selects and configures the cache backend
type Config struct {
	Backend   string
	RedisURL  string
	Namespace string
}

// New builds the configured backend. BackendNone returns a nil cache, which
// the query loader treats as caching disabled.
func New(ctx context.Context, cfg Config, logger *zap.Logger) (port.Cache, error) {
	switch cfg.Backend {
	case BackendMemory, "":
		return NewMemoryCache(), nil
	case BackendRedis:
		c, err := NewRedisCache(ctx, cfg.RedisURL, cfg.Namespace, logger)
		if err != nil {
			return nil, err
		}
		return c, nil
	case BackendNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown cache backend: %s", cfg.Backend)
	}
}
