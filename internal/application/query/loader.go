package query

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/garyjia/media-collect/internal/application/port"
)

// DefaultTTL applies when the loader is built with a non-positive ttl
const DefaultTTL = 30 * time.Second

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
}

// Recorder observes cache effectiveness per key namespace
type Recorder interface {
	CacheHit(namespace string)
	CacheMiss(namespace string)
}

// Loader is a read-through cache in front of repository reads.
// Concurrent loads of the same key share one fetch.
type Loader struct {
	cache    port.Cache
	ttl      time.Duration
	logger   Logger
	recorder Recorder

	group singleflight.Group

	// generation is bumped by every invalidation so that a fetch which
	// started before an invalidation does not repopulate stale data
	generation atomic.Uint64
}

// Option configures the loader
type Option func(*Loader)

// WithRecorder reports hits and misses
func WithRecorder(r Recorder) Option {
	return func(l *Loader) {
		l.recorder = r
	}
}

// NewLoader creates a loader over cache. A nil cache disables caching but
// keeps fetch de-duplication.
func NewLoader(cache port.Cache, ttl time.Duration, logger Logger, opts ...Option) *Loader {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	l := &Loader{
		cache:  cache,
		ttl:    ttl,
		logger: logger,
	}
	if l.logger == nil {
		l.logger = nopLogger{}
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{}) {}
func (nopLogger) Warn(string, ...interface{}) {}

// Load returns the cached value for key or fetches, caches and returns it.
// Cache errors are logged and treated as misses.
func Load[T any](ctx context.Context, l *Loader, key string, fetch func(context.Context) (T, error)) (T, error) {
	if l == nil {
		return fetch(ctx)
	}

	if raw, ok := l.get(ctx, key); ok {
		var v T
		err := json.Unmarshal(raw, &v)
		if err == nil {
			l.hit(key)
			return v, nil
		}
		l.logger.Warn("Discarding undecodable cache entry", "key", key, "error", err)
	}
	l.miss(key)

	gen := l.generation.Load()
	shared := context.WithoutCancel(ctx)
	v, err, _ := l.group.Do(key, func() (interface{}, error) {
		val, err := fetch(shared)
		if err != nil {
			return nil, err
		}
		if l.generation.Load() == gen {
			l.set(ctx, key, val)
		}
		return val, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}

	typed, _ := v.(T)
	return typed, nil
}

// Invalidate drops every cached key that starts with one of the prefixes
func (l *Loader) Invalidate(ctx context.Context, prefixes ...string) {
	if l == nil {
		return
	}
	l.generation.Add(1)

	if l.cache == nil {
		return
	}
	for _, prefix := range prefixes {
		if err := l.cache.DeletePrefix(ctx, prefix); err != nil {
			l.logger.Warn("Failed to invalidate cache", "prefix", prefix, "error", err)
		}
	}
}

func (l *Loader) get(ctx context.Context, key string) ([]byte, bool) {
	if l.cache == nil {
		return nil, false
	}
	raw, ok, err := l.cache.Get(ctx, key)
	if err != nil {
		l.logger.Warn("Cache read failed, falling through", "key", key, "error", err)
		return nil, false
	}
	return raw, ok
}

func (l *Loader) set(ctx context.Context, key string, val interface{}) {
	if l.cache == nil {
		return
	}
	raw, err := json.Marshal(val)
	if err != nil {
		l.logger.Warn("Failed to encode cache entry", "key", key, "error", err)
		return
	}
	if err := l.cache.Set(ctx, key, raw, l.ttl); err != nil {
		l.logger.Warn("Cache write failed", "key", key, "error", err)
	}
}

func (l *Loader) hit(key string) {
	if l.recorder != nil {
		l.recorder.CacheHit(namespace(key))
	}
}

func (l *Loader) miss(key string) {
	if l.recorder != nil && l.cache != nil {
		l.recorder.CacheMiss(namespace(key))
	}
}
