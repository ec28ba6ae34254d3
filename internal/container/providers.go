package container

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/media-collect/internal/application/dispatcher"
	"github.com/garyjia/media-collect/internal/application/port"
	"github.com/garyjia/media-collect/internal/application/query"
	"github.com/garyjia/media-collect/internal/application/service"
	"github.com/garyjia/media-collect/internal/infrastructure/auth"
	"github.com/garyjia/media-collect/internal/infrastructure/cache"
	"github.com/garyjia/media-collect/internal/infrastructure/export"
	infraLark "github.com/garyjia/media-collect/internal/infrastructure/external/lark"
	"github.com/garyjia/media-collect/internal/infrastructure/metrics"
	"github.com/garyjia/media-collect/internal/infrastructure/persistence/repository"
	"github.com/garyjia/media-collect/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/media-collect/migrations"
	"github.com/garyjia/media-collect/pkg/database"
)

// DatabaseBundle holds database-related components.
type DatabaseBundle struct {
	DB             *database.DB
	TransactionMgr *sqlite.DB
}

// AuthBundle holds token and password components.
type AuthBundle struct {
	Tokens *auth.JWTIssuer
	Hasher *auth.BcryptHasher
}

// ProvideDatabase opens the SQLite database and applies pending embedded
// migrations when enabled.
func ProvideDatabase(ctx context.Context, cfg *DatabaseConfig, logger *zap.Logger) (*DatabaseBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	db, err := database.New(ctx, database.Config{
		Path:            cfg.Path,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
		BusyTimeout:     cfg.BusyTimeout,
	}, logger)
	if err != nil {
		return nil, err
	}

	if cfg.AutoMigrate {
		applied, err := database.NewMigrator(db, migrations.FS, logger).Run(ctx)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		logger.Info("Migrations checked", zap.Int("applied", applied))
	}

	return &DatabaseBundle{
		DB:             db,
		TransactionMgr: sqlite.NewDB(db.DB, logger),
	}, nil
}

// ProvideRepositories creates all repositories from a database connection.
func ProvideRepositories(db *database.DB, logger *zap.Logger) (*RepositoryBundle, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &RepositoryBundle{
		User:        repository.NewUserRepository(db.DB, logger),
		Task:        repository.NewTaskRepository(db.DB, logger),
		Collector:   repository.NewCollectorRepository(db.DB, logger),
		Submission:  repository.NewSubmissionRepository(db.DB, logger),
		ReviewTrail: repository.NewReviewRecordRepository(db.DB, logger),
	}, nil
}

// ProvideCache builds the configured cache backend. A nil cache means
// caching is disabled.
func ProvideCache(ctx context.Context, cfg *CacheConfig, logger *zap.Logger) (port.Cache, error) {
	c, err := cache.New(ctx, cache.Config{
		Backend:   cfg.Backend,
		RedisURL:  cfg.RedisURL,
		Namespace: cfg.Namespace,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache: %w", err)
	}
	return c, nil
}

// ProvideLoader builds the query loader, recording hits on m when set.
func ProvideLoader(c port.Cache, cfg *CacheConfig, m *metrics.Metrics, logger *zap.Logger) *query.Loader {
	var opts []query.Option
	if m != nil {
		opts = append(opts, query.WithRecorder(m))
	}
	return query.NewLoader(c, cfg.TTL, newLoggerAdapter(logger.Named("query")), opts...)
}

// asyncHandlerLimit caps concurrent background handlers (Lark posts)
const asyncHandlerLimit = 4

// ProvideDispatcher creates the event dispatcher.
func ProvideDispatcher(logger *zap.Logger) (dispatcher.Dispatcher, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return dispatcher.NewDispatcher(
		dispatcher.WithLogger(newLoggerAdapter(logger.Named("dispatcher"))),
		dispatcher.WithAsyncLimit(asyncHandlerLimit),
	), nil
}

// ProvideMetrics returns nil when metrics are disabled.
func ProvideMetrics(cfg *MetricsConfig) *metrics.Metrics {
	if !cfg.Enabled {
		return nil
	}
	return metrics.New(cfg.Namespace)
}

// ProvideAuth creates the token issuer and password hasher.
func ProvideAuth(cfg *AuthConfig) *AuthBundle {
	return &AuthBundle{
		Tokens: auth.NewJWTIssuer(cfg.JWTSecret, cfg.Issuer, cfg.TokenTTL),
		Hasher: auth.NewBcryptHasher(cfg.BcryptCost),
	}
}

// ProvideNotifier returns a Lark notifier, or a no-op one when Lark is not
// configured.
func ProvideNotifier(cfg *LarkConfig, logger *zap.Logger) port.Notifier {
	return infraLark.NewNotifierFromConfig(infraLark.Config{
		AppID:        cfg.AppID,
		AppSecret:    cfg.AppSecret,
		ReviewChatID: cfg.ReviewChatID,
	}, logger.Named("lark"))
}

// ProvideExporter creates the spreadsheet exporter.
func ProvideExporter(cfg *ExportConfig, logger *zap.Logger) (port.SubmissionExporter, error) {
	loc := time.UTC
	if cfg.Timezone != "" {
		l, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			return nil, fmt.Errorf("failed to load export timezone: %w", err)
		}
		loc = l
	}
	return export.NewXLSXExporter(cfg.SheetName, loc, logger.Named("export")), nil
}

// ServiceDeps holds dependencies for creating services.
type ServiceDeps struct {
	Repos     *RepositoryBundle
	TxManager port.TransactionManager
	Auth      *AuthBundle
	Loader    *query.Loader
	Events    service.EventPublisher
	Exporter  port.SubmissionExporter
	Notifier  port.Notifier
	ReviewCfg *ReviewConfig
	Logger    *zap.Logger
}

// ProvideServices creates all application services.
func ProvideServices(deps *ServiceDeps) (*ServiceBundle, error) {
	if deps == nil || deps.Repos == nil {
		return nil, fmt.Errorf("service dependencies are required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	r := deps.Repos
	log := newLoggerAdapter(deps.Logger.Named("service"))

	return &ServiceBundle{
		User: service.NewUserService(
			r.User, r.Collector, deps.Auth.Hasher, deps.Auth.Tokens,
			deps.TxManager, deps.Loader, deps.Events, log,
		),
		Task: service.NewTaskService(
			r.Task, r.Collector, r.Submission,
			deps.TxManager, deps.Loader, deps.Events, log,
		),
		Collector: service.NewCollectorService(
			r.Collector, r.Task, r.Submission,
			deps.Loader, deps.Events, log,
		),
		Submission: service.NewSubmissionService(
			r.Submission, r.ReviewTrail, r.Task, r.Collector,
			deps.TxManager, deps.Exporter, deps.Loader, deps.Events, log,
			service.ReviewConfig{
				AllowReReview: deps.ReviewCfg.AllowReReview,
				NotePolicy:    service.NotePolicy(deps.ReviewCfg.NotePolicy),
			},
		),
		Notification: service.NewNotificationService(deps.Notifier, r.Task, r.Collector, log),
	}, nil
}
