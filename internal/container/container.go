package container

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/garyjia/media-collect/internal/application/dispatcher"
	"github.com/garyjia/media-collect/internal/application/port"
	"github.com/garyjia/media-collect/internal/application/query"
	"github.com/garyjia/media-collect/internal/application/service"
	"github.com/garyjia/media-collect/internal/infrastructure/metrics"
	"github.com/garyjia/media-collect/internal/infrastructure/persistence/sqlite"
	apihttp "github.com/garyjia/media-collect/internal/interfaces/http"
	"github.com/garyjia/media-collect/pkg/database"
)

// Container manages all application dependencies and lifecycle.
// Components start in dependency order and close in reverse.
type Container struct {
	config *Config
	logger *zap.Logger

	// Infrastructure - Data
	db           *database.DB
	txManager    *sqlite.DB
	repositories *RepositoryBundle
	cache        port.Cache

	// Infrastructure - External
	auth     *AuthBundle
	notifier port.Notifier
	exporter port.SubmissionExporter
	metrics  *metrics.Metrics

	// Application
	loader     *query.Loader
	dispatcher dispatcher.Dispatcher
	services   *ServiceBundle

	// Lifecycle
	mu     sync.RWMutex
	ready  atomic.Bool
	closed atomic.Bool
}

// RepositoryBundle groups all repositories for convenient access.
type RepositoryBundle struct {
	User        port.UserRepository
	Task        port.TaskRepository
	Collector   port.CollectorRepository
	Submission  port.SubmissionRepository
	ReviewTrail port.ReviewRecordRepository
}

// ServiceBundle groups all application services.
type ServiceBundle struct {
	User         service.UserService
	Task         service.TaskService
	Collector    service.CollectorService
	Submission   service.SubmissionService
	Notification service.NotificationService
}

// HealthStatus represents the health of all components.
type HealthStatus struct {
	Overall    bool                       `json:"overall"`
	Components map[string]ComponentHealth `json:"components"`
}

// ComponentHealth represents health of a single component.
type ComponentHealth struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// NewContainer creates a new container from configuration.
// It does not initialize components - call Start() to initialize.
func NewContainer(cfg *Config, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Container{
		config: cfg,
		logger: logger,
	}, nil
}

// Start initializes all components in dependency order:
// 1. Database and repositories
// 2. Query cache and loader
// 3. Dispatcher
// 4. External adapters (auth, Lark, export)
// 5. Application services
// 6. Event subscriptions
func (c *Container) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container has been closed")
	}
	if c.ready.Load() {
		return fmt.Errorf("container already started")
	}

	c.logger.Info("Starting container initialization")

	if err := c.initDatabase(ctx); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	c.logger.Info("Database initialized")

	if err := c.initCache(ctx); err != nil {
		c.closeLocked()
		return fmt.Errorf("failed to initialize cache: %w", err)
	}
	c.logger.Info("Query cache initialized", zap.String("backend", c.config.Cache.Backend))

	if err := c.initDispatcher(); err != nil {
		c.closeLocked()
		return fmt.Errorf("failed to initialize dispatcher: %w", err)
	}
	c.logger.Info("Dispatcher initialized")

	if err := c.initExternal(); err != nil {
		c.closeLocked()
		return fmt.Errorf("failed to initialize external adapters: %w", err)
	}
	c.logger.Info("External adapters initialized")

	if err := c.initServices(); err != nil {
		c.closeLocked()
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	c.logger.Info("Application services initialized")

	c.subscribe()
	c.logger.Info("Event handlers registered")

	c.ready.Store(true)
	c.logger.Info("Container started successfully")
	return nil
}

// Close gracefully shuts down all components in reverse order.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container already closed")
	}

	c.logger.Info("Closing container")
	errs := c.closeLocked()

	if len(errs) > 0 {
		c.logger.Error("Container closed with errors", zap.Int("error_count", len(errs)))
		return fmt.Errorf("container closed with %d errors: %v", len(errs), errs)
	}

	c.logger.Info("Container closed successfully")
	return nil
}

func (c *Container) closeLocked() []error {
	var errs []error

	// Waits for in-flight async notifications
	if c.dispatcher != nil {
		if err := c.dispatcher.Close(); err != nil {
			c.logger.Error("Failed to close dispatcher", zap.Error(err))
			errs = append(errs, fmt.Errorf("close dispatcher: %w", err))
		} else {
			c.logger.Info("Dispatcher closed")
		}
	}

	if c.cache != nil {
		if err := c.cache.Close(); err != nil {
			c.logger.Error("Failed to close cache", zap.Error(err))
			errs = append(errs, fmt.Errorf("close cache: %w", err))
		} else {
			c.logger.Info("Cache closed")
		}
	}

	if c.db != nil {
		if err := c.db.Close(); err != nil {
			c.logger.Error("Failed to close database", zap.Error(err))
			errs = append(errs, fmt.Errorf("close database: %w", err))
		} else {
			c.logger.Info("Database closed")
		}
	}

	c.closed.Store(true)
	c.ready.Store(false)
	return errs
}

// Ready returns true when all components are initialized.
func (c *Container) Ready() bool {
	return c.ready.Load()
}

// Status returns health status of all components.
func (c *Container) Status(ctx context.Context) *HealthStatus {
	status := &HealthStatus{
		Overall:    true,
		Components: make(map[string]ComponentHealth),
	}

	mark := func(name string, err error) {
		if err != nil {
			status.Components[name] = ComponentHealth{Healthy: false, Message: err.Error()}
			status.Overall = false
			return
		}
		status.Components[name] = ComponentHealth{Healthy: true}
	}

	if c.db == nil {
		mark("database", fmt.Errorf("not initialized"))
	} else {
		mark("database", c.db.PingContext(ctx))
	}

	if c.cache != nil {
		mark("cache", c.cache.Ping(ctx))
	}

	if c.dispatcher == nil {
		mark("dispatcher", fmt.Errorf("not initialized"))
	} else {
		mark("dispatcher", nil)
	}

	return status
}

// Health reports the first unhealthy component, if any.
func (c *Container) Health(ctx context.Context) error {
	status := c.Status(ctx)
	if status.Overall {
		return nil
	}
	for name, comp := range status.Components {
		if !comp.Healthy {
			return fmt.Errorf("%s: %s", name, comp.Message)
		}
	}
	return fmt.Errorf("unhealthy")
}

func (c *Container) initDatabase(ctx context.Context) error {
	bundle, err := ProvideDatabase(ctx, &c.config.Database, c.logger)
	if err != nil {
		return err
	}
	c.db = bundle.DB
	c.txManager = bundle.TransactionMgr

	repos, err := ProvideRepositories(c.db, c.logger)
	if err != nil {
		_ = c.db.Close()
		c.db = nil
		return err
	}
	c.repositories = repos
	return nil
}

func (c *Container) initCache(ctx context.Context) error {
	cache, err := ProvideCache(ctx, &c.config.Cache, c.logger)
	if err != nil {
		return err
	}
	c.cache = cache
	c.metrics = ProvideMetrics(&c.config.Metrics)
	c.loader = ProvideLoader(c.cache, &c.config.Cache, c.metrics, c.logger)
	return nil
}

func (c *Container) initDispatcher() error {
	disp, err := ProvideDispatcher(c.logger)
	if err != nil {
		return err
	}
	c.dispatcher = disp
	return nil
}

func (c *Container) initExternal() error {
	c.auth = ProvideAuth(&c.config.Auth)
	c.notifier = ProvideNotifier(&c.config.Lark, c.logger)

	exporter, err := ProvideExporter(&c.config.Export, c.logger)
	if err != nil {
		return err
	}
	c.exporter = exporter
	return nil
}

func (c *Container) initServices() error {
	services, err := ProvideServices(&ServiceDeps{
		Repos:     c.repositories,
		TxManager: c.txManager,
		Auth:      c.auth,
		Loader:    c.loader,
		Events:    c.dispatcher,
		Exporter:  c.exporter,
		Notifier:  c.notifier,
		ReviewCfg: &c.config.Review,
		Logger:    c.logger,
	})
	if err != nil {
		return err
	}
	c.services = services
	return nil
}

// subscribe registers cache invalidation and metrics as synchronous
// handlers and notifications as asynchronous ones.
func (c *Container) subscribe() {
	c.loader.Subscribe(c.dispatcher)
	if c.metrics != nil {
		c.metrics.Subscribe(c.dispatcher)
	}
	c.services.Notification.Subscribe(c.dispatcher)
}

// NewHTTPServer builds the REST API over the started container.
func (c *Container) NewHTTPServer() *apihttp.Server {
	s := c.config.Server
	var m apihttp.Metrics
	if c.metrics != nil {
		m = c.metrics
	}

	return apihttp.NewServer(apihttp.ServerConfig{
		Host:            s.Host,
		Port:            s.Port,
		ReadTimeout:     s.ReadTimeout,
		WriteTimeout:    s.WriteTimeout,
		ShutdownTimeout: s.ShutdownTimeout,
		AllowOrigin:     s.AllowOrigin,
		Mode:            s.Mode,
	}, apihttp.Services{
		Users:       c.services.User,
		Tasks:       c.services.Task,
		Collectors:  c.services.Collector,
		Submissions: c.services.Submission,
	}, c.auth.Tokens, c, m, newLoggerAdapter(c.logger.Named("http")))
}

// Getters for accessing container components

// DB returns the transaction manager.
func (c *Container) DB() port.TransactionManager {
	return c.txManager
}

// Repositories returns all repositories.
func (c *Container) Repositories() *RepositoryBundle {
	return c.repositories
}

// Dispatcher returns the event dispatcher.
func (c *Container) Dispatcher() dispatcher.Dispatcher {
	return c.dispatcher
}

// Services returns all application services.
func (c *Container) Services() *ServiceBundle {
	return c.services
}

// Metrics returns nil when metrics are disabled.
func (c *Container) Metrics() *metrics.Metrics {
	return c.metrics
}

// Logger returns the container's logger.
func (c *Container) Logger() *zap.Logger {
	return c.logger
}

// Config returns the container's configuration.
func (c *Container) Config() *Config {
	return c.config
}
