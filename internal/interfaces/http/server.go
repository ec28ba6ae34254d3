// Package http exposes the application services over a JSON REST API.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/media-collect/internal/application/service"
	"github.com/garyjia/media-collect/internal/domain/entity"
)

// Logger interface for logging operations
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// Metrics instruments the router and serves the scrape endpoint
type Metrics interface {
	Middleware() gin.HandlerFunc
	Handler() http.Handler
}

// HealthChecker reports whether backing stores are reachable
type HealthChecker interface {
	Health(ctx context.Context) error
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	AllowOrigin     string
	Mode            string
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:            "0.0.0.0",
		Port:            8080,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		AllowOrigin:     "*",
		Mode:            gin.ReleaseMode,
	}
}

// Services groups the application services the API fronts
type Services struct {
	Users       service.UserService
	Tasks       service.TaskService
	Collectors  service.CollectorService
	Submissions service.SubmissionService
}

// Server is the HTTP server adapter
type Server struct {
	config     ServerConfig
	httpServer *http.Server
	router     *gin.Engine
	handlers   *Handlers
	tokens     TokenParser
	metrics    Metrics
	logger     Logger
}

// NewServer wires middleware and routes. metrics and health may be nil.
func NewServer(
	config ServerConfig,
	services Services,
	tokens TokenParser,
	health HealthChecker,
	metrics Metrics,
	logger Logger,
) *Server {
	if config.Mode == "" {
		config.Mode = gin.ReleaseMode
	}
	gin.SetMode(config.Mode)

	server := &Server{
		config:   config,
		router:   gin.New(),
		handlers: NewHandlers(services, health, logger),
		tokens:   tokens,
		metrics:  metrics,
		logger:   logger,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

// setupMiddleware configures middleware for the router
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(loggingMiddleware(s.logger))
	s.router.Use(corsMiddleware(s.config.AllowOrigin))
	if s.metrics != nil {
		s.router.Use(s.metrics.Middleware())
	}
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	h := s.handlers
	managers := requireRole(entity.RoleAdmin, entity.RoleSupervisor)

	s.router.GET("/health", h.HealthCheck)
	if s.metrics != nil {
		s.router.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}

	api := s.router.Group("/api")

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/login", h.Login)
		authGroup.POST("/register", h.SelfRegister)
	}

	protected := api.Group("")
	protected.Use(authMiddleware(s.tokens))

	users := protected.Group("/users")
	{
		users.POST("/register", requireRole(entity.RoleAdmin), h.RegisterUser)
		users.GET("", managers, h.ListUsers)
		users.GET("/:id", managers, h.GetUser)
	}

	collectors := protected.Group("/data-collector", managers)
	{
		collectors.GET("", h.ListCollectors)
		collectors.POST("/register", h.RegisterCollector)
		collectors.GET("/:id", h.GetCollector)
	}

	tasks := protected.Group("/tasks")
	{
		tasks.GET("", h.ListTasks)
		tasks.POST("", managers, h.CreateTask)
		tasks.GET("/:id", h.GetTask)
		tasks.PATCH("/:id", managers, h.UpdateTask)
		tasks.POST("/assign/:id", managers, h.AssignCollectors)
	}

	submissions := protected.Group("/submissions")
	{
		submissions.GET("", h.ListSubmissions)
		submissions.GET("/export", managers, h.ExportSubmissions)
		submissions.GET("/:id", h.GetSubmission)
		submissions.GET("/:id/history", h.ReviewHistory)
		submissions.PATCH("/:id", managers, h.ReviewSubmission)
	}
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	addr := s.Address()

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting HTTP server", "address", addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("HTTP server shutdown requested")
		return s.Stop()
	case err := <-errCh:
		s.logger.Error("HTTP server error", "error", err)
		return err
	}
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	s.logger.Info("Stopping HTTP server")

	timeout := s.config.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
		return err
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// Router returns the underlying gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Address returns the server address
func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}
