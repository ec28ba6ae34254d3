package http

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/media-collect/internal/application/service"
	"github.com/garyjia/media-collect/internal/domain/entity"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	users       service.UserService
	tasks       service.TaskService
	collectors  service.CollectorService
	submissions service.SubmissionService
	health      HealthChecker
	logger      Logger
	now         func() time.Time
}

// NewHandlers creates a new Handlers instance
func NewHandlers(services Services, health HealthChecker, logger Logger) *Handlers {
	return &Handlers{
		users:       services.Users,
		tasks:       services.Tasks,
		collectors:  services.Collectors,
		submissions: services.Submissions,
		health:      health,
		logger:      logger,
		now:         time.Now,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
	Error     string `json:"error,omitempty"`
}

// Version is reported by the health endpoint
var Version = "dev"

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	resp := HealthResponse{
		Status:    "healthy",
		Timestamp: h.now().UTC().Format(time.RFC3339),
		Version:   Version,
	}

	if h.health != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.health.Health(ctx); err != nil {
			h.logger.Warn("Health check failed", "error", err)
			resp.Status = "unhealthy"
			resp.Error = err.Error()
			c.JSON(http.StatusServiceUnavailable, Response{Success: false, Data: resp, Error: "unhealthy"})
			return
		}
	}

	ok(c, http.StatusOK, resp)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Name             string  `json:"name"`
	Email            string  `json:"email"`
	Password         string  `json:"password"`
	ConfirmPassword  *string `json:"confirmPassword"`
	Role             string  `json:"role"`
	Phone            *string `json:"phone"`
	TelegramUsername *string `json:"telegramUsername"`
}

func (r registerRequest) input() service.RegisterInput {
	return service.RegisterInput{
		Name:             r.Name,
		Email:            r.Email,
		Password:         r.Password,
		ConfirmPassword:  r.ConfirmPassword,
		Role:             entity.Role(r.Role),
		Phone:            r.Phone,
		TelegramUsername: r.TelegramUsername,
	}
}

// bindJSON decodes the body and writes a 400 on failure
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// Login handles POST /api/auth/login
func (h *Handlers) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.respondError(c, "login", err)
		return
	}
	ok(c, http.StatusOK, result)
}

// SelfRegister handles POST /api/auth/register
func (h *Handlers) SelfRegister(c *gin.Context) {
	var req registerRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.users.SelfRegister(c.Request.Context(), req.input())
	if err != nil {
		h.respondError(c, "self_register", err)
		return
	}
	ok(c, http.StatusCreated, user)
}

// RegisterUser handles POST /api/users/register
func (h *Handlers) RegisterUser(c *gin.Context) {
	var req registerRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.users.Register(c.Request.Context(), req.input())
	if err != nil {
		h.respondError(c, "register_user", err)
		return
	}
	h.logger.Info("User registered by admin", "user_id", user.ID, "actor_id", actorID(c))
	ok(c, http.StatusCreated, user)
}

// ListUsers handles GET /api/users
func (h *Handlers) ListUsers(c *gin.Context) {
	users, err := h.users.ListUsers(c.Request.Context())
	if err != nil {
		h.respondError(c, "list_users", err)
		return
	}
	if users == nil {
		users = []*entity.User{}
	}
	ok(c, http.StatusOK, users)
}

// GetUser handles GET /api/users/:id
func (h *Handlers) GetUser(c *gin.Context) {
	user, err := h.users.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, "get_user", err)
		return
	}
	ok(c, http.StatusOK, user)
}

type registerCollectorRequest struct {
	Name             string  `json:"name"`
	Phone            string  `json:"phone"`
	TelegramUsername *string `json:"telegramUsername"`
}

// ListCollectors handles GET /api/data-collector
func (h *Handlers) ListCollectors(c *gin.Context) {
	collectors, err := h.collectors.ListCollectors(c.Request.Context())
	if err != nil {
		h.respondError(c, "list_collectors", err)
		return
	}
	ok(c, http.StatusOK, collectors)
}

// RegisterCollector handles POST /api/data-collector/register
func (h *Handlers) RegisterCollector(c *gin.Context) {
	var req registerCollectorRequest
	if !bindJSON(c, &req) {
		return
	}

	collector, err := h.collectors.RegisterCollector(c.Request.Context(), actorID(c), service.RegisterCollectorInput{
		Name:             req.Name,
		Phone:            req.Phone,
		TelegramUsername: req.TelegramUsername,
	})
	if err != nil {
		h.respondError(c, "register_collector", err)
		return
	}
	ok(c, http.StatusCreated, collector)
}

// GetCollector handles GET /api/data-collector/:id. An unknown id renders
// the placeholder collector.
func (h *Handlers) GetCollector(c *gin.Context) {
	id := c.Param("id")
	lookup, err := h.collectors.GetCollector(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, "get_collector", err)
		return
	}
	ok(c, http.StatusOK, lookup.OrElse(entity.PlaceholderCollector(id)))
}

type createTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	MediaType   string `json:"mediaType"`
}

type updateTaskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	MediaType   *string `json:"mediaType"`
	IsActive    *bool   `json:"isActive"`
}

type assignRequest struct {
	CollectorIDs []string `json:"collectorIds"`
}

// ListTasks handles GET /api/tasks
func (h *Handlers) ListTasks(c *gin.Context) {
	tasks, err := h.tasks.ListTasks(c.Request.Context())
	if err != nil {
		h.respondError(c, "list_tasks", err)
		return
	}
	if tasks == nil {
		tasks = []*entity.Task{}
	}
	ok(c, http.StatusOK, tasks)
}

// CreateTask handles POST /api/tasks
func (h *Handlers) CreateTask(c *gin.Context) {
	var req createTaskRequest
	if !bindJSON(c, &req) {
		return
	}

	task, err := h.tasks.CreateTask(c.Request.Context(), actorID(c), service.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		MediaType:   entity.MediaType(req.MediaType),
	})
	if err != nil {
		h.respondError(c, "create_task", err)
		return
	}
	ok(c, http.StatusCreated, task)
}

// GetTask handles GET /api/tasks/:id. An unknown id renders the
// placeholder task.
func (h *Handlers) GetTask(c *gin.Context) {
	id := c.Param("id")
	lookup, err := h.tasks.GetTask(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, "get_task", err)
		return
	}
	ok(c, http.StatusOK, lookup.OrElse(entity.PlaceholderTask(id)))
}

// UpdateTask handles PATCH /api/tasks/:id
func (h *Handlers) UpdateTask(c *gin.Context) {
	var req updateTaskRequest
	if !bindJSON(c, &req) {
		return
	}

	update := entity.TaskUpdate{
		Title:       req.Title,
		Description: req.Description,
		IsActive:    req.IsActive,
	}
	if req.MediaType != nil {
		mt := entity.MediaType(*req.MediaType)
		update.MediaType = &mt
	}

	task, err := h.tasks.UpdateTask(c.Request.Context(), actorID(c), c.Param("id"), update)
	if err != nil {
		h.respondError(c, "update_task", err)
		return
	}
	ok(c, http.StatusOK, task)
}

// AssignCollectors handles POST /api/tasks/assign/:id
func (h *Handlers) AssignCollectors(c *gin.Context) {
	var req assignRequest
	if !bindJSON(c, &req) {
		return
	}

	assignment, err := h.tasks.Assign(c.Request.Context(), actorID(c), c.Param("id"), req.CollectorIDs)
	if err != nil {
		h.respondError(c, "assign_collectors", err)
		return
	}
	ok(c, http.StatusOK, assignment)
}

type reviewRequest struct {
	Status       string  `json:"status"`
	ApproverNote *string `json:"approverNote"`
}

func submissionFilter(c *gin.Context) entity.SubmissionFilter {
	return entity.SubmissionFilter{
		Status:      entity.SubmissionStatus(c.Query("status")),
		TaskID:      c.Query("taskId"),
		CollectorID: c.Query("collectorId"),
	}
}

// ListSubmissions handles GET /api/submissions
func (h *Handlers) ListSubmissions(c *gin.Context) {
	subs, err := h.submissions.ListSubmissions(c.Request.Context(), submissionFilter(c))
	if err != nil {
		h.respondError(c, "list_submissions", err)
		return
	}
	if subs == nil {
		subs = []*entity.ResolvedSubmission{}
	}
	ok(c, http.StatusOK, subs)
}

// GetSubmission handles GET /api/submissions/:id
func (h *Handlers) GetSubmission(c *gin.Context) {
	sub, err := h.submissions.GetSubmission(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, "get_submission", err)
		return
	}
	ok(c, http.StatusOK, sub)
}

// ReviewSubmission handles PATCH /api/submissions/:id
func (h *Handlers) ReviewSubmission(c *gin.Context) {
	var req reviewRequest
	if !bindJSON(c, &req) {
		return
	}

	sub, err := h.submissions.Review(c.Request.Context(), actorID(c), c.Param("id"), entity.ReviewDecision{
		Status:       entity.SubmissionStatus(req.Status),
		ApproverNote: req.ApproverNote,
	})
	if err != nil {
		h.respondError(c, "review_submission", err)
		return
	}
	ok(c, http.StatusOK, sub)
}

// ReviewHistory handles GET /api/submissions/:id/history
func (h *Handlers) ReviewHistory(c *gin.Context) {
	records, err := h.submissions.ReviewHistory(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, "review_history", err)
		return
	}
	if records == nil {
		records = []*entity.ReviewRecord{}
	}
	ok(c, http.StatusOK, records)
}

// ExportSubmissions handles GET /api/submissions/export. The report is
// buffered so a failure can still be reported as JSON.
func (h *Handlers) ExportSubmissions(c *gin.Context) {
	var buf bytes.Buffer
	rows, err := h.submissions.ExportSubmissions(c.Request.Context(), submissionFilter(c), &buf)
	if err != nil {
		h.respondError(c, "export_submissions", err)
		return
	}

	contentType, ext := h.submissions.ExportFormat()
	filename := fmt.Sprintf("submissions-%s%s", h.now().UTC().Format("20060102-150405"), ext)

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Header("X-Row-Count", strconv.Itoa(rows))
	c.Data(http.StatusOK, contentType, buf.Bytes())
}
