package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/media-collect/internal/application/port"
	"github.com/garyjia/media-collect/internal/application/service"
	"github.com/garyjia/media-collect/internal/domain/entity"
)

type mockUserService struct {
	LoginFunc        func(ctx context.Context, email, password string) (*service.LoginResult, error)
	RegisterFunc     func(ctx context.Context, in service.RegisterInput) (*entity.User, error)
	SelfRegisterFunc func(ctx context.Context, in service.RegisterInput) (*entity.User, error)
	ListUsersFunc    func(ctx context.Context) ([]*entity.User, error)
	GetUserFunc      func(ctx context.Context, id string) (*entity.User, error)
}

func (m *mockUserService) Login(ctx context.Context, email, password string) (*service.LoginResult, error) {
	return m.LoginFunc(ctx, email, password)
}

func (m *mockUserService) Register(ctx context.Context, in service.RegisterInput) (*entity.User, error) {
	return m.RegisterFunc(ctx, in)
}

func (m *mockUserService) SelfRegister(ctx context.Context, in service.RegisterInput) (*entity.User, error) {
	return m.SelfRegisterFunc(ctx, in)
}

func (m *mockUserService) ListUsers(ctx context.Context) ([]*entity.User, error) {
	return m.ListUsersFunc(ctx)
}

func (m *mockUserService) GetUser(ctx context.Context, id string) (*entity.User, error) {
	return m.GetUserFunc(ctx, id)
}

type mockTaskService struct {
	CreateTaskFunc func(ctx context.Context, actorID string, in service.CreateTaskInput) (*entity.Task, error)
	UpdateTaskFunc func(ctx context.Context, actorID, id string, update entity.TaskUpdate) (*entity.Task, error)
	ListTasksFunc  func(ctx context.Context) ([]*entity.Task, error)
	GetTaskFunc    func(ctx context.Context, id string) (entity.Lookup[*entity.TaskDetail], error)
	AssignFunc     func(ctx context.Context, actorID, taskID string, collectorIDs []string) (*entity.Assignment, error)
}

func (m *mockTaskService) CreateTask(ctx context.Context, actorID string, in service.CreateTaskInput) (*entity.Task, error) {
	return m.CreateTaskFunc(ctx, actorID, in)
}

func (m *mockTaskService) UpdateTask(ctx context.Context, actorID, id string, update entity.TaskUpdate) (*entity.Task, error) {
	return m.UpdateTaskFunc(ctx, actorID, id, update)
}

func (m *mockTaskService) ListTasks(ctx context.Context) ([]*entity.Task, error) {
	return m.ListTasksFunc(ctx)
}

func (m *mockTaskService) GetTask(ctx context.Context, id string) (entity.Lookup[*entity.TaskDetail], error) {
	return m.GetTaskFunc(ctx, id)
}

func (m *mockTaskService) Assign(ctx context.Context, actorID, taskID string, collectorIDs []string) (*entity.Assignment, error) {
	return m.AssignFunc(ctx, actorID, taskID, collectorIDs)
}

type mockCollectorService struct {
	RegisterCollectorFunc func(ctx context.Context, actorID string, in service.RegisterCollectorInput) (*entity.Collector, error)
	ListCollectorsFunc    func(ctx context.Context) ([]*entity.Collector, error)
	GetCollectorFunc      func(ctx context.Context, id string) (entity.Lookup[*entity.CollectorDetail], error)
}

func (m *mockCollectorService) RegisterCollector(ctx context.Context, actorID string, in service.RegisterCollectorInput) (*entity.Collector, error) {
	return m.RegisterCollectorFunc(ctx, actorID, in)
}

func (m *mockCollectorService) ListCollectors(ctx context.Context) ([]*entity.Collector, error) {
	return m.ListCollectorsFunc(ctx)
}

func (m *mockCollectorService) GetCollector(ctx context.Context, id string) (entity.Lookup[*entity.CollectorDetail], error) {
	return m.GetCollectorFunc(ctx, id)
}

type mockSubmissionService struct {
	ListSubmissionsFunc   func(ctx context.Context, filter entity.SubmissionFilter) ([]*entity.ResolvedSubmission, error)
	GetSubmissionFunc     func(ctx context.Context, id string) (*entity.ResolvedSubmission, error)
	ReviewFunc            func(ctx context.Context, reviewerID, id string, decision entity.ReviewDecision) (*entity.ResolvedSubmission, error)
	ReviewHistoryFunc     func(ctx context.Context, id string) ([]*entity.ReviewRecord, error)
	IngestSubmissionFunc  func(ctx context.Context, in service.IngestInput) (*entity.Submission, error)
	ExportSubmissionsFunc func(ctx context.Context, filter entity.SubmissionFilter, w io.Writer) (int, error)
}

func (m *mockSubmissionService) ListSubmissions(ctx context.Context, filter entity.SubmissionFilter) ([]*entity.ResolvedSubmission, error) {
	return m.ListSubmissionsFunc(ctx, filter)
}

func (m *mockSubmissionService) GetSubmission(ctx context.Context, id string) (*entity.ResolvedSubmission, error) {
	return m.GetSubmissionFunc(ctx, id)
}

func (m *mockSubmissionService) Review(ctx context.Context, reviewerID, id string, decision entity.ReviewDecision) (*entity.ResolvedSubmission, error) {
	return m.ReviewFunc(ctx, reviewerID, id, decision)
}

func (m *mockSubmissionService) ReviewHistory(ctx context.Context, id string) ([]*entity.ReviewRecord, error) {
	return m.ReviewHistoryFunc(ctx, id)
}

func (m *mockSubmissionService) IngestSubmission(ctx context.Context, in service.IngestInput) (*entity.Submission, error) {
	return m.IngestSubmissionFunc(ctx, in)
}

func (m *mockSubmissionService) ExportSubmissions(ctx context.Context, filter entity.SubmissionFilter, w io.Writer) (int, error) {
	return m.ExportSubmissionsFunc(ctx, filter, w)
}

func (m *mockSubmissionService) ExportFormat() (string, string) {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", ".xlsx"
}

// stubTokens accepts "<role>:<userID>" as a bearer token
type stubTokens struct{}

func (stubTokens) Parse(token string) (*port.Claims, error) {
	role, userID, found := strings.Cut(token, ":")
	if !found || !entity.Role(role).IsValid() {
		return nil, errors.New("bad token")
	}
	return &port.Claims{UserID: userID, Role: entity.Role(role)}, nil
}

type stubHealth struct{ err error }

func (s stubHealth) Health(ctx context.Context) error { return s.err }

type stubMetrics struct{ hits int }

func (s *stubMetrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.hits++
		c.Next()
	}
}

func (s *stubMetrics) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("# metrics\n"))
	})
}

type nopLogger struct{}

func (nopLogger) Info(msg string, keysAndValues ...interface{})  {}
func (nopLogger) Warn(msg string, keysAndValues ...interface{})  {}
func (nopLogger) Error(msg string, keysAndValues ...interface{}) {}
