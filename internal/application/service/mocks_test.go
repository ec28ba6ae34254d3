package service

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/garyjia/media-collect/internal/application/port"
	"github.com/garyjia/media-collect/internal/domain/entity"
	"github.com/garyjia/media-collect/internal/domain/event"
)

// Mock repositories

type mockUserRepo struct {
	createFunc     func(ctx context.Context, user *entity.User) error
	getByIDFunc    func(ctx context.Context, id string) (*entity.User, error)
	getByEmailFunc func(ctx context.Context, email string) (*entity.User, error)
	listFunc       func(ctx context.Context) ([]*entity.User, error)
}

func (m *mockUserRepo) Create(ctx context.Context, user *entity.User) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, user)
	}
	return nil
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	if m.getByEmailFunc != nil {
		return m.getByEmailFunc(ctx, email)
	}
	return nil, nil
}

func (m *mockUserRepo) List(ctx context.Context) ([]*entity.User, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx)
	}
	return []*entity.User{}, nil
}

type mockTaskRepo struct {
	createFunc          func(ctx context.Context, task *entity.Task) error
	updateFunc          func(ctx context.Context, task *entity.Task) error
	getByIDFunc         func(ctx context.Context, id string) (*entity.Task, error)
	getByIDsFunc        func(ctx context.Context, ids []string) (map[string]*entity.Task, error)
	listFunc            func(ctx context.Context) ([]*entity.Task, error)
	listByCollectorFunc func(ctx context.Context, collectorID string) ([]*entity.Task, error)
	assignFunc          func(ctx context.Context, taskID string, collectorIDs []string) (int, error)
}

func (m *mockTaskRepo) Create(ctx context.Context, task *entity.Task) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, task)
	}
	return nil
}

func (m *mockTaskRepo) Update(ctx context.Context, task *entity.Task) error {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, task)
	}
	return nil
}

func (m *mockTaskRepo) GetByID(ctx context.Context, id string) (*entity.Task, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockTaskRepo) GetByIDs(ctx context.Context, ids []string) (map[string]*entity.Task, error) {
	if m.getByIDsFunc != nil {
		return m.getByIDsFunc(ctx, ids)
	}
	return map[string]*entity.Task{}, nil
}

func (m *mockTaskRepo) List(ctx context.Context) ([]*entity.Task, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx)
	}
	return []*entity.Task{}, nil
}

func (m *mockTaskRepo) ListByCollector(ctx context.Context, collectorID string) ([]*entity.Task, error) {
	if m.listByCollectorFunc != nil {
		return m.listByCollectorFunc(ctx, collectorID)
	}
	return []*entity.Task{}, nil
}

func (m *mockTaskRepo) Assign(ctx context.Context, taskID string, collectorIDs []string) (int, error) {
	if m.assignFunc != nil {
		return m.assignFunc(ctx, taskID, collectorIDs)
	}
	return len(collectorIDs), nil
}

type mockCollectorRepo struct {
	createFunc     func(ctx context.Context, collector *entity.Collector) error
	getByIDFunc    func(ctx context.Context, id string) (*entity.Collector, error)
	getByIDsFunc   func(ctx context.Context, ids []string) (map[string]*entity.Collector, error)
	listFunc       func(ctx context.Context) ([]*entity.Collector, error)
	listByTaskFunc func(ctx context.Context, taskID string) ([]*entity.Collector, error)
}

func (m *mockCollectorRepo) Create(ctx context.Context, collector *entity.Collector) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, collector)
	}
	return nil
}

func (m *mockCollectorRepo) GetByID(ctx context.Context, id string) (*entity.Collector, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockCollectorRepo) GetByIDs(ctx context.Context, ids []string) (map[string]*entity.Collector, error) {
	if m.getByIDsFunc != nil {
		return m.getByIDsFunc(ctx, ids)
	}
	return map[string]*entity.Collector{}, nil
}

func (m *mockCollectorRepo) List(ctx context.Context) ([]*entity.Collector, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx)
	}
	return []*entity.Collector{}, nil
}

func (m *mockCollectorRepo) ListByTask(ctx context.Context, taskID string) ([]*entity.Collector, error) {
	if m.listByTaskFunc != nil {
		return m.listByTaskFunc(ctx, taskID)
	}
	return []*entity.Collector{}, nil
}

type mockSubmissionRepo struct {
	createFunc       func(ctx context.Context, sub *entity.Submission) error
	getByIDFunc      func(ctx context.Context, id string) (*entity.Submission, error)
	listFunc         func(ctx context.Context, filter entity.SubmissionFilter) ([]*entity.Submission, error)
	updateReviewFunc func(ctx context.Context, id string, status entity.SubmissionStatus, note *string, reviewerID string, at time.Time) error
}

func (m *mockSubmissionRepo) Create(ctx context.Context, sub *entity.Submission) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, sub)
	}
	return nil
}

func (m *mockSubmissionRepo) GetByID(ctx context.Context, id string) (*entity.Submission, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockSubmissionRepo) List(ctx context.Context, filter entity.SubmissionFilter) ([]*entity.Submission, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, filter)
	}
	return []*entity.Submission{}, nil
}

func (m *mockSubmissionRepo) UpdateReview(ctx context.Context, id string, status entity.SubmissionStatus, note *string, reviewerID string, at time.Time) error {
	if m.updateReviewFunc != nil {
		return m.updateReviewFunc(ctx, id, status, note, reviewerID, at)
	}
	return nil
}

type mockReviewRepo struct {
	createFunc func(ctx context.Context, record *entity.ReviewRecord) error
	listFunc   func(ctx context.Context, submissionID string) ([]*entity.ReviewRecord, error)
}

func (m *mockReviewRepo) Create(ctx context.Context, record *entity.ReviewRecord) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, record)
	}
	record.ID = 1
	return nil
}

func (m *mockReviewRepo) ListBySubmission(ctx context.Context, submissionID string) ([]*entity.ReviewRecord, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, submissionID)
	}
	return []*entity.ReviewRecord{}, nil
}

type mockTxManager struct {
	withTransactionFunc func(ctx context.Context, fn func(ctx context.Context) error) error
}

func (m *mockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.withTransactionFunc != nil {
		return m.withTransactionFunc(ctx, fn)
	}
	return fn(ctx)
}

// Mock collaborators

type mockLogger struct {
	mu    sync.Mutex
	warns []string
}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{})  {}
func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {}
func (m *mockLogger) Warn(msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.warns = append(m.warns, msg)
}

func (m *mockLogger) Warned(msg string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, w := range m.warns {
		if w == msg {
			return true
		}
	}
	return false
}

type mockPublisher struct {
	mu     sync.Mutex
	events []*event.Event
	err    error
}

func (m *mockPublisher) Dispatch(ctx context.Context, evt *event.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, evt)
	return m.err
}

func (m *mockPublisher) Types() []event.Type {
	m.mu.Lock()
	defer m.mu.Unlock()
	types := make([]event.Type, len(m.events))
	for i, e := range m.events {
		types[i] = e.Type
	}
	return types
}

type mockHasher struct{}

func (mockHasher) Hash(password string) (string, error) { return "hashed:" + password, nil }
func (mockHasher) Compare(hash, password string) error {
	if hash != "hashed:"+password {
		return errors.New("mismatch")
	}
	return nil
}

type mockTokens struct {
	issueFunc func(user *entity.User) (string, time.Time, error)
}

func (m *mockTokens) Issue(user *entity.User) (string, time.Time, error) {
	if m.issueFunc != nil {
		return m.issueFunc(user)
	}
	return "token-" + user.ID, time.Now().Add(time.Hour), nil
}

func (m *mockTokens) Parse(token string) (*port.Claims, error) {
	return nil, errors.New("not implemented")
}

type mockExporter struct {
	rows []*entity.ResolvedSubmission
}

func (m *mockExporter) ContentType() string   { return "text/csv" }
func (m *mockExporter) FileExtension() string { return ".csv" }
func (m *mockExporter) Write(ctx context.Context, w io.Writer, rows []*entity.ResolvedSubmission) error {
	m.rows = rows
	_, err := io.WriteString(w, "report")
	return err
}

type mockNotifier struct {
	reviews     []port.ReviewNotice
	assignments []port.AssignmentNotice
	err         error
}

func (m *mockNotifier) NotifyReview(ctx context.Context, notice port.ReviewNotice) error {
	m.reviews = append(m.reviews, notice)
	return m.err
}

func (m *mockNotifier) NotifyAssignment(ctx context.Context, notice port.AssignmentNotice) error {
	m.assignments = append(m.assignments, notice)
	return m.err
}

func strPtr(s string) *string { return &s }
