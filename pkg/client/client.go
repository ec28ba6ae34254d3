// Package client is a Go client for the media collection REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/garyjia/media-collect/internal/domain/entity"
)

const (
	defaultTimeout = 30 * time.Second
	defaultRetries = 1
	retryBackoff   = 200 * time.Millisecond
)

// ErrNoCollectors is returned by AssignCollectors before any request is sent
var ErrNoCollectors = errors.New("at least one collector id is required")

// APIError is a non-2xx response from the server
type APIError struct {
	Status  int
	Message string
	Fields  map[string]string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api returned status %d", e.Status)
	}
	return fmt.Sprintf("api returned status %d: %s", e.Status, e.Message)
}

// IsNotFound reports whether err is a 404 from the server
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// envelope is the server's response wrapper
type envelope struct {
	Success bool              `json:"success"`
	Data    json.RawMessage   `json:"data"`
	Error   string            `json:"error"`
	Fields  map[string]string `json:"fields"`
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithRetries sets how many times a GET is retried after a network error or
// a 5xx response. Mutations are never retried.
func WithRetries(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.retries = n
		}
	}
}

// Client calls the REST API on behalf of one session
type Client struct {
	baseURL    string
	session    Session
	httpClient *http.Client
	retries    int
}

// New creates a client for baseURL, e.g. http://localhost:8080
func New(baseURL string, session Session, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		session: session,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		retries: defaultRetries,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Session returns the session the client authenticates with
func (c *Client) Session() Session {
	return c.session
}

// WithSession returns a copy of the client bound to s
func (c *Client) WithSession(s Session) *Client {
	cp := *c
	cp.session = s
	return &cp
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body interface{}) (*http.Response, error) {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	attempts := 1
	if method == http.MethodGet {
		attempts += c.retries
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(retryBackoff):
			}
		}

		resp, err := c.send(ctx, method, target, payload)
		if err != nil {
			lastErr = err
			continue
		}
		if resp.StatusCode >= http.StatusInternalServerError && attempt < attempts-1 {
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			continue
		}
		return resp, nil
	}
	return nil, lastErr
}

func (c *Client) send(ctx context.Context, method, target string, payload []byte) (*http.Response, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.session.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.session.AccessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	return resp, nil
}

// call sends a request and returns the 2xx response body as sent
func (c *Client) call(ctx context.Context, method, path string, query url.Values, body interface{}) ([]byte, error) {
	resp, err := c.do(ctx, method, path, query, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var env envelope
		if json.Unmarshal(raw, &env) == nil {
			apiErr.Message = env.Error
			apiErr.Fields = env.Fields
		} else {
			apiErr.Message = strings.TrimSpace(string(raw))
		}
		return nil, apiErr
	}
	return raw, nil
}

// unwrap returns the data field of an envelope body. Bodies that are not an
// envelope (a bare array, or an object without "success") come back as-is.
func unwrap(raw []byte) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return trimmed, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if _, ok := fields["success"]; !ok {
		return trimmed, nil
	}
	return fields["data"], nil
}

func callInto[T any](ctx context.Context, c *Client, method, path string, query url.Values, body interface{}) (T, error) {
	var out T
	raw, err := c.call(ctx, method, path, query, body)
	if err != nil {
		return out, err
	}
	data, err := unwrap(raw)
	if err != nil {
		return out, err
	}
	if len(data) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("failed to unmarshal %s %s: %w", method, path, err)
	}
	return out, nil
}

func callList[T any](ctx context.Context, c *Client, path string, query url.Values) ([]T, error) {
	raw, err := c.call(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return nil, err
	}
	data, err := unwrap(raw)
	if err != nil {
		return nil, err
	}
	list, err := NormalizeList[T](data)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize %s: %w", path, err)
	}
	return list.Items, nil
}

func idPath(prefix, id string) string {
	return prefix + "/" + url.PathEscape(id)
}

// Health

// HealthReport is the body of GET /health
type HealthReport struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
	Error     string `json:"error,omitempty"`
}

// Health reports whether the server and its dependencies are up
func (c *Client) Health(ctx context.Context) (*HealthReport, error) {
	return callInto[*HealthReport](ctx, c, http.MethodGet, "/health", nil, nil)
}

// Auth

// LoginResult is the body of a successful login
type LoginResult struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      *entity.User `json:"user"`
}

// Session builds the session a login establishes
func (r *LoginResult) Session() Session {
	if r == nil || r.User == nil {
		return Session{}
	}
	return Session{AccessToken: r.Token, UserID: r.User.ID, Role: r.User.Role}
}

// Login exchanges credentials for a token. The returned client carries the new session.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, *Client, error) {
	result, err := callInto[*LoginResult](ctx, c, http.MethodPost, "/api/auth/login", nil, map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, nil, err
	}
	return result, c.WithSession(result.Session()), nil
}

// RegisterRequest creates an account
type RegisterRequest struct {
	Name             string      `json:"name"`
	Email            string      `json:"email"`
	Password         string      `json:"password"`
	ConfirmPassword  *string     `json:"confirmPassword,omitempty"`
	Role             entity.Role `json:"role,omitempty"`
	Phone            *string     `json:"phone,omitempty"`
	TelegramUsername *string     `json:"telegramUsername,omitempty"`
}

// SelfRegister creates a COLLECTOR account without authentication
func (c *Client) SelfRegister(ctx context.Context, req RegisterRequest) (*entity.User, error) {
	return callInto[*entity.User](ctx, c, http.MethodPost, "/api/auth/register", nil, req)
}

// Users

// RegisterUser creates an account with any role. Requires ADMIN.
func (c *Client) RegisterUser(ctx context.Context, req RegisterRequest) (*entity.User, error) {
	return callInto[*entity.User](ctx, c, http.MethodPost, "/api/users/register", nil, req)
}

// ListUsers lists every account
func (c *Client) ListUsers(ctx context.Context) ([]*entity.User, error) {
	return callList[*entity.User](ctx, c, "/api/users", nil)
}

// GetUser fetches one account
func (c *Client) GetUser(ctx context.Context, id string) (*entity.User, error) {
	return callInto[*entity.User](ctx, c, http.MethodGet, idPath("/api/users", id), nil, nil)
}

// Collectors

// RegisterCollectorRequest creates a collector profile
type RegisterCollectorRequest struct {
	Name             string  `json:"name"`
	Phone            string  `json:"phone"`
	TelegramUsername *string `json:"telegramUsername,omitempty"`
}

// ListCollectors lists collectors with their derived stats
func (c *Client) ListCollectors(ctx context.Context) ([]*entity.Collector, error) {
	return callList[*entity.Collector](ctx, c, "/api/data-collector", nil)
}

// RegisterCollector creates a collector profile
func (c *Client) RegisterCollector(ctx context.Context, req RegisterCollectorRequest) (*entity.Collector, error) {
	return callInto[*entity.Collector](ctx, c, http.MethodPost, "/api/data-collector/register", nil, req)
}

// GetCollector fetches a collector. A dangling id yields the server's placeholder.
func (c *Client) GetCollector(ctx context.Context, id string) (*entity.CollectorDetail, error) {
	return callInto[*entity.CollectorDetail](ctx, c, http.MethodGet, idPath("/api/data-collector", id), nil, nil)
}

// GetCollectorOrPlaceholder resolves a collector and reports whether it exists
func (c *Client) GetCollectorOrPlaceholder(ctx context.Context, id string) (entity.Lookup[*entity.CollectorDetail], error) {
	detail, err := c.GetCollector(ctx, id)
	if IsNotFound(err) {
		return entity.NotFound[*entity.CollectorDetail](), nil
	}
	if err != nil {
		return entity.NotFound[*entity.CollectorDetail](), err
	}
	if isPlaceholderCollector(detail) {
		return entity.NotFound[*entity.CollectorDetail](), nil
	}
	return entity.Found(detail), nil
}

func isPlaceholderCollector(d *entity.CollectorDetail) bool {
	return d == nil || (d.Name == entity.UnknownCollectorName && d.Phone == "")
}

// Tasks

// CreateTaskRequest creates a task
type CreateTaskRequest struct {
	Title       string           `json:"title"`
	Description string           `json:"description"`
	MediaType   entity.MediaType `json:"mediaType"`
}

// UpdateTaskRequest is a partial task edit; nil fields are left untouched
type UpdateTaskRequest struct {
	Title       *string           `json:"title,omitempty"`
	Description *string           `json:"description,omitempty"`
	MediaType   *entity.MediaType `json:"mediaType,omitempty"`
	IsActive    *bool             `json:"isActive,omitempty"`
}

// ListTasks lists tasks with their relation counts
func (c *Client) ListTasks(ctx context.Context) ([]*entity.Task, error) {
	return callList[*entity.Task](ctx, c, "/api/tasks", nil)
}

// CreateTask creates a task owned by the session's user
func (c *Client) CreateTask(ctx context.Context, req CreateTaskRequest) (*entity.Task, error) {
	return callInto[*entity.Task](ctx, c, http.MethodPost, "/api/tasks", nil, req)
}

// GetTask fetches a task. A dangling id yields the server's placeholder.
func (c *Client) GetTask(ctx context.Context, id string) (*entity.TaskDetail, error) {
	return callInto[*entity.TaskDetail](ctx, c, http.MethodGet, idPath("/api/tasks", id), nil, nil)
}

// GetTaskOrPlaceholder resolves a task and reports whether it exists
func (c *Client) GetTaskOrPlaceholder(ctx context.Context, id string) (entity.Lookup[*entity.TaskDetail], error) {
	detail, err := c.GetTask(ctx, id)
	if IsNotFound(err) {
		return entity.NotFound[*entity.TaskDetail](), nil
	}
	if err != nil {
		return entity.NotFound[*entity.TaskDetail](), err
	}
	if isPlaceholderTask(detail) {
		return entity.NotFound[*entity.TaskDetail](), nil
	}
	return entity.Found(detail), nil
}

func isPlaceholderTask(d *entity.TaskDetail) bool {
	return d == nil || (d.Title == entity.UnknownTaskTitle && d.CreatedByID == entity.SystemUserID)
}

// UpdateTask applies a partial edit
func (c *Client) UpdateTask(ctx context.Context, id string, req UpdateTaskRequest) (*entity.Task, error) {
	return callInto[*entity.Task](ctx, c, http.MethodPatch, idPath("/api/tasks", id), nil, req)
}

// AssignCollectors links collectors to a task. Existing links are kept.
// An empty id list is rejected without contacting the server.
func (c *Client) AssignCollectors(ctx context.Context, taskID string, collectorIDs []string) (*entity.Assignment, error) {
	ids := make([]string, 0, len(collectorIDs))
	for _, id := range collectorIDs {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, ErrNoCollectors
	}

	return callInto[*entity.Assignment](ctx, c, http.MethodPost, idPath("/api/tasks/assign", taskID), nil, map[string][]string{
		"collectorIds": ids,
	})
}

// Submissions

// SubmissionQuery filters a submission listing; empty fields match everything
type SubmissionQuery struct {
	Status      entity.SubmissionStatus
	TaskID      string
	CollectorID string
}

func (q SubmissionQuery) values() url.Values {
	v := url.Values{}
	if q.Status != "" {
		v.Set("status", string(q.Status))
	}
	if q.TaskID != "" {
		v.Set("taskId", q.TaskID)
	}
	if q.CollectorID != "" {
		v.Set("collectorId", q.CollectorID)
	}
	return v
}

// ListSubmissions lists submissions newest first
func (c *Client) ListSubmissions(ctx context.Context, q SubmissionQuery) ([]*entity.ResolvedSubmission, error) {
	return callList[*entity.ResolvedSubmission](ctx, c, "/api/submissions", q.values())
}

// GetSubmission fetches one submission
func (c *Client) GetSubmission(ctx context.Context, id string) (*entity.ResolvedSubmission, error) {
	return callInto[*entity.ResolvedSubmission](ctx, c, http.MethodGet, idPath("/api/submissions", id), nil, nil)
}

// ReviewSubmission records a decision on a submission
func (c *Client) ReviewSubmission(ctx context.Context, id string, decision entity.ReviewDecision) (*entity.ResolvedSubmission, error) {
	return callInto[*entity.ResolvedSubmission](ctx, c, http.MethodPatch, idPath("/api/submissions", id), nil, decision)
}

// ReviewHistory lists the review trail of a submission, oldest first
func (c *Client) ReviewHistory(ctx context.Context, id string) ([]*entity.ReviewRecord, error) {
	return callList[*entity.ReviewRecord](ctx, c, idPath("/api/submissions", id)+"/history", nil)
}

// Export is a downloaded spreadsheet
type Export struct {
	Filename    string
	ContentType string
	Rows        int
	Body        []byte
}

// ExportSubmissions downloads the filtered submissions as a spreadsheet
func (c *Client) ExportSubmissions(ctx context.Context, q SubmissionQuery) (*Export, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/submissions/export", q.values(), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read export: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{Status: resp.StatusCode}
		var env envelope
		if json.Unmarshal(body, &env) == nil {
			apiErr.Message = env.Error
		}
		return nil, apiErr
	}

	export := &Export{
		Filename:    filenameOf(resp.Header.Get("Content-Disposition")),
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}
	if rows := resp.Header.Get("X-Row-Count"); rows != "" {
		export.Rows, _ = strconv.Atoi(rows)
	}
	return export, nil
}

func filenameOf(disposition string) string {
	const marker = "filename="
	i := strings.Index(disposition, marker)
	if i < 0 {
		return ""
	}
	return strings.Trim(disposition[i+len(marker):], `"`)
}
