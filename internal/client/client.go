// Package client is a typed HTTP client for the maestro API. Workers, hooks
// and the CLI use it to talk to a running server.
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
	"strings"
	"time"

	"github.com/runoshun/maestro/internal/domain"
	"github.com/runoshun/maestro/internal/httpapi"
)

// ErrUnavailable reports that the server could not be reached at all.
var ErrUnavailable = errors.New("server unavailable")

// APIError is a non-2xx answer from the server. It unwraps to the domain
// error category named by its code, so errors.Is(err, domain.ErrConflict)
// works across the wire.
type APIError struct {
	Message string
	Code    string
	Field   string
	Status  int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.Status, e.Message)
}

// Unwrap maps the error code back to its domain category.
func (e *APIError) Unwrap() error {
	switch e.Code {
	case httpapi.CodeValidation:
		return domain.ErrValidation
	case httpapi.CodeNotFound:
		return domain.ErrNotFound
	case httpapi.CodeInvalidTransition:
		return domain.ErrInvalidTransition
	case httpapi.CodeConflict:
		return domain.ErrConflict
	default:
		return nil
	}
}

// Client calls the maestro API at a base URL.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// New creates a Client for baseURL (e.g. http://127.0.0.1:3000).
func New(baseURL string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// NewWithHTTPClient creates a Client using a custom http.Client.
func NewWithHTTPClient(baseURL string, httpClient *http.Client) *Client {
	return &Client{httpClient: httpClient, baseURL: strings.TrimRight(baseURL, "/")}
}

// BaseURL returns the server URL the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %s %s: %v", ErrUnavailable, method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var body httpapi.ErrorResponse
	if err := json.Unmarshal(data, &body); err == nil && body.Error != "" {
		apiErr.Message, apiErr.Code, apiErr.Field = body.Error, body.Code, body.Field
	} else {
		apiErr.Message = strings.TrimSpace(string(data))
	}
	// A gateway in front of the server answering for it.
	if resp.StatusCode == http.StatusBadGateway || resp.StatusCode == http.StatusServiceUnavailable || resp.StatusCode == http.StatusGatewayTimeout {
		return fmt.Errorf("%w: %w", ErrUnavailable, apiErr)
	}
	return apiErr
}

func sessionPath(id string, parts ...string) string {
	return "/api/sessions/" + url.PathEscape(id) + strings.Join(parts, "")
}

// Health checks that the server answers.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}

// CreateProject creates a project.
func (c *Client) CreateProject(ctx context.Context, req httpapi.CreateProjectRequest) (*domain.Project, error) {
	var out domain.Project
	if err := c.do(ctx, http.MethodPost, "/api/projects", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListProjects returns every project.
func (c *Client) ListProjects(ctx context.Context) ([]*domain.Project, error) {
	var out httpapi.ProjectListResponse
	if err := c.do(ctx, http.MethodGet, "/api/projects", nil, &out); err != nil {
		return nil, err
	}
	return out.Projects, nil
}

// CreateTask creates a task.
func (c *Client) CreateTask(ctx context.Context, req httpapi.CreateTaskRequest) (*domain.Task, error) {
	var out domain.Task
	if err := c.do(ctx, http.MethodPost, "/api/tasks", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ImportTasks creates the tasks described in a markdown file.
func (c *Client) ImportTasks(ctx context.Context, projectID string, req httpapi.ImportTasksRequest) (*httpapi.ImportTasksResponse, error) {
	var out httpapi.ImportTasksResponse
	if err := c.do(ctx, http.MethodPost, "/api/projects/"+url.PathEscape(projectID)+"/import", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetTask returns one task.
func (c *Client) GetTask(ctx context.Context, id string) (*domain.Task, error) {
	var out domain.Task
	if err := c.do(ctx, http.MethodGet, "/api/tasks/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListTasks returns the tasks of a project; an empty projectID lists all.
func (c *Client) ListTasks(ctx context.Context, projectID string) ([]*domain.Task, error) {
	q := url.Values{}
	if projectID != "" {
		q.Set("projectId", projectID)
	}
	var out httpapi.TaskListResponse
	if err := c.do(ctx, http.MethodGet, "/api/tasks?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return out.Tasks, nil
}

// UpdateTask applies a partial task update.
func (c *Client) UpdateTask(ctx context.Context, id string, req httpapi.UpdateTaskRequest) (*httpapi.UpdateTaskResponse, error) {
	var out httpapi.UpdateTaskResponse
	if err := c.do(ctx, http.MethodPatch, "/api/tasks/"+url.PathEscape(id), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SpawnSession creates a session and asks for its process to be launched.
func (c *Client) SpawnSession(ctx context.Context, req httpapi.SpawnSessionRequest) (*httpapi.SpawnSessionResponse, error) {
	var out httpapi.SpawnSessionResponse
	if err := c.do(ctx, http.MethodPost, "/api/sessions/spawn", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetSession returns one session.
func (c *Client) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	var out domain.Session
	if err := c.do(ctx, http.MethodGet, sessionPath(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListSessions returns sessions; with active set only those not yet ended.
func (c *Client) ListSessions(ctx context.Context, projectID string, active bool) ([]*domain.Session, error) {
	q := url.Values{}
	if projectID != "" {
		q.Set("projectId", projectID)
	}
	if active {
		q.Set("active", "true")
	}
	var out httpapi.SessionListResponse
	if err := c.do(ctx, http.MethodGet, "/api/sessions?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return out.Sessions, nil
}

// UpdateSession applies a partial session update.
func (c *Client) UpdateSession(ctx context.Context, id string, req httpapi.UpdateSessionRequest) (*httpapi.UpdateSessionResponse, error) {
	var out httpapi.UpdateSessionResponse
	if err := c.do(ctx, http.MethodPatch, sessionPath(id), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AppendTimeline records a progress entry on the session timeline.
func (c *Client) AppendTimeline(ctx context.Context, id string, req httpapi.TimelineRequest) (*domain.TimelineEvent, error) {
	var out httpapi.TimelineResponse
	if err := c.do(ctx, http.MethodPost, sessionPath(id, "/timeline"), req, &out); err != nil {
		return nil, err
	}
	return &out.Event, nil
}

// Hook delivers a lifecycle signal for the session.
func (c *Client) Hook(ctx context.Context, id string, signal domain.HookSignal, exitCode int) (*httpapi.HookResponse, error) {
	var out httpapi.HookResponse
	path := sessionPath(id, "/hooks/", url.PathEscape(string(signal)))
	if err := c.do(ctx, http.MethodPost, path, httpapi.HookRequest{ExitCode: exitCode}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Queue returns the full queue of a session.
func (c *Client) Queue(ctx context.Context, id string) (*httpapi.QueueResponse, error) {
	var out httpapi.QueueResponse
	if err := c.do(ctx, http.MethodGet, sessionPath(id, "/queue"), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Peek returns the next queued item without claiming it.
func (c *Client) Peek(ctx context.Context, id string) (*httpapi.PeekResponse, error) {
	var out httpapi.PeekResponse
	if err := c.do(ctx, http.MethodGet, sessionPath(id, "/queue/peek"), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Claim takes the next queued item. An empty queue is reported through
// ClaimResponse.Empty, not as an error.
func (c *Client) Claim(ctx context.Context, id string) (*httpapi.ClaimResponse, error) {
	var out httpapi.ClaimResponse
	if err := c.do(ctx, http.MethodPost, sessionPath(id, "/queue/claim"), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Finish ends the processing item with outcome completed, failed or skipped.
func (c *Client) Finish(ctx context.Context, id string, outcome domain.QueueItemStatus, reason string) (*httpapi.FinishResponse, error) {
	var action string
	switch outcome {
	case domain.QueueItemCompleted:
		action = "complete"
	case domain.QueueItemFailed:
		action = "fail"
	case domain.QueueItemSkipped:
		action = "skip"
	default:
		return nil, domain.NewValidationError("outcome", fmt.Sprintf("cannot finish an item as %q", outcome))
	}
	var out httpapi.FinishResponse
	if err := c.do(ctx, http.MethodPost, sessionPath(id, "/queue/", action), httpapi.FinishRequest{Reason: reason}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Push appends a task to the session's queue.
func (c *Client) Push(ctx context.Context, id, taskID string) (*httpapi.PushResponse, error) {
	var out httpapi.PushResponse
	if err := c.do(ctx, http.MethodPost, sessionPath(id, "/queue/push"), httpapi.PushRequest{TaskID: taskID}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
