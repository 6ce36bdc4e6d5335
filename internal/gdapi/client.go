// Package gdapi is the HTTP client for the Goodday REST API (v2).
package gdapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// DefaultBaseURL is the public Goodday API endpoint.
const DefaultBaseURL = "https://api.goodday.work/2.0"

// Client abstracts HTTP communication with the Goodday API.
// Implementations must be safe for concurrent use.
type Client interface {
	// ListProjects returns all projects, folders and sprints visible to the token.
	ListProjects(ctx context.Context, opts ProjectListOptions) ([]Project, error)

	// GetProject returns a single project.
	GetProject(ctx context.Context, projectID string) (*Project, error)

	// CreateProject creates a new project and returns it.
	CreateProject(ctx context.Context, req *CreateProjectRequest) (*Project, error)

	// ListProjectTasks returns the tasks of a project.
	ListProjectTasks(ctx context.Context, projectID string, opts TaskListOptions) ([]Task, error)

	// GetTask returns the full record of a task.
	GetTask(ctx context.Context, taskID string) (*TaskDetail, error)

	// CreateTask creates a new task and returns it.
	CreateTask(ctx context.Context, req *CreateTaskRequest) (*Task, error)

	// ListTaskMessages returns the message thread of a task.
	ListTaskMessages(ctx context.Context, taskID string) ([]Message, error)

	// ListUsers returns all users of the organization.
	ListUsers(ctx context.Context) ([]User, error)

	// GetUser returns a single user.
	GetUser(ctx context.Context, userID string) (*User, error)

	// ListUserTasks returns the tasks assigned to a user.
	ListUserTasks(ctx context.Context, userID string, opts TaskListOptions) ([]Task, error)

	// ListProjectDocuments returns the documents attached to a project.
	ListProjectDocuments(ctx context.Context, projectID string) ([]Document, error)

	// GetDocument returns a document including its content.
	GetDocument(ctx context.Context, documentID string) (*DocumentContent, error)
}

// RequestObserver is notified after every API round trip.
// status is 0 when the request never produced a response.
type RequestObserver func(ctx context.Context, op string, status int, elapsed time.Duration, err error)

// HTTPClient implements Client using net/http.
type HTTPClient struct {
	baseURL    string
	token      string
	userAgent  string
	httpClient *http.Client
	logger     *zap.Logger
	observe    RequestObserver
}

// NewHTTPClient creates a Goodday API client.
// An empty baseURL selects DefaultBaseURL.
func NewHTTPClient(baseURL, token, userAgent string) *HTTPClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if userAgent == "" {
		userAgent = "goodday-mcp/dev"
	}
	return &HTTPClient{
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		token:     token,
		userAgent: userAgent,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: zap.NewNop(),
	}
}

// WithHTTPClient sets a custom http.Client (for testing or custom timeouts).
func (c *HTTPClient) WithHTTPClient(client *http.Client) *HTTPClient {
	c.httpClient = client
	return c
}

// WithLogger sets the logger used for request tracing.
func (c *HTTPClient) WithLogger(logger *zap.Logger) *HTTPClient {
	if logger != nil {
		c.logger = logger
	}
	return c
}

// WithObserver registers a callback invoked after every request.
func (c *HTTPClient) WithObserver(fn RequestObserver) *HTTPClient {
	c.observe = fn
	return c
}

func (c *HTTPClient) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("gd-api-token", c.token)
	req.Header.Set("Content-Type", "application/json")
}

func newHTTPError(op string, statusCode int, body []byte) *Error {
	msg := strings.TrimSpace(string(body))
	if len(msg) > 200 {
		msg = msg[:200] + "..."
	}
	return &Error{
		Operation:  op,
		StatusCode: statusCode,
		Err:        fmt.Errorf("HTTP error %d: %s", statusCode, msg),
	}
}

// do performs one API round trip and decodes the JSON response into out.
// A 2xx response whose body is an object carrying an "error" key is reported
// as an *Error, since Goodday signals some failures that way.
func (c *HTTPClient) do(ctx context.Context, op, method, path string, query url.Values, body, out any) (err error) {
	start := time.Now()
	status := 0
	defer func() {
		if c.observe != nil {
			c.observe(ctx, op, status, time.Since(start), err)
		}
	}()

	reqURL := c.baseURL + "/" + strings.TrimPrefix(path, "/")
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var reqBody io.Reader
	var payload []byte
	if body != nil {
		payload, err = json.Marshal(body)
		if err != nil {
			return &Error{Operation: op, Err: err}
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		return &Error{Operation: op, Err: err}
	}
	c.setHeaders(req)

	c.logger.Debug("goodday request",
		zap.String("op", op),
		zap.String("method", method),
		zap.String("url", reqURL),
		zap.Int("body_bytes", len(payload)),
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &Error{Operation: op, Err: fmt.Errorf("request error: %w", err)}
	}
	defer func() { _ = resp.Body.Close() }()
	status = resp.StatusCode

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Operation: op, StatusCode: status, Err: err}
	}

	c.logger.Debug("goodday response",
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("body", truncateForLog(respBody, 2000)),
	)

	if status < 200 || status > 299 {
		return newHTTPError(op, status, respBody)
	}

	if parsed := gjson.ParseBytes(respBody); parsed.IsObject() {
		if apiErr := parsed.Get("error"); apiErr.Exists() && apiErr.String() != "" {
			return &Error{Operation: op, StatusCode: status, Err: fmt.Errorf("%s", apiErr.String())}
		}
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return &Error{Operation: op, StatusCode: status, Err: fmt.Errorf("unexpected response format: %w", err)}
	}
	return nil
}

func (c *HTTPClient) ListProjects(ctx context.Context, opts ProjectListOptions) ([]Project, error) {
	q := url.Values{}
	if opts.Archived {
		q.Set("archived", "true")
	}
	if opts.RootOnly {
		q.Set("rootOnly", "true")
	}
	var projects []Project
	if err := c.do(ctx, "list_projects", http.MethodGet, "projects", q, nil, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

func (c *HTTPClient) GetProject(ctx context.Context, projectID string) (*Project, error) {
	var project Project
	if err := c.do(ctx, "get_project", http.MethodGet, "project/"+url.PathEscape(projectID), nil, nil, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

func (c *HTTPClient) CreateProject(ctx context.Context, req *CreateProjectRequest) (*Project, error) {
	var project Project
	if err := c.do(ctx, "create_project", http.MethodPost, "projects/new-project", nil, req, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

func (c *HTTPClient) ListProjectTasks(ctx context.Context, projectID string, opts TaskListOptions) ([]Task, error) {
	q := url.Values{}
	if opts.Closed {
		q.Set("closed", "true")
	}
	if opts.Subfolders {
		q.Set("subfolders", "true")
	}
	var tasks []Task
	path := "project/" + url.PathEscape(projectID) + "/tasks"
	if err := c.do(ctx, "list_project_tasks", http.MethodGet, path, q, nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (c *HTTPClient) GetTask(ctx context.Context, taskID string) (*TaskDetail, error) {
	var task TaskDetail
	if err := c.do(ctx, "get_task", http.MethodGet, "task/"+url.PathEscape(taskID), nil, nil, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (c *HTTPClient) CreateTask(ctx context.Context, req *CreateTaskRequest) (*Task, error) {
	var task Task
	if err := c.do(ctx, "create_task", http.MethodPost, "tasks", nil, req, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (c *HTTPClient) ListTaskMessages(ctx context.Context, taskID string) ([]Message, error) {
	var messages []Message
	path := "task/" + url.PathEscape(taskID) + "/messages"
	if err := c.do(ctx, "list_task_messages", http.MethodGet, path, nil, nil, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

func (c *HTTPClient) ListUsers(ctx context.Context) ([]User, error) {
	var users []User
	if err := c.do(ctx, "list_users", http.MethodGet, "users", nil, nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (c *HTTPClient) GetUser(ctx context.Context, userID string) (*User, error) {
	var user User
	if err := c.do(ctx, "get_user", http.MethodGet, "user/"+url.PathEscape(userID), nil, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *HTTPClient) ListUserTasks(ctx context.Context, userID string, opts TaskListOptions) ([]Task, error) {
	q := url.Values{}
	if opts.Closed {
		q.Set("closed", "true")
	}
	var tasks []Task
	path := "user/" + url.PathEscape(userID) + "/assigned-tasks"
	if err := c.do(ctx, "list_user_tasks", http.MethodGet, path, q, nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (c *HTTPClient) ListProjectDocuments(ctx context.Context, projectID string) ([]Document, error) {
	var docs []Document
	path := "project/" + url.PathEscape(projectID) + "/documents"
	if err := c.do(ctx, "list_project_documents", http.MethodGet, path, nil, nil, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func (c *HTTPClient) GetDocument(ctx context.Context, documentID string) (*DocumentContent, error) {
	var doc DocumentContent
	if err := c.do(ctx, "get_document", http.MethodGet, "document/"+url.PathEscape(documentID), nil, nil, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func truncateForLog(b []byte, maxLen int) string {
	if len(b) <= maxLen {
		return string(b)
	}
	return string(b[:maxLen]) + fmt.Sprintf("... [truncated, %d bytes total]", len(b))
}
