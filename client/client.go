// Package client talks to the todo REST API.
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

	domain "github.com/example/todo-app/domain/todo"
)

// DefaultTimeout bounds every request when no http.Client is supplied.
const DefaultTimeout = 10 * time.Second

// ErrUnreachable wraps transport failures: the server could not be reached
// or answered with something that is not the JSON envelope.
var ErrUnreachable = errors.New("server unreachable")

// APIError is a non-success envelope returned by the server.
type APIError struct {
	Status  int
	Message string
	Detail  string
}

func (e *APIError) Error() string {
	if e.Detail != "" && e.Detail != e.Message {
		return fmt.Sprintf("%d: %s: %s", e.Status, e.Message, e.Detail)
	}
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

// NotFound reports whether the server answered 404.
func (e *APIError) NotFound() bool { return e.Status == http.StatusNotFound }

// Health is the body of GET /health.
type Health struct {
	Success     bool    `json:"success"`
	Status      string  `json:"status"`
	Environment string  `json:"environment"`
	Uptime      float64 `json:"uptime"`
	Database    struct {
		Connected  bool       `json:"connected"`
		ServerTime *time.Time `json:"serverTime,omitempty"`
		Error      string     `json:"error,omitempty"`
	} `json:"database"`
}

// ListOptions are the optional filters of List. Nil fields are omitted.
type ListOptions struct {
	Completed *bool
	Limit     *int
	Offset    *int
}

func (o ListOptions) query() string {
	v := url.Values{}
	if o.Completed != nil {
		v.Set("completed", strconv.FormatBool(*o.Completed))
	}
	if o.Limit != nil {
		v.Set("limit", strconv.Itoa(*o.Limit))
	}
	if o.Offset != nil {
		v.Set("offset", strconv.Itoa(*o.Offset))
	}
	if len(v) == 0 {
		return ""
	}
	return "?" + v.Encode()
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Count   *int            `json:"count"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request timeout of the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// Client issues one HTTP call per action. It holds no state besides the
// base URL and is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for the API rooted at baseURL, e.g. http://localhost:3000.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API root.
func (c *Client) BaseURL() string { return c.baseURL }

// Health probes GET /health. A 503 is returned as the decoded body together
// with an *APIError.
func (c *Client) Health(ctx context.Context) (Health, error) {
	var h Health
	resp, err := c.send(ctx, http.MethodGet, "/health", nil)
	if err != nil {
		return h, err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(&h); err != nil {
		return h, fmt.Errorf("%w: decode health: %v", ErrUnreachable, err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := h.Database.Error
		if msg == "" {
			msg = h.Status
		}
		return h, &APIError{Status: resp.StatusCode, Message: msg}
	}
	return h, nil
}

// List fetches todos, newest first.
func (c *Client) List(ctx context.Context, opts ListOptions) ([]domain.Todo, error) {
	var todos []domain.Todo
	if err := c.do(ctx, http.MethodGet, "/api/todos"+opts.query(), nil, &todos); err != nil {
		return nil, err
	}
	if todos == nil {
		todos = []domain.Todo{}
	}
	return todos, nil
}

// Get fetches one todo.
func (c *Client) Get(ctx context.Context, id domain.ID) (domain.Todo, error) {
	var t domain.Todo
	err := c.do(ctx, http.MethodGet, "/api/todos/"+id.String(), nil, &t)
	return t, err
}

// Create adds a todo.
func (c *Client) Create(ctx context.Context, in domain.CreateInput) (domain.Todo, error) {
	var t domain.Todo
	err := c.do(ctx, http.MethodPost, "/api/todos", in, &t)
	return t, err
}

// Update sends a partial update; nil fields are left unchanged by the server.
func (c *Client) Update(ctx context.Context, id domain.ID, patch domain.Patch) (domain.Todo, error) {
	var t domain.Todo
	err := c.do(ctx, http.MethodPut, "/api/todos/"+id.String(), patch, &t)
	return t, err
}

// Toggle flips the completed flag of t as the caller last saw it.
func (c *Client) Toggle(ctx context.Context, t domain.Todo) (domain.Todo, error) {
	completed := !t.Completed
	return c.Update(ctx, t.ID, domain.Patch{Completed: &completed})
}

// Delete removes a todo and returns the deleted record.
func (c *Client) Delete(ctx context.Context, id domain.ID) (domain.Todo, error) {
	var t domain.Todo
	err := c.do(ctx, http.MethodDelete, "/api/todos/"+id.String(), nil, &t)
	return t, err
}

// Stats fetches the aggregate counts.
func (c *Client) Stats(ctx context.Context) (domain.Stats, error) {
	var st domain.Stats
	err := c.do(ctx, http.MethodGet, "/api/todos/stats", nil, &st)
	return st, err
}

func (c *Client) send(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	return resp, nil
}

// do sends the request and decodes the envelope's data into out.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	resp, err := c.send(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("%w: %s %s: status %d: %v", ErrUnreachable, method, path, resp.StatusCode, err)
	}
	if !env.Success || resp.StatusCode >= http.StatusBadRequest {
		msg := env.Error
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: msg, Detail: env.Message}
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}
