package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/idilsaglam/todomvc/internal/model"
)

const (
	maxBodyBytes         = 1 << 20
	sharedRequestTimeout = 30 * time.Second
)

// Client talks to the todo persistence gateway over HTTP.
type Client struct {
	base   *url.URL
	http   *http.Client
	token  string
	logger *slog.Logger
	sf     singleflight.Group
}

// Option configures a Client.
type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithToken sends "Authorization: Bearer <token>" on every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = strings.TrimSpace(token) }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient returns a client for the gateway rooted at baseURL,
// e.g. "http://localhost:8080/api/v1".
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("gateway url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("gateway url: scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("gateway url: missing host")
	}
	u.Path = strings.TrimRight(u.Path, "/")

	c := &Client{
		base:   u,
		http:   &http.Client{Timeout: 30 * time.Second},
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the gateway root the client was built with.
func (c *Client) BaseURL() string { return c.base.String() }

// CreateTodo POSTs payload to /todos and returns the stored record.
func (c *Client) CreateTodo(ctx context.Context, payload model.NewTodo) (model.Todo, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return model.Todo{}, fmt.Errorf("encode todo: %w", err)
	}
	raw, err := c.do(ctx, http.MethodPost, "/todos", body)
	if err != nil {
		return model.Todo{}, err
	}
	return decodeCreated(raw)
}

// ListTodos GETs /todos. Concurrent callers share one request, which runs
// detached from any single caller and is bounded by sharedRequestTimeout;
// each caller stops waiting when its own ctx is done.
func (c *Client) ListTodos(ctx context.Context) ([]model.Todo, error) {
	ch := c.sf.DoChan("list", func() (interface{}, error) {
		shared, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedRequestTimeout)
		defer cancel()
		raw, err := c.do(shared, http.MethodGet, "/todos", nil)
		if err != nil {
			return nil, err
		}
		return decodeList(raw)
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("GET %s: %w", c.base.JoinPath("/todos"), ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		todos := res.Val.([]model.Todo)
		out := make([]model.Todo, len(todos))
		copy(out, todos)
		return out, nil
	}
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	target := c.base.JoinPath(path).String()

	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, rd)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("gateway request failed", "method", method, "url", target, "error", err)
		return nil, fmt.Errorf("%s %s: %w", method, target, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%s %s: read body: %w", method, target, err)
	}
	c.logger.Debug("gateway request", "method", method, "url", target,
		"status", resp.StatusCode, "elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{
			Method:     method,
			URL:        target,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(raw),
		}
	}
	return raw, nil
}

// decodeCreated accepts either the todo object or a one-element array
// holding it.
func decodeCreated(raw []byte) (model.Todo, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return model.Todo{}, fmt.Errorf("%w: empty body", ErrMalformedResponse)
	}

	var t model.Todo
	if raw[0] == '[' {
		var list []model.Todo
		if err := json.Unmarshal(raw, &list); err != nil {
			return model.Todo{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		if len(list) != 1 {
			return model.Todo{}, fmt.Errorf("%w: expected one todo, got %d", ErrMalformedResponse, len(list))
		}
		t = list[0]
	} else if err := json.Unmarshal(raw, &t); err != nil {
		return model.Todo{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	if t.ID == 0 {
		return model.Todo{}, fmt.Errorf("%w: missing id", ErrMalformedResponse)
	}
	return t, nil
}

// decodeList accepts a bare array or {"items": [...]}.
func decodeList(raw []byte) ([]model.Todo, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrMalformedResponse)
	}
	if raw[0] == '{' {
		var wrapped struct {
			Items []model.Todo `json:"items"`
		}
		if err := json.Unmarshal(raw, &wrapped); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		if wrapped.Items == nil {
			return []model.Todo{}, nil
		}
		return wrapped.Items, nil
	}
	var list []model.Todo
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if list == nil {
		list = []model.Todo{}
	}
	return list, nil
}

func errorMessage(raw []byte) string {
	var body struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(raw, &body) == nil && body.Error != "" {
		return body.Error
	}
	return ""
}
