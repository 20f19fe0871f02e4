// Package client talks to the task API over HTTP.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"taskwise/ai"
	"taskwise/domain"
)

const maxResponseSize = 1 << 20

// Client wraps http.Client with helpers for the task API.
type Client struct {
	BaseURL string
	Bearer  string
	HTTP    *http.Client
}

// New creates a new Client.
func New(baseURL, bearer string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Bearer:  bearer,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

// APIError is a non-2xx response. It unwraps to the domain error matching
// the status so callers can use errors.Is.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("api: %d %s", e.Status, e.Message)
}

func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized:
		return domain.ErrUnauthenticated
	case http.StatusNotFound:
		return domain.ErrNotFound
	case http.StatusBadRequest:
		return &domain.ValidationError{Message: e.Message}
	}
	return nil
}

type errorBody struct {
	Error string `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		buf := new(bytes.Buffer)
		if err := sonic.ConfigStd.NewEncoder(buf).Encode(body); err != nil {
			return err
		}
		rd = buf
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.Bearer != "" {
		req.Header.Set("Authorization", "Bearer "+c.Bearer)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return &domain.UpstreamError{Op: method + " " + path, Err: err}
	}
	defer resp.Body.Close()

	lr := io.LimitReader(resp.Body, maxResponseSize)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var eb errorBody
		raw, _ := io.ReadAll(lr)
		if sonic.Unmarshal(raw, &eb) != nil || eb.Error == "" {
			eb.Error = strings.TrimSpace(string(raw))
		}
		apiErr := &APIError{Status: resp.StatusCode, Message: eb.Error}
		if resp.StatusCode >= 500 {
			return &domain.UpstreamError{Op: method + " " + path, Err: apiErr}
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := sonic.ConfigStd.NewDecoder(lr).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func taskPath(id string) string { return "/api/tasks/" + url.PathEscape(id) }

type tasksBody struct {
	Tasks []domain.Task `json:"tasks"`
}

type taskBody struct {
	Task domain.Task `json:"task"`
}

// List returns the caller's tasks, newest first.
func (c *Client) List(ctx context.Context) ([]domain.Task, error) {
	var out tasksBody
	if err := c.do(ctx, http.MethodGet, "/api/tasks", nil, &out); err != nil {
		return nil, err
	}
	if out.Tasks == nil {
		out.Tasks = []domain.Task{}
	}
	return out.Tasks, nil
}

func (c *Client) Get(ctx context.Context, id string) (domain.Task, error) {
	var out taskBody
	err := c.do(ctx, http.MethodGet, taskPath(id), nil, &out)
	return out.Task, err
}

func (c *Client) Create(ctx context.Context, n domain.NewTask) (domain.Task, error) {
	var out taskBody
	err := c.do(ctx, http.MethodPost, "/api/tasks", n, &out)
	return out.Task, err
}

func (c *Client) Update(ctx context.Context, id string, p domain.TaskPatch) (domain.Task, error) {
	var out taskBody
	err := c.do(ctx, http.MethodPut, taskPath(id), p, &out)
	return out.Task, err
}

// Delete reports false when the server had nothing to remove.
func (c *Client) Delete(ctx context.Context, id string) (bool, error) {
	err := c.do(ctx, http.MethodDelete, taskPath(id), nil, nil)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusBadRequest {
		return false, nil
	}
	return err == nil, err
}

// Assignees fetches the assignee directory.
func (c *Client) Assignees(ctx context.Context) ([]domain.Assignee, error) {
	var out struct {
		Assignees []domain.Assignee `json:"assignees"`
	}
	err := c.do(ctx, http.MethodGet, "/api/assignees", nil, &out)
	return out.Assignees, err
}

// Evaluate asks the server to score content with provider.
func (c *Client) Evaluate(ctx context.Context, provider ai.Provider, content string) (ai.Evaluation, error) {
	in := struct {
		Provider ai.Provider `json:"provider"`
		Content  string      `json:"content"`
	}{provider, content}
	var out ai.Evaluation
	err := c.do(ctx, http.MethodPost, "/api/evaluate", in, &out)
	return out, err
}
