package weeek

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/alekspetrov/weeekbot/internal/directory"
)

// Client is a Weeek API client. It implements directory.Service.
type Client struct {
	baseURL    string
	apiToken   string
	httpClient *http.Client
}

var _ directory.Service = (*Client)(nil)

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient overrides the HTTP client (used by tests).
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// NewClient creates a new Weeek client
func NewClient(baseURL, apiToken string, opts ...ClientOption) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		apiToken: apiToken,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewClientFromConfig creates a client from configuration.
func NewClientFromConfig(cfg *Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return NewClient(cfg.BaseURL, cfg.APIToken, WithHTTPClient(&http.Client{Timeout: timeout}))
}

// doRequest performs a request and decodes the JSON body into result.
// Non-2xx statuses and success=false bodies become *directory.APIError.
func (c *Client) doRequest(ctx context.Context, method, path string, body, result interface{}) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiToken)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &directory.APIError{Status: resp.StatusCode, Message: errorMessage(respBody)}
	}

	var env envelope
	if len(respBody) > 0 && json.Unmarshal(respBody, &env) == nil && env.Success != nil && !*env.Success {
		return &directory.APIError{Status: resp.StatusCode, Message: errorMessage(respBody)}
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// errorMessage extracts the upstream message, falling back to the raw body.
func errorMessage(body []byte) string {
	var env envelope
	if json.Unmarshal(body, &env) == nil {
		if env.Message != "" {
			return env.Message
		}
		if env.Error != "" {
			return env.Error
		}
	}
	return strings.TrimSpace(string(body))
}

// ListMembers lists workspace members.
func (c *Client) ListMembers(ctx context.Context) ([]directory.Member, error) {
	var resp membersResponse
	if err := c.doRequest(ctx, http.MethodGet, "/ws/members", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Members, nil
}

// ListProjects lists projects.
func (c *Client) ListProjects(ctx context.Context) ([]directory.Project, error) {
	var resp projectsResponse
	if err := c.doRequest(ctx, http.MethodGet, "/tm/projects", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Projects, nil
}

// ListBoards lists the boards of a project.
func (c *Client) ListBoards(ctx context.Context, projectID int) ([]directory.Board, error) {
	q := url.Values{"projectId": {strconv.Itoa(projectID)}}
	var resp boardsResponse
	if err := c.doRequest(ctx, http.MethodGet, "/tm/boards?"+q.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Boards, nil
}

// ListBoardColumns lists the columns of a board in board order.
func (c *Client) ListBoardColumns(ctx context.Context, boardID int) ([]directory.Column, error) {
	q := url.Values{"boardId": {strconv.Itoa(boardID)}}
	var resp columnsResponse
	if err := c.doRequest(ctx, http.MethodGet, "/tm/board-columns?"+q.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	return resp.BoardColumns, nil
}

// CreateTask creates a task.
func (c *Client) CreateTask(ctx context.Context, req directory.CreateTaskRequest) (*directory.Task, error) {
	var resp taskResponse
	if err := c.doRequest(ctx, http.MethodPost, "/tm/tasks", req, &resp); err != nil {
		return nil, err
	}
	if resp.Task == nil {
		return nil, fmt.Errorf("create task: response has no task")
	}
	return resp.Task, nil
}
