package client

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

	"pmboard/internal/model"
	"pmboard/internal/stage"
	"pmboard/pkg/trace"
)

// Client talks to the pmboard HTTP API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func New(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// WithToken returns a copy of c that authenticates with token.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = token
	return &cp
}

// APIError is a non-2xx response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api returned %d", e.StatusCode)
	}
	return fmt.Sprintf("api returned %d: %s", e.StatusCode, e.Message)
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if traceID := trace.FromContext(ctx); traceID != "" {
		req.Header.Set(trace.HeaderName, traceID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil && err != io.EOF {
		if resp.StatusCode >= 300 {
			return &APIError{StatusCode: resp.StatusCode}
		}
		return fmt.Errorf("decode response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Message: env.Error}
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	return json.Unmarshal(env.Data, out)
}

func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	var out struct {
		Token string `json:"token"`
	}
	err := c.do(ctx, http.MethodPost, "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, &out)
	return out.Token, err
}

func (c *Client) Board(ctx context.Context, projectID int) (*stage.Board, error) {
	var b stage.Board
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/projects/%d/stages", projectID), nil, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (c *Client) ListTasks(ctx context.Context, projectID int) ([]model.Task, error) {
	var tasks []model.Task
	q := url.Values{"projectId": {strconv.Itoa(projectID)}}
	if err := c.do(ctx, http.MethodGet, "/api/project-tasks?"+q.Encode(), nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (c *Client) UpdateTaskStatus(ctx context.Context, taskID int, status string) (*model.Task, error) {
	var t model.Task
	if err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/api/project-tasks/%d", taskID), map[string]string{
		"status": status,
	}, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *Client) Submit(ctx context.Context, projectID int, stageID string) (*model.StageApproval, error) {
	var a model.StageApproval
	if err := c.do(ctx, http.MethodPost, "/api/project-stage-approvals", map[string]any{
		"projectId": projectID,
		"stageId":   stageID,
		"status":    model.ApprovalPending,
	}, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// Decide sets a stage to Approved or Rejected.
func (c *Client) Decide(ctx context.Context, projectID int, stageID, status, comment string) (*model.StageApproval, error) {
	var a model.StageApproval
	if err := c.do(ctx, http.MethodPatch, "/api/project-stage-approvals/"+url.PathEscape(stageID), map[string]any{
		"projectId": projectID,
		"status":    status,
		"comment":   comment,
	}, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (c *Client) PendingApprovals(ctx context.Context) ([]model.StageApproval, error) {
	var rows []model.StageApproval
	if err := c.do(ctx, http.MethodGet, "/api/stage-approvals/pending", nil, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *Client) ReplayEvent(ctx context.Context, eventID int64) error {
	return c.do(ctx, http.MethodPost, "/admin/outbox/replay?id="+strconv.FormatInt(eventID, 10), nil, nil)
}

func (c *Client) ReplayFailedEvents(ctx context.Context, limit int) (int, error) {
	var out struct {
		SuccessCount int `json:"successCount"`
	}
	err := c.do(ctx, http.MethodPost, "/admin/outbox/replay-failed?limit="+strconv.Itoa(limit), nil, &out)
	return out.SuccessCount, err
}
