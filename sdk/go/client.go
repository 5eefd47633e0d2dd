package lexlinesdk

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
)

// Client is a minimal Lexline HTTP API client.
type Client struct {
	BaseURL     string
	BearerToken string
	HTTPClient  *http.Client
	Timeout     time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		Timeout: 10 * time.Second,
	}
}

// Execution represents the API execution-request model (partial).
type Execution struct {
	ID           string   `json:"id"`
	ClientName   string   `json:"client_name"`
	OpponentName string   `json:"opponent_name"`
	Type         string   `json:"type"`
	Status       string   `json:"status"`
	ClaimAmount  *float64 `json:"claim_amount,omitempty"`
}

// Estate represents the API estate model (partial).
type Estate struct {
	ID           string `json:"id"`
	DeceasedName string `json:"deceased_name"`
	Method       string `json:"method"`
	Status       string `json:"status"`
}

// Task represents the API task model (partial).
type Task struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Origin     string `json:"origin"`
	ExecutorID string `json:"executor_id"`
	Status     string `json:"status"`
}

// LogEntry represents an activity-log entry.
type LogEntry struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts"`
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id"`
	ActorID    string `json:"actor_id"`
	Action     string `json:"action"`
	Details    string `json:"details,omitempty"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// CreateExecution files an execution request.
func (c *Client) CreateExecution(ctx context.Context, body map[string]any) (Execution, error) {
	var resp Execution
	err := c.do(ctx, http.MethodPost, c.apiPath("executions"), body, &resp)
	return resp, err
}

// GetExecution fetches an execution request by id.
func (c *Client) GetExecution(ctx context.Context, id string) (Execution, error) {
	var resp Execution
	endpoint := c.apiPath(fmt.Sprintf("executions/%s", url.PathEscape(id)))
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

// ExecutionEvent posts a lifecycle event (register, suspend, reactivate,
// complete, close...) with an optional body.
func (c *Client) ExecutionEvent(ctx context.Context, id, event string, body map[string]any) (Execution, error) {
	var resp Execution
	endpoint := c.apiPath(fmt.Sprintf("executions/%s/%s", url.PathEscape(id), event))
	err := c.do(ctx, http.MethodPost, endpoint, body, &resp)
	return resp, err
}

// CreateEstate opens an estate liquidation case.
func (c *Client) CreateEstate(ctx context.Context, body map[string]any) (Estate, error) {
	var resp Estate
	err := c.do(ctx, http.MethodPost, c.apiPath("estates"), body, &resp)
	return resp, err
}

// CreateTask creates an operational task.
func (c *Client) CreateTask(ctx context.Context, body map[string]any) (Task, error) {
	var resp Task
	err := c.do(ctx, http.MethodPost, c.apiPath("tasks"), body, &resp)
	return resp, err
}

// CompleteTask records a task result.
func (c *Client) CompleteTask(ctx context.Context, id, result string) (Task, error) {
	var resp Task
	endpoint := c.apiPath(fmt.Sprintf("tasks/%s/complete", url.PathEscape(id)))
	err := c.do(ctx, http.MethodPost, endpoint, map[string]any{"result": result}, &resp)
	return resp, err
}

// Log returns recent activity-log entries.
func (c *Client) Log(ctx context.Context, limit int) ([]LogEntry, error) {
	endpoint := c.apiPath("log")
	if limit > 0 {
		endpoint = fmt.Sprintf("%s?limit=%d", endpoint, limit)
	}
	var resp []LogEntry
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

// EntityLog returns the activity trail for one entity, newest first.
func (c *Client) EntityLog(ctx context.Context, entityKind, entityID string) ([]LogEntry, error) {
	endpoint := c.apiPath(fmt.Sprintf("log/%s/%s", url.PathEscape(entityKind), url.PathEscape(entityID)))
	var resp []LogEntry
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	url := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.BearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) apiPath(p string) string {
	return "v0/" + strings.TrimLeft(p, "/")
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}
