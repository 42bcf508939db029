package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Config holds the settings needed to construct a Client.
type Config struct {
	// BaseURL is the root URL of the pairrank server (e.g. "http://localhost:3000").
	BaseURL string

	// HTTPClient is an optional custom HTTP client. If nil, a default
	// client with a 30-second timeout is used.
	HTTPClient *http.Client

	// Timeout applies to individual API requests. Defaults to 30 seconds.
	Timeout time.Duration
}

// Client is an HTTP client for the pairrank API. All methods are safe
// for concurrent use. There is no authentication: a list_id is itself
// the capability, exactly as the server treats it.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a Client from the given configuration. Returns an
// error if BaseURL is empty.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("pairrank: BaseURL is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  httpClient,
	}, nil
}

// Health checks the server's health and persistence mode.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	var resp HealthStatus
	if err := c.get(ctx, "/api/health", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListTasks returns the items of listID, in insertion order.
func (c *Client) ListTasks(ctx context.Context, listID string) ([]Item, error) {
	var resp []Item
	if err := c.post(ctx, "/api/tasks", listIDBody{ListID: listID}, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// DeleteTask deletes an item and its comparisons from listID. Deleting
// an item that does not exist is not an error.
func (c *Client) DeleteTask(ctx context.Context, listID, content string) error {
	return c.post(ctx, "/api/tasks/delete", deleteTaskBody{ListID: listID, Content: content}, nil)
}

// ListComparisons returns the full comparison log for listID, in time order.
func (c *Client) ListComparisons(ctx context.Context, listID string) ([]Comparison, error) {
	var resp comparisonsResponse
	if err := c.post(ctx, "/api/comparisons/content", listIDBody{ListID: listID}, &resp); err != nil {
		return nil, err
	}
	return resp.Comparisons, nil
}

// AddComparison records a pairwise judgement. winner must equal taskA
// or taskB; passing the same value for all three registers the item
// without expressing a preference.
func (c *Client) AddComparison(ctx context.Context, listID, taskA, taskB, winner string) error {
	body := addComparisonBody{ListID: listID, TaskA: taskA, TaskB: taskB, Winner: winner}
	return c.post(ctx, "/api/comparisons/add", body, nil)
}

// Rankings returns the current ranking and derived statistics for listID.
func (c *Client) Rankings(ctx context.Context, listID string) (*Rankings, error) {
	var resp Rankings
	if err := c.post(ctx, "/api/rankings", listIDBody{ListID: listID}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ---------------------------------------------------------------------------
// HTTP transport
// ---------------------------------------------------------------------------

func (c *Client) post(ctx context.Context, path string, body any, dest any) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("pairrank: marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("pairrank: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.doRequest(req, dest)
}

func (c *Client) get(ctx context.Context, path string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("pairrank: create request: %w", err)
	}

	return c.doRequest(req, dest)
}

func (c *Client) doRequest(req *http.Request, dest any) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("pairrank: %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	return handleResponse(resp, dest)
}

func handleResponse(resp *http.Response, dest any) error {
	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("pairrank: read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		return parseErrorResponse(resp.StatusCode, bodyBytes)
	}

	if dest == nil {
		return nil
	}
	return json.Unmarshal(bodyBytes, dest)
}

func parseErrorResponse(statusCode int, body []byte) *Error {
	apiErr := &Error{StatusCode: statusCode}

	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil && eb.Message != "" {
		apiErr.Kind = eb.Error
		apiErr.Message = eb.Message
	} else {
		apiErr.Kind = http.StatusText(statusCode)
		apiErr.Message = string(body)
	}

	return apiErr
}
