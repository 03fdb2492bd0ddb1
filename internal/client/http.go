package client

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

	"github.com/alfredjeanlab/laptimer/internal/aggregate"
	"github.com/alfredjeanlab/laptimer/internal/gates"
	"github.com/alfredjeanlab/laptimer/internal/model"
)

// HTTPClient implements LapClient using the laptimer HTTP/JSON API.
type HTTPClient struct {
	baseURL    string
	username   string
	password   string
	httpClient *http.Client
}

// Option configures an HTTPClient.
type Option func(*HTTPClient)

// WithBasicAuth sets the credentials sent on every request.
func WithBasicAuth(username, password string) Option {
	return func(c *HTTPClient) {
		c.username = username
		c.password = password
	}
}

// WithTimeout bounds every request.
func WithTimeout(d time.Duration) Option {
	return func(c *HTTPClient) {
		c.httpClient.Timeout = d
	}
}

// NewHTTPClient creates a new HTTP client targeting the given base URL
// (e.g. "http://localhost:8080").
func NewHTTPClient(baseURL string, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Close is a no-op for the HTTP client.
func (c *HTTPClient) Close() error { return nil }

// --- Results ---

func (c *HTTPClient) ListLaps(ctx context.Context) ([]aggregate.Result, error) {
	var laps []aggregate.Result
	if err := c.doJSON(ctx, http.MethodGet, "/laps", nil, &laps); err != nil {
		return nil, err
	}
	return laps, nil
}

func (c *HTTPClient) Unassigned(ctx context.Context) ([]string, error) {
	var uuids []string
	if err := c.doJSON(ctx, http.MethodGet, "/unassigned", nil, &uuids); err != nil {
		return nil, err
	}
	return uuids, nil
}

// --- Gates ---

func (c *HTTPClient) Status(ctx context.Context) (*gates.Status, error) {
	var status gates.Status
	if err := c.doJSON(ctx, http.MethodGet, "/status", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (c *HTTPClient) Gates(ctx context.Context) ([]gates.Entry, error) {
	var entries []gates.Entry
	if err := c.doJSON(ctx, http.MethodGet, "/gates", nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// --- Tags ---

func (c *HTTPClient) ListTags(ctx context.Context) ([]*model.Tag, error) {
	var tags []*model.Tag
	if err := c.doJSON(ctx, http.MethodGet, "/tags", nil, &tags); err != nil {
		return nil, err
	}
	return tags, nil
}

func (c *HTTPClient) UpsertTag(ctx context.Context, tag *model.Tag) error {
	return c.doJSON(ctx, http.MethodPost, "/tags", tag, nil)
}

func (c *HTTPClient) DeleteTag(ctx context.Context, uuid string) error {
	return c.doJSON(ctx, http.MethodDelete, "/tags/"+url.PathEscape(uuid), nil, nil)
}

// --- Resets ---

func (c *HTTPClient) ResetLaps(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodDelete, "/db/laps", nil, nil)
}

func (c *HTTPClient) ResetTags(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodDelete, "/db/tags", nil, nil)
}

// --- Health ---

func (c *HTTPClient) Health(ctx context.Context) (string, error) {
	var resp struct {
		Status string `json:"status"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/health", nil, &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}

// --- internal helpers ---

// APIError represents an error response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// doJSON performs an HTTP request with optional JSON body and decodes the JSON response.
// If result is nil, the response body is discarded.
func (c *HTTPClient) doJSON(ctx context.Context, method, path string, body any, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("performing request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			return &APIError{StatusCode: resp.StatusCode, Message: errResp.Error}
		}
		return &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}
