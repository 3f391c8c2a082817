// Package remote is the HTTP client for the Configuration Service. Every
// outbound write is expressed as an Operation value so it can be queued,
// persisted, and replayed verbatim after a reconnect.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Sentinel errors for common HTTP error classes.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
)

// Operation is a single pending request against the Configuration Service.
// Each operation is a full-resource write, so replaying it any number of
// times produces the same end state. Payload is the raw request body: JSON
// for document writes, a multipart form for uploads. It is []byte rather
// than json.RawMessage so queue persistence round-trips non-JSON bodies.
type Operation struct {
	Method  string            `json:"method"`
	URL     string            `json:"url"`
	Payload []byte            `json:"payload,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
}

// APIError is the standard error body from the Configuration Service.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("HTTP %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("HTTP %d %s", e.Status, e.Code)
}

// Unwrap maps well-known statuses onto sentinel errors so callers can use
// errors.Is without inspecting status codes.
func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	default:
		return nil
	}
}

// Client talks to the Configuration Service.
type Client struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
}

// New creates a client with the default request timeout.
func New(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL: baseURL,
		APIKey:  apiKey,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Do executes one operation and returns the response body. HTTP statuses of
// 400 and above are returned as *APIError, wrapped in a sentinel where one
// applies, so callers can classify without re-parsing.
func (c *Client) Do(ctx context.Context, op Operation) (json.RawMessage, error) {
	var bodyReader io.Reader
	if len(op.Payload) > 0 {
		bodyReader = bytes.NewReader(op.Payload)
	}

	req, err := http.NewRequestWithContext(ctx, op.Method, c.BaseURL+op.URL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	if len(op.Payload) > 0 {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range op.Headers {
		req.Header.Set(k, v)
	}
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIError{Status: resp.StatusCode}
		if json.Unmarshal(respBody, apiErr) != nil || apiErr.Message == "" {
			apiErr.Message = string(bytes.TrimSpace(respBody))
		}
		return nil, apiErr
	}

	return respBody, nil
}
