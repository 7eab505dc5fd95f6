// Package planapi is the client for the external plan-generation service.
// It makes exactly one attempt per call; callers decide what to do on
// failure (the planner falls back to the built-in plan).
package planapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hammamikhairi/nutriplan/internal/domain"
	"github.com/hammamikhairi/nutriplan/internal/logger"
)

// Compile-time interface check.
var _ domain.PlanGenerator = (*Client)(nil)

// Service routes, relative to the base URL.
const (
	GeneratePath = "/api/generate-plan"
	HealthPath   = "/api/health"
)

// DefaultBaseURL is where a locally run plan service listens.
const DefaultBaseURL = "http://localhost:8001"

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the HTTP client timeout. Zero leaves the platform
// default (no timeout) in place.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.http.Timeout = d }
}

// Client talks to the plan service.
type Client struct {
	baseURL string
	http    *http.Client
	log     *logger.Logger
}

// NewClient creates a plan service client. An empty baseURL means
// DefaultBaseURL.
func NewClient(baseURL string, log *logger.Logger, opts ...ClientOption) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		log:     log.With("planapi"),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// BaseURL returns the service base URL without a trailing slash.
func (c *Client) BaseURL() string { return c.baseURL }

// Generate asks the service for a plan. It returns the plan markdown and
// the status string reported by the service.
func (c *Client) Generate(ctx context.Context, profile domain.UserProfile, userID string) (domain.PlanDocument, string, error) {
	body := NewRequest(profile, userID)

	jsonData, err := json.Marshal(body)
	if err != nil {
		return "", "", fmt.Errorf("planapi: marshal request: %w", err)
	}

	url := c.baseURL + GeneratePath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return "", "", fmt.Errorf("planapi: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	c.log.Debug("POST %s (%d bytes, user=%s)", url, len(jsonData), userID)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("planapi: request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", "", fmt.Errorf("planapi: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", "", fmt.Errorf("planapi: service %s: %s", resp.Status, errorDetail(respBody))
	}

	payload, err := Unwrap(respBody)
	if err != nil {
		return "", "", err
	}

	c.log.Debug("plan received (%s, %d chars, status=%s)", payload.Shape, len(payload.Plan), payload.Status)
	return payload.Plan, payload.Status, nil
}

// Health reports whether the service answers {"status":"healthy"}.
func (c *Client) Health(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+HealthPath, nil)
	if err != nil {
		return false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug("health check failed: %v", err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false
	}
	var out struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return false
	}
	return out.Status == "healthy"
}

// errorDetail pulls the "detail" field out of an error body, or returns
// the body itself truncated.
func errorDetail(body []byte) string {
	var e struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &e) == nil && e.Detail != "" {
		return e.Detail
	}
	return truncate(strings.TrimSpace(string(body)), 200)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
