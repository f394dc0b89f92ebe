// Package client provides a Go client for the station HTTP API
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hwbench/station/pkg/api"
)

type (
	// Client talks to a running station daemon over HTTP
	Client struct {
		httpClient *http.Client
		baseURL    string
	}

	// Option configures a Client at construction time
	Option func(*Client)
)

const defaultTimeout = 30 * time.Second

var (
	ErrRunNotFound      = errors.New("run not found")
	ErrRunActive        = errors.New("a run is already active")
	ErrUnexpectedStatus = errors.New("unexpected HTTP status")
	ErrUndecodableReply = errors.New("undecodable reply")
	ErrEmptyBaseURL     = errors.New("base URL empty")
)

// WithTimeout sets the per-request timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.httpClient = h
	}
}

// New returns a Client bound to the given base URL
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, ErrEmptyBaseURL
	}
	res := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
	for _, opt := range opts {
		opt(res)
	}
	return res, nil
}

// Health fetches the daemon's health report
func (c *Client) Health(ctx context.Context) (*api.HealthResponse, error) {
	var res api.HealthResponse
	if err := c.getJSON(ctx, "/health", &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// StartRun asks the station to begin executing its plan. It returns the
// identifier of the accepted run, or ErrRunActive if one is in flight
func (c *Client) StartRun(ctx context.Context) (api.RunID, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/runs")
	if err != nil {
		return "", err
	}
	body, err := c.do(req, http.StatusAccepted)
	if err != nil {
		return "", err
	}
	var res api.RunStartedResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return "", fmt.Errorf("%w: %w", ErrUndecodableReply, err)
	}
	return res.RunID, nil
}

// GetRun fetches the full record of a completed run
func (c *Client) GetRun(
	ctx context.Context, id api.RunID,
) (*api.RunResult, error) {
	var res api.RunResult
	if err := c.getJSON(ctx, "/runs/"+string(id), &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// ListRuns fetches recorded run summaries, newest first
func (c *Client) ListRuns(ctx context.Context) ([]*api.RunDigest, error) {
	var res api.RunsListResponse
	if err := c.getJSON(ctx, "/runs", &res); err != nil {
		return nil, err
	}
	return res.Runs, nil
}

// Report fetches the plain-text report for a completed run
func (c *Client) Report(ctx context.Context, id api.RunID) (string, error) {
	req, err := c.newRequest(
		ctx, http.MethodGet, "/runs/"+string(id)+"/report",
	)
	if err != nil {
		return "", err
	}
	body, err := c.do(req, http.StatusOK)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, path)
	if err != nil {
		return err
	}
	body, err := c.do(req, http.StatusOK)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %w", ErrUndecodableReply, err)
	}
	return nil
}

func (c *Client) newRequest(
	ctx context.Context, method, path string,
) (*http.Request, error) {
	req, err := http.NewRequestWithContext(
		ctx, method, c.baseURL+path, nil,
	)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *Client) do(req *http.Request, want int) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == want {
		return body, nil
	}

	switch resp.StatusCode {
	case http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, req.URL.Path)
	case http.StatusConflict:
		return nil, ErrRunActive
	}

	var apiErr api.ErrorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil &&
		apiErr.Error != "" {
		return nil, fmt.Errorf("%w: HTTP %d: %s",
			ErrUnexpectedStatus, resp.StatusCode, apiErr.Error)
	}
	return nil, fmt.Errorf("%w: HTTP %d",
		ErrUnexpectedStatus, resp.StatusCode)
}
