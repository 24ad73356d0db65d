// Package client implements the agent backend API client.
//
// Request/response calls (health, stats, reports) run with a fixed per-call
// timeout and retry with exponential backoff on transient failures. Mission
// execution streams NDJSON chunks with no intrinsic timeout; see ExecuteStream.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pithecene-io/intel/iox"
	"github.com/pithecene-io/intel/log"
	"github.com/pithecene-io/intel/metrics"
	"github.com/pithecene-io/intel/retry"
	"github.com/pithecene-io/intel/types"
)

// DefaultBaseURL is used when no API URL is configured.
const DefaultBaseURL = "http://localhost:8000"

// DefaultTimeout is the default timeout of request/response calls.
const DefaultTimeout = 10 * time.Second

// DefaultRetries is the default number of retry attempts for idempotent calls.
const DefaultRetries = 2

// DefaultBackoff is the delay before the first GET retry.
const DefaultBackoff = 250 * time.Millisecond

// API endpoints.
const (
	EndpointHealth        = "/health"
	EndpointStats         = "/stats"
	EndpointReports       = "/reports"
	EndpointExecuteStream = "/execute/stream"
)

// Config configures the HTTP client.
type Config struct {
	// BaseURL is the API root, e.g. http://localhost:8000 (required).
	BaseURL string
	// Headers are custom HTTP headers added to each request.
	Headers map[string]string
	// Timeout is the per-request timeout of non-streaming calls (default 10s).
	Timeout time.Duration
	// Retries is the number of retry attempts for GET calls (default 0 when
	// constructed directly; the CLI passes DefaultRetries).
	Retries int
	// Logger receives dropped-frame warnings and request diagnostics.
	Logger *log.Logger
	// Metrics receives stream counters. May be nil.
	Metrics *metrics.Collector
	// HTTPClient overrides the transport. It must not set a Timeout, which
	// would cut mission streams short.
	HTTPClient *http.Client
}

// Client talks to the agent backend over HTTP.
type Client struct {
	config  Config
	baseURL string
	http    *http.Client
	logger  *log.Logger
}

// New creates a client from the given config.
// Returns an error if the base URL is empty or not an http(s) URL.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("client requires a base URL")
	}
	u, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", cfg.BaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid base URL %q: scheme must be http or https", cfg.BaseURL)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Retries < 0 {
		return nil, fmt.Errorf("retries must be >= 0, got %d", cfg.Retries)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNop()
	}

	return &Client{
		config:  cfg,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    httpClient,
		logger:  logger,
	}, nil
}

// Health calls GET /health.
func (c *Client) Health(ctx context.Context) (*types.HealthStatus, error) {
	var resp types.HealthResponse
	if err := c.getJSON(ctx, EndpointHealth, &resp); err != nil {
		return nil, err
	}
	return resp.ToStatus(), nil
}

// Stats calls GET /stats.
func (c *Client) Stats(ctx context.Context) (*types.MissionStats, error) {
	var resp types.StatsResponse
	if err := c.getJSON(ctx, EndpointStats, &resp); err != nil {
		return nil, err
	}
	return resp.ToStats(), nil
}

// Reports calls GET /reports and validates every record.
func (c *Client) Reports(ctx context.Context) ([]types.MissionLog, error) {
	var logs []types.MissionLog
	if err := c.getJSON(ctx, EndpointReports, &logs); err != nil {
		return nil, err
	}
	for i := range logs {
		if err := logs[i].Validate(); err != nil {
			return nil, fmt.Errorf("reports: %w", err)
		}
	}
	return logs, nil
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

// getJSON performs a GET with retries and decodes the JSON body into out.
// 5xx responses and network errors are retried with exponential backoff;
// 4xx responses and timeouts fail immediately.
func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	attempt := 0
	err := retry.Do(ctx, "GET "+endpoint, c.config.Retries, DefaultBackoff, func(ctx context.Context) error {
		attempt++
		err := c.doGet(ctx, endpoint, out)
		if err == nil {
			return nil
		}
		c.logger.Debug("request failed", map[string]any{
			"endpoint": endpoint,
			"attempt":  attempt,
			"error":    err.Error(),
		})

		var (
			transportErr *TransportError
			timeoutErr   *TimeoutError
		)
		if errors.As(err, &timeoutErr) || (errors.As(err, &transportErr) && !transportErr.IsRetriable()) {
			return &retry.Permanent{Err: err}
		}
		return err
	})

	var (
		transportErr *TransportError
		timeoutErr   *TimeoutError
	)
	switch {
	case errors.As(err, &timeoutErr):
		c.config.Metrics.IncTimeoutError()
	case errors.As(err, &transportErr):
		c.config.Metrics.IncTransportError()
	}
	return err
}

// doGet performs a single GET bounded by the configured timeout.
func (c *Client) doGet(ctx context.Context, endpoint string, out any) error {
	reqCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req, "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return c.classifyRequestError(ctx, reqCtx, endpoint, err)
	}
	defer iox.DrainClose(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newTransportError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if reqCtx.Err() != nil && ctx.Err() == nil {
			return &TimeoutError{Endpoint: endpoint, Timeout: c.config.Timeout}
		}
		return fmt.Errorf("decode %s response: %w", endpoint, err)
	}
	return nil
}

// classifyRequestError maps a transport failure onto the error taxonomy.
// Expiry of the per-call deadline is a TimeoutError; cancellation of the
// caller's context is returned as-is.
func (c *Client) classifyRequestError(ctx, reqCtx context.Context, endpoint string, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
		return &TimeoutError{Endpoint: endpoint, Timeout: c.config.Timeout}
	}
	c.config.Metrics.IncNetworkError()
	return &NetworkError{Err: err}
}

func (c *Client) setHeaders(req *http.Request, accept string) {
	req.Header.Set("Accept", accept)
	for k, v := range c.config.Headers {
		req.Header.Set(k, v)
	}
}

// newTransportError reads the {"detail": ...} body of a failed response.
func newTransportError(resp *http.Response) *TransportError {
	detail := fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err == nil && len(body) > 0 {
		var payload struct {
			Detail any `json:"detail"`
		}
		if json.Unmarshal(body, &payload) == nil {
			switch d := payload.Detail.(type) {
			case string:
				if d != "" {
					detail = d
				}
			case nil:
			default:
				// FastAPI validation errors carry a structured detail.
				if encoded, err := json.Marshal(d); err == nil {
					detail = string(encoded)
				}
			}
		}
	}

	return &TransportError{Status: resp.StatusCode, Detail: detail}
}

// Verify Client implements the Backend interface.
var _ Backend = (*Client)(nil)
