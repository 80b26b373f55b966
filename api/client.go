// Package api implements the resilient request client for the storefront
// backend. It turns a logical request (method, path, body, bearer token)
// into a parsed payload or a classified failure, isolating callers from
// transient network trouble.
//
// Retries with exponential backoff on network failures and 5xx responses.
// Client errors (4xx) and timeouts are never retried.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pithecene-io/trolley/iox"
	"github.com/pithecene-io/trolley/log"
	"github.com/pithecene-io/trolley/metrics"
)

// DefaultTimeout is the default per-attempt deadline.
const DefaultTimeout = 10 * time.Second

// DefaultRetries is the default number of retry attempts beyond the first.
const DefaultRetries = 2

// DefaultBaseDelay is the default base backoff delay before the first retry.
const DefaultBaseDelay = 1 * time.Second

// SlowCallThreshold is the attempt duration above which a warning is logged.
const SlowCallThreshold = 5 * time.Second

// TokenSource supplies the bearer token for outbound calls.
// Absence of a token implies anonymous/guest mode.
type TokenSource interface {
	// Token returns the current bearer token and whether one is present.
	Token() (string, bool)
	// Invalidate clears the cached token after the server rejected it.
	// Implementations emit an authentication-expired signal to observers.
	Invalidate()
}

// Config configures the request client.
type Config struct {
	// BaseURL is the backend base URL (required).
	BaseURL string
	// Timeout is the per-attempt deadline (default 10s).
	Timeout time.Duration
	// Retries is the maximum number of retry attempts beyond the first
	// (default applied by the caller; must be >= 0).
	Retries int
	// BaseDelay is the backoff delay before the first retry; each further
	// retry doubles it (default 1s).
	BaseDelay time.Duration
}

// Request is a logical request descriptor.
type Request struct {
	// Method is the HTTP method.
	Method string
	// Path is the request path relative to the base URL.
	Path string
	// Body is JSON-marshaled when non-nil.
	Body any
}

// Client issues requests against the storefront backend.
type Client struct {
	config  Config
	http    *http.Client
	tokens  TokenSource
	logger  *log.Logger
	metrics *metrics.Collector
}

// New creates a request client from the given config.
// tokens is required; logger and collector may be nil.
func New(cfg Config, tokens TokenSource, logger *log.Logger, collector *metrics.Collector) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("api client requires a base URL")
	}
	if tokens == nil {
		return nil, errors.New("api client requires a token source")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = DefaultBaseDelay
	}
	if cfg.Retries < 0 {
		return nil, fmt.Errorf("retries must be >= 0, got %d", cfg.Retries)
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	return &Client{
		config:  cfg,
		http:    &http.Client{},
		tokens:  tokens,
		logger:  logger,
		metrics: collector,
	}, nil
}

// Do issues the request and decodes a 2xx JSON response into out (when out
// is non-nil). Failures are always a *RequestError classified into exactly
// one kind; Do never returns a raw transport error.
//
// Retries apply only to retriable failures: network errors and 5xx
// responses. Exhausting retries surfaces the last observed failure.
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	var body []byte
	if req.Body != nil {
		var err error
		body, err = json.Marshal(req.Body)
		if err != nil {
			return &RequestError{Kind: ErrAPI, Reason: "encode_body", Err: err}
		}
	}

	correlationID := uuid.New().String()
	c.metrics.IncRequestStarted()

	var lastErr *RequestError
	// attempts = 1 initial + retries
	attempts := 1 + c.config.Retries

	for i := range attempts {
		if err := ctx.Err(); err != nil {
			return classifyTransport(err, correlationID)
		}

		// Exponential backoff before retries (not before first attempt):
		// baseDelay, 2x baseDelay, 4x baseDelay, ...
		if i > 0 {
			backoff := c.config.BaseDelay << uint(i-1)
			select {
			case <-ctx.Done():
				return classifyTransport(ctx.Err(), correlationID)
			case <-time.After(backoff):
			}
			c.metrics.IncRetry()
		}

		lastErr = c.doAttempt(ctx, req, body, correlationID, i+1, out)
		if lastErr == nil {
			c.metrics.IncRequestSucceeded()
			return nil
		}
		if !lastErr.Retriable {
			break
		}
	}

	c.metrics.IncRequestFailed(lastErr.KindName())
	return lastErr
}

// doAttempt performs a single attempt under the per-attempt deadline.
func (c *Client) doAttempt(ctx context.Context, req Request, body []byte, correlationID string, attempt int, out any) *RequestError {
	attemptCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	httpReq, err := http.NewRequestWithContext(attemptCtx, req.Method, c.config.BaseURL+req.Path, reader)
	if err != nil {
		return &RequestError{Kind: ErrAPI, Reason: "build_request", CorrelationID: correlationID, Err: err}
	}

	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Correlation-ID", correlationID)
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if token, ok := c.tokens.Token(); ok {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	duration := time.Since(start)

	c.logAttempt(req, correlationID, attempt, resp, duration)
	if duration > SlowCallThreshold {
		c.metrics.IncSlowCall()
	}

	if err != nil {
		return classifyTransport(err, correlationID)
	}
	defer iox.DiscardClose(resp.Body)

	payload, readErr := io.ReadAll(resp.Body)
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if readErr != nil {
			return classifyTransport(readErr, correlationID)
		}
		if out != nil && len(payload) > 0 {
			if err := json.Unmarshal(payload, out); err != nil {
				return &RequestError{Kind: ErrAPI, Reason: "decode_body", CorrelationID: correlationID, Err: err}
			}
		}
		return nil
	}

	return c.classifyStatus(resp.StatusCode, payload, correlationID)
}

// classifyStatus turns a non-2xx response into an API error.
// 5xx failures are retriable; 4xx are not. A 401 additionally invalidates
// the cached bearer token so the identity gate observes the expiry.
func (c *Client) classifyStatus(status int, body []byte, correlationID string) *RequestError {
	reqErr := &RequestError{
		Kind:          ErrAPI,
		Status:        status,
		CorrelationID: correlationID,
		Retriable:     status >= 500,
	}

	var parsed struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil {
		if parsed.Message != "" {
			reqErr.Message = parsed.Message
		} else {
			reqErr.Message = parsed.Error
		}
	} else if looksLikeErrorPage(body) {
		reqErr.Reason = ReasonErrorPage
	}

	if status == http.StatusUnauthorized {
		reqErr.Reason = ReasonAuthExpired
		c.tokens.Invalidate()
	}

	return reqErr
}

// logAttempt records per-attempt observability fields.
func (c *Client) logAttempt(req Request, correlationID string, attempt int, resp *http.Response, duration time.Duration) {
	if c.logger == nil {
		return
	}
	fields := map[string]any{
		"method":         req.Method,
		"path":           req.Path,
		"correlation_id": correlationID,
		"attempt":        attempt,
		"duration_ms":    duration.Milliseconds(),
	}
	if resp != nil {
		fields["status"] = resp.StatusCode
	}
	if duration > SlowCallThreshold {
		c.logger.Warn("slow backend call", fields)
		return
	}
	c.logger.Debug("backend call", fields)
}

// Close releases client resources.
func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}
