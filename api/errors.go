// Package api implements the resilient request client for the storefront
// backend.
//
// This file defines the closed error taxonomy for request failures. Every
// failure leaving this package is classified into exactly one kind; callers
// use errors.Is/errors.As for typed assertions rather than string matching.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// Sentinel errors for request failure classification.
// Use errors.Is(err, ErrXxx) for typed assertions.
var (
	// ErrAPI indicates the server responded with a non-2xx status.
	// Both client (4xx) and server (5xx) rejections carry this kind;
	// they differ in retriability.
	ErrAPI = errors.New("api error")

	// ErrNetwork indicates no response was obtained (connection refused,
	// DNS failure, connection reset).
	ErrNetwork = errors.New("network error")

	// ErrTimeout indicates no response arrived within the deadline.
	ErrTimeout = errors.New("request timed out")
)

// Reason codes attached to RequestError for diagnostics.
const (
	// ReasonErrorPage marks an error response whose body was not parseable
	// as structured data (a generic HTML error page, a proxy banner).
	ReasonErrorPage = "error_page"
	// ReasonAuthExpired marks a 401 that invalidated the cached token.
	ReasonAuthExpired = "auth_expired"
)

// RequestError is a classified request failure.
// It preserves the underlying error in the chain for errors.As inspection.
type RequestError struct {
	// Kind is the sentinel error for classification.
	Kind error
	// Status is the HTTP status code for API errors, 0 otherwise.
	Status int
	// Message is the server-supplied error message, if one was parseable.
	Message string
	// Reason is an optional machine-readable reason code.
	Reason string
	// CorrelationID is the id assigned to the logical call.
	CorrelationID string
	// Retriable reports whether the failure may clear on retry.
	Retriable bool
	// Err is the underlying error, if any.
	Err error
}

func (e *RequestError) Error() string {
	switch {
	case e.Status != 0 && e.Message != "":
		return fmt.Sprintf("%v: status %d: %s", e.Kind, e.Status, e.Message)
	case e.Status != 0:
		return fmt.Sprintf("%v: status %d", e.Kind, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("%v: %v", e.Kind, e.Err)
	default:
		return e.Kind.Error()
	}
}

// Unwrap returns the underlying error for errors.Is/As chain traversal.
func (e *RequestError) Unwrap() error {
	return e.Err
}

// Is reports whether the error matches the target sentinel.
func (e *RequestError) Is(target error) bool {
	return errors.Is(e.Kind, target)
}

// KindName returns the stable string name of the error kind, used as a
// metrics dimension.
func (e *RequestError) KindName() string {
	switch {
	case errors.Is(e.Kind, ErrTimeout):
		return "timeout"
	case errors.Is(e.Kind, ErrNetwork):
		return "network_error"
	default:
		return "api_error"
	}
}

// classifyTransport classifies an error from the HTTP transport (no
// response was obtained). Timeouts are terminal; everything else is a
// retriable network failure.
func classifyTransport(err error, correlationID string) *RequestError {
	if isTimeout(err) {
		return &RequestError{
			Kind:          ErrTimeout,
			CorrelationID: correlationID,
			Retriable:     false,
			Err:           err,
		}
	}
	return &RequestError{
		Kind:          ErrNetwork,
		CorrelationID: correlationID,
		Retriable:     true,
		Err:           err,
	}
}

// isTimeout reports whether err is a deadline-style failure.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	// http.Client wraps deadline errors in url.Error with a text that the
	// typed checks above usually catch; keep a pattern fallback for
	// transports that do not.
	return strings.Contains(err.Error(), "deadline exceeded") ||
		strings.Contains(err.Error(), "Client.Timeout exceeded")
}

// looksLikeErrorPage reports whether an unparseable error body resembles a
// generic HTML error page rather than a structured API payload.
func looksLikeErrorPage(body []byte) bool {
	trimmed := strings.TrimSpace(string(body))
	lower := strings.ToLower(trimmed)
	return strings.HasPrefix(lower, "<!doctype") || strings.HasPrefix(lower, "<html")
}
