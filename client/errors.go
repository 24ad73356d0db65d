package client

import (
	"errors"
	"fmt"
	"time"
)

// TransportError is returned for non-2xx responses.
// Detail is the backend's {"detail": ...} message when it could be decoded,
// otherwise "HTTP <code>: <status text>".
type TransportError struct {
	Status int
	Detail string
}

func (e *TransportError) Error() string {
	return e.Detail
}

// IsRetriable returns true for server-side failures.
// 4xx responses are non-retriable.
func (e *TransportError) IsRetriable() bool {
	return e.Status >= 500
}

// StreamUnavailableError is returned when a successful mission response
// carries no readable body.
type StreamUnavailableError struct{}

func (e *StreamUnavailableError) Error() string {
	return "response body is not readable"
}

// NetworkError wraps a failed request or a failed read from an open stream.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// TimeoutError is returned when a request/response call exceeds its fixed
// timeout. Mission streams have no intrinsic timeout.
type TimeoutError struct {
	Endpoint string
	Timeout  time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("request to %s timed out after %s", e.Endpoint, e.Timeout)
}

// IsFatal returns true if err ends a mission turn.
// Validation errors for individual frames are not fatal and never reach
// callers, so every error class defined here is.
func IsFatal(err error) bool {
	var (
		transportErr   *TransportError
		unavailableErr *StreamUnavailableError
		networkErr     *NetworkError
		timeoutErr     *TimeoutError
	)
	return errors.As(err, &transportErr) ||
		errors.As(err, &unavailableErr) ||
		errors.As(err, &networkErr) ||
		errors.As(err, &timeoutErr)
}
