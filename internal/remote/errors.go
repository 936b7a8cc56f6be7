// Package remote is the client for the hosted backend that mirrors a user's
// collections. It speaks the PostgREST dialect (one table per collection,
// rows keyed by id and user_id, JSON payload column) with automatic retry,
// rate limiting, and error classification.
package remote

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for HTTP status code classification.
// Use errors.Is(err, remote.ErrNotFound) to check.
var (
	ErrBadRequest   = errors.New("remote: bad request")
	ErrUnauthorized = errors.New("remote: unauthorized")
	ErrForbidden    = errors.New("remote: forbidden")
	ErrNotFound     = errors.New("remote: not found")
	ErrConflict     = errors.New("remote: conflict")
	ErrThrottled    = errors.New("remote: throttled")
	ErrServerError  = errors.New("remote: server error")
	ErrNoUser       = errors.New("remote: no signed-in user")
)

// APIError wraps a sentinel error with the HTTP status and the service's
// error code and message.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Err        error // sentinel, for errors.Is()
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("remote: HTTP %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}

	return fmt.Sprintf("remote: HTTP %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// newAPIError builds an APIError from an error response body. PostgREST
// bodies are {"code","message","details","hint"}; anything else is kept
// verbatim as the message.
func newAPIError(status int, body []byte) *APIError {
	e := &APIError{
		StatusCode: status,
		Message:    string(body),
		Err:        classifyStatus(status),
	}

	var pg struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}

	if err := json.Unmarshal(body, &pg); err == nil && pg.Message != "" {
		e.Code = pg.Code
		e.Message = pg.Message
	}

	return e
}

// classifyStatus maps an HTTP status code to a sentinel error.
// Returns nil for 2xx success codes.
func classifyStatus(code int) error {
	switch code {
	case http.StatusBadRequest:
		return ErrBadRequest
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusConflict:
		return ErrConflict
	case http.StatusTooManyRequests:
		return ErrThrottled
	default:
		if code >= http.StatusInternalServerError {
			return ErrServerError
		}

		return nil
	}
}

// isRetryable reports whether the given HTTP status code should be retried.
func isRetryable(code int) bool {
	switch code {
	case http.StatusRequestTimeout,
		http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
