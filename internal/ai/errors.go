package ai

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors. Use errors.Is to check.
var (
	ErrMissingCredential = errors.New("ai: missing GEMINI_API_KEY")
	ErrRevokedCredential = errors.New("ai: api key revoked")
	ErrEmptyResponse     = errors.New("ai: no response from model")
)

// User-facing messages. They never carry technical detail.
const (
	MsgMissingCredential = "Missing GEMINI_API_KEY. Add a new key to .env.local and restart the app."
	MsgRevokedCredential = "Your Gemini API key was revoked. Replace it in .env.local and restart the app."
	MsgUnavailable       = "AI is taking a nap. Try again momentarily."
)

// ServiceError is an error response from the generative service.
type ServiceError struct {
	StatusCode int
	Status     string // e.g. PERMISSION_DENIED
	Message    string
	Err        error // sentinel when classified, for errors.Is()
}

func (e *ServiceError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("ai: HTTP %d (%s): %s", e.StatusCode, e.Status, e.Message)
	}

	return fmt.Sprintf("ai: HTTP %d: %s", e.StatusCode, e.Message)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// revoked reports whether a service error means the key was disabled.
func revoked(status, message string) bool {
	return status == "PERMISSION_DENIED" || strings.Contains(strings.ToLower(message), "leaked")
}

// UserMessage maps any error from this package to one of the three
// user-facing messages.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrMissingCredential):
		return MsgMissingCredential
	case errors.Is(err, ErrRevokedCredential):
		return MsgRevokedCredential
	default:
		return MsgUnavailable
	}
}
