package stubclient

import (
	"errors"
	"fmt"
)

// Sentinel errors for stub client operations.
var (
	// ErrNoTarget is returned when an operation is called without a target.
	ErrNoTarget = errors.New("target is required")
	// ErrNotFound is returned when the store does not know the stub.
	ErrNotFound = errors.New("stub not found")
)

// ErrorResponse is the JSON error envelope of the stub store API.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// APIError is a rejection: the store answered with a non-OK status.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	switch {
	case e.Code != "" && e.Message != "":
		return fmt.Sprintf("stub store rejected request: status %d: %s: %s", e.StatusCode, e.Code, e.Message)
	case e.Message != "":
		return fmt.Sprintf("stub store rejected request: status %d: %s", e.StatusCode, e.Message)
	default:
		return fmt.Sprintf("stub store rejected request: status %d", e.StatusCode)
	}
}

// TransportError is a failure to reach the store or read its response.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsRejection reports whether err is a non-OK answer from the store, as
// opposed to a transport failure.
func IsRejection(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return true
	}
	var apiErr *APIError
	return errors.As(err, &apiErr)
}
