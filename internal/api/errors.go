package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/cloudfm/cloudfm/internal/constants"
)

// ErrEmptyBaseURL is returned by NewClient when no backend address is configured.
var ErrEmptyBaseURL = errors.New("API base URL is empty")

// NetworkError means the request did not complete: DNS, connect, TLS, reset,
// timeout or context cancellation.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: request failed: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// BackendError is a completed request with a non-2xx status. Message holds the
// backend's {"error": "..."} text when the body carried one.
type BackendError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *BackendError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Op, e.StatusCode, e.Message)
}

// IsNetworkError reports whether err is (or wraps) a NetworkError.
func IsNetworkError(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

// StatusCode returns the backend status carried by err, or 0.
func StatusCode(err error) int {
	var be *BackendError
	if errors.As(err, &be) {
		return be.StatusCode
	}
	return 0
}

// UserMessage returns the backend-reported message carried by err, or
// fallback when there is none. An empty fallback means "Unknown error".
func UserMessage(err error, fallback string) string {
	if fallback == "" {
		fallback = constants.MsgUnknownError
	}
	var be *BackendError
	if errors.As(err, &be) && strings.TrimSpace(be.Message) != "" {
		return be.Message
	}
	return fallback
}

// errorBody is the backend's failure envelope. Some routes use "message".
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// newBackendError reads at most MaxErrorBodyBytes of body and extracts the message.
func newBackendError(op string, status int, body io.Reader) *BackendError {
	be := &BackendError{Op: op, StatusCode: status}
	data, err := io.ReadAll(io.LimitReader(body, constants.MaxErrorBodyBytes))
	if err != nil || len(data) == 0 {
		return be
	}

	var eb errorBody
	if err := json.Unmarshal(data, &eb); err != nil {
		return be
	}
	switch {
	case eb.Error != "":
		be.Message = eb.Error
	case eb.Message != "":
		be.Message = eb.Message
	}
	return be
}
