package notesapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Common errors returned by the client
var (
	// ErrNotFound matches an *APIError with status 404.
	ErrNotFound = errors.New("resource not found")

	// ErrUnauthorized matches an *APIError with status 401 or 403.
	ErrUnauthorized = errors.New("not authorized")

	// ErrUnexpectedPayload is returned when a response body has an unknown shape.
	ErrUnexpectedPayload = errors.New("unexpected response payload")

	// ErrForeignLink is returned when a pagination link points away from the
	// configured API host.
	ErrForeignLink = errors.New("link points outside the notes API")
)

// APIError is a non-2xx response from the notes API.
type APIError struct {
	StatusCode int
	// Message is the human-readable reason reported by the API, if any.
	Message string
	// RequestID is the X-Request-ID sent with the failed request.
	RequestID string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("notes api returned %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("notes api returned %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// Is lets errors.Is match the status-class sentinels.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
	default:
		return false
	}
}

// UserMessage returns text suitable for an error notification.
func UserMessage(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

// parseAPIError builds an APIError from a failed response body. The message
// is taken from the first non-empty of "error", "detail" and "message".
func parseAPIError(status int, body []byte, requestID string) *APIError {
	apiErr := &APIError{StatusCode: status, RequestID: requestID}

	var payload struct {
		Error   string `json:"error"`
		Detail  string `json:"detail"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return apiErr
	}

	for _, candidate := range []string{payload.Error, payload.Detail, payload.Message} {
		if msg := strings.TrimSpace(candidate); msg != "" {
			apiErr.Message = msg
			break
		}
	}

	return apiErr
}
