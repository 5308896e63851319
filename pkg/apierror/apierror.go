package apierror

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type APIError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    string `json:"details,omitempty"`
	HTTPStatus int    `json:"-"`
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}

	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}

	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func New(code string, message string, details string, status int) *APIError {
	return &APIError{Code: code, Message: message, Details: details, HTTPStatus: status}
}

// backendBody covers the error shapes the annotation backend emits: a bare
// {"message": "..."} and the enveloped {"error": {"message": "..."}}.
type backendBody struct {
	Message string `json:"message"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// FromResponse normalizes a non-2xx backend reply. The backend message is kept
// verbatim so it can be shown to the user.
func FromResponse(status int, body []byte, fallback string) *APIError {
	code := codeForStatus(status)
	message := strings.TrimSpace(fallback)

	var parsed backendBody
	trimmed := strings.TrimSpace(string(body))
	switch {
	case trimmed == "":
	case json.Unmarshal(body, &parsed) == nil:
		if parsed.Error != nil && parsed.Error.Message != "" {
			message = parsed.Error.Message
			if parsed.Error.Code != "" {
				code = parsed.Error.Code
			}
		} else if parsed.Message != "" {
			message = parsed.Message
		}
	case !strings.HasPrefix(trimmed, "<") && len(trimmed) <= 200:
		// Plain-text bodies such as "Email already used!"; HTML error pages are ignored.
		message = trimmed
	}

	if message == "" {
		message = fmt.Sprintf("backend error: %d %s", status, http.StatusText(status))
	}

	return New(code, message, "", status)
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "BAD_REQUEST"
	case http.StatusUnauthorized:
		return "UNAUTHORIZED"
	case http.StatusForbidden:
		return "FORBIDDEN"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusConflict:
		return "CONFLICT"
	case http.StatusTooManyRequests:
		return "RATE_LIMITED"
	}

	if status >= 500 {
		return "BACKEND_ERROR"
	}

	return "REQUEST_FAILED"
}

// UserMessage returns the human-readable message carried by err when it is an
// APIError, or fallback otherwise.
func UserMessage(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && strings.TrimSpace(apiErr.Message) != "" {
		return apiErr.Message
	}

	return fallback
}
