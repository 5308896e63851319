package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"tagwise-console/internal/model"
)

func jsonEncode(w http.ResponseWriter, value any) error {
	return json.NewEncoder(w).Encode(value)
}

// wantsJSON is true for the JSON API and for clients that ask for JSON.
func wantsJSON(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/api/") ||
		strings.Contains(r.Header.Get("Accept"), "application/json")
}

// writeError answers in JSON for API callers and in plain text for pages.
func writeError(w http.ResponseWriter, r *http.Request, status int, code string, message string) {
	if wantsJSON(r) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = jsonEncode(w, model.APIResponse{
			Success: false,
			Error:   &model.APIError{Code: code, Message: message},
		})
		return
	}

	http.Error(w, message, status)
}
