package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"unicode"

	"github.com/go-chi/chi/v5"

	"tagwise-console/internal/guard"
	"tagwise-console/internal/model"
	"tagwise-console/internal/session"
	"tagwise-console/pkg/apierror"
)

func writeSuccess(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: true,
		Data:    data,
	})
}

func writeError(w http.ResponseWriter, err error) {
	status, body := classify(err)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: false,
		Error:   body,
	})
}

func classify(err error) (int, *model.APIError) {
	status := http.StatusInternalServerError
	body := &model.APIError{
		Code:    "INTERNAL_ERROR",
		Message: "Unexpected server error",
	}

	var apiErr *apierror.APIError
	switch {
	case errors.Is(err, model.ErrUnauthorized):
		status = http.StatusUnauthorized
		body.Code = "UNAUTHORIZED"
		body.Message = "Your session has expired. Please log in again."
	case errors.Is(err, model.ErrForbidden):
		status = http.StatusForbidden
		body.Code = "FORBIDDEN"
		body.Message = "Access denied. You do not have permission to perform this action."
	case errors.Is(err, model.ErrDatasetNotFound):
		status = http.StatusNotFound
		body.Code = "NOT_FOUND"
		body.Message = "Dataset not found"
	case errors.Is(err, model.ErrTaskNotFound):
		status = http.StatusNotFound
		body.Code = "NOT_FOUND"
		body.Message = "Task not found"
	case errors.Is(err, model.ErrAnnotatorNotFound):
		status = http.StatusNotFound
		body.Code = "NOT_FOUND"
		body.Message = "Annotator not found"
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatus
		if status < 400 {
			status = http.StatusBadGateway
		}
		body.Code = apiErr.Code
		body.Message = apiErr.Message
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
		body.Code = "TIMEOUT"
		body.Message = "The annotation service took too long to respond."
	case errors.Is(err, model.ErrInvalidInput):
		status = http.StatusBadRequest
		body.Code = "BAD_REQUEST"
		body.Message = "Invalid input"
	default:
		// Log unclassified errors so they are visible in container logs.
		slog.Error("unhandled error", "error", err.Error())
	}

	return status, body
}

// fail answers a page request that hit an error. 401s only ever surface as
// a redirect to the login page; 403s go to the unauthorized page.
func (v *Views) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, model.ErrUnauthorized):
		target := guard.LoginPath
		if r.Method == http.MethodGet {
			target = guard.LoginTarget(r.URL.RequestURI())
		}
		http.Redirect(w, r, target, http.StatusSeeOther)
	case errors.Is(err, model.ErrForbidden):
		http.Redirect(w, r, guard.UnauthorizedPath, http.StatusSeeOther)
	default:
		status, body := classify(err)
		v.ErrorPage(w, r, status, body.Message)
	}
}

// notifyAndRedirect records a notification for the browser and sends it to
// target (post/redirect/get).
func (v *Views) notifyAndRedirect(w http.ResponseWriter, r *http.Request, severity model.Severity, message string, target string) {
	if clientID, ok := session.ClientIDFromContext(r.Context()); ok {
		if err := v.manager.SetNotification(r.Context(), clientID, model.Notification{Message: message, Severity: severity}); err != nil {
			slog.Warn("failed to record notification", "error", err)
		}
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// failForm reports a form error as a notification and returns the user to
// the form. Session and permission errors still take precedence.
func (v *Views) failForm(w http.ResponseWriter, r *http.Request, err error, target string) {
	if errors.Is(err, model.ErrUnauthorized) || errors.Is(err, model.ErrForbidden) {
		v.fail(w, r, err)
		return
	}

	_, body := classify(err)
	v.notifyAndRedirect(w, r, model.SeverityError, body.Message, target)
}

func int64Param(r *http.Request, name string) (int64, bool) {
	value, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || value <= 0 {
		return 0, false
	}
	return value, true
}

// safeReturnPath accepts only same-site absolute paths. Browsers drop tabs
// and newlines from URLs, so "/\t/host" is treated like "//host".
func safeReturnPath(raw string, fallback string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || !strings.HasPrefix(raw, "/") {
		return fallback
	}

	for _, c := range raw {
		if unicode.IsControl(c) {
			return fallback
		}
	}

	stripped := strings.NewReplacer("\t", "", "\n", "", "\r", "").Replace(raw)
	if strings.HasPrefix(stripped, "//") || strings.HasPrefix(stripped, `/\`) {
		return fallback
	}

	parsed, err := url.Parse(raw)
	if err != nil || parsed.Scheme != "" || parsed.Host != "" || parsed.Opaque != "" {
		return fallback
	}

	return raw
}

func homeFor(state *session.State) string {
	if state == nil || !state.IsAuthenticated() {
		return "/"
	}
	switch state.Role() {
	case model.RoleAdmin:
		return "/admin"
	case model.RoleAnnotator:
		return "/annotator"
	default:
		return guard.UnauthorizedPath
	}
}

func clientID(r *http.Request) string {
	id, _ := session.ClientIDFromContext(r.Context())
	return id
}

func currentIdentity(r *http.Request) (model.Identity, bool) {
	state := session.StateFromContext(r.Context())
	if state == nil || !state.IsAuthenticated() {
		return model.Identity{}, false
	}
	return *state.Identity, true
}
