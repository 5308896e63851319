package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"tagwise-console/internal/session"
)

type SessionHandler struct {
	manager *session.Manager
	views   *Views
	checks  map[string]func(ctx context.Context) error
}

// NewSessionHandler serves the public pages and session endpoints. checks
// are run by the health endpoint, keyed by component name.
func NewSessionHandler(manager *session.Manager, views *Views, checks map[string]func(ctx context.Context) error) *SessionHandler {
	return &SessionHandler{manager: manager, views: views, checks: checks}
}

func (h *SessionHandler) Home(w http.ResponseWriter, r *http.Request) {
	if state := session.StateFromContext(r.Context()); state != nil && state.IsAuthenticated() {
		http.Redirect(w, r, homeFor(state), http.StatusSeeOther)
		return
	}

	h.views.Render(w, r, http.StatusOK, "home", "Tagwise", nil)
}

func (h *SessionHandler) Unauthorized(w http.ResponseWriter, r *http.Request) {
	h.views.Render(w, r, http.StatusForbidden, "unauthorized", "Access denied", nil)
}

func (h *SessionHandler) DismissNotification(w http.ResponseWriter, r *http.Request) {
	_ = h.manager.ClearNotification(r.Context(), clientID(r))
	h.back(w, r)
}

func (h *SessionHandler) ToggleSidebar(w http.ResponseWriter, r *http.Request) {
	open, err := h.manager.ToggleSidebar(r.Context(), clientID(r))
	if wantsJSON(r) {
		if err != nil {
			writeError(w, err)
			return
		}
		writeSuccess(w, http.StatusOK, map[string]bool{"sidebarOpen": open})
		return
	}

	h.back(w, r)
}

// Snapshot returns the browser's session as JSON.
func (h *SessionHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	var state session.State
	if s := session.StateFromContext(r.Context()); s != nil {
		state = *s
	}

	writeSuccess(w, http.StatusOK, h.manager.Snapshot(r.Context(), clientID(r), state))
}

func (h *SessionHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	components := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			status = http.StatusServiceUnavailable
			components[name] = "down"
			continue
		}
		components[name] = "up"
	}

	label := "ok"
	if status != http.StatusOK {
		label = "degraded"
	}

	writeSuccess(w, status, map[string]any{"status": label, "components": components})
}

// back returns to the page the form was posted from.
func (h *SessionHandler) back(w http.ResponseWriter, r *http.Request) {
	target := "/"
	if referer := r.Referer(); referer != "" {
		if idx := strings.Index(referer, "://"); idx >= 0 {
			rest := referer[idx+3:]
			if slash := strings.Index(rest, "/"); slash >= 0 && strings.EqualFold(rest[:slash], r.Host) {
				target = rest[slash:]
			}
		}
	}
	if fromForm := r.FormValue("return"); fromForm != "" {
		target = fromForm
	}

	http.Redirect(w, r, safeReturnPath(target, "/"), http.StatusSeeOther)
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}
