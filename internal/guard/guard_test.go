package guard

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"tagwise-console/internal/model"
	"tagwise-console/internal/session"
)

func authenticated(role model.Role) session.State {
	return session.State{
		Status:   session.StatusAuthenticated,
		Identity: &model.Identity{UserID: "1", Email: "a@b.com", Role: role},
	}
}

func TestEvaluate(t *testing.T) {
	admin := []model.Role{model.RoleAdmin}

	tests := []struct {
		name     string
		state    session.State
		allowed  []model.Role
		expected Decision
	}{
		{
			name:     "loading suspends",
			state:    session.State{},
			allowed:  admin,
			expected: Decision{Action: ActionSuspend, Reason: ReasonLoading},
		},
		{
			name:     "unauthenticated goes to login with the requested path",
			state:    session.Unauthenticated(),
			allowed:  admin,
			expected: Decision{Action: ActionRedirect, Target: "/login?from=%2Fadmin", Reason: ReasonUnauthenticated},
		},
		{
			name:     "annotator on an admin page is unauthorized",
			state:    authenticated(model.RoleAnnotator),
			allowed:  admin,
			expected: Decision{Action: ActionRedirect, Target: "/unauthorized", Reason: ReasonRoleNotAllowed},
		},
		{
			name:     "admin on an admin page renders",
			state:    authenticated(model.RoleAdmin),
			allowed:  admin,
			expected: Decision{Action: ActionRender},
		},
		{
			name:     "authenticated without a role is unauthorized",
			state:    authenticated(""),
			allowed:  admin,
			expected: Decision{Action: ActionRedirect, Target: "/unauthorized", Reason: ReasonRoleMissing},
		},
		{
			name:     "roles are not hierarchical",
			state:    authenticated(model.RoleAdmin),
			allowed:  []model.Role{model.RoleAnnotator},
			expected: Decision{Action: ActionRedirect, Target: "/unauthorized", Reason: ReasonRoleNotAllowed},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Evaluate(tt.state, tt.allowed, "/admin"))
		})
	}
}

func TestRequire(t *testing.T) {
	rendered := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("dashboard"))
	})
	handler := Require(model.RoleAdmin)(rendered)

	serve := func(state *session.State) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/admin/datasets?page=2", nil)
		if state != nil {
			req = req.WithContext(session.WithState(req.Context(), state))
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	t.Run("no resolved session yet returns 204", func(t *testing.T) {
		rec := serve(nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Empty(t, rec.Body.String())
	})

	t.Run("anonymous visitors are sent to login", func(t *testing.T) {
		state := session.Unauthenticated()
		rec := serve(&state)
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/login?from=%2Fadmin%2Fdatasets%3Fpage%3D2", rec.Header().Get("Location"))
	})

	t.Run("annotators are sent to unauthorized", func(t *testing.T) {
		state := authenticated(model.RoleAnnotator)
		rec := serve(&state)
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/unauthorized", rec.Header().Get("Location"))
	})

	t.Run("admins see the page", func(t *testing.T) {
		state := authenticated(model.RoleAdmin)
		rec := serve(&state)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "dashboard", rec.Body.String())
	})
}
