// Package guard decides, per request, whether a role-restricted page renders.
package guard

import (
	"net/http"
	"net/url"
	"slices"

	"tagwise-console/internal/model"
	"tagwise-console/internal/session"
)

type Action int

const (
	ActionRender Action = iota
	ActionSuspend
	ActionRedirect
)

type Reason string

const (
	ReasonNone            Reason = ""
	ReasonLoading         Reason = "loading"
	ReasonUnauthenticated Reason = "unauthenticated"
	ReasonRoleMissing     Reason = "role_missing"
	ReasonRoleNotAllowed  Reason = "role_not_allowed"
)

const (
	LoginPath        = "/login"
	UnauthorizedPath = "/unauthorized"
)

type Decision struct {
	Action Action
	Target string
	Reason Reason
}

// Evaluate is the pure admission table. requested is the path (with query)
// the user asked for; it is carried to the login page as ?from=.
func Evaluate(state session.State, allowed []model.Role, requested string) Decision {
	switch {
	case state.IsLoading():
		return Decision{Action: ActionSuspend, Reason: ReasonLoading}
	case !state.IsAuthenticated():
		return Decision{Action: ActionRedirect, Target: LoginTarget(requested), Reason: ReasonUnauthenticated}
	case state.Role() == "":
		return Decision{Action: ActionRedirect, Target: UnauthorizedPath, Reason: ReasonRoleMissing}
	case !slices.Contains(allowed, state.Role()):
		return Decision{Action: ActionRedirect, Target: UnauthorizedPath, Reason: ReasonRoleNotAllowed}
	default:
		return Decision{Action: ActionRender}
	}
}

func LoginTarget(requested string) string {
	if requested == "" {
		return LoginPath
	}
	return LoginPath + "?from=" + url.QueryEscape(requested)
}

// Require guards a subtree. A request whose session is still loading gets
// 204 and no body.
func Require(roles ...model.Role) func(http.Handler) http.Handler {
	allowed := slices.Clone(roles)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var state session.State
			if s := session.StateFromContext(r.Context()); s != nil {
				state = *s
			}

			decision := Evaluate(state, allowed, r.URL.RequestURI())
			switch decision.Action {
			case ActionSuspend:
				w.WriteHeader(http.StatusNoContent)
			case ActionRedirect:
				http.Redirect(w, r, decision.Target, http.StatusSeeOther)
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}
