package session

import "tagwise-console/internal/model"

type Status int

const (
	// StatusLoading is the zero value: the request's session has not been
	// resolved yet.
	StatusLoading Status = iota
	StatusAuthenticated
	StatusUnauthenticated
)

func (s Status) String() string {
	switch s {
	case StatusAuthenticated:
		return "authenticated"
	case StatusUnauthenticated:
		return "unauthenticated"
	default:
		return "loading"
	}
}

// State is the session of one browser as seen by one request.
type State struct {
	Status   Status
	Identity *model.Identity

	token string
}

func Unauthenticated() State {
	return State{Status: StatusUnauthenticated}
}

func (s State) IsLoading() bool {
	return s.Status == StatusLoading
}

func (s State) IsAuthenticated() bool {
	return s.Status == StatusAuthenticated && s.Identity != nil
}

// Role is empty when no identity is loaded.
func (s State) Role() model.Role {
	if s.Identity == nil {
		return ""
	}
	return s.Identity.Role
}

// Token is the raw bearer token the state was built from.
func (s State) Token() string {
	return s.token
}
