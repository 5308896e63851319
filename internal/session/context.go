package session

import (
	"context"
	"sync"
)

type ctxKey int

const (
	clientIDKey ctxKey = iota
	stateKey
)

// stateRef guards the request's State against the backend client, whose
// parallel calls may read the token while a 401 resets it.
type stateRef struct {
	mu    sync.RWMutex
	state *State
}

func WithClientID(ctx context.Context, clientID string) context.Context {
	return context.WithValue(ctx, clientIDKey, clientID)
}

func ClientIDFromContext(ctx context.Context) (string, bool) {
	clientID, ok := ctx.Value(clientIDKey).(string)
	return clientID, ok && clientID != ""
}

// WithState stores a pointer so the 401 hook can reset the state of the
// request that received the 401.
func WithState(ctx context.Context, state *State) context.Context {
	return context.WithValue(ctx, stateKey, &stateRef{state: state})
}

// StateFromContext returns nil when the session middleware has not run.
// Callers on the request goroutine may read and replace the State directly.
func StateFromContext(ctx context.Context) *State {
	if ref, ok := ctx.Value(stateKey).(*stateRef); ok {
		return ref.state
	}
	return nil
}

// TokenFromContext is the token source of the backend client.
func TokenFromContext(ctx context.Context) string {
	ref, ok := ctx.Value(stateKey).(*stateRef)
	if !ok || ref.state == nil {
		return ""
	}

	ref.mu.RLock()
	defer ref.mu.RUnlock()
	return ref.state.Token()
}

// resetState downgrades the request's State to unauthenticated. It reports
// the identity that was signed in, or nil if the state was already reset.
func resetState(ctx context.Context) *State {
	ref, ok := ctx.Value(stateKey).(*stateRef)
	if !ok || ref.state == nil {
		return nil
	}

	ref.mu.Lock()
	defer ref.mu.Unlock()

	previous := *ref.state
	*ref.state = Unauthenticated()
	if previous.Status == StatusUnauthenticated {
		return nil
	}
	return &previous
}
