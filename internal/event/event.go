// Package event carries session lifecycle notifications from the session
// manager and services to whoever listens (the audit logger today).
package event

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeSessionLogin       Type = "session.login"
	TypeSessionLogout      Type = "session.logout"
	TypeSessionExpired     Type = "session.expired"
	TypeSessionLoginFailed Type = "session.login_failed"
	TypeSignup             Type = "account.signup"
	TypeEmailVerified      Type = "account.email_verified"
	TypeDatasetUploaded    Type = "dataset.uploaded"
	TypeDatasetAssigned    Type = "dataset.assigned"
	TypeTaskAnnotated      Type = "task.annotated"
)

// Domain is the part of the type before the dot: session, account,
// dataset or task.
func (t Type) Domain() string {
	domain, _, _ := strings.Cut(string(t), ".")
	return domain
}

type Event struct {
	ID        string      `json:"id"`
	Type      Type        `json:"type"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp string      `json:"timestamp"`
	ActorID   string      `json:"actor_id,omitempty"` // email of the signed-in user, when known
}

type Bus interface {
	Publish(e Event)
	// Subscribe with no types receives everything.
	Subscribe(types ...Type) (<-chan Event, func())
}

// New stamps an event with an id and the current time.
func New(eventType Type, actorID string, payload interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Payload:   payload,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		ActorID:   actorID,
	}
}

// Publish is a nil-safe helper for optional buses.
func Publish(bus Bus, e Event) {
	if bus != nil {
		bus.Publish(e)
	}
}
