// Package session turns the stored token of a browser into the per-request
// session State and owns every write to that token.
//
// Decoding does not verify the token signature. Role checks made from the
// decoded claims only decide what the console renders; the backend verifies
// the token on every call it serves.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"tagwise-console/internal/event"
	"tagwise-console/internal/model"
	"tagwise-console/internal/storage"
	"tagwise-console/internal/token"
	"tagwise-console/pkg/apierror"
)

// AuthAPI is the slice of the backend the session lifecycle needs.
type AuthAPI interface {
	Login(ctx context.Context, req model.LoginRequest) (model.LoginResponse, error)
	Signup(ctx context.Context, req model.SignupRequest) (model.MessageResponse, error)
	VerifyEmail(ctx context.Context, req model.VerifyEmailRequest) (model.MessageResponse, error)
	ResendCode(ctx context.Context, req model.ResendCodeRequest) (model.MessageResponse, error)
}

type Manager struct {
	store  storage.Store
	api    AuthAPI
	now    func() time.Time
	bus    event.Bus
	logger *slog.Logger
}

type Option func(*Manager)

func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func WithEventBus(bus event.Bus) Option {
	return func(m *Manager) { m.bus = bus }
}

func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

func NewManager(store storage.Store, api AuthAPI, opts ...Option) *Manager {
	m := &Manager{
		store:  store,
		api:    api,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Initialize rebuilds the session from the stored token. It never caches:
// expiry is re-checked on every call. Tokens that fail to decode, lack a
// required claim or have expired are removed.
func (m *Manager) Initialize(ctx context.Context, clientID string) State {
	tokens := storage.NewTokenStore(m.store, clientID)

	raw, ok, err := tokens.Get(ctx)
	if err != nil {
		m.logger.Warn("session token unreadable", "error", err)
		return Unauthenticated()
	}
	if !ok {
		return Unauthenticated()
	}

	payload, err := token.Check(raw, m.now())
	if err != nil {
		if removeErr := tokens.Remove(ctx); removeErr != nil {
			m.logger.Warn("failed to purge rejected session token", "error", removeErr)
		}

		m.logger.Info("session token rejected", "reason", err)
		if errors.Is(err, token.ErrExpired) {
			event.Publish(m.bus, event.New(event.TypeSessionExpired, "", nil))
		}
		return Unauthenticated()
	}

	identity := payload.Identity()
	return State{Status: StatusAuthenticated, Identity: &identity, token: raw}
}

// Login authenticates against the backend. On failure the prior session is
// left untouched, an error notification is recorded and the error returned.
func (m *Manager) Login(ctx context.Context, clientID string, email string, password string) (State, error) {
	email = strings.TrimSpace(email)

	resp, err := m.api.Login(ctx, model.LoginRequest{Email: email, Password: password})
	if err != nil {
		m.failLogin(ctx, clientID, email, apierror.UserMessage(err, "Login failed. Please check your credentials."))
		return m.Initialize(ctx, clientID), fmt.Errorf("login: %w", err)
	}

	if _, err := token.Check(resp.Token, m.now()); err != nil {
		m.failLogin(ctx, clientID, email, "The server returned an invalid session. Please try again.")
		return m.Initialize(ctx, clientID), fmt.Errorf("login: %w: %w", model.ErrInvalidToken, err)
	}

	if err := storage.NewTokenStore(m.store, clientID).Set(ctx, resp.Token); err != nil {
		m.failLogin(ctx, clientID, email, "Your session could not be saved. Please try again.")
		return m.Initialize(ctx, clientID), fmt.Errorf("login: %w", err)
	}

	state := m.Initialize(ctx, clientID)
	event.Publish(m.bus, event.New(event.TypeSessionLogin, email, nil))
	return state, nil
}

func (m *Manager) failLogin(ctx context.Context, clientID string, email string, message string) {
	m.notify(ctx, clientID, model.SeverityError, message)
	event.Publish(m.bus, event.New(event.TypeSessionLoginFailed, email, nil))
}

// Logout only forgets the token; the backend is not called.
func (m *Manager) Logout(ctx context.Context, clientID string) State {
	if err := storage.NewTokenStore(m.store, clientID).Remove(ctx); err != nil {
		m.logger.Warn("failed to remove session token on logout", "error", err)
	}

	actor := ""
	if previous := resetState(ctx); previous != nil && previous.Identity != nil {
		actor = previous.Identity.Email
	}

	event.Publish(m.bus, event.New(event.TypeSessionLogout, actor, nil))
	return Unauthenticated()
}

// Signup registers an account. The session is not touched; the user still
// has to verify the email and log in.
func (m *Manager) Signup(ctx context.Context, clientID string, req model.SignupRequest) error {
	req.Email = strings.TrimSpace(req.Email)

	if _, err := m.api.Signup(ctx, req); err != nil {
		m.notify(ctx, clientID, model.SeverityError, apierror.UserMessage(err, "Signup failed. Please try again."))
		return fmt.Errorf("signup: %w", err)
	}

	m.notify(ctx, clientID, model.SeveritySuccess, "Account created. Check your email for the verification code.")
	event.Publish(m.bus, event.New(event.TypeSignup, req.Email, nil))
	return nil
}

func (m *Manager) VerifyEmail(ctx context.Context, clientID string, email string, code string) error {
	email = strings.TrimSpace(email)

	req := model.VerifyEmailRequest{Email: email, Code: strings.TrimSpace(code)}
	if _, err := m.api.VerifyEmail(ctx, req); err != nil {
		m.notify(ctx, clientID, model.SeverityError, apierror.UserMessage(err, "Email verification failed."))
		return fmt.Errorf("verify email: %w", err)
	}

	m.notify(ctx, clientID, model.SeveritySuccess, "Email verified. You can now log in.")
	event.Publish(m.bus, event.New(event.TypeEmailVerified, email, nil))
	return nil
}

func (m *Manager) ResendVerificationCode(ctx context.Context, clientID string, email string) error {
	req := model.ResendCodeRequest{Email: strings.TrimSpace(email)}
	if _, err := m.api.ResendCode(ctx, req); err != nil {
		m.notify(ctx, clientID, model.SeverityError, apierror.UserMessage(err, "Could not resend the verification code."))
		return fmt.Errorf("resend verification code: %w", err)
	}

	m.notify(ctx, clientID, model.SeverityInfo, "A new verification code has been sent to "+req.Email+".")
	return nil
}

// HandleUnauthorized is the cleanup half of the 401 contract: it forgets the
// token of the browser in ctx and downgrades the request's state.
func (m *Manager) HandleUnauthorized(ctx context.Context) {
	clientID, ok := ClientIDFromContext(ctx)
	if !ok {
		return
	}

	if err := storage.NewTokenStore(m.store, clientID).Remove(ctx); err != nil {
		m.logger.Warn("failed to purge session token after 401", "error", err)
	}

	if StateFromContext(ctx) == nil {
		event.Publish(m.bus, event.New(event.TypeSessionExpired, "", nil))
		return
	}

	// Parallel calls of one request may each see the 401; report it once.
	previous := resetState(ctx)
	if previous == nil {
		return
	}
	actor := ""
	if previous.Identity != nil {
		actor = previous.Identity.Email
	}
	event.Publish(m.bus, event.New(event.TypeSessionExpired, actor, nil))
}

// Notification returns nil when nothing is pending.
func (m *Manager) Notification(ctx context.Context, clientID string) (*model.Notification, error) {
	raw, err := m.store.Get(ctx, storage.KeysFor(clientID).Notice())
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read notification: %w", err)
	}

	var n model.Notification
	if err := json.Unmarshal([]byte(raw), &n); err != nil || n.Message == "" {
		return nil, nil
	}

	return &n, nil
}

func (m *Manager) SetNotification(ctx context.Context, clientID string, n model.Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}

	if err := m.store.Set(ctx, storage.KeysFor(clientID).Notice(), string(payload)); err != nil {
		return fmt.Errorf("store notification: %w", err)
	}
	return nil
}

func (m *Manager) ClearNotification(ctx context.Context, clientID string) error {
	if err := m.store.Remove(ctx, storage.KeysFor(clientID).Notice()); err != nil {
		return fmt.Errorf("clear notification: %w", err)
	}
	return nil
}

func (m *Manager) notify(ctx context.Context, clientID string, severity model.Severity, message string) {
	if err := m.SetNotification(ctx, clientID, model.Notification{Message: message, Severity: severity}); err != nil {
		m.logger.Warn("failed to record notification", "error", err)
	}
}

// SidebarOpen defaults to true when no preference is stored.
func (m *Manager) SidebarOpen(ctx context.Context, clientID string) bool {
	raw, err := m.store.Get(ctx, storage.KeysFor(clientID).SidebarOpen())
	if err != nil {
		return true
	}
	return raw != "false"
}

func (m *Manager) SetSidebarOpen(ctx context.Context, clientID string, open bool) error {
	value := "false"
	if open {
		value = "true"
	}

	if err := m.store.Set(ctx, storage.KeysFor(clientID).SidebarOpen(), value); err != nil {
		return fmt.Errorf("store sidebar preference: %w", err)
	}
	return nil
}

func (m *Manager) ToggleSidebar(ctx context.Context, clientID string) (bool, error) {
	open := !m.SidebarOpen(ctx, clientID)
	return open, m.SetSidebarOpen(ctx, clientID, open)
}

// Snapshot is the JSON view of a browser's session.
func (m *Manager) Snapshot(ctx context.Context, clientID string, state State) model.SessionSnapshot {
	snapshot := model.SessionSnapshot{
		Status:          state.Status.String(),
		IsAuthenticated: state.IsAuthenticated(),
		IsLoading:       state.IsLoading(),
		UserRole:        state.Role(),
		SidebarOpen:     m.SidebarOpen(ctx, clientID),
	}
	if state.Identity != nil {
		identity := *state.Identity
		snapshot.User = &identity
	}

	if n, err := m.Notification(ctx, clientID); err == nil {
		snapshot.Notification = n
	}

	return snapshot
}
