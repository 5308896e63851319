package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"tagwise-console/internal/session"
)

// SessionMiddleware binds every request to a browser (via the client-id
// cookie) and resolves that browser's session State once per request.
type SessionMiddleware struct {
	manager    *session.Manager
	cookieName string
	secure     bool
	maxAge     time.Duration
}

func NewSessionMiddleware(manager *session.Manager, cookieName string, secure bool, maxAge time.Duration) *SessionMiddleware {
	if cookieName == "" {
		cookieName = "tagwise_client"
	}
	if maxAge <= 0 {
		maxAge = 30 * 24 * time.Hour
	}

	return &SessionMiddleware{manager: manager, cookieName: cookieName, secure: secure, maxAge: maxAge}
}

func (m *SessionMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID := m.clientID(w, r)

		ctx := session.WithClientID(r.Context(), clientID)
		state := m.manager.Initialize(ctx, clientID)
		ctx = session.WithState(ctx, &state)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// clientID returns the browser's id, issuing a fresh cookie when the request
// carries none or a value that is not a UUID.
func (m *SessionMiddleware) clientID(w http.ResponseWriter, r *http.Request) string {
	if cookie, err := r.Cookie(m.cookieName); err == nil {
		if parsed, err := uuid.Parse(cookie.Value); err == nil {
			return parsed.String()
		}
	}

	clientID := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    clientID,
		Path:     "/",
		MaxAge:   int(m.maxAge.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})

	return clientID
}
