package middleware

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// authPaths are the credential-bearing form posts that get the strict limit.
var authPaths = map[string]struct{}{
	"/login":         {},
	"/signup":        {},
	"/verify":        {},
	"/verify/resend": {},
}

type clientLimiter struct {
	general  *rate.Limiter
	auth     *rate.Limiter
	lastSeen time.Time
}

type RateLimitMiddleware struct {
	generalRPM int
	authRPM    int
	proxies    []netip.Prefix
	mu         sync.Mutex
	clients    map[string]*clientLimiter
}

// NewRateLimitMiddleware builds a per-IP limiter. A negative generalRPM
// disables the general limit; authRPM falls back to 10.
//
// Clients are keyed by the connection address. Forwarding headers are read
// only when the connection comes from one of trustedProxies (IPs or CIDRs);
// entries that do not parse are ignored.
func NewRateLimitMiddleware(generalRPM int, authRPM int, trustedProxies ...string) *RateLimitMiddleware {
	if generalRPM == 0 {
		generalRPM = 300
	}
	if authRPM <= 0 {
		authRPM = 10
	}

	return &RateLimitMiddleware{
		generalRPM: generalRPM,
		authRPM:    authRPM,
		proxies:    parseProxies(trustedProxies),
		clients:    map[string]*clientLimiter{},
	}
}

func parseProxies(raw []string) []netip.Prefix {
	prefixes := make([]netip.Prefix, 0, len(raw))
	for _, entry := range raw {
		entry = strings.TrimSpace(entry)
		if prefix, err := netip.ParsePrefix(entry); err == nil {
			prefixes = append(prefixes, prefix.Masked())
			continue
		}
		if addr, err := netip.ParseAddr(entry); err == nil {
			addr = addr.Unmap()
			prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
		}
	}
	return prefixes
}

func isAuthAttempt(r *http.Request) bool {
	if r.Method != http.MethodPost {
		return false
	}
	_, ok := authPaths[strings.TrimSuffix(strings.ToLower(r.URL.Path), "/")]
	return ok
}

func (m *RateLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		limiter := m.getLimiter(m.clientIP(r))

		target := limiter.general
		if isAuthAttempt(r) {
			target = limiter.auth
		}

		if target != nil && !target.Allow() {
			w.Header().Set("Retry-After", "60")
			writeError(w, r, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests. Please wait a minute and try again.")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (m *RateLimitMiddleware) getLimiter(clientIP string) *clientLimiter {
	m.mu.Lock()
	defer m.mu.Unlock()

	if limiter, exists := m.clients[clientIP]; exists {
		limiter.lastSeen = time.Now()
		m.gcLocked()
		return limiter
	}

	var general *rate.Limiter
	if m.generalRPM > 0 {
		general = rate.NewLimiter(rate.Every(time.Minute/time.Duration(m.generalRPM)), m.generalRPM)
	}
	auth := rate.NewLimiter(rate.Every(time.Minute/time.Duration(m.authRPM)), m.authRPM)
	created := &clientLimiter{general: general, auth: auth, lastSeen: time.Now()}
	m.clients[clientIP] = created
	m.gcLocked()

	return created
}

func (m *RateLimitMiddleware) gcLocked() {
	if len(m.clients) < 1000 {
		return
	}

	cutoff := time.Now().Add(-10 * time.Minute)
	for ip, limiter := range m.clients {
		if limiter.lastSeen.Before(cutoff) {
			delete(m.clients, ip)
		}
	}
}

func (m *RateLimitMiddleware) trusted(addr netip.Addr) bool {
	addr = addr.Unmap()
	for _, prefix := range m.proxies {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

// clientIP walks X-Forwarded-For from the right, skipping trusted proxies,
// so a client cannot choose its own key by prepending entries.
func (m *RateLimitMiddleware) clientIP(r *http.Request) string {
	remote := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(remote); err == nil {
		remote = host
	}
	if remote == "" {
		return "unknown"
	}

	addr, err := netip.ParseAddr(remote)
	if err != nil || !m.trusted(addr) {
		return remote
	}

	forwarded := strings.Split(r.Header.Get("X-Forwarded-For"), ",")
	for i := len(forwarded) - 1; i >= 0; i-- {
		hop, err := netip.ParseAddr(strings.TrimSpace(forwarded[i]))
		if err != nil {
			break
		}
		if !m.trusted(hop) {
			return hop.Unmap().String()
		}
	}

	if realIP, err := netip.ParseAddr(strings.TrimSpace(r.Header.Get("X-Real-IP"))); err == nil {
		return realIP.Unmap().String()
	}

	return remote
}
