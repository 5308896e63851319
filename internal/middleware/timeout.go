package middleware

import (
	"net/http"
	"time"
)

// Timeout bounds page rendering including the backend calls it makes.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	message := "The request took too long. Please try again."

	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, timeout, message)
	}
}
