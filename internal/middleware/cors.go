package middleware

import (
	"net/http"
	"slices"

	"github.com/rs/cors"
)

// CORS covers the JSON endpoints under /api. Credentials are only allowed
// for an explicit origin list.
func CORS(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	handler := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		MaxAge:           3600,
		AllowCredentials: !slices.Contains(origins, "*"),
	})

	return handler.Handler
}
