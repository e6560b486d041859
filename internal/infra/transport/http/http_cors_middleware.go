package http

import (
	"net/http"
	"slices"
	"strings"
)

// CORSConfig controls which browser origins may call the API.
type CORSConfig struct {
	AllowedOrigins   []string `env:"ALLOWED_ORIGINS"   default:"http://localhost:3000"`
	AllowedMethods   []string `env:"ALLOWED_METHODS"   default:"GET,POST,PUT,DELETE,OPTIONS"`
	AllowedHeaders   []string `env:"ALLOWED_HEADERS"   default:"Content-Type,X-Request-ID"`
	AllowCredentials bool     `env:"ALLOW_CREDENTIALS" default:"false"`
}

// CORSMiddleware answers preflight requests and sets the CORS response headers
// for allowed origins. Requests from other origins pass through without them.
func CORSMiddleware(next http.Handler, cfg CORSConfig) http.Handler {
	joinedMethods := strings.Join(cfg.AllowedMethods, ", ")
	joinedHeaders := strings.Join(cfg.AllowedHeaders, ", ")
	wildcard := slices.Contains(cfg.AllowedOrigins, "*")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" {
			next.ServeHTTP(w, r)

			return
		}

		preflight := r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != ""

		if !originAllowed(origin, cfg.AllowedOrigins) {
			if preflight {
				w.WriteHeader(http.StatusNoContent)

				return
			}

			next.ServeHTTP(w, r)

			return
		}

		header := w.Header()
		header.Add("Vary", "Origin")
		header.Set("Access-Control-Allow-Methods", joinedMethods)
		header.Set("Access-Control-Allow-Headers", joinedHeaders)
		header.Set("Access-Control-Expose-Headers", TraceIDHeader+", Location")

		if cfg.AllowCredentials {
			header.Set("Access-Control-Allow-Credentials", "true")
		}

		if wildcard && !cfg.AllowCredentials {
			header.Set("Access-Control-Allow-Origin", "*")
		} else {
			header.Set("Access-Control-Allow-Origin", origin)
		}

		if preflight {
			w.WriteHeader(http.StatusNoContent)

			return
		}

		next.ServeHTTP(w, r)
	})
}

func originAllowed(origin string, allowed []string) bool {
	for _, candidate := range allowed {
		if candidate == "*" || strings.EqualFold(candidate, origin) {
			return true
		}
	}

	return false
}
