package middleware

import (
	"net/http"
	"strings"
)

// RequireAdmin gates match mutations behind a static bearer token. Status
// codes distinguish a missing header (401), a malformed one (400), and a
// wrong token (403).
func RequireAdmin(adminToken string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				http.Error(w, "Missing Authorization header", http.StatusUnauthorized)
				return
			}

			scheme, token, ok := strings.Cut(header, " ")
			if !ok || scheme != "Bearer" || token == "" {
				http.Error(w, "Invalid Authorization header", http.StatusBadRequest)
				return
			}

			if adminToken == "" || token != adminToken {
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
