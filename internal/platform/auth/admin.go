package auth

import (
	"net/http"
	"strings"
)

// RoleAdmin is the role the auth service assigns to moderators.
const RoleAdmin = "ADMIN"

// IsAdmin reports whether role grants moderation rights.
func IsAdmin(role string) bool {
	return strings.EqualFold(strings.TrimSpace(role), RoleAdmin)
}

// RequireAdmin allows request only if RequireUser already injected an
// ADMIN role into context.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		role, _ := RoleFromContext(r.Context())
		if !IsAdmin(role) {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
