package auth

import (
	"net/http"
	"strings"

	"github.com/example/mflix/internal/platform/api"
	"github.com/example/mflix/internal/platform/httpserver"
)

// RoleAdmin grants access to reports such as the critics list.
const RoleAdmin = "admin"

// RequireAdmin must run after RequireUser.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !IsAdmin(r) {
			api.Forbidden(w, "admin role required", httpserver.RequestIDFromContext(r.Context()))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func IsAdmin(r *http.Request) bool {
	role, _ := RoleFromContext(r.Context())
	return strings.EqualFold(strings.TrimSpace(role), RoleAdmin)
}
