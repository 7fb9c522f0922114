package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/confops/sponsor-pipeline/internal/config"
)

type ctxKey int

const identityKey ctxKey = 0

// identity returns the authenticated token identity for the request, if any.
func identity(r *http.Request) (config.TokenConfig, bool) {
	id, ok := r.Context().Value(identityKey).(config.TokenConfig)
	return id, ok
}

// actor returns the authenticated user name, or "api" when unknown.
func actor(r *http.Request) string {
	if id, ok := identity(r); ok && id.User != "" {
		return id.User
	}
	return "api"
}

// authenticate resolves the bearer token against the configured token list.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		id, ok := s.cfg.LookupToken(token)
		if !ok {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), identityKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireAdmin rejects non-admin identities.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := identity(r)
		if !ok || id.Role != config.RoleAdmin {
			writeError(w, http.StatusForbidden, "admin role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
