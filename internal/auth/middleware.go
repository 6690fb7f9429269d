package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/culthread/backoffice/internal/models"
	pkghttp "github.com/culthread/backoffice/pkg/http"
)

// contextKey is a custom type for context keys
type contextKey string

const (
	// SessionContextKey is the key for storing the validated session in context
	SessionContextKey contextKey = "session"
	// TokenContextKey is the key for storing the raw bearer token in context
	TokenContextKey contextKey = "token"
)

// SessionValidator is the guard's view of the auth façade. A nil session
// means the token is missing, expired, idle-timed-out, or tampered; the
// guard does not distinguish between those.
type SessionValidator interface {
	ValidateSession(token string) *models.Session
}

// BearerToken extracts the bearer token from the Authorization header
func BearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}

	return parts[1], true
}

// RequireSession validates the bearer token against the session store and
// injects the live session into the request context. Any validation
// failure yields a uniform 401.
func RequireSession(validator SessionValidator) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := BearerToken(r)
			if !ok {
				pkghttp.WriteUnauthorized(w, "Authentication required")
				return
			}

			session := validator.ValidateSession(token)
			if session == nil {
				pkghttp.WriteUnauthorized(w, "Authentication required")
				return
			}

			ctx := context.WithValue(r.Context(), SessionContextKey, session)
			ctx = context.WithValue(ctx, TokenContextKey, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole enforces role-based access on top of RequireSession
func RequireRole(role string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := SessionFromContext(r)
			if session == nil {
				pkghttp.WriteUnauthorized(w, "Authentication required")
				return
			}

			if session.Role != role {
				pkghttp.WriteForbidden(w, "Insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// SessionFromContext returns the validated session, or nil when the request
// did not pass through RequireSession
func SessionFromContext(r *http.Request) *models.Session {
	session, _ := r.Context().Value(SessionContextKey).(*models.Session)
	return session
}

// TokenFromContext returns the raw bearer token stored by RequireSession
func TokenFromContext(r *http.Request) string {
	token, _ := r.Context().Value(TokenContextKey).(string)
	return token
}
