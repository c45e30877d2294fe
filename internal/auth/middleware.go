// ABOUTME: HTTP middleware for JWT authentication and role gating
// ABOUTME: Extracts the bearer token, resolves the user, and adds it to the request context

package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/zapdesk/zapdesk/internal/store"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const userContextKey contextKey = "auth_user"

// UserStore defines what the middleware needs to resolve authenticated users
type UserStore interface {
	GetUser(ctx context.Context, id string) (*store.User, error)
}

// FromContext returns the authenticated user attached to the request
// context, or nil when the request is unauthenticated.
func FromContext(ctx context.Context) *store.User {
	user, _ := ctx.Value(userContextKey).(*store.User)
	return user
}

// WithUser returns a context carrying the authenticated user. Exposed for tests.
func WithUser(ctx context.Context, user *store.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// extractBearerToken extracts a bearer token from the Authorization header.
// Returns the token and an error message (empty if successful).
func extractBearerToken(authHeader string) (string, string) {
	if authHeader == "" {
		return "", "missing authorization header"
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", "invalid authorization header format"
	}
	token := strings.TrimPrefix(authHeader, "Bearer ")
	if token == "" {
		return "", "empty token"
	}
	return token, ""
}

// Middleware creates an HTTP middleware that validates bearer JWTs, resolves
// the user, and attaches it to the request context. A token whose subject no
// longer exists in the user collection is rejected.
func Middleware(users UserStore, verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, errMsg := extractBearerToken(r.Header.Get("Authorization"))
			if errMsg != "" {
				writeAuthError(w, http.StatusUnauthorized, errMsg)
				return
			}

			userID, err := verifier.Verify(token)
			if err != nil {
				writeAuthError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			user, err := users.GetUser(r.Context(), userID)
			if err != nil {
				writeAuthError(w, http.StatusUnauthorized, "user not found")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// RequireRole creates a middleware that rejects requests whose authenticated
// user does not hold the given role. Must run after Middleware.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := FromContext(r.Context())
			if user == nil {
				writeAuthError(w, http.StatusUnauthorized, "not authenticated")
				return
			}
			if user.Role != role {
				writeAuthError(w, http.StatusForbidden, "insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeAuthError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write([]byte(`{"error":"` + msg + `"}`))
}
