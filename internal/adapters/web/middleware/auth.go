package middleware

import (
	"context"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

type contextKey string

// ActorContextKey holds the identity recorded in audit entries for admin requests.
const ActorContextKey contextKey = "actor"

// AdminTokenMiddleware accepts requests whose bearer token matches the bcrypt hash.
// An empty hash disables the protected routes entirely.
func AdminTokenMiddleware(hash []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(hash) == 0 {
				http.Error(w, "Admin API disabled", http.StatusForbidden)
				return
			}

			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			token := strings.TrimPrefix(authHeader, "Bearer ")
			if err := bcrypt.CompareHashAndPassword(hash, []byte(token)); err != nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), ActorContextKey, "admin@"+clientIP(r))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Actor returns the audit identity stored by AdminTokenMiddleware.
func Actor(ctx context.Context) string {
	if a, ok := ctx.Value(ActorContextKey).(string); ok {
		return a
	}
	return "anonymous"
}
