package middleware

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/hongminglow/fintrack-be/internal/auth"
	"github.com/hongminglow/fintrack-be/internal/http/respond"
	"github.com/hongminglow/fintrack-be/internal/logger"
	"github.com/hongminglow/fintrack-be/internal/users"
)

type identityKey struct{}

// TokenVerifier checks bearer tokens.
type TokenVerifier interface {
	Parse(token string) (*auth.Claims, error)
}

// Authenticate rejects requests without a valid bearer ID token and stores the
// caller's identity on the request context.
func Authenticate(tokens TokenVerifier, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := extractToken(r)
		if raw == "" {
			respond.Error(w, http.StatusUnauthorized, "missing or invalid token")
			return
		}
		claims, err := tokens.Parse(raw)
		if err != nil {
			logger.Get().Debug("token rejected", zap.Error(err))
			respond.Error(w, http.StatusUnauthorized, "invalid token")
			return
		}
		id := users.Identity{UID: claims.Subject, Email: claims.Email, DisplayName: claims.Name}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}

// WithIdentity attaches an identity to ctx.
func WithIdentity(ctx context.Context, id users.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom returns the identity stored by Authenticate.
func IdentityFrom(ctx context.Context) (users.Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(users.Identity)
	return id, ok
}

func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}
