// Package middleware provides HTTP middlewares for authentication and logging.
package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/avolkov/cryptofolio/internal/models"
)

type ctxKey string

const identityKey ctxKey = "identity"

// AuthCookie is the name of the session cookie set on login.
const AuthCookie = "auth"

// Authenticator resolves a session token into a caller identity.
type Authenticator interface {
	Authenticate(ctx context.Context, token string, required models.Role) (models.Identity, error)
}

// SessionAuth enforces session-cookie authentication. It reads the auth
// cookie, resolves it through the Authenticator at the standard role,
// and stores the resulting identity in the request context. Role checks
// beyond standard stay in the services, so an elevated endpoint rejects
// with the right error instead of a generic 401.
func SessionAuth(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(AuthCookie)
			if err != nil {
				http.Error(w, models.ErrMissingToken.Error(), http.StatusUnauthorized)
				return
			}

			identity, err := auth.Authenticate(r.Context(), cookie.Value, models.RoleStandard)
			if err != nil {
				status := http.StatusUnauthorized
				if !errors.Is(err, models.ErrMissingToken) && !errors.Is(err, models.ErrInvalidToken) {
					status = http.StatusInternalServerError
				}
				http.Error(w, err.Error(), status)
				return
			}

			ctx := context.WithValue(r.Context(), identityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IdentityFromContext extracts the authenticated identity stored by
// SessionAuth. The zero Identity is returned if none is present.
func IdentityFromContext(ctx context.Context) models.Identity {
	if identity, ok := ctx.Value(identityKey).(models.Identity); ok {
		return identity
	}
	return models.Identity{}
}

// WithIdentity returns a context carrying the identity. Used by tests
// that call handlers without the middleware.
func WithIdentity(ctx context.Context, identity models.Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}
