package middleware

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-registration-api/internal/domain"
	"github.com/go-registration-api/internal/transport/http/problem"
)

type contextKey string

const userKey contextKey = "user"

// Authenticator verifies submitted credentials. Credential extraction lives
// here at the boundary; hash verification stays in the registration service.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (*domain.User, error)
}

// BasicAuth returns middleware that resolves HTTP Basic credentials
// (username = e-mail address) to a user and injects it into context.
func BasicAuth(svc Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			email, password, ok := r.BasicAuth()
			if !ok {
				w.Header().Set("WWW-Authenticate", `Basic realm="restricted"`)
				problem.Write(w, r, fmt.Errorf("missing credentials: %w", domain.ErrUnauthorized))
				return
			}
			u, err := svc.Authenticate(r.Context(), email, password)
			if err != nil {
				w.Header().Set("WWW-Authenticate", `Basic realm="restricted"`)
				problem.Write(w, r, err)
				return
			}
			ctx := context.WithValue(r.Context(), userKey, u)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFromContext extracts the authenticated user from the request context.
func UserFromContext(ctx context.Context) (*domain.User, bool) {
	u, ok := ctx.Value(userKey).(*domain.User)
	return u, ok
}
