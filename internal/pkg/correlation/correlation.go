package correlation

import (
	"context"

	"github.com/google/uuid"
)

type ctxKey struct{}

// New generates a fresh correlation identifier (UUID v4).
func New() string {
	return uuid.NewString()
}

// WithID attaches a correlation identifier to the context. The identifier is
// request-scoped and never persisted.
func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the correlation identifier for the current request, or
// an empty string outside of a request.
func FromContext(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}
