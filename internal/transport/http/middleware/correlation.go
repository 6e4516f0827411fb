package middleware

import (
	"net/http"

	"github.com/go-registration-api/internal/pkg/correlation"
)

// CorrelationHeader is the request/response header carrying the correlation
// identifier for the request.
const CorrelationHeader = "X-Correlation-ID"

// Correlation adopts a client-supplied correlation identifier verbatim, or
// generates a fresh one. The identifier is set on the response before the
// handler runs, attached to the request context, and discarded with it.
func Correlation(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(CorrelationHeader)
		if id == "" {
			id = correlation.New()
		}
		w.Header().Set(CorrelationHeader, id)
		ctx := correlation.WithID(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
