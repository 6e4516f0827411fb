// Package problem renders RFC 9457 style problem details. It is the only
// place where domain failures pick up an HTTP status; domain code never
// talks HTTP.
package problem

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-registration-api/internal/domain"
	"github.com/go-registration-api/internal/pkg/correlation"
	"github.com/go-registration-api/internal/pkg/validate"
)

// Detail is the wire format for every error response.
type Detail struct {
	Type          string `json:"type"`
	Title         string `json:"title"`
	Detail        string `json:"detail"`
	CorrelationID string `json:"correlation_id"`
	Field         string `json:"field,omitempty"`
}

type kind struct {
	urn    string
	title  string
	status int
}

var kinds = []struct {
	sentinel error
	kind     kind
}{
	{domain.ErrValidation, kind{"urn:error:validation", "Validation Error", http.StatusUnprocessableEntity}},
	{domain.ErrConflict, kind{"urn:error:already-exists", "Already Exists", http.StatusConflict}},
	{domain.ErrNotFound, kind{"urn:error:not-found", "Not Found", http.StatusNotFound}},
	{domain.ErrUnauthorized, kind{"urn:error:invalid-credentials", "Invalid Credentials", http.StatusUnauthorized}},
	{domain.ErrCodeMismatch, kind{"urn:error:incorrect-code", "Incorrect Code", http.StatusBadRequest}},
	{domain.ErrAlreadyValidated, kind{"urn:error:user-already-validated", "User Already Validated", http.StatusConflict}},
	{domain.ErrTooManyRequests, kind{"urn:error:too-many-requests", "Too Many Requests", http.StatusTooManyRequests}},
}

var internal = kind{"urn:error:internal", "Internal Server Error", http.StatusInternalServerError}

// Write renders err as a problem detail carrying the request's correlation
// id. Errors that do not wrap a domain sentinel render as an internal error
// with a generic detail so implementation specifics never leak.
func Write(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	k, detail := resolve(ctx, err)

	d := Detail{
		Type:          k.urn,
		Title:         k.title,
		Detail:        detail,
		CorrelationID: correlation.FromContext(ctx),
	}
	var fe *validate.FieldError
	if errors.As(err, &fe) {
		d.Field = fe.Field
	}

	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(k.status)
	_ = json.NewEncoder(w).Encode(d)
}

func resolve(ctx context.Context, err error) (kind, string) {
	for _, entry := range kinds {
		if errors.Is(err, entry.sentinel) {
			return entry.kind, err.Error()
		}
	}
	slog.Error("unhandled error",
		"correlation_id", correlation.FromContext(ctx),
		"err", err,
	)
	return internal, "The server is unable to perform the requested operation."
}
