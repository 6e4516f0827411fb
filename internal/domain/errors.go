package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so the HTTP layer can render a problem detail without
// leaking infrastructure details. The mapping stays total: anything that does
// not wrap one of these renders as an internal error.
var (
	ErrValidation       = errors.New("validation error")
	ErrConflict         = errors.New("conflict")
	ErrNotFound         = errors.New("not found")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrCodeMismatch     = errors.New("code mismatch")
	ErrAlreadyValidated = errors.New("already validated")
	ErrTooManyRequests  = errors.New("too many requests")
)
