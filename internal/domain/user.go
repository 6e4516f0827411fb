package domain

import "time"

// User statuses. A user is created pending and flips to validated exactly
// once, when the correct validation code is submitted. The transition never
// reverts.
const (
	StatusPending   = "pending"
	StatusValidated = "validated"
)

type User struct {
	UserID       string    `json:"id"`
	EmailAddress string    `json:"email_address"`
	PasswordHash string    `json:"-"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

// Validated reports whether the user has completed e-mail validation.
func (u *User) Validated() bool {
	return u.Status == StatusValidated
}

// PublicUser is the projection returned over HTTP. The credential hash never
// leaves the domain layer.
type PublicUser struct {
	UserID       string    `json:"id"`
	EmailAddress string    `json:"email_address"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

// Public returns the user's public projection.
func (u *User) Public() *PublicUser {
	return &PublicUser{
		UserID:       u.UserID,
		EmailAddress: u.EmailAddress,
		Status:       u.Status,
		CreatedAt:    u.CreatedAt,
	}
}

type CreateUserRequest struct {
	EmailAddress string `json:"email_address" validate:"required,email"`
	Password     string `json:"password" validate:"required,max=72"`
}

type ValidateUserRequest struct {
	Code string `json:"code" validate:"required"`
}
