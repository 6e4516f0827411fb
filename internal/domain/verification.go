package domain

import "time"

// ValidationCode is the short-lived numeric secret proving control of a
// registered e-mail address. One row per user: issuing a new code replaces
// any outstanding one, so a superseded code can never succeed a check.
type ValidationCode struct {
	UserID    string    `json:"user_id"`
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
	Consumed  bool      `json:"consumed"`
}
