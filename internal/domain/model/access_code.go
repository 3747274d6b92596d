package model

import (
	"time"
)

// AccessCode represents a short-lived, single-use code granting temporary
// access to the streaming client.
type AccessCode struct {
	ID              string     `json:"id"`
	Code            string     `json:"code"`
	CreatedAt       time.Time  `json:"created_at"`
	ExpiresAt       time.Time  `json:"expires_at"`
	IsActive        bool       `json:"is_active"`
	UsedAt          *time.Time `json:"used_at,omitempty"` // Pointer to allow for NULL
	UsedBy          *string    `json:"used_by,omitempty"` // Pointer to allow for NULL
	DurationMinutes int        `json:"duration_minutes"`
}

// Expired reports whether the code's lifetime has elapsed at the given instant.
// A code can be expired while still flagged active in the store; the store flag
// only catches up when the code is next touched.
func (c *AccessCode) Expired(now time.Time) bool {
	return c.ExpiresAt.Before(now)
}

// ValidationResult is the outcome of a validation attempt. Negative outcomes
// (unknown, expired, already used) are results, not errors.
type ValidationResult struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message"`
}
