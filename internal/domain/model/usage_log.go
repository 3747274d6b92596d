package model

import "time"

// UsageAction is a lifecycle transition recorded in the usage log.
type UsageAction string

const (
	ActionGenerated UsageAction = "generated"
	ActionUsed      UsageAction = "used"
	ActionExpired   UsageAction = "expired"
	ActionRevoked   UsageAction = "revoked"
)

// UsageLogEntry is one append-only audit record for an access code.
// Entries are never mutated or deleted.
type UsageLogEntry struct {
	ID        string      `json:"id"`
	Code      string      `json:"code"`
	Action    UsageAction `json:"action"`
	Timestamp time.Time   `json:"timestamp"`
	Details   *string     `json:"details,omitempty"`    // Pointer to allow for NULL
	IPAddress *string     `json:"ip_address,omitempty"` // Pointer to allow for NULL
}
