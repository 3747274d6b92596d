package repository

import (
	"context"
	"time"

	"streamgate/internal/domain/model"
)

// AccessCodeRepository is the port for the access code store. The store is the
// single source of truth for the ACTIVE -> terminal transition; MarkUsed's
// conditional update is the arbiter when validations race.
type AccessCodeRepository interface {
	// Insert persists a new active code. Returns domain.ErrAlreadyExists when
	// the code value collides with an existing row.
	Insert(ctx context.Context, code *model.AccessCode) error
	// FindActiveByCode returns the active code with the given value, or
	// domain.ErrNotFound (inactive codes are treated as absent).
	FindActiveByCode(ctx context.Context, code string) (*model.AccessCode, error)
	// MarkUsed deactivates the code and records the consumer, but only if the
	// code is still active. Reports whether the update took effect.
	MarkUsed(ctx context.Context, code string, usedBy string, usedAt time.Time) (bool, error)
	// Deactivate unconditionally clears is_active. Unknown codes are a no-op.
	Deactivate(ctx context.Context, code string) error
	// ListActive returns active codes ordered by created_at descending.
	ListActive(ctx context.Context) ([]*model.AccessCode, error)
	// CountAll returns the total number of codes ever created.
	CountAll(ctx context.Context) (int, error)
	// ListExpiredActive returns codes still flagged active whose expires_at is
	// before now.
	ListExpiredActive(ctx context.Context, now time.Time) ([]*model.AccessCode, error)
	// DeactivateExpired clears is_active for that same set in a single atomic
	// statement and returns the number of rows affected.
	DeactivateExpired(ctx context.Context, now time.Time) (int, error)
}
