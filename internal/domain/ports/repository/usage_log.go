package repository

import (
	"context"

	"streamgate/internal/domain/model"
)

// UsageLogRepository is the port for the append-only audit trail. Append is a
// best-effort side channel: callers catch and swallow its failures so the
// primary operation is never affected.
type UsageLogRepository interface {
	Append(ctx context.Context, entry *model.UsageLogEntry) error
	// List returns the most recent entries ordered by timestamp descending.
	List(ctx context.Context, limit int) ([]*model.UsageLogEntry, error)
}
