package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"streamgate/internal/domain"
	"streamgate/internal/domain/model"
	"streamgate/internal/domain/ports/repository"
)

var _ repository.UsageLogRepository = (*usageLogRepo)(nil)

type usageLogRepo struct {
	pool *pgxpool.Pool
}

func NewUsageLogRepo(pool *pgxpool.Pool) repository.UsageLogRepository {
	return &usageLogRepo{pool: pool}
}

// Append never updates existing rows; the log is strictly insert-only.
func (r *usageLogRepo) Append(ctx context.Context, entry *model.UsageLogEntry) error {
	const q = `
INSERT INTO usage_logs (id, code, action, "timestamp", details, ip_address)
VALUES ($1, $2, $3, $4, $5, $6);
`
	_, err := r.pool.Exec(ctx, q,
		entry.ID, entry.Code, string(entry.Action), entry.Timestamp, entry.Details, entry.IPAddress,
	)
	if err != nil {
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *usageLogRepo) List(ctx context.Context, limit int) ([]*model.UsageLogEntry, error) {
	const q = `
SELECT id, code, action, "timestamp", details, ip_address
  FROM usage_logs
 ORDER BY "timestamp" DESC
 LIMIT $1;
`
	rows, err := r.pool.Query(ctx, q, limit)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.UsageLogEntry
	for rows.Next() {
		var e model.UsageLogEntry
		var action string
		if err := rows.Scan(&e.ID, &e.Code, &action, &e.Timestamp, &e.Details, &e.IPAddress); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, domain.ErrNotFound
			}
			return nil, domain.ErrReadDatabaseRow
		}
		e.Action = model.UsageAction(action)
		out = append(out, &e)
	}
	if rows.Err() != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}
