package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"streamgate/internal/domain"
	"streamgate/internal/domain/model"
	"streamgate/internal/domain/ports/repository"
)

// Ensure implementation satisfies the interface.
var _ repository.AccessCodeRepository = (*accessCodeRepo)(nil)

type accessCodeRepo struct {
	pool *pgxpool.Pool
}

func NewAccessCodeRepo(pool *pgxpool.Pool) repository.AccessCodeRepository {
	return &accessCodeRepo{pool: pool}
}

const accessCodeColumns = `id, code, created_at, expires_at, is_active, used_at, used_by, duration_minutes`

func (r *accessCodeRepo) Insert(ctx context.Context, code *model.AccessCode) error {
	const q = `
INSERT INTO access_codes (id, code, created_at, expires_at, is_active, duration_minutes)
VALUES ($1, $2, $3, $4, $5, $6);
`
	_, err := r.pool.Exec(ctx, q,
		code.ID, code.Code, code.CreatedAt, code.ExpiresAt, code.IsActive, code.DurationMinutes,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrAlreadyExists
		}
		return domain.ErrOperationFailed
	}
	return nil
}

// FindActiveByCode treats inactive codes as absent; the lifecycle manager
// must not distinguish "never existed" from "already terminal".
func (r *accessCodeRepo) FindActiveByCode(ctx context.Context, code string) (*model.AccessCode, error) {
	const q = `
SELECT ` + accessCodeColumns + `
  FROM access_codes
 WHERE code = $1 AND is_active = TRUE;
`
	row := r.pool.QueryRow(ctx, q, code)
	return scanAccessCode(row)
}

// MarkUsed is the single arbiter of the ACTIVE -> USED transition: the update
// only applies while is_active still holds, so concurrent validations and
// cleanup sweeps serialize on it.
func (r *accessCodeRepo) MarkUsed(ctx context.Context, code string, usedBy string, usedAt time.Time) (bool, error) {
	const q = `
UPDATE access_codes
   SET is_active = FALSE, used_at = $2, used_by = $3
 WHERE code = $1 AND is_active = TRUE;
`
	ct, err := r.pool.Exec(ctx, q, code, usedAt, usedBy)
	if err != nil {
		return false, domain.ErrOperationFailed
	}
	return ct.RowsAffected() > 0, nil
}

func (r *accessCodeRepo) Deactivate(ctx context.Context, code string) error {
	const q = `UPDATE access_codes SET is_active = FALSE WHERE code = $1;`
	if _, err := r.pool.Exec(ctx, q, code); err != nil {
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *accessCodeRepo) ListActive(ctx context.Context) ([]*model.AccessCode, error) {
	const q = `
SELECT ` + accessCodeColumns + `
  FROM access_codes
 WHERE is_active = TRUE
 ORDER BY created_at DESC;
`
	return r.listCodes(ctx, q)
}

func (r *accessCodeRepo) CountAll(ctx context.Context) (int, error) {
	const q = `SELECT COUNT(*) FROM access_codes;`
	var count int
	if err := r.pool.QueryRow(ctx, q).Scan(&count); err != nil {
		return 0, domain.ErrReadDatabaseRow
	}
	return count, nil
}

func (r *accessCodeRepo) ListExpiredActive(ctx context.Context, now time.Time) ([]*model.AccessCode, error) {
	const q = `
SELECT ` + accessCodeColumns + `
  FROM access_codes
 WHERE is_active = TRUE AND expires_at < $1;
`
	return r.listCodes(ctx, q, now)
}

// DeactivateExpired is one atomic statement relative to concurrent reads.
func (r *accessCodeRepo) DeactivateExpired(ctx context.Context, now time.Time) (int, error) {
	const q = `
UPDATE access_codes
   SET is_active = FALSE
 WHERE is_active = TRUE AND expires_at < $1;
`
	ct, err := r.pool.Exec(ctx, q, now)
	if err != nil {
		return 0, domain.ErrOperationFailed
	}
	return int(ct.RowsAffected()), nil
}

func (r *accessCodeRepo) listCodes(ctx context.Context, q string, args ...interface{}) ([]*model.AccessCode, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.AccessCode
	for rows.Next() {
		code, err := scanAccessCode(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, code)
	}
	if rows.Err() != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}

func scanAccessCode(row pgx.Row) (*model.AccessCode, error) {
	var c model.AccessCode
	err := row.Scan(
		&c.ID, &c.Code, &c.CreatedAt, &c.ExpiresAt, &c.IsActive, &c.UsedAt, &c.UsedBy, &c.DurationMinutes,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return &c, nil
}
