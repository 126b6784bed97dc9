package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openrangelabs/middleware/pkg/model"
)

const userLogColumns = `user_id, created_dt, organization_id, description, type`

// UserLogRepository persists user activity entries in logs_user.
type UserLogRepository struct {
	pool *pgxpool.Pool
}

// NewUserLogRepository returns a UserLogRepository using the given pool.
func NewUserLogRepository(pool *pgxpool.Pool) *UserLogRepository {
	return &UserLogRepository{pool: pool}
}

func scanUserLog(row pgx.Row) (model.UserLog, error) {
	var (
		e           model.UserLog
		description *string
		typ         *string
	)
	if err := row.Scan(&e.UserID, &e.CreatedAt, &e.OrganizationID, &description, &typ); err != nil {
		return model.UserLog{}, err
	}
	e.Description = deref(description)
	e.Type = deref(typ)
	return e, nil
}

// Save inserts one entry and returns the stored row.
func (r *UserLogRepository) Save(ctx context.Context, entry model.UserLog) (model.UserLog, error) {
	return scanUserLog(r.pool.QueryRow(ctx, `
		INSERT INTO logs_user (`+userLogColumns+`)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+userLogColumns,
		entry.UserID,
		entry.CreatedAt,
		entry.OrganizationID,
		nullString(entry.Description),
		nullString(entry.Type),
	))
}

// SaveAll copies every entry in one COPY statement.
func (r *UserLogRepository) SaveAll(ctx context.Context, entries []model.UserLog) ([]model.UserLog, error) {
	_, err := r.pool.CopyFrom(ctx,
		pgx.Identifier{"logs_user"},
		[]string{"user_id", "created_dt", "organization_id", "description", "type"},
		pgx.CopyFromSlice(len(entries), func(i int) ([]any, error) {
			e := entries[i]
			return []any{e.UserID, e.CreatedAt, e.OrganizationID, nullString(e.Description), nullString(e.Type)}, nil
		}),
	)
	if err != nil {
		return nil, err
	}
	out := make([]model.UserLog, len(entries))
	copy(out, entries)
	return out, nil
}

// FindByKey returns one entry by its composite key, or nil if not found.
func (r *UserLogRepository) FindByKey(ctx context.Context, key model.UserLogKey) (*model.UserLog, error) {
	e, err := scanUserLog(r.pool.QueryRow(ctx, `
		SELECT `+userLogColumns+`
		FROM logs_user WHERE user_id = $1 AND created_dt = $2`, key.UserID, key.CreatedAt))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}

func (r *UserLogRepository) FindByUser(ctx context.Context, userID int64, since time.Time, order model.SortOrder) ([]model.UserLog, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+userLogColumns+`
		FROM logs_user
		WHERE user_id = $1 AND created_dt >= $2
		ORDER BY created_dt `+order.SQL(), userID, since)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanUserLog)
}

func (r *UserLogRepository) FindByOrganization(ctx context.Context, orgID int64, since time.Time, order model.SortOrder) ([]model.UserLog, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+userLogColumns+`
		FROM logs_user
		WHERE organization_id = $1 AND created_dt >= $2
		ORDER BY created_dt `+order.SQL(), orgID, since)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanUserLog)
}

// CountByType groups in the database; untyped entries are not counted.
func (r *UserLogRepository) CountByType(ctx context.Context, userID int64, start, end time.Time) (map[string]int64, error) {
	return countGrouped(ctx, r.pool, `
		SELECT type, COUNT(*)
		FROM logs_user
		WHERE user_id = $1 AND type IS NOT NULL AND created_dt >= $2 AND created_dt < $3
		GROUP BY type`, userID, start, end)
}

func (r *UserLogRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM logs_user WHERE created_dt < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
