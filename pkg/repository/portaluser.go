package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openrangelabs/middleware/pkg/model"
)

const (
	portalUserTable   = "portal_user"
	portalUserColumns = `id, user_id, organization_id, username, email, first_name, last_name, status,
		operation_type, created_dt, created_by, notes`
	portalUserOrder = "created_dt DESC, id DESC"
)

// PortalUserRepository persists portal user lifecycle records.
type PortalUserRepository struct {
	pool *pgxpool.Pool
}

func NewPortalUserRepository(pool *pgxpool.Pool) *PortalUserRepository {
	return &PortalUserRepository{pool: pool}
}

func scanPortalUser(row pgx.Row) (model.PortalUser, error) {
	var (
		r                             model.PortalUser
		first, last, createdBy, notes *string
	)
	err := row.Scan(&r.ID, &r.UserID, &r.OrganizationID, &r.Username, &r.Email, &first, &last,
		&r.Status, &r.OperationType, &r.CreatedAt, &createdBy, &notes)
	if err != nil {
		return model.PortalUser{}, err
	}
	r.FirstName, r.LastName = deref(first), deref(last)
	r.CreatedBy, r.Notes = deref(createdBy), deref(notes)
	return r, nil
}

func (r *PortalUserRepository) Save(ctx context.Context, rec model.PortalUser) (model.PortalUser, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO portal_user (user_id, organization_id, username, email, first_name, last_name, status,
			operation_type, created_dt, created_by, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`,
		rec.UserID,
		rec.OrganizationID,
		rec.Username,
		rec.Email,
		nullString(rec.FirstName),
		nullString(rec.LastName),
		rec.Status,
		rec.OperationType,
		rec.CreatedAt,
		nullString(rec.CreatedBy),
		nullString(rec.Notes),
	).Scan(&rec.ID)
	if err != nil {
		return model.PortalUser{}, err
	}
	return rec, nil
}

// FindMostRecentByUserID returns the latest record for the user, or nil.
func (r *PortalUserRepository) FindMostRecentByUserID(ctx context.Context, userID int64) (*model.PortalUser, error) {
	rec, err := scanPortalUser(r.pool.QueryRow(ctx, `
		SELECT `+portalUserColumns+`
		FROM portal_user WHERE user_id = $1
		ORDER BY `+portalUserOrder+` LIMIT 1`, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

func (r *PortalUserRepository) FindByUserID(ctx context.Context, userID int64) ([]model.PortalUser, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+portalUserColumns+`
		FROM portal_user WHERE user_id = $1
		ORDER BY `+portalUserOrder, userID)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanPortalUser)
}

func (r *PortalUserRepository) FindByOrganization(ctx context.Context, orgID int64, page model.PageRequest) (model.Page[model.PortalUser], error) {
	return paged(ctx, r.pool, portalUserTable, portalUserColumns, "organization_id = $1", []any{orgID}, portalUserOrder, page, scanPortalUser)
}

func (r *PortalUserRepository) Search(ctx context.Context, filter model.PortalUserFilter, page model.PageRequest) (model.Page[model.PortalUser], error) {
	w := portalUserSearch(filter)
	return paged(ctx, r.pool, portalUserTable, portalUserColumns, w.String(), w.args, portalUserOrder, page, scanPortalUser)
}

func portalUserSearch(f model.PortalUserFilter) *where {
	w := &where{}
	if f.OrganizationID != nil {
		w.add("organization_id =", *f.OrganizationID)
	}
	if f.Status != "" {
		w.add("status =", f.Status)
	}
	if f.OperationType != "" {
		w.add("operation_type =", f.OperationType)
	}
	if f.Username != "" {
		w.add("LOWER(username) LIKE", containsPattern(f.Username))
	}
	if f.Email != "" {
		w.add("LOWER(email) LIKE", containsPattern(f.Email))
	}
	w.add("created_dt >=", f.Start)
	w.add("created_dt <=", f.End)
	return w
}

func (r *PortalUserRepository) CountByStatus(ctx context.Context, orgID int64) (map[string]int64, error) {
	return countGrouped(ctx, r.pool, `SELECT status, COUNT(*) FROM portal_user WHERE organization_id = $1 GROUP BY status`, orgID)
}

func (r *PortalUserRepository) CountByOperationType(ctx context.Context, orgID int64) (map[string]int64, error) {
	return countGrouped(ctx, r.pool, `SELECT operation_type, COUNT(*) FROM portal_user WHERE organization_id = $1 GROUP BY operation_type`, orgID)
}

func (r *PortalUserRepository) exists(ctx context.Context, query string, args ...any) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (`+query+`)`, args...).Scan(&ok)
	return ok, err
}

func (r *PortalUserRepository) ExistsByUsername(ctx context.Context, username string, orgID int64) (bool, error) {
	return r.exists(ctx, `SELECT 1 FROM portal_user WHERE username = $1 AND organization_id = $2`, username, orgID)
}

func (r *PortalUserRepository) ExistsByEmail(ctx context.Context, email string, orgID int64) (bool, error) {
	return r.exists(ctx, `SELECT 1 FROM portal_user WHERE email = $1 AND organization_id = $2`, email, orgID)
}

func (r *PortalUserRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM portal_user WHERE created_dt < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
