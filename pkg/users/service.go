// Package users records portal user lifecycle operations.
package users

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/openrangelabs/middleware/pkg/apperrors"
	"github.com/openrangelabs/middleware/pkg/model"
	"github.com/openrangelabs/middleware/pkg/validation"
)

// Repository stores portal user records.
type Repository interface {
	Save(ctx context.Context, rec model.PortalUser) (model.PortalUser, error)
	FindMostRecentByUserID(ctx context.Context, userID int64) (*model.PortalUser, error)
	FindByUserID(ctx context.Context, userID int64) ([]model.PortalUser, error)
	FindByOrganization(ctx context.Context, orgID int64, page model.PageRequest) (model.Page[model.PortalUser], error)
	Search(ctx context.Context, filter model.PortalUserFilter, page model.PageRequest) (model.Page[model.PortalUser], error)
	CountByStatus(ctx context.Context, orgID int64) (map[string]int64, error)
	CountByOperationType(ctx context.Context, orgID int64) (map[string]int64, error)
	ExistsByUsername(ctx context.Context, username string, orgID int64) (bool, error)
	ExistsByEmail(ctx context.Context, email string, orgID int64) (bool, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type Service struct {
	repo   Repository
	logger zerolog.Logger
	now    func() time.Time
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger.With().Str("component", "portal_user_service").Logger(),
		now:    time.Now,
	}
}

// Record stores rec after validation. Creations must not reuse a username or
// email already recorded in the same organization.
func (s *Service) Record(ctx context.Context, rec model.PortalUser) (model.PortalUser, error) {
	if rec.Status == "" {
		rec.Status = string(model.StatusPending)
	}
	if st, err := model.ParsePortalUserStatus(rec.Status); err == nil {
		rec.Status = st.String()
	}
	if op, err := model.ParseOperationType(rec.OperationType); err == nil {
		rec.OperationType = op.String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now()
	}
	rec.CreatedAt = rec.CreatedAt.UTC().Truncate(time.Microsecond)
	if err := validation.StructAt(rec, s.now()); err != nil {
		return model.PortalUser{}, err
	}
	if rec.OperationType == string(model.OperationCreate) {
		if err := s.checkUnique(ctx, rec); err != nil {
			return model.PortalUser{}, err
		}
	}
	saved, err := s.repo.Save(ctx, rec)
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", rec.UserID).Msg("save portal user")
		return model.PortalUser{}, apperrors.Wrap("save portal user", err)
	}
	return saved, nil
}

func (s *Service) checkUnique(ctx context.Context, rec model.PortalUser) error {
	taken, err := s.repo.ExistsByUsername(ctx, rec.Username, rec.OrganizationID)
	if err != nil {
		return apperrors.Wrap("check username", err)
	}
	verr := &apperrors.ValidationError{Message: "Validation failed"}
	if taken {
		verr.Fields = append(verr.Fields, apperrors.FieldError{Field: "username", Message: "already exists in this organization"})
	}
	taken, err = s.repo.ExistsByEmail(ctx, rec.Email, rec.OrganizationID)
	if err != nil {
		return apperrors.Wrap("check email", err)
	}
	if taken {
		verr.Fields = append(verr.Fields, apperrors.FieldError{Field: "email", Message: "already exists in this organization"})
	}
	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}

// RecordEvent stores the record derived from a user lifecycle event.
func (s *Service) RecordEvent(ctx context.Context, ev model.UserEvent) (model.PortalUser, error) {
	ev = ev.WithDefaults(s.now())
	if err := validation.StructAt(ev, s.now()); err != nil {
		return model.PortalUser{}, err
	}
	return s.Record(ctx, ev.PortalUser())
}

func (s *Service) FindLatestByUserID(ctx context.Context, userID int64) (*model.PortalUser, error) {
	rec, err := s.repo.FindMostRecentByUserID(ctx, userID)
	if err != nil {
		return nil, apperrors.Wrap("find portal user", err)
	}
	return rec, nil
}

func (s *Service) FindByUserID(ctx context.Context, userID int64) ([]model.PortalUser, error) {
	list, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, apperrors.Wrap("find portal users by user", err)
	}
	return list, nil
}

func (s *Service) FindByOrganization(ctx context.Context, orgID int64, page model.PageRequest) (model.Page[model.PortalUser], error) {
	p, err := s.repo.FindByOrganization(ctx, orgID, page.Normalize())
	if err != nil {
		return model.Page[model.PortalUser]{}, apperrors.Wrap("find portal users by organization", err)
	}
	return p, nil
}

// Search applies every criterion set in filter. Start and End are required.
func (s *Service) Search(ctx context.Context, filter model.PortalUserFilter, page model.PageRequest) (model.Page[model.PortalUser], error) {
	if filter.Status != "" {
		st, err := model.ParsePortalUserStatus(filter.Status)
		if err != nil {
			return model.Page[model.PortalUser]{}, err
		}
		filter.Status = st.String()
	}
	if filter.OperationType != "" {
		op, err := model.ParseOperationType(filter.OperationType)
		if err != nil {
			return model.Page[model.PortalUser]{}, err
		}
		filter.OperationType = op.String()
	}
	if filter.Start.IsZero() || filter.End.IsZero() || filter.End.Before(filter.Start) {
		return model.Page[model.PortalUser]{}, apperrors.NewFieldError("dateRange", "start and end are required and end must not be before start")
	}
	filter.Username = strings.TrimSpace(filter.Username)
	filter.Email = strings.TrimSpace(filter.Email)
	p, err := s.repo.Search(ctx, filter, page.Normalize())
	if err != nil {
		return model.Page[model.PortalUser]{}, apperrors.Wrap("search portal users", err)
	}
	return p, nil
}

func (s *Service) CountByStatus(ctx context.Context, orgID int64) (map[string]int64, error) {
	counts, err := s.repo.CountByStatus(ctx, orgID)
	if err != nil {
		return nil, apperrors.Wrap("count portal users by status", err)
	}
	return counts, nil
}

func (s *Service) CountByOperationType(ctx context.Context, orgID int64) (map[string]int64, error) {
	counts, err := s.repo.CountByOperationType(ctx, orgID)
	if err != nil {
		return nil, apperrors.Wrap("count portal users by operation type", err)
	}
	return counts, nil
}

func (s *Service) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	n, err := s.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, apperrors.Wrap("delete old portal user events", err)
	}
	s.logger.Info().Int64("deleted", n).Time("cutoff", cutoff).Msg("deleted old portal user events")
	return n, nil
}
