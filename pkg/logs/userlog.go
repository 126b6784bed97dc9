package logs

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/openrangelabs/middleware/pkg/apperrors"
	"github.com/openrangelabs/middleware/pkg/model"
	"github.com/openrangelabs/middleware/pkg/validation"
)

// UserLogService records and queries user activity.
type UserLogService struct {
	repo   UserLogRepository
	logger zerolog.Logger
	opts   options
}

func NewUserLogService(repo UserLogRepository, logger zerolog.Logger, opts ...Option) *UserLogService {
	return &UserLogService{
		repo:   repo,
		logger: logger.With().Str("component", "user_log_service").Logger(),
		opts:   newOptions(opts),
	}
}

// prepare checks the type code before anything else, then fills defaults and
// runs the field constraints.
func (s *UserLogService) prepare(entry model.UserLog) (model.UserLog, error) {
	if entry.Type != "" {
		t, err := model.ParseUserLogType(entry.Type)
		if err != nil {
			return entry, err
		}
		entry.Type = t.Code()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.opts.now()
	}
	entry.CreatedAt = entry.CreatedAt.UTC().Truncate(time.Microsecond)
	if err := validation.StructAt(entry, s.opts.now()); err != nil {
		return entry, err
	}
	return entry, nil
}

// SaveLog validates and persists one entry.
func (s *UserLogService) SaveLog(ctx context.Context, entry model.UserLog) (model.UserLog, error) {
	entry, err := s.prepare(entry)
	if err != nil {
		return model.UserLog{}, err
	}
	saved, err := s.repo.Save(ctx, entry)
	if err != nil {
		saveFailuresTotal.WithLabelValues(kindUser).Inc()
		s.logger.Error().Err(err).Int64("user_id", entry.UserID).Msg("save user log")
		return model.UserLog{}, apperrors.Wrap("save user log", err)
	}
	savedTotal.WithLabelValues(kindUser).Inc()
	return saved, nil
}

// SaveLogsBatch validates every entry before persisting any of them.
func (s *UserLogService) SaveLogsBatch(ctx context.Context, entries []model.UserLog) ([]model.UserLog, error) {
	if len(entries) == 0 {
		return []model.UserLog{}, nil
	}
	prepared := make([]model.UserLog, len(entries))
	for i, e := range entries {
		p, err := s.prepare(e)
		if err != nil {
			return nil, indexed(i, err)
		}
		prepared[i] = p
	}
	saved, err := s.repo.SaveAll(ctx, prepared)
	if err != nil {
		saveFailuresTotal.WithLabelValues(kindUser).Add(float64(len(prepared)))
		s.logger.Error().Err(err).Int("count", len(prepared)).Msg("save user log batch")
		return nil, apperrors.Wrap("save batch of user logs", err)
	}
	savedTotal.WithLabelValues(kindUser).Add(float64(len(saved)))
	return saved, nil
}

// FindByKey returns the entry with the given composite key, or nil.
func (s *UserLogService) FindByKey(ctx context.Context, userID int64, createdAt time.Time) (*model.UserLog, error) {
	key := model.UserLogKey{UserID: userID, CreatedAt: createdAt.UTC().Truncate(time.Microsecond)}
	entry, err := s.repo.FindByKey(ctx, key)
	if err != nil {
		return nil, apperrors.Wrap("find user log", err)
	}
	return entry, nil
}

// FindByUser lists a user's entries created at or after since. A nil since
// means one year before now.
func (s *UserLogService) FindByUser(ctx context.Context, userID int64, since *time.Time, order model.SortOrder) ([]model.UserLog, error) {
	list, err := s.repo.FindByUser(ctx, userID, s.lowerBound(since), order)
	if err != nil {
		return nil, apperrors.Wrap("find user logs by user", err)
	}
	return list, nil
}

// FindByOrganization lists an organization's entries, bounded like FindByUser.
func (s *UserLogService) FindByOrganization(ctx context.Context, orgID int64, since *time.Time, order model.SortOrder) ([]model.UserLog, error) {
	list, err := s.repo.FindByOrganization(ctx, orgID, s.lowerBound(since), order)
	if err != nil {
		return nil, apperrors.Wrap("find user logs by organization", err)
	}
	return list, nil
}

func (s *UserLogService) lowerBound(since *time.Time) time.Time {
	if since != nil {
		return *since
	}
	return s.opts.now().AddDate(-1, 0, 0)
}

// CountUserLogsByType groups a user's entries in [start, end) by type code.
func (s *UserLogService) CountUserLogsByType(ctx context.Context, userID int64, start, end time.Time) (map[string]int64, error) {
	if err := checkWindow(start, end); err != nil {
		return nil, err
	}
	counts, err := s.repo.CountByType(ctx, userID, start, end)
	if err != nil {
		return nil, apperrors.Wrap("count user logs by type", err)
	}
	return counts, nil
}

// LogUserAction records an action performed by a user now.
func (s *UserLogService) LogUserAction(ctx context.Context, userID, orgID int64, typ model.UserLogType, description string) (model.UserLog, error) {
	return s.SaveLog(ctx, model.UserLog{
		UserID:         userID,
		OrganizationID: orgID,
		Type:           string(typ),
		Description:    description,
		CreatedAt:      s.opts.now(),
	})
}

func (s *UserLogService) LogLogin(ctx context.Context, userID, orgID int64) (model.UserLog, error) {
	return s.LogUserAction(ctx, userID, orgID, model.UserLogLogin, "User logged in")
}

func (s *UserLogService) LogLogout(ctx context.Context, userID, orgID int64) (model.UserLog, error) {
	return s.LogUserAction(ctx, userID, orgID, model.UserLogLogout, "User logged out")
}

// DeleteOldLogs removes every entry created before cutoff in one statement.
func (s *UserLogService) DeleteOldLogs(ctx context.Context, cutoff time.Time) (int64, error) {
	n, err := s.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, apperrors.Wrap("delete old user logs", err)
	}
	deletedTotal.WithLabelValues(kindUser).Add(float64(n))
	s.logger.Info().Int64("deleted", n).Time("cutoff", cutoff).Msg("deleted old user logs")
	return n, nil
}
