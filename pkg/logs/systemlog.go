package logs

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/openrangelabs/middleware/pkg/apperrors"
	"github.com/openrangelabs/middleware/pkg/env"
	"github.com/openrangelabs/middleware/pkg/model"
	"github.com/openrangelabs/middleware/pkg/validation"
	"github.com/openrangelabs/middleware/pkg/web"
)

// SystemLogService records and queries application log events.
type SystemLogService struct {
	repo   SystemLogRepository
	logger zerolog.Logger
	opts   options
}

func NewSystemLogService(repo SystemLogRepository, logger zerolog.Logger, opts ...Option) *SystemLogService {
	return &SystemLogService{
		repo:   repo,
		logger: logger.With().Str("component", "system_log_service").Logger(),
		opts:   newOptions(opts),
	}
}

// prepare rejects an unknown level before anything else, canonicalizes the
// coded fields and runs the field constraints.
func (s *SystemLogService) prepare(entry model.SystemLog) (model.SystemLog, error) {
	level, err := model.ParseLogLevel(entry.LogLevel)
	if err != nil {
		return entry, err
	}
	entry.LogLevel = level.Code()
	if m, err := web.ParseMethod(entry.RequestMethod); err == nil {
		entry.RequestMethod = m.String()
	}
	if e, err := env.Parse(entry.Environment); err == nil {
		entry.Environment = e.String()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = s.opts.now()
	}
	entry.Timestamp = entry.Timestamp.UTC().Truncate(time.Microsecond)
	if err := validation.StructAt(entry, s.opts.now()); err != nil {
		return entry, err
	}
	return entry, nil
}

// SaveLog validates and persists one entry and returns it with its id.
func (s *SystemLogService) SaveLog(ctx context.Context, entry model.SystemLog) (model.SystemLog, error) {
	entry, err := s.prepare(entry)
	if err != nil {
		return model.SystemLog{}, err
	}
	saved, err := s.repo.Save(ctx, entry)
	if err != nil {
		saveFailuresTotal.WithLabelValues(kindSystem).Inc()
		s.logger.Error().Err(err).Str("service_name", entry.ServiceName).Msg("save system log")
		return model.SystemLog{}, apperrors.Wrap("save system log", err)
	}
	savedTotal.WithLabelValues(kindSystem).Inc()
	return saved, nil
}

// SaveLogsBatch validates every entry, then persists all of them in one call.
func (s *SystemLogService) SaveLogsBatch(ctx context.Context, entries []model.SystemLog) ([]model.SystemLog, error) {
	if len(entries) == 0 {
		return []model.SystemLog{}, nil
	}
	prepared := make([]model.SystemLog, len(entries))
	for i, e := range entries {
		p, err := s.prepare(e)
		if err != nil {
			return nil, indexed(i, err)
		}
		prepared[i] = p
	}
	saved, err := s.repo.SaveAll(ctx, prepared)
	if err != nil {
		saveFailuresTotal.WithLabelValues(kindSystem).Add(float64(len(prepared)))
		s.logger.Error().Err(err).Int("count", len(prepared)).Msg("save system log batch")
		return nil, apperrors.Wrap("save batch of system logs", err)
	}
	savedTotal.WithLabelValues(kindSystem).Add(float64(len(saved)))
	return saved, nil
}

func (s *SystemLogService) FindByID(ctx context.Context, id int64) (*model.SystemLog, error) {
	entry, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apperrors.Wrap("find system log", err)
	}
	return entry, nil
}

// FindByServiceAndDateRange lists a service's entries in [start, end], newest first.
func (s *SystemLogService) FindByServiceAndDateRange(ctx context.Context, service string, start, end time.Time) ([]model.SystemLog, error) {
	if strings.TrimSpace(service) == "" {
		return nil, apperrors.NewFieldError("serviceName", "is required")
	}
	if err := checkWindow(start, end); err != nil {
		return nil, err
	}
	list, err := s.repo.FindByServiceAndDateRange(ctx, service, start, end)
	if err != nil {
		return nil, apperrors.Wrap("find system logs by service", err)
	}
	return list, nil
}

func (s *SystemLogService) FindByLogLevel(ctx context.Context, level string, since time.Time, page model.PageRequest) (model.Page[model.SystemLog], error) {
	l, err := model.ParseLogLevel(level)
	if err != nil {
		return model.Page[model.SystemLog]{}, err
	}
	p, err := s.repo.FindByLevel(ctx, l.Code(), since, page.Normalize())
	if err != nil {
		return model.Page[model.SystemLog]{}, apperrors.Wrap("find system logs by level", err)
	}
	return p, nil
}

// FindErrorLogs pages through entries that carry a stack trace.
func (s *SystemLogService) FindErrorLogs(ctx context.Context, since time.Time, page model.PageRequest) (model.Page[model.SystemLog], error) {
	p, err := s.repo.FindWithStackTrace(ctx, since, page.Normalize())
	if err != nil {
		return model.Page[model.SystemLog]{}, apperrors.Wrap("find error logs", err)
	}
	return p, nil
}

// FindByCorrelationID returns the trail of one request, oldest first.
func (s *SystemLogService) FindByCorrelationID(ctx context.Context, correlationID string) ([]model.SystemLog, error) {
	if strings.TrimSpace(correlationID) == "" {
		return nil, apperrors.NewFieldError("correlationId", "is required")
	}
	list, err := s.repo.FindByCorrelationID(ctx, correlationID)
	if err != nil {
		return nil, apperrors.Wrap("find system logs by correlation id", err)
	}
	return list, nil
}

// FindSlowRequests lists entries slower than thresholdMs, slowest first.
func (s *SystemLogService) FindSlowRequests(ctx context.Context, thresholdMs int64, since time.Time) ([]model.SystemLog, error) {
	if thresholdMs < 0 {
		return nil, apperrors.NewFieldError("thresholdMs", "must be at least 0")
	}
	list, err := s.repo.FindSlowRequests(ctx, thresholdMs, since)
	if err != nil {
		return nil, apperrors.Wrap("find slow requests", err)
	}
	return list, nil
}

// FindByResponseStatusRange pages through entries with min <= status < max,
// e.g. 400 and 600 for every client and server error.
func (s *SystemLogService) FindByResponseStatusRange(ctx context.Context, min, max int, since time.Time, page model.PageRequest) (model.Page[model.SystemLog], error) {
	if min < 100 || max > 600 || min >= max {
		return model.Page[model.SystemLog]{}, apperrors.NewFieldError("statusRange", "must satisfy 100 <= min < max <= 600")
	}
	p, err := s.repo.FindByResponseStatusRange(ctx, min, max, since, page.Normalize())
	if err != nil {
		return model.Page[model.SystemLog]{}, apperrors.Wrap("find system logs by response status", err)
	}
	return p, nil
}

// SearchLogs applies every criterion set in filter. Start and End are required.
func (s *SystemLogService) SearchLogs(ctx context.Context, filter model.SystemLogFilter, page model.PageRequest) (model.Page[model.SystemLog], error) {
	if filter.LogLevel != "" {
		l, err := model.ParseLogLevel(filter.LogLevel)
		if err != nil {
			return model.Page[model.SystemLog]{}, err
		}
		filter.LogLevel = l.Code()
	}
	if err := checkWindow(filter.Start, filter.End); err != nil {
		return model.Page[model.SystemLog]{}, err
	}
	p, err := s.repo.Search(ctx, filter, page.Normalize())
	if err != nil {
		return model.Page[model.SystemLog]{}, apperrors.Wrap("search system logs", err)
	}
	return p, nil
}

// GetLogStatsByLevel counts entries in [start, end] per level code.
func (s *SystemLogService) GetLogStatsByLevel(ctx context.Context, start, end time.Time) (map[string]int64, error) {
	if err := checkWindow(start, end); err != nil {
		return nil, err
	}
	counts, err := s.repo.CountByLevel(ctx, start, end)
	if err != nil {
		return nil, apperrors.Wrap("count system logs by level", err)
	}
	return counts, nil
}

func (s *SystemLogService) FindByUserAndDateRange(ctx context.Context, userID int64, start, end time.Time) ([]model.SystemLog, error) {
	if err := checkWindow(start, end); err != nil {
		return nil, err
	}
	list, err := s.repo.FindByUserAndDateRange(ctx, userID, start, end)
	if err != nil {
		return nil, apperrors.Wrap("find system logs by user", err)
	}
	return list, nil
}

func (s *SystemLogService) FindByOrganizationID(ctx context.Context, orgID int64, page model.PageRequest) (model.Page[model.SystemLog], error) {
	p, err := s.repo.FindByOrganization(ctx, orgID, page.Normalize())
	if err != nil {
		return model.Page[model.SystemLog]{}, apperrors.Wrap("find system logs by organization", err)
	}
	return p, nil
}

// FindRecentByServiceAndEnvironment lists a service's entries in one
// environment from the last hours.
func (s *SystemLogService) FindRecentByServiceAndEnvironment(ctx context.Context, service, environment string, hours int) ([]model.SystemLog, error) {
	e, err := env.Parse(environment)
	if err != nil {
		return nil, err
	}
	if hours <= 0 {
		return nil, apperrors.NewFieldError("hours", "must be at least 1")
	}
	since := s.opts.now().Add(-time.Duration(hours) * time.Hour)
	list, err := s.repo.FindByServiceAndEnvironment(ctx, service, e.String(), since)
	if err != nil {
		return nil, apperrors.Wrap("find recent system logs", err)
	}
	return list, nil
}

// DeleteOldLogs removes every entry older than cutoff in one statement.
func (s *SystemLogService) DeleteOldLogs(ctx context.Context, cutoff time.Time) (int64, error) {
	n, err := s.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, apperrors.Wrap("delete old system logs", err)
	}
	deletedTotal.WithLabelValues(kindSystem).Add(float64(n))
	s.logger.Info().Int64("deleted", n).Time("cutoff", cutoff).Msg("deleted old system logs")
	return n, nil
}

// ExportOldLogs streams entries older than cutoff to fn, oldest first.
func (s *SystemLogService) ExportOldLogs(ctx context.Context, cutoff time.Time, fn func(model.SystemLog) error) error {
	if err := s.repo.StreamOlderThan(ctx, cutoff, fn); err != nil {
		return apperrors.Wrap("export old system logs", err)
	}
	return nil
}
