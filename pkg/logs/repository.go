// Package logs implements the user activity and system log services: eager
// vocabulary checks, field validation, persistence through a repository,
// queries and retention.
package logs

import (
	"context"
	"time"

	"github.com/openrangelabs/middleware/pkg/model"
)

// UserLogRepository stores user activity entries keyed by (user, created at).
type UserLogRepository interface {
	Save(ctx context.Context, entry model.UserLog) (model.UserLog, error)
	// SaveAll persists every entry or none of them.
	SaveAll(ctx context.Context, entries []model.UserLog) ([]model.UserLog, error)
	FindByKey(ctx context.Context, key model.UserLogKey) (*model.UserLog, error)
	FindByUser(ctx context.Context, userID int64, since time.Time, order model.SortOrder) ([]model.UserLog, error)
	FindByOrganization(ctx context.Context, orgID int64, since time.Time, order model.SortOrder) ([]model.UserLog, error)
	// CountByType groups a user's entries in [start, end) by type.
	CountByType(ctx context.Context, userID int64, start, end time.Time) (map[string]int64, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// SystemLogRepository stores system log entries keyed by a surrogate id.
type SystemLogRepository interface {
	Save(ctx context.Context, entry model.SystemLog) (model.SystemLog, error)
	// SaveAll persists every entry or none of them and returns them with ids,
	// in input order.
	SaveAll(ctx context.Context, entries []model.SystemLog) ([]model.SystemLog, error)
	FindByID(ctx context.Context, id int64) (*model.SystemLog, error)
	FindByServiceAndDateRange(ctx context.Context, service string, start, end time.Time) ([]model.SystemLog, error)
	FindByLevel(ctx context.Context, level string, since time.Time, page model.PageRequest) (model.Page[model.SystemLog], error)
	FindWithStackTrace(ctx context.Context, since time.Time, page model.PageRequest) (model.Page[model.SystemLog], error)
	FindByCorrelationID(ctx context.Context, correlationID string) ([]model.SystemLog, error)
	FindSlowRequests(ctx context.Context, thresholdMs int64, since time.Time) ([]model.SystemLog, error)
	// FindByResponseStatusRange matches min <= status < max.
	FindByResponseStatusRange(ctx context.Context, min, max int, since time.Time, page model.PageRequest) (model.Page[model.SystemLog], error)
	FindByUserAndDateRange(ctx context.Context, userID int64, start, end time.Time) ([]model.SystemLog, error)
	FindByOrganization(ctx context.Context, orgID int64, page model.PageRequest) (model.Page[model.SystemLog], error)
	FindByServiceAndEnvironment(ctx context.Context, service, environment string, since time.Time) ([]model.SystemLog, error)
	Search(ctx context.Context, filter model.SystemLogFilter, page model.PageRequest) (model.Page[model.SystemLog], error)
	// CountByLevel groups entries with start <= timestamp <= end by level.
	CountByLevel(ctx context.Context, start, end time.Time) (map[string]int64, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
	// StreamOlderThan calls fn for every entry older than cutoff, oldest first.
	StreamOlderThan(ctx context.Context, cutoff time.Time, fn func(model.SystemLog) error) error
}

// Option configures a service.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock replaces time.Now, which decides default timestamps and the
// one-year lower bound of subject queries.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func newOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
