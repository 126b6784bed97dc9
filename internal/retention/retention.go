// Package retention periodically archives and removes expired rows.
package retention

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/openrangelabs/middleware/internal/config"
	"github.com/openrangelabs/middleware/pkg/model"
)

const defaultBatchSize = 1000

var (
	archivedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "middleware",
		Subsystem: "retention",
		Name:      "archived_system_logs_total",
		Help:      "System log entries written to the archive.",
	})
	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "middleware",
		Subsystem: "retention",
		Name:      "runs_total",
		Help:      "Retention runs by outcome.",
	}, []string{"outcome"})
)

type UserLogPurger interface {
	DeleteOldLogs(ctx context.Context, cutoff time.Time) (int64, error)
}

type SystemLogPurger interface {
	DeleteOldLogs(ctx context.Context, cutoff time.Time) (int64, error)
	ExportOldLogs(ctx context.Context, cutoff time.Time, fn func(model.SystemLog) error) error
}

type PortalUserPurger interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Archiver stores one batch of system logs and returns where it went.
type Archiver interface {
	PutBatch(ctx context.Context, entries []model.SystemLog) (string, error)
}

// Result reports one run.
type Result struct {
	ArchivedBatches    int   `json:"archivedBatches"`
	ArchivedEntries    int   `json:"archivedEntries"`
	UserLogsDeleted    int64 `json:"userLogsDeleted"`
	SystemLogsDeleted  int64 `json:"systemLogsDeleted"`
	PortalUsersDeleted int64 `json:"portalUsersDeleted"`
}

type Job struct {
	cfg        config.RetentionConfig
	userLogs   UserLogPurger
	systemLogs SystemLogPurger
	portal     PortalUserPurger
	archive    Archiver
	batchSize  int
	logger     zerolog.Logger
	now        func() time.Time
}

// NewJob returns a job. archive may be nil, in which case expired system
// logs are deleted without a copy.
func NewJob(cfg config.RetentionConfig, userLogs UserLogPurger, systemLogs SystemLogPurger, portal PortalUserPurger, archive Archiver, logger zerolog.Logger) *Job {
	return &Job{
		cfg:        cfg,
		userLogs:   userLogs,
		systemLogs: systemLogs,
		portal:     portal,
		archive:    archive,
		batchSize:  defaultBatchSize,
		logger:     logger.With().Str("component", "retention").Logger(),
		now:        time.Now,
	}
}

// Run executes RunOnce every interval until ctx is done.
func (j *Job) Run(ctx context.Context) error {
	ticker := time.NewTicker(j.cfg.Interval)
	defer ticker.Stop()
	j.logger.Info().Dur("interval", j.cfg.Interval).Msg("retention started")
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := j.RunOnce(ctx); err != nil && ctx.Err() == nil {
				j.logger.Error().Err(err).Msg("retention run failed")
			}
		}
	}
}

// RunOnce archives then deletes system logs, then deletes user logs and
// portal user records. A zero max age keeps that kind forever. System logs
// are only deleted once every expired entry is archived.
func (j *Job) RunOnce(ctx context.Context) (Result, error) {
	var res Result
	now := j.now()

	if age := j.cfg.SystemLogMaxAge; age > 0 {
		cutoff := now.Add(-age)
		if j.archive != nil {
			if err := j.archiveSystemLogs(ctx, cutoff, &res); err != nil {
				runsTotal.WithLabelValues("failed").Inc()
				return res, err
			}
		}
		n, err := j.systemLogs.DeleteOldLogs(ctx, cutoff)
		if err != nil {
			runsTotal.WithLabelValues("failed").Inc()
			return res, err
		}
		res.SystemLogsDeleted = n
	}
	if age := j.cfg.UserLogMaxAge; age > 0 {
		n, err := j.userLogs.DeleteOldLogs(ctx, now.Add(-age))
		if err != nil {
			runsTotal.WithLabelValues("failed").Inc()
			return res, err
		}
		res.UserLogsDeleted = n
	}
	if age := j.cfg.PortalUserMaxAge; age > 0 {
		n, err := j.portal.DeleteOlderThan(ctx, now.Add(-age))
		if err != nil {
			runsTotal.WithLabelValues("failed").Inc()
			return res, err
		}
		res.PortalUsersDeleted = n
	}

	runsTotal.WithLabelValues("succeeded").Inc()
	j.logger.Info().
		Int("archived", res.ArchivedEntries).
		Int64("system_logs_deleted", res.SystemLogsDeleted).
		Int64("user_logs_deleted", res.UserLogsDeleted).
		Int64("portal_users_deleted", res.PortalUsersDeleted).
		Msg("retention run finished")
	return res, nil
}

func (j *Job) archiveSystemLogs(ctx context.Context, cutoff time.Time, res *Result) error {
	batch := make([]model.SystemLog, 0, j.batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		key, err := j.archive.PutBatch(ctx, batch)
		if err != nil {
			return fmt.Errorf("archive system logs: %w", err)
		}
		res.ArchivedBatches++
		res.ArchivedEntries += len(batch)
		archivedTotal.Add(float64(len(batch)))
		j.logger.Debug().Str("key", key).Int("count", len(batch)).Msg("batch archived")
		batch = make([]model.SystemLog, 0, j.batchSize)
		return nil
	}
	err := j.systemLogs.ExportOldLogs(ctx, cutoff, func(e model.SystemLog) error {
		batch = append(batch, e)
		if len(batch) >= j.batchSize {
			return flush()
		}
		return nil
	})
	if err != nil {
		return err
	}
	return flush()
}
