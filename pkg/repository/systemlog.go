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
	systemLogTable   = "logs_system"
	systemLogColumns = `id, timestamp, service_name, host_name, log_level, logger_name, thread_name, message,
		stack_trace, mdc_data, correlation_id, user_id, organization_id, request_uri, request_method,
		response_status, execution_time_ms, environment, version`

	insertSystemLog = `
		INSERT INTO logs_system (timestamp, service_name, host_name, log_level, logger_name, thread_name, message,
			stack_trace, mdc_data, correlation_id, user_id, organization_id, request_uri, request_method,
			response_status, execution_time_ms, environment, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING id`

	newestFirst = "timestamp DESC, id DESC"
)

// SystemLogRepository persists system log entries in logs_system.
type SystemLogRepository struct {
	pool *pgxpool.Pool
}

func NewSystemLogRepository(pool *pgxpool.Pool) *SystemLogRepository {
	return &SystemLogRepository{pool: pool}
}

func systemLogArgs(e model.SystemLog) []any {
	return []any{
		e.Timestamp,
		e.ServiceName,
		nullString(e.HostName),
		e.LogLevel,
		nullString(e.LoggerName),
		nullString(e.ThreadName),
		e.Message,
		nullString(e.StackTrace),
		nullString(e.MDCData),
		nullString(e.CorrelationID),
		e.UserID,
		e.OrganizationID,
		nullString(e.RequestURI),
		nullString(e.RequestMethod),
		e.ResponseStatus,
		e.ExecutionTimeMs,
		nullString(e.Environment),
		nullString(e.Version),
	}
}

func scanSystemLog(row pgx.Row) (model.SystemLog, error) {
	var (
		e                                      model.SystemLog
		host, logger, thread, stack, mdc, corr *string
		uri, method, environment, version      *string
	)
	err := row.Scan(
		&e.ID,
		&e.Timestamp,
		&e.ServiceName,
		&host,
		&e.LogLevel,
		&logger,
		&thread,
		&e.Message,
		&stack,
		&mdc,
		&corr,
		&e.UserID,
		&e.OrganizationID,
		&uri,
		&method,
		&e.ResponseStatus,
		&e.ExecutionTimeMs,
		&environment,
		&version,
	)
	if err != nil {
		return model.SystemLog{}, err
	}
	e.HostName, e.LoggerName, e.ThreadName = deref(host), deref(logger), deref(thread)
	e.StackTrace, e.MDCData, e.CorrelationID = deref(stack), deref(mdc), deref(corr)
	e.RequestURI, e.RequestMethod = deref(uri), deref(method)
	e.Environment, e.Version = deref(environment), deref(version)
	return e, nil
}

// Save inserts one entry and returns it with the assigned id.
func (r *SystemLogRepository) Save(ctx context.Context, entry model.SystemLog) (model.SystemLog, error) {
	if err := r.pool.QueryRow(ctx, insertSystemLog, systemLogArgs(entry)...).Scan(&entry.ID); err != nil {
		return model.SystemLog{}, err
	}
	return entry, nil
}

// SaveAll inserts the entries as one batch inside a transaction.
func (r *SystemLogRepository) SaveAll(ctx context.Context, entries []model.SystemLog) ([]model.SystemLog, error) {
	out := make([]model.SystemLog, len(entries))
	copy(out, entries)
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, e := range out {
			batch.Queue(insertSystemLog, systemLogArgs(e)...)
		}
		results := tx.SendBatch(ctx, batch)
		for i := range out {
			if err := results.QueryRow().Scan(&out[i].ID); err != nil {
				_ = results.Close()
				return err
			}
		}
		return results.Close()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// FindByID returns one entry, or nil if not found.
func (r *SystemLogRepository) FindByID(ctx context.Context, id int64) (*model.SystemLog, error) {
	e, err := scanSystemLog(r.pool.QueryRow(ctx, `SELECT `+systemLogColumns+` FROM logs_system WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}

func (r *SystemLogRepository) list(ctx context.Context, whereSQL, orderBy string, args ...any) ([]model.SystemLog, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+systemLogColumns+` FROM logs_system WHERE `+whereSQL+` ORDER BY `+orderBy, args...)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanSystemLog)
}

func (r *SystemLogRepository) page(ctx context.Context, whereSQL string, args []any, page model.PageRequest) (model.Page[model.SystemLog], error) {
	return paged(ctx, r.pool, systemLogTable, systemLogColumns, whereSQL, args, newestFirst, page, scanSystemLog)
}

func (r *SystemLogRepository) FindByServiceAndDateRange(ctx context.Context, service string, start, end time.Time) ([]model.SystemLog, error) {
	return r.list(ctx, `service_name = $1 AND timestamp BETWEEN $2 AND $3`, newestFirst, service, start, end)
}

func (r *SystemLogRepository) FindByLevel(ctx context.Context, level string, since time.Time, page model.PageRequest) (model.Page[model.SystemLog], error) {
	return r.page(ctx, `log_level = $1 AND timestamp >= $2`, []any{level, since}, page)
}

func (r *SystemLogRepository) FindWithStackTrace(ctx context.Context, since time.Time, page model.PageRequest) (model.Page[model.SystemLog], error) {
	return r.page(ctx, `stack_trace IS NOT NULL AND timestamp >= $1`, []any{since}, page)
}

func (r *SystemLogRepository) FindByCorrelationID(ctx context.Context, correlationID string) ([]model.SystemLog, error) {
	return r.list(ctx, `correlation_id = $1`, "timestamp ASC, id ASC", correlationID)
}

func (r *SystemLogRepository) FindSlowRequests(ctx context.Context, thresholdMs int64, since time.Time) ([]model.SystemLog, error) {
	return r.list(ctx, `execution_time_ms > $1 AND timestamp >= $2`, "execution_time_ms DESC", thresholdMs, since)
}

func (r *SystemLogRepository) FindByResponseStatusRange(ctx context.Context, lo, hi int, since time.Time, page model.PageRequest) (model.Page[model.SystemLog], error) {
	return r.page(ctx, `response_status >= $1 AND response_status < $2 AND timestamp >= $3`, []any{lo, hi, since}, page)
}

func (r *SystemLogRepository) FindByUserAndDateRange(ctx context.Context, userID int64, start, end time.Time) ([]model.SystemLog, error) {
	return r.list(ctx, `user_id = $1 AND timestamp BETWEEN $2 AND $3`, newestFirst, userID, start, end)
}

func (r *SystemLogRepository) FindByOrganization(ctx context.Context, orgID int64, page model.PageRequest) (model.Page[model.SystemLog], error) {
	return r.page(ctx, `organization_id = $1`, []any{orgID}, page)
}

func (r *SystemLogRepository) FindByServiceAndEnvironment(ctx context.Context, service, environment string, since time.Time) ([]model.SystemLog, error) {
	return r.list(ctx, `service_name = $1 AND environment = $2 AND timestamp >= $3`, newestFirst, service, environment, since)
}

func (r *SystemLogRepository) Search(ctx context.Context, filter model.SystemLogFilter, page model.PageRequest) (model.Page[model.SystemLog], error) {
	w := systemLogSearch(filter)
	return r.page(ctx, w.String(), w.args, page)
}

// systemLogSearch turns the set criteria of filter into predicates.
func systemLogSearch(f model.SystemLogFilter) *where {
	w := &where{}
	if f.ServiceName != "" {
		w.add("service_name =", f.ServiceName)
	}
	if f.LogLevel != "" {
		w.add("log_level =", f.LogLevel)
	}
	if f.UserID != nil {
		w.add("user_id =", *f.UserID)
	}
	if f.OrganizationID != nil {
		w.add("organization_id =", *f.OrganizationID)
	}
	if f.SearchTerm != "" {
		w.add("LOWER(message) LIKE", containsPattern(f.SearchTerm))
	}
	w.add("timestamp >=", f.Start)
	w.add("timestamp <=", f.End)
	return w
}

func (r *SystemLogRepository) CountByLevel(ctx context.Context, start, end time.Time) (map[string]int64, error) {
	return countGrouped(ctx, r.pool, `
		SELECT log_level, COUNT(*)
		FROM logs_system
		WHERE timestamp BETWEEN $1 AND $2
		GROUP BY log_level`, start, end)
}

func (r *SystemLogRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM logs_system WHERE timestamp < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// StreamOlderThan feeds fn oldest first from a single read-only snapshot.
func (r *SystemLogRepository) StreamOlderThan(ctx context.Context, cutoff time.Time, fn func(model.SystemLog) error) error {
	return pgx.BeginTxFunc(ctx, r.pool, readOnly, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `SELECT `+systemLogColumns+` FROM logs_system WHERE timestamp < $1 ORDER BY timestamp ASC, id ASC`, cutoff)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			e, err := scanSystemLog(rows)
			if err != nil {
				return err
			}
			if err := fn(e); err != nil {
				return err
			}
		}
		return rows.Err()
	})
}
