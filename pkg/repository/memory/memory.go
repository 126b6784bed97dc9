// Package memory provides in-process repositories with the same semantics as
// the PostgreSQL ones. They back the service when no database is configured
// and serve as test doubles.
package memory

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/openrangelabs/middleware/pkg/model"
)

// ErrDuplicateKey mirrors a primary key violation.
var ErrDuplicateKey = errors.New("duplicate key")

type userKey struct {
	userID int64
	nanos  int64
}

func keyOf(k model.UserLogKey) userKey {
	return userKey{userID: k.UserID, nanos: k.CreatedAt.UnixNano()}
}

// UserLogs is an in-memory logs.UserLogRepository.
type UserLogs struct {
	mu   sync.RWMutex
	rows map[userKey]model.UserLog
}

func NewUserLogs() *UserLogs {
	return &UserLogs{rows: make(map[userKey]model.UserLog)}
}

func (s *UserLogs) Save(_ context.Context, entry model.UserLog) (model.UserLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := keyOf(entry.Key())
	if _, ok := s.rows[k]; ok {
		return model.UserLog{}, ErrDuplicateKey
	}
	s.rows[k] = entry
	return entry, nil
}

func (s *UserLogs) SaveAll(_ context.Context, entries []model.UserLog) ([]model.UserLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[userKey]bool, len(entries))
	for _, e := range entries {
		k := keyOf(e.Key())
		if _, ok := s.rows[k]; ok || seen[k] {
			return nil, ErrDuplicateKey
		}
		seen[k] = true
	}
	for _, e := range entries {
		s.rows[keyOf(e.Key())] = e
	}
	return slices.Clone(entries), nil
}

func (s *UserLogs) FindByKey(_ context.Context, key model.UserLogKey) (*model.UserLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.rows[keyOf(key)]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (s *UserLogs) filter(keep func(model.UserLog) bool, order model.SortOrder) []model.UserLog {
	s.mu.RLock()
	out := make([]model.UserLog, 0)
	for _, e := range s.rows {
		if keep(e) {
			out = append(out, e)
		}
	}
	s.mu.RUnlock()
	slices.SortFunc(out, func(a, b model.UserLog) int {
		c := a.CreatedAt.Compare(b.CreatedAt)
		if order == model.Descending {
			return -c
		}
		return c
	})
	return out
}

func (s *UserLogs) FindByUser(_ context.Context, userID int64, since time.Time, order model.SortOrder) ([]model.UserLog, error) {
	return s.filter(func(e model.UserLog) bool {
		return e.UserID == userID && !e.CreatedAt.Before(since)
	}, order), nil
}

func (s *UserLogs) FindByOrganization(_ context.Context, orgID int64, since time.Time, order model.SortOrder) ([]model.UserLog, error) {
	return s.filter(func(e model.UserLog) bool {
		return e.OrganizationID == orgID && !e.CreatedAt.Before(since)
	}, order), nil
}

func (s *UserLogs) CountByType(_ context.Context, userID int64, start, end time.Time) (map[string]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[string]int64)
	for _, e := range s.rows {
		if e.UserID == userID && e.Type != "" && !e.CreatedAt.Before(start) && e.CreatedAt.Before(end) {
			counts[e.Type]++
		}
	}
	return counts, nil
}

func (s *UserLogs) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for k, e := range s.rows {
		if e.CreatedAt.Before(cutoff) {
			delete(s.rows, k)
			n++
		}
	}
	return n, nil
}

// SystemLogs is an in-memory logs.SystemLogRepository.
type SystemLogs struct {
	mu     sync.RWMutex
	rows   []model.SystemLog
	nextID int64
}

func NewSystemLogs() *SystemLogs {
	return &SystemLogs{nextID: 1}
}

func (s *SystemLogs) Save(_ context.Context, entry model.SystemLog) (model.SystemLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry.ID = s.nextID
	s.nextID++
	s.rows = append(s.rows, entry)
	return entry, nil
}

func (s *SystemLogs) SaveAll(_ context.Context, entries []model.SystemLog) ([]model.SystemLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.SystemLog, len(entries))
	for i, e := range entries {
		e.ID = s.nextID
		s.nextID++
		out[i] = e
	}
	s.rows = append(s.rows, out...)
	return slices.Clone(out), nil
}

func (s *SystemLogs) FindByID(_ context.Context, id int64) (*model.SystemLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.rows {
		if e.ID == id {
			return &e, nil
		}
	}
	return nil, nil
}

func (s *SystemLogs) collect(keep func(model.SystemLog) bool, cmpFn func(a, b model.SystemLog) int) []model.SystemLog {
	s.mu.RLock()
	out := make([]model.SystemLog, 0)
	for _, e := range s.rows {
		if keep(e) {
			out = append(out, e)
		}
	}
	s.mu.RUnlock()
	slices.SortStableFunc(out, cmpFn)
	return out
}

func newestFirst(a, b model.SystemLog) int { return b.Timestamp.Compare(a.Timestamp) }
func oldestFirst(a, b model.SystemLog) int { return a.Timestamp.Compare(b.Timestamp) }

func paginate[T any](all []T, req model.PageRequest) model.Page[T] {
	req = req.Normalize()
	from := min(req.Offset(), len(all))
	to := min(from+req.Size, len(all))
	return model.NewPage(slices.Clone(all[from:to]), req, int64(len(all)))
}

func within(t, start, end time.Time) bool { return !t.Before(start) && !t.After(end) }

func (s *SystemLogs) FindByServiceAndDateRange(_ context.Context, service string, start, end time.Time) ([]model.SystemLog, error) {
	return s.collect(func(e model.SystemLog) bool {
		return e.ServiceName == service && within(e.Timestamp, start, end)
	}, newestFirst), nil
}

func (s *SystemLogs) FindByLevel(_ context.Context, level string, since time.Time, page model.PageRequest) (model.Page[model.SystemLog], error) {
	return paginate(s.collect(func(e model.SystemLog) bool {
		return e.LogLevel == level && !e.Timestamp.Before(since)
	}, newestFirst), page), nil
}

func (s *SystemLogs) FindWithStackTrace(_ context.Context, since time.Time, page model.PageRequest) (model.Page[model.SystemLog], error) {
	return paginate(s.collect(func(e model.SystemLog) bool {
		return e.StackTrace != "" && !e.Timestamp.Before(since)
	}, newestFirst), page), nil
}

func (s *SystemLogs) FindByCorrelationID(_ context.Context, correlationID string) ([]model.SystemLog, error) {
	return s.collect(func(e model.SystemLog) bool {
		return e.CorrelationID == correlationID
	}, oldestFirst), nil
}

func (s *SystemLogs) FindSlowRequests(_ context.Context, thresholdMs int64, since time.Time) ([]model.SystemLog, error) {
	return s.collect(func(e model.SystemLog) bool {
		return e.ExecutionTimeMs != nil && *e.ExecutionTimeMs > thresholdMs && !e.Timestamp.Before(since)
	}, func(a, b model.SystemLog) int {
		return cmp.Compare(*b.ExecutionTimeMs, *a.ExecutionTimeMs)
	}), nil
}

func (s *SystemLogs) FindByResponseStatusRange(_ context.Context, lo, hi int, since time.Time, page model.PageRequest) (model.Page[model.SystemLog], error) {
	return paginate(s.collect(func(e model.SystemLog) bool {
		return e.ResponseStatus != nil && *e.ResponseStatus >= lo && *e.ResponseStatus < hi && !e.Timestamp.Before(since)
	}, newestFirst), page), nil
}

func (s *SystemLogs) FindByUserAndDateRange(_ context.Context, userID int64, start, end time.Time) ([]model.SystemLog, error) {
	return s.collect(func(e model.SystemLog) bool {
		return e.UserID != nil && *e.UserID == userID && within(e.Timestamp, start, end)
	}, newestFirst), nil
}

func (s *SystemLogs) FindByOrganization(_ context.Context, orgID int64, page model.PageRequest) (model.Page[model.SystemLog], error) {
	return paginate(s.collect(func(e model.SystemLog) bool {
		return e.OrganizationID != nil && *e.OrganizationID == orgID
	}, newestFirst), page), nil
}

func (s *SystemLogs) FindByServiceAndEnvironment(_ context.Context, service, environment string, since time.Time) ([]model.SystemLog, error) {
	return s.collect(func(e model.SystemLog) bool {
		return e.ServiceName == service && e.Environment == environment && !e.Timestamp.Before(since)
	}, newestFirst), nil
}

func (s *SystemLogs) Search(_ context.Context, f model.SystemLogFilter, page model.PageRequest) (model.Page[model.SystemLog], error) {
	term := strings.ToLower(f.SearchTerm)
	return paginate(s.collect(func(e model.SystemLog) bool {
		switch {
		case f.ServiceName != "" && e.ServiceName != f.ServiceName,
			f.LogLevel != "" && e.LogLevel != f.LogLevel,
			f.UserID != nil && (e.UserID == nil || *e.UserID != *f.UserID),
			f.OrganizationID != nil && (e.OrganizationID == nil || *e.OrganizationID != *f.OrganizationID),
			term != "" && !strings.Contains(strings.ToLower(e.Message), term):
			return false
		}
		return within(e.Timestamp, f.Start, f.End)
	}, newestFirst), page), nil
}

func (s *SystemLogs) CountByLevel(_ context.Context, start, end time.Time) (map[string]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[string]int64)
	for _, e := range s.rows {
		if within(e.Timestamp, start, end) {
			counts[e.LogLevel]++
		}
	}
	return counts, nil
}

func (s *SystemLogs) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.rows[:0]
	var n int64
	for _, e := range s.rows {
		if e.Timestamp.Before(cutoff) {
			n++
			continue
		}
		kept = append(kept, e)
	}
	clear(s.rows[len(kept):])
	s.rows = kept
	return n, nil
}

func (s *SystemLogs) StreamOlderThan(ctx context.Context, cutoff time.Time, fn func(model.SystemLog) error) error {
	old := s.collect(func(e model.SystemLog) bool { return e.Timestamp.Before(cutoff) }, oldestFirst)
	for _, e := range old {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(e); err != nil {
			return err
		}
	}
	return nil
}
