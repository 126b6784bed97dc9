package logs

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/openrangelabs/middleware/pkg/model"
)

type mockUserLogRepo struct{ mock.Mock }

func (m *mockUserLogRepo) Save(ctx context.Context, entry model.UserLog) (model.UserLog, error) {
	args := m.Called(ctx, entry)
	return args.Get(0).(model.UserLog), args.Error(1)
}

func (m *mockUserLogRepo) SaveAll(ctx context.Context, entries []model.UserLog) ([]model.UserLog, error) {
	args := m.Called(ctx, entries)
	list, _ := args.Get(0).([]model.UserLog)
	return list, args.Error(1)
}

func (m *mockUserLogRepo) FindByKey(ctx context.Context, key model.UserLogKey) (*model.UserLog, error) {
	args := m.Called(ctx, key)
	e, _ := args.Get(0).(*model.UserLog)
	return e, args.Error(1)
}

func (m *mockUserLogRepo) FindByUser(ctx context.Context, userID int64, since time.Time, order model.SortOrder) ([]model.UserLog, error) {
	args := m.Called(ctx, userID, since, order)
	list, _ := args.Get(0).([]model.UserLog)
	return list, args.Error(1)
}

func (m *mockUserLogRepo) FindByOrganization(ctx context.Context, orgID int64, since time.Time, order model.SortOrder) ([]model.UserLog, error) {
	args := m.Called(ctx, orgID, since, order)
	list, _ := args.Get(0).([]model.UserLog)
	return list, args.Error(1)
}

func (m *mockUserLogRepo) CountByType(ctx context.Context, userID int64, start, end time.Time) (map[string]int64, error) {
	args := m.Called(ctx, userID, start, end)
	counts, _ := args.Get(0).(map[string]int64)
	return counts, args.Error(1)
}

func (m *mockUserLogRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

type mockSystemLogRepo struct{ mock.Mock }

func (m *mockSystemLogRepo) page(args mock.Arguments) (model.Page[model.SystemLog], error) {
	p, _ := args.Get(0).(model.Page[model.SystemLog])
	return p, args.Error(1)
}

func (m *mockSystemLogRepo) list(args mock.Arguments) ([]model.SystemLog, error) {
	l, _ := args.Get(0).([]model.SystemLog)
	return l, args.Error(1)
}

func (m *mockSystemLogRepo) Save(ctx context.Context, entry model.SystemLog) (model.SystemLog, error) {
	args := m.Called(ctx, entry)
	return args.Get(0).(model.SystemLog), args.Error(1)
}

func (m *mockSystemLogRepo) SaveAll(ctx context.Context, entries []model.SystemLog) ([]model.SystemLog, error) {
	return m.list(m.Called(ctx, entries))
}

func (m *mockSystemLogRepo) FindByID(ctx context.Context, id int64) (*model.SystemLog, error) {
	args := m.Called(ctx, id)
	e, _ := args.Get(0).(*model.SystemLog)
	return e, args.Error(1)
}

func (m *mockSystemLogRepo) FindByServiceAndDateRange(ctx context.Context, service string, start, end time.Time) ([]model.SystemLog, error) {
	return m.list(m.Called(ctx, service, start, end))
}

func (m *mockSystemLogRepo) FindByLevel(ctx context.Context, level string, since time.Time, page model.PageRequest) (model.Page[model.SystemLog], error) {
	return m.page(m.Called(ctx, level, since, page))
}

func (m *mockSystemLogRepo) FindWithStackTrace(ctx context.Context, since time.Time, page model.PageRequest) (model.Page[model.SystemLog], error) {
	return m.page(m.Called(ctx, since, page))
}

func (m *mockSystemLogRepo) FindByCorrelationID(ctx context.Context, id string) ([]model.SystemLog, error) {
	return m.list(m.Called(ctx, id))
}

func (m *mockSystemLogRepo) FindSlowRequests(ctx context.Context, thresholdMs int64, since time.Time) ([]model.SystemLog, error) {
	return m.list(m.Called(ctx, thresholdMs, since))
}

func (m *mockSystemLogRepo) FindByResponseStatusRange(ctx context.Context, lo, hi int, since time.Time, page model.PageRequest) (model.Page[model.SystemLog], error) {
	return m.page(m.Called(ctx, lo, hi, since, page))
}

func (m *mockSystemLogRepo) FindByUserAndDateRange(ctx context.Context, userID int64, start, end time.Time) ([]model.SystemLog, error) {
	return m.list(m.Called(ctx, userID, start, end))
}

func (m *mockSystemLogRepo) FindByOrganization(ctx context.Context, orgID int64, page model.PageRequest) (model.Page[model.SystemLog], error) {
	return m.page(m.Called(ctx, orgID, page))
}

func (m *mockSystemLogRepo) FindByServiceAndEnvironment(ctx context.Context, service, environment string, since time.Time) ([]model.SystemLog, error) {
	return m.list(m.Called(ctx, service, environment, since))
}

func (m *mockSystemLogRepo) Search(ctx context.Context, filter model.SystemLogFilter, page model.PageRequest) (model.Page[model.SystemLog], error) {
	return m.page(m.Called(ctx, filter, page))
}

func (m *mockSystemLogRepo) CountByLevel(ctx context.Context, start, end time.Time) (map[string]int64, error) {
	args := m.Called(ctx, start, end)
	counts, _ := args.Get(0).(map[string]int64)
	return counts, args.Error(1)
}

func (m *mockSystemLogRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockSystemLogRepo) StreamOlderThan(ctx context.Context, cutoff time.Time, fn func(model.SystemLog) error) error {
	return m.Called(ctx, cutoff, fn).Error(0)
}
