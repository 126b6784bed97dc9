package repository_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/tern/v2/migrate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openrangelabs/middleware/pkg/logs"
	"github.com/openrangelabs/middleware/pkg/model"
	"github.com/openrangelabs/middleware/pkg/repository"
	"github.com/openrangelabs/middleware/pkg/repository/memory"
	"github.com/openrangelabs/middleware/pkg/users"
)

var (
	_ logs.UserLogRepository   = (*repository.UserLogRepository)(nil)
	_ logs.SystemLogRepository = (*repository.SystemLogRepository)(nil)
	_ users.Repository         = (*repository.PortalUserRepository)(nil)

	_ logs.UserLogRepository   = (*memory.UserLogs)(nil)
	_ logs.SystemLogRepository = (*memory.SystemLogs)(nil)
	_ users.Repository         = (*memory.PortalUsers)(nil)
)

// testPool connects to MIDDLEWARE_TEST_DATABASE_URL and migrates it, or skips.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("MIDDLEWARE_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("MIDDLEWARE_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	conn, err := pool.Acquire(ctx)
	require.NoError(t, err)
	defer conn.Release()
	m, err := migrate.NewMigrator(ctx, conn.Conn(), "schema_version")
	require.NoError(t, err)
	require.NoError(t, m.LoadMigrations(repository.Migrations()))
	require.NoError(t, m.Migrate(ctx))

	_, err = pool.Exec(ctx, "TRUNCATE logs_user, logs_system, portal_user")
	require.NoError(t, err)
	return pool
}

func TestPostgresUserLogs(t *testing.T) {
	pool := testPool(t)
	repo := repository.NewUserLogRepository(pool)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	_, err := repo.Save(ctx, model.UserLog{UserID: 42, OrganizationID: 7, CreatedAt: now.Add(-time.Hour), Type: "LOGIN"})
	require.NoError(t, err)
	_, err = repo.SaveAll(ctx, []model.UserLog{
		{UserID: 42, OrganizationID: 7, CreatedAt: now.Add(-30 * time.Minute), Type: "LOGOUT"},
		{UserID: 42, OrganizationID: 7, CreatedAt: now.Add(-10 * time.Minute), Description: "untyped"},
	})
	require.NoError(t, err)

	got, err := repo.FindByKey(ctx, model.UserLogKey{UserID: 42, CreatedAt: now.Add(-time.Hour)})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "LOGIN", got.Type)

	list, err := repo.FindByUser(ctx, 42, now.Add(-2*time.Hour), model.Ascending)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.True(t, list[0].CreatedAt.Before(list[2].CreatedAt))

	counts, err := repo.CountByType(ctx, 42, now.Add(-2*time.Hour), now)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"LOGIN": 1, "LOGOUT": 1}, counts)

	n, err := repo.DeleteOlderThan(ctx, now.Add(-20*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestPostgresSystemLogs(t *testing.T) {
	pool := testPool(t)
	repo := repository.NewSystemLogRepository(pool)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)
	status := func(v int) *int { return &v }

	saved, err := repo.SaveAll(ctx, []model.SystemLog{
		{Timestamp: now.Add(-3 * time.Minute), ServiceName: "api", LogLevel: "INFO", Message: "a", ResponseStatus: status(200), CorrelationID: "c1"},
		{Timestamp: now.Add(-2 * time.Minute), ServiceName: "api", LogLevel: "ERROR", Message: "Upstream timeout", ResponseStatus: status(504), CorrelationID: "c1", StackTrace: "trace"},
		{Timestamp: now.Add(-1 * time.Minute), ServiceName: "api", LogLevel: "WARN", Message: "b", ResponseStatus: status(404)},
	})
	require.NoError(t, err)
	require.Len(t, saved, 3)
	assert.Less(t, saved[0].ID, saved[1].ID)

	byID, err := repo.FindByID(ctx, saved[1].ID)
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, "trace", byID.StackTrace)
	assert.Empty(t, byID.HostName)

	missing, err := repo.FindByID(ctx, -1)
	require.NoError(t, err)
	assert.Nil(t, missing)

	trail, err := repo.FindByCorrelationID(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, trail, 2)
	assert.Equal(t, "a", trail[0].Message)

	clientErrors, err := repo.FindByResponseStatusRange(ctx, 400, 500, now.Add(-time.Hour), model.PageRequest{Size: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), clientErrors.Total)

	found, err := repo.Search(ctx, model.SystemLogFilter{SearchTerm: "TIMEOUT", Start: now.Add(-time.Hour), End: now}, model.PageRequest{})
	require.NoError(t, err)
	require.Len(t, found.Items, 1)
	assert.Equal(t, saved[1].ID, found.Items[0].ID)

	var streamed []int64
	require.NoError(t, repo.StreamOlderThan(ctx, now, func(e model.SystemLog) error {
		streamed = append(streamed, e.ID)
		return nil
	}))
	assert.Equal(t, []int64{saved[0].ID, saved[1].ID, saved[2].ID}, streamed)

	n, err := repo.DeleteOlderThan(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestPostgresPortalUsers(t *testing.T) {
	pool := testPool(t)
	repo := repository.NewPortalUserRepository(pool)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	for i, op := range []string{"CREATE", "ACTIVATE"} {
		_, err := repo.Save(ctx, model.PortalUser{
			UserID: 1, OrganizationID: 3, Username: "jdoe", Email: "jdoe@example.com",
			Status: "ACTIVE", OperationType: op, CreatedAt: now.Add(time.Duration(i-2) * time.Minute),
		})
		require.NoError(t, err)
	}

	latest, err := repo.FindMostRecentByUserID(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "ACTIVATE", latest.OperationType)

	taken, err := repo.ExistsByUsername(ctx, "jdoe", 3)
	require.NoError(t, err)
	assert.True(t, taken)
	taken, err = repo.ExistsByEmail(ctx, "jdoe@example.com", 4)
	require.NoError(t, err)
	assert.False(t, taken)

	counts, err := repo.CountByOperationType(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"CREATE": 1, "ACTIVATE": 1}, counts)
}
