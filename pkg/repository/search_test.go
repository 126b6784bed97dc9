package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/openrangelabs/middleware/pkg/model"
)

func TestWhereNumbersPlaceholdersInOrder(t *testing.T) {
	w := &where{}
	assert.Equal(t, "1=1", w.String())

	w.add("a =", 1)
	w.add("b <", "x")

	assert.Equal(t, "1=1 AND a = $1 AND b < $2", w.String())
	assert.Equal(t, []any{1, "x"}, w.args)
}

func TestContainsPatternEscapesWildcards(t *testing.T) {
	assert.Equal(t, "%timeout%", containsPattern("TimeOut"))
	assert.Equal(t, `%100\% \_done\\%`, containsPattern(`100% _done\`))
}

func TestSystemLogSearchOnlyAddsSetCriteria(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	w := systemLogSearch(model.SystemLogFilter{Start: start, End: end})
	assert.Equal(t, "1=1 AND timestamp >= $1 AND timestamp <= $2", w.String())
	assert.Equal(t, []any{start, end}, w.args)

	org := int64(7)
	w = systemLogSearch(model.SystemLogFilter{
		ServiceName:    "billing",
		LogLevel:       "ERROR",
		OrganizationID: &org,
		SearchTerm:     "Declined",
		Start:          start,
		End:            end,
	})
	assert.Equal(t,
		"1=1 AND service_name = $1 AND log_level = $2 AND organization_id = $3 AND LOWER(message) LIKE $4 AND timestamp >= $5 AND timestamp <= $6",
		w.String())
	assert.Equal(t, []any{"billing", "ERROR", int64(7), "%declined%", start, end}, w.args)
}

func TestPortalUserSearchMatchesSubstrings(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	w := portalUserSearch(model.PortalUserFilter{
		Status:   "ACTIVE",
		Username: "Jane",
		Email:    "@example.com",
		Start:    start,
		End:      end,
	})

	assert.Equal(t,
		"1=1 AND status = $1 AND LOWER(username) LIKE $2 AND LOWER(email) LIKE $3 AND created_dt >= $4 AND created_dt <= $5",
		w.String())
	assert.Equal(t, []any{"ACTIVE", "%jane%", "%@example.com%", start, end}, w.args)
}

func TestMigrationsAreEmbedded(t *testing.T) {
	for _, name := range []string{"001_create_logs_user.sql", "002_create_logs_system.sql", "003_create_portal_user.sql"} {
		_, err := Migrations().Open(name)
		assert.NoError(t, err, name)
	}
}
