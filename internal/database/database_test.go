package database

import (
	"testing"

	"github.com/jackc/pgx/v5/tracelog"
	"github.com/stretchr/testify/assert"
)

func TestTraceLevel(t *testing.T) {
	assert.Equal(t, tracelog.LogLevelWarn, traceLevel(""))
	assert.Equal(t, tracelog.LogLevelDebug, traceLevel("DEBUG"))
	assert.Equal(t, tracelog.LogLevelError, traceLevel("error"))
	assert.Equal(t, tracelog.LogLevelWarn, traceLevel("chatty"))
}
