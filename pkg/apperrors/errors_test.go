package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvalidValueError(t *testing.T) {
	err := NewInvalidValue("log level", "VERBOSE")
	assert.EqualError(t, err, "invalid log level: VERBOSE")
	assert.True(t, IsInvalidArgument(err))
	assert.False(t, IsOperationFailed(err))

	assert.EqualError(t, NewInvalidValue("log level", "  "), "log level cannot be empty")
}

func TestOperationErrorPreservesCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap("save system log", cause)

	require.Error(t, err)
	assert.EqualError(t, err, "failed to save system log: connection reset")
	assert.ErrorIs(t, err, cause)
	assert.True(t, IsOperationFailed(err))

	var opErr *OperationError
	require.ErrorAs(t, fmt.Errorf("handler: %w", err), &opErr)
	assert.Equal(t, "save system log", opErr.Op)

	assert.NoError(t, Wrap("noop", nil))
}

func TestValidationErrorMapKeepsFirstMessage(t *testing.T) {
	err := &ValidationError{
		Message: "Validation failed",
		Fields: []FieldError{
			{Field: "email", Message: "is required"},
			{Field: "email", Message: "must be a valid email address"},
			{Field: "userId", Message: "must be at least 1"},
		},
	}
	assert.Equal(t, map[string]string{"email": "is required", "userId": "must be at least 1"}, err.Map())
	assert.True(t, errors.Is(err, ErrInvalidArgument))
	assert.Contains(t, err.Error(), "userId: must be at least 1")
}
