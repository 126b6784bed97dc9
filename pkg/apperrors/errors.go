// Package apperrors defines the error taxonomy shared by the middleware
// packages. Callers branch on the sentinel values with errors.Is and read the
// details with errors.As.
package apperrors

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidArgument marks failures detected before any side effect:
	// vocabulary parse failures and field constraint violations.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrOperationFailed marks failures of a lower layer (storage, broker)
	// that were wrapped at the service boundary.
	ErrOperationFailed = errors.New("operation failed")
)

// InvalidValueError reports a value outside a closed vocabulary.
type InvalidValueError struct {
	Kind  string
	Value string
}

func (e *InvalidValueError) Error() string {
	if strings.TrimSpace(e.Value) == "" {
		return fmt.Sprintf("%s cannot be empty", e.Kind)
	}
	return fmt.Sprintf("invalid %s: %s", e.Kind, e.Value)
}

func (e *InvalidValueError) Is(target error) bool { return target == ErrInvalidArgument }

// NewInvalidValue returns an *InvalidValueError for kind and value.
func NewInvalidValue(kind, value string) error {
	return &InvalidValueError{Kind: kind, Value: value}
}

// FieldError is a single failed field constraint.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries every failed constraint of one value.
type ValidationError struct {
	Message string
	Fields  []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return e.Message + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidArgument }

// Map returns the field to message mapping. When a field failed more than one
// constraint the first message wins.
func (e *ValidationError) Map() map[string]string {
	out := make(map[string]string, len(e.Fields))
	for _, f := range e.Fields {
		if _, ok := out[f.Field]; !ok {
			out[f.Field] = f.Message
		}
	}
	return out
}

// NewFieldError builds a ValidationError for a single field.
func NewFieldError(field, message string) error {
	return &ValidationError{
		Message: "Validation failed",
		Fields:  []FieldError{{Field: field, Message: message}},
	}
}

// OperationError wraps a lower layer failure with a stable message.
type OperationError struct {
	Op    string
	Cause error
}

func (e *OperationError) Error() string {
	if e.Cause == nil {
		return "failed to " + e.Op
	}
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Cause)
}

func (e *OperationError) Unwrap() error { return e.Cause }

func (e *OperationError) Is(target error) bool { return target == ErrOperationFailed }

// Wrap returns an *OperationError for op, or nil when err is nil.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &OperationError{Op: op, Cause: err}
}

// IsInvalidArgument reports whether err belongs to the validation category.
func IsInvalidArgument(err error) bool {
	return errors.Is(err, ErrInvalidArgument)
}

// IsOperationFailed reports whether err is a wrapped lower layer failure.
func IsOperationFailed(err error) bool {
	return errors.Is(err, ErrOperationFailed)
}
