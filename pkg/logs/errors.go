package logs

import (
	"errors"
	"fmt"
	"time"

	"github.com/openrangelabs/middleware/pkg/apperrors"
)

// indexed ties a batch validation failure to the offending entry.
func indexed(i int, err error) error {
	var verr *apperrors.ValidationError
	if errors.As(err, &verr) {
		out := &apperrors.ValidationError{Message: verr.Message, Fields: make([]apperrors.FieldError, len(verr.Fields))}
		for j, f := range verr.Fields {
			out.Fields[j] = apperrors.FieldError{Field: fmt.Sprintf("[%d].%s", i, f.Field), Message: f.Message}
		}
		return out
	}
	return fmt.Errorf("entry %d: %w", i, err)
}

func checkWindow(start, end time.Time) error {
	if start.IsZero() {
		return apperrors.NewFieldError("startDate", "is required")
	}
	if end.IsZero() {
		return apperrors.NewFieldError("endDate", "is required")
	}
	if end.Before(start) {
		return apperrors.NewFieldError("endDate", "must not be before startDate")
	}
	return nil
}
