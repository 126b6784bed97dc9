package logs

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/openrangelabs/middleware/pkg/model"
)

type stackTracer interface {
	StackTrace() errors.StackTrace
}

// LogException saves err as an ERROR entry of serviceName. The stored trace
// covers err and the error it directly wraps, not the full chain.
func (s *SystemLogService) LogException(ctx context.Context, serviceName string, err error, userID, orgID *int64) (model.SystemLog, error) {
	msg := fmt.Sprintf("%T", err)
	if err != nil && err.Error() != "" {
		msg = err.Error()
	}
	return s.SaveLog(ctx, model.SystemLog{
		Timestamp:      s.opts.now(),
		ServiceName:    serviceName,
		LogLevel:       model.LevelError.Code(),
		Message:        msg,
		StackTrace:     RenderStackTrace(err),
		UserID:         userID,
		OrganizationID: orgID,
	})
}

// RenderStackTrace formats err and its direct cause. Frames are included for
// errors created or wrapped with github.com/pkg/errors.
func RenderStackTrace(err error) string {
	if err == nil {
		return ""
	}
	var b strings.Builder
	writeFrames(&b, "", err)
	if cause := directCause(err); cause != nil {
		writeFrames(&b, "Caused by: ", cause)
	}
	return b.String()
}

// directCause returns the first error below err whose message differs from
// err's. pkg/errors.Wrap stacks a withStack over a withMessage that both print
// the wrapped text, so a single Unwrap would only repeat err.
func directCause(err error) error {
	msg := err.Error()
	for cause := unwrapOnce(err); cause != nil; cause = unwrapOnce(cause) {
		if cause.Error() != msg {
			return cause
		}
	}
	return nil
}

func unwrapOnce(err error) error {
	if cause := stderrors.Unwrap(err); cause != nil {
		return cause
	}
	if multi, ok := err.(interface{ Unwrap() []error }); ok {
		if errs := multi.Unwrap(); len(errs) > 0 {
			return errs[0]
		}
	}
	return nil
}

func writeFrames(b *strings.Builder, prefix string, err error) {
	fmt.Fprintf(b, "%s%T: %s\n", prefix, err, err.Error())
	st, ok := err.(stackTracer)
	if !ok {
		return
	}
	for _, f := range st.StackTrace() {
		fmt.Fprintf(b, "\tat %n(%s:%d)\n", f, f, f)
	}
}
