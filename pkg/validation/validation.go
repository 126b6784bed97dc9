// Package validation evaluates the field constraints declared in struct tags.
//
// Besides the stock go-playground/validator tags it registers one tag per
// closed vocabulary (loglevel, userlogtype, httpmethod, environment,
// portaluserstatus, operationtype, eventtype) and notfuture for timestamps.
// Vocabulary tags accept the empty string; pair them with required when the
// field is mandatory.
package validation

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/openrangelabs/middleware/pkg/apperrors"
	"github.com/openrangelabs/middleware/pkg/env"
	"github.com/openrangelabs/middleware/pkg/model"
	"github.com/openrangelabs/middleware/pkg/web"
)

var (
	once     sync.Once
	instance *validator.Validate
)

type vocabulary struct {
	valid   func(string) bool
	message string
}

func codes[T ~string](values []T) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = string(v)
	}
	return strings.Join(parts, ", ")
}

var vocabularies = map[string]vocabulary{
	"loglevel":         {model.IsValidLogLevel, "must be one of " + codes(model.LogLevels)},
	"userlogtype":      {model.IsValidUserLogType, "must be one of " + codes(model.UserLogTypes)},
	"httpmethod":       {web.IsValidMethod, "must be a valid HTTP method"},
	"environment":      {env.IsValid, "must be one of " + codes(env.All) + " or their short forms"},
	"portaluserstatus": {model.IsValidPortalUserStatus, "must be one of " + codes(model.PortalUserStatuses)},
	"operationtype":    {model.IsValidOperationType, "must be one of " + codes(model.OperationTypes)},
	"eventtype":        {model.IsValidEventType, "must be one of USER_CREATED, USER_UPDATED, USER_DELETED, USER_ACTIVATED, USER_DEACTIVATED"},
}

// Validator returns the shared validator with the custom tags registered.
func Validator() *validator.Validate {
	once.Do(func() {
		v := validator.New()
		v.RegisterTagNameFunc(jsonName)
		for tag, voc := range vocabularies {
			valid := voc.valid
			_ = v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
				s := fl.Field().String()
				return s == "" || valid(s)
			})
		}
		_ = v.RegisterValidationCtx("notfuture", notFuture)
		instance = v
	})
	return instance
}

func jsonName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	switch name {
	case "-":
		return ""
	case "":
		return f.Name
	}
	return name
}

type nowKey struct{}

func notFuture(ctx context.Context, fl validator.FieldLevel) bool {
	t, ok := fl.Field().Interface().(time.Time)
	if !ok || t.IsZero() {
		return true
	}
	now, ok := ctx.Value(nowKey{}).(time.Time)
	if !ok {
		now = time.Now()
	}
	return !t.After(now)
}

// Struct validates v against the wall clock and returns nil or an
// *apperrors.ValidationError.
func Struct(v any) error {
	return StructAt(v, time.Now())
}

// StructAt validates v with notfuture measured against now.
func StructAt(v any, now time.Time) error {
	ctx := context.WithValue(context.Background(), nowKey{}, now)
	err := Validator().StructCtx(ctx, v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &apperrors.ValidationError{Message: "Validation failed"}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, apperrors.FieldError{Field: fe.Field(), Message: message(fe)})
	}
	return out
}

// Messages flattens a validation error into a field to message map. It
// returns nil for errors of any other kind.
func Messages(err error) map[string]string {
	var verr *apperrors.ValidationError
	if errors.As(err, &verr) {
		return verr.Map()
	}
	return nil
}

func message(fe validator.FieldError) string {
	if voc, ok := vocabularies[fe.Tag()]; ok {
		return voc.message
	}
	isString := fe.Kind() == reflect.String
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "notfuture":
		return "must not be in the future"
	case "max":
		if isString {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return "must be at most " + fe.Param()
	case "min":
		if isString {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return "must be at least " + fe.Param()
	}
	return fmt.Sprintf("failed on the %q constraint", fe.Tag())
}
