// Package ingest turns raw input payloads into service calls. A payload is
// either one JSON object or a JSON array of them.
package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/openrangelabs/middleware/internal/infrastructure/inputs"
	"github.com/openrangelabs/middleware/pkg/apperrors"
	"github.com/openrangelabs/middleware/pkg/model"
)

type UserLogSaver interface {
	SaveLog(ctx context.Context, entry model.UserLog) (model.UserLog, error)
	SaveLogsBatch(ctx context.Context, entries []model.UserLog) ([]model.UserLog, error)
}

type SystemLogSaver interface {
	SaveLog(ctx context.Context, entry model.SystemLog) (model.SystemLog, error)
	SaveLogsBatch(ctx context.Context, entries []model.SystemLog) ([]model.SystemLog, error)
}

type UserEventRecorder interface {
	RecordEvent(ctx context.Context, ev model.UserEvent) (model.PortalUser, error)
}

// Router resolves input targets to sinks backed by the services.
type Router struct {
	userLogs   UserLogSaver
	systemLogs SystemLogSaver
	users      UserEventRecorder
	logger     zerolog.Logger
}

func NewRouter(userLogs UserLogSaver, systemLogs SystemLogSaver, users UserEventRecorder, logger zerolog.Logger) *Router {
	return &Router{
		userLogs:   userLogs,
		systemLogs: systemLogs,
		users:      users,
		logger:     logger.With().Str("component", "ingest").Logger(),
	}
}

// Sink implements inputs.SinkResolver.
func (r *Router) Sink(target inputs.Target) (inputs.Sink, error) {
	switch target {
	case inputs.TargetUserLog:
		return inputs.SinkFunc(r.insertUserLogs), nil
	case inputs.TargetSystemLog:
		return inputs.SinkFunc(r.insertSystemLogs), nil
	case inputs.TargetPortalUser:
		return inputs.SinkFunc(r.insertUserEvents), nil
	default:
		return nil, apperrors.NewInvalidValue("input target", string(target))
	}
}

func (r *Router) insertUserLogs(ctx context.Context, payload []byte) error {
	entries, err := decode[model.UserLog](payload)
	if err != nil {
		return err
	}
	if len(entries) == 1 {
		_, err = r.userLogs.SaveLog(ctx, entries[0])
	} else {
		_, err = r.userLogs.SaveLogsBatch(ctx, entries)
	}
	if err == nil {
		r.logger.Debug().Int("count", len(entries)).Msg("user logs ingested")
	}
	return err
}

func (r *Router) insertSystemLogs(ctx context.Context, payload []byte) error {
	entries, err := decode[model.SystemLog](payload)
	if err != nil {
		return err
	}
	if len(entries) == 1 {
		_, err = r.systemLogs.SaveLog(ctx, entries[0])
	} else {
		_, err = r.systemLogs.SaveLogsBatch(ctx, entries)
	}
	if err == nil {
		r.logger.Debug().Int("count", len(entries)).Msg("system logs ingested")
	}
	return err
}

// insertUserEvents records events one at a time; a failure leaves the
// events before it recorded.
func (r *Router) insertUserEvents(ctx context.Context, payload []byte) error {
	events, err := decode[model.UserEvent](payload)
	if err != nil {
		return err
	}
	for i, ev := range events {
		if _, err := r.users.RecordEvent(ctx, ev); err != nil {
			if len(events) == 1 {
				return err
			}
			return fmt.Errorf("event %d: %w", i, err)
		}
	}
	return nil
}

func decode[T any](payload []byte) ([]T, error) {
	payload = bytes.TrimSpace(payload)
	if len(payload) == 0 {
		return nil, fmt.Errorf("%w: empty payload", apperrors.ErrInvalidArgument)
	}
	var out []T
	if payload[0] == '[' {
		if err := json.Unmarshal(payload, &out); err != nil {
			return nil, fmt.Errorf("%w: decode payload: %v", apperrors.ErrInvalidArgument, err)
		}
		if len(out) == 0 {
			return nil, fmt.Errorf("%w: empty batch", apperrors.ErrInvalidArgument)
		}
		return out, nil
	}
	var one T
	if err := json.Unmarshal(payload, &one); err != nil {
		return nil, fmt.Errorf("%w: decode payload: %v", apperrors.ErrInvalidArgument, err)
	}
	return append(out, one), nil
}
