package inputs

import "context"

// Sink receives raw payloads from inputs. An error wrapping
// apperrors.ErrInvalidArgument means the payload itself is bad and must not
// be retried.
type Sink interface {
	Insert(ctx context.Context, payload []byte) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, payload []byte) error

func (f SinkFunc) Insert(ctx context.Context, payload []byte) error { return f(ctx, payload) }

// SinkResolver returns the sink storing payloads for target.
type SinkResolver func(target Target) (Sink, error)
