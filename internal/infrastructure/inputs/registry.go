package inputs

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"

	"github.com/rs/zerolog"
)

// Registry holds registered input factories and the inputs started from
// them.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
	running   []runningInput
	logger    zerolog.Logger
}

type runningInput struct {
	info  RunningInput
	input MessageInput
}

// NewRegistry returns a new Registry.
func NewRegistry(logger zerolog.Logger) *Registry {
	return &Registry{
		factories: make(map[string]Factory),
		logger:    logger.With().Str("component", "inputs").Logger(),
	}
}

// Register adds a factory for an input type.
func (r *Registry) Register(factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[factory.Name()] = factory
}

// Create builds a MessageInput for the given type and config.
func (r *Registry) Create(name string, cfg Config, sink Sink) (MessageInput, error) {
	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown input type: %s", name)
	}
	return factory.Create(cfg, sink, r.logger)
}

// ListRegistered returns all registered input type names, sorted.
func (r *Registry) ListRegistered() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetTypeInfo returns the config spec for the given input type. ok is false if the type is not registered.
func (r *Registry) GetTypeInfo(name string) (info InputTypeInfo, ok bool) {
	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return InputTypeInfo{}, false
	}
	return factory.ConfigSpec(), true
}

// AllTypesInfo returns config specs for all registered input types.
func (r *Registry) AllTypesInfo() []InputTypeInfo {
	names := r.ListRegistered()
	out := make([]InputTypeInfo, 0, len(names))
	for _, name := range names {
		if info, ok := r.GetTypeInfo(name); ok {
			out = append(out, info)
		}
	}
	return out
}

// StartAll creates and starts an input per spec. Mounted HTTP endpoints are
// handed to mount. When one spec fails, the inputs already started are
// stopped again.
func (r *Registry) StartAll(ctx context.Context, specs []InputSpec, resolve SinkResolver, mount func(path string, h http.Handler)) error {
	for _, spec := range specs {
		if err := r.start(ctx, spec, resolve, mount); err != nil {
			return errors.Join(fmt.Errorf("start %s input %q: %w", spec.Type, spec.Description, err), r.StopAll())
		}
	}
	return nil
}

func (r *Registry) start(ctx context.Context, spec InputSpec, resolve SinkResolver, mount func(path string, h http.Handler)) error {
	sink, err := resolve(spec.Target)
	if err != nil {
		return err
	}
	input, err := r.Create(spec.Type, spec.ConfigWithDescription(), sink)
	if err != nil {
		return err
	}
	if err := input.Start(ctx); err != nil {
		return err
	}
	info := RunningInput{Type: spec.Type, Target: spec.Target, Description: spec.Description}
	if ep, ok := input.(HTTPEndpointInput); ok {
		info.Path = ep.Path()
		if ep.Mounted() && mount != nil {
			mount(ep.Path(), ep.Handler())
		}
	}
	r.mu.Lock()
	r.running = append(r.running, runningInput{info: info, input: input})
	r.mu.Unlock()
	r.logger.Info().
		Str("type", spec.Type).
		Str("target", string(spec.Target)).
		Str("path", info.Path).
		Msg("input started")
	return nil
}

// Running describes the started inputs in start order.
func (r *Registry) Running() []RunningInput {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]RunningInput, len(r.running))
	for i, ri := range r.running {
		out[i] = ri.info
	}
	return out
}

// StopAll stops every started input, newest first.
func (r *Registry) StopAll() error {
	r.mu.Lock()
	running := r.running
	r.running = nil
	r.mu.Unlock()

	var errs []error
	for i := len(running) - 1; i >= 0; i-- {
		if err := running[i].input.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("stop %s input: %w", running[i].info.Type, err))
		}
	}
	return errors.Join(errs...)
}
