package component

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/halo-dev/halo/logger"
)

// DefaultStopTimeout caps how long a single component may take to stop.
const DefaultStopTimeout = 10 * time.Second

// Registry runs the components of one container. Components start in
// registration order and stop in the reverse of the order they started.
type Registry struct {
	mu          sync.RWMutex
	components  []Component
	byName      map[string]Component
	running     []Component
	log         *logger.Logger
	stopTimeout time.Duration
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithLogger sets the registry logger. Defaults to the global logger.
func WithLogger(l *logger.Logger) RegistryOption {
	return func(r *Registry) { r.log = l }
}

// WithStopTimeout overrides DefaultStopTimeout.
func WithStopTimeout(d time.Duration) RegistryOption {
	return func(r *Registry) { r.stopTimeout = d }
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		byName:      make(map[string]Component),
		stopTimeout: DefaultStopTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.log == nil {
		r.log = logger.GetGlobalLogger()
	}
	return r
}

// Register adds a component. Register dependencies first.
func (r *Registry) Register(c Component) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := c.Name()
	if _, dup := r.byName[name]; dup {
		return fmt.Errorf("component %s already registered", name)
	}
	r.components = append(r.components, c)
	r.byName[name] = c

	r.log.Debug("Component registered", map[string]interface{}{logger.FieldComponent: name})
	return nil
}

func (r *Registry) isRunning(c Component) bool {
	return slices.Contains(r.running, c)
}

// StartAll starts every component that is not running yet. It stops at the
// first failure; components started before it keep running so the caller
// can roll back with StopAll.
func (r *Registry) StartAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range r.components {
		if r.isRunning(c) {
			continue
		}
		name := c.Name()
		began := time.Now()
		if err := c.Start(ctx); err != nil {
			r.log.Error("Component start failed", map[string]interface{}{
				logger.FieldComponent: name,
				logger.FieldError:     err.Error(),
			})
			return fmt.Errorf("start %s: %w", name, err)
		}
		r.running = append(r.running, c)

		fields := logger.DurationFields("start", time.Since(began))
		fields[logger.FieldComponent] = name
		r.log.Debug("Component started", fields)
	}

	r.log.Info("Components started", map[string]interface{}{"count": len(r.running)})
	return nil
}

// StopAll stops running components, last started first. Each gets at most
// the stop timeout, and a failure does not prevent the rest from stopping.
func (r *Registry) StopAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for len(r.running) > 0 {
		last := len(r.running) - 1
		c := r.running[last]
		r.running = r.running[:last]

		if err := r.stop(ctx, c); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (r *Registry) stop(ctx context.Context, c Component) error {
	name := c.Name()
	stopCtx, cancel := context.WithTimeout(ctx, r.stopTimeout)
	defer cancel()

	if err := c.Stop(stopCtx); err != nil {
		r.log.Error("Component stop failed", map[string]interface{}{
			logger.FieldComponent: name,
			logger.FieldError:     err.Error(),
		})
		return fmt.Errorf("stop %s: %w", name, err)
	}
	r.log.Debug("Component stopped", map[string]interface{}{logger.FieldComponent: name})
	return nil
}

// HealthAll returns the health of every registered component.
func (r *Registry) HealthAll(ctx context.Context) []Health {
	r.mu.RLock()
	components := slices.Clone(r.components)
	r.mu.RUnlock()

	out := make([]Health, len(components))
	for i, c := range components {
		out[i] = c.Health(ctx)
	}
	return out
}

// Get returns the component registered under name, or nil.
func (r *Registry) Get(name string) Component {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byName[name]
}

// All returns the registered components in registration order.
func (r *Registry) All() []Component {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.components)
}
