package component

import (
	"context"
	"sync/atomic"
)

// Func adapts a pair of functions to the Component interface. Either
// function may be nil.
type Func struct {
	name    string
	start   func(ctx context.Context) error
	stop    func(ctx context.Context) error
	running atomic.Bool
}

var _ Component = (*Func)(nil)

// NewFunc creates a component named name from start and stop functions.
func NewFunc(name string, start, stop func(ctx context.Context) error) *Func {
	return &Func{name: name, start: start, stop: stop}
}

// Name returns the component name.
func (f *Func) Name() string { return f.name }

// Start runs the start function.
func (f *Func) Start(ctx context.Context) error {
	if f.start != nil {
		if err := f.start(ctx); err != nil {
			return err
		}
	}
	f.running.Store(true)
	return nil
}

// Stop runs the stop function.
func (f *Func) Stop(ctx context.Context) error {
	f.running.Store(false)
	if f.stop != nil {
		return f.stop(ctx)
	}
	return nil
}

// Health reports healthy while started.
func (f *Func) Health(ctx context.Context) Health {
	if f.running.Load() {
		return Healthy(f.name)
	}
	return Unhealthy(f.name, "not running")
}
