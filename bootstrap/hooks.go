package bootstrap

import (
	"context"
	"fmt"
)

// Hook is a lifecycle callback that runs once per container lifetime.
type Hook func(ctx context.Context, c *Container) error

// WiringFunc registers per-container components and instances. It runs
// after the properties are resolved and the directories provisioned, and
// before any component is started.
type WiringFunc func(ctx context.Context, c *Container) error

// OnStart registers a hook that runs after all components are started
// but before the container is marked as running.
func (b *Bootstrapper) OnStart(hooks ...Hook) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onStart = append(b.onStart, hooks...)
}

// OnReady registers a hook that runs after the ready check, once the
// container is about to become current.
func (b *Bootstrapper) OnReady(hooks ...Hook) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onReady = append(b.onReady, hooks...)
}

// OnStop registers a hook that runs when a container closes, before its
// components are stopped.
func (b *Bootstrapper) OnStop(hooks ...Hook) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onStop = append(b.onStop, hooks...)
}

// Wire registers wiring callbacks applied to every container built after
// the call.
func (b *Bootstrapper) Wire(fns ...WiringFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.wiring = append(b.wiring, fns...)
}

// runHooks executes a slice of hooks sequentially, returning the first error.
func runHooks(ctx context.Context, c *Container, hooks []Hook) error {
	for i, h := range hooks {
		if err := h(ctx, c); err != nil {
			return fmt.Errorf("hook %d failed: %w", i, err)
		}
	}
	return nil
}
