package bootstrap

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/viper"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/halo-dev/halo/component"
	"github.com/halo-dev/halo/config"
	"github.com/halo-dev/halo/di"
	"github.com/halo-dev/halo/logger"
	"github.com/halo-dev/halo/properties"
)

// State is the lifecycle state of a Container.
type State string

const (
	StateStarting State = "starting"
	StateRunning  State = "running"
	StateClosing  State = "closing"
	StateClosed   State = "closed"
	StateFailed   State = "failed"
)

// Container is one lifetime of the application: its configuration, object
// graph and running components. It is built by a Bootstrapper and never
// reused after Close.
type Container struct {
	ID         string
	Generation int
	Props      *properties.Properties
	Service    *config.ServiceConfig
	Viper      *viper.Viper
	DI         *di.MapContainer
	Components *component.Registry
	Logger     *logger.Logger
	StartedAt  time.Time

	args    []string
	owner   *Bootstrapper
	onStop  []Hook
	state   atomic.Value // State
	timeout time.Duration

	closeOnce sync.Once
	closeErr  error
}

// Args returns a copy of the process arguments the container was built from.
func (c *Container) Args() []string {
	return append([]string(nil), c.args...)
}

// State returns the current lifecycle state.
func (c *Container) State() State {
	if s, ok := c.state.Load().(State); ok {
		return s
	}
	return StateStarting
}

func (c *Container) setState(s State) {
	c.state.Store(s)
}

// Bootstrapper returns the bootstrapper that owns the container.
func (c *Container) Bootstrapper() *Bootstrapper {
	return c.owner
}

// RegisterComponent adds a component to the container's registry. Only
// valid from wiring callbacks, before components are started.
func (c *Container) RegisterComponent(comp component.Component) error {
	return c.Components.Register(comp)
}

// Health returns the health of every registered component.
func (c *Container) Health(ctx context.Context) []component.Health {
	return c.Components.HealthAll(ctx)
}

// ReadyCheck verifies that all registered components are healthy.
func (c *Container) ReadyCheck(ctx context.Context) error {
	var unhealthy []string
	for _, h := range c.Health(ctx) {
		if !h.OK() {
			detail := h.Name + "=" + string(h.Status)
			if h.Message != "" {
				detail += "(" + h.Message + ")"
			}
			unhealthy = append(unhealthy, detail)
		}
	}
	if len(unhealthy) > 0 {
		return fmt.Errorf("unhealthy components: %v", unhealthy)
	}
	return nil
}

// Uptime returns how long the container has been running.
func (c *Container) Uptime() time.Duration {
	if c.StartedAt.IsZero() {
		return 0
	}
	return time.Since(c.StartedAt)
}

// Close stops the container: OnStop hooks, then components in reverse
// order, then the DI container. It waits at most the graceful timeout.
// Calling Close again returns the first result.
func (c *Container) Close(ctx context.Context) error {
	c.closeOnce.Do(func() {
		c.closeErr = c.close(ctx)
	})
	return c.closeErr
}

func (c *Container) close(ctx context.Context) error {
	failed := c.State() == StateFailed
	c.setState(StateClosing)

	var span trace.Span
	if c.owner != nil {
		ctx, span = c.owner.tel.tracer.Start(ctx, SpanClose, trace.WithAttributes(
			attribute.String("container.id", c.ID),
			attribute.Int("container.generation", c.Generation),
		))
	}

	c.Logger.Info("Closing application container", map[string]interface{}{
		"timeout": c.timeout.String(),
	})

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
	defer cancel()

	var shutdownErr error

	// OnStop hooks only run for containers that finished starting.
	if !failed {
		if err := runHooks(ctx, c, c.onStop); err != nil {
			c.Logger.Error("OnStop hook error", map[string]interface{}{
				logger.FieldError: err.Error(),
			})
			shutdownErr = err
		}
	}

	if err := c.Components.StopAll(ctx); err != nil {
		c.Logger.Error("Shutdown completed with errors", map[string]interface{}{
			logger.FieldError: err.Error(),
		})
		shutdownErr = err
	}

	if err := c.DI.Close(); err != nil {
		c.Logger.Error("DI container close error", map[string]interface{}{
			logger.FieldError: err.Error(),
		})
		if shutdownErr == nil {
			shutdownErr = err
		}
	}

	if failed {
		c.setState(StateFailed)
	} else {
		c.setState(StateClosed)
	}
	if span != nil {
		endSpan(span, shutdownErr)
	}

	c.Logger.Info("Application container closed")
	return shutdownErr
}
