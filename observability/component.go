package observability

import (
	"context"

	"github.com/halo-dev/halo/bootstrap"
	"github.com/halo-dev/halo/component"
	"github.com/halo-dev/halo/di"
)

const componentName = "telemetry"

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// Component exposes the process Provider inside a container. Stopping it
// flushes buffered telemetry; the providers themselves stay up.
type Component struct {
	provider *Provider
}

// NewComponent wraps p.
func NewComponent(p *Provider) *Component {
	return &Component{provider: p}
}

// Name returns the component name used for registration.
func (c *Component) Name() string { return componentName }

// Start is a no-op; the providers are created by Setup.
func (c *Component) Start(context.Context) error { return nil }

// Stop flushes buffered spans and metrics.
func (c *Component) Stop(ctx context.Context) error {
	return c.provider.ForceFlush(ctx)
}

// Health is always healthy. A disabled provider says so in the message.
func (c *Component) Health(context.Context) component.Health {
	h := component.Healthy(componentName)
	if !c.provider.Enabled() {
		h.Message = "export disabled"
	}
	return h
}

// Describe returns summary info for the startup display.
func (c *Component) Describe() component.Description {
	details := "disabled"
	if c.provider.Enabled() {
		details = "otlp/http " + c.provider.Config().Endpoint
	}
	return component.Description{Name: "Telemetry", Type: "telemetry", Details: details}
}

// Wire returns a wiring callback registering p in every container.
func Wire(p *Provider) bootstrap.WiringFunc {
	return func(_ context.Context, c *bootstrap.Container) error {
		if err := c.RegisterComponent(NewComponent(p)); err != nil {
			return err
		}
		return c.DI.RegisterSingleton(di.Names.Telemetry, p)
	}
}
