package server

import (
	"context"

	"github.com/halo-dev/halo/component"
)

const componentName = "http-server"

var (
	_ component.Component     = (*Component)(nil)
	_ component.Describable   = (*Component)(nil)
	_ component.RouteProvider = (*Component)(nil)
)

// Component registers a Server with the container. Start and Stop come from
// the embedded Server.
type Component struct {
	*Server
}

// NewComponent wraps s.
func NewComponent(s *Server) *Component { return &Component{Server: s} }

func (*Component) Name() string { return componentName }

// Health is unhealthy until the listener is bound.
func (sc *Component) Health(context.Context) component.Health {
	if !sc.Listening() {
		return component.Unhealthy(componentName, "not listening")
	}
	return component.Healthy(componentName)
}

func (sc *Component) Describe() component.Description {
	return component.Description{
		Name:    "HTTP Server",
		Type:    "server",
		Details: sc.Addr() + " (h2c)",
		Port:    sc.config.Port,
	}
}

func (sc *Component) Routes() []component.Route { return listRoutes(sc.engine) }
