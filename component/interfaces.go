package component

import "context"

// HealthStatus is the coarse state a component reports.
type HealthStatus string

const (
	StatusHealthy   HealthStatus = "healthy"
	StatusDegraded  HealthStatus = "degraded"
	StatusUnhealthy HealthStatus = "unhealthy"
)

// Health is one component's entry in a health report.
type Health struct {
	Name    string       `json:"name"`
	Status  HealthStatus `json:"status"`
	Message string       `json:"message,omitempty"`
}

// Healthy reports a component with nothing to say.
func Healthy(name string) Health {
	return Health{Name: name, Status: StatusHealthy}
}

// Degraded reports a component that works with reduced function.
func Degraded(name, msg string) Health {
	return Health{Name: name, Status: StatusDegraded, Message: msg}
}

// Unhealthy reports a component that cannot serve.
func Unhealthy(name, msg string) Health {
	return Health{Name: name, Status: StatusUnhealthy, Message: msg}
}

// OK is true only for StatusHealthy.
func (h Health) OK() bool { return h.Status == StatusHealthy }

// Component is a subsystem owned by one application container. Start must
// return once the component is usable; Stop must release everything Start
// acquired and honor the context deadline.
type Component interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Health(ctx context.Context) Health
}

// Description is a component's line in the startup summary. An empty Name
// falls back to Component.Name.
type Description struct {
	Name    string
	Type    string
	Details string
	Port    int
}

// Describable components contribute a Description to the startup summary.
type Describable interface {
	Describe() Description
}

// Route is one HTTP route as listed by the summary and the docs endpoint.
type Route struct {
	Method  string `json:"method"`
	Path    string `json:"path"`
	Handler string `json:"handler"`
}

// RouteProvider is implemented by components that serve HTTP.
type RouteProvider interface {
	Routes() []Route
}
