package bootstrap

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/halo-dev/halo/component"
)

// Summary renders the startup banner of a container: configuration,
// components, routes and live health.
type Summary struct {
	container       *Container
	startupDuration time.Duration
}

// NewSummary creates a summary for c.
func NewSummary(c *Container, startup time.Duration) *Summary {
	return &Summary{container: c, startupDuration: startup}
}

// Render writes the summary to w.
func (s *Summary) Render(w io.Writer) {
	c := s.container

	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "🚀 %s v%s started in %.2fs (generation %d)\n\n",
		c.Service.Name, c.Service.Version, s.startupDuration.Seconds(), c.Generation)

	p := c.Props
	fmt.Fprintf(w, "⚙️  Configuration\n")
	rows := [][2]string{
		{"work dir", p.WorkDir},
		{"backup dir", p.BackupDir},
		{"admin api", p.AdminAPIPath()},
		{"uploads", p.UploadPath()},
		{"auth", enabled(p.AuthEnabled)},
		{"api docs", enabled(!p.DocDisabled)},
	}
	for i, row := range rows {
		fmt.Fprintf(w, "   %s %-10s %s\n", treePrefix(i, len(rows)), row[0], row[1])
	}

	comps := c.Components.All()
	fmt.Fprintf(w, "\n📦 Components\n")
	if len(comps) == 0 {
		fmt.Fprintf(w, "   └── No components registered\n")
	}
	var routes []component.Route
	for i, comp := range comps {
		name, details := comp.Name(), ""
		if d, ok := comp.(component.Describable); ok {
			desc := d.Describe()
			if desc.Name != "" {
				name = desc.Name
			}
			details = desc.Details
			if desc.Port > 0 {
				details = fmt.Sprintf("%s (:%d)", details, desc.Port)
			}
		}
		if details != "" {
			details = ": " + details
		}
		fmt.Fprintf(w, "   %s %s%s\n", treePrefix(i, len(comps)), name, details)

		if rp, ok := comp.(component.RouteProvider); ok {
			routes = append(routes, rp.Routes()...)
		}
	}

	if len(routes) > 0 {
		fmt.Fprintf(w, "\n🌐 Routes (%d)\n", len(routes))
		for i, r := range routes {
			fmt.Fprintf(w, "   %s %-7s %s → %s\n", treePrefix(i, len(routes)), r.Method, r.Path, r.Handler)
		}
	}

	health := c.Health(context.Background())
	if len(health) > 0 {
		fmt.Fprintf(w, "\n🏥 Health Check\n")
		for i, h := range health {
			msg := ""
			if h.Message != "" {
				msg = " (" + h.Message + ")"
			}
			fmt.Fprintf(w, "   %s %s %s: %s%s\n", treePrefix(i, len(health)), healthStatusIcon(h.Status), h.Name, strings.ToLower(string(h.Status)), msg)
		}
	}

	fmt.Fprintf(w, "\n")
}

func treePrefix(i, n int) string {
	if i == n-1 {
		return "└──"
	}
	return "├──"
}

func enabled(b bool) string {
	if b {
		return "enabled"
	}
	return "disabled"
}

func healthStatusIcon(status component.HealthStatus) string {
	switch status {
	case component.StatusHealthy:
		return "✅"
	case component.StatusDegraded:
		return "⚠️"
	case component.StatusUnhealthy:
		return "❌"
	default:
		return "❓"
	}
}
