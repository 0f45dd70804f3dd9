package server

import (
	"cmp"
	"slices"
	"strings"
	"unicode"

	"github.com/gin-gonic/gin"

	"github.com/halo-dev/halo/component"
)

// Probe and metadata paths, listed after the API routes.
var systemPaths = map[string]bool{
	"/health":       true,
	"/health/live":  true,
	"/health/ready": true,
	"/info":         true,
	"/api/docs":     true,
}

// formatHandlerName turns Gin's handler path into a short name, e.g.
// "github.com/halo-dev/halo/server/endpoint.Health.func1" becomes "health".
func formatHandlerName(fullPath string) string {
	name := strings.TrimSuffix(fullPath, "-fm")
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		name = name[idx+1:]
	}
	name = strings.ReplaceAll(name, "(*", "")
	name = strings.ReplaceAll(name, ")", "")

	if strings.Contains(name, ".func") {
		parts := strings.Split(name, ".")
		for i := len(parts) - 1; i >= 0; i-- {
			if !strings.HasPrefix(parts[i], "func") {
				return strings.ToLower(parts[i])
			}
		}
	}

	// Drop a lowercase package prefix: "port.UserPort.List" -> "UserPort.List".
	if pkg, rest, ok := strings.Cut(name, "."); ok && rest != "" && !strings.ContainsFunc(pkg, unicode.IsUpper) {
		name = rest
	}
	return name
}

var methods = []string{"GET", "POST", "PUT", "PATCH", "DELETE"}

// methodOrder sorts GET first and unknown methods last.
func methodOrder(method string) int {
	if i := slices.Index(methods, method); i >= 0 {
		return i
	}
	return len(methods)
}

// listRoutes returns the engine's routes, API first, then probes, each
// group ordered by path and method.
func listRoutes(engine *gin.Engine) []component.Route {
	infos := engine.Routes()
	slices.SortFunc(infos, func(a, b gin.RouteInfo) int {
		sa, sb := systemPaths[a.Path], systemPaths[b.Path]
		if sa != sb {
			if sa {
				return 1
			}
			return -1
		}
		if c := cmp.Compare(a.Path, b.Path); c != 0 {
			return c
		}
		return cmp.Compare(methodOrder(a.Method), methodOrder(b.Method))
	})

	out := make([]component.Route, len(infos))
	for i, ri := range infos {
		h := formatHandlerName(ri.Handler)
		if systemPaths[ri.Path] {
			h += " (system)"
		}
		out[i] = component.Route{Method: ri.Method, Path: ri.Path, Handler: h}
	}
	return out
}
