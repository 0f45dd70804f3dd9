package endpoint

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/halo-dev/halo/bootstrap"
	"github.com/halo-dev/halo/component"
)

// HealthChecker returns the health of the container's components.
type HealthChecker func(ctx context.Context) []component.Health

// StatusFunc reports the bootstrapper status.
type StatusFunc func() bootstrap.Status

// rollup folds component reports into one status. Unhealthy wins over
// degraded.
func rollup(reports []component.Health) component.HealthStatus {
	overall := component.StatusHealthy
	for _, h := range reports {
		switch h.Status {
		case component.StatusUnhealthy:
			return component.StatusUnhealthy
		case component.StatusDegraded:
			overall = component.StatusDegraded
		}
	}
	return overall
}

func now() string { return time.Now().UTC().Format(time.RFC3339) }

// Health reports every component and the bootstrapper phase. It answers 503
// when a component is unhealthy or no container is serving.
func Health(serviceName string, checker HealthChecker, status StatusFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		var reports []component.Health
		if checker != nil {
			reports = checker(c.Request.Context())
		}
		overall := rollup(reports)

		body := gin.H{
			"service":    serviceName,
			"timestamp":  now(),
			"components": reports,
		}
		if status != nil {
			st := status()
			body["bootstrap"] = st
			if !st.Serving() {
				overall = component.StatusUnhealthy
			}
		}
		body["status"] = overall

		code := http.StatusOK
		if overall == component.StatusUnhealthy {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, body)
	}
}

// Readiness answers 503 while a component is unhealthy or the bootstrapper
// is between containers.
func Readiness(serviceName string, checker HealthChecker, status StatusFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		ready := status == nil || status().Serving()
		if ready && checker != nil {
			ready = rollup(checker(c.Request.Context())) != component.StatusUnhealthy
		}

		state, code := "ready", http.StatusOK
		if !ready {
			state, code = "not_ready", http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{"status": state, "service": serviceName, "timestamp": now()})
	}
}

// Liveness answers 200 whenever the process can serve HTTP.
func Liveness(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "alive", "service": serviceName, "timestamp": now()})
	}
}
