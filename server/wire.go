package server

import (
	"context"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/halo-dev/halo/bootstrap"
	"github.com/halo-dev/halo/component"
	"github.com/halo-dev/halo/di"
	"github.com/halo-dev/halo/server/endpoint"
	"github.com/halo-dev/halo/server/middleware"
)

// UploadSubdir is the directory under the work directory served at the
// upload URL prefix.
const UploadSubdir = "upload"

// NewWiring returns the wiring that builds the HTTP server for every
// container a Bootstrapper starts. Register it once per Bootstrapper: the
// restart rate limit counts across the containers it builds.
//
//	bootstrap.New(bootstrap.WithWiring(server.NewWiring()))
func NewWiring() bootstrap.WiringFunc {
	restarts := middleware.NewLimiter()
	return func(ctx context.Context, c *bootstrap.Container) error {
		return wire(ctx, c, restarts)
	}
}

func wire(_ context.Context, c *bootstrap.Container, restarts *middleware.Limiter) error {
	cfg, err := LoadConfig(c.Viper)
	if err != nil {
		return err
	}

	srv := New(*cfg, c.Props.ProductionEnv, c.Logger)
	srv.ApplyMiddleware()
	comp := NewComponent(srv)

	var restarter endpoint.Restarter
	if b := c.Bootstrapper(); b != nil {
		restarter = b
	}
	Mount(srv.GinEngine(), c, cfg, restarter, restarts, comp.Routes)

	if err := c.RegisterComponent(comp); err != nil {
		return err
	}
	return c.DI.RegisterSingleton(di.Names.HTTPServer, srv)
}

// Mount registers the system, admin, docs and upload routes on r. Restart
// requests are counted in restarts, or in a limiter of their own when it is
// nil.
func Mount(r gin.IRouter, c *bootstrap.Container, cfg *Config, restarter endpoint.Restarter, restarts *middleware.Limiter, routes func() []component.Route) {
	props := c.Props
	name := c.Service.Name

	var status endpoint.StatusFunc
	if restarter != nil {
		status = restarter.Status
	}

	r.GET("/health", endpoint.Health(name, c.Health, status))
	r.GET("/health/live", endpoint.Liveness(name))
	r.GET("/health/ready", endpoint.Readiness(name, c.Health, status))
	r.GET("/info", endpoint.Info(name, c, c.Generation))

	if !props.DocDisabled && routes != nil {
		r.GET("/api/docs", endpoint.Docs(routes))
	}

	if restarter != nil {
		admin := r.Group(props.AdminAPIPath())
		if props.AuthEnabled {
			if cfg.Auth.Secret == "" {
				c.Logger.Warn("Admin API authentication is enabled without server.auth.secret; all admin requests will be rejected")
			}
			admin.Use(middleware.Auth(middleware.AuthConfig{
				Secret: []byte(cfg.Auth.Secret),
				Issuer: cfg.Auth.Issuer,
			}))
		}
		restart := []gin.HandlerFunc{endpoint.Restart(restarter)}
		if cfg.RestartRateLimit > 0 {
			restart = append([]gin.HandlerFunc{middleware.RateLimit(middleware.RateLimitConfig{
				Limit:   cfg.RestartRateLimit,
				Window:  time.Minute,
				KeyFunc: middleware.SubjectBasedKey,
				Limiter: restarts,
			})}, restart...)
		}
		admin.POST("/restart", restart...)
		admin.GET("/restart", endpoint.RestartStatus(restarter))
	}

	r.StaticFS(props.UploadPath(), http.Dir(filepath.Join(props.WorkDir, UploadSubdir)))
}
