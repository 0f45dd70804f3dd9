package endpoint_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/halo-dev/halo/bootstrap"
	"github.com/halo-dev/halo/component"
	"github.com/halo-dev/halo/errors"
	"github.com/halo-dev/halo/logger"
	"github.com/halo-dev/halo/server/endpoint"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(t *testing.T, method, path string, register func(r *gin.Engine)) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	r := gin.New()
	register(r)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(method, path, http.NoBody))

	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not valid JSON: %v (%s)", err, rr.Body.String())
	}
	return rr, body
}

func checker(statuses ...component.HealthStatus) endpoint.HealthChecker {
	return func(context.Context) []component.Health {
		out := make([]component.Health, 0, len(statuses))
		for i, s := range statuses {
			out = append(out, component.Health{Name: string(rune('a' + i)), Status: s})
		}
		return out
	}
}

func phase(p bootstrap.Phase) endpoint.StatusFunc {
	return func() bootstrap.Status { return bootstrap.Status{Phase: p, Generation: 1} }
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name       string
		checker    endpoint.HealthChecker
		status     endpoint.StatusFunc
		wantCode   int
		wantStatus string
	}{
		{"all healthy", checker(component.StatusHealthy), phase(bootstrap.PhaseRunning), http.StatusOK, "healthy"},
		{"degraded component", checker(component.StatusHealthy, component.StatusDegraded), phase(bootstrap.PhaseRunning), http.StatusOK, "degraded"},
		{"unhealthy component", checker(component.StatusDegraded, component.StatusUnhealthy), phase(bootstrap.PhaseRunning), http.StatusServiceUnavailable, "unhealthy"},
		{"restarting", checker(component.StatusHealthy), phase(bootstrap.PhaseRestarting), http.StatusServiceUnavailable, "unhealthy"},
		{"degraded bootstrapper", nil, phase(bootstrap.PhaseDegraded), http.StatusServiceUnavailable, "unhealthy"},
		{"no status", checker(component.StatusHealthy), nil, http.StatusOK, "healthy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr, body := serve(t, http.MethodGet, "/health", func(r *gin.Engine) {
				r.GET("/health", endpoint.Health("halo", tt.checker, tt.status))
			})
			if rr.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d", tt.wantCode, rr.Code)
			}
			if body["status"] != tt.wantStatus {
				t.Fatalf("expected status %s, got %v", tt.wantStatus, body["status"])
			}
			if _, ok := body["bootstrap"]; ok != (tt.status != nil) {
				t.Fatalf("bootstrap section presence = %v", ok)
			}
		})
	}
}

func TestReadiness(t *testing.T) {
	tests := []struct {
		name     string
		checker  endpoint.HealthChecker
		status   endpoint.StatusFunc
		wantCode int
	}{
		{"ready", checker(component.StatusHealthy), phase(bootstrap.PhaseRunning), http.StatusOK},
		{"unhealthy component", checker(component.StatusUnhealthy), phase(bootstrap.PhaseRunning), http.StatusServiceUnavailable},
		{"restarting", checker(component.StatusHealthy), phase(bootstrap.PhaseRestarting), http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr, _ := serve(t, http.MethodGet, "/ready", func(r *gin.Engine) {
				r.GET("/ready", endpoint.Readiness("halo", tt.checker, tt.status))
			})
			if rr.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d", tt.wantCode, rr.Code)
			}
		})
	}
}

func TestLiveness(t *testing.T) {
	rr, body := serve(t, http.MethodGet, "/live", func(r *gin.Engine) {
		r.GET("/live", endpoint.Liveness("halo"))
	})
	if rr.Code != http.StatusOK || body["status"] != "alive" {
		t.Fatalf("unexpected response %d %v", rr.Code, body)
	}
}

type fixedUptime time.Duration

func (u fixedUptime) Uptime() time.Duration { return time.Duration(u) }

func TestInfo(t *testing.T) {
	rr, body := serve(t, http.MethodGet, "/info", func(r *gin.Engine) {
		r.GET("/info", endpoint.Info("halo", fixedUptime(90*time.Second), 3))
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if body["uptime"] != "1m30s" {
		t.Fatalf("unexpected uptime %v", body["uptime"])
	}
	if body["generation"] != float64(3) {
		t.Fatalf("unexpected generation %v", body["generation"])
	}
	build, ok := body["build"].(map[string]any)
	if !ok || build["version"] == "" {
		t.Fatalf("expected build info, got %v", body["build"])
	}
}

func TestInfoWithoutInstance(t *testing.T) {
	_, body := serve(t, http.MethodGet, "/info", func(r *gin.Engine) {
		r.GET("/info", endpoint.Info("halo", nil, 0))
	})
	if _, ok := body["uptime"]; ok {
		t.Fatal("uptime must be omitted without an instance")
	}
}

func TestDocs(t *testing.T) {
	routes := []component.Route{{Method: "GET", Path: "/health", Handler: "health"}}
	_, body := serve(t, http.MethodGet, "/api/docs", func(r *gin.Engine) {
		r.GET("/api/docs", endpoint.Docs(func() []component.Route { return routes }))
	})
	data, ok := body["data"].([]any)
	if !ok || len(data) != 1 {
		t.Fatalf("unexpected docs body %v", body)
	}
	if first := data[0].(map[string]any); first["path"] != "/health" {
		t.Fatalf("unexpected route %v", first)
	}
}

func TestRestartStatus(t *testing.T) {
	b := bootstrap.New(bootstrap.WithLogger(logger.NewNop()), bootstrap.WithSummaryWriter(nil))
	_, body := serve(t, http.MethodGet, "/restart", func(r *gin.Engine) {
		r.GET("/restart", endpoint.RestartStatus(b))
	})
	data, ok := body["data"].(map[string]any)
	if !ok || data["phase"] != string(bootstrap.PhaseStopped) {
		t.Fatalf("unexpected status body %v", body)
	}
}

func TestRestartAfterShutdown(t *testing.T) {
	b := bootstrap.New(bootstrap.WithLogger(logger.NewNop()), bootstrap.WithSummaryWriter(nil))
	if err := b.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}

	rr, body := serve(t, http.MethodPost, "/restart", func(r *gin.Engine) {
		r.POST("/restart", endpoint.Restart(b))
	})
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
	errBody, _ := body["error"].(map[string]any)
	if errBody["code"] != string(errors.ErrCodeRestartFailed) {
		t.Fatalf("unexpected error body %v", body)
	}
}

func TestRestartBeforeStart(t *testing.T) {
	b := bootstrap.New(bootstrap.WithLogger(logger.NewNop()), bootstrap.WithSummaryWriter(nil))

	rr, body := serve(t, http.MethodPost, "/restart", func(r *gin.Engine) {
		r.POST("/restart", endpoint.Restart(b))
	})
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
	errBody, _ := body["error"].(map[string]any)
	if errBody["code"] != string(errors.ErrCodeNoContainer) {
		t.Fatalf("unexpected error body %v", body)
	}
}
