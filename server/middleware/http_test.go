package middleware_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/halo-dev/halo/errors"
	"github.com/halo-dev/halo/logger"
	"github.com/halo-dev/halo/observability"
	"github.com/halo-dev/halo/server/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(mw...)
	r.GET("/ok", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/panic", func(*gin.Context) { panic("test panic") })
	r.POST("/echo", func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.String(http.StatusRequestEntityTooLarge, err.Error())
			return
		}
		c.String(http.StatusOK, string(body))
	})
	r.GET("/whoami", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(middleware.SubjectKey)) })
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func do(r http.Handler, method, path string, body io.Reader, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) errors.ErrorBody {
	t.Helper()
	var resp errors.ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response is not valid JSON: %v (%s)", err, rr.Body.String())
	}
	return resp.Error
}

// ---------------------------------------------------------------------------
// Recovery
// ---------------------------------------------------------------------------

func TestRecovery_NoPanic(t *testing.T) {
	r := newEngine(middleware.Recovery(logger.NewNop()))
	if rr := do(r, http.MethodGet, "/ok", http.NoBody, nil); rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestRecovery_Panic(t *testing.T) {
	r := newEngine(middleware.Recovery(logger.NewNop()))
	rr := do(r, http.MethodGet, "/panic", http.NoBody, nil)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	if body := decodeError(t, rr); body.Code != errors.ErrCodeInternal {
		t.Fatalf("unexpected code: %s", body.Code)
	}
}

// ---------------------------------------------------------------------------
// RequestID
// ---------------------------------------------------------------------------

func TestRequestID_Generated(t *testing.T) {
	r := newEngine(middleware.RequestID())
	rr := do(r, http.MethodGet, "/ok", http.NoBody, nil)
	if rr.Header().Get(middleware.RequestIDHeader) == "" {
		t.Fatal("expected a generated request id")
	}
}

func TestRequestID_Propagated(t *testing.T) {
	r := newEngine(middleware.RequestID())
	rr := do(r, http.MethodGet, "/ok", http.NoBody, http.Header{middleware.RequestIDHeader: {"abc-123"}})
	if got := rr.Header().Get(middleware.RequestIDHeader); got != "abc-123" {
		t.Fatalf("expected abc-123, got %q", got)
	}
}

// ---------------------------------------------------------------------------
// RequestLogger
// ---------------------------------------------------------------------------

func TestRequestLogger(t *testing.T) {
	var buf strings.Builder
	log := logger.NewWithWriter(&logger.Config{Level: "debug", Format: "json"}, "test", &buf)
	r := newEngine(middleware.RequestID(), middleware.RequestLogger(log))

	do(r, http.MethodGet, "/ok?x=1", http.NoBody, nil)
	if !strings.Contains(buf.String(), `"path":"/ok?x=1"`) {
		t.Fatalf("expected request to be logged, got %s", buf.String())
	}

	buf.Reset()
	do(r, http.MethodGet, "/health", http.NoBody, nil)
	if buf.Len() != 0 {
		t.Fatalf("health checks must not be logged, got %s", buf.String())
	}
}

// ---------------------------------------------------------------------------
// Auth
// ---------------------------------------------------------------------------

func TestAuth(t *testing.T) {
	secret := []byte("s3cret")
	valid, err := middleware.SignToken(secret, "halo", "admin", time.Minute)
	if err != nil {
		t.Fatalf("SignToken: %v", err)
	}
	wrongKey, _ := middleware.SignToken([]byte("other"), "halo", "admin", time.Minute)
	wrongIssuer, _ := middleware.SignToken(secret, "elsewhere", "admin", time.Minute)
	expired, _ := middleware.SignToken(secret, "halo", "admin", -time.Minute)

	tests := []struct {
		name   string
		header string
		status int
		code   errors.ErrorCode
	}{
		{"valid", "Bearer " + valid, http.StatusOK, ""},
		{"lowercase scheme", "bearer " + valid, http.StatusOK, ""},
		{"missing header", "", http.StatusUnauthorized, errors.ErrCodeUnauthorized},
		{"wrong scheme", "Basic " + valid, http.StatusUnauthorized, errors.ErrCodeUnauthorized},
		{"wrong key", "Bearer " + wrongKey, http.StatusUnauthorized, errors.ErrCodeInvalidToken},
		{"wrong issuer", "Bearer " + wrongIssuer, http.StatusUnauthorized, errors.ErrCodeInvalidToken},
		{"expired", "Bearer " + expired, http.StatusUnauthorized, errors.ErrCodeInvalidToken},
		{"garbage", "Bearer not-a-token", http.StatusUnauthorized, errors.ErrCodeInvalidToken},
	}

	r := newEngine(middleware.Auth(middleware.AuthConfig{Secret: secret, Issuer: "halo"}))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			if tt.header != "" {
				h.Set("Authorization", tt.header)
			}
			rr := do(r, http.MethodGet, "/whoami", http.NoBody, h)
			if rr.Code != tt.status {
				t.Fatalf("expected %d, got %d (%s)", tt.status, rr.Code, rr.Body.String())
			}
			if tt.code != "" {
				if body := decodeError(t, rr); body.Code != tt.code {
					t.Fatalf("expected code %s, got %s", tt.code, body.Code)
				}
			} else if rr.Body.String() != "admin" {
				t.Fatalf("expected subject admin, got %q", rr.Body.String())
			}
		})
	}
}

func TestAuth_EmptySecretRejects(t *testing.T) {
	r := newEngine(middleware.Auth(middleware.AuthConfig{}))
	token, _ := middleware.SignToken([]byte("x"), "", "admin", time.Minute)
	rr := do(r, http.MethodGet, "/whoami", http.NoBody, http.Header{"Authorization": {"Bearer " + token}})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestAuth_SkipPaths(t *testing.T) {
	r := newEngine(middleware.Auth(middleware.AuthConfig{Secret: []byte("k"), SkipPaths: []string{"/health"}}))
	if rr := do(r, http.MethodGet, "/health", http.NoBody, nil); rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestSignToken_EmptySecret(t *testing.T) {
	if _, err := middleware.SignToken(nil, "", "admin", time.Minute); err == nil {
		t.Fatal("expected error for empty secret")
	}
}

// ---------------------------------------------------------------------------
// CORS
// ---------------------------------------------------------------------------

func TestCORS(t *testing.T) {
	cfg := middleware.CORSConfig{
		AllowedOrigins: []string{"https://example.com"},
		AllowedMethods: []string{"GET", "POST"},
	}
	r := newEngine(middleware.CORS(cfg))
	r.OPTIONS("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })

	t.Run("allowed origin", func(t *testing.T) {
		rr := do(r, http.MethodGet, "/ok", http.NoBody, http.Header{"Origin": {"https://example.com"}})
		if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "https://example.com" {
			t.Fatalf("unexpected allow-origin %q", got)
		}
	})
	t.Run("foreign origin", func(t *testing.T) {
		rr := do(r, http.MethodGet, "/ok", http.NoBody, http.Header{"Origin": {"https://evil.test"}})
		if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "" {
			t.Fatalf("expected no allow-origin, got %q", got)
		}
	})
	t.Run("preflight", func(t *testing.T) {
		rr := do(r, http.MethodOptions, "/ok", http.NoBody, http.Header{"Origin": {"https://example.com"}})
		if rr.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", rr.Code)
		}
	})
}

// ---------------------------------------------------------------------------
// BodySizeLimit
// ---------------------------------------------------------------------------

func TestBodySizeLimit(t *testing.T) {
	r := newEngine(middleware.BodySizeLimit(4))
	if rr := do(r, http.MethodPost, "/echo", strings.NewReader("abc"), nil); rr.Code != http.StatusOK {
		t.Fatalf("expected 200 under limit, got %d", rr.Code)
	}
	rr := do(r, http.MethodPost, "/echo", strings.NewReader("abcdefgh"), nil)
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 over limit, got %d", rr.Code)
	}
	if body := decodeError(t, rr); body.Code != errors.ErrCodeTooLarge {
		t.Fatalf("expected PAYLOAD_TOO_LARGE, got %s", body.Code)
	}

	// Without a Content-Length the handler's read fails instead.
	unsized := io.MultiReader(strings.NewReader("abcd"), strings.NewReader("efgh"))
	if rr := do(r, http.MethodPost, "/echo", unsized, nil); rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 for unsized body, got %d", rr.Code)
	}
}

// ---------------------------------------------------------------------------
// RateLimit
// ---------------------------------------------------------------------------

func TestRateLimit(t *testing.T) {
	r := newEngine(middleware.RateLimit(middleware.RateLimitConfig{Limit: 2, Window: time.Hour}))
	for i := 0; i < 2; i++ {
		if rr := do(r, http.MethodGet, "/ok", http.NoBody, nil); rr.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, rr.Code)
		}
	}
	rr := do(r, http.MethodGet, "/ok", http.NoBody, nil)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header")
	}
	if body := decodeError(t, rr); body.Code != errors.ErrCodeRateLimited || !body.Retryable {
		t.Fatalf("unexpected body %+v", body)
	}
}

func TestRateLimit_PerKey(t *testing.T) {
	keyed := middleware.RateLimit(middleware.RateLimitConfig{
		Limit:   1,
		Window:  time.Hour,
		KeyFunc: func(c *gin.Context) string { return c.GetHeader("X-Key") },
	})
	r := newEngine(keyed)
	if rr := do(r, http.MethodGet, "/ok", http.NoBody, http.Header{"X-Key": {"a"}}); rr.Code != http.StatusOK {
		t.Fatalf("expected 200 for a, got %d", rr.Code)
	}
	if rr := do(r, http.MethodGet, "/ok", http.NoBody, http.Header{"X-Key": {"b"}}); rr.Code != http.StatusOK {
		t.Fatalf("expected 200 for b, got %d", rr.Code)
	}
	if rr := do(r, http.MethodGet, "/ok", http.NoBody, http.Header{"X-Key": {"a"}}); rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 for a, got %d", rr.Code)
	}
}

func TestRateLimit_SharedLimiter(t *testing.T) {
	shared := middleware.NewLimiter()
	build := func() *gin.Engine {
		return newEngine(middleware.RateLimit(middleware.RateLimitConfig{
			Limit:   1,
			Window:  time.Hour,
			Limiter: shared,
		}))
	}

	if rr := do(build(), http.MethodGet, "/ok", http.NoBody, nil); rr.Code != http.StatusOK {
		t.Fatalf("expected 200 from first engine, got %d", rr.Code)
	}
	if rr := do(build(), http.MethodGet, "/ok", http.NoBody, nil); rr.Code != http.StatusTooManyRequests {
		t.Fatalf("rebuilt engine must share the budget, got %d", rr.Code)
	}
}

func TestLimiterWindowSlides(t *testing.T) {
	l := middleware.NewLimiter()
	t0 := time.Now()
	if !l.Allow("k", t0, 1, time.Minute) {
		t.Fatal("first request rejected")
	}
	if l.Allow("k", t0.Add(30*time.Second), 1, time.Minute) {
		t.Fatal("second request inside the window accepted")
	}
	if !l.Allow("k", t0.Add(61*time.Second), 1, time.Minute) {
		t.Fatal("request after the window rejected")
	}
}

// ---------------------------------------------------------------------------
// Telemetry
// ---------------------------------------------------------------------------

func TestTelemetry(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	r := newEngine(middleware.Recovery(logger.NewNop()), middleware.Telemetry(tp, mp, logger.NewNop()))
	do(r, http.MethodGet, "/ok", http.NoBody, nil)
	do(r, http.MethodGet, "/panic", http.NoBody, nil)

	spans := sr.Ended()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}
	if spans[0].Name() != "GET /ok" {
		t.Fatalf("unexpected span name %q", spans[0].Name())
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != observability.MetricRequestTotal {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("unexpected data type %T", m.Data)
			}
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}
	if total != 2 {
		t.Fatalf("expected 2 requests recorded, got %d", total)
	}
}
