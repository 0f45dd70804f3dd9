package middleware

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/halo-dev/halo/logger"
	"github.com/halo-dev/halo/observability"
)

const instrumentationName = "github.com/halo-dev/halo/server"

// Telemetry returns a Gin middleware that traces every request and records
// request metrics. Incoming trace context is extracted from the headers.
func Telemetry(tp trace.TracerProvider, mp metric.MeterProvider, log *logger.Logger) gin.HandlerFunc {
	tracer := tp.Tracer(instrumentationName)
	metrics, err := observability.NewMetrics(mp.Meter(instrumentationName))
	if err != nil {
		log.Warn("Request metrics disabled", map[string]interface{}{logger.FieldError: err.Error()})
	}

	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		ctx := otel.GetTextMapPropagator().Extract(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))
		ctx, span := tracer.Start(ctx, c.Request.Method+" "+route,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.request.method", c.Request.Method),
				attribute.String("http.route", route),
			),
		)
		c.Request = c.Request.WithContext(ctx)

		if metrics != nil {
			metrics.RecordRequestStart(ctx)
		}
		start := time.Now()

		// Deferred so that panicking handlers are still counted.
		defer func() {
			status := c.Writer.Status()
			span.SetAttributes(attribute.Int("http.response.status_code", status))
			if status >= 500 {
				span.SetStatus(codes.Error, fmt.Sprintf("HTTP %d", status))
			}
			if metrics != nil {
				metrics.RecordRequestEnd(ctx, c.Request.Method, route, status, time.Since(start))
			}
			span.End()
		}()

		c.Next()
	}
}
