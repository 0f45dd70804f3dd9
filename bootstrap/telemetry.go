package bootstrap

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"

	"github.com/halo-dev/halo/logger"
)

const instrumentationName = "github.com/halo-dev/halo/bootstrap"

// Span and instrument names.
const (
	SpanStart   = "container.start"
	SpanRestart = "container.restart"
	SpanClose   = "container.close"

	MetricStarts          = "halo.container.starts"
	MetricRestarts        = "halo.container.restarts"
	MetricStartupDuration = "halo.container.startup.duration"
)

const (
	outcomeSuccess = "success"
	outcomeFailure = "failure"
)

// telemetry holds the lifecycle instruments of a Bootstrapper.
type telemetry struct {
	tracer   trace.Tracer
	starts   metric.Int64Counter
	restarts metric.Int64Counter
	startup  metric.Float64Histogram
}

func newTelemetry(tp trace.TracerProvider, mp metric.MeterProvider) *telemetry {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	if mp == nil {
		mp = otel.GetMeterProvider()
	}

	t := &telemetry{tracer: tp.Tracer(instrumentationName)}
	if err := t.instruments(mp.Meter(instrumentationName)); err != nil {
		logger.Warn("Lifecycle metrics disabled", map[string]interface{}{
			logger.FieldError: err.Error(),
		})
		_ = t.instruments(noop.NewMeterProvider().Meter(instrumentationName))
	}
	return t
}

func (t *telemetry) instruments(meter metric.Meter) error {
	var err error
	if t.starts, err = meter.Int64Counter(MetricStarts,
		metric.WithDescription("Application container builds"),
	); err != nil {
		return err
	}
	if t.restarts, err = meter.Int64Counter(MetricRestarts,
		metric.WithDescription("In-process application restarts"),
	); err != nil {
		return err
	}
	if t.startup, err = meter.Float64Histogram(MetricStartupDuration,
		metric.WithDescription("Time to build and start an application container"),
		metric.WithUnit("s"),
	); err != nil {
		return err
	}
	return nil
}

func outcome(err error) string {
	if err != nil {
		return outcomeFailure
	}
	return outcomeSuccess
}

// recordStart records one container build.
func (t *telemetry) recordStart(ctx context.Context, trigger string, d time.Duration, err error) {
	attrs := metric.WithAttributes(
		attribute.String("trigger", trigger),
		attribute.String("outcome", outcome(err)),
	)
	t.starts.Add(ctx, 1, attrs)
	if err == nil {
		t.startup.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String("trigger", trigger)))
	}
}

// recordRestart records one completed restart.
func (t *telemetry) recordRestart(ctx context.Context, err error) {
	t.restarts.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome(err))))
}

// endSpan records err on span, if any, and ends it.
func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
