// Package observability sets up OpenTelemetry tracing and metrics exported
// over OTLP/HTTP.
//
// Setup builds process-wide providers from observability.*; they are passed
// to the bootstrapper so container lifecycle spans and counters are
// recorded across restarts. Wire registers a telemetry component in each
// container that flushes buffered data when the container closes.
//
//	observability:
//	  enabled: true
//	  endpoint: otel-collector:4318
//	  sample-rate: 0.25
package observability
