package bootstrap

import (
	"io"
	"os"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/halo-dev/halo/config"
	"github.com/halo-dev/halo/logger"
)

// RestartFailurePolicy decides what happens when a restart cannot build a
// new container.
type RestartFailurePolicy int

const (
	// RestartFailureDegrade keeps the process alive without a current
	// container. Status reports the failure and a later Restart may recover.
	RestartFailureDegrade RestartFailurePolicy = iota
	// RestartFailureExit terminates the process with status 1 so that a
	// supervisor can start it again.
	RestartFailureExit
)

func (p RestartFailurePolicy) String() string {
	if p == RestartFailureExit {
		return "exit"
	}
	return "degrade"
}

// Option configures the Bootstrapper during creation.
type Option func(*options)

// options collects all option values before applying to Bootstrapper.
type options struct {
	logger          *logger.Logger
	gracefulTimeout time.Duration
	homeDir         string
	loaderOpts      []config.LoaderOption
	wiring          []WiringFunc
	failurePolicy   RestartFailurePolicy
	exit            func(code int)
	tracerProvider  trace.TracerProvider
	meterProvider   metric.MeterProvider
	summary         io.Writer
	watchDebounce   time.Duration
}

// resolveOptions applies all options over the defaults.
func resolveOptions(opts []Option) *options {
	o := &options{
		gracefulTimeout: 15 * time.Second,
		exit:            os.Exit,
		summary:         os.Stdout,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithLogger sets a fixed logger for every container. If not set, each
// container builds its logger from the logging.* settings.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithGracefulTimeout sets the maximum duration for closing a container.
func WithGracefulTimeout(d time.Duration) Option {
	return func(o *options) {
		o.gracefulTimeout = d
	}
}

// WithHomeDir overrides the user home directory used for the default
// configuration locations.
func WithHomeDir(dir string) Option {
	return func(o *options) {
		o.homeDir = dir
	}
}

// WithLoaderOptions passes options to config.Load for every container build.
func WithLoaderOptions(opts ...config.LoaderOption) Option {
	return func(o *options) {
		o.loaderOpts = append(o.loaderOpts, opts...)
	}
}

// WithWatchDebounce overrides config.DefaultDebounce for the watcher
// started when halo.restart-on-config-change is set.
func WithWatchDebounce(d time.Duration) Option {
	return func(o *options) {
		o.watchDebounce = d
	}
}

// WithWiring registers wiring callbacks, equivalent to calling Wire.
func WithWiring(fns ...WiringFunc) Option {
	return func(o *options) {
		o.wiring = append(o.wiring, fns...)
	}
}

// WithRestartFailurePolicy sets the behavior for failed restarts.
func WithRestartFailurePolicy(p RestartFailurePolicy) Option {
	return func(o *options) {
		o.failurePolicy = p
	}
}

// WithExitFunc replaces os.Exit for RestartFailureExit.
func WithExitFunc(fn func(code int)) Option {
	return func(o *options) {
		o.exit = fn
	}
}

// WithTracerProvider sets the provider for lifecycle spans. Defaults to the
// global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) {
		o.tracerProvider = tp
	}
}

// WithMeterProvider sets the provider for lifecycle metrics. Defaults to
// the global provider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) {
		o.meterProvider = mp
	}
}

// WithSummaryWriter sets where the startup summary is printed. A nil
// writer disables it.
func WithSummaryWriter(w io.Writer) Option {
	return func(o *options) {
		o.summary = w
	}
}
