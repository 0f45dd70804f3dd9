package bootstrap

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/halo-dev/halo/component"
	"github.com/halo-dev/halo/config"
	"github.com/halo-dev/halo/di"
	"github.com/halo-dev/halo/errors"
	"github.com/halo-dev/halo/logger"
	"github.com/halo-dev/halo/properties"
	"github.com/halo-dev/halo/version"
)

const (
	triggerStart   = "start"
	triggerRestart = "restart"
)

// ErrShutdown is the cause reported by restarts requested after Shutdown.
var ErrShutdown = stderrors.New("bootstrapper is shutting down")

// Bootstrapper owns the process-wide current Container and its
// transitions: start, restart and shutdown.
type Bootstrapper struct {
	opts *options
	tel  *telemetry

	current atomic.Pointer[Container]

	// lifecycle serializes container transitions so that closing one
	// container always completes before the next one starts.
	lifecycle sync.Mutex

	mu            sync.Mutex
	base          context.Context
	lastArgs      []string
	started       bool
	generation    int
	inflight      *RestartHandle
	restarts      int
	lastRestartID string
	lastErr       error
	shutdown      bool
	wiring        []WiringFunc
	onStart       []Hook
	onReady       []Hook
	onStop        []Hook

	wg sync.WaitGroup
}

// New creates a Bootstrapper. No container exists until Start.
func New(opts ...Option) *Bootstrapper {
	o := resolveOptions(opts)
	return &Bootstrapper{
		opts:   o,
		tel:    newTelemetry(o.tracerProvider, o.meterProvider),
		base:   context.Background(),
		wiring: slices.Clone(o.wiring),
	}
}

// Configure prepares the configuration search path without starting a
// container. Hosts that drive the lifecycle themselves call it before
// loading configuration. It returns the resulting search path.
func (b *Bootstrapper) Configure() (string, error) {
	home := b.opts.homeDir
	if home == "" {
		h, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		home = h
	}
	return config.PrepareSearchPath(home)
}

// Start prepares the search path, builds and starts a container from args
// and makes it current. A container that is already current is closed
// first. Start does not retry: on failure no container is current.
func (b *Bootstrapper) Start(ctx context.Context, args []string) (*Container, error) {
	if _, err := b.Configure(); err != nil {
		return nil, errors.ContainerStart("configuration", err)
	}

	b.mu.Lock()
	b.lastArgs = slices.Clone(args)
	b.started = true
	b.base = context.WithoutCancel(ctx)
	b.shutdown = false
	b.mu.Unlock()

	b.lifecycle.Lock()
	defer b.lifecycle.Unlock()

	if old := b.current.Swap(nil); old != nil {
		b.closeContainer(ctx, old)
	}

	c, err := b.launch(ctx, args, triggerStart)

	b.mu.Lock()
	b.lastErr = err
	b.mu.Unlock()

	if err != nil {
		return nil, err
	}
	b.current.Store(c)
	return c, nil
}

// Current returns the current container, or nil while none is running.
func (b *Bootstrapper) Current() *Container {
	return b.current.Load()
}

// Restart rebuilds the application in a background goroutine and returns
// immediately. The goroutine closes the current container and then starts
// a new one from the same process arguments. A Restart while another is in
// flight returns the in-flight handle. Before the first Start there are no
// arguments to reuse and the handle fails with NO_CONTAINER.
func (b *Bootstrapper) Restart() *RestartHandle {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.inflight != nil {
		return b.inflight
	}

	id := uuid.NewString()
	if b.shutdown {
		return finishedHandle(id, errors.RestartFailed(id, ErrShutdown))
	}
	if !b.started {
		return finishedHandle(id, errors.NoContainer().WithDetail("restart_id", id))
	}

	var args []string
	if cur := b.current.Load(); cur != nil {
		args = cur.Args()
	} else {
		args = slices.Clone(b.lastArgs)
	}

	h := newRestartHandle(id)
	b.inflight = h
	b.wg.Add(1)
	go b.restart(context.WithoutCancel(b.base), h, args)
	return h
}

func (b *Bootstrapper) restart(ctx context.Context, h *RestartHandle, args []string) {
	defer b.wg.Done()

	ctx, span := b.tel.tracer.Start(ctx, SpanRestart, trace.WithAttributes(
		attribute.String("restart.id", h.ID()),
	))
	log := b.log().WithFields(map[string]interface{}{logger.FieldRestartID: h.ID()})
	log.Info("Restarting application")

	b.lifecycle.Lock()
	if old := b.current.Swap(nil); old != nil {
		b.closeContainer(ctx, old)
	}
	c, err := b.launch(ctx, args, triggerRestart)
	if err == nil {
		b.current.Store(c)
	}
	b.lifecycle.Unlock()

	if err != nil {
		err = errors.RestartFailed(h.ID(), err)
	}

	b.mu.Lock()
	b.restarts++
	b.lastErr = err
	b.lastRestartID = h.ID()
	b.inflight = nil
	b.mu.Unlock()

	b.tel.recordRestart(ctx, err)
	endSpan(span, err)
	h.finish(c, err)

	if err != nil {
		log.Error("Application restart failed", map[string]interface{}{
			logger.FieldError: err.Error(),
			"policy":          b.opts.failurePolicy.String(),
		})
		if b.opts.failurePolicy == RestartFailureExit {
			b.opts.exit(1)
		}
		return
	}
	log.Info("Application restarted", map[string]interface{}{
		logger.FieldContainerID: c.ID,
		logger.FieldGeneration:  c.Generation,
	})
}

// Status returns a snapshot of the bootstrapper state.
func (b *Bootstrapper) Status() Status {
	b.mu.Lock()
	defer b.mu.Unlock()

	st := Status{
		Restarts:      b.restarts,
		RestartID:     b.lastRestartID,
		FailurePolicy: b.opts.failurePolicy.String(),
	}
	if b.lastErr != nil {
		st.LastError = b.lastErr.Error()
	}

	c := b.current.Load()
	if c != nil {
		st.ContainerID = c.ID
		st.Generation = c.Generation
		st.StartedAt = c.StartedAt
	}

	switch {
	case b.inflight != nil:
		st.Phase = PhaseRestarting
		st.RestartID = b.inflight.ID()
	case c != nil:
		st.Phase = PhaseRunning
	case b.lastErr != nil:
		st.Phase = PhaseDegraded
	default:
		st.Phase = PhaseStopped
	}
	return st
}

// Shutdown waits for any in-flight restart, then closes the current
// container. Restarts requested afterwards fail until the next Start.
func (b *Bootstrapper) Shutdown(ctx context.Context) error {
	b.mu.Lock()
	b.shutdown = true
	b.mu.Unlock()

	waited := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(waited)
	}()
	select {
	case <-waited:
	case <-ctx.Done():
		return ctx.Err()
	}

	b.lifecycle.Lock()
	defer b.lifecycle.Unlock()

	c := b.current.Swap(nil)
	if c == nil {
		return nil
	}
	return c.Close(ctx)
}

// Run starts the application, blocks until SIGINT, SIGTERM or ctx
// cancellation, then shuts down. The process does not return from Run
// while a restart is in progress.
func (b *Bootstrapper) Run(ctx context.Context, args []string) error {
	if _, err := b.Start(ctx, args); err != nil {
		return err
	}

	b.log().Info("Application ready, waiting for shutdown signal")
	b.WaitForSignal(ctx)

	return b.Shutdown(context.WithoutCancel(ctx))
}

// WaitForSignal blocks until an OS interrupt/term signal or context cancellation.
func (b *Bootstrapper) WaitForSignal(ctx context.Context) os.Signal {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		b.log().Info("Received shutdown signal, graceful shutdown starting", map[string]interface{}{
			"signal": sig.String(),
		})
		return sig
	case <-ctx.Done():
		b.log().Info("Context canceled, shutting down")
		return nil
	}
}

// log returns the logger of the current container, falling back to the
// configured or global logger.
func (b *Bootstrapper) log() *logger.Logger {
	if c := b.current.Load(); c != nil {
		return c.Logger
	}
	if b.opts.logger != nil {
		return b.opts.logger
	}
	return logger.GetGlobalLogger()
}

func (b *Bootstrapper) closeContainer(ctx context.Context, c *Container) {
	if err := c.Close(ctx); err != nil {
		c.Logger.Warn("Container closed with errors", map[string]interface{}{
			logger.FieldError: err.Error(),
		})
	}
}

// launch builds and starts one container, recording its span and metrics.
func (b *Bootstrapper) launch(ctx context.Context, args []string, trigger string) (*Container, error) {
	b.mu.Lock()
	b.generation++
	gen := b.generation
	wiring := slices.Clone(b.wiring)
	hooks := lifecycleHooks{
		start: slices.Clone(b.onStart),
		ready: slices.Clone(b.onReady),
		stop:  slices.Clone(b.onStop),
	}
	b.mu.Unlock()

	id := uuid.NewString()
	began := time.Now()
	ctx, span := b.tel.tracer.Start(ctx, SpanStart, trace.WithAttributes(
		attribute.String("container.id", id),
		attribute.Int("container.generation", gen),
		attribute.String("trigger", trigger),
	))

	c, err := b.build(ctx, id, gen, args, wiring, hooks)

	b.tel.recordStart(ctx, trigger, time.Since(began), err)
	endSpan(span, err)
	if err != nil {
		b.log().Error("Application container failed to start", map[string]interface{}{
			logger.FieldContainerID: id,
			logger.FieldGeneration:  gen,
			logger.FieldError:       err.Error(),
		})
		return nil, err
	}

	c.Logger.Info("Application container started", logger.DurationFields("start", time.Since(began)))
	if b.opts.summary != nil {
		NewSummary(c, time.Since(began)).Render(b.opts.summary)
	}
	return c, nil
}

type lifecycleHooks struct {
	start, ready, stop []Hook
}

func (b *Bootstrapper) build(ctx context.Context, id string, gen int, args []string, wiring []WiringFunc, hooks lifecycleHooks) (*Container, error) {
	v, err := config.Load(args, b.opts.loaderOpts...)
	if err != nil {
		return nil, errors.ContainerStart("configuration", err)
	}
	svc, err := config.LoadServiceConfig(v)
	if err != nil {
		return nil, errors.ContainerStart("configuration", err)
	}
	if svc.Version == "" {
		svc.Version = version.Short()
	}

	props, err := properties.Resolve(v)
	if err != nil {
		return nil, errors.ContainerStart("configuration", err)
	}
	if err := props.Provision(); err != nil {
		return nil, err
	}

	base := b.opts.logger
	if base == nil {
		base = logger.New(&svc.Logging, svc.Name)
		logger.SetGlobalLogger(base)
	}

	clog := base.WithFields(map[string]interface{}{
		logger.FieldContainerID: id,
		logger.FieldGeneration:  gen,
	})
	c := &Container{
		ID:         id,
		Generation: gen,
		Props:      props,
		Service:    svc,
		Viper:      v,
		DI:         di.NewContainer(),
		Components: component.NewRegistry(
			component.WithLogger(clog),
			component.WithStopTimeout(b.opts.gracefulTimeout),
		),
		Logger:  clog,
		args:    slices.Clone(args),
		owner:   b,
		onStop:  hooks.stop,
		timeout: b.opts.gracefulTimeout,
	}
	c.setState(StateStarting)

	c.Logger.Info("Starting application container", map[string]interface{}{
		"name":    svc.Name,
		"version": svc.Version,
		"config":  props.String(),
	})

	for _, reg := range []struct {
		key      string
		instance interface{}
	}{
		{di.Names.Viper, v},
		{di.Names.ServiceConfig, svc},
		{di.Names.Properties, props},
		{di.Names.Logger, c.Logger},
		{di.Names.Bootstrapper, b},
		{di.Names.Container, c},
	} {
		if err := c.DI.RegisterSingleton(reg.key, reg.instance); err != nil {
			return nil, b.abort(ctx, c, "wiring", err)
		}
	}

	if props.RestartOnConfigChange {
		if err := b.watchConfig(c); err != nil {
			return nil, b.abort(ctx, c, "wiring", err)
		}
	}

	for _, fn := range wiring {
		if err := fn(ctx, c); err != nil {
			return nil, b.abort(ctx, c, "wiring", err)
		}
	}

	if err := c.Components.StartAll(ctx); err != nil {
		return nil, b.abort(ctx, c, "startup", err)
	}

	if err := runHooks(ctx, c, hooks.start); err != nil {
		return nil, b.abort(ctx, c, "onStart", err)
	}

	if err := c.ReadyCheck(ctx); err != nil {
		c.Logger.Warn("Ready check reported issues", map[string]interface{}{
			logger.FieldError: err.Error(),
		})
	}

	if err := runHooks(ctx, c, hooks.ready); err != nil {
		return nil, b.abort(ctx, c, "onReady", err)
	}

	c.StartedAt = time.Now()
	c.setState(StateRunning)
	return c, nil
}

// abort tears down a partially started container.
func (b *Bootstrapper) abort(ctx context.Context, c *Container, phase string, cause error) error {
	c.setState(StateFailed)
	if err := c.Close(ctx); err != nil {
		c.Logger.Warn("Cleanup after failed start reported errors", map[string]interface{}{
			logger.FieldPhase: phase,
			logger.FieldError: err.Error(),
		})
	}
	return errors.ContainerStart(phase, cause)
}
