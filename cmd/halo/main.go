// Command halo starts the Halo application.
//
// Every argument of the form --key=value overrides the configuration key of
// the same name, e.g. --halo.admin-path=dashboard or --server.port=8080.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/halo-dev/halo/bootstrap"
	"github.com/halo-dev/halo/config"
	"github.com/halo-dev/halo/di"
	"github.com/halo-dev/halo/observability"
	"github.com/halo-dev/halo/server"
	"github.com/halo-dev/halo/version"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "halo: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	// Telemetry outlives containers, so its settings are read once here.
	home, err := os.UserHomeDir()
	if err != nil {
		return err
	}
	if _, err := config.PrepareSearchPath(home); err != nil {
		return err
	}
	v, err := config.Load(args)
	if err != nil {
		return err
	}
	obsCfg, err := observability.LoadConfig(v)
	if err != nil {
		return err
	}
	svc, err := config.LoadServiceConfig(v)
	if err != nil {
		return err
	}
	telemetry, err := observability.Setup(ctx, *obsCfg, observability.Service{
		Name:        svc.Name,
		Version:     version.Short(),
		Environment: svc.Environment,
	})
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = telemetry.Shutdown(shutdownCtx)
	}()

	b := bootstrap.New(
		bootstrap.WithTracerProvider(telemetry.TracerProvider()),
		bootstrap.WithMeterProvider(telemetry.MeterProvider()),
		bootstrap.WithWiring(
			observability.Wire(telemetry),
			wireDownloadClient,
			server.NewWiring(),
		),
	)
	return b.Run(ctx, args)
}

// wireDownloadClient registers the HTTP client used for theme and plugin
// downloads, bounded by halo.download-timeout.
func wireDownloadClient(_ context.Context, c *bootstrap.Container) error {
	timeout := c.Props.DownloadTimeout
	return c.DI.RegisterLazy(di.Names.DownloadClient, func() *http.Client {
		return &http.Client{Timeout: timeout}
	})
}
