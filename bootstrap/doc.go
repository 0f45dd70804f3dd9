// Package bootstrap owns the process-wide application container.
//
// A Bootstrapper builds a Container from the process arguments: it prepares
// the configuration search path, loads configuration, resolves and
// provisions the halo properties, runs the registered wiring callbacks and
// starts the components they register. Exactly one container is current at
// a time.
//
// Restart rebuilds the container in the background from the same
// arguments. The old container is closed completely before the new one is
// started, so resources such as the HTTP port are never held twice.
//
//	b := bootstrap.New(bootstrap.WithWiring(server.NewWiring()))
//	if err := b.Run(ctx, os.Args[1:]); err != nil {
//	    os.Exit(1)
//	}
//
//	h := b.Restart()   // returns immediately
//	_ = h.Wait(ctx)    // optional
package bootstrap
