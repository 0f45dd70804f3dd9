// Package di provides the dependency injection container owned by each
// application container lifetime.
//
// Instances are registered as singletons, eager constructors or lazy
// constructors, and resolved by key with type-safe generic helpers. Closing
// the container closes every initialized instance that implements
// io.Closer, in reverse registration order, so a restart releases the
// previous lifetime's resources before the next one builds its own.
//
// # Registration
//
//	c.RegisterSingleton(di.Names.Properties, props)
//	c.RegisterLazy(di.Names.DownloadClient, func() *http.Client { ... })
//
// # Resolution
//
//	props := di.MustResolve[*properties.Properties](c, di.Names.Properties)
package di
