// Package component defines the lifecycle interface for the subsystems wired
// into an application container.
//
// Components are started in registration order when a container starts and
// stopped in reverse order when it closes. A restart therefore stops every
// component of the old container before the first component of the new one
// starts.
//
// # Interfaces
//
//   - Component: Start/Stop/Health lifecycle
//   - Describable: startup summary descriptions
//   - RouteProvider: HTTP routes for the startup summary
package component
