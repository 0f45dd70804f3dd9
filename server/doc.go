// Package server provides the HTTP surface of a Halo container: a Gin
// engine served over HTTP/1.1 and h2c, run as a container component so the
// listener is released before the next container binds the port.
//
// Routes mounted by NewWiring:
//
//	GET  /health                  component health and bootstrapper phase
//	GET  /health/live             liveness probe
//	GET  /health/ready            readiness probe
//	GET  /info                    build and container info
//	GET  /api/docs                route listing, unless halo.doc-disabled
//	POST /api/{admin-path}/restart  trigger an in-process restart (202)
//	GET  /api/{admin-path}/restart  bootstrapper status
//	GET  /{upload-url-prefix}/*   files under <work-dir>/upload
//
// The admin routes require an HS256 bearer token signed with
// server.auth.secret when halo.auth-enabled is set.
package server
