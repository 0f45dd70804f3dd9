// Package version reports the build of the running Halo binary.
//
// Version, commit and build time are set at link time:
//
//	go build -ldflags "-X github.com/halo-dev/halo/version.Version=2.0.0"
//
// Anything left unset is filled from the module build info when available.
package version
