// Package properties binds the halo.* configuration namespace.
//
// Resolve is pure: it layers the external configuration over the defaults
// and validates the result. Provision creates the work and backup
// directories. The bootstrapper calls ResolveAndProvision once per container
// build, so both directories exist before any component is wired.
//
// Keys, with their defaults:
//
//	halo.doc-disabled               true
//	halo.production-env             true
//	halo.auth-enabled               true
//	halo.admin-path                 admin
//	halo.work-dir                   $HOME/.halo/
//	halo.backup-dir                 $TMPDIR/halo-backup/
//	halo.upload-url-prefix          upload
//	halo.download-timeout           30s
//	halo.restart-on-config-change   false
package properties
