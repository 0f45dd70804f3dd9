package properties

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/halo-dev/halo/errors"
	"github.com/halo-dev/halo/validation"
)

// Prefix is the configuration namespace bound by this package.
const Prefix = "halo"

// Properties holds the resolved halo.* settings. A value is not modified
// after Resolve returns it.
type Properties struct {
	// DocDisabled hides the API docs listing.
	DocDisabled bool `mapstructure:"doc-disabled" json:"docDisabled"`
	// ProductionEnv switches framework components to release mode.
	ProductionEnv bool `mapstructure:"production-env" json:"productionEnv"`
	// AuthEnabled guards the admin API with bearer tokens.
	AuthEnabled bool `mapstructure:"auth-enabled" json:"authEnabled"`
	// AdminPath is the URL segment under /api/ hosting the admin API.
	AdminPath string `mapstructure:"admin-path" json:"adminPath" validate:"required,pathsegment"`
	// WorkDir holds runtime data: uploads, themes, the database.
	WorkDir string `mapstructure:"work-dir" json:"workDir" validate:"required"`
	// BackupDir receives backup archives.
	BackupDir string `mapstructure:"backup-dir" json:"backupDir" validate:"required"`
	// UploadURLPrefix is the URL segment serving uploaded files.
	UploadURLPrefix string `mapstructure:"upload-url-prefix" json:"uploadUrlPrefix" validate:"required,pathsegment"`
	// DownloadTimeout bounds outbound downloads.
	DownloadTimeout time.Duration `mapstructure:"download-timeout" json:"downloadTimeout" validate:"gt=0"`
	// RestartOnConfigChange restarts the container when a config file in
	// the search path changes.
	RestartOnConfigChange bool `mapstructure:"restart-on-config-change" json:"restartOnConfigChange"`
}

// Default returns the documented defaults for the current user.
func Default() Properties {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		home = "."
	}
	return defaults(home, os.TempDir())
}

func defaults(home, tmp string) Properties {
	sep := string(os.PathSeparator)
	return Properties{
		DocDisabled:     true,
		ProductionEnv:   true,
		AuthEnabled:     true,
		AdminPath:       "admin",
		WorkDir:         ensureSuffix(home, sep) + ".halo" + sep,
		BackupDir:       ensureSuffix(tmp, sep) + "halo-backup" + sep,
		UploadURLPrefix: "upload",
		DownloadTimeout: 30 * time.Second,
	}
}

// RegisterDefaults registers the defaults on v under the halo prefix, so
// that environment variables for every key are honored.
func RegisterDefaults(v *viper.Viper, d Properties) {
	for key, value := range map[string]any{
		"doc-disabled":             d.DocDisabled,
		"production-env":           d.ProductionEnv,
		"auth-enabled":             d.AuthEnabled,
		"admin-path":               d.AdminPath,
		"work-dir":                 d.WorkDir,
		"backup-dir":               d.BackupDir,
		"upload-url-prefix":        d.UploadURLPrefix,
		"download-timeout":         d.DownloadTimeout,
		"restart-on-config-change": d.RestartOnConfigChange,
	} {
		v.SetDefault(Prefix+"."+key, value)
	}
}

// Resolve binds the halo.* keys of v over Default and validates them. It
// does not touch the filesystem.
func Resolve(v *viper.Viper) (*Properties, error) {
	return resolve(v, Default())
}

func resolve(v *viper.Viper, d Properties) (*Properties, error) {
	RegisterDefaults(v, d)

	var bound struct {
		Halo Properties `mapstructure:"halo"`
	}
	if err := v.Unmarshal(&bound); err != nil {
		return nil, errors.Validation("invalid halo configuration").WithCause(err)
	}
	p := bound.Halo
	if err := validation.Validate(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Provision creates the work and backup directories with any missing
// parents. Existing directories and their contents are left alone.
func (p *Properties) Provision() error {
	for _, dir := range []string{p.WorkDir, p.BackupDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.DirectoryProvisioning(dir, err)
		}
	}
	return nil
}

// ResolveAndProvision resolves the properties from v and provisions their
// directories.
func ResolveAndProvision(v *viper.Viper) (*Properties, error) {
	p, err := Resolve(v)
	if err != nil {
		return nil, err
	}
	if err := p.Provision(); err != nil {
		return nil, err
	}
	return p, nil
}

// AdminAPIPath returns the base path of the admin API, e.g. /api/admin.
func (p *Properties) AdminAPIPath() string {
	return "/api/" + p.AdminPath
}

// UploadPath returns the base path under which uploads are served.
func (p *Properties) UploadPath() string {
	return "/" + p.UploadURLPrefix
}

// String renders the properties for logs.
func (p *Properties) String() string {
	return fmt.Sprintf("adminPath=%s authEnabled=%t docDisabled=%t productionEnv=%t workDir=%s backupDir=%s",
		p.AdminPath, p.AuthEnabled, p.DocDisabled, p.ProductionEnv, p.WorkDir, p.BackupDir)
}

func ensureSuffix(s, suffix string) string {
	if strings.HasSuffix(s, suffix) {
		return s
	}
	return s + suffix
}
