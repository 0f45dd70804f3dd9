package properties

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"

	"github.com/halo-dev/halo/config"
	"github.com/halo-dev/halo/errors"
)

func TestDefaults(t *testing.T) {
	sep := string(os.PathSeparator)
	home := filepath.Join(sep, "home", "halo")
	tmp := filepath.Join(sep, "tmp")
	d := defaults(home, tmp)

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"doc-disabled", d.DocDisabled, true},
		{"production-env", d.ProductionEnv, true},
		{"auth-enabled", d.AuthEnabled, true},
		{"admin-path", d.AdminPath, "admin"},
		{"work-dir", d.WorkDir, home + sep + ".halo" + sep},
		{"backup-dir", d.BackupDir, tmp + sep + "halo-backup" + sep},
		{"upload-url-prefix", d.UploadURLPrefix, "upload"},
		{"download-timeout", d.DownloadTimeout, 30 * time.Second},
		{"restart-on-config-change", d.RestartOnConfigChange, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.got != tc.want {
				t.Errorf("got %v, want %v", tc.got, tc.want)
			}
		})
	}

	// A trailing separator on home or tmp is not doubled.
	d = defaults(home+sep, tmp+sep)
	if d.WorkDir != home+sep+".halo"+sep {
		t.Errorf("WorkDir = %q", d.WorkDir)
	}
	if d.BackupDir != tmp+sep+"halo-backup"+sep {
		t.Errorf("BackupDir = %q", d.BackupDir)
	}
}

func TestResolveWithoutSources(t *testing.T) {
	p, err := Resolve(viper.New())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if *p != Default() {
		t.Errorf("Resolve() = %+v, want %+v", *p, Default())
	}
}

func TestResolveIsPure(t *testing.T) {
	root := t.TempDir()
	v := viper.New()
	v.Set("halo.work-dir", filepath.Join(root, "work"))
	v.Set("halo.backup-dir", filepath.Join(root, "backup"))

	if _, err := Resolve(v); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	for _, dir := range []string{"work", "backup"} {
		if _, err := os.Stat(filepath.Join(root, dir)); !os.IsNotExist(err) {
			t.Errorf("Resolve created %s", dir)
		}
	}
}

func TestResolveOverrides(t *testing.T) {
	t.Run("arguments", func(t *testing.T) {
		v, err := config.Load([]string{"--halo.admin-path=dashboard", "--halo.auth-enabled=false"}, config.WithLocations())
		if err != nil {
			t.Fatal(err)
		}
		p, err := Resolve(v)
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		if p.AdminPath != "dashboard" {
			t.Errorf("AdminPath = %q, want dashboard", p.AdminPath)
		}
		if p.AuthEnabled {
			t.Error("AuthEnabled = true, want false")
		}
		if !p.DocDisabled || !p.ProductionEnv || p.UploadURLPrefix != "upload" {
			t.Errorf("other fields changed: %+v", p)
		}
	})

	t.Run("environment", func(t *testing.T) {
		t.Setenv("HALO_DOWNLOAD_TIMEOUT", "45s")
		t.Setenv("HALO_DOC_DISABLED", "false")
		v, err := config.Load(nil, config.WithLocations())
		if err != nil {
			t.Fatal(err)
		}
		p, err := Resolve(v)
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		if p.DownloadTimeout != 45*time.Second {
			t.Errorf("DownloadTimeout = %v, want 45s", p.DownloadTimeout)
		}
		if p.DocDisabled {
			t.Error("DocDisabled = true, want false")
		}
	})

	t.Run("file", func(t *testing.T) {
		dir := t.TempDir()
		content := "halo:\n  upload-url-prefix: files\n  restart-on-config-change: true\n  download-timeout: 2m\n"
		if err := os.WriteFile(filepath.Join(dir, "application.yaml"), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		v, err := config.Load(nil, config.WithLocations(config.Location{Path: dir, Dir: true}))
		if err != nil {
			t.Fatal(err)
		}
		p, err := Resolve(v)
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		if p.UploadURLPrefix != "files" || !p.RestartOnConfigChange || p.DownloadTimeout != 2*time.Minute {
			t.Errorf("unexpected properties: %+v", p)
		}
		if p.UploadPath() != "/files" {
			t.Errorf("UploadPath = %q", p.UploadPath())
		}
	})
}

func TestResolveValidation(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value any
		field string
	}{
		{"admin path with slash", "halo.admin-path", "a/b", "admin-path"},
		{"empty admin path", "halo.admin-path", "", "admin-path"},
		{"upload prefix with space", "halo.upload-url-prefix", "my files", "upload-url-prefix"},
		{"zero timeout", "halo.download-timeout", "0s", "download-timeout"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v := viper.New()
			v.Set(tc.key, tc.value)
			_, err := Resolve(v)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !errors.HasCode(err, errors.ErrCodeInvalidInput) {
				t.Errorf("expected INVALID_INPUT, got %v", err)
			}
			if !strings.Contains(err.Error(), tc.field) {
				t.Errorf("error should name %s: %v", tc.field, err)
			}
		})
	}
}

func TestProvision(t *testing.T) {
	root := t.TempDir()
	p := defaults(root, root)
	p.WorkDir = filepath.Join(root, "a", "b", "work") + string(os.PathSeparator)
	p.BackupDir = filepath.Join(root, "backup")

	if err := p.Provision(); err != nil {
		t.Fatalf("Provision: %v", err)
	}
	for _, dir := range []string{p.WorkDir, p.BackupDir} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Fatalf("%s not created: %v", dir, err)
		}
	}

	marker := filepath.Join(p.WorkDir, "halo.db")
	if err := os.WriteFile(marker, []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := p.Provision(); err != nil {
		t.Fatalf("second Provision: %v", err)
	}
	if b, err := os.ReadFile(marker); err != nil || string(b) != "data" {
		t.Errorf("existing contents altered: %q, %v", b, err)
	}
}

func TestProvisionFailure(t *testing.T) {
	root := t.TempDir()
	blocker := filepath.Join(root, "file")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	p := defaults(root, root)
	p.WorkDir = filepath.Join(blocker, "work")

	err := p.Provision()
	if err == nil {
		t.Fatal("expected error when a parent is a regular file")
	}
	if !errors.HasCode(err, errors.ErrCodeDirectoryProvisioning) {
		t.Errorf("expected %s, got %v", errors.ErrCodeDirectoryProvisioning, err)
	}
}

func TestResolveAndProvision(t *testing.T) {
	root := t.TempDir()
	v := viper.New()
	v.Set("halo.work-dir", filepath.Join(root, "work"))
	v.Set("halo.backup-dir", filepath.Join(root, "backup"))

	p, err := ResolveAndProvision(v)
	if err != nil {
		t.Fatalf("ResolveAndProvision: %v", err)
	}
	if _, err := os.Stat(p.WorkDir); err != nil {
		t.Errorf("work dir missing: %v", err)
	}
	if p.AdminAPIPath() != "/api/admin" {
		t.Errorf("AdminAPIPath = %q", p.AdminAPIPath())
	}
}
