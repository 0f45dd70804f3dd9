package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// configBaseName is the file name searched for in every directory location.
const configBaseName = "application"

// configExtensions lists the formats looked up per directory, in order.
var configExtensions = []string{"yaml", "yml", "json", "toml", "properties"}

// FileSystem interface for file operations (useful for testing).
type FileSystem interface {
	Exists(path string) bool
	ReadEnv(path string) (map[string]string, error)
}

// RealFileSystem implements FileSystem using actual file operations.
type RealFileSystem struct{}

func (rfs *RealFileSystem) Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// ReadEnv parses a .env file without touching the process environment.
func (rfs *RealFileSystem) ReadEnv(path string) (map[string]string, error) {
	return godotenv.Read(path)
}

// dotenv tracks the variables Load exported from .env files and the value
// each was given, so a later Load can replace or withdraw them. A variable
// whose value no longer matches was changed by someone else and belongs to
// the real environment again.
var dotenv = struct {
	sync.Mutex
	exported map[string]string
}{exported: make(map[string]string)}

// applyDotEnv exports vars, overriding only variables that are unset or
// that an earlier Load exported itself. Variables exported earlier but
// absent from vars are removed.
func applyDotEnv(vars map[string]string) error {
	dotenv.Lock()
	defer dotenv.Unlock()

	owned := make(map[string]bool, len(dotenv.exported))
	for key, val := range dotenv.exported {
		if cur, ok := os.LookupEnv(key); ok && cur == val {
			owned[key] = true
		}
	}

	next := make(map[string]string, len(vars))
	for key, val := range vars {
		if _, set := os.LookupEnv(key); set && !owned[key] {
			continue
		}
		if err := os.Setenv(key, val); err != nil {
			return err
		}
		next[key] = val
	}
	for key := range owned {
		if _, keep := next[key]; !keep {
			if err := os.Unsetenv(key); err != nil {
				return err
			}
		}
	}
	dotenv.exported = next
	return nil
}

// Resolver handles finding config and env files across the search path.
type Resolver struct {
	FileSystem FileSystem
}

// ResolvedFiles contains the resolved config and env file paths, highest
// precedence first.
type ResolvedFiles struct {
	ConfigFiles []string
	EnvFiles    []string
}

// ResolveFiles finds config and .env files in the given locations. An
// explicit config file, if set, takes precedence over every location.
func (cr *Resolver) ResolveFiles(locations []Location, explicit string) ResolvedFiles {
	var resolved ResolvedFiles
	if explicit != "" && cr.FileSystem.Exists(explicit) {
		resolved.ConfigFiles = append(resolved.ConfigFiles, explicit)
	}

	for _, loc := range locations {
		if !loc.Dir {
			if cr.FileSystem.Exists(loc.Path) {
				resolved.ConfigFiles = append(resolved.ConfigFiles, loc.Path)
			}
			continue
		}
		for _, ext := range configExtensions {
			path := filepath.Join(loc.Path, configBaseName+"."+ext)
			if cr.FileSystem.Exists(path) {
				resolved.ConfigFiles = append(resolved.ConfigFiles, path)
			}
		}
		envPath := filepath.Join(loc.Path, ".env")
		if cr.FileSystem.Exists(envPath) {
			resolved.EnvFiles = append(resolved.EnvFiles, envPath)
		}
	}
	return resolved
}

// LoaderConfig holds dependencies and optional overrides.
type LoaderConfig struct {
	FileSystem FileSystem
	ConfigFile string     // Direct config file path (optional)
	Locations  []Location // Search path; defaults to LocationsFromEnv()
}

// LoaderOption is a functional option for Load.
type LoaderOption func(*LoaderConfig)

// WithFileSystem sets a custom filesystem for the loader.
func WithFileSystem(fs FileSystem) LoaderOption {
	return func(lc *LoaderConfig) { lc.FileSystem = fs }
}

// WithConfigFile sets an explicit config file path.
func WithConfigFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.ConfigFile = path }
}

// WithLocations replaces the search path read from the environment.
func WithLocations(locs ...Location) LoaderOption {
	return func(lc *LoaderConfig) { lc.Locations = append([]Location{}, locs...) }
}

// NewLoaderConfig applies opts and fills in the defaults Load uses.
func NewLoaderConfig(opts ...LoaderOption) LoaderConfig {
	var lc LoaderConfig
	for _, opt := range opts {
		opt(&lc)
	}
	if lc.FileSystem == nil {
		lc.FileSystem = &RealFileSystem{}
	}
	if lc.Locations == nil {
		lc.Locations = LocationsFromEnv()
	}
	return lc
}

// WatchLocations returns the locations a Watcher should observe: the
// search path plus the explicit config file, if any.
func (lc LoaderConfig) WatchLocations() []Location {
	locs := append([]Location{}, lc.Locations...)
	if lc.ConfigFile != "" {
		locs = append(locs, Location{Path: lc.ConfigFile})
	}
	return locs
}

// Load builds the layered configuration for one container lifetime from the
// search path, the environment and the process arguments.
func Load(args []string, opts ...LoaderOption) (*viper.Viper, error) {
	lc := NewLoaderConfig(opts...)

	resolver := &Resolver{FileSystem: lc.FileSystem}
	files := resolver.ResolveFiles(lc.Locations, lc.ConfigFile)

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// .env files never override the real environment. Earlier locations
	// win, so later files only add variables not defined yet.
	vars := make(map[string]string)
	for _, envFile := range files.EnvFiles {
		read, err := lc.FileSystem.ReadEnv(envFile)
		if err != nil {
			return nil, fmt.Errorf("config: read env file %s: %w", envFile, err)
		}
		for key, val := range read {
			if _, seen := vars[key]; !seen {
				vars[key] = val
			}
		}
	}
	if err := applyDotEnv(vars); err != nil {
		return nil, fmt.Errorf("config: export .env variables: %w", err)
	}

	// Merge lowest precedence first so earlier files override later ones.
	for i := len(files.ConfigFiles) - 1; i >= 0; i-- {
		path := files.ConfigFiles[i]
		v.SetConfigFile(path)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	for key, value := range ParseArgs(args) {
		v.Set(key, value)
	}

	return v, nil
}

// ParseArgs extracts configuration overrides from process arguments.
// "--key=value" sets key to value and a bare "--key" sets it to "true".
// Tokens that do not start with "--" and the "--" terminator are ignored,
// as is everything after the terminator.
func ParseArgs(args []string) map[string]string {
	overrides := make(map[string]string)
	for _, arg := range args {
		if arg == "--" {
			break
		}
		if !strings.HasPrefix(arg, "--") {
			continue
		}
		kv := strings.TrimPrefix(arg, "--")
		key, value, found := strings.Cut(kv, "=")
		key = strings.ToLower(strings.TrimSpace(key))
		if key == "" {
			continue
		}
		if !found {
			value = "true"
		}
		overrides[key] = value
	}
	return overrides
}
