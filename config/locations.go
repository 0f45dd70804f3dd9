package config

import (
	"os"
	"path/filepath"
	"strings"
)

// AdditionalLocationEnv is the process-wide setting holding the extra
// configuration search path.
const AdditionalLocationEnv = "HALO_CONFIG_ADDITIONAL_LOCATION"

const (
	filePrefix     = "file:"
	optionalPrefix = "optional:"
	homeDirName    = ".halo"
	devDirName     = "halo-dev"
)

// Location is a single entry of the configuration search path.
type Location struct {
	// Path is the filesystem path with URI prefixes removed.
	Path string
	// Dir reports whether the location names a directory to search
	// rather than a single file.
	Dir bool
}

// DefaultLocations returns the user-home search path: <home>/.halo/ then
// <home>/halo-dev/, as file URIs.
func DefaultLocations(home string) []string {
	base := ensureSuffix(filepath.ToSlash(home), "/")
	return []string{
		filePrefix + base + homeDirName + "/",
		filePrefix + base + devDirName + "/",
	}
}

// PrepareSearchPath sets AdditionalLocationEnv so that it starts with the
// default locations for home. Entries already present in the variable that
// are not defaults are kept after them. It returns the value that was set.
func PrepareSearchPath(home string) (string, error) {
	merged := MergeLocations(DefaultLocations(home), SplitLocations(os.Getenv(AdditionalLocationEnv)))
	value := strings.Join(merged, ",")
	if err := os.Setenv(AdditionalLocationEnv, value); err != nil {
		return "", err
	}
	return value, nil
}

// SplitLocations splits a comma-separated search path, dropping blanks.
func SplitLocations(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// MergeLocations returns first followed by the entries of rest that do not
// already appear, preserving order.
func MergeLocations(first, rest []string) []string {
	seen := make(map[string]bool, len(first)+len(rest))
	out := make([]string, 0, len(first)+len(rest))
	for _, list := range [][]string{first, rest} {
		for _, loc := range list {
			key := normalizeURI(loc)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, loc)
		}
	}
	return out
}

// LocationsFromEnv parses AdditionalLocationEnv.
func LocationsFromEnv() []Location {
	return ParseLocations(os.Getenv(AdditionalLocationEnv))
}

// ParseLocations parses a comma-separated list of file URIs. A location
// ending in a slash is a directory; anything else is a single file.
func ParseLocations(value string) []Location {
	raw := SplitLocations(value)
	locs := make([]Location, 0, len(raw))
	for _, r := range raw {
		p := strings.TrimPrefix(r, optionalPrefix)
		p = strings.TrimPrefix(p, filePrefix)
		p = expandHome(p)
		dir := strings.HasSuffix(p, "/") || strings.HasSuffix(p, string(filepath.Separator))
		locs = append(locs, Location{Path: filepath.Clean(filepath.FromSlash(p)), Dir: dir})
	}
	return locs
}

func normalizeURI(loc string) string {
	p := strings.TrimPrefix(strings.TrimSpace(loc), optionalPrefix)
	p = strings.TrimPrefix(p, filePrefix)
	return ensureSuffix(filepath.ToSlash(filepath.Clean(p)), "/")
}

func expandHome(p string) string {
	if !strings.HasPrefix(p, "~") && !strings.Contains(p, "${user.home}") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	p = strings.ReplaceAll(p, "${user.home}", filepath.ToSlash(home))
	if strings.HasPrefix(p, "~") {
		p = filepath.ToSlash(home) + strings.TrimPrefix(p, "~")
	}
	return p
}

func ensureSuffix(s, suffix string) string {
	if strings.HasSuffix(s, suffix) {
		return s
	}
	return s + suffix
}
