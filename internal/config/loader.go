package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigFile is the name of the per-project and per-user
	// configuration file.
	DefaultConfigFile = ".sitearchive"

	// XDGConfigFile is the configuration file name inside XDGConfigDir.
	XDGConfigFile = "config.yaml"
)

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// SiteKey reduces a site as written by the user ("example.com",
// "https://Example.com/docs/", "http://localhost:8080") to the key used for
// per-site settings, history and the site directory.
// It returns "" when no host can be found.
func SiteKey(site string) string {
	site = strings.TrimSpace(site)
	if site == "" {
		return ""
	}
	if !strings.Contains(site, "://") {
		site = "https://" + site
	}
	u, err := url.Parse(site)
	if err != nil || u.Host == "" {
		return ""
	}
	return strings.ReplaceAll(strings.ToLower(u.Host), ":", "_")
}

// LoadConfigFile reads a YAML configuration file.
// A missing file yields ErrConfigNotFound; whether that matters is up to
// the caller. Site entries are re-keyed with SiteKey so that
// "https://example.com/" in the file matches a run of "example.com".
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // reading a user-chosen config file
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var raw File
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	cf := &File{
		Defaults: raw.Defaults,
		Sites:    make(map[string]SiteConfig, len(raw.Sites)),
	}
	for name, sc := range raw.Sites {
		key := SiteKey(name)
		if key == "" {
			return nil, fmt.Errorf("%s: invalid site entry %q", path, name)
		}
		if _, dup := cf.Sites[key]; dup {
			return nil, fmt.Errorf("%s: site %q is configured more than once", path, key)
		}
		cf.Sites[key] = sc
	}
	return cf, nil
}

// SearchPaths lists where FindConfigFile looks when no path is given, in
// order: the working directory, the XDG config directory, then the home
// directory. Locations that cannot be determined are left out.
func SearchPaths() []string {
	var paths []string
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, DefaultConfigFile))
	}
	paths = append(paths, filepath.Join(XDGConfigDir(), XDGConfigFile))
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, DefaultConfigFile))
	}
	return paths
}

// FindConfigFile returns the configuration file to load, or "" if there is
// none. An explicit path is used as is and never falls back to SearchPaths.
func FindConfigFile(explicit string) string {
	if explicit != "" {
		return firstExisting([]string{explicit})
	}
	return firstExisting(SearchPaths())
}

func firstExisting(paths []string) string {
	for _, p := range paths {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}
