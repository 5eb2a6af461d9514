// Package config provides configuration structures and utilities for sitearchive.
// It defines the options of an archive run, the optional .sitearchive YAML
// file with per-site overrides, and the XDG directories used for history.
package config
