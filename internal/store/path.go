package store

import (
	"os"
	"path/filepath"
	"strings"
)

// DefaultRoot returns the root directory for goodday state.
// Defaults to ~/.goodday, falls back to ./.goodday if home dir unavailable.
func DefaultRoot() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		cwd, _ := os.Getwd()
		return filepath.Join(cwd, ".goodday")
	}
	return filepath.Join(home, ".goodday")
}

// DefaultCachePath returns the default directory cache database path.
// Example: ~/.goodday/cache/goodday.db
func DefaultCachePath() string {
	return filepath.Join(DefaultRoot(), "cache", "goodday.db")
}

// DefaultConfigPath returns the default YAML config file path.
func DefaultConfigPath() string {
	return filepath.Join(DefaultRoot(), "config.yaml")
}

// ExpandHome replaces a leading "~/" with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return path
	}
	if path == "~" {
		return home
	}
	return filepath.Join(home, path[2:])
}
