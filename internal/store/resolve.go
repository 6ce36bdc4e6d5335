package store

import (
	"fmt"
	"os"
	"strings"
)

// CachePathEnv overrides the cache database location.
const CachePathEnv = "GOODDAY_CACHE_PATH"

// ResolveCachePath determines the cache database path based on priority chain.
// Priority: explicit > GOODDAY_CACHE_PATH env > DefaultCachePath.
// The value "off" (any case) disables the cache and resolves to "".
func ResolveCachePath(explicit string) (string, error) {
	if explicit != "" {
		return normalizeCachePath(explicit, "cache path")
	}
	if env := os.Getenv(CachePathEnv); env != "" {
		return normalizeCachePath(env, CachePathEnv)
	}
	return DefaultCachePath(), nil
}

func normalizeCachePath(p, source string) (string, error) {
	p = strings.TrimSpace(p)
	if strings.EqualFold(p, "off") {
		return "", nil
	}
	if p == "" || strings.HasSuffix(p, "/") {
		return "", fmt.Errorf("invalid %s %q: must name a file", source, p)
	}
	if strings.ContainsRune(p, 0) {
		return "", fmt.Errorf("invalid %s %q: contains NUL byte", source, p)
	}
	return ExpandHome(p), nil
}
