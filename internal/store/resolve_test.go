package store_test

import (
	"path/filepath"
	"testing"

	"github.com/hyperengineering/goodday/internal/store"
)

func TestResolveCachePath_Explicit(t *testing.T) {
	t.Setenv(store.CachePathEnv, "/from/env.db")

	got, err := store.ResolveCachePath("/explicit/cache.db")
	if err != nil {
		t.Fatalf("ResolveCachePath(explicit) unexpected error: %v", err)
	}
	if got != "/explicit/cache.db" {
		t.Errorf("ResolveCachePath(explicit) = %q, want %q", got, "/explicit/cache.db")
	}
}

func TestResolveCachePath_EnvVar(t *testing.T) {
	t.Setenv(store.CachePathEnv, "/from/env.db")

	got, err := store.ResolveCachePath("")
	if err != nil {
		t.Fatalf("ResolveCachePath(env) unexpected error: %v", err)
	}
	if got != "/from/env.db" {
		t.Errorf("ResolveCachePath(env) = %q, want %q", got, "/from/env.db")
	}
}

func TestResolveCachePath_Default(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(store.CachePathEnv, "")

	got, err := store.ResolveCachePath("")
	if err != nil {
		t.Fatalf("ResolveCachePath(default) unexpected error: %v", err)
	}
	want := filepath.Join(home, ".goodday", "cache", "goodday.db")
	if got != want {
		t.Errorf("ResolveCachePath(default) = %q, want %q", got, want)
	}
}

func TestResolveCachePath_Off(t *testing.T) {
	for _, v := range []string{"off", "OFF", " Off "} {
		got, err := store.ResolveCachePath(v)
		if err != nil {
			t.Fatalf("ResolveCachePath(%q) unexpected error: %v", v, err)
		}
		if got != "" {
			t.Errorf("ResolveCachePath(%q) = %q, want empty", v, got)
		}
	}
}

func TestResolveCachePath_Invalid(t *testing.T) {
	for _, v := range []string{"/tmp/dir/", "   "} {
		if _, err := store.ResolveCachePath(v); err == nil {
			t.Errorf("ResolveCachePath(%q) expected error", v)
		}
	}
}
