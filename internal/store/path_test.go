package store_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hyperengineering/goodday/internal/store"
)

func TestDefaultRoot_UsesHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got := store.DefaultRoot()
	want := filepath.Join(home, ".goodday")
	if got != want {
		t.Errorf("DefaultRoot() = %q, want %q", got, want)
	}
}

func TestDefaultCachePath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got := store.DefaultCachePath()
	want := filepath.Join(home, ".goodday", "cache", "goodday.db")
	if got != want {
		t.Errorf("DefaultCachePath() = %q, want %q", got, want)
	}
}

func TestDefaultConfigPath(t *testing.T) {
	got := store.DefaultConfigPath()
	if !strings.HasSuffix(got, filepath.Join(".goodday", "config.yaml")) {
		t.Errorf("DefaultConfigPath() = %q, want suffix .goodday/config.yaml", got)
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"tilde only", "~", home},
		{"tilde path", "~/x/y.db", filepath.Join(home, "x", "y.db")},
		{"absolute", "/tmp/a.db", "/tmp/a.db"},
		{"relative", "data/a.db", "data/a.db"},
		{"tilde user not expanded", "~bob/a.db", "~bob/a.db"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := store.ExpandHome(tt.in); got != tt.want {
				t.Errorf("ExpandHome(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
