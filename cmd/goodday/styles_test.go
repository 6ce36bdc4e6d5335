package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/hyperengineering/goodday"
)

// setMockTTY sets the TTY override for tests and returns a cleanup function.
// The cleanup function restores the TTY override to nil, allowing real TTY detection.
func setMockTTY(value bool) func() {
	testIsTTYMutex.Lock()
	testIsTTYOverride = &value
	testIsTTYMutex.Unlock()
	return func() {
		testIsTTYMutex.Lock()
		testIsTTYOverride = nil
		testIsTTYMutex.Unlock()
	}
}

func TestRenderTable_TTY_WithHeaders(t *testing.T) {
	cleanup := setMockTTY(true)
	defer cleanup()

	result := renderTable([]string{"TOOL", "OK"}, [][]string{
		{"get_goodday_projects", "✓"},
		{"get_goodday_users", "✗"},
	})

	for _, want := range []string{"TOOL", "OK", "get_goodday_projects", "get_goodday_users"} {
		if !strings.Contains(result, want) {
			t.Errorf("result should contain %q", want)
		}
	}
	if !strings.ContainsAny(result, "─│╭╮╰╯├┼┤┬┴") {
		t.Error("TTY output should contain border characters")
	}
}

func TestRenderTable_NonTTY_PlainText(t *testing.T) {
	cleanup := setMockTTY(false)
	defer cleanup()

	result := renderTable([]string{"NAME", "COUNT"}, [][]string{{"alpha", "10"}, {"beta", "20"}})

	want := "NAME\tCOUNT\nalpha\t10\nbeta\t20"
	if result != want {
		t.Errorf("renderTable() = %q, want %q", result, want)
	}
}

func TestRenderTable_EmptyRows(t *testing.T) {
	cleanup := setMockTTY(false)
	defer cleanup()

	if got := renderTable([]string{"NAME"}, nil); got != "NAME" {
		t.Errorf("renderTable() = %q, want header only", got)
	}
}

func TestRenderPanel_TTY_WithTitle(t *testing.T) {
	cleanup := setMockTTY(true)
	defer cleanup()

	result := renderPanel("Directory Cache", [][2]string{{"Projects", "6"}, {"Users", "2"}})

	for _, want := range []string{"Directory Cache", "Projects", "6", "Users"} {
		if !strings.Contains(result, want) {
			t.Errorf("result should contain %q", want)
		}
	}
	if !strings.ContainsAny(result, "─│╭╮╰╯") {
		t.Error("TTY panel should have a border")
	}
}

func TestRenderPanel_NonTTY_PlainText(t *testing.T) {
	cleanup := setMockTTY(false)
	defer cleanup()

	result := renderPanel("Stats", [][2]string{{"Path", "/tmp/c.db"}, {"TTL", "10m0s"}})

	want := "Stats\n-----\nPath: /tmp/c.db\nTTL:  10m0s"
	if result != want {
		t.Errorf("renderPanel() = %q, want %q", result, want)
	}
}

func TestRenderStats(t *testing.T) {
	cleanup := setMockTTY(false)
	defer cleanup()

	got := renderStats(&goodday.CacheStats{
		Enabled:        true,
		Path:           "/tmp/cache.db",
		TTL:            10 * time.Minute,
		Projects:       6,
		Users:          2,
		UsersRefreshed: time.Now().Add(-2 * time.Hour),
		HistoryEntries: 3,
		SchemaVersion:  "1",
	})

	for _, want := range []string{"/tmp/cache.db", "10m0s", "6 (refreshed never)", "2 (refreshed 2 hours ago)", "3 calls"} {
		if !strings.Contains(got, want) {
			t.Errorf("renderStats() missing %q in:\n%s", want, got)
		}
	}
}

func TestRenderMarkdown_NonTTY_Passthrough(t *testing.T) {
	cleanup := setMockTTY(false)
	defer cleanup()

	content := "**Goodday Projects:**\n\n**Project ID:** p1"
	if got := renderMarkdown(content); got != content {
		t.Errorf("renderMarkdown() = %q, want unchanged", got)
	}
}

func TestPrintHelpers_NonTTY(t *testing.T) {
	cleanup := setMockTTY(false)
	defer cleanup()

	var buf bytes.Buffer
	printSuccess(&buf, "Cached %d projects", 6)
	printError(&buf, "boom")

	want := "✓ Cached 6 projects\n✗ boom\n"
	if buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
}
