package main

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestVersion_Human_ShowsVersionInfo(t *testing.T) {
	testEnv(t)

	stdout, _, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version command should not error: %v", err)
	}

	// Without ldflags, version should show "dev"
	if !strings.Contains(stdout, "goodday dev") {
		t.Errorf("dev build should show 'goodday dev', got: %s", stdout)
	}
	for _, label := range []string{"commit:", "built:", "go:", "os:"} {
		if !strings.Contains(stdout, label) {
			t.Errorf("output should contain %q", label)
		}
	}
}

func TestVersion_JSON_ReturnsValidJSON(t *testing.T) {
	testEnv(t)

	stdout, _, err := execute(t, "version", "--json")
	if err != nil {
		t.Fatalf("version --json should not error: %v", err)
	}

	var result map[string]interface{}
	if err := json.Unmarshal([]byte(stdout), &result); err != nil {
		t.Fatalf("output should be valid JSON: %v", err)
	}
	for _, field := range []string{"version", "commit", "date", "go", "os", "arch"} {
		if _, ok := result[field]; !ok {
			t.Errorf("JSON should have '%s' field", field)
		}
	}
	if result["version"] != "dev" {
		t.Errorf("dev build JSON should have version='dev', got: %v", result["version"])
	}
}

func TestVersion_NeedsNoToken(t *testing.T) {
	testEnv(t)
	t.Setenv("GOODDAY_API_TOKEN", "")

	if _, _, err := execute(t, "version"); err != nil {
		t.Fatalf("version should not need configuration: %v", err)
	}
}
