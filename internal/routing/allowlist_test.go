package routing

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"
)

func TestParseAllowlistYAML_Errors(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"yaml":        "\xff",
		"version":     "version: 2\nentrypoints: {}",
		"entrypoints": "version: 1",
		"class":       "version: 1\nentrypoints:\n  server:\n    routes:\n      - {path: /x, methods: [GET], route_class: webhook}",
		"method":      "version: 1\nentrypoints:\n  server:\n    routes:\n      - {path: /x, methods: [TRACE], route_class: ops}",
	}
	for name, raw := range cases {
		if _, err := ParseAllowlistYAML([]byte(raw)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestLoadAllowlist_Default(t *testing.T) {
	t.Parallel()

	a, err := LoadAllowlist("")
	if err != nil {
		t.Fatal(err)
	}
	if !a.Allows("server", http.MethodPost, "/directory/api/designations:update") {
		t.Fatal("expected designation update to be allowed")
	}
	if a.Allows("server", http.MethodGet, "/directory/api/designations:update") {
		t.Fatal("GET on update must not be allowed")
	}
	if a.Allows("other", http.MethodGet, "/health") {
		t.Fatal("unknown entrypoint must allow nothing")
	}
}

func TestLoadAllowlist_File(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "allowlist.yaml")
	raw := "version: 1\nentrypoints:\n  server:\n    routes:\n      - {path: /health, methods: [get], route_class: ops}\n"
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatal(err)
	}
	a, err := LoadAllowlist(path)
	if err != nil {
		t.Fatal(err)
	}
	if !a.Allows("server", http.MethodGet, "/health") {
		t.Fatal("expected /health")
	}

	if _, err := LoadAllowlist(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected read error")
	}
}
