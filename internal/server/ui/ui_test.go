package ui

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dashboard.html")
	if err := os.WriteFile(path, []byte("<html>dash</html>"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := Load(path); got != "<html>dash</html>" {
		t.Fatalf("got=%q", got)
	}
}

func TestLoadMissingFallsBack(t *testing.T) {
	path := "/no/such/dashboard.html"
	got := Load(path)
	if !strings.Contains(got, "Dashboard UI Not Found") {
		t.Fatalf("fallback missing headline: %q", got)
	}
	if !strings.Contains(got, path) {
		t.Fatalf("fallback should name the missing path: %q", got)
	}
	if !strings.Contains(got, "npm run build:ui") {
		t.Fatalf("fallback should say how to build: %q", got)
	}
}
