package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"

	"cadence/internal/content"
)

// WriteFile creates parent directories and writes body to path.
func WriteFile(t testing.TB, path, body string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WriteManifest writes items as a YAML catalog manifest.
func WriteManifest(t testing.TB, path string, items ...content.Item) {
	t.Helper()

	data, err := yaml.Marshal(content.Manifest{Items: items})
	if err != nil {
		t.Fatalf("marshal manifest: %v", err)
	}
	WriteFile(t, path, string(data))
}
