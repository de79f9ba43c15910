package content

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// Manifest is the on-disk shape of a hand-curated catalog file.
type Manifest struct {
	Items []Item `yaml:"items"`
}

// LoadManifest reads a YAML catalog manifest. A missing file yields no items.
func LoadManifest(path string) ([]Item, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read catalog manifest: %w", err)
	}
	return ParseManifest(data)
}

// ParseManifest decodes manifest bytes and rejects items with an unknown type.
func ParseManifest(data []byte) ([]Item, error) {
	var manifest Manifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("parse catalog manifest: %w", err)
	}
	for idx, item := range manifest.Items {
		t, ok := ParseType(string(item.Type))
		if !ok {
			return nil, fmt.Errorf("catalog manifest item %d (%q): unknown content_type %q", idx, item.ID, item.Type)
		}
		manifest.Items[idx].Type = t
	}
	return manifest.Items, nil
}
