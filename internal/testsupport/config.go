package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"cadence/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test. The
// configuration is written to disk and loaded back through config.Load so it
// is normalized and validated exactly like a user file. Calendar days use UTC.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.CatalogFile = filepath.Join(base, "catalog.yaml")
	cfgVal.Paths.TemplatesDir = filepath.Join(base, "templates")
	cfgVal.Paths.NotebooksDir = filepath.Join(base, "notebooks")
	cfgVal.Paths.PostsDir = filepath.Join(base, "posts")
	cfgVal.Schedule.Timezone = "UTC"
	cfgVal.Logging.Level = "debug"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}

	path := filepath.Join(base, "config.toml")
	WriteConfig(t, path, builder.cfg)
	loaded, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	return loaded
}

// WriteConfig encodes cfg as TOML at path.
func WriteConfig(t testing.TB, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

// WithSchedule adjusts the schedule section.
func WithSchedule(fn func(*config.Schedule)) ConfigOption {
	return func(b *configBuilder) {
		fn(&b.cfg.Schedule)
	}
}

// WithDestinations replaces the configured destinations.
func WithDestinations(dests ...config.Destination) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Destinations = dests
	}
}

// WithThemes replaces the weekday theme table.
func WithThemes(themes map[string][]string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Themes = themes
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}

// CatchallConfig mirrors CatchallDestination as a config entry.
func CatchallConfig() config.Destination {
	return config.Destination{
		ID:              "Catchall",
		Name:            "Catch-all",
		Priority:        10,
		CatchAll:        true,
		Slots:           []string{"09:00"},
		TemplatePhrases: []string{"New template!"},
		NotebookPhrases: []string{"New notebook!"},
		AddHashtags:     []string{"CoCalc"},
		MaxHashtags:     10,
	}
}

// MathOnlyConfig mirrors MathOnlyDestination as a config entry.
func MathOnlyConfig() config.Destination {
	return config.Destination{
		ID:              "MathOnly",
		Name:            "Math only",
		Priority:        8,
		Markup:          true,
		Keywords:        []string{"algebra"},
		Slots:           []string{"13:00"},
		TemplatePhrases: []string{"Symbolic mathematics!"},
		NotebookPhrases: []string{"Mathematical exploration!"},
		AddHashtags:     []string{"SageMath"},
		RemoveHashtags:  []string{"Physics", "Engineering"},
		MaxHashtags:     10,
	}
}
