package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains file and directory locations.
type Paths struct {
	DataDir      string `toml:"data_dir"`
	QueueFile    string `toml:"queue_file"`
	HistoryDB    string `toml:"history_db"`
	LockFile     string `toml:"lock_file"`
	LogDir       string `toml:"log_dir"`
	CatalogFile  string `toml:"catalog_file"`
	TemplatesDir string `toml:"templates_dir"`
	NotebooksDir string `toml:"notebooks_dir"`
	PostsDir     string `toml:"posts_dir"`
}

// Links contains the public URL prefixes used when scanners build item links.
type Links struct {
	TemplateBaseURL string `toml:"template_base_url"`
	NotebookBaseURL string `toml:"notebook_base_url"`
}

// Schedule contains planning policy.
type Schedule struct {
	// Timezone is an IANA zone name used for calendar-day arithmetic. Default: Local.
	Timezone    string `toml:"timezone"`
	HorizonDays int    `toml:"horizon_days"`
	// MinGapDays is the minimum calendar-day distance between postings of one duplicate group.
	MinGapDays   int `toml:"min_gap_days"`
	LookbackDays int `toml:"lookback_days"`
	// TemplateShare is the target fraction of template postings (0..1).
	TemplateShare float64 `toml:"template_share"`
	// MixPolicy is "per_day" (ratio balanced per destination and day) or "horizon"
	// (balanced across the whole planning horizon).
	MixPolicy          string `toml:"mix_policy"`
	DueWindowMinutes   int    `toml:"due_window_minutes"`
	DeferBeyondHorizon bool   `toml:"defer_beyond_horizon"`
	// PhraseSelection is "rotate" or "random".
	PhraseSelection string `toml:"phrase_selection"`
}

// Destination describes one page content can be posted to.
type Destination struct {
	ID              string   `toml:"id"`
	Name            string   `toml:"name"`
	Platform        string   `toml:"platform"`
	Priority        int      `toml:"priority"`
	CatchAll        bool     `toml:"catch_all"`
	Keywords        []string `toml:"keywords"`
	Categories      []string `toml:"categories"`
	Markup          bool     `toml:"markup"`
	Slots           []string `toml:"slots"`
	TemplatePhrases []string `toml:"template_phrases"`
	NotebookPhrases []string `toml:"notebook_phrases"`
	AddHashtags     []string `toml:"add_hashtags"`
	RemoveHashtags  []string `toml:"remove_hashtags"`
	MaxHashtags     int      `toml:"max_hashtags"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for cadence.
//
// Configuration sections:
//   - Paths: queue document, history database, lock file and catalog sources
//   - Links: base URLs used by the catalog scanners
//   - Schedule: horizon, duplicate gap, lookback window and content mix policy
//   - Themes: weekday to category lists ("mixed" or an empty list accepts any category)
//   - Destinations: pages, inclusion rules, posting slots and audience tailoring
//   - Logging: log format and level
type Config struct {
	Paths        Paths               `toml:"paths"`
	Links        Links               `toml:"links"`
	Schedule     Schedule            `toml:"schedule"`
	Themes       map[string][]string `toml:"themes"`
	Destinations []Destination       `toml:"destinations"`
	Logging      Logging             `toml:"logging"`

	location *time.Location
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/cadence/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath("~/.config/cadence/config.toml")
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("cadence.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories holding the queue, history, lock and logs.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Paths.DataDir,
		c.Paths.LogDir,
		filepath.Dir(c.Paths.QueueFile),
		filepath.Dir(c.Paths.HistoryDB),
		filepath.Dir(c.Paths.LockFile),
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// Location returns the time zone used for calendar-day arithmetic.
func (c *Config) Location() *time.Location {
	if c.location != nil {
		return c.location
	}
	loc, err := loadLocation(c.Schedule.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// ThemeFor returns the category list for a weekday. An empty result accepts any category.
func (c *Config) ThemeFor(day time.Weekday) []string {
	themes := c.Themes[weekdayKey(day)]
	for _, theme := range themes {
		if theme == mixedTheme {
			return nil
		}
	}
	return themes
}

// DueWindow returns the look-ahead used by publishing passes.
func (c *Config) DueWindow() time.Duration {
	return time.Duration(c.Schedule.DueWindowMinutes) * time.Minute
}

// LogFile returns the path of the persistent log file.
func (c *Config) LogFile() string {
	return filepath.Join(c.Paths.LogDir, "cadence.log")
}

func loadLocation(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	switch strings.ToLower(name) {
	case "", "local":
		return time.Local, nil
	case "utc":
		return time.UTC, nil
	}
	return time.LoadLocation(name)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// HasCatchAll reports whether any configured destination accepts all content.
func (c *Config) HasCatchAll() bool {
	for _, dest := range c.Destinations {
		if dest.CatchAll {
			return true
		}
	}
	return false
}
