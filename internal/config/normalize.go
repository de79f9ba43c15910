package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeLinks()
	c.normalizeSchedule()
	c.normalizeThemes()
	c.normalizeDestinations()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}

	defaults := []struct {
		field *string
		name  string
		base  string
	}{
		{&c.Paths.QueueFile, "paths.queue_file", defaultQueueFileName},
		{&c.Paths.HistoryDB, "paths.history_db", defaultHistoryFileName},
		{&c.Paths.LockFile, "paths.lock_file", defaultLockFileName},
		{&c.Paths.LogDir, "paths.log_dir", defaultLogDirName},
	}
	for _, entry := range defaults {
		if strings.TrimSpace(*entry.field) == "" {
			*entry.field = filepath.Join(c.Paths.DataDir, entry.base)
		}
		if *entry.field, err = expandPath(*entry.field); err != nil {
			return fmt.Errorf("%s: %w", entry.name, err)
		}
	}

	optional := []struct {
		field *string
		name  string
	}{
		{&c.Paths.CatalogFile, "paths.catalog_file"},
		{&c.Paths.TemplatesDir, "paths.templates_dir"},
		{&c.Paths.NotebooksDir, "paths.notebooks_dir"},
		{&c.Paths.PostsDir, "paths.posts_dir"},
	}
	for _, entry := range optional {
		*entry.field = strings.TrimSpace(*entry.field)
		if *entry.field == "" {
			continue
		}
		if *entry.field, err = expandPath(*entry.field); err != nil {
			return fmt.Errorf("%s: %w", entry.name, err)
		}
	}
	return nil
}

func (c *Config) normalizeLinks() {
	c.Links.TemplateBaseURL = strings.TrimRight(strings.TrimSpace(c.Links.TemplateBaseURL), "/")
	c.Links.NotebookBaseURL = strings.TrimRight(strings.TrimSpace(c.Links.NotebookBaseURL), "/")
}

func (c *Config) normalizeSchedule() {
	c.Schedule.Timezone = strings.TrimSpace(c.Schedule.Timezone)
	if c.Schedule.Timezone == "" {
		c.Schedule.Timezone = defaultTimezone
	}
	if loc, err := loadLocation(c.Schedule.Timezone); err == nil {
		c.location = loc
	}
	if c.Schedule.HorizonDays == 0 {
		c.Schedule.HorizonDays = defaultHorizonDays
	}
	if c.Schedule.MinGapDays == 0 {
		c.Schedule.MinGapDays = defaultMinGapDays
	}
	if c.Schedule.DueWindowMinutes == 0 {
		c.Schedule.DueWindowMinutes = defaultDueWindowMinutes
	}
	c.Schedule.MixPolicy = strings.ToLower(strings.TrimSpace(c.Schedule.MixPolicy))
	switch c.Schedule.MixPolicy {
	case "", "per-day", "daily":
		c.Schedule.MixPolicy = MixPolicyPerDay
	case "aggregate":
		c.Schedule.MixPolicy = MixPolicyHorizon
	}
	c.Schedule.PhraseSelection = strings.ToLower(strings.TrimSpace(c.Schedule.PhraseSelection))
	switch c.Schedule.PhraseSelection {
	case "", "rotating", "rotation":
		c.Schedule.PhraseSelection = PhraseSelectionRotate
	}
}

// normalizeThemes lowercases categories and fills weekdays the file leaves out.
// A weekday listed with an empty array stays empty and accepts any category.
func (c *Config) normalizeThemes() {
	defaults := DefaultThemes()
	normalized := make(map[string][]string, len(defaults))
	for key, values := range c.Themes {
		key = strings.ToLower(strings.TrimSpace(key))
		normalized[key] = lowerList(values)
	}
	for key, values := range defaults {
		if _, ok := normalized[key]; !ok {
			normalized[key] = values
		}
	}
	c.Themes = normalized
}

func (c *Config) normalizeDestinations() {
	if len(c.Destinations) == 0 {
		c.Destinations = DefaultDestinations()
	}
	for idx := range c.Destinations {
		dest := &c.Destinations[idx]
		dest.ID = strings.TrimSpace(dest.ID)
		dest.Name = strings.TrimSpace(dest.Name)
		if dest.Name == "" {
			dest.Name = dest.ID
		}
		dest.Platform = strings.ToLower(strings.TrimSpace(dest.Platform))
		dest.Keywords = lowerList(dest.Keywords)
		dest.Categories = lowerList(dest.Categories)
		for i, slot := range dest.Slots {
			dest.Slots[i] = strings.TrimSpace(slot)
		}
		dest.AddHashtags = trimHashtags(dest.AddHashtags)
		dest.RemoveHashtags = trimHashtags(dest.RemoveHashtags)
		if dest.MaxHashtags == 0 {
			dest.MaxHashtags = defaultMaxHashtags
		}
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func lowerList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		value = strings.ToLower(strings.TrimSpace(value))
		if value != "" {
			out = append(out, value)
		}
	}
	return out
}

func trimHashtags(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		value = strings.TrimPrefix(strings.TrimSpace(value), "#")
		if value != "" {
			out = append(out, value)
		}
	}
	return out
}
