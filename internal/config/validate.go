package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateSchedule(); err != nil {
		return err
	}
	if err := c.validateDestinations(); err != nil {
		return err
	}
	return c.validateLogging()
}

// Warnings returns non-fatal configuration problems worth surfacing to the operator.
func (c *Config) Warnings() []string {
	var warnings []string
	if !c.HasCatchAll() {
		warnings = append(warnings, "no catch-all destination configured; items matching no rule will be skipped")
	}
	for _, dest := range c.Destinations {
		if len(dest.Slots) == 0 {
			warnings = append(warnings, fmt.Sprintf("destination %q has no posting slots", dest.ID))
		}
		if !dest.CatchAll && !dest.Markup && len(dest.Keywords) == 0 && len(dest.Categories) == 0 {
			warnings = append(warnings, fmt.Sprintf("destination %q has an empty inclusion rule and accepts nothing", dest.ID))
		}
	}
	return warnings
}

func (c *Config) validateSchedule() error {
	if _, err := loadLocation(c.Schedule.Timezone); err != nil {
		return fmt.Errorf("schedule.timezone: %w", err)
	}
	if c.Schedule.HorizonDays < 1 {
		return errors.New("schedule.horizon_days must be positive")
	}
	if c.Schedule.MinGapDays < 1 {
		return errors.New("schedule.min_gap_days must be positive")
	}
	if c.Schedule.LookbackDays < 0 {
		return errors.New("schedule.lookback_days must be zero or positive")
	}
	if c.Schedule.DueWindowMinutes < 0 {
		return errors.New("schedule.due_window_minutes must be zero or positive")
	}
	if c.Schedule.TemplateShare < 0 || c.Schedule.TemplateShare > 1 {
		return errors.New("schedule.template_share must be between 0 and 1")
	}
	switch c.Schedule.MixPolicy {
	case MixPolicyPerDay, MixPolicyHorizon:
	default:
		return fmt.Errorf("schedule.mix_policy %q must be %q or %q", c.Schedule.MixPolicy, MixPolicyPerDay, MixPolicyHorizon)
	}
	switch c.Schedule.PhraseSelection {
	case PhraseSelectionRotate, PhraseSelectionRandom:
	default:
		return fmt.Errorf("schedule.phrase_selection %q must be %q or %q", c.Schedule.PhraseSelection, PhraseSelectionRotate, PhraseSelectionRandom)
	}
	for key := range c.Themes {
		if !isWeekdayKey(key) {
			return fmt.Errorf("themes.%s is not a weekday", key)
		}
	}
	return nil
}

func (c *Config) validateDestinations() error {
	if len(c.Destinations) == 0 {
		return errors.New("at least one destination must be configured")
	}
	seen := make(map[string]struct{}, len(c.Destinations))
	for idx, dest := range c.Destinations {
		if dest.ID == "" {
			return fmt.Errorf("destinations[%d].id must be set", idx)
		}
		if _, ok := seen[dest.ID]; ok {
			return fmt.Errorf("destinations[%d].id %q is duplicated", idx, dest.ID)
		}
		seen[dest.ID] = struct{}{}
		for _, slot := range dest.Slots {
			if _, _, err := ParseSlot(slot); err != nil {
				return fmt.Errorf("destinations[%d] (%s).slots: %w", idx, dest.ID, err)
			}
		}
		if dest.MaxHashtags < 0 {
			return fmt.Errorf("destinations[%d] (%s).max_hashtags must be positive", idx, dest.ID)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return fmt.Errorf("logging.level %q is not recognized", c.Logging.Level)
	}
}

// ParseSlot parses an HH:MM time-of-day.
func ParseSlot(value string) (int, int, error) {
	hourPart, minutePart, ok := strings.Cut(strings.TrimSpace(value), ":")
	if !ok {
		return 0, 0, fmt.Errorf("slot %q must use HH:MM", value)
	}
	hour, err := strconv.Atoi(hourPart)
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("slot %q has an invalid hour", value)
	}
	minute, err := strconv.Atoi(minutePart)
	if err != nil || minute < 0 || minute > 59 || len(minutePart) != 2 {
		return 0, 0, fmt.Errorf("slot %q has an invalid minute", value)
	}
	return hour, minute, nil
}

func isWeekdayKey(key string) bool {
	for _, candidate := range weekdayKeys {
		if candidate == key {
			return true
		}
	}
	return false
}
