package logs

import (
	"encoding/json"
	"fmt"
	"strings"

	"cadence/internal/logging"
)

// Entry is one parsed log line.
type Entry struct {
	Raw    string
	Fields map[string]string
}

// Parse extracts the structured fields of a log line. Unparseable lines keep
// only Raw.
func Parse(line string) Entry {
	entry := Entry{Raw: line, Fields: map[string]string{}}
	trimmed := strings.TrimSpace(line)
	if strings.HasPrefix(trimmed, "{") {
		var decoded map[string]any
		if err := json.Unmarshal([]byte(trimmed), &decoded); err == nil {
			for key, value := range decoded {
				entry.Fields[key] = fmt.Sprint(value)
			}
			return entry
		}
	}

	parts := strings.Fields(trimmed)
	if len(parts) >= 3 && strings.HasSuffix(parts[2], ":") {
		entry.Fields[logging.FieldComponent] = strings.TrimSuffix(parts[2], ":")
	}
	for _, part := range parts {
		key, value, ok := strings.Cut(part, "=")
		if !ok || key == "" {
			continue
		}
		entry.Fields[key] = strings.Trim(value, `"`)
	}
	return entry
}

// Filter selects entries by structured field. Empty fields match everything.
type Filter struct {
	RunID     string
	Component string
	PostingID string
}

// Empty reports whether the filter matches every line.
func (f Filter) Empty() bool {
	return f.RunID == "" && f.Component == "" && f.PostingID == ""
}

// Matches reports whether line passes the filter.
func (f Filter) Matches(line string) bool {
	if f.Empty() {
		return true
	}
	fields := Parse(line).Fields
	for key, want := range map[string]string{
		logging.FieldRunID:     f.RunID,
		logging.FieldComponent: f.Component,
		logging.FieldPostingID: f.PostingID,
	} {
		if want != "" && fields[key] != want {
			return false
		}
	}
	return true
}
