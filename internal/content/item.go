package content

import (
	"sort"
	"strings"
)

// Type discriminates the catalog variants.
type Type string

const (
	TypeTemplate Type = "template"
	TypeNotebook Type = "notebook"
)

var allTypes = []Type{TypeTemplate, TypeNotebook}

// AllTypes returns the known content types in display order.
func AllTypes() []Type {
	cp := make([]Type, len(allTypes))
	copy(cp, allTypes)
	return cp
}

// ParseType converts a string into a known Type.
func ParseType(value string) (Type, bool) {
	normalized := Type(strings.ToLower(strings.TrimSpace(value)))
	switch normalized {
	case TypeTemplate, TypeNotebook:
		return normalized, true
	default:
		return "", false
	}
}

// Key identifies an item across scans.
type Key struct {
	Type Type
	ID   string
}

func (k Key) String() string {
	return string(k.Type) + ":" + k.ID
}

// Item is one postable piece of content.
type Item struct {
	ID                   string   `yaml:"id" json:"id"`
	Type                 Type     `yaml:"content_type" json:"content_type"`
	Category             string   `yaml:"category" json:"category"`
	Keywords             []string `yaml:"keywords" json:"keywords"`
	HasSpecializedMarkup bool     `yaml:"has_specialized_markup" json:"has_specialized_markup"`
	HasMedia             bool     `yaml:"has_media" json:"has_media"`
	Title                string   `yaml:"title" json:"title"`
	Summary              string   `yaml:"summary_text" json:"summary_text"`
	Link                 string   `yaml:"link" json:"link"`
	Hashtags             []string `yaml:"hashtags" json:"hashtags"`
}

// Key returns the join key for the item.
func (i Item) Key() Key {
	return Key{Type: i.Type, ID: i.ID}
}

// HasKeyword reports whether the normalized keyword set contains keyword.
func (i Item) HasKeyword(keyword string) bool {
	keyword = NormalizeKeyword(keyword)
	if keyword == "" {
		return false
	}
	for _, kw := range i.Keywords {
		if NormalizeKeyword(kw) == keyword {
			return true
		}
	}
	return false
}

// CategorySegments splits a category path such as "pure-mathematics/number-theory"
// into lowercase segments.
func (i Item) CategorySegments() []string {
	return SplitCategory(i.Category)
}

// SplitCategory lowercases a category path and splits it on "/".
func SplitCategory(category string) []string {
	var segments []string
	for _, part := range strings.Split(strings.ToLower(category), "/") {
		part = strings.TrimSpace(part)
		if part != "" {
			segments = append(segments, part)
		}
	}
	return segments
}

// NormalizeKeyword lowercases and trims a keyword.
func NormalizeKeyword(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

// NormalizeKeywords lowercases, deduplicates and sorts keywords.
func NormalizeKeywords(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, value := range values {
		kw := NormalizeKeyword(value)
		if kw == "" {
			continue
		}
		if _, ok := seen[kw]; ok {
			continue
		}
		seen[kw] = struct{}{}
		out = append(out, kw)
	}
	sort.Strings(out)
	return out
}

// normalized returns a copy with trimmed identifiers and a normalized keyword set.
func (i Item) normalized() Item {
	i.ID = strings.TrimSpace(i.ID)
	i.Category = strings.TrimSpace(i.Category)
	i.Keywords = NormalizeKeywords(i.Keywords)
	if len(i.Hashtags) > 0 {
		tags := make([]string, 0, len(i.Hashtags))
		for _, tag := range i.Hashtags {
			tag = strings.TrimPrefix(strings.TrimSpace(tag), "#")
			if tag != "" {
				tags = append(tags, tag)
			}
		}
		i.Hashtags = tags
	}
	return i
}
