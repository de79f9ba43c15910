package routing

import (
	"fmt"
	"strings"
	"time"

	"cadence/internal/config"
	"cadence/internal/content"
	"cadence/internal/textutil"
)

// Rule is a data-driven inclusion predicate. An item is accepted when the rule is
// catch-all, when Markup is set and the item carries specialized markup, when any
// rule keyword is among the item keywords, or when any rule category equals a
// segment of the item category path. A multi-word keyword such as
// "number theory" also matches when its words appear in sequence in the item's
// keywords, category, title or summary.
type Rule struct {
	CatchAll   bool
	Keywords   []string
	Categories []string
	Markup     bool
}

// Accepts evaluates the rule against item.
func (r Rule) Accepts(item content.Item) bool {
	if r.CatchAll {
		return true
	}
	if r.Markup && item.HasSpecializedMarkup {
		return true
	}
	var text string
	for _, keyword := range r.Keywords {
		if item.HasKeyword(keyword) {
			return true
		}
		words := textutil.Tokenize(keyword)
		if len(words) < 2 {
			continue
		}
		if text == "" {
			text = searchText(item)
		}
		if strings.Contains(text, " "+strings.Join(words, " ")+" ") {
			return true
		}
	}
	if len(r.Categories) > 0 {
		segments := item.CategorySegments()
		for _, category := range r.Categories {
			category = content.NormalizeKeyword(category)
			for _, segment := range segments {
				if segment == category {
					return true
				}
			}
		}
	}
	return false
}

func searchText(item content.Item) string {
	parts := append([]string{item.Category, item.Title, item.Summary}, item.Keywords...)
	var words []string
	for _, part := range parts {
		words = append(words, textutil.Tokenize(part)...)
	}
	return " " + strings.Join(words, " ") + " "
}

// Slot is a posting time of day.
type Slot struct {
	Hour   int
	Minute int
}

func (s Slot) String() string {
	return fmt.Sprintf("%02d:%02d", s.Hour, s.Minute)
}

// On returns the slot instant on the calendar day of day, in day's location.
func (s Slot) On(day time.Time) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, s.Hour, s.Minute, 0, 0, day.Location())
}

// Destination is a page content can be posted to, with its inclusion rule,
// posting slots and audience tailoring data.
type Destination struct {
	ID              string
	Name            string
	Platform        string
	Priority        int
	Rule            Rule
	Slots           []Slot
	TemplatePhrases []string
	NotebookPhrases []string
	AddHashtags     []string
	RemoveHashtags  []string
	MaxHashtags     int

	order int
}

// Accepts reports whether the destination's rule admits item.
func (d Destination) Accepts(item content.Item) bool {
	return d.Rule.Accepts(item)
}

// IsCatchAll reports whether the destination accepts every item.
func (d Destination) IsCatchAll() bool {
	return d.Rule.CatchAll
}

// Order is the position of the destination in the configuration.
func (d Destination) Order() int {
	return d.order
}

// Phrases returns the intro phrase pool for a content type.
func (d Destination) Phrases(t content.Type) []string {
	switch t {
	case content.TypeTemplate:
		return d.TemplatePhrases
	case content.TypeNotebook:
		return d.NotebookPhrases
	default:
		return nil
	}
}

// DestinationsFromConfig converts configured destinations, parsing slot times.
func DestinationsFromConfig(defs []config.Destination) ([]Destination, error) {
	out := make([]Destination, 0, len(defs))
	for _, def := range defs {
		slots := make([]Slot, 0, len(def.Slots))
		for _, raw := range def.Slots {
			hour, minute, err := config.ParseSlot(raw)
			if err != nil {
				return nil, fmt.Errorf("destination %s: %w", def.ID, err)
			}
			slots = append(slots, Slot{Hour: hour, Minute: minute})
		}
		out = append(out, Destination{
			ID:       def.ID,
			Name:     def.Name,
			Platform: def.Platform,
			Priority: def.Priority,
			Rule: Rule{
				CatchAll:   def.CatchAll,
				Keywords:   content.NormalizeKeywords(def.Keywords),
				Categories: content.NormalizeKeywords(def.Categories),
				Markup:     def.Markup,
			},
			Slots:           slots,
			TemplatePhrases: append([]string(nil), def.TemplatePhrases...),
			NotebookPhrases: append([]string(nil), def.NotebookPhrases...),
			AddHashtags:     append([]string(nil), def.AddHashtags...),
			RemoveHashtags:  append([]string(nil), def.RemoveHashtags...),
			MaxHashtags:     def.MaxHashtags,
		})
	}
	return out, nil
}
