package testsupport

import (
	"time"

	"cadence/internal/content"
	"cadence/internal/routing"
)

// CatchallDestination accepts everything at priority 10 with one 09:00 slot.
func CatchallDestination() routing.Destination {
	return routing.Destination{
		ID:              "Catchall",
		Name:            "Catch-all",
		Priority:        10,
		Rule:            routing.Rule{CatchAll: true},
		Slots:           []routing.Slot{{Hour: 9}},
		TemplatePhrases: []string{"New template!"},
		NotebookPhrases: []string{"New notebook!"},
		AddHashtags:     []string{"CoCalc"},
		MaxHashtags:     10,
	}
}

// MathOnlyDestination accepts items with specialized markup or the "algebra" keyword.
func MathOnlyDestination() routing.Destination {
	return routing.Destination{
		ID:              "MathOnly",
		Name:            "Math only",
		Priority:        8,
		Rule:            routing.Rule{Markup: true, Keywords: []string{"algebra"}},
		Slots:           []routing.Slot{{Hour: 13}},
		TemplatePhrases: []string{"Symbolic mathematics!"},
		NotebookPhrases: []string{"Mathematical exploration!"},
		AddHashtags:     []string{"SageMath"},
		RemoveHashtags:  []string{"Physics", "Engineering"},
		MaxHashtags:     10,
	}
}

// NewRouter builds a router over the Catchall and MathOnly destinations.
func NewRouter() *routing.Router {
	return routing.NewRouter([]routing.Destination{CatchallDestination(), MathOnlyDestination()})
}

// T1 is the symbolic algebra template used across package tests.
func T1() content.Item {
	return content.Item{
		ID:                   "T1",
		Type:                 content.TypeTemplate,
		Category:             "mathematics",
		Keywords:             []string{"algebra", "symbolic"},
		HasSpecializedMarkup: true,
		Title:                "Symbolic Algebra",
		Summary:              "Groups, rings and fields with SageTeX.",
		Link:                 "https://example.com/templates/T1",
		Hashtags:             []string{"Algebra", "LaTeX", "Physics"},
	}
}

// Notebook returns a plain notebook item in the given category.
func Notebook(id, category string) content.Item {
	return content.Item{
		ID:       id,
		Type:     content.TypeNotebook,
		Category: category,
		Title:    "Notebook " + id,
		Summary:  "Summary of " + id,
		Link:     "https://example.com/notebooks/" + id,
	}
}

// Template returns a plain template item in the given category.
func Template(id, category string) content.Item {
	return content.Item{
		ID:       id,
		Type:     content.TypeTemplate,
		Category: category,
		Title:    "Template " + id,
		Summary:  "Summary of " + id,
		Link:     "https://example.com/templates/" + id,
	}
}

// Date returns midnight UTC for the given day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// At returns a UTC instant.
func At(year int, month time.Month, day, hour, minute int) time.Time {
	return time.Date(year, month, day, hour, minute, 0, 0, time.UTC)
}
