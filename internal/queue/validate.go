package queue

import (
	"fmt"
	"sort"

	"cadence/internal/content"
)

// ContentLookup reports whether the catalog still lists an item.
type ContentLookup func(t content.Type, id string) bool

// Validate scans the whole queue and returns human-readable warnings. It never
// fails: same-day duplicates, duplicate groups spaced closer than the minimum
// gap or without exactly one earliest original, and dangling content references
// are reported for the operator. A nil lookup skips the dangling check.
func (m *Manager) Validate(lookup ContentLookup) []string {
	m.mu.Lock()
	postings := cloneAll(m.postings)
	m.mu.Unlock()

	var warnings []string
	warnings = append(warnings, m.sameDayWarnings(postings)...)
	warnings = append(warnings, m.groupWarnings(postings)...)
	if lookup != nil {
		for _, p := range postings {
			if !lookup(p.ContentType, p.ContentID) {
				warnings = append(warnings, fmt.Sprintf("posting %s references %s %q which is no longer in the catalog", p.ID, p.ContentType, p.ContentID))
			}
		}
	}
	return warnings
}

func (m *Manager) sameDayWarnings(postings []Posting) []string {
	type key struct{ destination, content, day string }
	seen := make(map[key]string)
	var warnings []string
	for _, p := range postings {
		if !p.Status.occupiesDay() {
			continue
		}
		k := key{p.DestinationID, p.ContentID, DayKey(p.ScheduledTime, m.loc)}
		if first, ok := seen[k]; ok {
			warnings = append(warnings, fmt.Sprintf("same-day duplicate: postings %s and %s both send %q to %s on %s", first, p.ID, p.ContentID, p.DestinationID, k.day))
			continue
		}
		seen[k] = p.ID
	}
	return warnings
}

func (m *Manager) groupWarnings(postings []Posting) []string {
	groups := make(map[string][]Posting)
	var order []string
	for _, p := range postings {
		if !p.IsDuplicate || p.GroupID == "" {
			continue
		}
		if _, ok := groups[p.GroupID]; !ok {
			order = append(order, p.GroupID)
		}
		groups[p.GroupID] = append(groups[p.GroupID], p)
	}

	var warnings []string
	for _, id := range order {
		members := groups[id]
		sortByTime(members)

		originals := 0
		for _, p := range members {
			if p.IsOriginal {
				originals++
			}
		}
		switch {
		case originals != 1:
			warnings = append(warnings, fmt.Sprintf("duplicate group %s has %d original postings, want exactly 1", id, originals))
		case !members[0].IsOriginal:
			warnings = append(warnings, fmt.Sprintf("duplicate group %s: original posting is not the earliest", id))
		}

		for i := 0; i < len(members); i++ {
			for j := i + 1; j < len(members); j++ {
				a, b := members[i], members[j]
				if a.DestinationID == b.DestinationID {
					continue
				}
				gap := DaysBetween(a.ScheduledTime, b.ScheduledTime, m.loc)
				if gap < 0 {
					gap = -gap
				}
				if gap < m.minGap {
					warnings = append(warnings, fmt.Sprintf("duplicate group %s: %s and %s are %d day(s) apart, minimum is %d", id, a.DestinationID, b.DestinationID, gap, m.minGap))
				}
			}
		}
	}
	sort.Strings(warnings)
	return warnings
}
