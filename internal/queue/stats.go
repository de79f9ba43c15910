package queue

import "time"

// Statistics summarizes the queue.
type Statistics struct {
	Total           int            `json:"total"`
	ByDestination   map[string]int `json:"by_destination"`
	ByContentType   map[string]int `json:"by_content_type"`
	ByStatus        map[string]int `json:"by_status"`
	Duplicates      int            `json:"duplicates"`
	DuplicateGroups int            `json:"duplicate_groups"`
	DueWithin24h    int            `json:"due_within_24h"`
	DueWithin7d     int            `json:"due_within_7d"`
}

// Statistics counts postings by destination, content type and status, and
// counts pending postings due within 24 hours and 7 days of now (overdue
// postings included). It does not modify the queue.
func (m *Manager) Statistics(now time.Time) Statistics {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := Statistics{
		Total:         len(m.postings),
		ByDestination: make(map[string]int),
		ByContentType: make(map[string]int),
		ByStatus:      make(map[string]int),
	}
	for _, status := range allStatuses {
		stats.ByStatus[string(status)] = 0
	}
	groups := make(map[string]struct{})
	day := now.Add(24 * time.Hour)
	week := now.Add(7 * 24 * time.Hour)
	for _, p := range m.postings {
		stats.ByDestination[p.DestinationID]++
		stats.ByContentType[string(p.ContentType)]++
		stats.ByStatus[string(p.Status)]++
		if p.IsDuplicate {
			stats.Duplicates++
			if p.GroupID != "" {
				groups[p.GroupID] = struct{}{}
			}
		}
		if p.Status != StatusPending {
			continue
		}
		if !p.ScheduledTime.After(day) {
			stats.DueWithin24h++
		}
		if !p.ScheduledTime.After(week) {
			stats.DueWithin7d++
		}
	}
	stats.DuplicateGroups = len(groups)
	return stats
}
