package main

import (
	"fmt"
	"strings"
	"time"

	"cadence/internal/queue"
	"cadence/internal/textutil"
)

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04",
	"2006-01-02T15:04",
}

// parseTime accepts RFC 3339 or a local "YYYY-MM-DD HH:MM" in loc.
func parseTime(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q (use RFC 3339 or YYYY-MM-DD HH:MM)", value)
}

// parseDay accepts YYYY-MM-DD, "today" and "tomorrow".
func parseDay(value string, now time.Time, loc *time.Location) (time.Time, error) {
	now = now.In(loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "today":
		return today, nil
	case "tomorrow":
		return today.AddDate(0, 0, 1), nil
	}
	day, err := time.ParseInLocation(time.DateOnly, strings.TrimSpace(value), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid day %q (use YYYY-MM-DD)", value)
	}
	return day, nil
}

func parseStatuses(values []string) ([]queue.Status, error) {
	statuses := make([]queue.Status, 0, len(values))
	for _, value := range values {
		status, ok := queue.ParseStatus(value)
		if !ok {
			return nil, fmt.Errorf("unknown status %q", value)
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func yesNo(value bool) string {
	return textutil.Ternary(value, "yes", "no")
}

func formatTime(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	return t.In(loc).Format("2006-01-02 15:04")
}

func postingRows(postings []queue.Posting, loc *time.Location) [][]string {
	rows := make([][]string, 0, len(postings))
	for _, p := range postings {
		rows = append(rows, []string{
			shortID(p.ID),
			formatTime(p.ScheduledTime, loc),
			p.DestinationID,
			p.ContentKey().String(),
			string(p.Status),
			textutil.Ternary(p.IsDuplicate, shortID(p.GroupID), ""),
		})
	}
	return rows
}

var postingHeaders = []string{"ID", "Scheduled", "Destination", "Content", "Status", "Group"}

func postingTable(postings []queue.Posting, loc *time.Location) string {
	return renderTable(postingHeaders, postingRows(postings, loc), nil)
}
