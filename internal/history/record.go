package history

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"cadence/internal/content"
)

// Outcome is the terminal result the publisher reported.
type Outcome string

const (
	OutcomePosted Outcome = "posted"
	OutcomeFailed Outcome = "failed"
)

// ParseOutcome converts a string into a known Outcome.
func ParseOutcome(value string) (Outcome, bool) {
	switch Outcome(strings.ToLower(strings.TrimSpace(value))) {
	case OutcomePosted:
		return OutcomePosted, true
	case OutcomeFailed:
		return OutcomeFailed, true
	default:
		return "", false
	}
}

// Record is one terminal posting attempt.
type Record struct {
	ID            int64        `json:"id"`
	DestinationID string       `json:"destination_id"`
	ContentID     string       `json:"content_id"`
	ContentType   content.Type `json:"content_type"`
	PostingID     string       `json:"posting_id,omitempty"`
	RemotePostID  string       `json:"remote_post_id,omitempty"`
	Outcome       Outcome      `json:"outcome"`
	Error         string       `json:"error,omitempty"`
	Timestamp     time.Time    `json:"timestamp"`
}

func (r Record) validate() error {
	if strings.TrimSpace(r.DestinationID) == "" || strings.TrimSpace(r.ContentID) == "" {
		return fmt.Errorf("history record: destination_id and content_id are required")
	}
	if _, ok := ParseOutcome(string(r.Outcome)); !ok {
		return fmt.Errorf("history record: unknown outcome %q", r.Outcome)
	}
	if r.ContentType != "" {
		if parsed, ok := content.ParseType(string(r.ContentType)); !ok || parsed != r.ContentType {
			return fmt.Errorf("history record: unknown content_type %q", r.ContentType)
		}
	}
	if r.Timestamp.IsZero() {
		return fmt.Errorf("history record: timestamp is required")
	}
	return nil
}

// Query narrows Records results. Zero fields match everything.
type Query struct {
	DestinationID string
	ContentID     string
	Outcome       Outcome
	Since         time.Time
	Limit         int
}

func (q Query) matches(r Record) bool {
	if q.DestinationID != "" && r.DestinationID != q.DestinationID {
		return false
	}
	if q.ContentID != "" && r.ContentID != q.ContentID {
		return false
	}
	if q.Outcome != "" && r.Outcome != q.Outcome {
		return false
	}
	if !q.Since.IsZero() && r.Timestamp.Before(q.Since) {
		return false
	}
	return true
}

// Log is the append-only posting history.
type Log interface {
	Append(ctx context.Context, record Record) (Record, error)
	Records(ctx context.Context, query Query) ([]Record, error)
}

// MemoryLog is an in-process Log for tests and dry runs.
type MemoryLog struct {
	mu      sync.Mutex
	records []Record
}

// NewMemoryLog returns a log seeded with records.
func NewMemoryLog(seed ...Record) *MemoryLog {
	log := &MemoryLog{}
	for _, r := range seed {
		_, _ = log.Append(context.Background(), r)
	}
	return log
}

func (l *MemoryLog) Append(_ context.Context, record Record) (Record, error) {
	if err := record.validate(); err != nil {
		return Record{}, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	record.ID = int64(len(l.records) + 1)
	l.records = append(l.records, record)
	return record, nil
}

func (l *MemoryLog) Records(_ context.Context, query Query) ([]Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []Record
	for _, r := range l.records {
		if query.matches(r) {
			out = append(out, r)
		}
	}
	sortRecords(out)
	if query.Limit > 0 && len(out) > query.Limit {
		out = out[len(out)-query.Limit:]
	}
	return out, nil
}

func sortRecords(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		if !records[i].Timestamp.Equal(records[j].Timestamp) {
			return records[i].Timestamp.Before(records[j].Timestamp)
		}
		return records[i].ID < records[j].ID
	})
}
