package history

import (
	"context"
	"fmt"
	"time"

	"cadence/internal/content"
)

type indexKey struct {
	destination string
	content     content.Key
}

// Index answers lookback questions from successful postings only.
type Index struct {
	lastPosted map[indexKey]time.Time
}

// BuildIndex keeps the latest posted timestamp per destination and item.
func BuildIndex(records []Record) *Index {
	idx := &Index{lastPosted: make(map[indexKey]time.Time)}
	for _, r := range records {
		idx.Observe(r)
	}
	return idx
}

// LoadIndex reads posted records from log and indexes them.
func LoadIndex(ctx context.Context, log Log) (*Index, error) {
	if log == nil {
		return BuildIndex(nil), nil
	}
	records, err := log.Records(ctx, Query{Outcome: OutcomePosted})
	if err != nil {
		return nil, fmt.Errorf("load posting history: %w", err)
	}
	return BuildIndex(records), nil
}

// Observe folds one record into the index. Failed outcomes are ignored.
// Records without a content type are indexed by content id alone.
func (i *Index) Observe(r Record) {
	if r.Outcome != OutcomePosted {
		return
	}
	key := indexKey{destination: r.DestinationID, content: content.Key{Type: r.ContentType, ID: r.ContentID}}
	if prev, ok := i.lastPosted[key]; !ok || r.Timestamp.After(prev) {
		i.lastPosted[key] = r.Timestamp
	}
}

// LastPosted returns when item was last posted to destination. Untyped
// records with the same content id count as well.
func (i *Index) LastPosted(destinationID string, item content.Key) (time.Time, bool) {
	if i == nil {
		return time.Time{}, false
	}
	ts, ok := i.lastPosted[indexKey{destination: destinationID, content: item}]
	if item.Type == "" {
		return ts, ok
	}
	untyped, found := i.lastPosted[indexKey{destination: destinationID, content: content.Key{ID: item.ID}}]
	if found && (!ok || untyped.After(ts)) {
		return untyped, true
	}
	return ts, ok
}

// InLookback reports whether item was posted to destination fewer than
// lookbackDays calendar days before day. An item posted on Nov 1 with a
// 60-day window is eligible again from Dec 31.
func (i *Index) InLookback(destinationID string, item content.Key, day time.Time, lookbackDays int, loc *time.Location) bool {
	if lookbackDays <= 0 {
		return false
	}
	last, ok := i.LastPosted(destinationID, item)
	if !ok {
		return false
	}
	if loc == nil {
		loc = time.Local
	}
	ly, lm, ld := last.In(loc).Date()
	dy, dm, dd := day.In(loc).Date()
	lastDay := time.Date(ly, lm, ld, 0, 0, 0, 0, time.UTC)
	slotDay := time.Date(dy, dm, dd, 0, 0, 0, 0, time.UTC)
	return slotDay.Before(lastDay.AddDate(0, 0, lookbackDays))
}
