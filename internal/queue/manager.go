package queue

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"cadence/internal/logging"
)

// Options configures a Manager.
type Options struct {
	// Location defines calendar days. Default: time.Local.
	Location *time.Location
	// MinGapDays is the duplicate-group spacing checked by Validate. Default: 2.
	MinGapDays int
	Logger     *slog.Logger
	// Now supplies created_at stamps. Default: time.Now.
	Now func() time.Time
}

// Manager owns the posting queue. Every mutation reloads the document from its
// Store, applies the change and writes the whole document back; callers
// serialize processes externally with the run lock.
type Manager struct {
	mu       sync.Mutex
	store    Store
	postings []Posting
	loc      *time.Location
	minGap   int
	logger   *slog.Logger
	now      func() time.Time
}

// NewManager loads the queue from store.
func NewManager(store Store, opts Options) (*Manager, error) {
	if store == nil {
		return nil, errors.New("queue manager: store is required")
	}
	m := &Manager{
		store:  store,
		loc:    opts.Location,
		minGap: opts.MinGapDays,
		logger: logging.NewComponentLogger(opts.Logger, "queue"),
		now:    opts.Now,
	}
	if m.loc == nil {
		m.loc = time.Local
	}
	if m.minGap <= 0 {
		m.minGap = 2
	}
	if m.now == nil {
		m.now = time.Now
	}
	postings, err := m.load()
	if err != nil {
		return nil, err
	}
	m.postings = postings
	m.logger.Debug("queue loaded", logging.Int("postings", len(postings)))
	return m, nil
}

// Location returns the time zone defining calendar days.
func (m *Manager) Location() *time.Location {
	return m.loc
}

// MinGapDays returns the duplicate-group spacing checked by Validate.
func (m *Manager) MinGapDays() int {
	return m.minGap
}

func (m *Manager) load() ([]Posting, error) {
	postings, err := m.store.Load()
	if err != nil {
		var perr *PersistenceError
		if errors.As(err, &perr) {
			return nil, err
		}
		return nil, &PersistenceError{Op: "load", Err: err}
	}
	return postings, nil
}

// Reload replaces in-memory state with the stored document.
func (m *Manager) Reload() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	postings, err := m.load()
	if err != nil {
		return err
	}
	m.postings = postings
	return nil
}

// mutate runs fn against a fresh copy of the stored document and writes the
// result back. When fn fails or the write fails, memory keeps the last durable
// version.
func (m *Manager) mutate(fn func(postings []Posting) ([]Posting, error)) error {
	current, err := m.load()
	if err != nil {
		return err
	}
	m.postings = current

	working := make([]Posting, len(current))
	for i, p := range current {
		working[i] = p.Clone()
	}
	next, err := fn(working)
	if err != nil {
		return err
	}
	if err := m.store.Save(next); err != nil {
		var perr *PersistenceError
		if !errors.As(err, &perr) {
			err = &PersistenceError{Op: "save", Err: err}
		}
		logging.ErrorWithContext(m.logger, "queue write failed", "queue_persist_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check permissions and free space for the queue file"),
		)
		return err
	}
	m.postings = next
	return nil
}

func indexOf(postings []Posting, id string) int {
	for i := range postings {
		if postings[i].ID == id {
			return i
		}
	}
	return -1
}

// conflict returns the active posting that shares destination, content and
// calendar day with candidate, ignoring the posting with id skipID.
func (m *Manager) conflict(postings []Posting, candidate Posting, skipID string) (Posting, bool) {
	day := DayKey(candidate.ScheduledTime, m.loc)
	for _, existing := range postings {
		if existing.ID == skipID || !existing.Status.occupiesDay() {
			continue
		}
		if existing.DestinationID != candidate.DestinationID || existing.ContentID != candidate.ContentID {
			continue
		}
		if DayKey(existing.ScheduledTime, m.loc) == day {
			return existing, true
		}
	}
	return Posting{}, false
}

// Enqueue appends a posting and persists the queue. It fails with a
// ValidationError when a pending or posted posting already targets the same
// destination with the same content on the same calendar day.
func (m *Manager) Enqueue(p Posting) (Posting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p = p.Clone()
	p.DestinationID = strings.TrimSpace(p.DestinationID)
	p.ContentID = strings.TrimSpace(p.ContentID)
	if p.DestinationID == "" || p.ContentID == "" {
		return Posting{}, &ValidationError{PostingID: p.ID, Reason: "destination_id and content_id are required"}
	}
	if p.ScheduledTime.IsZero() {
		return Posting{}, &ValidationError{PostingID: p.ID, Reason: "scheduled_time is required"}
	}
	if p.ID == "" {
		p.ID = NewID()
	}
	if p.Status == "" {
		p.Status = StatusPending
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = m.now()
	}
	p.GroupID = strings.TrimSpace(p.GroupID)
	if !p.IsDuplicate {
		p.GroupID = ""
		p.IsOriginal = true
	} else if p.GroupID == "" {
		return Posting{}, &ValidationError{PostingID: p.ID, DestinationID: p.DestinationID, ContentID: p.ContentID, Reason: "duplicate posting requires a group id"}
	}

	err := m.mutate(func(postings []Posting) ([]Posting, error) {
		if indexOf(postings, p.ID) >= 0 {
			return nil, &ValidationError{PostingID: p.ID, Reason: "posting id already present"}
		}
		if p.Status.occupiesDay() {
			if existing, ok := m.conflict(postings, p, ""); ok {
				return nil, &ValidationError{
					PostingID:     existing.ID,
					DestinationID: p.DestinationID,
					ContentID:     p.ContentID,
					Day:           DayKey(p.ScheduledTime, m.loc),
					Reason:        "content already scheduled for this destination on the same day",
				}
			}
		}
		return append(postings, p), nil
	})
	if err != nil {
		return Posting{}, err
	}
	m.logger.Debug("posting enqueued",
		logging.String(logging.FieldPostingID, p.ID),
		logging.String(logging.FieldDestinationID, p.DestinationID),
		logging.String(logging.FieldContentID, p.ContentID),
		logging.Time("scheduled_time", p.ScheduledTime),
	)
	return p.Clone(), nil
}

// MarkPosted moves a pending posting to posted. Calling it again with the same
// remote id is a no-op; changed reports whether the queue was modified.
func (m *Manager) MarkPosted(id, remotePostID string, postedAt time.Time) (Posting, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var (
		result  Posting
		changed bool
	)
	err := m.mutate(func(postings []Posting) ([]Posting, error) {
		idx := indexOf(postings, id)
		if idx < 0 {
			return nil, &NotFoundError{PostingID: id}
		}
		p := &postings[idx]
		switch p.Status {
		case StatusPosted:
			if p.RemotePostID == remotePostID {
				result = p.Clone()
				return nil, errUnchanged
			}
			return nil, &ValidationError{PostingID: id, Reason: fmt.Sprintf("already posted as %q", p.RemotePostID)}
		case StatusFailed:
			return nil, &ValidationError{PostingID: id, Reason: "failed postings must be rescheduled before being marked posted"}
		}
		at := postedAt
		p.Status = StatusPosted
		p.PostedAt = &at
		p.RemotePostID = remotePostID
		p.LastError = ""
		result = p.Clone()
		changed = true
		return postings, nil
	})
	if errors.Is(err, errUnchanged) {
		return result, false, nil
	}
	if err != nil {
		return Posting{}, false, err
	}
	return result, changed, nil
}

var errUnchanged = errors.New("unchanged")

// MarkFailed moves a pending posting to failed and records the reason.
func (m *Manager) MarkFailed(id, reason string) (Posting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var result Posting
	err := m.mutate(func(postings []Posting) ([]Posting, error) {
		idx := indexOf(postings, id)
		if idx < 0 {
			return nil, &NotFoundError{PostingID: id}
		}
		p := &postings[idx]
		if p.Status != StatusPending {
			return nil, &ValidationError{PostingID: id, Reason: fmt.Sprintf("cannot mark %s posting as failed", p.Status)}
		}
		p.Status = StatusFailed
		p.LastError = strings.TrimSpace(reason)
		p.Attempts++
		result = p.Clone()
		return postings, nil
	})
	if err != nil {
		return Posting{}, err
	}
	return result, nil
}

// Reschedule moves a pending or failed posting to newTime and back to pending,
// re-checking the same-day rule at the new day.
func (m *Manager) Reschedule(id string, newTime time.Time) (Posting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var result Posting
	err := m.mutate(func(postings []Posting) ([]Posting, error) {
		idx := indexOf(postings, id)
		if idx < 0 {
			return nil, &NotFoundError{PostingID: id}
		}
		p := &postings[idx]
		if p.Status == StatusPosted {
			return nil, &ValidationError{PostingID: id, Reason: "posted postings cannot be rescheduled"}
		}
		if newTime.IsZero() {
			return nil, &ValidationError{PostingID: id, Reason: "new time is required"}
		}
		moved := p.Clone()
		moved.ScheduledTime = newTime
		if existing, ok := m.conflict(postings, moved, id); ok {
			return nil, &ValidationError{
				PostingID:     existing.ID,
				DestinationID: moved.DestinationID,
				ContentID:     moved.ContentID,
				Day:           DayKey(newTime, m.loc),
				Reason:        "content already scheduled for this destination on the same day",
			}
		}
		p.ScheduledTime = newTime
		p.Status = StatusPending
		result = p.Clone()
		return postings, nil
	})
	if err != nil {
		return Posting{}, err
	}
	return result, nil
}

// Remove deletes a posting regardless of status.
func (m *Manager) Remove(id string) (Posting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var removed Posting
	err := m.mutate(func(postings []Posting) ([]Posting, error) {
		idx := indexOf(postings, id)
		if idx < 0 {
			return nil, &NotFoundError{PostingID: id}
		}
		removed = postings[idx].Clone()
		return append(postings[:idx], postings[idx+1:]...), nil
	})
	if err != nil {
		return Posting{}, err
	}
	return removed, nil
}

// Get returns a posting by id.
func (m *Manager) Get(id string) (Posting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx := indexOf(m.postings, id)
	if idx < 0 {
		return Posting{}, &NotFoundError{PostingID: id}
	}
	return m.postings[idx].Clone(), nil
}

// All returns every posting in insertion order.
func (m *Manager) All() []Posting {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneAll(m.postings)
}

// Len returns the number of postings.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.postings)
}

// List returns postings matching filter sorted by scheduled time, ties by
// insertion order.
func (m *Manager) List(filter Filter) []Posting {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Posting
	for _, p := range m.postings {
		if filter.matches(p) {
			out = append(out, p.Clone())
		}
	}
	sortByTime(out)
	return out
}

// DueWithin returns pending postings scheduled at or before now+within, sorted by
// scheduled time with ties in insertion order.
func (m *Manager) DueWithin(within time.Duration, now time.Time) []Posting {
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := now.Add(within)
	var out []Posting
	for _, p := range m.postings {
		if p.Status == StatusPending && !p.ScheduledTime.After(cutoff) {
			out = append(out, p.Clone())
		}
	}
	sortByTime(out)
	return out
}

// Day returns postings on the calendar day of date, optionally for one
// destination, sorted by scheduled time.
func (m *Manager) Day(date time.Time, destinationID string) []Posting {
	m.mu.Lock()
	defer m.mu.Unlock()
	day := DayKey(date, m.loc)
	var out []Posting
	for _, p := range m.postings {
		if destinationID != "" && p.DestinationID != destinationID {
			continue
		}
		if DayKey(p.ScheduledTime, m.loc) == day {
			out = append(out, p.Clone())
		}
	}
	sortByTime(out)
	return out
}

// PendingFor reports whether content is waiting to be posted to a destination.
func (m *Manager) PendingFor(destinationID, contentID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.postings {
		if p.Status == StatusPending && p.DestinationID == destinationID && p.ContentID == contentID {
			return true
		}
	}
	return false
}

func sortByTime(postings []Posting) {
	sort.SliceStable(postings, func(i, j int) bool {
		return postings[i].ScheduledTime.Before(postings[j].ScheduledTime)
	})
}

func cloneAll(postings []Posting) []Posting {
	out := make([]Posting, len(postings))
	for i, p := range postings {
		out[i] = p.Clone()
	}
	return out
}
