package queue

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"cadence/internal/content"
)

// Status represents the lifecycle of a queued posting.
type Status string

const (
	StatusPending Status = "pending"
	StatusPosted  Status = "posted"
	StatusFailed  Status = "failed"
)

var allStatuses = []Status{StatusPending, StatusPosted, StatusFailed}

// AllStatuses returns every known status in lifecycle order.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	for _, status := range allStatuses {
		if status == normalized {
			return normalized, true
		}
	}
	return "", false
}

// occupiesDay reports whether a posting in this status blocks another posting of
// the same content to the same destination on the same calendar day.
func (s Status) occupiesDay() bool {
	return s == StatusPending || s == StatusPosted
}

// Posting is the persisted unit of work: one tailored message for one
// destination at one time.
type Posting struct {
	ID            string       `json:"posting_id"`
	ContentID     string       `json:"content_id"`
	ContentType   content.Type `json:"content_type"`
	DestinationID string       `json:"destination_id"`
	Title         string       `json:"title,omitempty"`
	Text          string       `json:"rendered_text"`
	Hashtags      []string     `json:"rendered_hashtags"`
	Link          string       `json:"link"`
	ScheduledTime time.Time    `json:"scheduled_time"`
	IsDuplicate   bool         `json:"is_duplicate"`
	GroupID       string       `json:"duplicate_group_id,omitempty"`
	IsOriginal    bool         `json:"is_original"`
	Status        Status       `json:"status"`
	PostedAt      *time.Time   `json:"posted_at,omitempty"`
	RemotePostID  string       `json:"remote_post_id,omitempty"`
	LastError     string       `json:"last_error,omitempty"`
	Attempts      int          `json:"attempts,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
}

// NewID returns a fresh posting or group identifier.
func NewID() string {
	return uuid.NewString()
}

// ContentKey returns the catalog join key the posting refers to.
func (p Posting) ContentKey() content.Key {
	return content.Key{Type: p.ContentType, ID: p.ContentID}
}

// Clone returns a deep copy.
func (p Posting) Clone() Posting {
	if p.Hashtags != nil {
		p.Hashtags = append([]string(nil), p.Hashtags...)
	}
	if p.PostedAt != nil {
		t := *p.PostedAt
		p.PostedAt = &t
	}
	return p
}

// Filter narrows List results. Zero fields match everything.
type Filter struct {
	Statuses      []Status
	DestinationID string
	ContentID     string
	ContentType   content.Type
	GroupID       string
}

func (f Filter) matches(p Posting) bool {
	if f.DestinationID != "" && p.DestinationID != f.DestinationID {
		return false
	}
	if f.ContentType != "" && p.ContentType != f.ContentType {
		return false
	}
	if f.ContentID != "" && p.ContentID != f.ContentID {
		return false
	}
	if f.GroupID != "" && p.GroupID != f.GroupID {
		return false
	}
	if len(f.Statuses) == 0 {
		return true
	}
	for _, status := range f.Statuses {
		if p.Status == status {
			return true
		}
	}
	return false
}

// DayKey formats the calendar day of t in loc.
func DayKey(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format("2006-01-02")
}

// DaysBetween returns the number of calendar days from a to b in loc.
func DaysBetween(a, b time.Time, loc *time.Location) int {
	if loc == nil {
		loc = time.Local
	}
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	da := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	db := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}
