package spread

import (
	"log/slog"
	"sort"
	"strings"
	"time"

	"cadence/internal/content"
	"cadence/internal/logging"
	"cadence/internal/queue"
	"cadence/internal/routing"
)

// Options configures a Handler.
type Options struct {
	// MinGapDays separates consecutive postings of a group. Default: 2.
	MinGapDays int
	// Picker chooses intro phrases. Default: a RotatingPicker.
	Picker PhrasePicker
	Logger *slog.Logger
}

// Handler builds tailored postings for routed items.
type Handler struct {
	minGap int
	picker PhrasePicker
	logger *slog.Logger
}

// NewHandler applies defaults to opts.
func NewHandler(opts Options) *Handler {
	h := &Handler{
		minGap: opts.MinGapDays,
		picker: opts.Picker,
		logger: logging.NewComponentLogger(opts.Logger, "spread"),
	}
	if h.minGap <= 0 {
		h.minGap = 2
	}
	if h.picker == nil {
		h.picker = NewRotatingPicker()
	}
	return h
}

// MinGapDays returns the configured group spacing.
func (h *Handler) MinGapDays() int {
	return h.minGap
}

// Order sorts destinations into group order: priority descending, catch-all
// first on ties, then configuration order.
func Order(destinations []routing.Destination) []routing.Destination {
	ordered := append([]routing.Destination(nil), destinations...)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		if a.IsCatchAll() != b.IsCatchAll() {
			return a.IsCatchAll()
		}
		return a.Order() < b.Order()
	})
	return ordered
}

// Spread returns one pending posting per destination. A single destination
// yields one original, non-duplicate posting at base. Several destinations
// form a duplicate group with posting i scheduled i*MinGapDays calendar days
// after base, in base's location. Consecutive postings are at least
// MinGapDays*24h apart, so across a spring-forward change the later posting
// moves forward by the lost hour. Times are never clamped to a horizon.
func (h *Handler) Spread(item content.Item, destinations []routing.Destination, base time.Time) []queue.Posting {
	if len(destinations) == 0 {
		return nil
	}
	ordered := Order(destinations)
	duplicate := len(ordered) > 1
	groupID := ""
	if duplicate {
		groupID = queue.NewID()
	}

	gap := time.Duration(h.minGap) * 24 * time.Hour
	postings := make([]queue.Posting, 0, len(ordered))
	for i, dest := range ordered {
		at := base.AddDate(0, 0, i*h.minGap)
		if i > 0 {
			if prev := postings[i-1].ScheduledTime; at.Sub(prev) < gap {
				at = prev.Add(gap)
			}
		}
		postings = append(postings, queue.Posting{
			ID:            queue.NewID(),
			ContentID:     item.ID,
			ContentType:   item.Type,
			DestinationID: dest.ID,
			Title:         item.Title,
			Text:          h.TailorText(item, dest),
			Hashtags:      TailorHashtags(item, dest),
			Link:          item.Link,
			ScheduledTime: at,
			IsDuplicate:   duplicate,
			GroupID:       groupID,
			IsOriginal:    i == 0,
			Status:        queue.StatusPending,
		})
	}

	if duplicate {
		h.logger.Debug("duplicate group spread",
			logging.String(logging.FieldGroupID, groupID),
			logging.String(logging.FieldContentID, item.ID),
			logging.String(logging.FieldContentType, string(item.Type)),
			logging.Int("destinations", len(postings)),
			logging.Int("span_days", (len(postings)-1)*h.minGap),
		)
	}
	return postings
}

// TailorText prefixes the item summary with an intro phrase for dest.
func (h *Handler) TailorText(item content.Item, dest routing.Destination) string {
	phrase := strings.TrimSpace(h.picker.Pick(dest.ID, item.Type, dest.Phrases(item.Type)))
	summary := strings.TrimSpace(item.Summary)
	switch {
	case phrase == "":
		return summary
	case summary == "":
		return phrase
	default:
		return phrase + "\n\n" + summary
	}
}
