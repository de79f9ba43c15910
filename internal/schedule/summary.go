package schedule

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"cadence/internal/content"
	"cadence/internal/queue"
)

// Relaxation levels applied when a slot has no candidate.
const (
	RelaxNone  = "none"
	RelaxMix   = "mix"
	RelaxTheme = "theme"
)

// Shortfall is a slot that could not be filled.
type Shortfall struct {
	Day           string `json:"day"`
	DestinationID string `json:"destination_id"`
	Slot          string `json:"slot"`
	Reason        string `json:"reason"`
}

// Rejection is a posting the queue refused.
type Rejection struct {
	DestinationID string    `json:"destination_id"`
	ContentID     string    `json:"content_id"`
	ScheduledTime time.Time `json:"scheduled_time"`
	Reason        string    `json:"reason"`
}

// Summary reports one planning run.
type Summary struct {
	RunID              string               `json:"run_id"`
	Start              time.Time            `json:"start"`
	HorizonDays        int                  `json:"horizon_days"`
	SlotsRequested     int                  `json:"slots_requested"`
	SlotsFilled        int                  `json:"slots_filled"`
	SlotsAlreadyFilled int                  `json:"slots_already_filled"`
	Postings           []queue.Posting      `json:"postings"`
	Deferred           []queue.Posting      `json:"deferred,omitempty"`
	Shortfalls         []Shortfall          `json:"shortfalls,omitempty"`
	Rejections         []Rejection          `json:"rejections,omitempty"`
	Relaxed            map[string]int       `json:"relaxed"`
	ByType             map[content.Type]int `json:"by_type"`
	Warnings           []string             `json:"warnings,omitempty"`
}

func newSummary(runID string, start time.Time, horizon int) *Summary {
	return &Summary{
		RunID:       runID,
		Start:       start,
		HorizonDays: horizon,
		Relaxed:     map[string]int{RelaxMix: 0, RelaxTheme: 0},
		ByType:      map[content.Type]int{content.TypeTemplate: 0, content.TypeNotebook: 0},
	}
}

// String renders the operator report.
func (s *Summary) String() string {
	if s == nil {
		return ""
	}
	var b strings.Builder
	end := s.Start.AddDate(0, 0, s.HorizonDays-1)
	fmt.Fprintf(&b, "Planning run %s: %s to %s (%d days)\n",
		s.RunID, s.Start.Format("2006-01-02"), end.Format("2006-01-02"), s.HorizonDays)
	fmt.Fprintf(&b, "Slots: %d requested, %d filled, %d already filled, %d short\n",
		s.SlotsRequested, s.SlotsFilled, s.SlotsAlreadyFilled, len(s.Shortfalls))
	fmt.Fprintf(&b, "Postings: %d new (%d template, %d notebook)",
		len(s.Postings), s.ByType[content.TypeTemplate], s.ByType[content.TypeNotebook])
	if len(s.Deferred) > 0 {
		fmt.Fprintf(&b, ", %d deferred beyond horizon", len(s.Deferred))
	}
	b.WriteString("\n")
	if s.Relaxed[RelaxMix] > 0 || s.Relaxed[RelaxTheme] > 0 {
		fmt.Fprintf(&b, "Relaxed filters: %d mix, %d theme\n", s.Relaxed[RelaxMix], s.Relaxed[RelaxTheme])
	}
	for _, short := range s.Shortfalls {
		fmt.Fprintf(&b, "  shortfall %s %s %s: %s\n", short.Day, short.Slot, short.DestinationID, short.Reason)
	}
	for _, rej := range s.Rejections {
		fmt.Fprintf(&b, "  rejected %s -> %s at %s: %s\n",
			rej.ContentID, rej.DestinationID, rej.ScheduledTime.Format(time.RFC3339), rej.Reason)
	}
	if len(s.Warnings) > 0 {
		fmt.Fprintf(&b, "Validation warnings: %d\n", len(s.Warnings))
		warnings := append([]string(nil), s.Warnings...)
		sort.Strings(warnings)
		for _, w := range warnings {
			fmt.Fprintf(&b, "  %s\n", w)
		}
	}
	return b.String()
}
