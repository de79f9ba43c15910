package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"cadence/internal/config"
	"cadence/internal/content"
	"cadence/internal/history"
	"cadence/internal/logging"
	"cadence/internal/queue"
	"cadence/internal/routing"
	"cadence/internal/spread"
)

// ErrBusy is returned when a planning run is already in progress.
var ErrBusy = errors.New("scheduler: planning run already in progress")

// Phase is the scheduler lifecycle state.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhasePlanning   Phase = "planning"
	PhaseRouting    Phase = "routing"
	PhasePersisting Phase = "persisting"
)

// Policy holds the planning knobs.
type Policy struct {
	HorizonDays        int
	LookbackDays       int
	TemplateShare      float64
	MixPolicy          string
	DeferBeyondHorizon bool
	// Themes lists allowed categories per weekday. A missing or empty entry
	// allows every category.
	Themes map[time.Weekday][]string
}

// PolicyFromConfig copies the schedule section and weekday themes.
func PolicyFromConfig(cfg *config.Config) Policy {
	themes := make(map[time.Weekday][]string, 7)
	for day := time.Sunday; day <= time.Saturday; day++ {
		if categories := cfg.ThemeFor(day); len(categories) > 0 {
			themes[day] = categories
		}
	}
	return Policy{
		HorizonDays:        cfg.Schedule.HorizonDays,
		LookbackDays:       cfg.Schedule.LookbackDays,
		TemplateShare:      cfg.Schedule.TemplateShare,
		MixPolicy:          cfg.Schedule.MixPolicy,
		DeferBeyondHorizon: cfg.Schedule.DeferBeyondHorizon,
		Themes:             themes,
	}
}

// Options wires a Scheduler to its collaborators.
type Options struct {
	Catalog  *content.Catalog
	Router   *routing.Router
	Spreader *spread.Handler
	Queue    *queue.Manager
	// History may be nil, in which case nothing is inside the lookback window.
	History  history.Log
	Policy   Policy
	Location *time.Location
	Logger   *slog.Logger
	// NewRunID overrides run id generation. Default: queue.NewID.
	NewRunID func() string
}

// Scheduler orchestrates planning runs.
type Scheduler struct {
	catalog  *content.Catalog
	router   *routing.Router
	spreader *spread.Handler
	queue    *queue.Manager
	history  history.Log
	policy   Policy
	loc      *time.Location
	logger   *slog.Logger
	newRunID func() string

	mu      sync.Mutex
	phase   Phase
	running bool
}

// New validates opts and applies defaults.
func New(opts Options) (*Scheduler, error) {
	if opts.Router == nil {
		return nil, errors.New("scheduler: router is required")
	}
	if opts.Queue == nil {
		return nil, errors.New("scheduler: queue is required")
	}
	s := &Scheduler{
		catalog:  opts.Catalog,
		router:   opts.Router,
		spreader: opts.Spreader,
		queue:    opts.Queue,
		history:  opts.History,
		policy:   opts.Policy,
		loc:      opts.Location,
		logger:   logging.NewComponentLogger(opts.Logger, "scheduler"),
		newRunID: opts.NewRunID,
		phase:    PhaseIdle,
	}
	if s.catalog == nil {
		s.catalog = content.NewCatalog()
	}
	if s.loc == nil {
		s.loc = opts.Queue.Location()
	}
	if s.spreader == nil {
		s.spreader = spread.NewHandler(spread.Options{MinGapDays: opts.Queue.MinGapDays(), Logger: opts.Logger})
	}
	if s.policy.HorizonDays <= 0 {
		s.policy.HorizonDays = 7
	}
	if s.policy.TemplateShare < 0 || s.policy.TemplateShare > 1 {
		return nil, fmt.Errorf("scheduler: template share %.2f outside [0,1]", s.policy.TemplateShare)
	}
	if s.newRunID == nil {
		s.newRunID = queue.NewID
	}
	return s, nil
}

// Phase reports the current lifecycle state.
func (s *Scheduler) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

func (s *Scheduler) setPhase(p Phase) {
	s.mu.Lock()
	s.phase = p
	s.mu.Unlock()
}

// run carries the mutable state of one planning pass.
type run struct {
	logger    *slog.Logger
	summary   *Summary
	index     *history.Index
	mix       *mixTracker
	end       time.Time
	consumed  map[string]map[content.Key]bool
	occupied  map[string]map[time.Time]bool
	positions map[content.Key]int
}

func (r *run) isConsumed(destinationID string, key content.Key) bool {
	return r.consumed[destinationID][key]
}

func (r *run) consume(destinationID string, key content.Key) {
	if r.consumed[destinationID] == nil {
		r.consumed[destinationID] = make(map[content.Key]bool)
	}
	r.consumed[destinationID][key] = true
}

func (r *run) occupy(destinationID string, at time.Time) {
	if r.occupied[destinationID] == nil {
		r.occupied[destinationID] = make(map[time.Time]bool)
	}
	r.occupied[destinationID][at.UTC()] = true
}

// GenerateWeeklySchedule plans horizonDays calendar days starting at the day
// of start. A horizon of zero or less uses the policy horizon. The returned
// Summary is populated even when an error aborts the run.
func (s *Scheduler) GenerateWeeklySchedule(ctx context.Context, start time.Time, horizonDays int) (*Summary, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil, ErrBusy
	}
	s.running = true
	s.phase = PhasePlanning
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.phase = PhaseIdle
		s.mu.Unlock()
	}()

	if ctx == nil {
		ctx = context.Background()
	}
	if horizonDays <= 0 {
		horizonDays = s.policy.HorizonDays
	}
	runID := s.newRunID()
	ctx = logging.WithRunID(ctx, runID)
	logger := logging.WithContext(ctx, s.logger)

	y, m, d := start.In(s.loc).Date()
	startDay := time.Date(y, m, d, 0, 0, 0, 0, s.loc)
	summary := newSummary(runID, startDay, horizonDays)

	index, err := history.LoadIndex(ctx, s.history)
	if err != nil {
		return summary, err
	}
	if err := s.queue.Reload(); err != nil {
		return summary, err
	}

	r := &run{
		logger:    logger,
		summary:   summary,
		index:     index,
		mix:       newMixTracker(s.policy.MixPolicy, s.policy.TemplateShare),
		end:       startDay.AddDate(0, 0, horizonDays),
		consumed:  make(map[string]map[content.Key]bool),
		occupied:  make(map[string]map[time.Time]bool),
		positions: make(map[content.Key]int),
	}
	for i, item := range s.catalog.Items() {
		r.positions[item.Key()] = i
	}
	for _, p := range s.queue.List(queue.Filter{Statuses: []queue.Status{queue.StatusPending, queue.StatusPosted}}) {
		if p.Status == queue.StatusPending {
			r.consume(p.DestinationID, p.ContentKey())
		}
		r.occupy(p.DestinationID, p.ScheduledTime)
	}

	logger.Info("planning run started",
		logging.String("start", startDay.Format("2006-01-02")),
		logging.Int("horizon_days", horizonDays),
		logging.Int("catalog_items", s.catalog.Len()),
		logging.Int("destinations", len(s.router.Destinations())),
	)

	for offset := 0; offset < horizonDays; offset++ {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		day := startDay.AddDate(0, 0, offset)
		r.mix.startDay()
		theme := s.policy.Themes[day.Weekday()]
		for _, dest := range s.router.Destinations() {
			for _, slot := range dest.Slots {
				if err := s.fillSlot(r, dest, slot, day, theme); err != nil {
					return summary, err
				}
			}
		}
	}

	summary.Warnings = s.queue.Validate(s.catalog.Contains)
	logger.Info("planning run finished",
		logging.Int("slots_requested", summary.SlotsRequested),
		logging.Int("slots_filled", summary.SlotsFilled),
		logging.Int("postings", len(summary.Postings)),
		logging.Int("shortfalls", len(summary.Shortfalls)),
		logging.Int("rejections", len(summary.Rejections)),
		logging.Int("warnings", len(summary.Warnings)),
	)
	return summary, nil
}

func (s *Scheduler) fillSlot(r *run, dest routing.Destination, slot routing.Slot, day time.Time, theme []string) error {
	s.setPhase(PhasePlanning)
	r.summary.SlotsRequested++
	at := slot.On(day)
	dayKey := day.Format("2006-01-02")

	if r.occupied[dest.ID][at.UTC()] {
		r.summary.SlotsAlreadyFilled++
		r.logger.Debug("slot already filled",
			logging.String(logging.FieldDestinationID, dest.ID),
			logging.String("day", dayKey),
			logging.String("slot", slot.String()),
		)
		return nil
	}

	item, relax, ok := s.selectCandidate(r, dest, at, theme)
	if !ok {
		r.summary.Shortfalls = append(r.summary.Shortfalls, Shortfall{
			Day:           dayKey,
			DestinationID: dest.ID,
			Slot:          slot.String(),
			Reason:        "no content available",
		})
		logging.WarnWithContext(r.logger, "no content available", "schedule_shortfall",
			logging.String(logging.FieldDestinationID, dest.ID),
			logging.String("day", dayKey),
			logging.String("slot", slot.String()),
			logging.String(logging.FieldErrorHint, "add catalog content or shorten the lookback window"),
			logging.String(logging.FieldImpact, "slot left empty"),
		)
		return nil
	}
	if relax != RelaxNone {
		r.summary.Relaxed[relax]++
	}
	r.mix.record(item.Type)
	r.logger.Debug("candidate selected", logging.Args(append(
		logging.DecisionAttrs("slot_candidate", item.ID, "relax="+relax),
		logging.String(logging.FieldDestinationID, dest.ID),
		logging.String(logging.FieldContentType, string(item.Type)),
		logging.Time("slot_time", at),
	)...)...)

	s.setPhase(PhaseRouting)
	group := s.eligibleGroup(r, item, dest, at)
	postings := s.spreader.Spread(item, group, at)

	s.setPhase(PhasePersisting)
	filled := false
	for _, p := range postings {
		r.consume(p.DestinationID, item.Key())
		if s.policy.DeferBeyondHorizon && !p.ScheduledTime.Before(r.end) {
			r.summary.Deferred = append(r.summary.Deferred, p)
			r.logger.Info("posting deferred beyond horizon",
				logging.String(logging.FieldDestinationID, p.DestinationID),
				logging.String(logging.FieldContentID, p.ContentID),
				logging.Time("scheduled_time", p.ScheduledTime),
			)
			continue
		}
		stored, err := s.queue.Enqueue(p)
		if err != nil {
			var verr *queue.ValidationError
			if !errors.As(err, &verr) {
				return fmt.Errorf("enqueue posting for %s: %w", p.DestinationID, err)
			}
			r.summary.Rejections = append(r.summary.Rejections, Rejection{
				DestinationID: p.DestinationID,
				ContentID:     p.ContentID,
				ScheduledTime: p.ScheduledTime,
				Reason:        verr.Reason,
			})
			logging.WarnWithContext(r.logger, "posting rejected", "queue_validation",
				logging.String(logging.FieldDestinationID, p.DestinationID),
				logging.String(logging.FieldContentID, p.ContentID),
				logging.Error(err),
				logging.String(logging.FieldImpact, "posting skipped"),
			)
			continue
		}
		r.occupy(stored.DestinationID, stored.ScheduledTime)
		r.summary.Postings = append(r.summary.Postings, stored)
		r.summary.ByType[stored.ContentType]++
		filled = true
	}
	if filled {
		r.summary.SlotsFilled++
	}
	return nil
}

// eligibleGroup routes item and keeps the destinations that may receive it:
// the slot's own destination plus every other accepting destination outside
// its lookback window that has not already consumed the item.
func (s *Scheduler) eligibleGroup(r *run, item content.Item, current routing.Destination, at time.Time) []routing.Destination {
	routed := s.router.Route(item)
	group := make([]routing.Destination, 0, len(routed))
	found := false
	for _, dest := range routed {
		if dest.ID == current.ID {
			found = true
			group = append(group, dest)
			continue
		}
		if r.isConsumed(dest.ID, item.Key()) {
			continue
		}
		if r.index.InLookback(dest.ID, item.Key(), at, s.policy.LookbackDays, s.loc) {
			continue
		}
		group = append(group, dest)
	}
	if !found {
		group = append(group, current)
	}
	return group
}

// selectCandidate applies the filters theme+type, then theme only, then none,
// and returns the least recently posted match, ties in catalog order.
func (s *Scheduler) selectCandidate(r *run, dest routing.Destination, at time.Time, theme []string) (content.Item, string, bool) {
	var pool []content.Item
	for _, item := range s.catalog.Items() {
		if !dest.Accepts(item) {
			continue
		}
		if r.isConsumed(dest.ID, item.Key()) {
			continue
		}
		if r.index.InLookback(dest.ID, item.Key(), at, s.policy.LookbackDays, s.loc) {
			continue
		}
		pool = append(pool, item)
	}
	if len(pool) == 0 {
		return content.Item{}, "", false
	}

	desired := r.mix.desired()
	levels := []struct {
		relax string
		match func(content.Item) bool
	}{
		{RelaxNone, func(it content.Item) bool { return matchesTheme(it, theme) && it.Type == desired }},
		{RelaxMix, func(it content.Item) bool { return matchesTheme(it, theme) }},
		{RelaxTheme, func(content.Item) bool { return true }},
	}
	for _, level := range levels {
		best, ok := s.leastRecentlyPosted(r, dest.ID, pool, level.match)
		if ok {
			return best, level.relax, true
		}
	}
	return content.Item{}, "", false
}

func (s *Scheduler) leastRecentlyPosted(r *run, destinationID string, pool []content.Item, match func(content.Item) bool) (content.Item, bool) {
	var (
		best     content.Item
		bestTime time.Time
		bestPos  int
		found    bool
	)
	for _, item := range pool {
		if !match(item) {
			continue
		}
		last, _ := r.index.LastPosted(destinationID, item.Key())
		pos := r.positions[item.Key()]
		if !found || last.Before(bestTime) || (last.Equal(bestTime) && pos < bestPos) {
			best, bestTime, bestPos, found = item, last, pos, true
		}
	}
	return best, found
}

// matchesTheme reports whether the item category contains any theme term, so
// "mathematics" matches "pure-mathematics/number-theory". An empty theme
// matches everything.
func matchesTheme(item content.Item, theme []string) bool {
	if len(theme) == 0 {
		return true
	}
	category := strings.ToLower(item.Category)
	for _, term := range theme {
		if term = content.NormalizeKeyword(term); term != "" && strings.Contains(category, term) {
			return true
		}
	}
	return false
}
