package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"cadence/internal/history"
	"cadence/internal/logging"
	"cadence/internal/preflight"
	"cadence/internal/queue"
)

// Options configures a Runner.
type Options struct {
	Queue     *queue.Manager
	History   history.Log
	Publisher Publisher
	Logger    *slog.Logger
}

// Runner drives the publishing pass over due postings.
type Runner struct {
	queue     *queue.Manager
	history   history.Log
	publisher Publisher
	logger    *slog.Logger
}

// Outcome describes what happened to one due posting.
type Outcome struct {
	PostingID     string       `json:"posting_id"`
	DestinationID string       `json:"destination_id"`
	ContentID     string       `json:"content_id"`
	Status        queue.Status `json:"status"`
	RemotePostID  string       `json:"remote_post_id,omitempty"`
	Error         string       `json:"error,omitempty"`
	Skipped       bool         `json:"skipped,omitempty"`
}

// Report summarizes a RunDue pass.
type Report struct {
	Attempted int       `json:"attempted"`
	Posted    int       `json:"posted"`
	Failed    int       `json:"failed"`
	Skipped   int       `json:"skipped"`
	Outcomes  []Outcome `json:"outcomes"`
}

// NewRunner validates opts and builds a Runner.
func NewRunner(opts Options) (*Runner, error) {
	if opts.Queue == nil {
		return nil, errors.New("publish runner: queue is required")
	}
	if opts.History == nil {
		return nil, errors.New("publish runner: history is required")
	}
	if opts.Publisher == nil {
		return nil, errors.New("publish runner: publisher is required")
	}
	return &Runner{
		queue:     opts.Queue,
		history:   opts.History,
		publisher: opts.Publisher,
		logger:    logging.NewComponentLogger(opts.Logger, "publish"),
	}, nil
}

// RunDue publishes every pending posting scheduled at or before now+within,
// overdue ones included. Persistence and history errors stop the pass; a
// posting that vanished or changed state underneath the runner is skipped.
func (r *Runner) RunDue(ctx context.Context, now time.Time, within time.Duration) (*Report, error) {
	logger := logging.WithContext(ctx, r.logger)
	if err := r.queue.Reload(); err != nil {
		return nil, fmt.Errorf("reload queue: %w", err)
	}
	due := r.queue.DueWithin(within, now)
	report := &Report{Outcomes: make([]Outcome, 0, len(due))}
	logger.Info("publishing pass started",
		logging.Int("due", len(due)),
		logging.Duration("window", within),
	)

	for _, posting := range due {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Attempted++
		outcome, err := r.publishOne(ctx, logger, posting, now)
		if err != nil {
			return report, err
		}
		switch {
		case outcome.Skipped:
			report.Skipped++
		case outcome.Status == queue.StatusPosted:
			report.Posted++
		case outcome.Status == queue.StatusFailed:
			report.Failed++
		}
		report.Outcomes = append(report.Outcomes, outcome)
	}

	logger.Info("publishing pass finished",
		logging.Int("attempted", report.Attempted),
		logging.Int("posted", report.Posted),
		logging.Int("failed", report.Failed),
		logging.Int("skipped", report.Skipped),
	)
	return report, nil
}

func (r *Runner) publishOne(ctx context.Context, logger *slog.Logger, posting queue.Posting, now time.Time) (Outcome, error) {
	outcome := Outcome{
		PostingID:     posting.ID,
		DestinationID: posting.DestinationID,
		ContentID:     posting.ContentID,
	}
	attrs := []logging.Attr{
		logging.String(logging.FieldPostingID, posting.ID),
		logging.String(logging.FieldDestinationID, posting.DestinationID),
		logging.String(logging.FieldContentID, posting.ContentID),
	}

	var result Result
	if reason := r.preflight(logger, posting, attrs); reason != "" {
		result.Error = reason
	} else if res, err := r.publisher.Publish(ctx, posting); err != nil {
		result.Error = err.Error()
	} else {
		result = res
	}
	if !result.Success && strings.TrimSpace(result.Error) == "" {
		result.Error = "publisher reported failure"
	}

	record := history.Record{
		DestinationID: posting.DestinationID,
		ContentID:     posting.ContentID,
		ContentType:   posting.ContentType,
		PostingID:     posting.ID,
		Timestamp:     now,
	}

	if result.Success {
		updated, changed, err := r.queue.MarkPosted(posting.ID, result.RemotePostID, now)
		if err != nil {
			return r.skip(logger, outcome, err, attrs)
		}
		outcome.Status = updated.Status
		outcome.RemotePostID = updated.RemotePostID
		if !changed {
			outcome.Skipped = true
			return outcome, nil
		}
		record.Outcome = history.OutcomePosted
		record.RemotePostID = result.RemotePostID
		if _, err := r.history.Append(ctx, record); err != nil {
			return outcome, fmt.Errorf("append history for %s: %w", posting.ID, err)
		}
		logger.Info("posting published", logging.Args(append(attrs, logging.String("remote_post_id", result.RemotePostID))...)...)
		return outcome, nil
	}

	updated, err := r.queue.MarkFailed(posting.ID, result.Error)
	if err != nil {
		return r.skip(logger, outcome, err, attrs)
	}
	outcome.Status = updated.Status
	outcome.Error = updated.LastError
	record.Outcome = history.OutcomeFailed
	record.Error = updated.LastError
	if _, err := r.history.Append(ctx, record); err != nil {
		return outcome, fmt.Errorf("append history for %s: %w", posting.ID, err)
	}
	logging.WarnWithContext(logger, "posting failed", "publish_failed", append(attrs,
		logging.String("reason", updated.LastError),
		logging.String(logging.FieldErrorHint, "inspect the error and reschedule the posting"),
		logging.String(logging.FieldImpact, "posting stays failed until rescheduled"),
	)...)
	return outcome, nil
}

// preflight returns the failure reason when a blocking check fails. Warnings
// are logged and publishing goes ahead.
func (r *Runner) preflight(logger *slog.Logger, posting queue.Posting, attrs []logging.Attr) string {
	blocking, warnings := preflight.Failures(preflight.CheckPosting(posting))
	for _, w := range warnings {
		logging.WarnWithContext(logger, "preflight warning", "publish_preflight_warning", append(attrs,
			logging.String("check", w),
			logging.String(logging.FieldImpact, "posting published anyway"),
		)...)
	}
	if len(blocking) > 0 {
		return "preflight: " + strings.Join(blocking, "; ")
	}
	return ""
}

func (r *Runner) skip(logger *slog.Logger, outcome Outcome, err error, attrs []logging.Attr) (Outcome, error) {
	var perr *queue.PersistenceError
	if errors.As(err, &perr) {
		return outcome, fmt.Errorf("update posting %s: %w", outcome.PostingID, err)
	}
	logging.WarnWithContext(logger, "posting skipped", "publish_skipped", append(attrs,
		logging.String("error_kind", queue.KindOf(err)),
		logging.Error(err),
	)...)
	outcome.Skipped = true
	outcome.Error = err.Error()
	return outcome, nil
}
