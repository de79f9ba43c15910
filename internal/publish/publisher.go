package publish

import (
	"context"
	"fmt"
	"log/slog"

	"cadence/internal/logging"
	"cadence/internal/queue"
	"cadence/internal/textutil"
)

// Result is what a publisher reports for one posting.
type Result struct {
	Success      bool
	RemotePostID string
	Error        string
}

// Publisher delivers one rendered posting to its destination.
type Publisher interface {
	Publish(ctx context.Context, posting queue.Posting) (Result, error)
}

// PublisherFunc adapts a function to the Publisher interface.
type PublisherFunc func(ctx context.Context, posting queue.Posting) (Result, error)

// Publish calls f.
func (f PublisherFunc) Publish(ctx context.Context, posting queue.Posting) (Result, error) {
	return f(ctx, posting)
}

// DryRunPublisher logs postings instead of sending them and reports a
// synthetic remote id derived from the posting id.
type DryRunPublisher struct {
	logger *slog.Logger
}

// NewDryRunPublisher builds a DryRunPublisher.
func NewDryRunPublisher(logger *slog.Logger) *DryRunPublisher {
	return &DryRunPublisher{logger: logging.NewComponentLogger(logger, "publisher")}
}

// Publish implements Publisher.
func (d *DryRunPublisher) Publish(ctx context.Context, posting queue.Posting) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	remoteID := DryRunRemoteID(posting)
	d.logger.Info("dry-run publish",
		logging.String(logging.FieldPostingID, posting.ID),
		logging.String(logging.FieldDestinationID, posting.DestinationID),
		logging.String(logging.FieldContentID, posting.ContentID),
		logging.Int("text_length", len(posting.Text)),
		logging.Int("hashtags", len(posting.Hashtags)),
		logging.String("remote_post_id", remoteID),
	)
	return Result{Success: true, RemotePostID: remoteID}, nil
}

// DryRunRemoteID returns the remote id DryRunPublisher reports for posting.
func DryRunRemoteID(posting queue.Posting) string {
	short := posting.ID
	if len(short) > 8 {
		short = short[:8]
	}
	return fmt.Sprintf("dryrun-%s-%s", textutil.SanitizeToken(posting.DestinationID), textutil.SanitizeToken(short))
}
