package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"cadence/internal/config"
	"cadence/internal/content"
	"cadence/internal/history"
	"cadence/internal/queue"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and maintain the posting queue",
	}

	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueDayCommand(ctx))
	queueCmd.AddCommand(newQueueDueCommand(ctx))
	queueCmd.AddCommand(newQueueStatsCommand(ctx))
	queueCmd.AddCommand(newQueueValidateCommand(ctx))
	queueCmd.AddCommand(newQueueRescheduleCommand(ctx))
	queueCmd.AddCommand(newQueueMarkPostedCommand(ctx))
	queueCmd.AddCommand(newQueueMarkFailedCommand(ctx))
	queueCmd.AddCommand(newQueueRemoveCommand(ctx))
	queueCmd.AddCommand(newQueueBackupCommand(ctx))

	return queueCmd
}

func printPostings(ctx *commandContext, cmd *cobra.Command, postings []queue.Posting, loc *time.Location, empty string) error {
	if ctx.jsonOutput() {
		if postings == nil {
			postings = []queue.Posting{}
		}
		return writeJSON(cmd, postings)
	}
	if len(postings) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), empty)
		return nil
	}
	fmt.Fprint(cmd.OutOrStdout(), postingTable(postings, loc))
	return nil
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var statuses []string
	var destination string
	var contentID string
	var contentType string
	var group string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List postings",
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := parseStatuses(statuses)
			if err != nil {
				return err
			}
			var typ content.Type
			if strings.TrimSpace(contentType) != "" {
				var ok bool
				if typ, ok = content.ParseType(contentType); !ok {
					return fmt.Errorf("unknown content type %q (want one of %v)", contentType, content.AllTypes())
				}
			}
			return ctx.withQueue(cmd, func(cfg *config.Config, _ *slog.Logger, m *queue.Manager) error {
				postings := m.List(queue.Filter{
					Statuses:      parsed,
					DestinationID: strings.TrimSpace(destination),
					ContentID:     strings.TrimSpace(contentID),
					ContentType:   typ,
					GroupID:       strings.TrimSpace(group),
				})
				return printPostings(ctx, cmd, postings, cfg.Location(), "Queue is empty")
			})
		},
	}
	cmd.Flags().StringSliceVarP(&statuses, "status", "s", nil, "Filter by status (repeatable)")
	cmd.Flags().StringVarP(&destination, "destination", "d", "", "Filter by destination id")
	cmd.Flags().StringVar(&contentID, "content", "", "Filter by content id")
	cmd.Flags().StringVarP(&contentType, "type", "t", "", "Filter by content type (template or notebook)")
	cmd.Flags().StringVar(&group, "group", "", "Filter by duplicate group id")
	return cmd
}

func newQueueDayCommand(ctx *commandContext) *cobra.Command {
	var destination string

	cmd := &cobra.Command{
		Use:   "day [DATE]",
		Short: "Show postings on one calendar day",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withQueue(cmd, func(cfg *config.Config, _ *slog.Logger, m *queue.Manager) error {
				value := ""
				if len(args) == 1 {
					value = args[0]
				}
				day, err := parseDay(value, clock(), cfg.Location())
				if err != nil {
					return err
				}
				postings := m.Day(day, strings.TrimSpace(destination))
				return printPostings(ctx, cmd, postings, cfg.Location(), "No postings on "+day.Format(time.DateOnly))
			})
		},
	}
	cmd.Flags().StringVarP(&destination, "destination", "d", "", "Only show one destination")
	return cmd
}

func newQueueDueCommand(ctx *commandContext) *cobra.Command {
	var within time.Duration

	cmd := &cobra.Command{
		Use:   "due",
		Short: "Show pending postings due now or within the window",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withQueue(cmd, func(cfg *config.Config, _ *slog.Logger, m *queue.Manager) error {
				window := within
				if !cmd.Flags().Changed("within") {
					window = cfg.DueWindow()
				}
				return printPostings(ctx, cmd, m.DueWithin(window, clock()), cfg.Location(), "Nothing is due")
			})
		},
	}
	cmd.Flags().DurationVar(&within, "within", 0, "Look-ahead window (default schedule.due_window_minutes)")
	return cmd
}

func newQueueStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarize the queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withQueue(cmd, func(_ *config.Config, _ *slog.Logger, m *queue.Manager) error {
				stats := m.Statistics(clock())
				if ctx.jsonOutput() {
					return writeJSON(cmd, stats)
				}
				out := cmd.OutOrStdout()
				fmt.Fprint(out, heading(out, "Queue statistics"))
				fmt.Fprintf(out, "Total postings: %d\n", stats.Total)
				fmt.Fprintf(out, "Duplicates: %d in %d groups\n", stats.Duplicates, stats.DuplicateGroups)
				fmt.Fprintf(out, "Due within 24h: %d\n", stats.DueWithin24h)
				fmt.Fprintf(out, "Due within 7d: %d\n", stats.DueWithin7d)
				for _, section := range []struct {
					title  string
					counts map[string]int
				}{
					{"Status", stats.ByStatus},
					{"Destination", stats.ByDestination},
					{"Content type", stats.ByContentType},
				} {
					if len(section.counts) == 0 {
						continue
					}
					fmt.Fprintln(out)
					fmt.Fprint(out, renderTable([]string{section.title, "Count"}, countRows(section.counts), []columnAlignment{alignLeft, alignRight}))
				}
				return nil
			})
		},
	}
}

func countRows(counts map[string]int) [][]string {
	keys := make([]string, 0, len(counts))
	for key := range counts {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	rows := make([][]string, 0, len(keys))
	for _, key := range keys {
		rows = append(rows, []string{key, fmt.Sprintf("%d", counts[key])})
	}
	return rows
}

func newQueueValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check queue invariants and catalog references",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withQueue(cmd, func(cfg *config.Config, logger *slog.Logger, m *queue.Manager) error {
				catalog, err := loadCatalog(cfg, logger)
				if err != nil {
					return err
				}
				warnings := m.Validate(catalog.Contains)
				if ctx.jsonOutput() {
					if warnings == nil {
						warnings = []string{}
					}
					return writeJSON(cmd, map[string]any{"valid": len(warnings) == 0, "warnings": warnings})
				}
				out := cmd.OutOrStdout()
				if len(warnings) == 0 {
					fmt.Fprintln(out, "Queue valid")
					return nil
				}
				fmt.Fprintf(out, "%d warnings\n", len(warnings))
				for _, w := range warnings {
					fmt.Fprintf(out, "  %s\n", w)
				}
				return nil
			})
		},
	}
}

func newQueueRescheduleCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reschedule ID TIME",
		Short: "Move a pending or failed posting to a new time",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLockedQueue(cmd, func(cfg *config.Config, _ *slog.Logger, m *queue.Manager) error {
				at, err := parseTime(args[1], cfg.Location())
				if err != nil {
					return err
				}
				p, err := m.Reschedule(strings.TrimSpace(args[0]), at)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Posting %s rescheduled to %s\n", p.ID, formatTime(p.ScheduledTime, cfg.Location()))
				return nil
			})
		},
	}
}

func newQueueMarkPostedCommand(ctx *commandContext) *cobra.Command {
	var atFlag string

	cmd := &cobra.Command{
		Use:   "mark-posted ID REMOTE_POST_ID",
		Short: "Record that a posting was published outside cadence",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLockedQueue(cmd, func(cfg *config.Config, _ *slog.Logger, m *queue.Manager) error {
				at := clock()
				if strings.TrimSpace(atFlag) != "" {
					parsed, err := parseTime(atFlag, cfg.Location())
					if err != nil {
						return err
					}
					at = parsed
				}
				p, changed, err := m.MarkPosted(strings.TrimSpace(args[0]), strings.TrimSpace(args[1]), at)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if !changed {
					fmt.Fprintf(out, "Posting %s already marked posted\n", p.ID)
					return nil
				}
				if err := appendOutcome(cmd.Context(), cfg, p, history.OutcomePosted, at); err != nil {
					return err
				}
				fmt.Fprintf(out, "Posting %s marked posted as %s\n", p.ID, p.RemotePostID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&atFlag, "at", "", "Time the posting went out (default now)")
	return cmd
}

func newQueueMarkFailedCommand(ctx *commandContext) *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "mark-failed ID",
		Short: "Mark a pending posting as failed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(reason) == "" {
				return errors.New("--reason is required")
			}
			return ctx.withLockedQueue(cmd, func(cfg *config.Config, _ *slog.Logger, m *queue.Manager) error {
				p, err := m.MarkFailed(strings.TrimSpace(args[0]), reason)
				if err != nil {
					return err
				}
				if err := appendOutcome(cmd.Context(), cfg, p, history.OutcomeFailed, clock()); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Posting %s marked failed\n", p.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "", "Failure reason")
	return cmd
}

func appendOutcome(ctx context.Context, cfg *config.Config, p queue.Posting, outcome history.Outcome, at time.Time) error {
	store, err := history.Open(cfg.Paths.HistoryDB)
	if err != nil {
		return err
	}
	defer store.Close()
	_, err = store.Append(ctx, history.Record{
		DestinationID: p.DestinationID,
		ContentID:     p.ContentID,
		ContentType:   p.ContentType,
		PostingID:     p.ID,
		RemotePostID:  p.RemotePostID,
		Outcome:       outcome,
		Error:         p.LastError,
		Timestamp:     at,
	})
	if err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}

func newQueueRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove ID...",
		Short: "Remove postings regardless of status",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLockedQueue(cmd, func(_ *config.Config, _ *slog.Logger, m *queue.Manager) error {
				out := cmd.OutOrStdout()
				for _, id := range args {
					id = strings.TrimSpace(id)
					_, err := m.Remove(id)
					var notFound *queue.NotFoundError
					switch {
					case errors.As(err, &notFound):
						fmt.Fprintf(out, "Posting %s not found\n", id)
					case err != nil:
						return err
					default:
						fmt.Fprintf(out, "Posting %s removed\n", id)
					}
				}
				return nil
			})
		},
	}
}

func newQueueBackupCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "backup PATH",
		Short: "Copy the queue document to PATH",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			target, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			if err := queue.NewFileStore(cfg.Paths.QueueFile).Backup(target); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Queue backed up to %s\n", target)
			return nil
		},
	}
}
