package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"cadence/internal/config"
	"cadence/internal/history"
	"cadence/internal/publish"
	"cadence/internal/queue"
)

func newPublishCommand(ctx *commandContext) *cobra.Command {
	var within time.Duration

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Publish due postings with the dry-run publisher",
		Long: "Publish hands every pending posting due now or within the window to the\n" +
			"dry-run publisher, marks it posted or failed and appends the outcome to the\n" +
			"posting history. Failed postings wait for `cadence queue reschedule`.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLockedQueue(cmd, func(cfg *config.Config, logger *slog.Logger, m *queue.Manager) error {
				window := within
				if !cmd.Flags().Changed("within") {
					window = cfg.DueWindow()
				}
				return ctx.withHistory(cfg, func(store *history.Store) error {
					runner, err := publish.NewRunner(publish.Options{
						Queue:     m,
						History:   store,
						Publisher: publish.NewDryRunPublisher(logger),
						Logger:    logger,
					})
					if err != nil {
						return err
					}
					report, err := runner.RunDue(cmd.Context(), clock(), window)
					if err != nil {
						return err
					}
					if ctx.jsonOutput() {
						return writeJSON(cmd, report)
					}
					out := cmd.OutOrStdout()
					fmt.Fprintf(out, "Published %d of %d due postings (%d failed, %d skipped)\n",
						report.Posted, report.Attempted, report.Failed, report.Skipped)
					if len(report.Outcomes) == 0 {
						return nil
					}
					rows := make([][]string, 0, len(report.Outcomes))
					for _, o := range report.Outcomes {
						status := string(o.Status)
						if o.Skipped {
							status = "skipped"
						}
						rows = append(rows, []string{shortID(o.PostingID), o.DestinationID, o.ContentID, status, o.RemotePostID, o.Error})
					}
					fmt.Fprint(out, renderTable([]string{"ID", "Destination", "Content", "Result", "Remote ID", "Error"}, rows, nil))
					return nil
				})
			})
		},
	}
	cmd.Flags().DurationVar(&within, "within", 0, "Look-ahead window (default schedule.due_window_minutes)")
	return cmd
}
