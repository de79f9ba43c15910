package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"cadence/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect the posting history",
	}
	historyCmd.AddCommand(newHistoryListCommand(ctx))
	return historyCmd
}

func newHistoryListCommand(ctx *commandContext) *cobra.Command {
	var destination string
	var outcome string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent posting outcomes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			query := history.Query{DestinationID: strings.TrimSpace(destination), Limit: limit}
			if strings.TrimSpace(outcome) != "" {
				parsed, ok := history.ParseOutcome(outcome)
				if !ok {
					return fmt.Errorf("unknown outcome %q", outcome)
				}
				query.Outcome = parsed
			}
			return ctx.withHistory(cfg, func(store *history.Store) error {
				records, err := store.Records(cmd.Context(), query)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					if records == nil {
						records = []history.Record{}
					}
					return writeJSON(cmd, records)
				}
				out := cmd.OutOrStdout()
				if len(records) == 0 {
					fmt.Fprintln(out, "History is empty")
					return nil
				}
				loc := cfg.Location()
				rows := make([][]string, 0, len(records))
				for _, r := range records {
					rows = append(rows, []string{
						formatTime(r.Timestamp, loc),
						r.DestinationID,
						string(r.ContentType) + ":" + r.ContentID,
						string(r.Outcome),
						r.RemotePostID,
						r.Error,
					})
				}
				fmt.Fprint(out, renderTable([]string{"Time", "Destination", "Content", "Outcome", "Remote ID", "Error"}, rows, nil))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&destination, "destination", "d", "", "Filter by destination id")
	cmd.Flags().StringVar(&outcome, "outcome", "", "Filter by outcome (posted or failed)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum records to show (0 for all)")
	return cmd
}
