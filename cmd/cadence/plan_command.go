package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cadence/internal/history"
	"cadence/internal/routing"
	"cadence/internal/runlock"
	"cadence/internal/schedule"
	"cadence/internal/spread"
)

func newPlanCommand(ctx *commandContext) *cobra.Command {
	var startFlag string
	var days int

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Fill destination slots for the planning horizon",
		Long: "Plan selects content for every destination slot from the start day through the\n" +
			"horizon, spreads each pick across matching destinations and writes the postings\n" +
			"to the queue. Slots that already hold a posting are left alone.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger(cmd)
			if err != nil {
				return err
			}
			loc := cfg.Location()
			start, err := parseDay(startFlag, clock(), loc)
			if err != nil {
				return err
			}
			if days <= 0 {
				days = cfg.Schedule.HorizonDays
			}

			lock, err := runlock.Acquire(cfg.Paths.LockFile)
			if err != nil {
				return err
			}
			defer lock.Release()

			catalog, err := loadCatalog(cfg, logger)
			if err != nil {
				return err
			}
			destinations, err := routing.DestinationsFromConfig(cfg.Destinations)
			if err != nil {
				return err
			}
			manager, err := ctx.openQueue(cfg, logger)
			if err != nil {
				return err
			}

			return ctx.withHistory(cfg, func(store *history.Store) error {
				spreader := spread.NewHandler(spread.Options{
					MinGapDays: cfg.Schedule.MinGapDays,
					Picker:     spread.PickerFor(cfg.Schedule.PhraseSelection, uint64(clock().UnixNano())),
					Logger:     logger,
				})
				scheduler, err := schedule.New(schedule.Options{
					Catalog:  catalog,
					Router:   routing.NewRouter(destinations),
					Spreader: spreader,
					Queue:    manager,
					History:  store,
					Policy:   schedule.PolicyFromConfig(cfg),
					Location: loc,
					Logger:   logger,
				})
				if err != nil {
					return err
				}
				summary, err := scheduler.GenerateWeeklySchedule(cmd.Context(), start, days)
				if err != nil {
					if summary != nil {
						fmt.Fprint(cmd.ErrOrStderr(), summary.String())
					}
					return err
				}

				if ctx.jsonOutput() {
					return writeJSON(cmd, summary)
				}
				out := cmd.OutOrStdout()
				fmt.Fprint(out, heading(out, fmt.Sprintf("Plan %s (%d days)", start.Format("2006-01-02"), days)))
				fmt.Fprint(out, summary.String())
				if len(summary.Postings) > 0 {
					fmt.Fprintln(out)
					fmt.Fprint(out, postingTable(summary.Postings, loc))
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&startFlag, "start", "", "First day to plan (YYYY-MM-DD, today or tomorrow; default today)")
	cmd.Flags().IntVar(&days, "days", 0, "Number of days to plan (default schedule.horizon_days)")
	return cmd
}
