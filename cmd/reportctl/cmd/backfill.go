package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"reportplane/internal/backfill"
)

var (
	backfillStart string
	backfillEnd   string
)

var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Replay the transformation job once per day across a date range",
	Long: `Backfill replays the transformation tool for every calendar day in the
inclusive [start, end] range, each run scoped to the backfill model selector
with a midnight-to-midnight window injected as variables.

The range comes from --start/--end, or from BACKFILL_START_DATE and
BACKFILL_END_DATE when the flags are omitted (the container entrypoint path).

A mid-range failure aborts the whole run. Days already replayed are not
skipped on a re-run; the transformation job is assumed idempotent per day.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		e, err := setup(ctx)
		if err != nil {
			return err
		}
		defer e.cleanup()

		startStr, endStr := backfillStart, backfillEnd
		if startStr == "" {
			startStr = e.cfg.BackfillStart
		}
		if endStr == "" {
			endStr = e.cfg.BackfillEnd
		}
		if startStr == "" || endStr == "" {
			return fmt.Errorf("backfill requires --start and --end (or BACKFILL_START_DATE / BACKFILL_END_DATE)")
		}

		start, end, err := backfill.ParseRange(startStr, endStr)
		if err != nil {
			return err
		}

		runner := backfill.New(e.cfg, e.tools, e.bundle, nil, e.log)
		if err := runner.Run(ctx, start, end); err != nil {
			return err
		}
		cmd.Printf("Backfill complete: %s through %s\n", startStr, endStr)
		return nil
	},
}

func init() {
	backfillCmd.Flags().StringVar(&backfillStart, "start", "", "inclusive start date (YYYY-MM-DD)")
	backfillCmd.Flags().StringVar(&backfillEnd, "end", "", "inclusive end date (YYYY-MM-DD)")
	rootCmd.AddCommand(backfillCmd)
}
