package cmd

import (
	"github.com/spf13/cobra"

	"reportplane/internal/report"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one report-generation cycle synchronously",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		e, err := setup(ctx)
		if err != nil {
			return err
		}
		defer e.cleanup()

		runner := report.New(e.cfg, e.ws, e.tools, e.bundle, nil, e.log)
		if err := runner.Run(ctx); err != nil {
			return err
		}
		cmd.Println("Report generated.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
