package cmd

import (
	"github.com/spf13/cobra"

	"reportplane/internal/config"
	"reportplane/internal/logger"
)

var provisionCmd = &cobra.Command{
	Use:   "provision",
	Short: "Materialize warehouse credentials without running anything",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		slogger, cleanup := logger.New(logger.Options{Dir: cfg.LogsDir, Debug: cfg.Debug})
		defer cleanup()

		bundle, err := provisionCredentials(ctx, cfg, slogger)
		if err != nil {
			return err
		}
		cmd.Printf("Provisioned %s credentials (%d files written)\n", bundle.Kind, len(bundle.Files))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(provisionCmd)
}
