package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "reportctl",
	Short: "Reportctl is the operator CLI for the reportplane daemon",
	Long: `reportctl drives the reportplane workflows by hand: one-off report
generation, credential provisioning, historical backfills, and status
queries against a running daemon.

The daemon itself (cmd/orchestrator) runs the same workflows on a schedule;
reportctl exists for operators, migrations, and debugging.

Common workflows:

  Run one report cycle synchronously:
    reportctl run

  Replay the transformation job across a date range:
    reportctl backfill --start 2024-01-01 --end 2024-01-31

  Inspect the window a report run would use:
    reportctl window --quarterly

  Materialize warehouse credentials only:
    reportctl provision

  Query a running daemon:
    reportctl status --url http://localhost:8086

Configuration comes from the same environment variables the daemon reads
(REPO_URL, PROJECT_NAME, WAREHOUSE, CREDENTIAL_SOURCE, ...); flags noted
above are CLI-only conveniences.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		// Search config in home directory with name ".reportctl"
		viper.AddConfigPath(home)
		viper.SetConfigName(".reportctl")
		viper.SetConfigType("yaml")
	}

	// Read environment variables that match "REPORTPLANE_VARNAME"
	viper.SetEnvPrefix("REPORTPLANE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Println("Using config file:", viper.ConfigFileUsed())
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.reportctl.yaml)")

	rootCmd.PersistentFlags().String("url", "http://localhost:8086", "Daemon side-port URL")
	viper.BindPFlag("url", rootCmd.PersistentFlags().Lookup("url"))
}
