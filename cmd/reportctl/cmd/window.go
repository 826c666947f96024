package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"reportplane/internal/window"
)

var (
	windowYearly    bool
	windowQuarterly bool
)

var windowCmd = &cobra.Command{
	Use:   "window",
	Short: "Print the report window a run would use right now",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		win := window.Compute(time.Now(), windowYearly, windowQuarterly)
		kind := "monthly"
		switch {
		case windowYearly:
			kind = "yearly"
		case windowQuarterly:
			kind = "quarterly"
		}
		cmd.Printf("%s window: %s .. %s\n", kind, win.StartDate(), win.EndDate())
	},
}

func init() {
	windowCmd.Flags().BoolVar(&windowYearly, "yearly", false, "year-to-date window")
	windowCmd.Flags().BoolVar(&windowQuarterly, "quarterly", false, "current calendar quarter window")
	rootCmd.AddCommand(windowCmd)
}
