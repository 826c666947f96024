package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"reportplane/pkg/status"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Query a running daemon's status endpoint",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		url := viper.GetString("url")

		client := &http.Client{Timeout: 10 * time.Second}
		resp, err := client.Get(url + "/status")
		if err != nil {
			return fmt.Errorf("request failed: %w", err)
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("daemon returned %d: %s", resp.StatusCode, string(body))
		}

		var st status.Response
		if err := json.Unmarshal(body, &st); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}

		cmd.Printf("Project:    %s\n", st.Project)
		cmd.Printf("Warehouse:  %s\n", st.Warehouse)
		cmd.Printf("Uptime:     %ds\n", st.UptimeSeconds)
		if st.LastRunAt != nil {
			cmd.Printf("Last run:   %s\n", st.LastRunAt.Format(time.RFC3339))
		}
		if st.LastRunError != "" {
			cmd.Printf("Last error: %s\n", st.LastRunError)
		}
		if st.NextRunAt != nil {
			cmd.Printf("Next run:   %s\n", st.NextRunAt.Format(time.RFC3339))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
