// Package main is the entry point for reportctl, the operator CLI.
// It drives the same workflows as the daemon (one-off report runs,
// credential provisioning, historical backfills) without the scheduler or
// the server supervisor.
package main

import (
	"os"

	"reportplane/cmd/reportctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
