package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "0.1.0"
	commit  = "dev"
	date    = "unknown"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "pinmap",
		Short: "pinmap - map-pinned popup overlays",
		Long: `pinmap keeps popups visually pinned to geographic coordinates on a
pannable, zoomable map surface. The serve command streams popup placement
to connected clients over WebSocket; the demo command drives a local map
in the terminal.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	}

	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newDemoCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
