// Package main is the entry point for the chron CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/flemzord/chron/internal/config"
	"github.com/flemzord/chron/pkg/app"
)

// Set by goreleaser ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "chron <chronfile.toml>",
		Short:         "A personal job supervisor: startup loops and cron schedules",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(_ *cobra.Command, args []string) error {
			return app.Run(app.RunParams{ConfigPath: args[0]})
		},
	}
	root.AddCommand(versionCmd(), checkCmd(), serviceCmd())
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("chron %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}
}

func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <chronfile.toml>",
		Short: "Validate a chronfile without starting anything",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			cfg, err := config.Load(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Configuration OK (%d startup, %d scheduled jobs)\n",
				len(cfg.Startup), len(cfg.Schedule))
			return nil
		},
	}
}
