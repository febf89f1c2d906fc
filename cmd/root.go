/*
Copyright © 2026 JACOB ARTHURS
*/
package cmd

import (
	"context"
	"os"
	"os/signal"
	"runtime/debug"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/spf13/cobra"
)

var Version = "dev"

var logger = log.NewNopLogger()

func init() {
	if Version == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "(devel)" {
			Version = info.Main.Version
		}
	}
	rootCmd.Version = Version
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log parser decisions to stderr")
}

var rootCmd = &cobra.Command{
	Use:          "plantree",
	SilenceUsage: true,
	Short:        "Parse and compare database EXPLAIN plans",
	Long: `plantree is a CLI tool for turning EXPLAIN output into a normalized plan tree.

It reads PostgreSQL text or JSON plans, psql-formatted output (borders, "+"
continuations, quoted JSON) and DuckDB JSON profiles, and reports the tree
with per-plan statistics.`,
	Example: `  # Parse a saved plan
  plantree parse plan.txt

  # Run a query and parse its plan
  plantree parse query.sql --profile prod

  # Compare two plans
  plantree compare old.json new.txt

  # Write a starter config
  plantree init`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		verbose, _ := cmd.Flags().GetBool("verbose")
		logger = newLogger(verbose)
	},
}

func newLogger(verbose bool) log.Logger {
	l := log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
	l = log.With(l, "ts", log.DefaultTimestampUTC, "caller", log.DefaultCaller)
	if verbose {
		return level.NewFilter(l, level.AllowDebug())
	}
	return level.NewFilter(l, level.AllowInfo())
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		stop()
		os.Exit(1)
	}
}
