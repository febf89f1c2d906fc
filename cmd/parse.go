/*
Copyright © 2026 JACOB ARTHURS
*/
package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/jacobarthurs/plantree/internal/input"
	"github.com/jacobarthurs/plantree/internal/output"
	"github.com/jacobarthurs/plantree/internal/parser"
	"github.com/jacobarthurs/plantree/internal/plan"
	"github.com/jacobarthurs/plantree/internal/profile"

	"github.com/spf13/cobra"
)

var parseCmd = &cobra.Command{
	Use:   "parse [file]",
	Short: "Parse a single query plan",
	Long: `Parse EXPLAIN output into a plan tree and report its statistics.

Input can be a plan (text or JSON, as printed by psql or DuckDB) or a SQL file.
Use "-" to read from stdin. If no file is provided, enters interactive mode.

For SQL input, a database connection is required to run EXPLAIN (ANALYZE, VERBOSE, BUFFERS).`,
	Example: `  # Parse from file
  plantree parse plan.txt

  # Run a query through a saved profile
  plantree parse query.sql --profile prod

  # Read from stdin, emit json
  psql -XqAt -c "EXPLAIN (ANALYZE, FORMAT JSON) SELECT 1" | plantree parse - -f json

  # Interactive mode
  plantree parse`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := profile.LoadSettings()
		if err != nil {
			return err
		}

		format, err := outputFormat(cmd, settings)
		if err != nil {
			return err
		}

		var file string
		if len(args) > 0 {
			file = args[0]
		}

		p, err := parseInput(cmd, file, "", settings)
		if err != nil {
			return err
		}

		switch format {
		case "json":
			return output.RenderJSON(os.Stdout, p)
		default:
			return output.RenderPlanText(os.Stdout, p)
		}
	},
}

func outputFormat(cmd *cobra.Command, settings profile.Settings) (string, error) {
	format, _ := cmd.Flags().GetString("format")
	if format == "" {
		format = settings.Format
	}
	if format != "text" && format != "json" {
		return "", fmt.Errorf("invalid output format %q: must be \"text\" or \"json\"", format)
	}
	return format, nil
}

// parseInput resolves, reads and parses one plan using the shared input
// flags. label distinguishes the two sides of a comparison.
func parseInput(cmd *cobra.Command, file, label string, settings profile.Settings) (*plan.Plan, error) {
	db, _ := cmd.Flags().GetString("db")
	profileName, _ := cmd.Flags().GetString("profile")
	jsonExplain, _ := cmd.Flags().GetBool("explain-json")
	name, _ := cmd.Flags().GetString("name")
	queryFile, _ := cmd.Flags().GetString("query-file")
	showInput, _ := cmd.Flags().GetBool("show-input")

	connStr, err := profile.ResolveConnStr(db, profileName)
	if err != nil {
		return nil, err
	}

	report, err := input.Resolve(cmd.Context(), file, input.Options{
		DBConn:   connStr,
		MaxBytes: settings.MaxInputBytes,
		JSON:     jsonExplain,
		Label:    label,
	})
	if err != nil {
		return nil, err
	}

	query := report.Query
	if queryFile != "" {
		data, err := os.ReadFile(queryFile)
		if err != nil {
			return nil, fmt.Errorf("reading query file: %w", err)
		}
		query = string(data)
	}

	return parseReport(report.Source, name, query, label, settings, showInput)
}

func parseReport(source, name, query, label string, settings profile.Settings, showInput bool) (*plan.Plan, error) {
	if name == "" {
		name = settings.PlanName
	}

	p, err := parser.New(parser.WithLogger(logger)).ParsePlan(name, source, query)
	if err == nil {
		return p, nil
	}

	if showInput {
		fmt.Fprintf(os.Stderr, "--- %sinput after cleanup ---\n%s\n---\n", label, parser.Cleanup(source))
	}
	if errors.Is(err, plan.ErrMalformedPlan) {
		if !showInput {
			return nil, fmt.Errorf("could not parse %splan (rerun with --show-input to see what was read): %w", label, err)
		}
		return nil, fmt.Errorf("could not parse %splan: %w", label, err)
	}
	return nil, err
}

func addInputFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("db", "d", "", "PostgreSQL connection string")
	cmd.Flags().StringP("profile", "p", "", "Use named profile from config")
	cmd.Flags().StringP("format", "f", "", "Output format: text, json (default from config, else text)")
	cmd.Flags().Bool("explain-json", false, "Run EXPLAIN with FORMAT JSON for SQL input")
	cmd.Flags().StringP("name", "n", "", "Plan name (default from config, else the creation date)")
	cmd.Flags().Bool("show-input", false, "Print the cleaned-up input to stderr when parsing fails")
	cmd.MarkFlagsMutuallyExclusive("db", "profile")
}

func init() {
	rootCmd.AddCommand(parseCmd)
	addInputFlags(parseCmd)
	parseCmd.Flags().StringP("query-file", "q", "", "File holding the query to attach when the plan does not carry one")
}
