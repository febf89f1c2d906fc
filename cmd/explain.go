/*
Copyright © 2026 JACOB ARTHURS
*/
package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jacobarthurs/plantree/internal/input"
	"github.com/jacobarthurs/plantree/internal/output"
	"github.com/jacobarthurs/plantree/internal/profile"

	"github.com/spf13/cobra"
)

var explainCmd = &cobra.Command{
	Use:   "explain [sql-file]",
	Short: "Run EXPLAIN ANALYZE for a query and parse the result",
	Long: `Run EXPLAIN (ANALYZE, VERBOSE, BUFFERS) for a query and parse the report.

The statement runs inside a transaction that is always rolled back.
Use "-" or no file to read the query from stdin. With --raw the report is
printed as the server returned it, ready to save for a later compare.`,
	Example: `  # Parse the plan of a query
  plantree explain query.sql --profile prod

  # Save a raw JSON report
  plantree explain query.sql --db "postgres://localhost/app" --json --raw > before.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, _ := cmd.Flags().GetString("db")
		profileName, _ := cmd.Flags().GetString("profile")
		jsonExplain, _ := cmd.Flags().GetBool("json")
		raw, _ := cmd.Flags().GetBool("raw")
		name, _ := cmd.Flags().GetString("name")
		showInput, _ := cmd.Flags().GetBool("show-input")

		settings, err := profile.LoadSettings()
		if err != nil {
			return err
		}
		format, err := outputFormat(cmd, settings)
		if err != nil {
			return err
		}

		connStr, err := profile.ResolveConnStr(db, profileName)
		if err != nil {
			return err
		}
		if connStr == "" {
			return fmt.Errorf("explain requires a database connection (--db, --profile or a default profile)")
		}

		file := "-"
		if len(args) > 0 {
			file = args[0]
		}
		var data []byte
		if file == "-" {
			data, err = io.ReadAll(os.Stdin)
		} else {
			data, err = os.ReadFile(file)
		}
		if err != nil {
			return err
		}
		if input.Detect(data, file) != input.KindSQL {
			return fmt.Errorf("%s does not look like a SQL query", file)
		}

		query := strings.TrimSpace(string(data))
		report, err := input.Execute(cmd.Context(), connStr, query, jsonExplain)
		if err != nil {
			return err
		}
		if raw {
			_, err = fmt.Fprintln(os.Stdout, report)
			return err
		}

		p, err := parseReport(report, name, query, "", settings, showInput)
		if err != nil {
			return err
		}
		if format == "json" {
			return output.RenderJSON(os.Stdout, p)
		}
		return output.RenderPlanText(os.Stdout, p)
	},
}

func init() {
	rootCmd.AddCommand(explainCmd)
	explainCmd.Flags().StringP("db", "d", "", "PostgreSQL connection string")
	explainCmd.Flags().StringP("profile", "p", "", "Use named profile from config")
	explainCmd.Flags().StringP("format", "f", "", "Output format: text, json (default from config, else text)")
	explainCmd.Flags().StringP("name", "n", "", "Plan name (default from config, else the creation date)")
	explainCmd.Flags().Bool("json", false, "Run EXPLAIN with FORMAT JSON")
	explainCmd.Flags().Bool("raw", false, "Print the report without parsing it")
	explainCmd.Flags().Bool("show-input", false, "Print the cleaned-up report to stderr when parsing fails")
	explainCmd.MarkFlagsMutuallyExclusive("db", "profile")
}
