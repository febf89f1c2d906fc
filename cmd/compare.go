/*
Copyright © 2026 JACOB ARTHURS
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/jacobarthurs/plantree/internal/compare"
	"github.com/jacobarthurs/plantree/internal/output"
	"github.com/jacobarthurs/plantree/internal/profile"

	"github.com/spf13/cobra"
)

var compareCmd = &cobra.Command{
	Use:   "compare [file1] [file2]",
	Short: "Compare two query plans",
	Long: `Compare two parsed plans node by node.

Inputs can be plans (text or JSON) or SQL files, and don't need to be the same type.
Either file (but not both) can be "-" to read from stdin.
If a file is missing, its plan is pasted interactively.

For SQL input, a database connection is required to run EXPLAIN (ANALYZE, VERBOSE, BUFFERS).`,
	Example: `  # Compare two saved plans
  plantree compare old.json new.txt

  # Mix input types
  plantree compare prod-plan.json new-query.sql --profile dev

  # Read one plan from stdin
  cat old.txt | plantree compare - new.txt

  # Emit json, flag changes above 5%
  plantree compare old.txt new.txt -f json --threshold 5`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		threshold, _ := cmd.Flags().GetFloat64("threshold")

		settings, err := profile.LoadSettings()
		if err != nil {
			return err
		}

		format, err := outputFormat(cmd, settings)
		if err != nil {
			return err
		}

		files := make([]string, 2)
		copy(files, args)
		if files[0] == "-" && files[1] == "-" {
			return fmt.Errorf("only one input can be read from stdin")
		}

		oldPlan, err := parseInput(cmd, files[0], "old ", settings)
		if err != nil {
			return err
		}
		newPlan, err := parseInput(cmd, files[1], "new ", settings)
		if err != nil {
			return err
		}

		c := compare.Comparator{Threshold: threshold}
		result := c.Compare(oldPlan, newPlan)

		switch format {
		case "json":
			return output.RenderJSON(os.Stdout, result)
		default:
			return output.RenderComparisonText(os.Stdout, result)
		}
	},
}

func init() {
	rootCmd.AddCommand(compareCmd)
	addInputFlags(compareCmd)
	compareCmd.Flags().Float64P("threshold", "t", compare.SignificanceThresholdPct, "Percent change below which a metric counts as unchanged")
}
