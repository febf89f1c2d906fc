/*
Copyright © 2026 JACOB ARTHURS
*/
package cmd

import (
	"fmt"

	"github.com/jacobarthurs/plantree/internal/profile"

	"github.com/go-kit/log/level"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create config file with example template",
	Long: `Create the plantree config file (profiles.yaml in the user config directory)
with a commented template.

The config holds parse settings such as the input size limit and default output
format, plus named database connection profiles for SQL input. If a config file
already exists, it will not be overwritten unless --force is given.`,
	Example: `  # Create default config
  plantree init

  # Overwrite existing config
  plantree init --force`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")

		path, err := profile.WriteTemplate(force)
		if err != nil {
			return err
		}
		level.Debug(logger).Log("msg", "wrote config template", "path", path, "force", force)

		fmt.Fprintf(cmd.OutOrStdout(), "Config written to %s\n", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolP("force", "f", false, "Overwrite existing config file")
}
