package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var validateConfigPath string

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration file",
	Long: `Validate the configuration file without touching GitHub or the local
task store: repository references, conflict strategy, and sync tuning
values are checked.`,
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().StringVarP(&validateConfigPath, "config", "c", "", "path to the configuration file")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(_ *cobra.Command, _ []string) error {
	cfg, path, err := loadConfig(validateConfigPath)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		color.Red("✗ %s", path)
		return fmt.Errorf("invalid configuration: %w", err)
	}

	color.Green("✓ %s", path)
	fmt.Printf("  %d repositories configured\n", len(cfg.GitHub.Repositories))
	return nil
}
