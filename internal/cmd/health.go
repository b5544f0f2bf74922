package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"wondoner-github/pkg/github"
)

var healthConfigPath string

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check GitHub credential and API reachability",
	RunE:  runHealth,
}

func init() {
	healthCmd.Flags().StringVarP(&healthConfigPath, "config", "c", "", "path to the configuration file")
	rootCmd.AddCommand(healthCmd)
}

func runHealth(cmd *cobra.Command, _ []string) error {
	cfg, _, err := loadConfig(healthConfigPath)
	if err != nil {
		return err
	}

	auth := github.NewAuthManager()
	token, err := auth.ResolveToken(cfg.GitHub.Token)
	if err != nil {
		return err
	}

	if _, err := auth.Authenticate(token, nil); err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	info, err := auth.ValidateToken(ctx)
	if err != nil {
		color.Red("✗ GitHub API check failed")
		return err
	}

	color.Green("✓ authenticated as %s", info.Login)
	if len(info.Scopes) > 0 {
		fmt.Printf("  token scopes: %v\n", info.Scopes)
	}
	return nil
}
