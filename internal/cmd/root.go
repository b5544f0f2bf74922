package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "wondoner-github",
	Short: "Wondoner GitHub Issues sync plugin",
	Long: `wondoner-github synchronizes tasks between a Wondoner task store and
GitHub Issues. It runs bidirectional sync cycles per repository: remote
changes are pulled into the local task store, dirty local edits are
pushed back, and true double-edits surface as conflicts instead of
silently losing data.`,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
