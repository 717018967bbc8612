// Package cmd implements the CLI commands for vintedbot.
package cmd

import (
	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	demoMode bool
)

var rootCmd = &cobra.Command{
	Use:   "vintedbot",
	Short: "Watch Vinted searches and announce new listings on Discord",
	Long: "A Discord bot that periodically polls Vinted for saved searches, " +
		"filters out already-seen listings, and notifies owners about new " +
		"ones while staying under the site's request limits.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "config file path")
	rootCmd.AddCommand(versionCommand())
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
