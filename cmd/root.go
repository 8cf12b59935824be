package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "cyberquest",
	Short: "Gamified cybersecurity training in the terminal",
	Long:  "CyberQuest is a terminal client for hands-on security training: spin up vulnerable labs, capture flags, and ask the Archmage when you are stuck.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPlay(cmd)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("backend", "", "Backend base URL (overrides CYBERQUEST_BACKEND_URL)")
	rootCmd.PersistentFlags().String("db", "", "Path to the local SQLite telemetry file (overrides CYBERQUEST_DB)")

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(tasksCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(demoCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(updateCmd)
}
