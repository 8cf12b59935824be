package cmd

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"cyberquest/internal/config"
	"cyberquest/internal/store"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show local training statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		applyFlags(cmd, cfg)

		st, err := store.Open(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("open telemetry store: %w", err)
		}
		defer st.Close()

		t, err := st.Totals(cmd.Context())
		if err != nil {
			return fmt.Errorf("read totals: %w", err)
		}

		fmt.Printf("Flags submitted:  %d (%d accepted)\n", t.Answers, t.Correct)
		fmt.Printf("Hints purchased:  %d\n", t.Hints)
		fmt.Printf("Lab transitions:  %d\n", t.LabActions)
		fmt.Printf("Chat turns:       %d\n", t.ChatTurns)
		return nil
	},
}
