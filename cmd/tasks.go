package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"cyberquest/internal/backend"
	"cyberquest/internal/catalog"
	"cyberquest/internal/config"
	"cyberquest/internal/identity"
)

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "List the available training tasks",
	RunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		applyFlags(cmd, cfg)

		clientCfg := backend.DefaultConfig()
		clientCfg.BaseURL = cfg.BackendURL
		clientCfg.Logger = zap.NewNop()
		client := backend.New(clientCfg, identity.NewSessionID())

		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()

		tasks, err := client.ListTasks(ctx)
		source := "backend"
		if err != nil {
			tasks = catalog.Seed().Tasks
			source = "built-in fallback (backend unreachable)"
		}

		fmt.Printf("Tasks from %s:\n\n", source)
		for _, t := range tasks {
			state := " "
			switch {
			case t.Completed:
				state = "✔"
			case t.Locked:
				state = "🔒"
			}
			fmt.Printf("  %s %2d  %-24s +%dxp +%dc\n",
				state, t.ID, t.Title, t.Reward.XP, t.Reward.Coins)
		}
		return nil
	},
}
