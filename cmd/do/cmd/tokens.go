package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/templui/goaltracker/internal/app"
	"github.com/templui/goaltracker/internal/config"
	"github.com/templui/goaltracker/internal/logger"
	"github.com/templui/goaltracker/internal/worker"
)

func TokensCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tokens",
		Short: "Manage e-mail verification and password reset tokens",
	}

	var enqueue bool
	cleanup := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete used and expired tokens past the retention window",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			logger.Init(cfg.IsDevelopment(), cfg.SentryDSN)
			defer logger.Flush()

			if enqueue {
				return enqueueTask(cfg, worker.NewTokenCleanupTask())
			}

			a, err := app.New(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := a.AuthService.CleanupTokens(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("deleted=%d\n", n)
			return nil
		},
	}
	cleanup.Flags().BoolVar(&enqueue, "enqueue", false, "hand the run to the worker instead of deleting inline")

	cmd.AddCommand(cleanup)
	return cmd
}
