package main

import (
	"encoding/json"
	"fmt"
	"papersum/internal/auth"
	"papersum/internal/config"

	"github.com/spf13/cobra"
)

func usersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Inspect the mock user store",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Print every user without passwords",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			log := newLogger(cmd.ErrOrStderr(), cfg)

			repo, closeStore, err := openUserStore(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer closeStore()

			svc, err := auth.NewService(ctx, repo, log)
			if err != nil {
				return err
			}

			b, err := json.MarshalIndent(svc.Users(), "", "  ")
			if err != nil {
				return fmt.Errorf("marshal users: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(b))

			return nil
		},
	})

	return cmd
}
