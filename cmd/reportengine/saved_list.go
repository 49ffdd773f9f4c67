package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"reportengine/internal/clock"
	"reportengine/internal/service"
)

func savedListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved scenarios, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := openDB(ctx, cfg)
			if err != nil {
				return err
			}
			defer db.Close(ctx)

			items, err := service.New(db, clock.Real(), newLogger()).List(ctx)
			if err != nil {
				return err
			}
			if len(items) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No saved scenarios.")
				return nil
			}
			for _, item := range items {
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%s\n", item.ID, item.Name, item.LastUpdated)
			}
			return nil
		},
	}
}
