package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"reportengine/internal/clock"
	"reportengine/internal/service"
)

func promptsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List prompt styles",
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

			prompts, err := service.New(db, clock.Real(), newLogger()).Prompts().List(ctx)
			if err != nil {
				return err
			}
			if len(prompts) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No prompts found. Run `reportengine prompts sync`.")
				return nil
			}
			for _, p := range prompts {
				kind := "built-in"
				if p.IsDeletable {
					kind = "custom"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s (%s)\n", p.ID, p.Name, kind)
			}
			return nil
		},
	}
}
