package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"reportengine/internal/clock"
	"reportengine/internal/service"
)

func promptsAddCmd() *cobra.Command {
	var instruction string
	var file string
	cmd := &cobra.Command{
		Use:   "add NAME",
		Short: "Add a custom prompt style",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if file != "" {
				data, err := os.ReadFile(file)
				if err != nil {
					return fmt.Errorf("reading %s: %w", file, err)
				}
				instruction = string(data)
			}
			if strings.TrimSpace(instruction) == "" {
				return fmt.Errorf("--instruction or --file is required")
			}

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

			p, err := service.New(db, clock.Real(), newLogger()).Prompts().Add(ctx, args[0], instruction)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s\n", p.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&instruction, "instruction", "", "Instruction text")
	cmd.Flags().StringVar(&file, "file", "", "Read the instruction from a file")
	return cmd
}
