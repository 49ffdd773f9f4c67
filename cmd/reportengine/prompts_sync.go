package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"reportengine/internal/catalog"
	"reportengine/internal/config"
	"reportengine/internal/store"
)

func promptsSyncCmd() *cobra.Command {
	var full bool
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Synchronise built-in prompt styles with the prompt files",
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

			result, err := syncPrompts(ctx, cfg, db, full)
			if err != nil {
				return err
			}
			return printSyncResult(cmd.OutOrStdout(), result)
		},
	}
	cmd.Flags().BoolVar(&full, "full", false, "Re-read every file, ignoring stored hashes")
	return cmd
}

// syncPrompts loads built-in prompts from the configured directory, or from
// the shipped defaults when the directory does not exist.
func syncPrompts(ctx context.Context, cfg *config.Config, db store.Store, full bool) (*catalog.Result, error) {
	src := catalog.Defaults()
	if info, err := os.Stat(cfg.Prompts.Dir); err == nil && info.IsDir() {
		src = catalog.Dir(cfg.Prompts.Dir)
	}
	return catalog.Sync(ctx, db, src, catalog.Options{Full: full})
}

func printSyncResult(out io.Writer, result *catalog.Result) error {
	fmt.Fprintln(out, "Prompt sync complete.")
	fmt.Fprintf(out, "  Prompts upserted: %d\n", result.PromptsUpserted)
	fmt.Fprintf(out, "  Prompts removed:  %d\n", result.PromptsRemoved)
	fmt.Fprintf(out, "  Files skipped:    %d\n", result.FilesSkipped)

	if len(result.Errors) > 0 {
		fmt.Fprintf(out, "\nErrors (%d):\n", len(result.Errors))
		for _, item := range result.Errors {
			fmt.Fprintf(out, "  - %v\n", item)
		}
		return fmt.Errorf("prompt sync completed with errors")
	}
	return nil
}
