package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"reportengine/internal/codec"
)

func importCmd() *cobra.Command {
	var format string
	var saveAs string
	var yes bool
	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Replace the current draft with an exported scenario",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, args[0], format, saveAs, yes)
		},
	}
	cmd.Flags().StringVar(&format, "format", "", "Input format (default: from the file extension)")
	cmd.Flags().StringVar(&saveAs, "save-as", "", "Also save the imported scenario under this name")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm replacing the current draft")
	return cmd
}

func runImport(cmd *cobra.Command, path, format string, saveAs string, yes bool) error {
	if !yes {
		return fmt.Errorf("importing replaces the current draft; pass --yes to confirm")
	}
	ctx := context.Background()

	f := codec.Format(format)
	if f == "" {
		detected, err := codec.FormatFromPath(path)
		if err != nil {
			return err
		}
		f = detected
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := openDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close(ctx)

	ws, _, err := openWorkspace(ctx, cfg, db, newLogger())
	if err != nil {
		return err
	}
	defer ws.Close()

	if err := ws.Import(raw, f, filepath.Base(path), true); err != nil {
		return err
	}
	if err := ws.Flush(ctx); err != nil {
		return err
	}

	snap := ws.Snapshot()
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d entities, %d locations, %d events.\n",
		len(snap.Entities), len(snap.Locations), len(snap.Events))

	if saveAs != "" {
		resp, err := ws.Save(ctx, saveAs)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved as %q (id %d).\n", saveAs, resp.ID)
	}
	return nil
}
