package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"reportengine/internal/artifact"
	"reportengine/internal/codec"
	"reportengine/internal/scenario"
	"reportengine/internal/store"
)

func exportCmd() *cobra.Command {
	var format string
	var savedID int64
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the current draft or a saved scenario",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, codec.Format(format), savedID, out)
		},
	}
	cmd.Flags().StringVar(&format, "format", "json", "Output format: json, yaml, or toml")
	cmd.Flags().Int64Var(&savedID, "saved", 0, "Saved scenario id (default: current draft)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write to this file, or - for stdout (default: artifact store)")
	return cmd
}

func runExport(cmd *cobra.Command, format codec.Format, savedID int64, out string) error {
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

	s, err := loadScenario(ctx, db, savedID)
	if err != nil {
		return err
	}
	art, err := codec.ExportFormat(s, time.Now(), cfg.AppVersion, format)
	if err != nil {
		return err
	}

	switch out {
	case "-":
		_, err := cmd.OutOrStdout().Write(art.Body)
		return err
	case "":
		sink, err := artifact.Open(ctx, cfg.Artifacts)
		if err != nil {
			return err
		}
		info, err := sink.Put(ctx, art)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %s\n", info.Location)
		return nil
	default:
		if err := os.WriteFile(out, art.Body, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", out, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %s\n", out)
		return nil
	}
}

// loadScenario reads a saved scenario, or the autosave draft when id is 0.
// A missing draft is an empty scenario.
func loadScenario(ctx context.Context, db store.Store, id int64) (scenario.Scenario, error) {
	var (
		rec *store.ScenarioRecord
		err error
	)
	if id == 0 {
		rec, err = db.LatestAutosave(ctx)
		if errors.Is(err, store.ErrNotFound) {
			return scenario.Scenario{}, nil
		}
	} else {
		rec, err = db.GetScenario(ctx, id)
	}
	if err != nil {
		return scenario.Scenario{}, err
	}
	return codec.Decode(rec.Content)
}
