package main

import (
	"context"
	"fmt"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"reportengine/internal/clock"
	"reportengine/internal/scenario"
	"reportengine/internal/service"
)

func generateCmd() *cobra.Command {
	var promptID string
	var savedID int64
	var file string
	var copyOut bool
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Compose an AI prompt from a scenario",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, promptID, savedID, file, copyOut)
		},
	}
	cmd.Flags().StringVarP(&promptID, "prompt", "p", "narrative", "Prompt style id")
	cmd.Flags().Int64Var(&savedID, "saved", 0, "Saved scenario id (default: current draft)")
	cmd.Flags().StringVarP(&file, "file", "f", "", "Read the scenario from an exported file")
	cmd.Flags().BoolVar(&copyOut, "copy", false, "Copy the prompt to the clipboard")
	return cmd
}

func runGenerate(cmd *cobra.Command, promptID string, savedID int64, file string, copyOut bool) error {
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

	if _, err := syncPrompts(ctx, cfg, db, false); err != nil {
		return err
	}

	var s scenario.Scenario
	if file != "" {
		s, err = scenarioFromArgs([]string{file}, 0)
	} else {
		s, err = loadScenario(ctx, db, savedID)
	}
	if err != nil {
		return err
	}

	svc := service.New(db, clock.Real(), newLogger())
	text, err := svc.Generate(ctx, promptID, s)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), text)

	if copyOut {
		if err := clipboard.WriteAll(text); err != nil {
			return fmt.Errorf("copying to clipboard: %w", err)
		}
		fmt.Fprintln(cmd.ErrOrStderr(), "Copied!")
	}
	return nil
}
