package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"reportengine/internal/artifact"
	"reportengine/internal/client"
	"reportengine/internal/clock"
	"reportengine/internal/editor"
	"reportengine/internal/tui"
)

func tuiCmd() *cobra.Command {
	var remote bool
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Edit the current scenario in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(remote)
		},
	}
	cmd.Flags().BoolVar(&remote, "remote", false, "Talk to the HTTP API at server.base_url instead of the database")
	return cmd
}

func runTUI(remote bool) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger()

	var ws *editor.Workspace
	if remote {
		baseURL := cfg.Server.BaseURL
		if strings.TrimSpace(baseURL) == "" {
			baseURL = "http://" + cfg.Server.Addr
		}
		api := client.New(baseURL, nil)
		ws = editor.New(editor.Options{
			Persistence:       api,
			Prompts:           api.Prompts(),
			Generator:         api,
			Clock:             clock.Real(),
			QuietPeriod:       cfg.Editor.QuietPeriod,
			IndicatorDuration: cfg.Editor.IndicatorDuration,
			AppVersion:        cfg.AppVersion,
			Logger:            logger,
		})
		session, err := api.Session(ctx)
		if err != nil {
			ws.Close()
			return fmt.Errorf("loading session from %s: %w", baseURL, err)
		}
		if err := ws.LoadSession(session); err != nil {
			logger.Printf("loading session: %v", err)
		}
	} else {
		db, err := openDB(ctx, cfg)
		if err != nil {
			return err
		}
		defer db.Close(ctx)
		if _, err := syncPrompts(ctx, cfg, db, false); err != nil {
			return err
		}
		ws, _, err = openWorkspace(ctx, cfg, db, logger)
		if err != nil {
			return err
		}
	}
	defer ws.Close()

	sink, err := artifact.Open(ctx, cfg.Artifacts)
	if err != nil {
		return err
	}

	program := tui.NewProgram(ws, sink, clipboard.WriteAll)
	_, runErr := program.Run()
	if err := ws.Flush(ctx); err != nil {
		logger.Printf("final autosave: %v", err)
	}
	return runErr
}
