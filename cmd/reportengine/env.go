package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"reportengine/internal/clock"
	"reportengine/internal/config"
	"reportengine/internal/editor"
	"reportengine/internal/service"
	"reportengine/internal/store"
	"reportengine/internal/store/postgres"
	"reportengine/internal/store/sqlite"
)

var (
	configPath string
	verbose    bool
)

func loadConfig() (*config.Config, error) {
	return config.Load(configPath)
}

func newLogger() *log.Logger {
	if !verbose {
		return log.New(io.Discard, "", 0)
	}
	return log.New(os.Stderr, "reportengine: ", log.LstdFlags)
}

// openDB picks the store driver from the DSN scheme and makes sure the
// schema exists.
func openDB(ctx context.Context, cfg *config.Config) (store.Store, error) {
	dsn := cfg.Database.DSN
	var (
		db  store.Store
		err error
	)
	switch {
	case strings.HasPrefix(dsn, "sqlite://"):
		db, err = sqlite.New(ctx, dsn)
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		db, err = postgres.New(ctx, dsn)
	default:
		return nil, fmt.Errorf("unsupported database dsn: %s", dsn)
	}
	if err != nil {
		return nil, err
	}
	if err := db.EnsureSchema(ctx); err != nil {
		db.Close(ctx)
		return nil, err
	}
	return db, nil
}

// openWorkspace loads the current draft into a workspace backed by the
// local store.
func openWorkspace(ctx context.Context, cfg *config.Config, db store.Store, logger *log.Logger) (*editor.Workspace, *service.Service, error) {
	svc := service.New(db, clock.Real(), logger)
	ws := editor.New(editor.Options{
		Persistence:       svc,
		Prompts:           svc.Prompts(),
		Generator:         svc,
		QuietPeriod:       cfg.Editor.QuietPeriod,
		IndicatorDuration: cfg.Editor.IndicatorDuration,
		AppVersion:        cfg.AppVersion,
		Logger:            logger,
	})
	session, err := svc.Session(ctx)
	if err != nil {
		ws.Close()
		return nil, nil, err
	}
	if err := ws.LoadSession(session); err != nil {
		logger.Printf("loading session: %v", err)
	}
	return ws, svc, nil
}
