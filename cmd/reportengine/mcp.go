package main

import (
	"context"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"reportengine/internal/artifact"
	"reportengine/internal/mcp"
)

func mcpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP server over stdio",
		RunE:  runMCP,
	}
}

func runMCP(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger()

	db, err := openDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close(ctx)

	if _, err := syncPrompts(ctx, cfg, db, false); err != nil {
		return err
	}

	ws, _, err := openWorkspace(ctx, cfg, db, logger)
	if err != nil {
		return err
	}
	defer ws.Close()
	defer ws.Flush(ctx)

	sink, err := artifact.Open(ctx, cfg.Artifacts)
	if err != nil {
		return err
	}

	server := mcp.NewServer(ws, sink, version)
	return server.Run(ctx, &sdk.StdioTransport{})
}
