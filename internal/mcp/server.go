package mcp

import (
	"context"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"reportengine/internal/artifact"
	"reportengine/internal/editor"
)

// Server exposes one editing workspace as MCP tools, so an assistant can
// build a scenario and ask for the generated prompt.
type Server struct {
	ws   *editor.Workspace
	sink artifact.Sink
	mcp  *sdk.Server
}

// NewServer registers the tools. sink may be nil, in which case exports
// are returned inline only.
func NewServer(ws *editor.Workspace, sink artifact.Sink, version string) *Server {
	s := &Server{
		ws:   ws,
		sink: sink,
		mcp: sdk.NewServer(&sdk.Implementation{
			Name:    "reportengine",
			Version: version,
		}, nil),
	}
	s.registerTools()
	return s
}

func (s *Server) Run(ctx context.Context, transport sdk.Transport) error {
	return s.mcp.Run(ctx, transport)
}
