package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"reportengine/internal/artifact"
	"reportengine/internal/editor"
)

// Program is an alias for tea.Program, exposed so callers don't need
// to import bubbletea directly.
type Program = tea.Program

// NewProgram creates a program on the alternate screen buffer.
func NewProgram(ws *editor.Workspace, sink artifact.Sink, copyFn func(string) error, opts ...tea.ProgramOption) *Program {
	allOpts := []tea.ProgramOption{
		tea.WithAltScreen(),
	}
	allOpts = append(allOpts, opts...)
	return tea.NewProgram(NewModel(ws, sink, copyFn), allOpts...)
}
