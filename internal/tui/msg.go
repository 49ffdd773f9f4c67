package tui

import (
	"time"

	"reportengine/internal/api"
)

// MsgTick refreshes the autosave indicator.
type MsgTick struct {
	Time time.Time
}

type msgPrompts struct {
	prompts []api.Prompt
	err     error
}

type msgGenerated struct {
	text string
	err  error
}

type msgSaved struct {
	name string
	err  error
}

type msgExported struct {
	location string
	err      error
}

type msgCopied struct {
	err error
}
