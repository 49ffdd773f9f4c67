package store

import "time"

// ScenarioRecord is one stored scenario document. At most one record is the
// autosave slot; it never shows up in the saved list.
type ScenarioRecord struct {
	ID          int64
	Name        string
	Content     []byte
	IsAutosave  bool
	LastUpdated time.Time
}

type ScenarioSummary struct {
	ID          int64
	Name        string
	LastUpdated time.Time
}

// PromptInput describes a prompt style. Builtin prompts come from files in
// the prompts directory and carry their source path and content hash.
type PromptInput struct {
	ID          string
	Name        string
	Instruction string
	Builtin     bool
	Position    int
	SourceFile  string
	SourceHash  string
}

type Prompt struct {
	ID          string
	Name        string
	Instruction string
	Builtin     bool
	Position    int
	SourceFile  string
	SourceHash  string
	CreatedAt   time.Time
}
