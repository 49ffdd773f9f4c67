package store

import (
	"context"
	"errors"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrProtected = errors.New("record is protected")
)

type Store interface {
	Close(ctx context.Context) error
	EnsureSchema(ctx context.Context) error

	UpsertAutosave(ctx context.Context, content []byte, name string) (*ScenarioRecord, error)
	LatestAutosave(ctx context.Context) (*ScenarioRecord, error)
	PromoteToAutosave(ctx context.Context, id int64, name string) (*ScenarioRecord, error)
	SaveScenario(ctx context.Context, name string, content []byte) (int64, error)
	ListSaved(ctx context.Context) ([]ScenarioSummary, error)
	GetScenario(ctx context.Context, id int64) (*ScenarioRecord, error)
	DeleteScenario(ctx context.Context, id int64) error

	ListPrompts(ctx context.Context) ([]Prompt, error)
	GetPrompt(ctx context.Context, id string) (*Prompt, error)
	UpsertPrompt(ctx context.Context, p PromptInput) error
	DeletePrompt(ctx context.Context, id string) error
	GetPromptHashes(ctx context.Context) (map[string]string, error)
	RemoveStalePrompts(ctx context.Context, currentSourceFiles []string) (int64, error)
}
