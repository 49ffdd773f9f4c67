package editor

import (
	"context"
	"errors"
	"fmt"

	"reportengine/internal/api"
	"reportengine/internal/scenario"
)

type Persistence interface {
	Autosave(ctx context.Context, s scenario.Scenario) (api.AutosaveResponse, error)
	Save(ctx context.Context, name string, s scenario.Scenario) (api.SaveResponse, error)
	List(ctx context.Context) ([]api.SavedScenario, error)
	Delete(ctx context.Context, id int64) error
	Open(ctx context.Context, id int64) (api.Session, error)
}

type PromptCatalog interface {
	List(ctx context.Context) ([]api.Prompt, error)
	Add(ctx context.Context, name, instruction string) (api.Prompt, error)
	Delete(ctx context.Context, id string) error
}

type Generator interface {
	Generate(ctx context.Context, promptID string, s scenario.Scenario) (string, error)
}

var (
	ErrNotConfirmed  = errors.New("destructive operation requires confirmation")
	ErrUnknownBlock  = errors.New("unknown event block")
	ErrNotConfigured = errors.New("collaborator not configured")
	ErrUnknownOption = errors.New("value is not an available option")
)

// NetworkError wraps a failed call to a persistence, catalog, or generator
// collaborator.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }
