// Package service implements the editor's persistence, prompt catalog, and
// generator collaborators on top of a store.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/google/uuid"

	"reportengine/internal/api"
	"reportengine/internal/clock"
	"reportengine/internal/editor"
	"reportengine/internal/prompt"
	"reportengine/internal/scenario"
	"reportengine/internal/store"
)

const (
	autosaveNameLayout = "Jan 02, 15:04"
	customPromptPrefix = "custom-"
)

var (
	ErrMissingName    = errors.New("missing name")
	ErrMissingContent = errors.New("missing content")
)

var (
	_ editor.Persistence   = (*Service)(nil)
	_ editor.PromptCatalog = (*Prompts)(nil)
	_ editor.Generator     = (*Service)(nil)
)

type Service struct {
	store  store.Store
	clock  clock.Clock
	logger *log.Logger
}

func New(st store.Store, clk clock.Clock, logger *log.Logger) *Service {
	if clk == nil {
		clk = clock.Real()
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{store: st, clock: clk, logger: logger}
}

// Session returns the latest autosave, or an empty draft named
// "New Scenario" when nothing has been autosaved yet.
func (s *Service) Session(ctx context.Context) (api.Session, error) {
	rec, err := s.store.LatestAutosave(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return api.Session{Name: editor.DefaultSessionName}, nil
	}
	if err != nil {
		return api.Session{}, fmt.Errorf("loading session: %w", err)
	}
	return api.Session{Name: rec.Name, Content: json.RawMessage(rec.Content)}, nil
}

func (s *Service) Autosave(ctx context.Context, sc scenario.Scenario) (api.AutosaveResponse, error) {
	content, err := encodeScenario(sc)
	if err != nil {
		return api.AutosaveResponse{}, err
	}
	name := "Auto-save @ " + s.clock.Now().UTC().Format(autosaveNameLayout)
	rec, err := s.store.UpsertAutosave(ctx, content, name)
	if err != nil {
		return api.AutosaveResponse{}, fmt.Errorf("autosaving: %w", err)
	}
	return api.AutosaveResponse{Status: api.StatusSuccess, Name: rec.Name}, nil
}

func (s *Service) Save(ctx context.Context, name string, sc scenario.Scenario) (api.SaveResponse, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return api.SaveResponse{}, ErrMissingName
	}
	content, err := encodeScenario(sc)
	if err != nil {
		return api.SaveResponse{}, err
	}
	id, err := s.store.SaveScenario(ctx, name, content)
	if err != nil {
		return api.SaveResponse{}, fmt.Errorf("saving %q: %w", name, err)
	}
	s.logger.Printf("saved scenario %d %q", id, name)
	return api.SaveResponse{Status: api.StatusSuccess, ID: id}, nil
}

// List returns named saves, newest first. The autosave slot is excluded.
func (s *Service) List(ctx context.Context) ([]api.SavedScenario, error) {
	summaries, err := s.store.ListSaved(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing saved scenarios: %w", err)
	}
	out := make([]api.SavedScenario, 0, len(summaries))
	for _, sum := range summaries {
		out = append(out, api.SavedScenario{
			ID:          sum.ID,
			Name:        sum.Name,
			LastUpdated: sum.LastUpdated.UTC().Format(api.LastUpdatedLayout),
		})
	}
	return out, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.store.DeleteScenario(ctx, id); err != nil {
		return fmt.Errorf("deleting scenario %d: %w", id, err)
	}
	s.logger.Printf("deleted scenario %d", id)
	return nil
}

// Open copies a saved scenario into the autosave slot, renamed
// "Editing: <name>", and returns it as the new session.
func (s *Service) Open(ctx context.Context, id int64) (api.Session, error) {
	saved, err := s.store.GetScenario(ctx, id)
	if err != nil {
		return api.Session{}, fmt.Errorf("opening scenario %d: %w", id, err)
	}
	if saved.IsAutosave {
		return api.Session{Name: saved.Name, Content: json.RawMessage(saved.Content)}, nil
	}
	rec, err := s.store.PromoteToAutosave(ctx, id, editor.EditingPrefix+saved.Name)
	if err != nil {
		return api.Session{}, fmt.Errorf("opening scenario %d: %w", id, err)
	}
	return api.Session{Name: rec.Name, Content: json.RawMessage(rec.Content)}, nil
}

// Generate composes a prompt for the scenario. Unknown prompt ids fall back
// to a generic summary instruction.
func (s *Service) Generate(ctx context.Context, promptID string, sc scenario.Scenario) (string, error) {
	instruction := prompt.FallbackInstruction
	p, err := s.store.GetPrompt(ctx, promptID)
	switch {
	case err == nil:
		instruction = p.Instruction
	case errors.Is(err, store.ErrNotFound):
		s.logger.Printf("unknown prompt %q, using fallback instruction", promptID)
	default:
		return "", fmt.Errorf("generating prompt: %w", err)
	}
	sc.Normalize()
	return prompt.Compose(instruction, sc), nil
}

// Prompts returns the prompt catalog view of the service.
func (s *Service) Prompts() *Prompts {
	return &Prompts{svc: s}
}

type Prompts struct {
	svc *Service
}

func (p *Prompts) List(ctx context.Context) ([]api.Prompt, error) {
	items, err := p.svc.store.ListPrompts(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing prompts: %w", err)
	}
	out := make([]api.Prompt, 0, len(items))
	for _, item := range items {
		out = append(out, api.Prompt{
			ID:          item.ID,
			Name:        item.Name,
			Instruction: item.Instruction,
			IsDeletable: !item.Builtin,
		})
	}
	return out, nil
}

func (p *Prompts) Add(ctx context.Context, name, instruction string) (api.Prompt, error) {
	name = strings.TrimSpace(name)
	instruction = strings.TrimSpace(instruction)
	if name == "" {
		return api.Prompt{}, ErrMissingName
	}
	if instruction == "" {
		return api.Prompt{}, ErrMissingContent
	}
	id := customPromptPrefix + uuid.NewString()
	err := p.svc.store.UpsertPrompt(ctx, store.PromptInput{ID: id, Name: name, Instruction: instruction})
	if err != nil {
		return api.Prompt{}, fmt.Errorf("adding prompt %q: %w", name, err)
	}
	p.svc.logger.Printf("added prompt %s %q", id, name)
	return api.Prompt{ID: id, Name: name, Instruction: instruction, IsDeletable: true}, nil
}

func (p *Prompts) Delete(ctx context.Context, id string) error {
	if err := p.svc.store.DeletePrompt(ctx, id); err != nil {
		return fmt.Errorf("deleting prompt %s: %w", id, err)
	}
	p.svc.logger.Printf("deleted prompt %s", id)
	return nil
}

func encodeScenario(sc scenario.Scenario) ([]byte, error) {
	sc.Normalize()
	content, err := json.Marshal(sc)
	if err != nil {
		return nil, fmt.Errorf("encoding scenario: %w", err)
	}
	return content, nil
}
