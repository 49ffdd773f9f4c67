package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"reportengine/internal/clock"
	"reportengine/internal/codec"
	"reportengine/internal/editor"
	"reportengine/internal/prompt"
	"reportengine/internal/scenario"
	"reportengine/internal/store"
	"reportengine/internal/store/sqlite"
)

func newTestService(t *testing.T) (*Service, *clock.Manual) {
	t.Helper()
	ctx := context.Background()
	st, err := sqlite.New(ctx, "sqlite://:memory:")
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { st.Close(ctx) })
	if err := st.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	clk := clock.NewManual(time.Date(2024, 1, 2, 15, 4, 0, 0, time.UTC))
	return New(st, clk, nil), clk
}

func sample() scenario.Scenario {
	return scenario.Scenario{
		Entities:  []scenario.Entity{{Name: "Alice", Type: "person"}},
		Locations: []scenario.Location{{Name: "Cafe"}},
		Events:    []scenario.Event{{Who: []string{"Alice"}, What: "Meeting", When: "2024-01-01", Where: "Cafe"}},
	}
}

func TestSessionDefaultsToNewScenario(t *testing.T) {
	svc, _ := newTestService(t)
	session, err := svc.Session(context.Background())
	if err != nil {
		t.Fatalf("Session: %v", err)
	}
	if session.Name != editor.DefaultSessionName || len(session.Content) != 0 {
		t.Errorf("session = %+v", session)
	}
}

func TestAutosaveKeepsSlotName(t *testing.T) {
	ctx := context.Background()
	svc, clk := newTestService(t)

	resp, err := svc.Autosave(ctx, sample())
	if err != nil {
		t.Fatalf("Autosave: %v", err)
	}
	if resp.Name != "Auto-save @ Jan 02, 15:04" {
		t.Errorf("name = %q", resp.Name)
	}

	clk.Advance(time.Hour)
	resp, err = svc.Autosave(ctx, scenario.Scenario{})
	if err != nil {
		t.Fatalf("Autosave: %v", err)
	}
	if resp.Name != "Auto-save @ Jan 02, 15:04" {
		t.Errorf("slot renamed to %q", resp.Name)
	}

	session, err := svc.Session(ctx)
	if err != nil {
		t.Fatalf("Session: %v", err)
	}
	got, err := codec.Decode(session.Content)
	if err != nil {
		t.Fatalf("decoding session: %v", err)
	}
	if len(got.Entities) != 0 || len(got.Events) != 0 {
		t.Errorf("session content = %+v", got)
	}
}

func TestSaveListOpenDelete(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	if _, err := svc.Save(ctx, " ", sample()); !errors.Is(err, ErrMissingName) {
		t.Errorf("expected ErrMissingName, got %v", err)
	}
	saved, err := svc.Save(ctx, "Heist", sample())
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	items, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 1 || items[0].ID != saved.ID || items[0].Name != "Heist" {
		t.Fatalf("items = %+v", items)
	}
	if _, err := time.Parse("Jan 02, 2006 15:04 UTC", items[0].LastUpdated); err != nil {
		t.Errorf("last_updated %q: %v", items[0].LastUpdated, err)
	}

	session, err := svc.Open(ctx, saved.ID)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if session.Name != "Editing: Heist" {
		t.Errorf("session name = %q", session.Name)
	}
	current, err := svc.Session(ctx)
	if err != nil {
		t.Fatalf("Session: %v", err)
	}
	if current.Name != "Editing: Heist" {
		t.Errorf("autosave slot name = %q", current.Name)
	}

	// the autosave slot exists now but is never listed
	items, _ = svc.List(ctx)
	if len(items) != 1 {
		t.Errorf("items after open = %+v", items)
	}

	if err := svc.Delete(ctx, saved.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := svc.Delete(ctx, saved.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := svc.Open(ctx, saved.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestPromptsCatalog(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	st := svc.store

	if err := st.UpsertPrompt(ctx, store.PromptInput{ID: "narrative", Name: "Narrative", Instruction: "Tell it.", Builtin: true, SourceFile: "narrative.md"}); err != nil {
		t.Fatalf("UpsertPrompt: %v", err)
	}

	catalog := svc.Prompts()
	if _, err := catalog.Add(ctx, "Mine", " "); !errors.Is(err, ErrMissingContent) {
		t.Errorf("expected ErrMissingContent, got %v", err)
	}
	added, err := catalog.Add(ctx, "Mine", "Do it my way.")
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if !strings.HasPrefix(added.ID, "custom-") || !added.IsDeletable {
		t.Errorf("added = %+v", added)
	}

	items, err := catalog.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 2 || items[0].ID != "narrative" || items[0].IsDeletable || items[1].ID != added.ID {
		t.Fatalf("items = %+v", items)
	}

	if err := catalog.Delete(ctx, "narrative"); !errors.Is(err, store.ErrProtected) {
		t.Errorf("expected ErrProtected, got %v", err)
	}
	if err := catalog.Delete(ctx, added.ID); err != nil {
		t.Errorf("Delete: %v", err)
	}
}

func TestGenerate(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	if err := svc.store.UpsertPrompt(ctx, store.PromptInput{ID: "narrative", Name: "Narrative", Instruction: "Tell it.", Builtin: true}); err != nil {
		t.Fatalf("UpsertPrompt: %v", err)
	}

	text, err := svc.Generate(ctx, "narrative", sample())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if text != prompt.Compose("Tell it.", sample()) {
		t.Errorf("unexpected prompt:\n%s", text)
	}

	text, err = svc.Generate(ctx, "nope", sample())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.HasPrefix(text, prompt.FallbackInstruction) {
		t.Errorf("expected fallback instruction, got:\n%s", text)
	}
}

func TestWorkspaceOverService(t *testing.T) {
	ctx := context.Background()
	svc, clk := newTestService(t)
	ws := editor.New(editor.Options{Persistence: svc, Prompts: svc.Prompts(), Generator: svc, Clock: clk})
	defer ws.Close()

	if err := ws.AddEntity("Alice", "person"); err != nil {
		t.Fatalf("AddEntity: %v", err)
	}
	clk.Advance(editor.DefaultQuietPeriod)
	if ws.SessionName() != "Auto-save @ Jan 02, 15:04" {
		t.Errorf("session name = %q", ws.SessionName())
	}

	if _, err := ws.Save(ctx, "Cast"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	items, err := ws.ListSaved(ctx)
	if err != nil {
		t.Fatalf("ListSaved: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("items = %+v", items)
	}
	if err := ws.NewScenario(true); err != nil {
		t.Fatalf("NewScenario: %v", err)
	}
	if err := ws.OpenSaved(ctx, items[0].ID, true); err != nil {
		t.Fatalf("OpenSaved: %v", err)
	}
	if got := ws.Entities(); len(got) != 1 || got[0].Name != "Alice" {
		t.Errorf("entities = %+v", got)
	}
	if ws.SessionName() != "Editing: Cast" {
		t.Errorf("session name = %q", ws.SessionName())
	}
}
