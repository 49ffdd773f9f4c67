package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"reportengine/internal/store"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	ctx := context.Background()
	c, err := New(ctx, "sqlite://:memory:")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { c.Close(ctx) })

	now := time.Date(2024, 1, 2, 15, 4, 0, 0, time.UTC)
	c.now = func() time.Time {
		now = now.Add(time.Minute)
		return now
	}
	if err := c.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	return c
}

func TestParseDSN(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		path   string
		memory bool
		err    bool
	}{
		{name: "memory", input: "sqlite://:memory:", path: ":memory:", memory: true},
		{name: "absolute", input: "sqlite:///var/lib/re.db", path: "/var/lib/re.db"},
		{name: "relative", input: "sqlite://data/re.db", path: "./data/re.db"},
		{name: "dot relative", input: "sqlite://./re.db", path: "./re.db"},
		{name: "query kept", input: "sqlite://re.db?_pragma=x", path: "./re.db?_pragma=x"},
		{name: "escaped", input: "sqlite://my%20dir/re.db", path: "./my dir/re.db"},
		{name: "wrong scheme", input: "postgres://localhost/db", err: true},
		{name: "empty", input: "sqlite://", err: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, memory, err := parseDSN(tt.input)
			if tt.err {
				if err == nil {
					t.Fatalf("parseDSN(%q) expected error", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseDSN(%q): %v", tt.input, err)
			}
			if path != tt.path || memory != tt.memory {
				t.Errorf("parseDSN(%q) = %q, %v; want %q, %v", tt.input, path, memory, tt.path, tt.memory)
			}
		})
	}
}

func TestSplitStatements(t *testing.T) {
	ddl := "-- comment\nCREATE TABLE a (x INT);\n\nCREATE INDEX i ON a (x);\n"
	got := splitStatements(ddl)
	if len(got) != 2 {
		t.Fatalf("expected 2 statements, got %d: %q", len(got), got)
	}
}

func TestAutosaveSlot(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)

	if _, err := c.LatestAutosave(ctx); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	first, err := c.UpsertAutosave(ctx, []byte(`{"a":1}`), "Auto-save @ Jan 02, 15:05")
	if err != nil {
		t.Fatalf("UpsertAutosave: %v", err)
	}
	second, err := c.UpsertAutosave(ctx, []byte(`{"a":2}`), "Auto-save @ Jan 02, 15:06")
	if err != nil {
		t.Fatalf("UpsertAutosave: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("autosave created a second row: %d vs %d", second.ID, first.ID)
	}
	if second.Name != "Auto-save @ Jan 02, 15:05" {
		t.Errorf("autosave renamed on update: %q", second.Name)
	}

	latest, err := c.LatestAutosave(ctx)
	if err != nil {
		t.Fatalf("LatestAutosave: %v", err)
	}
	if string(latest.Content) != `{"a":2}` {
		t.Errorf("content = %s", latest.Content)
	}

	saved, err := c.ListSaved(ctx)
	if err != nil {
		t.Fatalf("ListSaved: %v", err)
	}
	if len(saved) != 0 {
		t.Errorf("autosave listed as saved: %+v", saved)
	}

	if err := c.DeleteScenario(ctx, first.ID); !errors.Is(err, store.ErrProtected) {
		t.Errorf("expected ErrProtected, got %v", err)
	}
}

func TestSavedScenarios(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)

	older, err := c.SaveScenario(ctx, "Older", []byte(`{"n":"older"}`))
	if err != nil {
		t.Fatalf("SaveScenario: %v", err)
	}
	newer, err := c.SaveScenario(ctx, "Newer", []byte(`{"n":"newer"}`))
	if err != nil {
		t.Fatalf("SaveScenario: %v", err)
	}

	saved, err := c.ListSaved(ctx)
	if err != nil {
		t.Fatalf("ListSaved: %v", err)
	}
	if len(saved) != 2 || saved[0].ID != newer || saved[1].ID != older {
		t.Fatalf("expected newest first, got %+v", saved)
	}

	rec, err := c.PromoteToAutosave(ctx, older, "Editing: Older")
	if err != nil {
		t.Fatalf("PromoteToAutosave: %v", err)
	}
	if rec.Name != "Editing: Older" || string(rec.Content) != `{"n":"older"}` {
		t.Errorf("promoted = %+v", rec)
	}
	if _, err := c.PromoteToAutosave(ctx, 999, "x"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	if err := c.DeleteScenario(ctx, older); err != nil {
		t.Fatalf("DeleteScenario: %v", err)
	}
	if _, err := c.GetScenario(ctx, older); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := c.DeleteScenario(ctx, 999); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestPrompts(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)

	builtins := []store.PromptInput{
		{ID: "timeline", Name: "Timeline", Instruction: "t", Builtin: true, Position: 2, SourceFile: "timeline.md", SourceHash: "h2"},
		{ID: "narrative", Name: "Narrative", Instruction: "n", Builtin: true, Position: 1, SourceFile: "narrative.md", SourceHash: "h1"},
	}
	for _, p := range builtins {
		if err := c.UpsertPrompt(ctx, p); err != nil {
			t.Fatalf("UpsertPrompt: %v", err)
		}
	}
	if err := c.UpsertPrompt(ctx, store.PromptInput{ID: "custom-1", Name: "Mine", Instruction: "m"}); err != nil {
		t.Fatalf("UpsertPrompt: %v", err)
	}

	prompts, err := c.ListPrompts(ctx)
	if err != nil {
		t.Fatalf("ListPrompts: %v", err)
	}
	var ids []string
	for _, p := range prompts {
		ids = append(ids, p.ID)
	}
	if len(ids) != 3 || ids[0] != "narrative" || ids[1] != "timeline" || ids[2] != "custom-1" {
		t.Errorf("prompt order = %v", ids)
	}

	if err := c.DeletePrompt(ctx, "narrative"); !errors.Is(err, store.ErrProtected) {
		t.Errorf("expected ErrProtected, got %v", err)
	}
	if err := c.DeletePrompt(ctx, "custom-1"); err != nil {
		t.Errorf("DeletePrompt: %v", err)
	}
	if err := c.DeletePrompt(ctx, "custom-1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	hashes, err := c.GetPromptHashes(ctx)
	if err != nil {
		t.Fatalf("GetPromptHashes: %v", err)
	}
	if hashes["narrative.md"] != "h1" || hashes["timeline.md"] != "h2" {
		t.Errorf("hashes = %v", hashes)
	}

	removed, err := c.RemoveStalePrompts(ctx, []string{"narrative.md"})
	if err != nil {
		t.Fatalf("RemoveStalePrompts: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if _, err := c.GetPrompt(ctx, "timeline"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("stale prompt still present: %v", err)
	}
}
