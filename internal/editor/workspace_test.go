package editor

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"reportengine/internal/api"
	"reportengine/internal/clock"
	"reportengine/internal/codec"
	"reportengine/internal/scenario"
)

type fakePersistence struct {
	mu        sync.Mutex
	autosaves []scenario.Scenario
	saved     map[int64]string
	name      string
	err       error
}

func (f *fakePersistence) Autosave(_ context.Context, s scenario.Scenario) (api.AutosaveResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return api.AutosaveResponse{}, f.err
	}
	f.autosaves = append(f.autosaves, s)
	return api.AutosaveResponse{Status: api.StatusSuccess, Name: f.name}, nil
}

func (f *fakePersistence) Save(_ context.Context, name string, _ scenario.Scenario) (api.SaveResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return api.SaveResponse{}, f.err
	}
	if f.saved == nil {
		f.saved = map[int64]string{}
	}
	id := int64(len(f.saved) + 2)
	f.saved[id] = name
	return api.SaveResponse{Status: api.StatusSuccess, ID: id}, nil
}

func (f *fakePersistence) List(context.Context) ([]api.SavedScenario, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []api.SavedScenario
	for id, name := range f.saved {
		out = append(out, api.SavedScenario{ID: id, Name: name})
	}
	return out, f.err
}

func (f *fakePersistence) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.saved, id)
	return f.err
}

func (f *fakePersistence) Open(_ context.Context, id int64) (api.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return api.Session{}, f.err
	}
	return api.Session{
		Name:    "Editing: " + f.saved[id],
		Content: []byte(`{"entities":[{"name":"Bob","type":"person"}],"locations":[],"events":[{"who":["Bob"],"what":"Opened","when":"","where":"","why":""}]}`),
	}, nil
}

func (f *fakePersistence) autosaveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.autosaves)
}

type fakeGenerator struct {
	got scenario.Scenario
}

func (g *fakeGenerator) Generate(_ context.Context, promptID string, s scenario.Scenario) (string, error) {
	g.got = s
	return "prompt:" + promptID, nil
}

func aliceScenario() scenario.Scenario {
	return scenario.Scenario{
		Entities:  []scenario.Entity{{Name: "Alice", Type: "person"}},
		Locations: []scenario.Location{{Name: "Cafe"}},
		Events: []scenario.Event{
			{Who: []string{"Alice"}, What: "Meeting", When: "2024-01-01", Where: "Cafe", Why: "Discuss plan"},
		},
	}
}

func newTestWorkspace(t *testing.T, p Persistence) (*Workspace, *clock.Manual) {
	t.Helper()
	clk := clock.NewManual(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	ws := New(Options{Persistence: p, Clock: clk, AppVersion: "test"})
	t.Cleanup(ws.Close)
	return ws, clk
}

func TestWorkspaceExportImportRoundTrip(t *testing.T) {
	ws, _ := newTestWorkspace(t, nil)
	raw, err := codec.Encode(codec.Wrap(aliceScenario(), time.Now(), "test"), codec.FormatJSON)
	if err != nil {
		t.Fatalf("encoding: %v", err)
	}
	if err := ws.Load(raw); err != nil {
		t.Fatalf("Load: %v", err)
	}

	art, err := ws.Export()
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if art.Name != "report-engine_20240301_120000.json" {
		t.Errorf("artifact name = %q", art.Name)
	}

	other, _ := newTestWorkspace(t, nil)
	if err := other.Import(art.Body, codec.FormatJSON, art.Name, true); err != nil {
		t.Fatalf("Import: %v", err)
	}
	if got := other.Snapshot(); !reflect.DeepEqual(got, aliceScenario()) {
		t.Errorf("round trip = %+v, want %+v", got, aliceScenario())
	}

	blocks := other.Blocks()
	if len(blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(blocks))
	}
	if blocks[0].Where != "Cafe" {
		t.Errorf("where = %q, want Cafe", blocks[0].Where)
	}
	if len(blocks[0].Pills) != 1 || blocks[0].Pills[0].Label != "Alice (person)" {
		t.Errorf("pills = %+v", blocks[0].Pills)
	}
	if other.SessionName() != ImportedPrefix+art.Name {
		t.Errorf("session name = %q", other.SessionName())
	}
}

func TestWorkspaceAlwaysHasOneBlock(t *testing.T) {
	ws, _ := newTestWorkspace(t, nil)
	blocks := ws.Blocks()
	if len(blocks) != 1 {
		t.Fatalf("new workspace has %d blocks", len(blocks))
	}
	if err := ws.DeleteEvent(blocks[0].ID); err != nil {
		t.Fatalf("DeleteEvent: %v", err)
	}
	after := ws.Blocks()
	if len(after) != 1 {
		t.Fatalf("expected replacement block, got %d", len(after))
	}
	if after[0].ID == blocks[0].ID {
		t.Error("expected a fresh block id")
	}
	if err := ws.DeleteEvent("event-999"); !errors.Is(err, ErrUnknownBlock) {
		t.Errorf("expected ErrUnknownBlock, got %v", err)
	}

	if err := ws.Load([]byte("not json")); err == nil {
		t.Error("expected decode error from Load")
	}
	if len(ws.Blocks()) != 1 {
		t.Error("unreadable initial data should leave one blank block")
	}
}

func TestWorkspaceImportRejectsBadPayload(t *testing.T) {
	ws, _ := newTestWorkspace(t, nil)
	if err := ws.AddEntity("Alice", ""); err != nil {
		t.Fatalf("AddEntity: %v", err)
	}
	before := ws.Snapshot()

	if err := ws.Import([]byte(`{"entities":[]}`), codec.FormatJSON, "x.json", true); !codec.IsFormatError(err) {
		t.Fatalf("expected format error, got %v", err)
	}
	if err := ws.Import([]byte(`{"foo":1}`), codec.FormatJSON, "x.json", false); !errors.Is(err, ErrNotConfirmed) {
		t.Errorf("expected ErrNotConfirmed, got %v", err)
	}
	if !reflect.DeepEqual(ws.Snapshot(), before) {
		t.Error("failed import changed the workspace")
	}
	if ws.SessionName() != DefaultSessionName {
		t.Errorf("session name = %q", ws.SessionName())
	}
}

func TestWorkspaceSortToggles(t *testing.T) {
	ws, _ := newTestWorkspace(t, nil)
	if err := ws.Load([]byte(`{"entities":[],"locations":[],"events":[
		{"who":[],"what":"mid","when":"2024-02-01","where":"","why":""},
		{"who":[],"what":"none","when":"","where":"","why":""},
		{"who":[],"what":"old","when":"2023-01-01","where":"","why":""},
		{"who":[],"what":"bad","when":"someday","where":"","why":""},
		{"who":[],"what":"new","when":"2024-05-01","where":"","why":""}
	]}`)); err != nil {
		t.Fatalf("Load: %v", err)
	}

	whats := func() []string {
		var out []string
		for _, e := range ws.Snapshot().Events {
			out = append(out, e.What)
		}
		return out
	}

	if dir := ws.Sort(); dir != Descending {
		t.Errorf("first sort = %s", dir)
	}
	if got, want := whats(), []string{"new", "mid", "old", "none", "bad"}; !reflect.DeepEqual(got, want) {
		t.Errorf("descending = %v, want %v", got, want)
	}
	if dir := ws.Sort(); dir != Ascending {
		t.Errorf("second sort = %s", dir)
	}
	if got, want := whats(), []string{"old", "mid", "new", "none", "bad"}; !reflect.DeepEqual(got, want) {
		t.Errorf("ascending = %v, want %v", got, want)
	}
}

func TestWorkspaceRemovingEntityDropsSelection(t *testing.T) {
	ws, _ := newTestWorkspace(t, nil)
	if err := ws.Load([]byte(`{"entities":[{"name":"Alice","type":"person"},{"name":"Bob","type":"group"}],"locations":[{"name":"Cafe"}],"events":[{"who":["Bob","Alice"],"what":"x","when":"","where":"Cafe","why":""}]}`)); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !ws.RemoveEntityAt(0) {
		t.Fatal("RemoveEntityAt(0) = false")
	}
	if !ws.RemoveLocationAt(0) {
		t.Fatal("RemoveLocationAt(0) = false")
	}
	event := ws.Snapshot().Events[0]
	if !reflect.DeepEqual(event.Who, []string{"Bob"}) {
		t.Errorf("who = %v, want [Bob]", event.Who)
	}
	if event.Where != "" {
		t.Errorf("where = %q, want empty", event.Where)
	}
	if ws.RemoveEntityAt(5) {
		t.Error("out of range removal should report false")
	}
}

func TestWorkspaceWhoPills(t *testing.T) {
	ws, _ := newTestWorkspace(t, nil)
	for _, name := range []string{"Alice", "Albert", "Bob"} {
		if err := ws.AddEntity(name, "person"); err != nil {
			t.Fatalf("AddEntity(%s): %v", name, err)
		}
	}
	id := ws.Blocks()[0].ID

	if err := ws.ToggleWho(id, "Bob"); err != nil {
		t.Fatalf("ToggleWho: %v", err)
	}
	if err := ws.ToggleWho(id, "Alice"); err != nil {
		t.Fatalf("ToggleWho: %v", err)
	}
	if err := ws.ToggleWho(id, "Zed"); !errors.Is(err, ErrUnknownOption) {
		t.Errorf("expected ErrUnknownOption, got %v", err)
	}

	if err := ws.SearchWho(id, "AL"); err != nil {
		t.Fatalf("SearchWho: %v", err)
	}
	view := ws.Blocks()[0]
	var visible []string
	for _, opt := range view.WhoOptions {
		if !opt.Hidden {
			visible = append(visible, opt.Value)
		}
	}
	if !reflect.DeepEqual(visible, []string{"Alice", "Albert"}) {
		t.Errorf("visible = %v", visible)
	}
	if got := []string{view.Pills[0].Value, view.Pills[1].Value}; !reflect.DeepEqual(got, []string{"Bob", "Alice"}) {
		t.Errorf("pills = %v, want selection order", got)
	}

	if err := ws.RemovePill(id, "Bob"); err != nil {
		t.Fatalf("RemovePill: %v", err)
	}
	if err := ws.RemovePill(id, "Alice"); err != nil {
		t.Fatalf("RemovePill: %v", err)
	}
	view = ws.Blocks()[0]
	if len(view.Pills) != 0 {
		t.Errorf("pills after removal = %+v", view.Pills)
	}
	if who := ws.Snapshot().Events[0].Who; len(who) != 0 {
		t.Errorf("who after removal = %v", who)
	}
	if err := ws.RemovePill(id, "Alice"); !errors.Is(err, ErrUnknownOption) {
		t.Errorf("removing an absent pill: %v", err)
	}
}

func TestWorkspaceAddingEntityKeepsSelections(t *testing.T) {
	ws, _ := newTestWorkspace(t, nil)
	for _, name := range []string{"Alice", "Bob"} {
		if err := ws.AddEntity(name, "person"); err != nil {
			t.Fatalf("AddEntity(%s): %v", name, err)
		}
	}
	id := ws.Blocks()[0].ID
	for _, name := range []string{"Bob", "Alice"} {
		if err := ws.ToggleWho(id, name); err != nil {
			t.Fatalf("ToggleWho(%s): %v", name, err)
		}
	}
	before := ws.Blocks()[0].Pills

	if err := ws.AddEntity("Carol", "person"); err != nil {
		t.Fatalf("AddEntity(Carol): %v", err)
	}

	if who := ws.Snapshot().Events[0].Who; !reflect.DeepEqual(who, []string{"Bob", "Alice"}) {
		t.Errorf("who = %v, want [Bob Alice]", who)
	}
	view := ws.Blocks()[0]
	if !reflect.DeepEqual(view.Pills, before) {
		t.Errorf("pills = %+v, want %+v", view.Pills, before)
	}
	if n := len(view.WhoOptions); n != 3 {
		t.Errorf("who options = %d, want 3", n)
	}
}

func TestWorkspaceSetWhere(t *testing.T) {
	ws, _ := newTestWorkspace(t, nil)
	if err := ws.AddLocation("Cafe"); err != nil {
		t.Fatalf("AddLocation: %v", err)
	}
	id := ws.Blocks()[0].ID
	if err := ws.SetWhere(id, "Cafe"); err != nil {
		t.Fatalf("SetWhere: %v", err)
	}
	if err := ws.SetWhere(id, "Moon"); !errors.Is(err, ErrUnknownOption) {
		t.Errorf("expected ErrUnknownOption, got %v", err)
	}
	view := ws.Blocks()[0]
	if view.Where != "Cafe" {
		t.Errorf("where = %q", view.Where)
	}
	if view.WhereOptions[0].Label != "N/A" || view.WhereOptions[0].Value != "" {
		t.Errorf("first where option = %+v", view.WhereOptions[0])
	}
}

func TestWorkspaceAutosaveDebounce(t *testing.T) {
	p := &fakePersistence{name: "Auto-save @ Mar 01, 12:00"}
	ws, clk := newTestWorkspace(t, p)
	id := ws.Blocks()[0].ID

	for _, text := range []string{"a", "ab", "abc"} {
		if err := ws.SetField(id, FieldWhat, text); err != nil {
			t.Fatalf("SetField: %v", err)
		}
		clk.Advance(time.Second)
	}
	if p.autosaveCount() != 0 {
		t.Fatalf("saved during typing: %d", p.autosaveCount())
	}
	if st := ws.Status(); st.State != StatePending || !st.Visible {
		t.Errorf("status while typing = %+v", st)
	}

	clk.Advance(DefaultQuietPeriod)
	if p.autosaveCount() != 1 {
		t.Fatalf("expected one save, got %d", p.autosaveCount())
	}
	if got := p.autosaves[0].Events[0].What; got != "abc" {
		t.Errorf("saved what = %q, want abc", got)
	}
	if st := ws.Status(); st.State != StateSaved || !st.Visible || st.Label() != "Saved ✓" {
		t.Errorf("status after save = %+v", st)
	}
	if ws.SessionName() != "Auto-save @ Mar 01, 12:00" {
		t.Errorf("session name = %q", ws.SessionName())
	}

	clk.Advance(DefaultIndicatorDuration)
	if st := ws.Status(); st.Visible {
		t.Errorf("indicator should fade, got %+v", st)
	}

	if err := ws.SetField(id, FieldWhat, "abc"); err != nil {
		t.Fatalf("SetField: %v", err)
	}
	clk.Advance(time.Minute)
	if p.autosaveCount() != 1 {
		t.Errorf("unchanged field should not save, got %d saves", p.autosaveCount())
	}
}

func TestWorkspaceAutosaveSpacedEdits(t *testing.T) {
	p := &fakePersistence{}
	ws, clk := newTestWorkspace(t, p)
	id := ws.Blocks()[0].ID

	for i, text := range []string{"a", "ab", "abc"} {
		if err := ws.SetField(id, FieldWhat, text); err != nil {
			t.Fatalf("SetField: %v", err)
		}
		clk.Advance(DefaultQuietPeriod + time.Millisecond)
		if got := p.autosaveCount(); got != i+1 {
			t.Fatalf("after edit %d: autosaves = %d, want %d", i+1, got, i+1)
		}
	}
	if got := p.autosaves[2].Events[0].What; got != "abc" {
		t.Errorf("last saved what = %q, want abc", got)
	}
}

func TestWorkspaceAutosaveFailure(t *testing.T) {
	p := &fakePersistence{err: errors.New("connection refused")}
	ws, clk := newTestWorkspace(t, p)
	if err := ws.AddLocation("Cafe"); err != nil {
		t.Fatalf("AddLocation: %v", err)
	}
	clk.Advance(DefaultQuietPeriod)

	st := ws.Status()
	if st.State != StateFailed {
		t.Fatalf("state = %s", st.State)
	}
	if !IsNetworkError(st.Err) {
		t.Errorf("expected network error, got %v", st.Err)
	}
	if len(ws.Locations()) != 1 {
		t.Error("failed save must not roll back the edit")
	}
}

func TestWorkspaceNamedSessionIsPinned(t *testing.T) {
	p := &fakePersistence{name: "Auto-save @ Mar 01, 12:00"}
	ws, clk := newTestWorkspace(t, p)
	ctx := context.Background()

	if _, err := ws.Save(ctx, "  "); !errors.Is(err, scenario.ErrEmptyName) {
		t.Errorf("expected ErrEmptyName, got %v", err)
	}
	resp, err := ws.Save(ctx, "Heist")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if resp.ID == 0 {
		t.Error("expected an id")
	}
	if ws.SessionName() != "Editing: Heist" {
		t.Fatalf("session name = %q", ws.SessionName())
	}

	if err := ws.AddEntity("Alice", ""); err != nil {
		t.Fatalf("AddEntity: %v", err)
	}
	clk.Advance(DefaultQuietPeriod)
	if p.autosaveCount() != 1 {
		t.Fatalf("autosaves = %d", p.autosaveCount())
	}
	if ws.SessionName() != "Editing: Heist" {
		t.Errorf("autosave response replaced pinned name: %q", ws.SessionName())
	}

	if err := ws.NewScenario(false); !errors.Is(err, ErrNotConfirmed) {
		t.Errorf("expected ErrNotConfirmed, got %v", err)
	}
	if err := ws.NewScenario(true); err != nil {
		t.Fatalf("NewScenario: %v", err)
	}
	clk.Advance(DefaultQuietPeriod)
	if p.autosaveCount() != 2 {
		t.Fatalf("autosaves = %d", p.autosaveCount())
	}
	if ws.SessionName() != DefaultSessionName {
		t.Errorf("new scenario took the slot name: %q", ws.SessionName())
	}
}

func TestWorkspaceOpenSaved(t *testing.T) {
	p := &fakePersistence{saved: map[int64]string{7: "Heist"}}
	ws, _ := newTestWorkspace(t, p)
	ctx := context.Background()

	if err := ws.OpenSaved(ctx, 7, false); !errors.Is(err, ErrNotConfirmed) {
		t.Errorf("expected ErrNotConfirmed, got %v", err)
	}
	if err := ws.OpenSaved(ctx, 7, true); err != nil {
		t.Fatalf("OpenSaved: %v", err)
	}
	s := ws.Snapshot()
	if len(s.Entities) != 1 || s.Events[0].What != "Opened" {
		t.Errorf("opened scenario = %+v", s)
	}
	if ws.SessionName() != "Editing: Heist" {
		t.Errorf("session name = %q", ws.SessionName())
	}

	if err := ws.DeleteSaved(ctx, 7, true); err != nil {
		t.Fatalf("DeleteSaved: %v", err)
	}
	items, err := ws.ListSaved(ctx)
	if err != nil {
		t.Fatalf("ListSaved: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("items = %+v", items)
	}
}

func TestWorkspaceGenerateFlushesFirst(t *testing.T) {
	p := &fakePersistence{}
	gen := &fakeGenerator{}
	clk := clock.NewManual(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	ws := New(Options{Persistence: p, Generator: gen, Clock: clk})
	defer ws.Close()

	if err := ws.AddEntity("Alice", "person"); err != nil {
		t.Fatalf("AddEntity: %v", err)
	}
	text, err := ws.Generate(context.Background(), "narrative")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if text != "prompt:narrative" {
		t.Errorf("text = %q", text)
	}
	if p.autosaveCount() != 1 {
		t.Errorf("expected flush before generate, got %d saves", p.autosaveCount())
	}
	if len(gen.got.Entities) != 1 {
		t.Errorf("generator got %+v", gen.got)
	}

	clk.Advance(time.Minute)
	if p.autosaveCount() != 1 {
		t.Errorf("pending timer should be cancelled by the flush, got %d saves", p.autosaveCount())
	}
}

func TestWorkspaceWithoutCollaborators(t *testing.T) {
	ws, clk := newTestWorkspace(t, nil)
	if err := ws.AddLocation("Cafe"); err != nil {
		t.Fatalf("AddLocation: %v", err)
	}
	clk.Advance(DefaultQuietPeriod)
	if st := ws.Status(); st.State != StateSaved {
		t.Errorf("status = %+v", st)
	}
	if _, err := ws.Save(context.Background(), "x"); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("expected ErrNotConfigured, got %v", err)
	}
	if _, err := ws.Generate(context.Background(), "x"); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("expected ErrNotConfigured, got %v", err)
	}
}
