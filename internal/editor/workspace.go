package editor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"reportengine/internal/api"
	"reportengine/internal/clock"
	"reportengine/internal/codec"
	"reportengine/internal/scenario"
)

const (
	DefaultSessionName = "New Scenario"
	EditingPrefix      = "Editing: "
	ImportedPrefix     = "Imported: "

	collaboratorTimeout = 30 * time.Second
)

type Options struct {
	Persistence       Persistence
	Prompts           PromptCatalog
	Generator         Generator
	Clock             clock.Clock
	QuietPeriod       time.Duration
	IndicatorDuration time.Duration
	AppVersion        string
	Logger            *log.Logger
}

// BlockView is a read-only copy of one event block for front ends.
type BlockView struct {
	ID           string
	Title        string
	What         string
	When         string
	Why          string
	Where        string
	WhereOptions []Option
	WhoOptions   []Option
	Pills        []Pill
	Query        string
}

// Workspace is the editing session: the scenario model, its block
// projection, sort state, autosave, and the session name. Every mutation
// runs mutate, re-render, notify under one lock; collaborator calls are made
// without holding it.
type Workspace struct {
	mu          sync.Mutex
	model       *scenario.Model
	renderer    *Renderer
	sorter      SortToggle
	autosave    *Coordinator
	sessionName string
	pinned      bool

	persistence Persistence
	prompts     PromptCatalog
	generator   Generator
	clock       clock.Clock
	appVersion  string
	logger      *log.Logger
}

func New(opts Options) *Workspace {
	w := &Workspace{
		model:       scenario.NewModel(scenario.Scenario{}),
		sessionName: DefaultSessionName,
		persistence: opts.Persistence,
		prompts:     opts.Prompts,
		generator:   opts.Generator,
		clock:       opts.Clock,
		appVersion:  opts.AppVersion,
		logger:      opts.Logger,
	}
	if w.clock == nil {
		w.clock = clock.Real()
	}
	if w.logger == nil {
		w.logger = log.New(io.Discard, "", 0)
	}
	if w.appVersion == "" {
		w.appVersion = "dev"
	}
	w.autosave = NewCoordinator(CoordinatorConfig{
		Clock:             w.clock,
		QuietPeriod:       opts.QuietPeriod,
		IndicatorDuration: opts.IndicatorDuration,
		Save:              w.persistDraft,
		Logger:            w.logger,
	})
	w.renderer = NewRenderer(w.autosave.Notify)
	w.renderer.Render(nil, nil, nil)
	return w
}

// Load installs the initial scenario handed over by the host. Missing or
// unreadable input leaves a workspace with one blank event; the decode error
// is still returned for logging.
func (w *Workspace) Load(initial []byte) error {
	var s scenario.Scenario
	var err error
	if len(strings.TrimSpace(string(initial))) > 0 {
		s, err = codec.Decode(initial)
		if err != nil {
			w.logger.Printf("failed to parse initial scenario: %v", err)
			s = scenario.Scenario{}
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.replaceLocked(s)
	return err
}

// LoadSession installs a session handed over by the server. Sessions opened
// from a named save keep their name against later autosave responses.
func (w *Workspace) LoadSession(session api.Session) error {
	err := w.Load(session.Content)
	w.mu.Lock()
	defer w.mu.Unlock()
	if session.Name != "" {
		w.sessionName = session.Name
		w.pinned = strings.HasPrefix(session.Name, EditingPrefix)
	}
	return err
}

func (w *Workspace) SessionName() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.sessionName
}

func (w *Workspace) Status() Status {
	return w.autosave.Status()
}

func (w *Workspace) Entities() []scenario.Entity {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.model.Entities()
}

func (w *Workspace) Locations() []scenario.Location {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.model.Locations()
}

func (w *Workspace) AddEntity(name, entityType string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.model.AddEntity(name, entityType); err != nil {
		return err
	}
	w.syncLocked()
	w.autosave.Notify()
	return nil
}

func (w *Workspace) AddLocation(name string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.model.AddLocation(name); err != nil {
		return err
	}
	w.syncLocked()
	w.autosave.Notify()
	return nil
}

func (w *Workspace) RemoveEntityAt(i int) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.model.RemoveEntityAt(i) {
		return false
	}
	w.syncLocked()
	w.autosave.Notify()
	return true
}

func (w *Workspace) RemoveLocationAt(i int) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.model.RemoveLocationAt(i) {
		return false
	}
	w.syncLocked()
	w.autosave.Notify()
	return true
}

// AddEvent appends a blank event block and returns its id.
func (w *Workspace) AddEvent() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	b := w.renderer.AddBlock()
	w.autosave.Notify()
	return b.ID
}

func (w *Workspace) DeleteEvent(id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.renderer.DeleteBlock(id) {
		return fmt.Errorf("%w: %s", ErrUnknownBlock, id)
	}
	w.autosave.Notify()
	return nil
}

func (w *Workspace) SetField(id string, field Field, value string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	b, err := w.blockLocked(id)
	if err != nil {
		return err
	}
	return b.SetField(field, value)
}

func (w *Workspace) SetWhere(id, location string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	b, err := w.blockLocked(id)
	if err != nil {
		return err
	}
	if !b.SetWhere(location) {
		return fmt.Errorf("%w: %s", ErrUnknownOption, location)
	}
	return nil
}

func (w *Workspace) ToggleWho(id, name string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	b, err := w.blockLocked(id)
	if err != nil {
		return err
	}
	if !b.Who.Toggle(name) {
		return fmt.Errorf("%w: %s", ErrUnknownOption, name)
	}
	return nil
}

func (w *Workspace) RemovePill(id, name string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	b, err := w.blockLocked(id)
	if err != nil {
		return err
	}
	if !b.Who.RemovePill(name) {
		return fmt.Errorf("%w: %s", ErrUnknownOption, name)
	}
	return nil
}

func (w *Workspace) SearchWho(id, query string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	b, err := w.blockLocked(id)
	if err != nil {
		return err
	}
	b.Who.Search(query)
	return nil
}

// Sort reorders the event blocks by date and reports the direction used.
func (w *Workspace) Sort() Direction {
	w.mu.Lock()
	defer w.mu.Unlock()
	sorted, dir := w.sorter.Apply(w.renderer.Blocks())
	if err := w.renderer.Reorder(sorted); err != nil {
		w.logger.Printf("sorting events: %v", err)
		return dir
	}
	w.autosave.Notify()
	return dir
}

func (w *Workspace) Blocks() []BlockView {
	w.mu.Lock()
	defer w.mu.Unlock()
	blocks := w.renderer.Blocks()
	views := make([]BlockView, 0, len(blocks))
	for _, b := range blocks {
		views = append(views, BlockView{
			ID:           b.ID,
			Title:        b.Title,
			What:         b.What,
			When:         b.When,
			Why:          b.Why,
			Where:        b.Where.Value(),
			WhereOptions: b.Where.Options(),
			WhoOptions:   b.Who.selector.Options(),
			Pills:        b.Who.Pills(),
			Query:        b.Who.Query(),
		})
	}
	return views
}

// Snapshot gathers the blocks into the model and returns the whole scenario.
func (w *Workspace) Snapshot() scenario.Scenario {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshotLocked()
}

func (w *Workspace) Export() (codec.Artifact, error) {
	return w.ExportFormat(codec.FormatJSON)
}

func (w *Workspace) ExportFormat(format codec.Format) (codec.Artifact, error) {
	s := w.Snapshot()
	return codec.ExportFormat(s, w.clock.Now(), w.appVersion, format)
}

// Import replaces the whole workspace with the decoded payload. A payload
// that fails to decode leaves the workspace untouched.
func (w *Workspace) Import(raw []byte, format codec.Format, source string, confirmed bool) error {
	if !confirmed {
		return ErrNotConfirmed
	}
	doc, err := codec.DecodeDocument(raw, format)
	if err != nil {
		return err
	}

	w.mu.Lock()
	w.replaceLocked(doc.Scenario)
	if source != "" {
		w.sessionName = ImportedPrefix + source
		w.pinned = true
	}
	w.mu.Unlock()

	if err := w.autosave.Flush(context.Background()); err != nil {
		w.logger.Printf("autosave after import: %v", err)
	}
	return nil
}

// NewScenario discards the workspace and starts over with one blank event.
// The default name stays pinned until the scenario is saved or another one
// is opened, so the autosave slot's old name never carries over.
func (w *Workspace) NewScenario(confirmed bool) error {
	if !confirmed {
		return ErrNotConfirmed
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.replaceLocked(scenario.Scenario{})
	w.sessionName = DefaultSessionName
	w.pinned = true
	w.autosave.Notify()
	return nil
}

func (w *Workspace) Save(ctx context.Context, name string) (api.SaveResponse, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return api.SaveResponse{}, fmt.Errorf("saving scenario: %w", scenario.ErrEmptyName)
	}
	if w.persistence == nil {
		return api.SaveResponse{}, fmt.Errorf("saving scenario: %w", ErrNotConfigured)
	}
	s := w.Snapshot()
	resp, err := w.persistence.Save(ctx, name, s)
	if err != nil {
		w.logger.Printf("save %q failed: %v", name, err)
		return api.SaveResponse{}, &NetworkError{Op: "save", Err: err}
	}

	w.mu.Lock()
	w.sessionName = EditingPrefix + name
	w.pinned = true
	w.mu.Unlock()
	return resp, nil
}

func (w *Workspace) ListSaved(ctx context.Context) ([]api.SavedScenario, error) {
	if w.persistence == nil {
		return nil, fmt.Errorf("listing saved scenarios: %w", ErrNotConfigured)
	}
	items, err := w.persistence.List(ctx)
	if err != nil {
		w.logger.Printf("listing saved scenarios failed: %v", err)
		return nil, &NetworkError{Op: "list saved scenarios", Err: err}
	}
	return items, nil
}

func (w *Workspace) DeleteSaved(ctx context.Context, id int64, confirmed bool) error {
	if !confirmed {
		return ErrNotConfirmed
	}
	if w.persistence == nil {
		return fmt.Errorf("deleting saved scenario: %w", ErrNotConfigured)
	}
	if err := w.persistence.Delete(ctx, id); err != nil {
		w.logger.Printf("deleting saved scenario %d failed: %v", id, err)
		return &NetworkError{Op: "delete saved scenario", Err: err}
	}
	return nil
}

// OpenSaved replaces the workspace with a saved scenario.
func (w *Workspace) OpenSaved(ctx context.Context, id int64, confirmed bool) error {
	if !confirmed {
		return ErrNotConfirmed
	}
	if w.persistence == nil {
		return fmt.Errorf("opening saved scenario: %w", ErrNotConfigured)
	}
	session, err := w.persistence.Open(ctx, id)
	if err != nil {
		w.logger.Printf("opening saved scenario %d failed: %v", id, err)
		return &NetworkError{Op: "open saved scenario", Err: err}
	}
	doc, err := codec.DecodeDocument(session.Content, codec.FormatJSON)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.replaceLocked(doc.Scenario)
	w.sessionName = session.Name
	w.pinned = true
	return nil
}

func (w *Workspace) Prompts(ctx context.Context) ([]api.Prompt, error) {
	if w.prompts == nil {
		return nil, fmt.Errorf("listing prompts: %w", ErrNotConfigured)
	}
	items, err := w.prompts.List(ctx)
	if err != nil {
		w.logger.Printf("listing prompts failed: %v", err)
		return nil, &NetworkError{Op: "list prompts", Err: err}
	}
	return items, nil
}

func (w *Workspace) AddPrompt(ctx context.Context, name, instruction string) (api.Prompt, error) {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(instruction) == "" {
		return api.Prompt{}, fmt.Errorf("adding prompt: %w", scenario.ErrEmptyName)
	}
	if w.prompts == nil {
		return api.Prompt{}, fmt.Errorf("adding prompt: %w", ErrNotConfigured)
	}
	p, err := w.prompts.Add(ctx, strings.TrimSpace(name), strings.TrimSpace(instruction))
	if err != nil {
		w.logger.Printf("adding prompt %q failed: %v", name, err)
		return api.Prompt{}, &NetworkError{Op: "add prompt", Err: err}
	}
	return p, nil
}

func (w *Workspace) DeletePrompt(ctx context.Context, id string) error {
	if w.prompts == nil {
		return fmt.Errorf("deleting prompt: %w", ErrNotConfigured)
	}
	if err := w.prompts.Delete(ctx, id); err != nil {
		w.logger.Printf("deleting prompt %s failed: %v", id, err)
		return &NetworkError{Op: "delete prompt", Err: err}
	}
	return nil
}

// Generate saves the draft first, then asks the generator for a prompt
// built from the current scenario.
func (w *Workspace) Generate(ctx context.Context, promptID string) (string, error) {
	if w.generator == nil {
		return "", fmt.Errorf("generating prompt: %w", ErrNotConfigured)
	}
	if err := w.autosave.Flush(ctx); err != nil {
		w.logger.Printf("autosave before generate: %v", err)
	}
	s := w.Snapshot()
	text, err := w.generator.Generate(ctx, promptID, s)
	if err != nil {
		w.logger.Printf("generating prompt %s failed: %v", promptID, err)
		return "", &NetworkError{Op: "generate prompt", Err: err}
	}
	return text, nil
}

// Flush saves the draft immediately.
func (w *Workspace) Flush(ctx context.Context) error {
	return w.autosave.Flush(ctx)
}

func (w *Workspace) Close() {
	w.autosave.Close()
}

func (w *Workspace) persistDraft(ctx context.Context) error {
	if w.persistence == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, collaboratorTimeout)
	defer cancel()

	s := w.Snapshot()
	resp, err := w.persistence.Autosave(ctx, s)
	if err != nil {
		return &NetworkError{Op: "autosave", Err: err}
	}

	// The response may arrive after the user renamed the session; only an
	// unpinned name is replaced.
	if resp.Name != "" {
		w.mu.Lock()
		if !w.pinned {
			w.sessionName = resp.Name
		}
		w.mu.Unlock()
	}
	return nil
}

func (w *Workspace) replaceLocked(s scenario.Scenario) {
	w.model.Replace(s)
	current := w.model.Get()
	w.renderer.Render(current.Events, current.Entities, current.Locations)
	w.sorter.Reset()
}

func (w *Workspace) syncLocked() {
	w.renderer.Sync(w.model.Entities(), w.model.Locations())
}

func (w *Workspace) snapshotLocked() scenario.Scenario {
	w.model.SetEvents(w.renderer.Gather())
	return w.model.Get()
}

func (w *Workspace) blockLocked(id string) (*Block, error) {
	_, b := w.renderer.Find(id)
	if b == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBlock, id)
	}
	return b, nil
}

// IsNetworkError reports whether err came from a collaborator call.
func IsNetworkError(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}
