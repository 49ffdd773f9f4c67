package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"reportengine/internal/api"
	"reportengine/internal/artifact"
	"reportengine/internal/editor"
	"reportengine/internal/scenario"
)

// Event fields in the order the cursor visits them.
const (
	fieldWho = iota
	fieldWhat
	fieldWhen
	fieldWhere
	fieldWhy
	fieldCount
)

var fieldLabels = [fieldCount]string{"Who", "What", "When", "Where", "Why"}

type inputKind int

const (
	inputNone inputKind = iota
	inputField
	inputEntity
	inputLocation
	inputSave
)

const requestTimeout = 30 * time.Second

// Model is the bubbletea model for one editing workspace.
type Model struct {
	ws   *editor.Workspace
	sink artifact.Sink
	copy func(string) error

	Keys  KeyMap
	help  help.Model
	input textinput.Model

	inputKind inputKind
	cursor    int
	field     int

	prompts   []api.Prompt
	promptIdx int
	output    string
	message   string
	failed    bool

	width  int
	height int
}

// NewModel builds the editor model. sink may be nil to disable export;
// copyFn writes text to the system clipboard.
func NewModel(ws *editor.Workspace, sink artifact.Sink, copyFn func(string) error) Model {
	ti := textinput.New()
	ti.Prompt = "▸ "
	ti.CharLimit = 512

	return Model{
		ws:    ws,
		sink:  sink,
		copy:  copyFn,
		Keys:  DefaultKeyMap(),
		help:  help.New(),
		input: ti,
		field: fieldWhat,
		width: 80,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(tickCmd(), m.loadPrompts())
}

func tickCmd() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(t time.Time) tea.Msg {
		return MsgTick{Time: t}
	})
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case MsgTick:
		return m, tickCmd()

	case msgPrompts:
		if msg.err != nil {
			m.setError("Could not load prompts", msg.err)
			return m, nil
		}
		m.prompts = msg.prompts
		if m.promptIdx >= len(m.prompts) {
			m.promptIdx = 0
		}
		return m, nil

	case msgGenerated:
		if msg.err != nil {
			m.setError("Error generating prompt", msg.err)
			return m, nil
		}
		m.output = msg.text
		m.setMessage("Prompt generated")
		return m, nil

	case msgSaved:
		if msg.err != nil {
			m.setError("Save failed", msg.err)
			return m, nil
		}
		m.setMessage(fmt.Sprintf("Saved as %q", msg.name))
		return m, nil

	case msgExported:
		if msg.err != nil {
			m.setError("Export failed", msg.err)
			return m, nil
		}
		m.setMessage("Exported to " + msg.location)
		return m, nil

	case msgCopied:
		if msg.err != nil {
			m.setError("Could not copy", msg.err)
			return m, nil
		}
		m.setMessage("Copied!")
		return m, nil

	case tea.KeyMsg:
		if m.inputKind != inputNone {
			return m.updateInput(msg)
		}
		return m.updateBrowse(msg)
	}
	return m, nil
}

func (m Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	blocks := m.ws.Blocks()
	m.clampCursor(len(blocks))

	switch {
	case key.Matches(msg, m.Keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.Keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.Keys.Down):
		if m.cursor < len(blocks)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.Keys.NextField):
		m.field = (m.field + 1) % fieldCount
	case key.Matches(msg, m.Keys.PrevField):
		m.field = (m.field + fieldCount - 1) % fieldCount
	case key.Matches(msg, m.Keys.Edit):
		if len(blocks) > 0 {
			m.startInput(inputField, fieldLabels[m.field], fieldValue(blocks[m.cursor], m.field))
			return m, textinput.Blink
		}
	case key.Matches(msg, m.Keys.AddEvent):
		m.ws.AddEvent()
		m.cursor = len(m.ws.Blocks()) - 1
	case key.Matches(msg, m.Keys.DeleteEvent):
		if len(blocks) > 0 {
			if err := m.ws.DeleteEvent(blocks[m.cursor].ID); err != nil {
				m.setError("Delete failed", err)
			}
			m.clampCursor(len(m.ws.Blocks()))
		}
	case key.Matches(msg, m.Keys.AddEntity):
		m.startInput(inputEntity, "Entity name[:type]", "")
		return m, textinput.Blink
	case key.Matches(msg, m.Keys.AddLocation):
		m.startInput(inputLocation, "Location name", "")
		return m, textinput.Blink
	case key.Matches(msg, m.Keys.Sort):
		if m.ws.Sort() == editor.Descending {
			m.setMessage("Sorted newest first")
		} else {
			m.setMessage("Sorted oldest first")
		}
	case key.Matches(msg, m.Keys.NextPrompt):
		if len(m.prompts) > 0 {
			m.promptIdx = (m.promptIdx + 1) % len(m.prompts)
		}
	case key.Matches(msg, m.Keys.Generate):
		return m, m.generate()
	case key.Matches(msg, m.Keys.Copy):
		if m.output == "" {
			m.setMessage("Nothing to copy")
			return m, nil
		}
		return m, m.copyOutput()
	case key.Matches(msg, m.Keys.Save):
		m.startInput(inputSave, "Save as", "")
		return m, textinput.Blink
	case key.Matches(msg, m.Keys.Export):
		return m, m.export()
	}
	return m, nil
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.Keys.Back):
		m.stopInput()
		return m, nil
	case key.Matches(msg, m.Keys.Edit):
		kind, value := m.inputKind, m.input.Value()
		m.stopInput()
		return m, m.commit(kind, value)
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// commit applies a finished input. Validation errors from the model are
// ignored the way the form ignores an invalid entry.
func (m *Model) commit(kind inputKind, value string) tea.Cmd {
	switch kind {
	case inputField:
		blocks := m.ws.Blocks()
		if len(blocks) == 0 {
			return nil
		}
		id := blocks[m.cursor].ID
		switch m.field {
		case fieldWho:
			if err := m.ws.ToggleWho(id, strings.TrimSpace(value)); err != nil {
				m.setError("Unknown entity", err)
			}
		case fieldWhere:
			if err := m.ws.SetWhere(id, strings.TrimSpace(value)); err != nil {
				m.setError("Unknown location", err)
			}
		case fieldWhat:
			_ = m.ws.SetField(id, editor.FieldWhat, value)
		case fieldWhen:
			_ = m.ws.SetField(id, editor.FieldWhen, value)
		case fieldWhy:
			_ = m.ws.SetField(id, editor.FieldWhy, value)
		}
	case inputEntity:
		name, entityType := parseEntity(value)
		_ = m.ws.AddEntity(name, entityType)
	case inputLocation:
		_ = m.ws.AddLocation(value)
	case inputSave:
		return m.save(value)
	}
	return nil
}

func (m *Model) startInput(kind inputKind, placeholder, value string) {
	m.inputKind = kind
	m.input.Placeholder = placeholder
	m.input.SetValue(value)
	m.input.CursorEnd()
	m.input.Focus()
}

func (m *Model) stopInput() {
	m.inputKind = inputNone
	m.input.Blur()
	m.input.Reset()
}

func (m *Model) clampCursor(n int) {
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) setMessage(text string) {
	m.message = text
	m.failed = false
}

func (m *Model) setError(text string, err error) {
	var netErr *editor.NetworkError
	if errors.As(err, &netErr) {
		text += " (network)"
	}
	m.message = fmt.Sprintf("%s: %v", text, err)
	m.failed = true
}

func (m Model) selectedPrompt() string {
	if len(m.prompts) == 0 {
		return ""
	}
	return m.prompts[m.promptIdx].ID
}

func (m Model) loadPrompts() tea.Cmd {
	ws := m.ws
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		prompts, err := ws.Prompts(ctx)
		return msgPrompts{prompts: prompts, err: err}
	}
}

func (m Model) generate() tea.Cmd {
	ws, id := m.ws, m.selectedPrompt()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		text, err := ws.Generate(ctx, id)
		return msgGenerated{text: text, err: err}
	}
}

func (m Model) save(name string) tea.Cmd {
	ws := m.ws
	name = strings.TrimSpace(name)
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		_, err := ws.Save(ctx, name)
		return msgSaved{name: name, err: err}
	}
}

func (m Model) export() tea.Cmd {
	ws, sink := m.ws, m.sink
	return func() tea.Msg {
		if sink == nil {
			return msgExported{err: fmt.Errorf("exporting: %w", editor.ErrNotConfigured)}
		}
		art, err := ws.Export()
		if err != nil {
			return msgExported{err: err}
		}
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		info, err := sink.Put(ctx, art)
		if err != nil {
			return msgExported{err: err}
		}
		return msgExported{location: info.Location}
	}
}

func (m Model) copyOutput() tea.Cmd {
	copyFn, text := m.copy, m.output
	return func() tea.Msg {
		if copyFn == nil {
			return msgCopied{err: fmt.Errorf("copying: %w", editor.ErrNotConfigured)}
		}
		return msgCopied{err: copyFn(text)}
	}
}

func parseEntity(value string) (string, string) {
	name, entityType, found := strings.Cut(value, ":")
	if !found {
		return strings.TrimSpace(value), scenario.DefaultEntityType
	}
	return strings.TrimSpace(name), strings.ToLower(strings.TrimSpace(entityType))
}

func fieldValue(b editor.BlockView, field int) string {
	switch field {
	case fieldWhat:
		return b.What
	case fieldWhen:
		return b.When
	case fieldWhere:
		return b.Where
	case fieldWhy:
		return b.Why
	default:
		return ""
	}
}
