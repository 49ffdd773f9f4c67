package editor

import (
	"errors"
	"fmt"
	"strings"

	"reportengine/internal/scenario"
)

type Field string

const (
	FieldWhat Field = "what"
	FieldWhen Field = "when"
	FieldWhy  Field = "why"
)

var ErrUnknownField = errors.New("unknown event field")

func ParseField(name string) (Field, error) {
	switch f := Field(strings.ToLower(strings.TrimSpace(name))); f {
	case FieldWhat, FieldWhen, FieldWhy:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownField, name)
	}
}

// Block is the editable projection of one event. Free-text fields hold the
// raw text as typed; trimming happens when the block is gathered.
type Block struct {
	ID    string
	Title string
	What  string
	When  string
	Why   string
	Who   *WhoPills
	Where *Select

	changed func()
}

func (b *Block) SetField(field Field, value string) error {
	var target *string
	switch field {
	case FieldWhat:
		target = &b.What
	case FieldWhen:
		target = &b.When
	case FieldWhy:
		target = &b.Why
	default:
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	if *target == value {
		return nil
	}
	*target = value
	b.notify()
	return nil
}

func (b *Block) SetWhere(value string) bool {
	if b.Where.Value() == value {
		return true
	}
	if !b.Where.SetValue(value) {
		return false
	}
	b.notify()
	return true
}

func (b *Block) Event() scenario.Event {
	return scenario.Event{
		Who:   b.Who.selector.Selected(),
		What:  strings.TrimSpace(b.What),
		When:  strings.TrimSpace(b.When),
		Where: b.Where.Value(),
		Why:   strings.TrimSpace(b.Why),
	}
}

func (b *Block) notify() {
	if b.changed != nil {
		b.changed()
	}
}

// Renderer owns the ordered set of event blocks. Block order is the
// canonical event order.
type Renderer struct {
	blocks    []*Block
	entities  []scenario.Entity
	locations []scenario.Location
	counter   int
	nextID    int
	changed   func()
}

func NewRenderer(changed func()) *Renderer {
	return &Renderer{changed: changed}
}

// Render discards all blocks and builds one per event, or a single blank
// block when there are no events.
func (r *Renderer) Render(events []scenario.Event, entities []scenario.Entity, locations []scenario.Location) {
	r.blocks = nil
	r.counter = 0
	r.entities = append([]scenario.Entity{}, entities...)
	r.locations = append([]scenario.Location{}, locations...)

	for _, event := range events {
		b := r.newBlock()
		b.What = event.What
		b.When = event.When
		b.Why = event.Why
		b.Where.SetValue(event.Where)
		b.Who.selector.SetSelected(event.Who)
		b.Who.refresh()
	}
	if len(r.blocks) == 0 {
		r.newBlock()
	}
}

// Gather reads the blocks back into events in their current order.
func (r *Renderer) Gather() []scenario.Event {
	events := make([]scenario.Event, 0, len(r.blocks))
	for _, b := range r.blocks {
		events = append(events, b.Event())
	}
	return events
}

// Sync rebuilds every block's selectors after the entity or location lists
// changed.
func (r *Renderer) Sync(entities []scenario.Entity, locations []scenario.Location) {
	r.entities = append([]scenario.Entity{}, entities...)
	r.locations = append([]scenario.Location{}, locations...)
	SyncOptions(r.blocks, r.entities, r.locations)
}

func (r *Renderer) AddBlock() *Block {
	return r.newBlock()
}

// DeleteBlock removes the block with the given id. Removing the last block
// leaves one blank block in its place.
func (r *Renderer) DeleteBlock(id string) bool {
	i, _ := r.Find(id)
	if i < 0 {
		return false
	}
	r.blocks = append(r.blocks[:i:i], r.blocks[i+1:]...)
	if len(r.blocks) == 0 {
		r.newBlock()
	}
	return true
}

func (r *Renderer) Blocks() []*Block {
	return append([]*Block{}, r.blocks...)
}

func (r *Renderer) Len() int { return len(r.blocks) }

func (r *Renderer) Find(id string) (int, *Block) {
	for i, b := range r.blocks {
		if b.ID == id {
			return i, b
		}
	}
	return -1, nil
}

// Reorder replaces the block order. The new order must be a permutation of
// the current blocks.
func (r *Renderer) Reorder(order []*Block) error {
	if len(order) != len(r.blocks) {
		return fmt.Errorf("reorder: expected %d blocks, got %d", len(r.blocks), len(order))
	}
	seen := make(map[string]struct{}, len(order))
	for _, b := range order {
		if i, _ := r.Find(b.ID); i < 0 {
			return fmt.Errorf("reorder: unknown block %s", b.ID)
		}
		if _, dup := seen[b.ID]; dup {
			return fmt.Errorf("reorder: duplicate block %s", b.ID)
		}
		seen[b.ID] = struct{}{}
	}
	r.blocks = append([]*Block{}, order...)
	return nil
}

func (r *Renderer) newBlock() *Block {
	r.counter++
	r.nextID++
	b := &Block{
		ID:      fmt.Sprintf("event-%d", r.nextID),
		Title:   fmt.Sprintf("Event #%d", r.counter),
		Where:   &Select{},
		changed: r.changed,
	}
	b.Who = newWhoPills(&MultiSelect{}, r.changed)
	SyncOptions([]*Block{b}, r.entities, r.locations)
	r.blocks = append(r.blocks, b)
	return b
}
