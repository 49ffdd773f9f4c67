package scenario

import (
	"fmt"
	"strings"
)

// Model is the single in-memory copy of the scenario being edited. It is not
// safe for concurrent use; the owning controller serializes access.
type Model struct {
	current Scenario
}

func NewModel(s Scenario) *Model {
	m := &Model{}
	m.Replace(s)
	return m
}

func (m *Model) Get() Scenario {
	return m.current.Clone()
}

func (m *Model) Replace(s Scenario) {
	m.current = s.Clone()
	m.current.Normalize()
}

func (m *Model) SetEvents(events []Event) {
	next := Scenario{Events: events}.Clone()
	m.current.Events = next.Events
	m.current.Normalize()
}

func (m *Model) Entities() []Entity {
	return append([]Entity{}, m.current.Entities...)
}

func (m *Model) Locations() []Location {
	return append([]Location{}, m.current.Locations...)
}

func (m *Model) AddEntity(name, entityType string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("adding entity: %w", ErrEmptyName)
	}
	entityType = strings.TrimSpace(entityType)
	if entityType == "" {
		entityType = DefaultEntityType
	}
	if !IsEntityType(entityType) {
		return fmt.Errorf("adding entity %q: %w: %s", name, ErrUnknownEntityType, entityType)
	}
	for _, e := range m.current.Entities {
		if e.Name == name {
			return fmt.Errorf("adding entity %q: %w", name, ErrDuplicateName)
		}
	}
	m.current.Entities = append(m.current.Entities, Entity{Name: name, Type: entityType})
	return nil
}

func (m *Model) AddLocation(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("adding location: %w", ErrEmptyName)
	}
	for _, l := range m.current.Locations {
		if l.Name == name {
			return fmt.Errorf("adding location %q: %w", name, ErrDuplicateName)
		}
	}
	m.current.Locations = append(m.current.Locations, Location{Name: name})
	return nil
}

// RemoveEntityAt ignores out-of-range indexes; a render and a click can race.
func (m *Model) RemoveEntityAt(i int) bool {
	if i < 0 || i >= len(m.current.Entities) {
		return false
	}
	m.current.Entities = append(m.current.Entities[:i:i], m.current.Entities[i+1:]...)
	return true
}

func (m *Model) RemoveLocationAt(i int) bool {
	if i < 0 || i >= len(m.current.Locations) {
		return false
	}
	m.current.Locations = append(m.current.Locations[:i:i], m.current.Locations[i+1:]...)
	return true
}
