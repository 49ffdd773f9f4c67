package scenario

import (
	"errors"
	"strings"
)

var (
	ErrEmptyName         = errors.New("name is required")
	ErrDuplicateName     = errors.New("name already exists")
	ErrUnknownEntityType = errors.New("unknown entity type")
)

const DefaultEntityType = "person"

// EntityTypes lists the types offered when adding an entity. Imported
// scenarios may carry other values; those are kept as-is.
var EntityTypes = []string{"person", "organization", "group", "object", "other"}

type Entity struct {
	Name string `json:"name" yaml:"name" toml:"name"`
	Type string `json:"type" yaml:"type" toml:"type"`
}

type Location struct {
	Name string `json:"name" yaml:"name" toml:"name"`
}

type Event struct {
	Who   []string `json:"who" yaml:"who" toml:"who"`
	What  string   `json:"what" yaml:"what" toml:"what"`
	When  string   `json:"when" yaml:"when" toml:"when"`
	Where string   `json:"where" yaml:"where" toml:"where"`
	Why   string   `json:"why" yaml:"why" toml:"why"`
}

type Scenario struct {
	Entities  []Entity   `json:"entities" yaml:"entities" toml:"entities"`
	Locations []Location `json:"locations" yaml:"locations" toml:"locations"`
	Events    []Event    `json:"events" yaml:"events" toml:"events"`
}

func IsEntityType(value string) bool {
	for _, t := range EntityTypes {
		if t == value {
			return true
		}
	}
	return false
}

// Normalize replaces nil slices with empty ones so every encoding carries
// explicit lists.
func (s *Scenario) Normalize() {
	if s.Entities == nil {
		s.Entities = []Entity{}
	}
	if s.Locations == nil {
		s.Locations = []Location{}
	}
	if s.Events == nil {
		s.Events = []Event{}
	}
	for i := range s.Events {
		if s.Events[i].Who == nil {
			s.Events[i].Who = []string{}
		}
	}
}

func (s Scenario) Clone() Scenario {
	out := Scenario{
		Entities:  append([]Entity{}, s.Entities...),
		Locations: append([]Location{}, s.Locations...),
		Events:    make([]Event, len(s.Events)),
	}
	for i, event := range s.Events {
		event.Who = append([]string{}, event.Who...)
		out.Events[i] = event
	}
	return out
}

func (s Scenario) EntityNames() []string {
	names := make([]string, 0, len(s.Entities))
	for _, e := range s.Entities {
		names = append(names, e.Name)
	}
	return names
}

func (s Scenario) LocationNames() []string {
	names := make([]string, 0, len(s.Locations))
	for _, l := range s.Locations {
		names = append(names, l.Name)
	}
	return names
}

func (e Event) IsBlank() bool {
	return len(e.Who) == 0 &&
		strings.TrimSpace(e.What) == "" &&
		strings.TrimSpace(e.When) == "" &&
		e.Where == "" &&
		strings.TrimSpace(e.Why) == ""
}
