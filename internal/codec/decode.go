package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"reportengine/internal/scenario"
)

// Document is a decoded import payload. Meta is nil for a bare scenario.
type Document struct {
	Scenario scenario.Scenario
	Meta     *Meta
}

func (d Document) Enveloped() bool { return d.Meta != nil }

type names []string

func (n *names) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*n = nil
		return nil
	}
	if strings.HasPrefix(trimmed, `"`) {
		var single string
		if err := json.Unmarshal(data, &single); err != nil {
			return err
		}
		*n = splitLegacy(single)
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*n = list
	return nil
}

func (n *names) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		if value.Tag == "!!null" {
			*n = nil
			return nil
		}
		*n = splitLegacy(value.Value)
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := value.Decode(&list); err != nil {
			return err
		}
		*n = list
		return nil
	default:
		return fmt.Errorf("who must be a list of names")
	}
}

// splitLegacy turns the single-string who field of older exports into a list.
func splitLegacy(value string) []string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return []string{value}
}

type wireEvent struct {
	Who   names  `json:"who" yaml:"who" toml:"who"`
	What  string `json:"what" yaml:"what" toml:"what"`
	When  string `json:"when" yaml:"when" toml:"when"`
	Where string `json:"where" yaml:"where" toml:"where"`
	Why   string `json:"why" yaml:"why" toml:"why"`
}

type wireScenario struct {
	Entities  []scenario.Entity   `json:"entities" yaml:"entities" toml:"entities"`
	Locations []scenario.Location `json:"locations" yaml:"locations" toml:"locations"`
	Events    []wireEvent         `json:"events" yaml:"events" toml:"events"`
}

type wireMeta struct {
	ExportedAt    any    `json:"exported_at" yaml:"exported_at" toml:"exported_at"`
	AppVersion    string `json:"app_version" yaml:"app_version" toml:"app_version"`
	FormatVersion string `json:"format_version" yaml:"format_version" toml:"format_version"`
}

type wireDocument struct {
	Meta         wireMeta     `json:"meta" yaml:"meta" toml:"meta"`
	ScenarioData wireScenario `json:"scenario_data" yaml:"scenario_data" toml:"scenario_data"`
	wireScenario `yaml:",inline"`
}

// Decode reads a JSON import payload.
func Decode(raw []byte) (scenario.Scenario, error) {
	doc, err := DecodeDocument(raw, FormatJSON)
	if err != nil {
		return scenario.Scenario{}, err
	}
	return doc.Scenario, nil
}

// DecodeDocument tries the envelope shape first, then the bare shape.
func DecodeDocument(raw []byte, format Format) (Document, error) {
	keys, objects, err := topLevelKeys(raw, format)
	if err != nil {
		return Document{}, &FormatError{Reason: "not a structured " + string(format) + " object", Err: err}
	}

	var doc wireDocument
	if err := unmarshal(raw, format, &doc); err != nil {
		return Document{}, &FormatError{Reason: "unexpected field types", Err: err}
	}

	switch {
	case keys["scenario_data"] && keys["meta"]:
		if !objects["scenario_data"] {
			return Document{}, &FormatError{Reason: "scenario_data must be an object"}
		}
		meta := doc.Meta.toMeta()
		return Document{Scenario: doc.ScenarioData.toScenario(), Meta: &meta}, nil
	case keys["entities"] && keys["events"]:
		return Document{Scenario: doc.wireScenario.toScenario()}, nil
	default:
		return Document{}, &FormatError{Reason: "expected entities and events, or meta and scenario_data"}
	}
}

// topLevelKeys reports which keys the payload carries and which of them
// hold a nested object.
func topLevelKeys(raw []byte, format Format) (keys, objects map[string]bool, err error) {
	keys = make(map[string]bool)
	objects = make(map[string]bool)
	switch format {
	case FormatJSON:
		var top map[string]json.RawMessage
		if err := json.Unmarshal(raw, &top); err != nil {
			return nil, nil, err
		}
		if top == nil {
			return nil, nil, fmt.Errorf("payload is null")
		}
		for key, value := range top {
			keys[key] = true
			objects[key] = bytes.HasPrefix(bytes.TrimSpace(value), []byte("{"))
		}
	case FormatYAML:
		var top map[string]any
		if err := yaml.Unmarshal(raw, &top); err != nil {
			return nil, nil, err
		}
		if top == nil {
			return nil, nil, fmt.Errorf("payload is empty")
		}
		markKeys(top, keys, objects)
	case FormatTOML:
		var top map[string]any
		if err := toml.Unmarshal(raw, &top); err != nil {
			return nil, nil, err
		}
		markKeys(top, keys, objects)
	default:
		return nil, nil, fmt.Errorf("unsupported format %q", format)
	}
	return keys, objects, nil
}

func markKeys(top map[string]any, keys, objects map[string]bool) {
	for key, value := range top {
		keys[key] = true
		switch value.(type) {
		case map[string]any, map[any]any:
			objects[key] = true
		}
	}
}

func unmarshal(raw []byte, format Format, out *wireDocument) error {
	switch format {
	case FormatJSON:
		return json.Unmarshal(raw, out)
	case FormatYAML:
		return yaml.Unmarshal(raw, out)
	case FormatTOML:
		return toml.Unmarshal(raw, out)
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}

func (w wireScenario) toScenario() scenario.Scenario {
	s := scenario.Scenario{
		Entities:  append([]scenario.Entity{}, w.Entities...),
		Locations: append([]scenario.Location{}, w.Locations...),
		Events:    make([]scenario.Event, 0, len(w.Events)),
	}
	for _, e := range w.Events {
		s.Events = append(s.Events, scenario.Event{
			Who:   append([]string{}, e.Who...),
			What:  e.What,
			When:  e.When,
			Where: e.Where,
			Why:   e.Why,
		})
	}
	s.Normalize()
	return s
}

func (w wireMeta) toMeta() Meta {
	meta := Meta{AppVersion: w.AppVersion, FormatVersion: w.FormatVersion}
	switch v := w.ExportedAt.(type) {
	case time.Time:
		meta.ExportedAt = v
	case string:
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			meta.ExportedAt = t
		}
	case toml.LocalDateTime:
		meta.ExportedAt = v.AsTime(time.UTC)
	}
	return meta
}
