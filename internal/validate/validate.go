// Package validate lints a scenario for problems the editor would silently
// repair or that make the generated prompt misleading.
package validate

import (
	"fmt"
	"strings"

	"reportengine/internal/editor"
	"reportengine/internal/scenario"
)

type Severity string

const (
	SeverityError Severity = "error"
	SeverityWarn  Severity = "warning"
)

const (
	codeEmptyName         = "empty_name"
	codeDuplicateName     = "duplicate_name"
	codeInvalidEntityType = "entity_type_invalid"
	codeDanglingWho       = "dangling_who"
	codeDuplicateWho      = "duplicate_who"
	codeDanglingWhere     = "dangling_where"
	codeUnparsableWhen    = "unparsable_when"
	codeEmptyEvent        = "empty_event"
)

// Issue describes one problem. Event is the 1-based event number, or 0 when
// the issue is about the entity or location lists.
type Issue struct {
	Severity Severity
	Code     string
	Message  string
	Event    int
	Name     string
}

type Report struct {
	Issues []Issue
}

func (r *Report) HasErrors() bool {
	for _, issue := range r.Issues {
		if issue.Severity == SeverityError {
			return true
		}
	}
	return false
}

func (r *Report) Count(severity Severity) int {
	n := 0
	for _, issue := range r.Issues {
		if issue.Severity == severity {
			n++
		}
	}
	return n
}

func Run(s scenario.Scenario) *Report {
	issues := make([]Issue, 0)
	issues = append(issues, validateEntities(s.Entities)...)
	issues = append(issues, validateLocations(s.Locations)...)

	entities := make(map[string]bool, len(s.Entities))
	for _, e := range s.Entities {
		entities[e.Name] = true
	}
	locations := make(map[string]bool, len(s.Locations))
	for _, l := range s.Locations {
		locations[l.Name] = true
	}
	for i, event := range s.Events {
		issues = append(issues, validateEvent(i+1, event, entities, locations)...)
	}
	return &Report{Issues: issues}
}

func validateEntities(entities []scenario.Entity) []Issue {
	var issues []Issue
	seen := make(map[string]bool, len(entities))
	for _, e := range entities {
		if strings.TrimSpace(e.Name) == "" {
			issues = append(issues, Issue{Severity: SeverityError, Code: codeEmptyName, Message: "entity with empty name"})
			continue
		}
		if seen[e.Name] {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Code:     codeDuplicateName,
				Message:  fmt.Sprintf("duplicate entity name: %s", e.Name),
				Name:     e.Name,
			})
		}
		seen[e.Name] = true
		if !scenario.IsEntityType(e.Type) {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Code:     codeInvalidEntityType,
				Message:  fmt.Sprintf("invalid entity type for %s: %q", e.Name, e.Type),
				Name:     e.Name,
			})
		}
	}
	return issues
}

func validateLocations(locations []scenario.Location) []Issue {
	var issues []Issue
	seen := make(map[string]bool, len(locations))
	for _, l := range locations {
		if strings.TrimSpace(l.Name) == "" {
			issues = append(issues, Issue{Severity: SeverityError, Code: codeEmptyName, Message: "location with empty name"})
			continue
		}
		if seen[l.Name] {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Code:     codeDuplicateName,
				Message:  fmt.Sprintf("duplicate location name: %s", l.Name),
				Name:     l.Name,
			})
		}
		seen[l.Name] = true
	}
	return issues
}

func validateEvent(n int, event scenario.Event, entities, locations map[string]bool) []Issue {
	if event.IsBlank() {
		return []Issue{{Severity: SeverityWarn, Code: codeEmptyEvent, Message: "event has no content", Event: n}}
	}

	var issues []Issue
	seen := make(map[string]bool, len(event.Who))
	for _, name := range event.Who {
		if seen[name] {
			issues = append(issues, Issue{
				Severity: SeverityWarn,
				Code:     codeDuplicateWho,
				Message:  fmt.Sprintf("%s listed twice", name),
				Event:    n,
				Name:     name,
			})
			continue
		}
		seen[name] = true
		if !entities[name] {
			issues = append(issues, Issue{
				Severity: SeverityWarn,
				Code:     codeDanglingWho,
				Message:  fmt.Sprintf("unknown entity %s will be dropped", name),
				Event:    n,
				Name:     name,
			})
		}
	}

	if event.Where != "" && !locations[event.Where] {
		issues = append(issues, Issue{
			Severity: SeverityWarn,
			Code:     codeDanglingWhere,
			Message:  fmt.Sprintf("unknown location %s will be cleared", event.Where),
			Event:    n,
			Name:     event.Where,
		})
	}

	if strings.TrimSpace(event.When) != "" {
		if _, ok := editor.ParseWhen(event.When); !ok {
			issues = append(issues, Issue{
				Severity: SeverityWarn,
				Code:     codeUnparsableWhen,
				Message:  fmt.Sprintf("date %q is not recognised and sorts last", event.When),
				Event:    n,
			})
		}
	}
	return issues
}
