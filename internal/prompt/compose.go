package prompt

import (
	"fmt"
	"strings"

	"reportengine/internal/scenario"
)

const FallbackInstruction = "Summarize the following scenario. Introduce the entities and locations involved, then describe each event in order."

const notAvailable = "N/A"

// Compose renders the instruction followed by the cast, location, and event
// sections. Sections with nothing to list are left out.
func Compose(instruction string, s scenario.Scenario) string {
	if strings.TrimSpace(instruction) == "" {
		instruction = FallbackInstruction
	}
	parts := []string{instruction}

	if len(s.Entities) > 0 {
		lines := []string{"--- Dramatis Personae ---"}
		for _, e := range s.Entities {
			lines = append(lines, fmt.Sprintf("- %s (%s)", e.Name, e.Type))
		}
		parts = append(parts, strings.Join(lines, "\n"))
	}

	if len(s.Locations) > 0 {
		lines := []string{"--- Key Locations ---"}
		for _, l := range s.Locations {
			lines = append(lines, "- "+l.Name)
		}
		parts = append(parts, strings.Join(lines, "\n"))
	}

	if len(s.Events) > 0 {
		lines := []string{"--- Sequence of Events ---"}
		for i, e := range s.Events {
			who := strings.Join(e.Who, ", ")
			lines = append(lines, fmt.Sprintf(
				"Event #%d:\n- Involved: %s\n- What: %s\n- When: %s\n- Where: %s\n- Why/Motivation: %s",
				i+1, orNA(who), orNA(e.What), orNA(e.When), orNA(e.Where), orNA(e.Why),
			))
		}
		parts = append(parts, strings.Join(lines, "\n"))
	}

	return strings.Join(parts, "\n\n")
}

func orNA(value string) string {
	if strings.TrimSpace(value) == "" {
		return notAvailable
	}
	return value
}
