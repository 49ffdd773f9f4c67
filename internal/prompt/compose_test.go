package prompt

import (
	"strings"
	"testing"

	"reportengine/internal/scenario"
)

func TestCompose(t *testing.T) {
	s := scenario.Scenario{
		Entities:  []scenario.Entity{{Name: "Alice", Type: "person"}, {Name: "ACME", Type: "organization"}},
		Locations: []scenario.Location{{Name: "Cafe"}},
		Events: []scenario.Event{
			{Who: []string{"Alice", "ACME"}, What: "Meeting", When: "2024-01-01", Where: "Cafe", Why: "Discuss plan"},
			{What: "Aftermath"},
		},
	}

	got := Compose("Write a story.", s)
	want := strings.Join([]string{
		"Write a story.",
		"--- Dramatis Personae ---\n- Alice (person)\n- ACME (organization)",
		"--- Key Locations ---\n- Cafe",
		"--- Sequence of Events ---\n" +
			"Event #1:\n- Involved: Alice, ACME\n- What: Meeting\n- When: 2024-01-01\n- Where: Cafe\n- Why/Motivation: Discuss plan\n" +
			"Event #2:\n- Involved: N/A\n- What: Aftermath\n- When: N/A\n- Where: N/A\n- Why/Motivation: N/A",
	}, "\n\n")
	if got != want {
		t.Fatalf("unexpected prompt:\n%s\n--- want ---\n%s", got, want)
	}
}

func TestComposeOmitsEmptySections(t *testing.T) {
	got := Compose("", scenario.Scenario{})
	if got != FallbackInstruction {
		t.Fatalf("expected only the fallback instruction, got %q", got)
	}
}
