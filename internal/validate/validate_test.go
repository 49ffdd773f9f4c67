package validate

import (
	"testing"

	"reportengine/internal/scenario"
)

func codes(report *Report) []string {
	out := make([]string, 0, len(report.Issues))
	for _, issue := range report.Issues {
		out = append(out, issue.Code)
	}
	return out
}

func TestRunClean(t *testing.T) {
	report := Run(scenario.Scenario{
		Entities:  []scenario.Entity{{Name: "Alice", Type: "person"}},
		Locations: []scenario.Location{{Name: "Cafe"}},
		Events:    []scenario.Event{{Who: []string{"Alice"}, What: "Meeting", When: "2024-01-01", Where: "Cafe"}},
	})
	if len(report.Issues) != 0 {
		t.Fatalf("expected no issues, got %+v", report.Issues)
	}
	if report.HasErrors() {
		t.Fatal("clean report has errors")
	}
}

func TestValidateEntities(t *testing.T) {
	report := Run(scenario.Scenario{
		Entities: []scenario.Entity{
			{Name: "Alice", Type: "person"},
			{Name: "Alice", Type: "person"},
			{Name: "alice", Type: "robot"},
			{Name: " ", Type: "person"},
		},
		Locations: []scenario.Location{{Name: "Cafe"}, {Name: "Cafe"}},
	})

	got := codes(report)
	want := []string{codeDuplicateName, codeInvalidEntityType, codeEmptyName, codeDuplicateName}
	if len(got) != len(want) {
		t.Fatalf("codes = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("codes = %v, want %v", got, want)
		}
	}
	if report.Count(SeverityError) != 4 || !report.HasErrors() {
		t.Errorf("error count = %d", report.Count(SeverityError))
	}
}

func TestValidateEvents(t *testing.T) {
	tests := []struct {
		name  string
		event scenario.Event
		want  []string
	}{
		{name: "blank", event: scenario.Event{}, want: []string{codeEmptyEvent}},
		{name: "dangling who", event: scenario.Event{Who: []string{"Bob"}, What: "x"}, want: []string{codeDanglingWho}},
		{name: "duplicate who", event: scenario.Event{Who: []string{"Alice", "Alice"}}, want: []string{codeDuplicateWho}},
		{name: "dangling where", event: scenario.Event{Where: "Moon"}, want: []string{codeDanglingWhere}},
		{name: "bad date", event: scenario.Event{What: "x", When: "last tuesday"}, want: []string{codeUnparsableWhen}},
		{name: "datetime ok", event: scenario.Event{What: "x", When: "2024-01-01T10:30"}, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := Run(scenario.Scenario{
				Entities:  []scenario.Entity{{Name: "Alice", Type: "person"}},
				Locations: []scenario.Location{{Name: "Cafe"}},
				Events:    []scenario.Event{tt.event},
			})
			got := codes(report)
			if len(got) != len(tt.want) {
				t.Fatalf("codes = %v, want %v", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Fatalf("codes = %v, want %v", got, tt.want)
				}
				if report.Issues[i].Event != 1 {
					t.Errorf("event number = %d", report.Issues[i].Event)
				}
			}
			if report.HasErrors() {
				t.Error("event issues should be warnings")
			}
		})
	}
}
