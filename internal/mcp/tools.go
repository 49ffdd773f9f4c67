package mcp

import (
	"context"
	"fmt"
	"strings"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"reportengine/internal/codec"
	"reportengine/internal/editor"
	"reportengine/internal/validate"
)

type GetScenarioInput struct{}

type AddEntityInput struct {
	Name string `json:"name" jsonschema:"entity name"`
	Type string `json:"type" jsonschema:"person, organization, group, object, or other"`
}

type AddLocationInput struct {
	Name string `json:"name" jsonschema:"location name"`
}

type RemoveInput struct {
	Name string `json:"name" jsonschema:"name to remove"`
}

type AddEventInput struct{}

type EventInput struct {
	ID string `json:"id" jsonschema:"event block id"`
}

type SetEventFieldInput struct {
	ID    string `json:"id" jsonschema:"event block id"`
	Field string `json:"field" jsonschema:"what, when, or why"`
	Value string `json:"value" jsonschema:"new field value"`
}

type SetWhereInput struct {
	ID       string `json:"id" jsonschema:"event block id"`
	Location string `json:"location" jsonschema:"location name, empty to clear"`
}

type ToggleWhoInput struct {
	ID   string `json:"id" jsonschema:"event block id"`
	Name string `json:"name" jsonschema:"entity name to add or remove"`
}

type SortEventsInput struct{}

type ExportInput struct {
	Format string `json:"format,omitempty" jsonschema:"json, yaml, or toml (default json)"`
}

type ImportInput struct {
	Content string `json:"content" jsonschema:"exported scenario document"`
	Format  string `json:"format,omitempty" jsonschema:"json, yaml, or toml (default json)"`
	Source  string `json:"source,omitempty" jsonschema:"label for the imported session"`
}

type ValidateInput struct{}

type ListPromptsInput struct{}

type GeneratePromptInput struct {
	PromptID string `json:"prompt_id" jsonschema:"prompt style id"`
}

type SaveScenarioInput struct {
	Name string `json:"name" jsonschema:"name for the saved scenario"`
}

type ListSavedInput struct{}

type OpenSavedInput struct {
	ID int64 `json:"id" jsonschema:"saved scenario id"`
}

type EntityOutput struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type EventOutput struct {
	ID    string   `json:"id"`
	Title string   `json:"title"`
	Who   []string `json:"who"`
	What  string   `json:"what"`
	When  string   `json:"when"`
	Where string   `json:"where"`
	Why   string   `json:"why"`
}

type ScenarioOutput struct {
	Session   string         `json:"session"`
	Entities  []EntityOutput `json:"entities"`
	Locations []string       `json:"locations"`
	Events    []EventOutput  `json:"events"`
}

type StatusOutput struct {
	Status string `json:"status"`
}

type AddEventOutput struct {
	ID string `json:"id"`
}

type SortEventsOutput struct {
	Direction string `json:"direction"`
}

type ExportOutput struct {
	Name     string `json:"name"`
	Location string `json:"location,omitempty"`
	Content  string `json:"content"`
}

type IssueOutput struct {
	Severity string `json:"severity"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	Event    int    `json:"event,omitempty"`
}

type ValidateOutput struct {
	Issues []IssueOutput `json:"issues"`
}

type PromptOutput struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	IsDeletable bool   `json:"is_deletable"`
}

type ListPromptsOutput struct {
	Prompts []PromptOutput `json:"prompts"`
}

type GeneratePromptOutput struct {
	Prompt string `json:"prompt"`
}

type SaveScenarioOutput struct {
	ID int64 `json:"id"`
}

type SavedOutput struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	LastUpdated string `json:"last_updated"`
}

type ListSavedOutput struct {
	Scenarios []SavedOutput `json:"scenarios"`
}

func (s *Server) registerTools() {
	sdk.AddTool(s.mcp, &sdk.Tool{Name: "get_scenario", Description: "Return the scenario being edited"}, s.handleGetScenario)
	sdk.AddTool(s.mcp, &sdk.Tool{Name: "add_entity", Description: "Add an entity to the scenario"}, s.handleAddEntity)
	sdk.AddTool(s.mcp, &sdk.Tool{Name: "remove_entity", Description: "Remove an entity and drop it from every event"}, s.handleRemoveEntity)
	sdk.AddTool(s.mcp, &sdk.Tool{Name: "add_location", Description: "Add a location"}, s.handleAddLocation)
	sdk.AddTool(s.mcp, &sdk.Tool{Name: "remove_location", Description: "Remove a location and clear it from every event"}, s.handleRemoveLocation)
	sdk.AddTool(s.mcp, &sdk.Tool{Name: "add_event", Description: "Append a blank event"}, s.handleAddEvent)
	sdk.AddTool(s.mcp, &sdk.Tool{Name: "delete_event", Description: "Delete an event"}, s.handleDeleteEvent)
	sdk.AddTool(s.mcp, &sdk.Tool{Name: "set_event_field", Description: "Set the what, when, or why text of an event"}, s.handleSetEventField)
	sdk.AddTool(s.mcp, &sdk.Tool{Name: "set_where", Description: "Set the location of an event"}, s.handleSetWhere)
	sdk.AddTool(s.mcp, &sdk.Tool{Name: "toggle_who", Description: "Add or remove an entity from an event"}, s.handleToggleWho)
	sdk.AddTool(s.mcp, &sdk.Tool{Name: "sort_events", Description: "Sort events by date, alternating newest and oldest first"}, s.handleSortEvents)
	sdk.AddTool(s.mcp, &sdk.Tool{Name: "export_scenario", Description: "Export the scenario as a versioned document"}, s.handleExport)
	sdk.AddTool(s.mcp, &sdk.Tool{Name: "import_scenario", Description: "Replace the scenario with an exported document"}, s.handleImport)
	sdk.AddTool(s.mcp, &sdk.Tool{Name: "validate_scenario", Description: "Report dangling references and other problems"}, s.handleValidate)
	sdk.AddTool(s.mcp, &sdk.Tool{Name: "list_prompts", Description: "List prompt styles"}, s.handleListPrompts)
	sdk.AddTool(s.mcp, &sdk.Tool{Name: "generate_prompt", Description: "Compose an AI prompt from the scenario"}, s.handleGeneratePrompt)
	sdk.AddTool(s.mcp, &sdk.Tool{Name: "save_scenario", Description: "Save the scenario under a name"}, s.handleSaveScenario)
	sdk.AddTool(s.mcp, &sdk.Tool{Name: "list_saved", Description: "List saved scenarios, newest first"}, s.handleListSaved)
	sdk.AddTool(s.mcp, &sdk.Tool{Name: "open_saved", Description: "Replace the scenario with a saved one"}, s.handleOpenSaved)
}

func (s *Server) handleGetScenario(ctx context.Context, req *sdk.CallToolRequest, input GetScenarioInput) (*sdk.CallToolResult, ScenarioOutput, error) {
	return nil, s.scenarioOutput(), nil
}

func (s *Server) handleAddEntity(ctx context.Context, req *sdk.CallToolRequest, input AddEntityInput) (*sdk.CallToolResult, StatusOutput, error) {
	if err := s.ws.AddEntity(input.Name, input.Type); err != nil {
		return nil, StatusOutput{}, err
	}
	return nil, StatusOutput{Status: "success"}, nil
}

func (s *Server) handleRemoveEntity(ctx context.Context, req *sdk.CallToolRequest, input RemoveInput) (*sdk.CallToolResult, StatusOutput, error) {
	for i, e := range s.ws.Entities() {
		if e.Name == input.Name {
			s.ws.RemoveEntityAt(i)
			return nil, StatusOutput{Status: "success"}, nil
		}
	}
	return nil, StatusOutput{}, fmt.Errorf("entity not found: %s", input.Name)
}

func (s *Server) handleAddLocation(ctx context.Context, req *sdk.CallToolRequest, input AddLocationInput) (*sdk.CallToolResult, StatusOutput, error) {
	if err := s.ws.AddLocation(input.Name); err != nil {
		return nil, StatusOutput{}, err
	}
	return nil, StatusOutput{Status: "success"}, nil
}

func (s *Server) handleRemoveLocation(ctx context.Context, req *sdk.CallToolRequest, input RemoveInput) (*sdk.CallToolResult, StatusOutput, error) {
	for i, l := range s.ws.Locations() {
		if l.Name == input.Name {
			s.ws.RemoveLocationAt(i)
			return nil, StatusOutput{Status: "success"}, nil
		}
	}
	return nil, StatusOutput{}, fmt.Errorf("location not found: %s", input.Name)
}

func (s *Server) handleAddEvent(ctx context.Context, req *sdk.CallToolRequest, input AddEventInput) (*sdk.CallToolResult, AddEventOutput, error) {
	return nil, AddEventOutput{ID: s.ws.AddEvent()}, nil
}

func (s *Server) handleDeleteEvent(ctx context.Context, req *sdk.CallToolRequest, input EventInput) (*sdk.CallToolResult, StatusOutput, error) {
	if err := s.ws.DeleteEvent(input.ID); err != nil {
		return nil, StatusOutput{}, err
	}
	return nil, StatusOutput{Status: "success"}, nil
}

func (s *Server) handleSetEventField(ctx context.Context, req *sdk.CallToolRequest, input SetEventFieldInput) (*sdk.CallToolResult, StatusOutput, error) {
	field, err := editor.ParseField(input.Field)
	if err != nil {
		return nil, StatusOutput{}, err
	}
	if err := s.ws.SetField(input.ID, field, input.Value); err != nil {
		return nil, StatusOutput{}, err
	}
	return nil, StatusOutput{Status: "success"}, nil
}

func (s *Server) handleSetWhere(ctx context.Context, req *sdk.CallToolRequest, input SetWhereInput) (*sdk.CallToolResult, StatusOutput, error) {
	if err := s.ws.SetWhere(input.ID, input.Location); err != nil {
		return nil, StatusOutput{}, err
	}
	return nil, StatusOutput{Status: "success"}, nil
}

func (s *Server) handleToggleWho(ctx context.Context, req *sdk.CallToolRequest, input ToggleWhoInput) (*sdk.CallToolResult, StatusOutput, error) {
	if err := s.ws.ToggleWho(input.ID, input.Name); err != nil {
		return nil, StatusOutput{}, err
	}
	return nil, StatusOutput{Status: "success"}, nil
}

func (s *Server) handleSortEvents(ctx context.Context, req *sdk.CallToolRequest, input SortEventsInput) (*sdk.CallToolResult, SortEventsOutput, error) {
	return nil, SortEventsOutput{Direction: s.ws.Sort().String()}, nil
}

func (s *Server) handleExport(ctx context.Context, req *sdk.CallToolRequest, input ExportInput) (*sdk.CallToolResult, ExportOutput, error) {
	format, err := parseFormat(input.Format)
	if err != nil {
		return nil, ExportOutput{}, err
	}
	art, err := s.ws.ExportFormat(format)
	if err != nil {
		return nil, ExportOutput{}, err
	}
	out := ExportOutput{Name: art.Name, Content: string(art.Body)}
	if s.sink != nil {
		info, err := s.sink.Put(ctx, art)
		if err != nil {
			return nil, ExportOutput{}, err
		}
		out.Location = info.Location
	}
	return nil, out, nil
}

func (s *Server) handleImport(ctx context.Context, req *sdk.CallToolRequest, input ImportInput) (*sdk.CallToolResult, ScenarioOutput, error) {
	format, err := parseFormat(input.Format)
	if err != nil {
		return nil, ScenarioOutput{}, err
	}
	source := input.Source
	if source == "" {
		source = "mcp"
	}
	if err := s.ws.Import([]byte(input.Content), format, source, true); err != nil {
		return nil, ScenarioOutput{}, err
	}
	return nil, s.scenarioOutput(), nil
}

func (s *Server) handleValidate(ctx context.Context, req *sdk.CallToolRequest, input ValidateInput) (*sdk.CallToolResult, ValidateOutput, error) {
	report := validate.Run(s.ws.Snapshot())
	out := ValidateOutput{Issues: make([]IssueOutput, 0, len(report.Issues))}
	for _, issue := range report.Issues {
		out.Issues = append(out.Issues, IssueOutput{
			Severity: string(issue.Severity),
			Code:     issue.Code,
			Message:  issue.Message,
			Event:    issue.Event,
		})
	}
	return nil, out, nil
}

func (s *Server) handleListPrompts(ctx context.Context, req *sdk.CallToolRequest, input ListPromptsInput) (*sdk.CallToolResult, ListPromptsOutput, error) {
	prompts, err := s.ws.Prompts(ctx)
	if err != nil {
		return nil, ListPromptsOutput{}, err
	}
	out := ListPromptsOutput{Prompts: make([]PromptOutput, 0, len(prompts))}
	for _, p := range prompts {
		out.Prompts = append(out.Prompts, PromptOutput{ID: p.ID, Name: p.Name, IsDeletable: p.IsDeletable})
	}
	return nil, out, nil
}

func (s *Server) handleGeneratePrompt(ctx context.Context, req *sdk.CallToolRequest, input GeneratePromptInput) (*sdk.CallToolResult, GeneratePromptOutput, error) {
	if input.PromptID == "" {
		return nil, GeneratePromptOutput{}, fmt.Errorf("prompt_id is required")
	}
	text, err := s.ws.Generate(ctx, input.PromptID)
	if err != nil {
		return nil, GeneratePromptOutput{}, err
	}
	return nil, GeneratePromptOutput{Prompt: text}, nil
}

func (s *Server) handleSaveScenario(ctx context.Context, req *sdk.CallToolRequest, input SaveScenarioInput) (*sdk.CallToolResult, SaveScenarioOutput, error) {
	resp, err := s.ws.Save(ctx, input.Name)
	if err != nil {
		return nil, SaveScenarioOutput{}, err
	}
	return nil, SaveScenarioOutput{ID: resp.ID}, nil
}

func (s *Server) handleListSaved(ctx context.Context, req *sdk.CallToolRequest, input ListSavedInput) (*sdk.CallToolResult, ListSavedOutput, error) {
	items, err := s.ws.ListSaved(ctx)
	if err != nil {
		return nil, ListSavedOutput{}, err
	}
	out := ListSavedOutput{Scenarios: make([]SavedOutput, 0, len(items))}
	for _, item := range items {
		out.Scenarios = append(out.Scenarios, SavedOutput{ID: item.ID, Name: item.Name, LastUpdated: item.LastUpdated})
	}
	return nil, out, nil
}

func (s *Server) handleOpenSaved(ctx context.Context, req *sdk.CallToolRequest, input OpenSavedInput) (*sdk.CallToolResult, ScenarioOutput, error) {
	if err := s.ws.OpenSaved(ctx, input.ID, true); err != nil {
		return nil, ScenarioOutput{}, err
	}
	return nil, s.scenarioOutput(), nil
}

func (s *Server) scenarioOutput() ScenarioOutput {
	snap := s.ws.Snapshot()
	out := ScenarioOutput{
		Session:   s.ws.SessionName(),
		Entities:  make([]EntityOutput, 0, len(snap.Entities)),
		Locations: snap.LocationNames(),
		Events:    make([]EventOutput, 0),
	}
	for _, e := range snap.Entities {
		out.Entities = append(out.Entities, EntityOutput{Name: e.Name, Type: e.Type})
	}
	for _, block := range s.ws.Blocks() {
		who := make([]string, 0, len(block.Pills))
		for _, pill := range block.Pills {
			who = append(who, pill.Value)
		}
		out.Events = append(out.Events, EventOutput{
			ID:    block.ID,
			Title: block.Title,
			Who:   who,
			What:  block.What,
			When:  block.When,
			Where: block.Where,
			Why:   block.Why,
		})
	}
	return out
}

func parseFormat(value string) (codec.Format, error) {
	switch codec.Format(strings.ToLower(strings.TrimSpace(value))) {
	case "", codec.FormatJSON:
		return codec.FormatJSON, nil
	case codec.FormatYAML, "yml":
		return codec.FormatYAML, nil
	case codec.FormatTOML:
		return codec.FormatTOML, nil
	default:
		return "", fmt.Errorf("unsupported format: %s", value)
	}
}
