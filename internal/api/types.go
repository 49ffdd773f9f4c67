// Package api holds the request and response shapes shared by the HTTP
// server, its client, and the in-process service.
package api

import (
	"encoding/json"

	"reportengine/internal/scenario"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type AutosaveResponse struct {
	Status string `json:"status"`
	Name   string `json:"name,omitempty"`
}

type SaveRequest struct {
	Name    string             `json:"name"`
	Content *scenario.Scenario `json:"content"`
}

type SaveResponse struct {
	Status  string `json:"status"`
	ID      int64  `json:"id,omitempty"`
	Message string `json:"message,omitempty"`
}

type SavedScenario struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	LastUpdated string `json:"last_updated"`
}

// Session is the working draft handed to an editor at startup or after
// opening a saved scenario. Content is the raw stored scenario document.
type Session struct {
	Name    string          `json:"name"`
	Content json.RawMessage `json:"content,omitempty"`
}

type Prompt struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Instruction string `json:"instruction"`
	IsDeletable bool   `json:"is_deletable"`
}

type AddPromptRequest struct {
	Name        string `json:"name"`
	Instruction string `json:"instruction"`
}

type AddPromptResponse struct {
	Status  string `json:"status"`
	ID      string `json:"id,omitempty"`
	Message string `json:"message,omitempty"`
}

type GenerateRequest struct {
	PromptID string            `json:"prompt_id"`
	Style    string            `json:"style,omitempty"`
	Scenario scenario.Scenario `json:"scenario"`
}

type GenerateResponse struct {
	Prompt string `json:"prompt"`
}

const LastUpdatedLayout = "Jan 02, 2006 15:04 UTC"
