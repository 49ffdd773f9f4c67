// Package client talks to the report engine HTTP API. It satisfies the
// editor's persistence, prompt catalog, and generator interfaces.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"reportengine/internal/api"
	"reportengine/internal/editor"
	"reportengine/internal/scenario"
)

var (
	_ editor.Persistence   = (*Client)(nil)
	_ editor.PromptCatalog = (*Prompts)(nil)
	_ editor.Generator     = (*Client)(nil)
)

// StatusError is a non-2xx reply from the server.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.Code)
	}
	return fmt.Sprintf("server returned %d: %s", e.Code, e.Message)
}

type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

func (c *Client) Session(ctx context.Context) (api.Session, error) {
	var out api.Session
	if err := c.do(ctx, http.MethodGet, "/api/session", nil, &out); err != nil {
		return api.Session{}, fmt.Errorf("loading session: %w", err)
	}
	return out, nil
}

func (c *Client) Autosave(ctx context.Context, s scenario.Scenario) (api.AutosaveResponse, error) {
	s.Normalize()
	var out api.AutosaveResponse
	if err := c.do(ctx, http.MethodPost, "/api/autosave", s, &out); err != nil {
		return api.AutosaveResponse{}, fmt.Errorf("autosaving: %w", err)
	}
	return out, nil
}

func (c *Client) Save(ctx context.Context, name string, s scenario.Scenario) (api.SaveResponse, error) {
	s.Normalize()
	var out api.SaveResponse
	req := api.SaveRequest{Name: name, Content: &s}
	if err := c.do(ctx, http.MethodPost, "/api/save", req, &out); err != nil {
		return api.SaveResponse{}, fmt.Errorf("saving %q: %w", name, err)
	}
	return out, nil
}

func (c *Client) List(ctx context.Context) ([]api.SavedScenario, error) {
	var out []api.SavedScenario
	if err := c.do(ctx, http.MethodGet, "/api/saved-scenarios", nil, &out); err != nil {
		return nil, fmt.Errorf("listing saved scenarios: %w", err)
	}
	return out, nil
}

func (c *Client) Delete(ctx context.Context, id int64) error {
	if err := c.do(ctx, http.MethodPost, "/api/delete/"+strconv.FormatInt(id, 10), nil, nil); err != nil {
		return fmt.Errorf("deleting scenario %d: %w", id, err)
	}
	return nil
}

func (c *Client) Open(ctx context.Context, id int64) (api.Session, error) {
	var out api.Session
	if err := c.do(ctx, http.MethodPost, "/api/load/"+strconv.FormatInt(id, 10), nil, &out); err != nil {
		return api.Session{}, fmt.Errorf("opening scenario %d: %w", id, err)
	}
	return out, nil
}

func (c *Client) Generate(ctx context.Context, promptID string, s scenario.Scenario) (string, error) {
	s.Normalize()
	var out api.GenerateResponse
	req := api.GenerateRequest{PromptID: promptID, Scenario: s}
	if err := c.do(ctx, http.MethodPost, "/api/generate-prompt", req, &out); err != nil {
		return "", fmt.Errorf("generating prompt: %w", err)
	}
	return out.Prompt, nil
}

func (c *Client) Prompts() *Prompts {
	return &Prompts{c: c}
}

type Prompts struct {
	c *Client
}

func (p *Prompts) List(ctx context.Context) ([]api.Prompt, error) {
	var out []api.Prompt
	if err := p.c.do(ctx, http.MethodGet, "/api/prompts", nil, &out); err != nil {
		return nil, fmt.Errorf("listing prompts: %w", err)
	}
	return out, nil
}

func (p *Prompts) Add(ctx context.Context, name, instruction string) (api.Prompt, error) {
	var out api.AddPromptResponse
	req := api.AddPromptRequest{Name: name, Instruction: instruction}
	if err := p.c.do(ctx, http.MethodPost, "/api/prompts", req, &out); err != nil {
		return api.Prompt{}, fmt.Errorf("adding prompt %q: %w", name, err)
	}
	return api.Prompt{ID: out.ID, Name: name, Instruction: instruction, IsDeletable: true}, nil
}

func (p *Prompts) Delete(ctx context.Context, id string) error {
	path := "/api/prompts/" + url.PathEscape(id) + "/delete"
	if err := p.c.do(ctx, http.MethodPost, path, nil, nil); err != nil {
		return fmt.Errorf("deleting prompt %s: %w", id, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var status api.StatusResponse
		json.Unmarshal(data, &status)
		return &StatusError{Code: resp.StatusCode, Message: status.Message}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
