package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"reportengine/internal/api"
	"reportengine/internal/clock"
	"reportengine/internal/service"
	"reportengine/internal/store"
	"reportengine/internal/store/sqlite"
)

func newTestServer(t *testing.T) (*httptest.Server, *sqlite.Client) {
	t.Helper()
	ctx := context.Background()
	st, err := sqlite.New(ctx, "sqlite://:memory:")
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { st.Close(ctx) })
	if err := st.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	clk := clock.NewManual(time.Date(2024, 1, 2, 15, 4, 0, 0, time.UTC))
	srv := httptest.NewServer(New(service.New(st, clk, nil), Config{}).Handler())
	t.Cleanup(srv.Close)
	return srv, st
}

func post(t *testing.T, url, body string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return resp, data
}

func get(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return resp, data
}

func TestAutosaveAndSession(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := get(t, srv.URL+"/api/session")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var session api.Session
	json.Unmarshal(body, &session)
	if session.Name != "New Scenario" {
		t.Errorf("initial session = %+v", session)
	}

	resp, body = post(t, srv.URL+"/api/autosave", `{"entities":[{"name":"Alice","type":"person"}],"locations":[],"events":[{"who":"Alice","what":"x","when":"","where":"","why":""}]}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("autosave status = %d: %s", resp.StatusCode, body)
	}
	var saved api.AutosaveResponse
	json.Unmarshal(body, &saved)
	if saved.Status != api.StatusSuccess || saved.Name != "Auto-save @ Jan 02, 15:04" {
		t.Errorf("autosave = %+v", saved)
	}

	_, body = get(t, srv.URL+"/api/session")
	json.Unmarshal(body, &session)
	if !strings.Contains(string(session.Content), `"who":["Alice"]`) {
		t.Errorf("legacy who not migrated: %s", session.Content)
	}

	resp, _ = post(t, srv.URL+"/api/autosave", `{"foo":1}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad shape status = %d", resp.StatusCode)
	}
}

func TestSaveValidation(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		name string
		body string
		code int
	}{
		{name: "missing name", body: `{"content":{"entities":[],"locations":[],"events":[]}}`, code: http.StatusBadRequest},
		{name: "missing content", body: `{"name":"x"}`, code: http.StatusBadRequest},
		{name: "not json", body: `{`, code: http.StatusBadRequest},
		{name: "ok", body: `{"name":"Heist","content":{"entities":[],"locations":[],"events":[]}}`, code: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := post(t, srv.URL+"/api/save", tt.body)
			if resp.StatusCode != tt.code {
				t.Errorf("status = %d, want %d: %s", resp.StatusCode, tt.code, body)
			}
		})
	}
}

func TestOversizedBody(t *testing.T) {
	ctx := context.Background()
	st, err := sqlite.New(ctx, "sqlite://:memory:")
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { st.Close(ctx) })
	if err := st.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	h := New(service.New(st, clock.NewManual(time.Unix(0, 0)), nil), Config{}).Handler()

	for _, path := range []string{"/api/autosave", "/api/save"} {
		t.Run(path, func(t *testing.T) {
			body := `{"name":"` + strings.Repeat("x", maxBodyBytes) + `"}`
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, strings.NewReader(body)))

			if rec.Code != http.StatusRequestEntityTooLarge {
				t.Fatalf("status = %d, want 413", rec.Code)
			}
			var resp api.StatusResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decoding response: %v", err)
			}
			if resp.Message != "Request body too large" {
				t.Errorf("message = %q", resp.Message)
			}
		})
	}
}

func TestDeleteStatusCodes(t *testing.T) {
	srv, st := newTestServer(t)
	ctx := context.Background()

	slot, err := st.UpsertAutosave(ctx, []byte(`{}`), "Auto-save")
	if err != nil {
		t.Fatalf("UpsertAutosave: %v", err)
	}
	id, err := st.SaveScenario(ctx, "Heist", []byte(`{}`))
	if err != nil {
		t.Fatalf("SaveScenario: %v", err)
	}

	tests := []struct {
		name string
		path string
		code int
	}{
		{name: "autosave row", path: "/api/delete/" + itoa(slot.ID), code: http.StatusForbidden},
		{name: "unknown", path: "/api/delete/999", code: http.StatusNotFound},
		{name: "bad id", path: "/api/delete/abc", code: http.StatusBadRequest},
		{name: "saved", path: "/api/delete/" + itoa(id), code: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := post(t, srv.URL+tt.path, "")
			if resp.StatusCode != tt.code {
				t.Errorf("status = %d, want %d: %s", resp.StatusCode, tt.code, body)
			}
		})
	}
}

func TestPromptRoutes(t *testing.T) {
	srv, st := newTestServer(t)
	ctx := context.Background()
	if err := st.UpsertPrompt(ctx, store.PromptInput{ID: "narrative", Name: "Narrative", Instruction: "Tell it.", Builtin: true}); err != nil {
		t.Fatalf("UpsertPrompt: %v", err)
	}

	resp, body := post(t, srv.URL+"/api/prompts", `{"name":"Mine","instruction":"Do it."}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("add status = %d: %s", resp.StatusCode, body)
	}
	var added api.AddPromptResponse
	json.Unmarshal(body, &added)

	_, body = get(t, srv.URL+"/api/prompts")
	var prompts []api.Prompt
	json.Unmarshal(body, &prompts)
	if len(prompts) != 2 || prompts[0].IsDeletable || !prompts[1].IsDeletable {
		t.Errorf("prompts = %+v", prompts)
	}

	resp, _ = post(t, srv.URL+"/api/prompts/narrative/delete", "")
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("builtin delete status = %d", resp.StatusCode)
	}
	resp, _ = post(t, srv.URL+"/api/prompts/"+added.ID+"/delete", "")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("custom delete status = %d", resp.StatusCode)
	}

	resp, body = post(t, srv.URL+"/api/generate-prompt", `{"style":"narrative","scenario":{"entities":[{"name":"Alice","type":"person"}],"locations":[],"events":[]}}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("generate status = %d", resp.StatusCode)
	}
	var gen api.GenerateResponse
	json.Unmarshal(body, &gen)
	if gen.Prompt != "Tell it.\n\n--- Dramatis Personae ---\n- Alice (person)" {
		t.Errorf("prompt = %q", gen.Prompt)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, body := get(t, srv.URL+"/healthz")
	if resp.StatusCode != http.StatusOK || string(body) != "ok" {
		t.Errorf("healthz = %d %q", resp.StatusCode, body)
	}

	get(t, srv.URL+"/api/saved-scenarios")
	_, body = get(t, srv.URL+"/metrics")
	if !strings.Contains(string(body), `reportengine_http_requests_total{code="200",route="GET /api/saved-scenarios"} 1`) {
		t.Errorf("metrics missing request counter:\n%s", body)
	}
}

func itoa(id int64) string {
	b, _ := json.Marshal(id)
	return string(b)
}
