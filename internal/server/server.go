// Package server exposes the scenario service over a JSON HTTP API.
package server

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"reportengine/internal/api"
	"reportengine/internal/codec"
	"reportengine/internal/service"
	"reportengine/internal/store"
)

const maxBodyBytes = 8 << 20

type Config struct {
	Logger   *log.Logger
	Registry *prometheus.Registry
}

type Server struct {
	svc     *service.Service
	prompts *service.Prompts
	logger  *log.Logger
	metrics *metrics
	reg     *prometheus.Registry
}

func New(svc *service.Service, cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	reg := cfg.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	return &Server{
		svc:     svc,
		prompts: svc.Prompts(),
		logger:  logger,
		metrics: newMetrics(reg),
		reg:     reg,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.route(mux, "GET /api/session", s.handleSession)
	s.route(mux, "POST /api/autosave", s.handleAutosave)
	s.route(mux, "POST /api/save", s.handleSave)
	s.route(mux, "GET /api/saved-scenarios", s.handleSaved)
	s.route(mux, "POST /api/delete/{id}", s.handleDelete)
	s.route(mux, "POST /api/load/{id}", s.handleLoad)
	s.route(mux, "POST /api/generate-prompt", s.handleGenerate)
	s.route(mux, "GET /api/prompts", s.handlePrompts)
	s.route(mux, "POST /api/prompts", s.handleAddPrompt)
	s.route(mux, "POST /api/prompts/{id}/delete", s.handleDeletePrompt)
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.reg, promhttp.HandlerOpts{}))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok"))
	})
	return withSecurityHeaders(mux)
}

func (s *Server) route(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	mux.Handle(pattern, s.metrics.instrument(pattern, h))
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.svc.Session(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (s *Server) handleAutosave(w http.ResponseWriter, r *http.Request) {
	raw, err := readBody(w, r)
	if err != nil {
		s.fail(w, err)
		return
	}
	doc, err := codec.DecodeDocument(raw, codec.FormatJSON)
	if err != nil {
		s.fail(w, err)
		return
	}
	resp, err := s.svc.Autosave(r.Context(), doc.Scenario)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.metrics.autosaves.Inc()
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	var req api.SaveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, err)
		return
	}
	if req.Name == "" || req.Content == nil {
		writeJSON(w, http.StatusBadRequest, api.StatusResponse{Status: api.StatusError, Message: "Missing name or content"})
		return
	}
	resp, err := s.svc.Save(r.Context(), req.Name, *req.Content)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSaved(w http.ResponseWriter, r *http.Request) {
	items, err := s.svc.List(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	if err := s.svc.Delete(r.Context(), id); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, api.StatusResponse{Status: api.StatusSuccess})
}

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	session, err := s.svc.Open(r.Context(), id)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req api.GenerateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, err)
		return
	}
	id := req.PromptID
	if id == "" {
		id = req.Style
	}
	text, err := s.svc.Generate(r.Context(), id, req.Scenario)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.metrics.generated.WithLabelValues(id).Inc()
	writeJSON(w, http.StatusOK, api.GenerateResponse{Prompt: text})
}

func (s *Server) handlePrompts(w http.ResponseWriter, r *http.Request) {
	items, err := s.prompts.List(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleAddPrompt(w http.ResponseWriter, r *http.Request) {
	var req api.AddPromptRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, err)
		return
	}
	p, err := s.prompts.Add(r.Context(), req.Name, req.Instruction)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, api.AddPromptResponse{Status: api.StatusSuccess, ID: p.ID})
}

func (s *Server) handleDeletePrompt(w http.ResponseWriter, r *http.Request) {
	if err := s.prompts.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, api.StatusResponse{Status: api.StatusSuccess})
}

func (s *Server) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, api.StatusResponse{Status: api.StatusError, Message: "invalid id"})
		return 0, false
	}
	return id, true
}

var errBadRequest = errors.New("bad request")

func (s *Server) fail(w http.ResponseWriter, err error) {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		s.logger.Printf("request failed: %v", err)
	}
	writeJSON(w, code, api.StatusResponse{Status: api.StatusError, Message: messageFor(err)})
}

func statusFor(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrProtected):
		return http.StatusForbidden
	case errors.Is(err, service.ErrMissingName),
		errors.Is(err, service.ErrMissingContent),
		errors.Is(err, errBadRequest),
		codec.IsFormatError(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func messageFor(err error) string {
	switch {
	case statusFor(err) == http.StatusRequestEntityTooLarge:
		return "Request body too large"
	case errors.Is(err, store.ErrNotFound):
		return "Not found"
	case errors.Is(err, store.ErrProtected):
		return "Cannot delete a protected record"
	case errors.Is(err, service.ErrMissingName), errors.Is(err, service.ErrMissingContent):
		return "Missing name or content"
	case statusFor(err) == http.StatusBadRequest:
		return err.Error()
	default:
		return "internal error"
	}
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, errors.Join(errBadRequest, err)
	}
	return raw, nil
}

func decodeJSON(w http.ResponseWriter, r *http.Request, out any) error {
	raw, err := readBody(w, r)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return errors.Join(errBadRequest, err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}

func withSecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referrer-Policy", "no-referrer")
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

type metrics struct {
	requests  *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	autosaves prometheus.Counter
	generated *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reportengine",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "reportengine",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		autosaves: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "reportengine",
			Name:      "autosaves_total",
			Help:      "Autosave writes accepted.",
		}),
		generated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reportengine",
			Name:      "prompts_generated_total",
			Help:      "Prompts composed by prompt id.",
		}, []string{"prompt"}),
	}
	reg.MustRegister(m.requests, m.latency, m.autosaves, m.generated)
	return m
}

func (m *metrics) instrument(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(rec, r)
		m.requests.WithLabelValues(route, strconv.Itoa(rec.code)).Inc()
		m.latency.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}
