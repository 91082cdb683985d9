package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/skritek/switchboard/agent"
	"github.com/skritek/switchboard/core"
	"github.com/skritek/switchboard/dispatch"
	"github.com/skritek/switchboard/logging"
)

// Options configures a Server instance.
type Options struct {
	// Logger receives request handling diagnostics. Defaults to NoOpLogger.
	Logger logging.Logger
}

// Server is the HTTP channel adapter over the orchestration core.
type Server struct {
	dispatcher *dispatch.Dispatcher
	registry   *agent.Registry
	contexts   core.ContextStore
	logger     logging.Logger
}

// New constructs a Server over the given core collaborators.
func New(dispatcher *dispatch.Dispatcher, registry *agent.Registry, contexts core.ContextStore, optFns ...func(o *Options)) *Server {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Server{
		dispatcher: dispatcher,
		registry:   registry,
		contexts:   contexts,
		logger:     opts.Logger,
	}
}

// CreateContextRequest is the JSON request body for POST /api/contexts.
type CreateContextRequest struct {
	Name         string   `json:"name"`
	Agents       []string `json:"agents"`
	Skills       []string `json:"skills"`
	Description  string   `json:"description"`
	SystemPrompt string   `json:"system_prompt"`
}

// CreateContextResponse is the JSON response for POST /api/contexts.
type CreateContextResponse struct {
	GUID string `json:"guid"`
	Name string `json:"name"`
}

// Handler returns the routing handler for the full API surface.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /agents", s.handleAgents)
	mux.HandleFunc("GET /contexts", s.handleContexts)
	mux.HandleFunc("GET /reload", s.handleReload)
	mux.HandleFunc("POST /api/process", s.handleProcess)
	mux.HandleFunc("POST /api/contexts", s.handleCreateContext)
	return withCORS(mux)
}

// ListenAndServe serves the API on the given address until the listener
// fails.
func (s *Server) ListenAndServe(addr string) error {
	s.logger.Info("http adapter listening", "addr", addr)
	return http.ListenAndServe(addr, s.Handler())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "switchboard"})
}

func (s *Server) handleAgents(w http.ResponseWriter, _ *http.Request) {
	agents := make([]agent.Descriptor, 0, s.registry.Len())
	for _, a := range s.registry.List() {
		agents = append(agents, a.Descriptor())
	}
	writeJSON(w, http.StatusOK, map[string]any{"agents": agents})
}

func (s *Server) handleContexts(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"contexts": s.contexts.List()})
}

func (s *Server) handleReload(w http.ResponseWriter, _ *http.Request) {
	s.registry.Reload()
	if err := s.contexts.Load(); err != nil {
		s.logger.Error("context reload failed", "error", err.Error())
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "reload failed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reloaded"})
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	var req core.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	resp, err := s.dispatcher.Process(r.Context(), req)
	if err != nil {
		var verr *core.ValidationError
		if errors.As(err, &verr) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": verr.Error()})
			return
		}
		s.logger.Error("process failed", "error", err.Error())
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateContext(w http.ResponseWriter, r *http.Request) {
	var req CreateContextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if req.Name == "" {
		req.Name = "New Context"
	}
	if len(req.Agents) == 0 {
		req.Agents = []string{core.Wildcard}
	}

	ctx, err := s.contexts.Create(req.Name, req.Agents, func(o *core.ContextOptions) {
		o.Description = req.Description
		o.SystemPrompt = req.SystemPrompt
		if len(req.Skills) > 0 {
			o.Skills = req.Skills
		}
	})
	if err != nil {
		s.logger.Error("context create failed", "error", err.Error())
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "context create failed"})
		return
	}

	writeJSON(w, http.StatusOK, CreateContextResponse{GUID: ctx.GUID, Name: ctx.Name})
}

// withCORS sets permissive cross-origin headers and answers preflights, as
// the desktop front-end calls the local endpoint from another origin.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
