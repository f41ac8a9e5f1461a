package httpadapter

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/PabloGalante/persona-relay/internal/app/conversation"
	"github.com/PabloGalante/persona-relay/internal/domain"
	"github.com/PabloGalante/persona-relay/internal/observability"
)

type Server struct {
	services []*conversation.Service
	byName   map[string]*conversation.Service
}

type ServerOption func(*serverConfig)

type serverConfig struct {
	staticRoute string
	staticDir   string
}

// WithStatic serves dir under route when dir exists.
func WithStatic(route, dir string) ServerOption {
	return func(c *serverConfig) {
		c.staticRoute = route
		c.staticDir = dir
	}
}

// NewServer routes every persona's chat endpoint plus the shared admin endpoints.
// The first service is the default persona for status, models and history.
func NewServer(services []*conversation.Service, opts ...ServerOption) http.Handler {
	var cfg serverConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &Server{
		services: services,
		byName:   make(map[string]*conversation.Service, len(services)),
	}
	mux := http.NewServeMux()

	for _, svc := range services {
		p := svc.Persona()
		s.byName[p.Name] = svc
		mux.HandleFunc(p.Route, s.handleChat(svc))
	}

	mux.HandleFunc("/", s.handleRoot)
	mux.HandleFunc("/models", s.handleModels)
	mux.HandleFunc("/clear", s.handleClear)
	mux.HandleFunc("/history", s.handleHistory)
	mux.HandleFunc("/healthz", s.handleHealthz)

	if cfg.staticDir != "" && cfg.staticRoute != "" {
		if info, err := os.Stat(cfg.staticDir); err == nil && info.IsDir() {
			route := "/" + strings.Trim(cfg.staticRoute, "/") + "/"
			mux.Handle(route, http.StripPrefix(strings.TrimSuffix(route, "/"), http.FileServer(http.Dir(cfg.staticDir))))
		} else {
			observability.Logger().Warn("static dir not found, not serving it",
				"dir", cfg.staticDir, "route", cfg.staticRoute)
		}
	}

	return chainMiddlewares(mux, withLogging, withRequestID, withCORS)
}

// ─────────────────────────────────────────────
// DTOs (request/response)
// ─────────────────────────────────────────────

type chatRequest struct {
	UserID string `json:"user_id"`
	Text   string `json:"text"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

type statusResponse struct {
	Status       string   `json:"status"`
	Backend      string   `json:"backend"`
	InferenceURL string   `json:"inference_url"`
	Model        string   `json:"model"`
	Note         string   `json:"note,omitempty"`
	Personas     []string `json:"personas"`
}

type modelsResponse struct {
	Models []string `json:"models"`
	Error  string   `json:"error,omitempty"`
}

type clearRequest struct {
	UserID  string `json:"user_id"`
	Persona string `json:"persona"`
}

type historyResponse struct {
	UserID    string            `json:"user_id"`
	Persona   string            `json:"persona"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
	Messages  []messageResponse `json:"messages"`
}

type messageResponse struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at,omitzero"`
}

// ─────────────────────────────────────────────
// Concrete handlers
// ─────────────────────────────────────────────

func (s *Server) handleChat(svc *conversation.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}

		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			badRequest(w, "invalid JSON body")
			return
		}
		if strings.TrimSpace(req.Text) == "" {
			badRequest(w, "text is required")
			return
		}

		out, err := svc.SendMessage(r.Context(), conversation.SendMessageInput{
			UserID: domain.UserID(strings.TrimSpace(req.UserID)),
			Text:   req.Text,
		})
		if err != nil {
			internalError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, chatResponse{Reply: out.Reply})
	}
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	if len(s.services) == 0 {
		writeJSON(w, http.StatusOK, statusResponse{Status: "no personas configured", Personas: []string{}})
		return
	}

	st := s.services[0].Status()
	writeJSON(w, http.StatusOK, statusResponse{
		Status:       st.Status,
		Backend:      st.Backend,
		InferenceURL: st.Endpoint,
		Model:        st.Model,
		Note:         st.Note,
		Personas:     s.personaNames(),
	})
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	if len(s.services) == 0 {
		writeJSON(w, http.StatusOK, modelsResponse{Models: []string{}, Error: "no personas configured"})
		return
	}

	models, err := s.services[0].ListModels(r.Context())
	if err != nil {
		observability.LoggerFromContext(r.Context()).Warn("failed to list models", "error", err)
		writeJSON(w, http.StatusOK, modelsResponse{Models: []string{}, Error: err.Error()})
		return
	}
	if models == nil {
		models = []string{}
	}
	writeJSON(w, http.StatusOK, modelsResponse{Models: models})
}

// /clear?user_id=...&persona=... or the same fields as a JSON body.
// Without a persona every persona's transcript for the user is dropped.
func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	req := clearRequest{
		UserID:  r.URL.Query().Get("user_id"),
		Persona: r.URL.Query().Get("persona"),
	}
	if req.UserID == "" || req.Persona == "" {
		var body clearRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
			badRequest(w, "invalid JSON body")
			return
		}
		if req.UserID == "" {
			req.UserID = body.UserID
		}
		if req.Persona == "" {
			req.Persona = body.Persona
		}
	}

	targets := s.services
	if req.Persona != "" {
		svc, ok := s.byName[req.Persona]
		if !ok {
			badRequest(w, "unknown persona")
			return
		}
		targets = []*conversation.Service{svc}
	}

	userID := domain.UserID(strings.TrimSpace(req.UserID))
	for _, svc := range targets {
		if _, err := svc.ClearSession(r.Context(), userID); err != nil {
			internalError(w, r, err)
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status": "Conversation history cleared",
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	q := r.URL.Query()
	svc, ok := s.personaOrDefault(q.Get("persona"))
	if !ok {
		badRequest(w, "unknown persona")
		return
	}

	sess, err := svc.GetTranscript(r.Context(), domain.UserID(strings.TrimSpace(q.Get("user_id"))))
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
			return
		}
		internalError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, historyResponse{
		UserID:    string(sess.UserID),
		Persona:   svc.Persona().Name,
		CreatedAt: sess.CreatedAt,
		UpdatedAt: sess.UpdatedAt,
		Messages:  toMessagesResponse(sess.Messages),
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ─────────────────────────────────────────────
// Conversation Helpers
// ─────────────────────────────────────────────

func (s *Server) personaNames() []string {
	names := make([]string, 0, len(s.services))
	for _, svc := range s.services {
		names = append(names, svc.Persona().Name)
	}
	return names
}

func (s *Server) personaOrDefault(name string) (*conversation.Service, bool) {
	if name == "" {
		if len(s.services) == 0 {
			return nil, false
		}
		return s.services[0], true
	}
	svc, ok := s.byName[name]
	return svc, ok
}

func toMessagesResponse(msgs []domain.Message) []messageResponse {
	out := make([]messageResponse, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, messageResponse{
			Role:      string(m.Role),
			Content:   m.Content,
			CreatedAt: m.CreatedAt,
		})
	}
	return out
}

// ─────────────────────────────────────────────
// HTTP Helpers
// ─────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{
		"error": msg,
	})
}

func internalError(w http.ResponseWriter, r *http.Request, err error) {
	observability.LoggerFromContext(r.Context()).Error("request failed", "error", err)
	writeJSON(w, http.StatusInternalServerError, map[string]string{
		"error": "internal server error",
	})
}

func methodNotAllowed(w http.ResponseWriter) {
	writeJSON(w, http.StatusMethodNotAllowed, map[string]string{
		"error": "method not allowed",
	})
}
