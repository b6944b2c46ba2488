package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	playground "github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/ajitpratap0/adlint/internal/metrics"
	"github.com/ajitpratap0/adlint/internal/validator"
	"github.com/ajitpratap0/adlint/internal/workspace"
)

// RequestIDHeader carries the per-request correlation id.
const RequestIDHeader = "X-Request-ID"

// Server is an HTTP API server that exposes validation and entity editing.
type Server struct {
	engine       *validator.Engine
	ws           *workspace.Workspace
	logger       *slog.Logger
	authToken    string // empty = no auth required
	maxBodyBytes int64
	validate     *playground.Validate
}

// NewServer creates a new Server with the given dependencies.
func NewServer(engine *validator.Engine, ws *workspace.Workspace, logger *slog.Logger, authToken string, maxBodyBytes int64) *Server {
	if maxBodyBytes <= 0 {
		maxBodyBytes = 1 << 20
	}
	return &Server{
		engine:       engine,
		ws:           ws,
		logger:       logger,
		authToken:    authToken,
		maxBodyBytes: maxBodyBytes,
		validate:     playground.New(),
	}
}

// Handler returns an http.Handler with all routes registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Health check and metrics, no auth required.
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.Handle("GET /metrics", metrics.Handler())

	mux.HandleFunc("GET /v1/metadata", s.auth(s.handleMetadata))
	mux.HandleFunc("GET /v1/schema/{entity}", s.auth(s.handleSchema))
	mux.HandleFunc("GET /v1/architectures", s.auth(s.handleListArchitectures))
	mux.HandleFunc("GET /v1/architectures/{id}/entities/{entity}", s.auth(s.handleGetEntity))
	mux.HandleFunc("PUT /v1/architectures/{id}/entities/{entity}", s.auth(s.handlePutEntity))
	mux.HandleFunc("POST /v1/architectures/{id}/validate", s.auth(s.handleValidate))

	return s.requestID(mux)
}

// --- middleware ---

// requestID propagates or assigns X-Request-ID and logs each request.
func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("request", "method", r.Method, "path", r.URL.Path, "request_id", id, "duration", time.Since(start))
	})
}

// auth wraps a handler with Bearer token authentication when authToken is set.
func (s *Server) auth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.authToken == "" {
			next(w, r)
			return
		}
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(s.authToken)) != 1 {
			s.writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r)
	}
}

// --- handlers ---

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleMetadata(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.engine.Registry().Metadata())
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	doc, err := s.engine.Registry().JSONSchema(r.PathValue("entity"))
	if err != nil {
		s.writeError(w, http.StatusNotFound, "unknown entity type")
		return
	}
	s.writeJSON(w, http.StatusOK, doc)
}

// architecturesResponse is returned by GET /v1/architectures.
type architecturesResponse struct {
	Architectures []string `json:"architectures"`
}

func (s *Server) handleListArchitectures(w http.ResponseWriter, _ *http.Request) {
	ids, err := s.ws.ListArchitectures()
	if err != nil {
		s.logger.Error("failed to list architectures", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to list architectures")
		return
	}
	s.writeJSON(w, http.StatusOK, architecturesResponse{Architectures: ids})
}

// entityBody is the body of GET and PUT /v1/architectures/{id}/entities/{entity}.
type entityBody struct {
	Records []map[string]any `json:"records" validate:"required,dive,required"`
}

func (s *Server) handleGetEntity(w http.ResponseWriter, r *http.Request) {
	recs, err := s.ws.ReadEntity(r.PathValue("id"), r.PathValue("entity"))
	if err != nil {
		s.workspaceError(w, err, "failed to read entity")
		return
	}
	s.writeJSON(w, http.StatusOK, entityBody{Records: recs})
}

func (s *Server) handlePutEntity(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes)
	var req entityBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.writeError(w, http.StatusBadRequest, "records must be a list of objects")
		return
	}

	archID, entity := r.PathValue("id"), r.PathValue("entity")
	if err := s.ws.WriteEntity(archID, entity, req.Records); err != nil {
		s.workspaceError(w, err, "failed to write entity")
		return
	}
	metrics.Inc(metrics.EntityWrites)
	s.logger.Info("entity written", "architecture", archID, "entity", entity, "records", len(req.Records))
	s.writeJSON(w, http.StatusOK, map[string]bool{"saved": true})
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	archID := r.PathValue("id")
	if _, err := s.ws.Resolve(archID); err != nil {
		s.workspaceError(w, err, "failed to resolve architecture")
		return
	}
	s.writeJSON(w, http.StatusOK, s.engine.Validate(r.Context(), s.ws.Root(), archID))
}

// --- helpers ---

// workspaceError maps workspace sentinel errors to status codes.
func (s *Server) workspaceError(w http.ResponseWriter, err error, msg string) {
	switch {
	case errors.Is(err, workspace.ErrReadOnly):
		s.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, workspace.ErrInvalidPath):
		s.writeError(w, http.StatusBadRequest, "invalid architecture id")
	case errors.Is(err, workspace.ErrNotFound):
		s.writeError(w, http.StatusNotFound, err.Error())
	default:
		s.logger.Error(msg, "error", err)
		s.writeError(w, http.StatusInternalServerError, msg)
	}
}

// writeJSON encodes v as JSON and writes it to w with the given status code.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if encErr := json.NewEncoder(w).Encode(v); encErr != nil {
		s.logger.Error("failed to encode response", "error", encErr)
	}
}

// writeError writes a JSON error response.
func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

// Shutdown gracefully shuts down an http.Server with the given timeout.
// This is a convenience helper used by the serve command.
func Shutdown(srv *http.Server, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return srv.Shutdown(ctx)
}
