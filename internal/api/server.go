package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"cinelog/internal/config"
	"cinelog/internal/logging"
	"cinelog/internal/session"
	"cinelog/internal/worker"
)

const (
	defaultMoviesLimit = 100
	maxMoviesLimit     = 1000
	maxUploadBytes     = 32 << 20
)

// Trigger schedules enrichment for a session.
type Trigger interface {
	EnrichSession(ctx context.Context, id string) error
}

// Server serves the JSON API over a TCP listener.
type Server struct {
	bind       string
	logger     *slog.Logger
	store      *session.Store
	trigger    Trigger
	sessionTTL time.Duration

	listener net.Listener
	server   *http.Server
}

// New builds the API server. A nil bind address disables it; callers get a
// nil server they can start and stop safely.
func New(cfg *config.Config, store *session.Store, trigger Trigger, logger *slog.Logger) *Server {
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil
	}

	srv := &Server{
		bind:       bind,
		logger:     logging.NewComponentLogger(logger, "api"),
		store:      store,
		trigger:    trigger,
		sessionTTL: cfg.SessionTTL(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/upload", srv.handleUpload)
	mux.HandleFunc("/api/session/", srv.handleSession)
	mux.HandleFunc("/api/health", srv.handleHealth)

	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv
}

// Handler exposes the route table for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start begins serving and arranges shutdown when ctx is canceled.
func (s *Server) Start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

// Stop shuts the server down.
func (s *Server) Stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

// Addr reports the bound address once the server is started.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// handleSession routes /api/session/{id}, /api/session/{id}/movies and
// /api/session/{id}/enrich.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/session/")
	id, sub, _ := strings.Cut(rest, "/")
	if id == "" {
		s.writeError(w, http.StatusNotFound, "session not found")
		return
	}

	switch sub {
	case "":
		if r.Method != http.MethodGet {
			s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		s.handleSessionStatus(w, r, id)
	case "movies":
		if r.Method != http.MethodGet {
			s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		s.handleSessionMovies(w, r, id)
	case "enrich":
		if r.Method != http.MethodPost {
			s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		s.handleSessionEnrich(w, r, id)
	default:
		s.writeError(w, http.StatusNotFound, "not found")
	}
}

func (s *Server) handleSessionStatus(w http.ResponseWriter, r *http.Request, id string) {
	sess, err := s.lookupSession(w, r, id)
	if sess == nil || err != nil {
		return
	}
	s.writeJSON(w, http.StatusOK, toSessionResponse(sess))
}

func (s *Server) handleSessionMovies(w http.ResponseWriter, r *http.Request, id string) {
	sess, err := s.lookupSession(w, r, id)
	if sess == nil || err != nil {
		return
	}

	query := r.URL.Query()
	skip, _ := strconv.Atoi(query.Get("skip"))
	if skip < 0 {
		skip = 0
	}
	limit, _ := strconv.Atoi(query.Get("limit"))
	if limit <= 0 {
		limit = defaultMoviesLimit
	}
	if limit > maxMoviesLimit {
		limit = maxMoviesLimit
	}

	movies, err := s.store.SessionMovies(r.Context(), id, skip, limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := MoviesResponse{
		SessionID: id,
		Total:     sess.TotalMovies,
		Skip:      skip,
		Limit:     limit,
		Movies:    make([]MovieResponse, 0, len(movies)),
	}
	for _, movie := range movies {
		resp.Movies = append(resp.Movies, toMovieResponse(movie))
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSessionEnrich(w http.ResponseWriter, r *http.Request, id string) {
	if s.trigger == nil {
		s.writeError(w, http.StatusServiceUnavailable, "enrichment not available")
		return
	}
	err := s.trigger.EnrichSession(r.Context(), id)
	switch {
	case err == nil:
		s.writeJSON(w, http.StatusAccepted, map[string]string{"session_id": id, "status": "enriching"})
	case errors.Is(err, worker.ErrUnknownSession):
		s.writeError(w, http.StatusNotFound, "session not found")
	case errors.Is(err, worker.ErrSessionTerminal):
		s.writeError(w, http.StatusConflict, err.Error())
	default:
		s.writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	summary, err := s.store.CountsByStatus(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Sessions: summary})
}

// lookupSession fetches a session, refreshing its expiry on access. Writes
// the error response itself; callers bail on nil.
func (s *Server) lookupSession(w http.ResponseWriter, r *http.Request, id string) (*session.Session, error) {
	sess, err := s.store.GetSession(r.Context(), id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return nil, err
	}
	if sess == nil {
		s.writeError(w, http.StatusNotFound, "session not found")
		return nil, nil
	}
	if err := s.store.Touch(r.Context(), id, s.sessionTTL); err != nil {
		s.logger.Warn("failed to refresh session expiry", logging.Error(err))
	}
	return sess, nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
