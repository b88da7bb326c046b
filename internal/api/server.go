package api

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/flor3z/presence-card/internal/guild"
	"github.com/flor3z/presence-card/internal/presence"
	"github.com/flor3z/presence-card/internal/storage"
)

// Cache-Control values for upstream-derived responses
const (
	guildCacheControl    = "public, s-maxage=20, stale-while-revalidate=60"
	presenceCacheControl = "public, s-maxage=10, stale-while-revalidate=30"
)

// GuildReconciler resolves guild snapshots
type GuildReconciler interface {
	Reconcile(ctx context.Context, guildID string) (*guild.Snapshot, error)
}

// ProfileStore reads the stored profile
type ProfileStore interface {
	GetProfile() (*storage.ProfileRecord, error)
}

// Deps are the collaborators of the HTTP server
type Deps struct {
	Guilds   GuildReconciler
	Presence presence.Fetcher
	Realtime presence.RealtimeFactory
	Profiles ProfileStore
}

// Server serves the card API
type Server struct {
	deps     Deps
	mux      *http.ServeMux
	upgrader websocket.Upgrader
}

// NewServer creates a new API server
func NewServer(deps Deps) *Server {
	s := &Server{
		deps: deps,
		mux:  http.NewServeMux(),
		upgrader: websocket.Upgrader{
			// The card is embedded on arbitrary hosts
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)
	s.mux.HandleFunc("/api/profile", s.handleProfile)
	s.mux.HandleFunc("/api/guild/{guildId}", s.handleGuild)
	s.mux.HandleFunc("/api/guild/", s.handleGuild)
	s.mux.HandleFunc("/api/discord/presence/{userId}", s.handlePresence)
	s.mux.HandleFunc("/api/discord/presence/{userId}/ws", s.handlePresenceStream)
	s.mux.HandleFunc("/api/discord/presence/", s.handlePresence)
}

// Handler returns the routed handler wrapped in logging and recovery
func (s *Server) Handler() http.Handler {
	return withLoggingAndRecovery(s.mux)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	if !requireGET(w, r) {
		return
	}

	rec, err := s.deps.Profiles.GetProfile()
	if err != nil {
		if !errors.Is(err, storage.ErrProfileNotFound) {
			slog.Error("Failed to load profile", "error", err)
		}
		writeMessage(w, http.StatusNotFound, "Profile not found")
		return
	}
	writeJSON(w, http.StatusOK, rec.Profile)
}

// statusRecorder captures the response status for logging
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Hijack hands the connection to the websocket upgrader
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("hijacking not supported")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// withLoggingAndRecovery logs each request and turns panics into 500s
func withLoggingAndRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()
		w.Header().Set("X-Request-ID", requestID)
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		defer func() {
			if err := recover(); err != nil {
				slog.Error("Panic recovered", "requestID", requestID, "panic", err)
				writeMessage(rec, http.StatusInternalServerError, "Internal server error")
			}
			slog.Debug("Handled request",
				"requestID", requestID,
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration", time.Since(start),
			)
		}()

		next.ServeHTTP(rec, r)
	})
}

func requireGET(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeMessage(w, http.StatusMethodNotAllowed, "Method not allowed")
		return false
	}
	return true
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}
