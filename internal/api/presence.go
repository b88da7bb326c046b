package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/flor3z/presence-card/internal/lanyard"
	"github.com/flor3z/presence-card/internal/presence"
)

const streamWriteTimeout = 10 * time.Second

// handlePresence serves GET /api/discord/presence/{userId}
func (s *Server) handlePresence(w http.ResponseWriter, r *http.Request) {
	if !requireGET(w, r) {
		return
	}

	userID := strings.TrimSpace(r.PathValue("userId"))
	if userID == "" {
		writeMessage(w, http.StatusBadRequest, presence.ErrMissingUserID.Error())
		return
	}

	slog.Debug("Fetching Discord presence", "userID", userID)
	p, status, err := s.deps.Presence.GetPresence(r.Context(), userID)
	if err != nil {
		var apiErr *lanyard.APIError
		switch {
		case errors.As(err, &apiErr):
			slog.Warn("Lanyard API returned an error", "userID", userID, "status", apiErr.StatusCode)
			writeMessage(w, apiErr.StatusCode, "Unable to fetch Discord presence from Lanyard API")
		case errors.Is(err, lanyard.ErrNotFound):
			slog.Warn("Lanyard API returned success: false", "userID", userID, "status", status)
			writeMessage(w, http.StatusNotFound, "Discord user not found or Lanyard API error")
		default:
			slog.Error("Error fetching Discord presence", "userID", userID, "error", err)
			writeMessage(w, http.StatusInternalServerError, "Internal server error while fetching Discord presence")
		}
		return
	}

	w.Header().Set("Cache-Control", presenceCacheControl)
	writeJSON(w, http.StatusOK, presence.Normalize(userID, p, time.Now().UTC()))
}

// handlePresenceStream upgrades to a WebSocket and pushes every tracker state
// for the user until either side goes away.
func (s *Server) handlePresenceStream(w http.ResponseWriter, r *http.Request) {
	if !requireGET(w, r) {
		return
	}

	userID := strings.TrimSpace(r.PathValue("userId"))
	if userID == "" {
		writeMessage(w, http.StatusBadRequest, presence.ErrMissingUserID.Error())
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("WebSocket upgrade failed", "userID", userID, "error", err)
		return
	}

	// The browser never sends anything meaningful; reading detects its close
	clientGone := make(chan struct{})
	go func() {
		defer close(clientGone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	tracker := presence.NewTracker(userID, s.deps.Presence, s.deps.Realtime)
	defer func() {
		tracker.Close()
		conn.Close()
		<-clientGone
		slog.Debug("Presence stream closed", "userID", userID)
	}()

	if err := tracker.Start(context.Background()); err != nil {
		slog.Error("Failed to start presence tracker", "userID", userID, "error", err)
		return
	}
	slog.Debug("Presence stream opened", "userID", userID)

	if err := writeState(conn, tracker.State()); err != nil {
		return
	}

	for {
		select {
		case st, ok := <-tracker.Updates():
			if !ok {
				return
			}
			if err := writeState(conn, st); err != nil {
				slog.Debug("Presence stream write failed", "userID", userID, "error", err)
				return
			}
		case <-clientGone:
			return
		}
	}
}

func writeState(conn *websocket.Conn, st presence.State) error {
	conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
	return conn.WriteJSON(st)
}
