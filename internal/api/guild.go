package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/flor3z/presence-card/internal/guild"
)

// handleGuild serves GET /api/guild/{guildId}. Upstream failures come back as
// a 200 fallback snapshot; only a missing id is a client error.
func (s *Server) handleGuild(w http.ResponseWriter, r *http.Request) {
	if !requireGET(w, r) {
		return
	}

	snapshot, err := s.deps.Guilds.Reconcile(r.Context(), r.PathValue("guildId"))
	if errors.Is(err, guild.ErrMissingGuildID) {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		slog.Error("Guild reconciliation failed", "error", err)
		writeMessage(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if !snapshot.Degraded() {
		w.Header().Set("Cache-Control", guildCacheControl)
	}
	writeJSON(w, http.StatusOK, snapshot)
}
