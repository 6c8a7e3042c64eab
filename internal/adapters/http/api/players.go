// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/okian/oche/internal/domain/types"
)

// PlayersDependencies defines the interface for per-player reads.
type PlayersDependencies interface {
	Rank(ctx context.Context, playerID string) (Entry, error)
	History(ctx context.Context, playerID string, limit int) ([]types.ThrowRecord, error)
}

// PlayersHandler serves a player's rank and throw history.
type PlayersHandler struct {
	deps            PlayersDependencies
	maxHistoryLimit int
}

// NewPlayersHandler creates a new players handler.
func NewPlayersHandler(deps PlayersDependencies, maxHistoryLimit int) *PlayersHandler {
	return &PlayersHandler{deps: deps, maxHistoryLimit: maxHistoryLimit}
}

// HandleGetPlayer handles GET /players/{id} requests.
func (h *PlayersHandler) HandleGetPlayer(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_player"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	entry, err := h.deps.Rank(r.Context(), id)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// HandleGetHistory handles GET /players/{id}/throws?limit=N requests.
func (h *PlayersHandler) HandleGetHistory(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_history"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	n, ok := parseLimit(r, defaultHistoryLimit)
	if !ok {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	if n > h.maxHistoryLimit {
		writeError(w, http.StatusBadRequest, "limit_exceeded", NewKind(op, ErrBadRequest))
		return
	}
	records, err := h.deps.History(r.Context(), id, n)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}
