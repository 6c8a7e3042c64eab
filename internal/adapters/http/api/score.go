// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/okian/oche/internal/domain/board"
	"github.com/okian/oche/internal/domain/polar"
	"github.com/okian/oche/internal/domain/types"
)

// ScoreDependencies defines the interface for synchronous geometry queries.
type ScoreDependencies interface {
	Score(ctx context.Context, boundary polar.Ellipse, impact polar.Point) (types.ScoreResult, error)
	Limits(ctx context.Context, boundary polar.Ellipse) (board.RingLimits, error)
	Sectors() []board.SectorRange
}

// ScoreHandler serves the stateless scoring endpoints.
type ScoreHandler struct {
	deps ScoreDependencies
}

// NewScoreHandler creates a new score handler.
func NewScoreHandler(deps ScoreDependencies) *ScoreHandler {
	return &ScoreHandler{deps: deps}
}

// HandleScore handles POST /score requests.
func (h *ScoreHandler) HandleScore(w http.ResponseWriter, r *http.Request) {
	const op = "api.score"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req scoreRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	res, err := h.deps.Score(r.Context(), *req.Board, *req.Impact)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleLimits handles POST /limits requests.
func (h *ScoreHandler) HandleLimits(w http.ResponseWriter, r *http.Request) {
	const op = "api.limits"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req limitsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", WrapKind(op, ErrBadRequest, err))
		return
	}
	if req.Board == nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errors.New("missing board")))
		return
	}

	limits, err := h.deps.Limits(r.Context(), *req.Board)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, limitsResponse{
		HorizontalExtent: req.Board.HorizontalExtent(),
		Limits:           limits,
	})
}

// HandleSectors handles GET /sectors requests.
func (h *ScoreHandler) HandleSectors(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, sectorsResponse{Sectors: h.deps.Sectors()})
}
