// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	service "github.com/okian/oche/internal/app"
	"github.com/okian/oche/internal/domain/dedupe"
	"github.com/okian/oche/internal/domain/model"
	"github.com/okian/oche/pkg/metrics"
)

// ThrowsDependencies defines the interface for throw ingestion.
type ThrowsDependencies interface {
	dedupe.Deduper
	Enqueue(ctx context.Context, t model.Throw) error
}

// ThrowsHandler handles throw ingestion requests.
type ThrowsHandler struct {
	deps ThrowsDependencies
}

// NewThrowsHandler creates a new throws handler.
func NewThrowsHandler(deps ThrowsDependencies) *ThrowsHandler {
	return &ThrowsHandler{deps: deps}
}

// HandlePostThrow handles POST /throws requests.
//
// A throw id already seen is acknowledged with 200 and not scored again.
// When the queue rejects the throw its id is forgotten so the client can retry.
func (h *ThrowsHandler) HandlePostThrow(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_throw"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req throwRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	id := req.ThrowID
	if id == "" {
		id = uuid.NewString()
	}
	ctx := r.Context()
	if h.deps.SeenAndRecord(ctx, id) {
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", Duplicate: true, ThrowID: id})
		return
	}

	ts := time.Now().UTC()
	if req.TS != "" {
		ts, _ = time.Parse(time.RFC3339, req.TS)
	}
	metrics.RecordThrowReceived()

	err := h.deps.Enqueue(ctx, model.Throw{
		ThrowID:  id,
		PlayerID: req.PlayerID,
		Board:    *req.Board,
		Impact:   *req.Impact,
		TS:       ts,
	})
	if err != nil {
		h.deps.Unrecord(ctx, id)
		if errors.Is(err, service.ErrNotStarted) {
			writeServiceError(w, op, err)
			return
		}
		writeError(w, http.StatusTooManyRequests, "backpressure", WrapKind(op, ErrBackpressure, err))
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", ThrowID: id})
}
