// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/okian/oche/internal/adapters/repository"
	service "github.com/okian/oche/internal/app"
	"github.com/okian/oche/internal/domain/board"
	"github.com/okian/oche/internal/domain/dedupe"
	"github.com/okian/oche/internal/domain/model"
	"github.com/okian/oche/internal/domain/polar"
	"github.com/okian/oche/internal/domain/scoring"
	"github.com/okian/oche/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	dedupe.Deduper

	// Enqueue pushes a throw for async scoring.
	Enqueue(ctx context.Context, t model.Throw) error

	// Synchronous geometry.
	Score(ctx context.Context, boundary polar.Ellipse, impact polar.Point) (types.ScoreResult, error)
	Limits(ctx context.Context, boundary polar.Ellipse) (board.RingLimits, error)
	Sectors() []board.SectorRange

	// Read operations expose leaderboard data.
	TopN(ctx context.Context, n int) ([]Entry, error)
	Rank(ctx context.Context, playerID string) (Entry, error)
	History(ctx context.Context, playerID string, limit int) ([]types.ThrowRecord, error)
}

// Entry mirrors the read shape returned by leaderboard queries.
type Entry = types.Entry

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	throwsHandler      *ThrowsHandler
	scoreHandler       *ScoreHandler
	leaderboardHandler *LeaderboardHandler
	playersHandler     *PlayersHandler

	maxLeaderboardLimit int
	maxHistoryLimit     int
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		maxLeaderboardLimit: defaultMaxLeaderboardLimit,
		maxHistoryLimit:     defaultMaxHistoryLimit,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.healthHandler = NewHealthHandler()
	s.statsHandler = NewStatsHandler(statsProvider)
	s.throwsHandler = NewThrowsHandler(deps)
	s.scoreHandler = NewScoreHandler(deps)
	s.leaderboardHandler = NewLeaderboardHandler(deps, s.maxLeaderboardLimit)
	s.playersHandler = NewPlayersHandler(deps, s.maxHistoryLimit)
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/throws", MetricsMiddleware(s.throwsHandler.HandlePostThrow, "throws"))
	mux.HandleFunc("/score", MetricsMiddleware(s.scoreHandler.HandleScore, "score"))
	mux.HandleFunc("/limits", MetricsMiddleware(s.scoreHandler.HandleLimits, "limits"))
	mux.HandleFunc("/sectors", MetricsMiddleware(s.scoreHandler.HandleSectors, "sectors"))
	mux.HandleFunc("/leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))
	mux.HandleFunc("/players/{id}", MetricsMiddleware(s.playersHandler.HandleGetPlayer, "player"))
	mux.HandleFunc("/players/{id}/throws", MetricsMiddleware(s.playersHandler.HandleGetHistory, "player_throws"))
}

// throwRequest mirrors the OpenAPI schema for POST /throws.
type throwRequest struct {
	ThrowID  string         `json:"throw_id"`
	PlayerID string         `json:"player_id"`
	Board    *polar.Ellipse `json:"board"`
	Impact   *polar.Point   `json:"impact"`
	TS       string         `json:"ts"`
}

func (t throwRequest) validate() error {
	switch {
	case strings.TrimSpace(t.PlayerID) == "":
		return errors.New("missing player_id")
	case t.Board == nil:
		return errors.New("missing board")
	case t.Impact == nil:
		return errors.New("missing impact")
	}
	if err := t.Board.Validate(); err != nil {
		return err
	}
	if t.TS != "" {
		if _, err := time.Parse(time.RFC3339, t.TS); err != nil {
			return errors.New("invalid ts; must be RFC3339")
		}
	}
	return nil
}

// scoreRequest mirrors the OpenAPI schema for POST /score.
type scoreRequest struct {
	Board  *polar.Ellipse `json:"board"`
	Impact *polar.Point   `json:"impact"`
}

func (s scoreRequest) validate() error {
	switch {
	case s.Board == nil:
		return errors.New("missing board")
	case s.Impact == nil:
		return errors.New("missing impact")
	}
	return nil
}

// limitsRequest mirrors the OpenAPI schema for POST /limits.
type limitsRequest struct {
	Board *polar.Ellipse `json:"board"`
}

type ackResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
	ThrowID   string `json:"throw_id"`
}

type limitsResponse struct {
	HorizontalExtent float64          `json:"horizontal_extent"`
	Limits           board.RingLimits `json:"limits"`
}

type sectorsResponse struct {
	Sectors []board.SectorRange `json:"sectors"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeServiceError maps errors returned by the service layer to a response.
func writeServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "not_started", WrapKind(op, ErrUnavailable, err))
	case errors.Is(err, service.ErrJournalDisabled):
		writeError(w, http.StatusServiceUnavailable, "journal_disabled", WrapKind(op, ErrUnavailable, err))
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", WrapKind(op, ErrNotFound, err))
	case errors.Is(err, repository.ErrInvalidLimit):
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
	default:
		writeScoringError(w, op, err)
	}
}

// writeScoringError maps scoring failures: unusable boards are the caller's
// fault, well formed throws that cannot be scored are unprocessable.
func writeScoringError(w http.ResponseWriter, op string, err error) {
	switch kind := scoring.ErrorKind(err); kind {
	case scoring.KindInvalidBoard:
		writeError(w, http.StatusBadRequest, kind, WrapKind(op, ErrBadRequest, err))
	case scoring.KindInvalidPoint, scoring.KindAngleOutOfRange, scoring.KindBoardTooSmall:
		writeError(w, http.StatusUnprocessableEntity, kind, WrapKind(op, ErrUnprocessable, err))
	case scoring.KindCanceled:
		writeError(w, http.StatusServiceUnavailable, kind, WrapKind(op, ErrUnavailable, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
	}
}
