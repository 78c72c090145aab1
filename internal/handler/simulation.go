// Package handler exposes the simulation service over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"roulette-simulator/internal/model"
	"roulette-simulator/internal/service"
)

// Simulations is the part of the session service the handlers use.
type Simulations interface {
	Strategies() []service.StrategyInfo
	DefaultRounds() int
	CreateSession(ctx context.Context, req service.SessionRequest) (service.SessionSnapshot, error)
	RunRounds(ctx context.Context, id uuid.UUID, n int) (service.RoundsResult, error)
	Snapshot(ctx context.Context, id uuid.UUID) (service.SessionSnapshot, error)
	Reset(ctx context.Context, id uuid.UUID) (service.SessionSnapshot, error)
	Close(ctx context.Context, id uuid.UUID) (*model.Run, error)
	ListRuns(ctx context.Context, limit int) ([]*model.Run, error)
	GetRun(ctx context.Context, id uuid.UUID) (*model.Run, error)
}

// RoundsRequest is the body of POST /sessions/{id}/rounds.
// Zero rounds uses the configured default.
type RoundsRequest struct {
	Rounds int `json:"rounds" validate:"gte=0,lte=100000"`
}

// SimulationHandler handles session and run endpoints.
type SimulationHandler struct {
	sims Simulations
}

// NewSimulationHandler creates a new SimulationHandler.
func NewSimulationHandler(sims Simulations) *SimulationHandler {
	return &SimulationHandler{sims: sims}
}

// HandleListStrategies lists the registered strategies.
func (h *SimulationHandler) HandleListStrategies(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, h.sims.Strategies())
}

// HandleCreateSession starts a session.
func (h *SimulationHandler) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req service.SessionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	snap, err := h.sims.CreateSession(r.Context(), req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, snap)
}

// HandleGetSession returns a session snapshot.
func (h *SimulationHandler) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}

	snap, err := h.sims.Snapshot(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

// HandleRunRounds plays rounds on a session.
func (h *SimulationHandler) HandleRunRounds(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}

	var req RoundsRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if req.Rounds == 0 {
		req.Rounds = h.sims.DefaultRounds()
	}

	res, err := h.sims.RunRounds(r.Context(), id, req.Rounds)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

// HandleResetSession clears a session's round counters and spot histories.
func (h *SimulationHandler) HandleResetSession(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}

	snap, err := h.sims.Reset(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

// HandleCloseSession ends a session and returns the run summary.
func (h *SimulationHandler) HandleCloseSession(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}

	run, err := h.sims.Close(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, run)
}

// HandleListRuns lists persisted runs, newest first.
func (h *SimulationHandler) HandleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 100 {
			respondError(w, http.StatusBadRequest, "limit must be between 1 and 100")
			return
		}
		limit = n
	}

	runs, err := h.sims.ListRuns(r.Context(), limit)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if runs == nil {
		runs = []*model.Run{}
	}
	respondJSON(w, http.StatusOK, runs)
}

// HandleGetRun returns one persisted run.
func (h *SimulationHandler) HandleGetRun(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid run id")
		return
	}

	run, err := h.sims.GetRun(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, run)
}

func sessionID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid session id")
		return uuid.Nil, false
	}
	return id, true
}

// decodeAndValidate reads an optional JSON body into dst and validates it.
// An empty body leaves dst at its zero value.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		respondJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:  "validation failed",
			Fields: formatValidationError(err),
		})
		return false
	}
	return true
}
