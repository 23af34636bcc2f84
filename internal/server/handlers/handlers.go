// Package handlers contains HTTP handlers for the spawner API.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"slurmspawn/internal/apperrors"
	"slurmspawn/internal/spawner"
	"slurmspawn/internal/store"
	"slurmspawn/pkg/api"
)

// SessionManager is the lifecycle surface the handlers drive.
type SessionManager interface {
	Start(ctx context.Context, req spawner.StartRequest) (*spawner.StartResult, error)
	Poll(ctx context.Context, owner, logicalName string) (*spawner.PollResult, error)
	Stop(ctx context.Context, owner, logicalName string, graceful bool) error
	Get(ctx context.Context, owner, logicalName string) (*store.Identity, error)
}

// Pinger reports whether the backing database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers holds all HTTP handlers and their dependencies.
type Handlers struct {
	manager SessionManager
	db      Pinger
	logger  *slog.Logger
}

// New creates a new Handlers instance.
func New(manager SessionManager, db Pinger, log *slog.Logger) *Handlers {
	return &Handlers{manager: manager, db: db, logger: log}
}

// A helper function to write standard JSON responses.
func (h *Handlers) respondJson(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

// A helper function to return consistent error messages.
func (h *Handlers) httpError(w http.ResponseWriter, message string, code int) {
	h.respondJson(w, code, api.ErrorResponse{
		Error: message,
		Code:  http.StatusText(code),
	})
}

// appError maps a lifecycle error to the wire. Submission failures carry
// the scheduler job id and last observed state so callers can point
// sacct/squeue at the right place.
func (h *Handlers) appError(w http.ResponseWriter, err error) {
	var appErr *apperrors.Error
	if !errors.As(err, &appErr) {
		h.httpError(w, "internal error", http.StatusInternalServerError)
		return
	}

	resp := api.ErrorResponse{
		Error:     appErr.Message,
		JobID:     appErr.JobID,
		LastState: appErr.LastState,
	}

	var status int
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		status = http.StatusNotFound
		resp.Code = "not_found"
	case errors.Is(err, apperrors.ErrSubmissionFailed):
		status = http.StatusBadGateway
		resp.Code = "submission_failed"
	case errors.Is(err, apperrors.ErrPlacementUnresolved):
		status = http.StatusBadGateway
		resp.Code = "placement_unresolved"
	case errors.Is(err, apperrors.ErrNameResolution):
		status = http.StatusBadGateway
		resp.Code = "name_resolution"
	case errors.Is(err, apperrors.ErrCommandFailed):
		status = http.StatusBadGateway
		resp.Code = "scheduler_command_failed"
	case errors.Is(err, apperrors.ErrParseFailure):
		status = http.StatusBadGateway
		resp.Code = "scheduler_parse_failure"
	default:
		status = http.StatusInternalServerError
		resp.Code = "internal"
	}
	h.respondJson(w, status, resp)
}
