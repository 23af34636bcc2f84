package handlers

import (
	"encoding/json"
	"net/http"

	"slurmspawn/internal/logger"
	"slurmspawn/internal/spawner"
	"slurmspawn/pkg/api"
)

// StartSession handles POST /sessions/{owner}/{name}.
// Starting an already-running session re-attaches to it instead of
// submitting a duplicate, so repeated POSTs are safe.
func (h *Handlers) StartSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner := r.PathValue("owner")
	name := r.PathValue("name")

	var req api.StartSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.httpError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.Command) == 0 {
		h.httpError(w, "Command is required", http.StatusBadRequest)
		return
	}

	result, err := h.manager.Start(ctx, spawner.StartRequest{
		Owner:       owner,
		LogicalName: name,
		Command:     req.Command,
		Env:         req.Env,
		Port:        req.Port,
	})
	if err != nil {
		logger.FromContext(ctx, h.logger).Error("start failed",
			"owner", owner, "session", name, "error", err)
		h.appError(w, err)
		return
	}

	h.respondJson(w, http.StatusOK, api.StartSessionResponse{
		JobID:    result.JobID,
		NodeName: result.Placement.NodeName,
		Address:  result.Placement.Address,
		Port:     result.Port,
		Attached: result.Attached,
	})
}

// PollSession handles GET /sessions/{owner}/{name}.
// It always answers 200; liveness is in the body. A session nobody ever
// started simply reports not alive.
func (h *Handlers) PollSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner := r.PathValue("owner")
	name := r.PathValue("name")

	result, err := h.manager.Poll(ctx, owner, name)
	if err != nil {
		logger.FromContext(ctx, h.logger).Error("poll failed",
			"owner", owner, "session", name, "error", err)
		h.appError(w, err)
		return
	}

	h.respondJson(w, http.StatusOK, api.PollSessionResponse{
		Alive: result.Alive,
		State: result.State.String(),
		JobID: result.JobID,
	})
}

// GetSession handles GET /sessions/{owner}/{name}/identity.
// It returns the persisted identity without touching the scheduler.
func (h *Handlers) GetSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner := r.PathValue("owner")
	name := r.PathValue("name")

	ident, err := h.manager.Get(ctx, owner, name)
	if err != nil {
		h.appError(w, err)
		return
	}

	h.respondJson(w, http.StatusOK, api.SessionResponse{
		Owner:       ident.Owner,
		LogicalName: ident.LogicalName,
		JobID:       ident.JobID,
		NodeName:    ident.NodeName,
		Address:     ident.NodeAddress,
		Port:        ident.Port,
		CreatedAt:   ident.CreatedAt,
	})
}

// StopSession handles DELETE /sessions/{owner}/{name}.
// ?graceful=false skips the scancel and only forgets the identity.
// Stopping a session that does not exist succeeds.
func (h *Handlers) StopSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner := r.PathValue("owner")
	name := r.PathValue("name")
	graceful := r.URL.Query().Get("graceful") != "false"

	if err := h.manager.Stop(ctx, owner, name, graceful); err != nil {
		logger.FromContext(ctx, h.logger).Error("stop failed",
			"owner", owner, "session", name, "error", err)
		h.appError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
