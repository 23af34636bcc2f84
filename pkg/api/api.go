// Package api contains shared JSON request/response structs.
// This package is shared between the CLI and the spawner daemon.
package api

import "time"

// StartSessionRequest is the request body for starting a session.
type StartSessionRequest struct {
	// Command is the program to launch inside the batch job, as argv tokens.
	Command []string `json:"command"`
	// Env holds environment variables exported in the job script before
	// the command runs.
	Env map[string]string `json:"env,omitempty"`
	// Port is the network port the session process will listen on. If zero
	// the daemon picks a random registered port.
	Port int `json:"port,omitempty"`
}

// StartSessionResponse is the response body after a session reaches Running.
type StartSessionResponse struct {
	JobID    string `json:"job_id"`
	NodeName string `json:"node_name"`
	Address  string `json:"address"`
	Port     int    `json:"port"`
	// Attached is true when an already-running job was re-attached to
	// instead of a new submission being made.
	Attached bool `json:"attached"`
}

// PollSessionResponse is the response body for session liveness queries.
type PollSessionResponse struct {
	Alive bool   `json:"alive"`
	State string `json:"state"`
	JobID string `json:"job_id,omitempty"`
}

// SessionResponse describes a persisted session identity.
type SessionResponse struct {
	Owner       string    `json:"owner"`
	LogicalName string    `json:"logical_name"`
	JobID       string    `json:"job_id"`
	NodeName    string    `json:"node_name,omitempty"`
	Address     string    `json:"address,omitempty"`
	Port        int       `json:"port"`
	CreatedAt   time.Time `json:"created_at"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
	// JobID and LastState carry diagnostic context for submission
	// failures so callers can investigate without re-running squeue.
	JobID     string `json:"job_id,omitempty"`
	LastState string `json:"last_state,omitempty"`
}
