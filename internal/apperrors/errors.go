// Package apperrors provides structured application errors for the
// scheduler boundary, classified via errors.Is().
package apperrors

import (
	"errors"
	"fmt"
)

// Sentinel errors for classification via errors.Is().
var (
	// ErrCommandFailed means the external scheduler command could not run
	// or exited abnormally.
	ErrCommandFailed = errors.New("command failed")
	// ErrParseFailure means command output did not match the expected
	// shape, e.g. no job id in a submission acknowledgement.
	ErrParseFailure = errors.New("parse failure")
	// ErrStateUnknown means a status query was inconclusive.
	ErrStateUnknown = errors.New("job state unknown")
	// ErrSubmissionFailed means the submission wait-loop reached a
	// terminal or unknown state before the job started running.
	ErrSubmissionFailed = errors.New("submission failed")
	// ErrPlacementUnresolved means the job is running but its node is not
	// yet reported by the scheduler.
	ErrPlacementUnresolved = errors.New("placement unresolved")
	// ErrNameResolution means a node name could not be resolved to an
	// address.
	ErrNameResolution = errors.New("name resolution failed")
	// ErrNotFound means no session identity exists for the requested key.
	ErrNotFound = errors.New("not found")
)

// Error provides a structured error with scheduler context.
type Error struct {
	Sentinel  error  // Wrapped sentinel for errors.Is() classification
	Message   string // Human-readable message
	JobID     string // Last known scheduler job id, if any
	LastState string // Last observed job state token, if any
	Op        string // Operation that failed (e.g., "slurm.submit")
	Cause     error  // Underlying error
}

// Error returns the human-readable error message.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the sentinel error for errors.Is() classification.
func (e *Error) Unwrap() error {
	return e.Sentinel
}

// CommandFailed wraps a failed external command invocation.
func CommandFailed(op string, cause error) error {
	return &Error{
		Sentinel: ErrCommandFailed,
		Message:  fmt.Sprintf("%s: %v", op, cause),
		Op:       op,
		Cause:    cause,
	}
}

// ParseFailure reports output that did not match the expected shape.
func ParseFailure(op, message string) error {
	return &Error{
		Sentinel: ErrParseFailure,
		Message:  message,
		Op:       op,
	}
}

// SubmissionFailed reports a job that never reached Running, carrying
// the job id and the last observed state for diagnosis.
func SubmissionFailed(jobID, lastState, message string) error {
	return &Error{
		Sentinel:  ErrSubmissionFailed,
		Message:   message,
		JobID:     jobID,
		LastState: lastState,
	}
}

// PlacementUnresolved reports a job with no node assignment yet.
func PlacementUnresolved(jobID string) error {
	return &Error{
		Sentinel: ErrPlacementUnresolved,
		Message:  fmt.Sprintf("job %s has no node assignment yet", jobID),
		JobID:    jobID,
	}
}

// NameResolution wraps a failed node-name lookup.
func NameResolution(node string, cause error) error {
	return &Error{
		Sentinel: ErrNameResolution,
		Message:  fmt.Sprintf("resolving node %s: %v", node, cause),
		Op:       "resolve",
		Cause:    cause,
	}
}

// NotFound reports a missing session identity.
func NotFound(owner, name string) error {
	return &Error{
		Sentinel: ErrNotFound,
		Message:  fmt.Sprintf("no session %s for owner %s", name, owner),
	}
}
