// Package slurm drives and observes the Slurm workload manager through
// its command line surface: sbatch for submission, squeue for status and
// placement queries, scancel for cancellation.
package slurm

// JobState is the normalized state of a batch job.
type JobState int

const (
	// StateUnknown means there was no job id to query, or the query
	// produced no recognizable state token. Callers must treat it
	// conservatively, as not-running.
	StateUnknown JobState = iota
	StatePending
	StateRunning
	StateCompleted
	StateFailed
	StateCancelled
)

// stateTokens maps the exact tokens squeue reports to normalized states.
// COMPLETING counts as completed: the job is past its useful life and is
// waiting for epilog cleanup. Tokens not listed here classify as Unknown;
// substring matching against raw output is deliberately avoided.
var stateTokens = map[string]JobState{
	"RUNNING":     StateRunning,
	"PENDING":     StatePending,
	"CONFIGURING": StatePending,
	"COMPLETED":   StateCompleted,
	"COMPLETING":  StateCompleted,
	"FAILED":      StateFailed,
	"CANCELLED":   StateCancelled,
}

// ClassifyToken maps a scheduler state token to a JobState. The second
// return is false for unrecognized tokens so callers can log them before
// falling back to StateUnknown.
func ClassifyToken(token string) (JobState, bool) {
	if s, ok := stateTokens[token]; ok {
		return s, true
	}
	return StateUnknown, false
}

// Terminal reports whether the job has finished for good.
func (s JobState) Terminal() bool {
	switch s {
	case StateCompleted, StateFailed, StateCancelled:
		return true
	}
	return false
}

// Alive reports whether the job still holds or is waiting for resources.
func (s JobState) Alive() bool {
	return s == StateRunning || s == StatePending
}

func (s JobState) String() string {
	switch s {
	case StatePending:
		return "PENDING"
	case StateRunning:
		return "RUNNING"
	case StateCompleted:
		return "COMPLETED"
	case StateFailed:
		return "FAILED"
	case StateCancelled:
		return "CANCELLED"
	default:
		return "UNKNOWN"
	}
}
