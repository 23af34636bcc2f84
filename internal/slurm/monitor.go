package slurm

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

// Monitor answers "what state is job X in right now" by querying squeue.
// It is used both by the submission wait-loop and by steady-state health
// polls.
type Monitor struct {
	runner     Runner
	squeuePath string
	timeout    time.Duration
	logger     *slog.Logger
}

// NewMonitor creates a state monitor. timeout bounds each individual
// status query, independent of any caller's polling policy.
func NewMonitor(runner Runner, squeuePath string, timeout time.Duration, logger *slog.Logger) *Monitor {
	return &Monitor{
		runner:     runner,
		squeuePath: squeuePath,
		timeout:    timeout,
		logger:     logger,
	}
}

// QueryState returns the current state of jobID.
//
// An empty jobID returns StateUnknown without touching squeue. This guard
// is load-bearing: `squeue -h -j '' -o %T` filters nothing and would
// report the state of whatever unrelated job happens to be in the queue.
func (m *Monitor) QueryState(ctx context.Context, jobID string) JobState {
	if jobID == "" {
		return StateUnknown
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	out, err := m.runner.Run(ctx, Command{
		Path: m.squeuePath,
		Args: []string{"-h", "-j", jobID, "-o", "%T"},
	})
	if err != nil {
		m.logger.Warn("status query failed", "job_id", jobID, "err", err)
		return StateUnknown
	}
	if out == "" {
		// squeue knows nothing about the id: no record, or already aged out.
		return StateUnknown
	}

	token := strings.Fields(out)[0]
	state, ok := ClassifyToken(token)
	if !ok {
		m.logger.Warn("unrecognized state token", "job_id", jobID, "token", token)
		return StateUnknown
	}

	m.logger.Debug("job state", "job_id", jobID, "state", state.String())
	return state
}
