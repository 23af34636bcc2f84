package slurm

import (
	"context"
	"log/slog"
)

// Canceller issues scancel for a job id.
type Canceller struct {
	runner      Runner
	scancelPath string
	logger      *slog.Logger
}

// NewCanceller creates a job canceller.
func NewCanceller(runner Runner, scancelPath string, logger *slog.Logger) *Canceller {
	return &Canceller{
		runner:      runner,
		scancelPath: scancelPath,
		logger:      logger,
	}
}

// Cancel requests cancellation of jobID. scancel is asynchronous; whether
// the job actually reached a terminal state is for the caller to verify
// with a follow-up status query.
func (c *Canceller) Cancel(ctx context.Context, jobID string) error {
	c.logger.Info("cancelling job", "job_id", jobID)
	_, err := c.runner.Run(ctx, Command{
		Path: c.scancelPath,
		Args: []string{jobID},
	})
	return err
}
