package spawner

import (
	"context"

	"slurmspawn/internal/slurm"
)

// Executor bounds how many external scheduler commands run at once. It
// is constructed explicitly and injected rather than living in process
// globals, so each daemon owns its pool and its shutdown.
type Executor struct {
	sem chan struct{}
}

// NewExecutor creates a pool admitting up to concurrency commands.
func NewExecutor(concurrency int) *Executor {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Executor{sem: make(chan struct{}, concurrency)}
}

// Do runs fn once a pool slot is free. Waiting for a slot is aborted by
// ctx so a cancelled caller never queues work.
func (e *Executor) Do(ctx context.Context, fn func() error) error {
	select {
	case e.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-e.sem }()

	return fn()
}

// PooledRunner routes every scheduler command through an Executor. The
// submission wait-loop sleeps outside the pool, so a slot is held only
// for the duration of a single command, never across a poll interval.
type PooledRunner struct {
	exec  *Executor
	inner slurm.Runner
}

// NewPooledRunner wraps inner so its invocations share exec's slots.
func NewPooledRunner(exec *Executor, inner slurm.Runner) *PooledRunner {
	return &PooledRunner{exec: exec, inner: inner}
}

func (r *PooledRunner) Run(ctx context.Context, cmd slurm.Command) (string, error) {
	var out string
	err := r.exec.Do(ctx, func() error {
		var runErr error
		out, runErr = r.inner.Run(ctx, cmd)
		return runErr
	})
	return out, err
}
