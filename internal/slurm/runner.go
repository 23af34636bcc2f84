package slurm

import (
	"bytes"
	"context"
	"log/slog"
	"os/exec"
	"strings"

	"slurmspawn/internal/apperrors"
)

// Command is one external scheduler invocation.
type Command struct {
	Path  string
	Args  []string
	Stdin string
}

// Runner executes external scheduler commands. It is the sole point of
// contact with the process boundary; retries belong to callers that
// understand the semantics of the specific command.
type Runner interface {
	// Run executes the command and returns its stdout with trailing
	// whitespace trimmed. A process that fails to launch or exits
	// abnormally yields an error carrying the stderr text; diagnostic
	// output is never returned as data.
	Run(ctx context.Context, cmd Command) (string, error)
}

// ExecCommandFunc builds the *exec.Cmd for an invocation. Tests swap it
// out to fake the scheduler binaries.
type ExecCommandFunc func(ctx context.Context, name string, args ...string) *exec.Cmd

// ExecRunner runs commands with os/exec.
type ExecRunner struct {
	execCommand ExecCommandFunc
	logger      *slog.Logger
}

// NewExecRunner creates a runner using the real exec.CommandContext.
func NewExecRunner(logger *slog.Logger) *ExecRunner {
	return &ExecRunner{
		execCommand: exec.CommandContext,
		logger:      logger,
	}
}

// SetExecCommand overrides the command factory. Test hook.
func (r *ExecRunner) SetExecCommand(f ExecCommandFunc) {
	r.execCommand = f
}

func (r *ExecRunner) Run(ctx context.Context, cmd Command) (string, error) {
	c := r.execCommand(ctx, cmd.Path, cmd.Args...)

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr
	if cmd.Stdin != "" {
		c.Stdin = strings.NewReader(cmd.Stdin)
	}

	r.logger.Debug("running scheduler command", "cmd", c.String())

	if err := c.Run(); err != nil {
		r.logger.Error("scheduler command failed",
			"cmd", c.String(), "stderr", stderr.String(), "err", err)
		return "", apperrors.CommandFailed(cmd.Path, commandError(err, stderr.String()))
	}

	return strings.TrimRight(stdout.String(), " \t\r\n"), nil
}

// commandError folds captured stderr into the exec error so failures are
// diagnosable from the error alone.
func commandError(err error, stderr string) error {
	stderr = strings.TrimSpace(stderr)
	if stderr == "" {
		return err
	}
	return &stderrError{err: err, stderr: stderr}
}

type stderrError struct {
	err    error
	stderr string
}

func (e *stderrError) Error() string {
	return e.err.Error() + ": " + e.stderr
}

func (e *stderrError) Unwrap() error {
	return e.err
}
