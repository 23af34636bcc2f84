package slurm

import (
	"context"
	"log/slog"
	"strings"

	"slurmspawn/internal/apperrors"
)

// Discovery looks up whether a job with a given logical name is already
// queued or running for an owner, so callers can re-attach instead of
// double-submitting.
type Discovery struct {
	runner     Runner
	squeuePath string
	logger     *slog.Logger
}

// NewDiscovery creates a job discovery helper.
func NewDiscovery(runner Runner, squeuePath string, logger *slog.Logger) *Discovery {
	return &Discovery{
		runner:     runner,
		squeuePath: squeuePath,
		logger:     logger,
	}
}

// FindByName returns the job id and launch port of an existing job named
// logicalName belonging to owner. The port travels in the job's comment
// field, written there at submission time, which makes it recoverable
// after a daemon restart.
//
// Zero matches returns ("", "", nil): a valid empty answer, not an
// error. If the query unexpectedly matches several jobs the first line
// wins; that tie-break is lossy but the submission path prevents
// duplicates in the first place. A failed query is an error so callers
// can tell "no job" apart from "could not ask".
func (d *Discovery) FindByName(ctx context.Context, owner, logicalName string) (jobID, port string, err error) {
	out, err := d.runner.Run(ctx, Command{
		Path: d.squeuePath,
		Args: []string{"-h", "-u", owner, "--name=" + logicalName, "-O", "jobid,comment"},
	})
	if err != nil {
		return "", "", err
	}
	if out == "" {
		return "", "", nil
	}

	lines := strings.Split(out, "\n")
	if len(lines) > 1 {
		d.logger.Warn("multiple jobs match logical name, taking the first",
			"owner", owner, "session", logicalName, "matches", len(lines))
	}

	fields := strings.Fields(lines[0])
	if len(fields) < 2 {
		return "", "", apperrors.ParseFailure("slurm.discover",
			"job listing line missing comment field: "+lines[0])
	}

	d.logger.Debug("found existing job",
		"owner", owner, "session", logicalName, "job_id", fields[0], "port", fields[1])
	return fields[0], fields[1], nil
}
