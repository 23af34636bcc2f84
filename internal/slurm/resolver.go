package slurm

import (
	"context"
	"log/slog"
	"strings"

	"slurmspawn/internal/apperrors"
)

// Placement is where a running job landed: the compute node and its
// network address. It is derived from the scheduler's live answer each
// time it is needed, never persisted on its own.
type Placement struct {
	NodeName string
	Address  string
}

// Resolver maps a job id to the network address of the node hosting it.
type Resolver struct {
	runner     Runner
	squeuePath string
	hostPath   string
	logger     *slog.Logger
}

// NewResolver creates a placement resolver.
func NewResolver(runner Runner, squeuePath, hostPath string, logger *slog.Logger) *Resolver {
	return &Resolver{
		runner:     runner,
		squeuePath: squeuePath,
		hostPath:   hostPath,
		logger:     logger,
	}
}

// Resolve queries the node hosting jobID and resolves it to an address.
// A job with no node assignment yet yields ErrPlacementUnresolved; a
// failed name lookup yields ErrNameResolution. The two are distinct so
// callers can retry the former and alert on the latter.
func (r *Resolver) Resolve(ctx context.Context, jobID string) (Placement, error) {
	nodeName, err := r.runner.Run(ctx, Command{
		Path: r.squeuePath,
		Args: []string{"-h", "-j", jobID, "-o", "%N"},
	})
	if err != nil {
		return Placement{}, err
	}
	if nodeName == "" {
		return Placement{}, apperrors.PlacementUnresolved(jobID)
	}

	out, err := r.runner.Run(ctx, Command{
		Path: r.hostPath,
		Args: []string{nodeName},
	})
	if err != nil {
		return Placement{}, apperrors.NameResolution(nodeName, err)
	}

	fields := strings.Fields(out)
	if len(fields) == 0 {
		return Placement{}, apperrors.NameResolution(nodeName, apperrors.ErrParseFailure)
	}

	p := Placement{NodeName: nodeName, Address: fields[len(fields)-1]}
	r.logger.Debug("resolved placement", "job_id", jobID, "node", p.NodeName, "address", p.Address)
	return p, nil
}
