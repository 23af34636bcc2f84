package slurm

import (
	"context"
	"errors"
	"testing"

	"slurmspawn/internal/apperrors"
	"slurmspawn/internal/logger"
)

func newTestResolver(r Runner) *Resolver {
	return NewResolver(r, "squeue", "host", logger.New())
}

func TestResolve_Success(t *testing.T) {
	runner := &scriptedRunner{responses: []scriptedResponse{
		{out: "node03"},
		{out: "node03.cluster.local has address 10.0.0.5"},
	}}
	r := newTestResolver(runner)

	placement, err := r.Resolve(context.Background(), "209")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if placement.NodeName != "node03" {
		t.Errorf("got node %q, want node03", placement.NodeName)
	}
	if placement.Address != "10.0.0.5" {
		t.Errorf("got address %q, want 10.0.0.5", placement.Address)
	}

	if len(runner.calls) != 2 {
		t.Fatalf("expected 2 commands, got %d", len(runner.calls))
	}
	if runner.calls[1].Path != "host" || runner.calls[1].Args[0] != "node03" {
		t.Errorf("unexpected resolution command: %+v", runner.calls[1])
	}
}

func TestResolve_NoPlacementYet(t *testing.T) {
	runner := &scriptedRunner{responses: []scriptedResponse{{out: ""}}}
	r := newTestResolver(runner)

	_, err := r.Resolve(context.Background(), "209")
	if !errors.Is(err, apperrors.ErrPlacementUnresolved) {
		t.Errorf("expected ErrPlacementUnresolved, got %v", err)
	}
	if len(runner.calls) != 1 {
		t.Errorf("name resolution should not run without a node, got %d calls", len(runner.calls))
	}
}

func TestResolve_NameResolutionFailureIsDistinct(t *testing.T) {
	runner := &scriptedRunner{responses: []scriptedResponse{
		{out: "node03"},
		{err: apperrors.CommandFailed("host", errors.New("NXDOMAIN"))},
	}}
	r := newTestResolver(runner)

	_, err := r.Resolve(context.Background(), "209")
	if !errors.Is(err, apperrors.ErrNameResolution) {
		t.Errorf("expected ErrNameResolution, got %v", err)
	}
	if errors.Is(err, apperrors.ErrPlacementUnresolved) {
		t.Error("name resolution failure must not classify as unresolved placement")
	}
}

func TestResolve_PlacementQueryFailure(t *testing.T) {
	runner := &scriptedRunner{responses: []scriptedResponse{
		{err: apperrors.CommandFailed("squeue", errors.New("timeout"))},
	}}
	r := newTestResolver(runner)

	_, err := r.Resolve(context.Background(), "209")
	if !errors.Is(err, apperrors.ErrCommandFailed) {
		t.Errorf("expected ErrCommandFailed, got %v", err)
	}
}
