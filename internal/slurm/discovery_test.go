package slurm

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"slurmspawn/internal/apperrors"
	"slurmspawn/internal/logger"
)

func newTestDiscovery(r Runner) *Discovery {
	return NewDiscovery(r, "squeue", logger.New())
}

func TestFindByName_ZeroMatchesIsNotAnError(t *testing.T) {
	runner := &scriptedRunner{responses: []scriptedResponse{{out: ""}}}
	d := newTestDiscovery(runner)

	jobID, port, err := d.FindByName(context.Background(), "alice", "spawner-jupyterhub-singleuser")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if jobID != "" || port != "" {
		t.Errorf("got (%q, %q), want empty identifiers", jobID, port)
	}
}

func TestFindByName_SingleMatch(t *testing.T) {
	runner := &scriptedRunner{responses: []scriptedResponse{{out: "209            8891"}}}
	d := newTestDiscovery(runner)

	jobID, port, err := d.FindByName(context.Background(), "alice", "spawner-jupyterhub-singleuser")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if jobID != "209" || port != "8891" {
		t.Errorf("got (%q, %q), want (209, 8891)", jobID, port)
	}

	call := runner.lastCall(t)
	want := []string{"-h", "-u", "alice", "--name=spawner-jupyterhub-singleuser", "-O", "jobid,comment"}
	if !reflect.DeepEqual(call.Args, want) {
		t.Errorf("got args %v, want %v", call.Args, want)
	}
}

func TestFindByName_MultipleMatchesTakesFirst(t *testing.T) {
	runner := &scriptedRunner{responses: []scriptedResponse{
		{out: "209   8891\n210   9001\n211   9002"},
	}}
	d := newTestDiscovery(runner)

	jobID, port, err := d.FindByName(context.Background(), "alice", "notebook")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if jobID != "209" || port != "8891" {
		t.Errorf("got (%q, %q), want first match (209, 8891)", jobID, port)
	}
}

func TestFindByName_CommandFailurePropagates(t *testing.T) {
	// "could not determine whether a job exists" must stay distinct from
	// "no job found".
	runner := &scriptedRunner{responses: []scriptedResponse{
		{err: apperrors.CommandFailed("squeue", errors.New("connection refused"))},
	}}
	d := newTestDiscovery(runner)

	_, _, err := d.FindByName(context.Background(), "alice", "notebook")
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, apperrors.ErrCommandFailed) {
		t.Errorf("expected ErrCommandFailed, got %v", err)
	}
}

func TestFindByName_MissingCommentFieldIsParseFailure(t *testing.T) {
	runner := &scriptedRunner{responses: []scriptedResponse{{out: "209"}}}
	d := newTestDiscovery(runner)

	_, _, err := d.FindByName(context.Background(), "alice", "notebook")
	if !errors.Is(err, apperrors.ErrParseFailure) {
		t.Errorf("expected ErrParseFailure, got %v", err)
	}
}
