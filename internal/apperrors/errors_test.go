package apperrors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestSubmissionFailed_ClassifiesAndCarriesContext(t *testing.T) {
	err := SubmissionFailed("209", "FAILED", "job 209 failed to start")

	if !errors.Is(err, ErrSubmissionFailed) {
		t.Error("expected errors.Is(err, ErrSubmissionFailed) to be true")
	}

	var appErr *Error
	if !errors.As(err, &appErr) {
		t.Fatal("expected *Error")
	}
	if appErr.JobID != "209" {
		t.Errorf("got JobID %q, want 209", appErr.JobID)
	}
	if appErr.LastState != "FAILED" {
		t.Errorf("got LastState %q, want FAILED", appErr.LastState)
	}
}

func TestCommandFailed_WrapsCause(t *testing.T) {
	cause := fmt.Errorf("exit status 1: sbatch: error: invalid partition")
	err := CommandFailed("slurm.submit", cause)

	if !errors.Is(err, ErrCommandFailed) {
		t.Error("expected ErrCommandFailed classification")
	}
	if !strings.Contains(err.Error(), "invalid partition") {
		t.Errorf("expected cause in message, got: %v", err)
	}

	var appErr *Error
	errors.As(err, &appErr)
	if appErr.Cause != cause {
		t.Error("expected Cause to be preserved")
	}
}

func TestSentinels_AreDistinct(t *testing.T) {
	pairs := []struct {
		err      error
		sentinel error
	}{
		{ParseFailure("slurm.submit", "no job id in ack"), ErrParseFailure},
		{PlacementUnresolved("209"), ErrPlacementUnresolved},
		{NameResolution("node03", errors.New("NXDOMAIN")), ErrNameResolution},
		{NotFound("alice", "notebook"), ErrNotFound},
	}

	for _, p := range pairs {
		if !errors.Is(p.err, p.sentinel) {
			t.Errorf("%v: expected sentinel %v", p.err, p.sentinel)
		}
		if errors.Is(p.err, ErrSubmissionFailed) {
			t.Errorf("%v: unexpectedly matches ErrSubmissionFailed", p.err)
		}
	}
}
