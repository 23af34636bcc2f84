package slurm

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"slurmspawn/internal/apperrors"
	"slurmspawn/internal/logger"
)

func newTestSubmitter(r Runner, hook AdmissionHook) *Submitter {
	monitor := NewMonitor(r, "squeue", time.Second, logger.New())
	return NewSubmitter(r, monitor, SubmitterConfig{
		SbatchPath:         "sbatch",
		TemplatePath:       "/nonexistent/template.slurm",
		ProfileTemplateDir: "/etc/slurmspawn/profile",
		HomeRoot:           "/home",
		PollInterval:       5 * time.Millisecond,
		MaxWait:            time.Second,
	}, hook, logger.New())
}

type recordingHook struct {
	owner string
	port  int
	err   error
}

func (h *recordingHook) Mark(owner string, port int) error {
	h.owner = owner
	h.port = port
	return h.err
}

func TestSubmit_ParsesJobIDFromAck(t *testing.T) {
	runner := &scriptedRunner{responses: []scriptedResponse{{out: "Submitted batch job 209"}}}
	s := newTestSubmitter(runner, nil)

	jobID, err := s.Submit(context.Background(), sampleRequest())
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if jobID != "209" {
		t.Errorf("got job id %q, want 209", jobID)
	}

	call := runner.lastCall(t)
	if call.Path != "sbatch" {
		t.Errorf("got path %q, want sbatch", call.Path)
	}
	if !strings.Contains(call.Stdin, "#SBATCH --comment=8891") {
		t.Error("rendered script missing port annotation")
	}
	if !strings.Contains(call.Stdin, DefaultDirectives) {
		t.Error("expected built-in directives when no admin template exists")
	}
}

func TestSubmit_TemplateOverride(t *testing.T) {
	runner := &scriptedRunner{responses: []scriptedResponse{{out: "Submitted batch job 300"}}}
	s := newTestSubmitter(runner, nil)

	req := sampleRequest()
	req.Template = "#SBATCH --partition=debug"

	if _, err := s.Submit(context.Background(), req); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	call := runner.lastCall(t)
	if !strings.Contains(call.Stdin, "#SBATCH --partition=debug") {
		t.Error("request template not rendered")
	}
	if strings.Contains(call.Stdin, DefaultDirectives) {
		t.Error("defaults should not appear when the request overrides them")
	}
}

func TestSubmit_MalformedAck(t *testing.T) {
	cases := []string{"", "sbatch: error: Batch job submission failed"}

	for _, ack := range cases {
		runner := &scriptedRunner{responses: []scriptedResponse{{out: ack}}}
		s := newTestSubmitter(runner, nil)

		_, err := s.Submit(context.Background(), sampleRequest())
		if !errors.Is(err, apperrors.ErrParseFailure) {
			t.Errorf("ack %q: expected ErrParseFailure, got %v", ack, err)
		}
	}
}

func TestSubmit_CommandFailurePropagates(t *testing.T) {
	runner := &scriptedRunner{responses: []scriptedResponse{
		{err: apperrors.CommandFailed("sbatch", errors.New("invalid partition"))},
	}}
	s := newTestSubmitter(runner, nil)

	_, err := s.Submit(context.Background(), sampleRequest())
	if !errors.Is(err, apperrors.ErrCommandFailed) {
		t.Errorf("expected ErrCommandFailed, got %v", err)
	}
}

func TestSubmit_InvokesAdmissionHook(t *testing.T) {
	runner := &scriptedRunner{responses: []scriptedResponse{{out: "Submitted batch job 209"}}}
	hook := &recordingHook{}
	s := newTestSubmitter(runner, hook)

	if _, err := s.Submit(context.Background(), sampleRequest()); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if hook.owner != "alice" || hook.port != 8891 {
		t.Errorf("hook saw (%q, %d), want (alice, 8891)", hook.owner, hook.port)
	}
}

func TestSubmit_HookFailureDoesNotBlockSubmission(t *testing.T) {
	runner := &scriptedRunner{responses: []scriptedResponse{{out: "Submitted batch job 209"}}}
	hook := &recordingHook{err: errors.New("no such user")}
	s := newTestSubmitter(runner, hook)

	jobID, err := s.Submit(context.Background(), sampleRequest())
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if jobID != "209" {
		t.Errorf("got job id %q, want 209", jobID)
	}
}

func TestWaitUntilRunning_PendingThenRunning(t *testing.T) {
	runner := &scriptedRunner{responses: []scriptedResponse{
		{out: "PENDING"},
		{out: "PENDING"},
		{out: "RUNNING"},
	}}
	s := newTestSubmitter(runner, nil)

	if err := s.WaitUntilRunning(context.Background(), "209"); err != nil {
		t.Fatalf("WaitUntilRunning failed: %v", err)
	}
	if len(runner.calls) != 3 {
		t.Errorf("expected 3 status queries, got %d", len(runner.calls))
	}
}

func TestWaitUntilRunning_FailsFastOnTerminal(t *testing.T) {
	runner := &scriptedRunner{responses: []scriptedResponse{
		{out: "PENDING"},
		{out: "FAILED"},
	}}
	s := newTestSubmitter(runner, nil)

	err := s.WaitUntilRunning(context.Background(), "209")
	if !errors.Is(err, apperrors.ErrSubmissionFailed) {
		t.Fatalf("expected ErrSubmissionFailed, got %v", err)
	}

	var appErr *apperrors.Error
	errors.As(err, &appErr)
	if appErr.JobID != "209" || appErr.LastState != "FAILED" {
		t.Errorf("failure missing diagnostics: job_id=%q last_state=%q", appErr.JobID, appErr.LastState)
	}
}

func TestWaitUntilRunning_FailsFastOnUnknown(t *testing.T) {
	runner := &scriptedRunner{responses: []scriptedResponse{{out: ""}}}
	s := newTestSubmitter(runner, nil)

	err := s.WaitUntilRunning(context.Background(), "209")
	if !errors.Is(err, apperrors.ErrSubmissionFailed) {
		t.Errorf("expected ErrSubmissionFailed, got %v", err)
	}
}

func TestWaitUntilRunning_BoundedByMaxWait(t *testing.T) {
	runner := &scriptedRunner{responses: []scriptedResponse{{out: "PENDING"}}}
	monitor := NewMonitor(runner, "squeue", time.Second, logger.New())
	s := NewSubmitter(runner, monitor, SubmitterConfig{
		SbatchPath:   "sbatch",
		PollInterval: time.Millisecond,
		MaxWait:      20 * time.Millisecond,
	}, nil, logger.New())

	err := s.WaitUntilRunning(context.Background(), "209")
	if !errors.Is(err, apperrors.ErrSubmissionFailed) {
		t.Fatalf("expected ErrSubmissionFailed after MaxWait, got %v", err)
	}

	var appErr *apperrors.Error
	errors.As(err, &appErr)
	if appErr.LastState != "PENDING" {
		t.Errorf("got last state %q, want PENDING", appErr.LastState)
	}
}

func TestWaitUntilRunning_HonorsCancellation(t *testing.T) {
	runner := &scriptedRunner{responses: []scriptedResponse{{out: "PENDING"}}}
	s := newTestSubmitter(runner, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.WaitUntilRunning(ctx, "209")
	if !errors.Is(err, apperrors.ErrSubmissionFailed) {
		t.Errorf("expected ErrSubmissionFailed on cancellation, got %v", err)
	}
}
