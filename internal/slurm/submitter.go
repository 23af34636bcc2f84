package slurm

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"slurmspawn/internal/apperrors"
)

// SubmissionRequest describes one job submission. It is constructed per
// start call and never persisted.
type SubmissionRequest struct {
	Owner       string
	LogicalName string
	Port        int
	Command     []string
	Env         map[string]string
	// Template overrides the admin directive template for this request.
	Template string
}

// AdmissionHook is invoked just before a script is handed to sbatch. The
// stock implementation drops a marker file that a scheduler-side submit
// hook can verify; failures are logged and never block submission.
type AdmissionHook interface {
	Mark(owner string, port int) error
}

// SubmitterConfig controls script rendering and the wait-loop policy.
type SubmitterConfig struct {
	SbatchPath         string
	TemplatePath       string
	ProfileTemplateDir string
	// HomeRoot is the parent of per-owner home directories.
	HomeRoot string
	// PollInterval is the sleep between wait-loop status queries.
	PollInterval time.Duration
	// MaxWait bounds the whole wait-loop; exceeding it fails the submission.
	MaxWait time.Duration
}

// Submitter renders submission scripts, launches them through sbatch and
// confirms the resulting job reaches RUNNING.
type Submitter struct {
	runner  Runner
	monitor *Monitor
	cfg     SubmitterConfig
	hook    AdmissionHook
	logger  *slog.Logger
}

// NewSubmitter creates a submitter. hook may be nil to disable the
// admission side-channel.
func NewSubmitter(runner Runner, monitor *Monitor, cfg SubmitterConfig, hook AdmissionHook, logger *slog.Logger) *Submitter {
	if cfg.HomeRoot == "" {
		cfg.HomeRoot = "/home"
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 1 * time.Second
	}
	if cfg.MaxWait <= 0 {
		cfg.MaxWait = 10 * time.Minute
	}
	return &Submitter{
		runner:  runner,
		monitor: monitor,
		cfg:     cfg,
		hook:    hook,
		logger:  logger,
	}
}

// Submit renders and launches the job, returning the scheduler-assigned
// job id parsed from the acknowledgement ("Submitted batch job 209" →
// "209"). It returns as soon as the id is known; call WaitUntilRunning to
// confirm startup.
func (s *Submitter) Submit(ctx context.Context, req SubmissionRequest) (string, error) {
	directives := req.Template
	if directives == "" {
		var err error
		directives, err = LoadDirectives(s.cfg.TemplatePath)
		if err != nil {
			return "", fmt.Errorf("loading directive template: %w", err)
		}
	}

	home := filepath.Join(s.cfg.HomeRoot, req.Owner)
	script, err := RenderScript(req, directives, home, s.cfg.ProfileTemplateDir)
	if err != nil {
		return "", err
	}

	if s.hook != nil {
		if err := s.hook.Mark(req.Owner, req.Port); err != nil {
			s.logger.Warn("admission hook failed, submitting anyway",
				"owner", req.Owner, "err", err)
		}
	}

	s.logger.Debug("submitting script", "owner", req.Owner, "script", script)

	ack, err := s.runner.Run(ctx, Command{Path: s.cfg.SbatchPath, Stdin: script})
	if err != nil {
		return "", err
	}

	jobID, err := parseSubmitAck(ack)
	if err != nil {
		return "", err
	}

	s.logger.Info("job submitted",
		"owner", req.Owner, "session", req.LogicalName, "job_id", jobID, "port", req.Port)
	return jobID, nil
}

// WaitUntilRunning polls the job state until it reaches RUNNING. Pending
// (including node configuration) keeps the loop going; a terminal or
// unknown classification fails immediately, since startup does not
// tolerate blips the way steady-state polling does. The loop is bounded by MaxWait
// and honors ctx cancellation between sleeps.
func (s *Submitter) WaitUntilRunning(ctx context.Context, jobID string) error {
	deadline := time.Now().Add(s.cfg.MaxWait)

	for {
		state := s.monitor.QueryState(ctx, jobID)
		switch {
		case state == StateRunning:
			return nil
		case state == StatePending:
			// keep waiting
		default:
			return apperrors.SubmissionFailed(jobID, state.String(),
				fmt.Sprintf("job %s failed to start (last state %s)", jobID, state))
		}

		if time.Now().After(deadline) {
			return apperrors.SubmissionFailed(jobID, state.String(),
				fmt.Sprintf("job %s still %s after %s", jobID, state, s.cfg.MaxWait))
		}

		select {
		case <-ctx.Done():
			return apperrors.SubmissionFailed(jobID, state.String(),
				fmt.Sprintf("wait for job %s aborted: %v", jobID, ctx.Err()))
		case <-time.After(s.cfg.PollInterval):
		}
	}
}

// parseSubmitAck extracts the job id as the last whitespace-separated
// token of the sbatch acknowledgement, which is the documented shape of
// the reply.
func parseSubmitAck(ack string) (string, error) {
	fields := strings.Fields(ack)
	if len(fields) == 0 {
		return "", apperrors.ParseFailure("slurm.submit", "empty submission acknowledgement")
	}
	jobID := fields[len(fields)-1]
	for _, r := range jobID {
		if r < '0' || r > '9' {
			return "", apperrors.ParseFailure("slurm.submit",
				"no job id in acknowledgement: "+ack)
		}
	}
	return jobID, nil
}
