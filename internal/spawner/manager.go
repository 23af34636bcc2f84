// Package spawner implements the session lifecycle: start, poll and stop
// of singleton per-user jobs on the batch scheduler.
package spawner

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"slurmspawn/internal/apperrors"
	"slurmspawn/internal/logger"
	"slurmspawn/internal/slurm"
	"slurmspawn/internal/store"
)

// Discovery finds an already-queued job for an (owner, logical name) pair.
type Discovery interface {
	FindByName(ctx context.Context, owner, logicalName string) (jobID, port string, err error)
}

// Submitter launches new jobs and waits for them to start.
type Submitter interface {
	Submit(ctx context.Context, req slurm.SubmissionRequest) (string, error)
	WaitUntilRunning(ctx context.Context, jobID string) error
}

// Monitor reports the scheduler state of a job.
type Monitor interface {
	QueryState(ctx context.Context, jobID string) slurm.JobState
}

// Resolver maps a job to the address of its compute node.
type Resolver interface {
	Resolve(ctx context.Context, jobID string) (slurm.Placement, error)
}

// Canceller asks the scheduler to terminate a job.
type Canceller interface {
	Cancel(ctx context.Context, jobID string) error
}

// StartRequest is the manager-level input for starting a session.
type StartRequest struct {
	Owner       string
	LogicalName string
	Command     []string
	Env         map[string]string
	// Port of zero means pick a random registered port.
	Port int
}

// StartResult is what a successful start reports back.
type StartResult struct {
	JobID     string
	Port      int
	Placement slurm.Placement
	// Attached is true when an existing job was adopted instead of a new
	// one being submitted.
	Attached bool
}

// PollResult reports session liveness.
type PollResult struct {
	Alive bool
	State slurm.JobState
	JobID string
}

// Config holds the manager's tunables.
type Config struct {
	// StopRecheckDelay is how long Stop waits after a graceful cancel
	// before verifying the job actually went away.
	StopRecheckDelay time.Duration
}

// Manager owns the session state machine. All transitions for one
// (owner, logical name) pair are serialized through a per-pair lock, and
// concurrent identical starts are coalesced so the scheduler only ever
// sees one submission per pair.
type Manager struct {
	discovery Discovery
	submitter Submitter
	monitor   Monitor
	resolver  Resolver
	canceller Canceller
	store     store.IdentityStore
	cfg       Config
	logger    *slog.Logger
	metrics   *metrics

	group singleflight.Group

	mu    sync.Mutex
	locks map[string]*sync.Mutex
	// waits holds the cancel func for an in-flight submission wait-loop,
	// keyed like locks, so Stop can interrupt a Start that is still
	// waiting for RUNNING.
	waits map[string]context.CancelFunc
}

// NewManager wires the lifecycle manager.
func NewManager(discovery Discovery, submitter Submitter, monitor Monitor, resolver Resolver, canceller Canceller, identities store.IdentityStore, cfg Config, log *slog.Logger) (*Manager, error) {
	if cfg.StopRecheckDelay <= 0 {
		cfg.StopRecheckDelay = 1 * time.Second
	}
	m, err := newMetrics()
	if err != nil {
		return nil, err
	}
	return &Manager{
		discovery: discovery,
		submitter: submitter,
		monitor:   monitor,
		resolver:  resolver,
		canceller: canceller,
		store:     identities,
		cfg:       cfg,
		logger:    log,
		metrics:   m,
		locks:     make(map[string]*sync.Mutex),
		waits:     make(map[string]context.CancelFunc),
	}, nil
}

func sessionKey(owner, logicalName string) string {
	return owner + "/" + logicalName
}

// sessionLock returns the mutex serializing transitions for one pair.
func (m *Manager) sessionLock(key string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[key]
	if !ok {
		l = &sync.Mutex{}
		m.locks[key] = l
	}
	return l
}

func (m *Manager) registerWait(key string, cancel context.CancelFunc) {
	m.mu.Lock()
	m.waits[key] = cancel
	m.mu.Unlock()
}

func (m *Manager) clearWait(key string) {
	m.mu.Lock()
	delete(m.waits, key)
	m.mu.Unlock()
}

// cancelWait interrupts an in-flight submission wait for key, if any.
func (m *Manager) cancelWait(key string) {
	m.mu.Lock()
	cancel, ok := m.waits[key]
	m.mu.Unlock()
	if ok {
		cancel()
	}
}

// Start brings a session up. If a live job already exists for the pair it
// is adopted; otherwise a new job is submitted and awaited. Concurrent
// starts for the same pair share one result.
func (m *Manager) Start(ctx context.Context, req StartRequest) (*StartResult, error) {
	key := sessionKey(req.Owner, req.LogicalName)
	v, err, _ := m.group.Do(key, func() (interface{}, error) {
		return m.start(ctx, req, key)
	})
	if err != nil {
		return nil, err
	}
	return v.(*StartResult), nil
}

func (m *Manager) start(ctx context.Context, req StartRequest, key string) (*StartResult, error) {
	lock := m.sessionLock(key)
	lock.Lock()
	defer lock.Unlock()

	log := logger.WithSession(m.logger, req.Owner, req.LogicalName)

	// A live job for this pair means the previous session survived; adopt
	// it instead of submitting a duplicate.
	jobID, portToken, err := m.discovery.FindByName(ctx, req.Owner, req.LogicalName)
	if err != nil {
		m.metrics.recordStart(ctx, "failed")
		return nil, err
	}
	if jobID != "" {
		port, convErr := strconv.Atoi(portToken)
		if convErr != nil {
			m.metrics.recordStart(ctx, "failed")
			return nil, apperrors.ParseFailure("discovery", "job "+jobID+" carries malformed port "+strconv.Quote(portToken))
		}
		result, attachErr := m.attach(ctx, req, jobID, port, log)
		if attachErr != nil {
			m.metrics.recordStart(ctx, "failed")
			return nil, attachErr
		}
		m.metrics.recordStart(ctx, "attached")
		return result, nil
	}

	result, err := m.submit(ctx, req, key, log)
	if err != nil {
		m.metrics.recordStart(ctx, "failed")
		return nil, err
	}
	m.metrics.recordStart(ctx, "submitted")
	return result, nil
}

func (m *Manager) attach(ctx context.Context, req StartRequest, jobID string, port int, log *slog.Logger) (*StartResult, error) {
	log.Info("adopting existing job", "job_id", jobID, "port", port)

	placement, err := m.resolver.Resolve(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if err := m.persist(ctx, req.Owner, req.LogicalName, jobID, port, placement); err != nil {
		return nil, err
	}
	return &StartResult{
		JobID:     jobID,
		Port:      port,
		Placement: placement,
		Attached:  true,
	}, nil
}

func (m *Manager) submit(ctx context.Context, req StartRequest, key string, log *slog.Logger) (*StartResult, error) {
	port := req.Port
	if port == 0 {
		port = randomPort()
	}

	jobID, err := m.submitter.Submit(ctx, slurm.SubmissionRequest{
		Owner:       req.Owner,
		LogicalName: req.LogicalName,
		Port:        port,
		Command:     req.Command,
		Env:         req.Env,
	})
	if err != nil {
		return nil, err
	}
	// Record the identity before waiting so a crash mid-wait still leaves
	// a cancellable record behind.
	if err := m.persist(ctx, req.Owner, req.LogicalName, jobID, port, slurm.Placement{}); err != nil {
		return nil, err
	}

	waitCtx, cancel := context.WithCancel(ctx)
	m.registerWait(key, cancel)
	waitStart := time.Now()
	err = m.submitter.WaitUntilRunning(waitCtx, jobID)
	m.clearWait(key)
	interrupted := waitCtx.Err() != nil && ctx.Err() == nil
	cancel()
	if err != nil {
		// A cancelled wait while the outer context is still live means a
		// concurrent Stop interrupted us. Keep the identity so that Stop
		// can cancel and clear the job.
		if interrupted {
			log.Info("submission wait interrupted by stop", "job_id", jobID)
			return nil, err
		}
		if delErr := m.store.Delete(ctx, req.Owner, req.LogicalName); delErr != nil {
			log.Error("failed to clear identity after failed start", "error", delErr)
		}
		return nil, err
	}
	m.metrics.recordSubmitWait(ctx, time.Since(waitStart).Seconds())

	placement, err := m.resolver.Resolve(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if err := m.persist(ctx, req.Owner, req.LogicalName, jobID, port, placement); err != nil {
		return nil, err
	}
	return &StartResult{
		JobID:     jobID,
		Port:      port,
		Placement: placement,
	}, nil
}

func (m *Manager) persist(ctx context.Context, owner, logicalName, jobID string, port int, placement slurm.Placement) error {
	return m.store.Save(ctx, &store.Identity{
		Owner:       owner,
		LogicalName: logicalName,
		JobID:       jobID,
		Port:        port,
		NodeName:    placement.NodeName,
		NodeAddress: placement.Address,
	})
}

// Poll reports whether the session's job is still alive. A session with
// no persisted identity is simply not alive. When the scheduler reports a
// terminal or unknown state the stale identity is cleared so the next
// Start submits fresh.
func (m *Manager) Poll(ctx context.Context, owner, logicalName string) (*PollResult, error) {
	key := sessionKey(owner, logicalName)
	lock := m.sessionLock(key)
	lock.Lock()
	defer lock.Unlock()

	ident, err := m.store.Get(ctx, owner, logicalName)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			m.metrics.recordPoll(ctx, false)
			return &PollResult{Alive: false, State: slurm.StateUnknown}, nil
		}
		return nil, err
	}

	state := m.monitor.QueryState(ctx, ident.JobID)
	if state.Alive() {
		m.metrics.recordPoll(ctx, true)
		return &PollResult{Alive: true, State: state, JobID: ident.JobID}, nil
	}

	// Terminal or unknown: treat as gone and forget the identity. Unknown
	// errs on the side of letting the user start over rather than pinning
	// them to a job we cannot see.
	log := logger.WithSession(m.logger, owner, logicalName)
	log.Info("job no longer alive, clearing identity", "job_id", ident.JobID, "state", state.String())
	if err := m.store.Delete(ctx, owner, logicalName); err != nil {
		return nil, err
	}
	m.metrics.recordPoll(ctx, false)
	return &PollResult{Alive: false, State: state, JobID: ident.JobID}, nil
}

// Stop tears a session down. With graceful set it cancels the job, waits
// briefly and cancels once more if the scheduler still shows it alive;
// without it the job is left to the scheduler and only the identity is
// cleared. Stopping a session that does not exist is a no-op.
func (m *Manager) Stop(ctx context.Context, owner, logicalName string, graceful bool) error {
	key := sessionKey(owner, logicalName)

	// Interrupt any in-flight submission wait before taking the session
	// lock, otherwise we would block behind a Start that only finishes
	// when its job runs.
	m.cancelWait(key)

	lock := m.sessionLock(key)
	lock.Lock()
	defer lock.Unlock()

	ident, err := m.store.Get(ctx, owner, logicalName)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil
		}
		return err
	}

	log := logger.WithSession(m.logger, owner, logicalName)
	if graceful && ident.JobID != "" {
		if err := m.canceller.Cancel(ctx, ident.JobID); err != nil {
			return err
		}
		if err := sleepCtx(ctx, m.cfg.StopRecheckDelay); err != nil {
			return err
		}
		if state := m.monitor.QueryState(ctx, ident.JobID); !state.Terminal() {
			log.Info("job survived first cancel, cancelling again",
				"job_id", ident.JobID, "state", state.String())
			if err := m.canceller.Cancel(ctx, ident.JobID); err != nil {
				return err
			}
		}
	}

	if err := m.store.Delete(ctx, owner, logicalName); err != nil {
		return err
	}
	m.metrics.recordStop(ctx, graceful)
	log.Info("session stopped", "job_id", ident.JobID, "graceful", graceful)
	return nil
}

// Get returns the persisted identity for a session, or
// apperrors.ErrNotFound.
func (m *Manager) Get(ctx context.Context, owner, logicalName string) (*store.Identity, error) {
	return m.store.Get(ctx, owner, logicalName)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// randomPort picks a port from the dynamic range so concurrent sessions
// on a shared node are unlikely to collide.
func randomPort() int {
	return 49152 + rand.IntN(16384)
}
