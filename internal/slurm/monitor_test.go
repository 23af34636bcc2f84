package slurm

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"slurmspawn/internal/logger"
)

func newTestMonitor(r Runner) *Monitor {
	return NewMonitor(r, "squeue", 5*time.Second, logger.New())
}

func TestQueryState_EmptyJobIDSkipsQuery(t *testing.T) {
	// Querying squeue without a job id filters nothing and can report
	// another job's state, so the guard must short-circuit.
	runner := &scriptedRunner{responses: []scriptedResponse{{out: "RUNNING"}}}
	m := newTestMonitor(runner)

	state := m.QueryState(context.Background(), "")
	if state != StateUnknown {
		t.Errorf("got %v, want StateUnknown", state)
	}
	if len(runner.calls) != 0 {
		t.Errorf("expected zero scheduler calls, got %d", len(runner.calls))
	}
}

func TestQueryState_MapsTokens(t *testing.T) {
	cases := []struct {
		out  string
		want JobState
	}{
		{"RUNNING", StateRunning},
		{"PENDING", StatePending},
		{"CONFIGURING", StatePending},
		{"COMPLETED", StateCompleted},
		{"COMPLETING", StateCompleted},
		{"FAILED", StateFailed},
		{"CANCELLED", StateCancelled},
		{"", StateUnknown},
		{"REQUEUE_HOLD", StateUnknown},
	}

	for _, tc := range cases {
		runner := &scriptedRunner{responses: []scriptedResponse{{out: tc.out}}}
		m := newTestMonitor(runner)

		if got := m.QueryState(context.Background(), "209"); got != tc.want {
			t.Errorf("QueryState with output %q = %v, want %v", tc.out, got, tc.want)
		}
	}
}

func TestQueryState_BuildsScopedQuery(t *testing.T) {
	runner := &scriptedRunner{responses: []scriptedResponse{{out: "RUNNING"}}}
	m := newTestMonitor(runner)

	m.QueryState(context.Background(), "209")

	call := runner.lastCall(t)
	if call.Path != "squeue" {
		t.Errorf("got path %q, want squeue", call.Path)
	}
	want := []string{"-h", "-j", "209", "-o", "%T"}
	if !reflect.DeepEqual(call.Args, want) {
		t.Errorf("got args %v, want %v", call.Args, want)
	}
}

func TestQueryState_CommandFailureIsUnknown(t *testing.T) {
	runner := &scriptedRunner{responses: []scriptedResponse{
		{err: errors.New("squeue: error: Invalid job id")},
	}}
	m := newTestMonitor(runner)

	if got := m.QueryState(context.Background(), "209"); got != StateUnknown {
		t.Errorf("got %v, want StateUnknown", got)
	}
}
