package dispatch

import (
	"context"
	"errors"
	"io"
	"os"
	"testing"

	"github.com/kbukum/taskkit/logger"
)

// TestMain lets spawned worker subprocesses (the test binary re-executed
// with the worker marker set) enter the serve loop instead of running the
// test suite again.
func TestMain(m *testing.M) {
	WorkerMain()
	os.Exit(m.Run())
}

var procNegate = Register("proctest.negate", func(_ context.Context, args Args, _ Consts) (any, error) {
	x := args[0].(float64)
	if x == 13 {
		return nil, errors.New("unlucky unit")
	}
	return -x, nil
})

func newProcessDispatcher(t *testing.T) *Dispatcher {
	t.Helper()
	d, err := New(
		WithMode(ModeProcesses),
		WithWorkers(2),
		WithLogger(logger.NewWriter(io.Discard, "test")),
	)
	if IsCode(err, CodeBackendUnavailable) {
		t.Skip("processes backend unavailable on this machine")
	}
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return d
}

func TestProcessesEndToEnd(t *testing.T) {
	if testing.Short() {
		t.Skip("spawns subprocesses")
	}

	d := newProcessDispatcher(t)

	const n = 10
	units := make([]Args, n)
	for i := range units {
		units[i] = Args{i}
	}
	outcomes, err := d.RunCollect(context.Background(), procNegate, NewTasks(units))
	if err != nil {
		t.Fatalf("RunCollect: %v", err)
	}
	if len(outcomes) != n {
		t.Fatalf("expected %d outcomes, got %d", n, len(outcomes))
	}
	for i, o := range outcomes {
		if o.Index != i {
			t.Errorf("position %d holds index %d", i, o.Index)
		}
		if o.Value != float64(-i) {
			t.Errorf("index %d: expected %v, got %v", i, float64(-i), o.Value)
		}
	}
}

func TestProcessesTaskFailureCrossesBoundary(t *testing.T) {
	if testing.Short() {
		t.Skip("spawns subprocesses")
	}

	d := newProcessDispatcher(t)

	outcomes, err := d.RunCollect(context.Background(), procNegate,
		NewTasks([]Args{{12}, {13}, {14}}))
	if err != nil {
		t.Fatalf("RunCollect: %v", err)
	}
	if len(outcomes) != 3 {
		t.Fatalf("expected 3 outcomes, got %d", len(outcomes))
	}
	if !IsCode(outcomes[1].Err, CodeTaskFailure) {
		t.Errorf("expected task_failure for unit 13, got %v", outcomes[1].Err)
	}
	if outcomes[0].Failed() || outcomes[2].Failed() {
		t.Error("siblings of a failed unit must succeed")
	}
}

func TestProcessesEmptyInputSpawnsNothing(t *testing.T) {
	d := newProcessDispatcher(t)
	outcomes, err := d.RunCollect(context.Background(), procNegate, NewTasks(nil))
	if err != nil {
		t.Fatalf("RunCollect: %v", err)
	}
	if len(outcomes) != 0 {
		t.Errorf("expected no outcomes, got %d", len(outcomes))
	}
}
