package dispatch

import (
	"context"
	"fmt"
	"time"
)

// backend is the per-mode execution strategy. run pulls units from the
// session's iterator, computes them, and delivers outcomes to out in
// completion order. It returns when all pulled units have reported, the
// context is canceled, or the backend faults. run must not close out.
type backend interface {
	run(ctx context.Context, sess *session, out chan<- Outcome) error
}

func newBackend(mode Mode, workers int) (backend, error) {
	switch mode {
	case ModeSequential:
		return sequentialBackend{}, nil
	case ModeThreads:
		return threadedBackend{workers: workers}, nil
	case ModeProcesses:
		return &processBackend{workers: workers}, nil
	case ModeCluster:
		return &clusterBackend{}, nil
	}
	return nil, fmt.Errorf("dispatch: no backend for mode %q", mode)
}

// invoke applies the task function to one unit, converting an error return
// or a panic into a task_failure outcome.
func invoke(ctx context.Context, task *Task, unit WorkUnit, consts Consts) (out Outcome) {
	out = Outcome{Index: unit.Index, Args: unit.Args}
	start := time.Now()
	defer func() {
		out.Duration = time.Since(start)
		if r := recover(); r != nil {
			out.Value = nil
			out.Err = TaskFailure(unit.Index, fmt.Errorf("panic: %v", r))
		}
	}()

	v, err := task.fn(ctx, unit.Args, consts)
	if err != nil {
		out.Err = TaskFailure(unit.Index, err)
		return out
	}
	out.Value = v
	return out
}

// deliver sends an outcome unless the session is being torn down.
func deliver(ctx context.Context, out chan<- Outcome, o Outcome) bool {
	select {
	case out <- o:
		return true
	case <-ctx.Done():
		return false
	}
}
