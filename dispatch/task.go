package dispatch

import (
	"context"
	"fmt"
	"sync"
)

// Args is one work unit's positional arguments.
type Args []any

// Consts is the shared, read-only mapping of constant arguments passed to
// every invocation of a session. It must not be mutated while a session is
// running; all workers read it without locking.
type Consts map[string]any

// Func is the user function applied to each work unit. It must be safe to
// invoke concurrently: each call sees its own args and the shared consts,
// and no cross-invocation mutable state is assumed.
type Func func(ctx context.Context, args Args, consts Consts) (any, error)

// Task pairs a function with an optional registry name. Named tasks can be
// resolved inside worker subprocesses and cluster nodes; anonymous tasks
// run only on the local backends.
type Task struct {
	name string
	fn   Func
}

// Name returns the registry name, or "" for an anonymous task.
func (t *Task) Name() string { return t.name }

// NewTask wraps a function as an anonymous task. Anonymous tasks cannot
// cross a process boundary, so they are rejected by the processes and
// cluster backends.
func NewTask(fn Func) *Task { return &Task{fn: fn} }

var taskRegistry = struct {
	mu    sync.RWMutex
	tasks map[string]*Task
}{tasks: make(map[string]*Task)}

// Register names a task function so worker processes can resolve it. Call
// it from package init or early in main, before WorkerMain. Registering the
// same name twice panics.
func Register(name string, fn Func) *Task {
	if name == "" {
		panic("dispatch: Register with empty name")
	}
	taskRegistry.mu.Lock()
	defer taskRegistry.mu.Unlock()
	if _, dup := taskRegistry.tasks[name]; dup {
		panic(fmt.Sprintf("dispatch: Register called twice for task %q", name))
	}
	t := &Task{name: name, fn: fn}
	taskRegistry.tasks[name] = t
	return t
}

func lookupTask(name string) (*Task, bool) {
	taskRegistry.mu.RLock()
	defer taskRegistry.mu.RUnlock()
	t, ok := taskRegistry.tasks[name]
	return t, ok
}
