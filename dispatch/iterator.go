package dispatch

import "sync"

// WorkUnit is one unit of pending work: an argument tuple annotated with its
// sequence index. Indices are assigned once, at iteration time, and are
// never reused within a session.
type WorkUnit struct {
	Index int
	Args  Args
}

// TaskIterator adapts a caller-supplied sequence of argument tuples into a
// lazy, single-pass sequence of indexed work units.
//
// An iterator feeds exactly one session. Handing an already-consumed
// iterator to another run fails with an iterator_exhausted error.
type TaskIterator struct {
	mu       sync.Mutex
	source   func() (Args, bool)
	index    int
	claimed  bool
	returned []WorkUnit
}

// NewTasks adapts a slice of argument tuples.
func NewTasks(units []Args) *TaskIterator {
	i := 0
	return NewTasksFunc(func() (Args, bool) {
		if i >= len(units) {
			return nil, false
		}
		u := units[i]
		i++
		return u, true
	})
}

// NewTasksFunc adapts a pull function. The function is called from a single
// goroutine at a time and should return false once the sequence ends.
func NewTasksFunc(source func() (Args, bool)) *TaskIterator {
	return &TaskIterator{source: source}
}

// NewTasksAny adapts an untyped slice whose elements must each be an
// argument tuple (Args, []any, or a single pre-wrapped WorkUnit argument
// list). Any other element shape fails with an invalid_task_shape error:
// per-unit arguments vary positionally, constants travel in Consts.
func NewTasksAny(units []any) (*TaskIterator, error) {
	adapted := make([]Args, len(units))
	for i, u := range units {
		switch v := u.(type) {
		case Args:
			adapted[i] = v
		case []any:
			adapted[i] = Args(v)
		default:
			return nil, InvalidTaskShape(i, u)
		}
	}
	return NewTasks(adapted), nil
}

// ZipTasks builds argument tuples by zipping a sequence of data entries
// with extra values. An extra that is an []any is cycled alongside the
// entries; any other value is repeated for every entry.
//
//	ZipTasks([]any{"a", "b"}, 10)            // ("a", 10), ("b", 10)
//	ZipTasks([]any{"a", "b"}, []any{1, 2})   // ("a", 1), ("b", 2)
func ZipTasks(entries []any, extras ...any) *TaskIterator {
	i := 0
	return NewTasksFunc(func() (Args, bool) {
		if i >= len(entries) {
			return nil, false
		}
		args := make(Args, 0, 1+len(extras))
		args = append(args, entries[i])
		for _, extra := range extras {
			if cyc, ok := extra.([]any); ok && len(cyc) > 0 {
				args = append(args, cyc[i%len(cyc)])
			} else {
				args = append(args, extra)
			}
		}
		i++
		return args, true
	})
}

// claim marks the iterator as owned by a session.
func (it *TaskIterator) claim() error {
	it.mu.Lock()
	defer it.mu.Unlock()
	if it.claimed {
		return IteratorExhausted()
	}
	it.claimed = true
	return nil
}

// pull returns the next indexed unit. Safe for concurrent callers; each
// index is handed out exactly once.
func (it *TaskIterator) pull() (WorkUnit, bool) {
	it.mu.Lock()
	defer it.mu.Unlock()
	if n := len(it.returned); n > 0 {
		unit := it.returned[n-1]
		it.returned = it.returned[:n-1]
		return unit, true
	}
	args, ok := it.source()
	if !ok {
		return WorkUnit{}, false
	}
	unit := WorkUnit{Index: it.index, Args: args}
	it.index++
	return unit, true
}

// unpull hands a unit back so the next pull returns it again. Backends peek
// the first unit this way to avoid spawning workers for an empty input.
func (it *TaskIterator) unpull(unit WorkUnit) {
	it.mu.Lock()
	defer it.mu.Unlock()
	it.returned = append(it.returned, unit)
}
