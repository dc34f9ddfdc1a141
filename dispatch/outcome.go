package dispatch

import "time"

// Outcome is the result of one work unit: the function's return value (or
// a task_failure error), the unit's sequence index and original arguments,
// and how long the invocation took.
type Outcome struct {
	// Index is the unit's position in the original input sequence.
	Index int
	// Args echoes the unit's positional arguments, for formatting and logs.
	Args Args
	// Value is the function's return value. Nil when Err is set.
	Value any
	// Duration is the wall time of the function invocation.
	Duration time.Duration
	// Err is a *Error with code task_failure when the function failed.
	Err error
	// SinkErr is a *Error with code sink_failure when persisting this
	// outcome failed. The value in Value is still valid.
	SinkErr error
}

// Failed reports whether the unit's function failed.
func (o Outcome) Failed() bool { return o.Err != nil }

// FormatFunc shapes an outcome into the value interpolated into an output
// or logging template. Single argument in, single value out.
type FormatFunc func(Outcome) any
