package dispatch

import (
	"errors"
	"fmt"
)

// Code is a machine-readable classification of a dispatch error.
type Code string

const (
	// CodeInvalidTaskShape marks malformed work-unit input. Fatal, raised
	// before any unit is dispatched.
	CodeInvalidTaskShape Code = "invalid_task_shape"
	// CodeIteratorExhausted marks reuse of a drained task iterator.
	CodeIteratorExhausted Code = "iterator_exhausted"
	// CodeTaskFailure marks a unit whose function returned an error or
	// panicked. Recovered; siblings are unaffected.
	CodeTaskFailure Code = "task_failure"
	// CodeSinkFailure marks a failed sink write for one outcome. Recovered;
	// the unit is not retried.
	CodeSinkFailure Code = "sink_failure"
	// CodeBackendUnavailable marks a requested mode the environment does not
	// support. Fatal at construction.
	CodeBackendUnavailable Code = "backend_unavailable"
	// CodeUnregisteredTask marks an anonymous task handed to a backend that
	// needs to resolve the function by name in another process.
	CodeUnregisteredTask Code = "unregistered_task"
	// CodeSessionFailed marks a backend-level fault (lost worker connection,
	// failed spawn) that aborted the session.
	CodeSessionFailed Code = "session_failed"
)

// Error is the structured error type used across the package.
type Error struct {
	// Code classifies the error.
	Code Code
	// Message is a human-readable description.
	Message string
	// Index is the affected work unit's sequence index, or -1.
	Index int
	// Cause is the underlying error, if any.
	Cause error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Cause != nil {
		msg += fmt.Sprintf(" (cause: %v)", e.Cause)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Cause }

// IsCode reports whether err is a dispatch *Error carrying the given code.
func IsCode(err error, code Code) bool {
	var de *Error
	return errors.As(err, &de) && de.Code == code
}

// --- Constructors ---

// InvalidTaskShape reports a work-unit element that is not an argument tuple.
func InvalidTaskShape(pos int, v any) *Error {
	return &Error{
		Code:    CodeInvalidTaskShape,
		Message: fmt.Sprintf("element %d is %T, want an argument tuple", pos, v),
		Index:   pos,
	}
}

// IteratorExhausted reports reuse of a task iterator across sessions.
func IteratorExhausted() *Error {
	return &Error{
		Code:    CodeIteratorExhausted,
		Message: "task iterator already consumed; build a fresh one per session",
		Index:   -1,
	}
}

// TaskFailure reports a unit whose function failed.
func TaskFailure(index int, cause error) *Error {
	return &Error{
		Code:    CodeTaskFailure,
		Message: fmt.Sprintf("unit %d failed", index),
		Index:   index,
		Cause:   cause,
	}
}

// SinkFailure reports a failed sink write for one outcome.
func SinkFailure(index int, cause error) *Error {
	return &Error{
		Code:    CodeSinkFailure,
		Message: fmt.Sprintf("sink write for unit %d failed", index),
		Index:   index,
		Cause:   cause,
	}
}

// BackendUnavailable reports a requested mode the environment lacks.
func BackendUnavailable(mode Mode, env Environment) *Error {
	avail := make([]string, 0, len(env.Workers))
	for _, m := range modePreference {
		if env.Available(m) {
			avail = append(avail, string(m))
		}
	}
	return &Error{
		Code:    CodeBackendUnavailable,
		Message: fmt.Sprintf("mode %q unavailable, environment offers %v", mode, avail),
		Index:   -1,
	}
}

// UnregisteredTask reports an anonymous task given to a multi-process backend.
func UnregisteredTask(mode Mode) *Error {
	return &Error{
		Code:    CodeUnregisteredTask,
		Message: fmt.Sprintf("mode %q requires a task registered with dispatch.Register", mode),
		Index:   -1,
	}
}

// SessionFailed reports a backend-level fault that aborted the session.
func SessionFailed(mode Mode, cause error) *Error {
	return &Error{
		Code:    CodeSessionFailed,
		Message: fmt.Sprintf("%s backend fault", mode),
		Index:   -1,
		Cause:   cause,
	}
}
