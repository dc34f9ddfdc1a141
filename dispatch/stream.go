package dispatch

import (
	"context"
	"sync"
)

// Stream is a lazy, single-pass sequence of outcomes in completion order.
// Completion order depends on the backend and workload and is not
// reproducible between runs.
//
// Stopping early is safe: Close cancels units that have not been handed to
// a worker yet, lets in-flight units finish, and discards their outcomes.
type Stream struct {
	ch     <-chan Outcome
	cancel context.CancelFunc

	mu     sync.Mutex
	err    error
	closed bool
}

func newStream(ch <-chan Outcome, cancel context.CancelFunc) *Stream {
	return &Stream{ch: ch, cancel: cancel}
}

// fail records the session error reported once the stream ends.
func (s *Stream) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err == nil {
		s.err = err
	}
}

func (s *Stream) sessionErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Next returns the next completed outcome. It returns ok=false once every
// dispatched unit has reported and the session is finished; a non-nil
// error at that point is the session-level fault that ended it.
func (s *Stream) Next(ctx context.Context) (Outcome, bool, error) {
	select {
	case o, open := <-s.ch:
		if !open {
			return Outcome{}, false, s.sessionErr()
		}
		return o, true, nil
	case <-ctx.Done():
		return Outcome{}, false, ctx.Err()
	}
}

// Close stops the session. Undistributed units are never assigned;
// in-flight units finish and their outcomes are discarded. Close is
// idempotent and returns the session-level fault, if any.
func (s *Stream) Close() error {
	s.mu.Lock()
	alreadyClosed := s.closed
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	if !alreadyClosed {
		// Drain so the session goroutines can finish and release the sink.
		for range s.ch {
		}
	}
	return s.sessionErr()
}

// emptyStream is a finished stream, used on cluster worker ranks where the
// coordinator owns all results.
func emptyStream(err error) *Stream {
	ch := make(chan Outcome)
	close(ch)
	s := newStream(ch, func() {})
	if err != nil {
		s.fail(err)
	}
	return s
}
