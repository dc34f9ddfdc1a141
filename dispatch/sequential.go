package dispatch

import "context"

// sequentialBackend evaluates units one by one on the calling goroutine.
// The coordinator is the sole worker, so completion order equals input
// order and collection and streaming behave identically.
type sequentialBackend struct{}

func (sequentialBackend) run(ctx context.Context, sess *session, out chan<- Outcome) error {
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		unit, ok := sess.tasks.pull()
		if !ok {
			return nil
		}
		if !deliver(ctx, out, invoke(ctx, sess.task, unit, sess.consts)) {
			return nil
		}
	}
}
