package dispatch

import (
	"context"
	"sync"
)

// threadedBackend runs units on a pool of goroutines sharing process
// memory. Units are handed out over an unbuffered channel, so an idle
// worker receives the next unit the moment it asks for one and faster
// workers naturally take more units.
type threadedBackend struct {
	workers int
}

func (b threadedBackend) run(ctx context.Context, sess *session, out chan<- Outcome) error {
	// Pull the first unit before spawning anything so an empty input
	// starts no workers.
	first, ok := sess.tasks.pull()
	if !ok {
		return nil
	}

	units := make(chan WorkUnit)
	var wg sync.WaitGroup

	for range b.workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for unit := range units {
				if !deliver(ctx, out, invoke(ctx, sess.task, unit, sess.consts)) {
					return
				}
			}
		}()
	}

	feed := func(unit WorkUnit) bool {
		select {
		case units <- unit:
			return true
		case <-ctx.Done():
			return false
		}
	}

	if feed(first) {
		for {
			unit, more := sess.tasks.pull()
			if !more || !feed(unit) {
				break
			}
		}
	}
	close(units)
	wg.Wait()
	return nil
}
