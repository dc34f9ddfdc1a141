package dispatch

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/kbukum/taskkit/logger"
)

// processBackend runs units on worker subprocesses that re-execute the
// current binary. Workers resolve the task by registry name, so the task
// must come from Register and main must call WorkerMain.
type processBackend struct {
	workers int
}

func (b *processBackend) run(ctx context.Context, sess *session, out chan<- Outcome) error {
	first, ok := sess.tasks.pull()
	if !ok {
		return nil
	}
	sess.tasks.unpull(first)

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve worker binary: %w", err)
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	fail := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
	}

	for i := 0; i < b.workers; i++ {
		cmd := exec.CommandContext(ctx, exe)
		cmd.Env = append(os.Environ(), EnvWorkerProcess+"=1")
		cmd.Stderr = os.Stderr

		stdin, err := cmd.StdinPipe()
		if err != nil {
			fail(err)
			break
		}
		stdout, err := cmd.StdoutPipe()
		if err != nil {
			fail(err)
			break
		}

		// Ask nicely first; the worker exits on its own once dismissed.
		cmd.Cancel = func() error {
			if cmd.Process == nil {
				return nil
			}
			return cmd.Process.Signal(syscall.SIGTERM)
		}
		cmd.WaitDelay = 5 * time.Second

		if err := cmd.Start(); err != nil {
			fail(fmt.Errorf("spawn worker: %w", err))
			break
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := serveWorker(ctx, newWire(stdout, stdin), sess, out); err != nil {
				fail(err)
			}
			stdin.Close()
			if err := cmd.Wait(); err != nil && ctx.Err() == nil {
				fail(fmt.Errorf("worker exited: %w", err))
			}
		}()
	}

	wg.Wait()
	return firstErr
}

// WorkerMain runs the worker loop when this process was spawned by the
// processes backend, then exits. Call it from main after all Register
// calls; in an ordinary process it returns immediately.
func WorkerMain() {
	if v, ok := os.LookupEnv(EnvWorkerProcess); !ok || v == "" {
		return
	}
	if err := serveUnits(context.Background(), newWire(os.Stdin, os.Stdout)); err != nil {
		logger.NewFromEnv("taskkit-worker").WithError(err).Error("worker loop failed")
		os.Exit(1)
	}
	os.Exit(0)
}
