package dispatch

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/taskkit/logger"
)

// Dispatcher runs task functions over work units on a chosen backend. It
// probes the environment once at construction; construct a new Dispatcher
// to pick up environment changes.
type Dispatcher struct {
	mode    Mode
	workers int
	env     Environment
	log     *logger.Logger
	opts    options
}

// New builds a Dispatcher. Without WithMode the best available backend is
// auto-selected; with it, an unavailable backend fails fast with a
// backend_unavailable error.
func New(opts ...Option) (*Dispatcher, error) {
	o := defaultOptions().with(opts)
	env := ProbeWith(o.env)

	mode, workers, err := resolve(o, env)
	if err != nil {
		return nil, err
	}

	log := o.log
	if log == nil {
		log = logger.NewDefault("taskkit")
	}

	return &Dispatcher{
		mode:    mode,
		workers: workers,
		env:     env,
		log:     log.WithComponent("dispatch"),
		opts:    o,
	}, nil
}

// resolve picks the effective mode and worker count for a set of options.
func resolve(o options, env Environment) (Mode, int, error) {
	mode := o.mode
	if mode == "" {
		mode = env.Best()
	} else if !env.Available(mode) {
		return "", 0, BackendUnavailable(mode, env)
	}

	var workers int
	switch {
	case mode == ModeSequential:
		workers = 1
	case mode == ModeCluster:
		// The worker set is fixed at launch; overrides are ignored.
		workers = env.Workers[ModeCluster]
	case o.workers > 0:
		workers = o.workers
	default:
		workers = workersFromVar(o.env, o.workerVar, env.Workers[mode])
	}
	if workers < 1 {
		workers = 1
	}
	return mode, workers, nil
}

// Mode returns the selected execution mode.
func (d *Dispatcher) Mode() Mode { return d.mode }

// Workers returns the effective worker count.
func (d *Dispatcher) Workers() int { return d.workers }

// IsCoordinator reports whether this process assigns work. Only false on
// cluster ranks other than 0.
func (d *Dispatcher) IsCoordinator() bool { return d.env.Rank == 0 }

// session is the live state of one run: the resolved backend settings, the
// claimed iterator, and the output configuration.
type session struct {
	id      string
	mode    Mode
	workers int
	env     Environment
	task    *Task
	tasks   *TaskIterator
	consts  Consts
	log     *logger.Logger

	sink     Sink
	ownsSink bool

	outFormat   FormatFunc
	outTemplate string
	logFormat   FormatFunc
	logTemplate string
}

// RunCollect runs the task over every unit and blocks until all have
// reported. Outcomes come back in input order, one per unit; a failed unit
// occupies its slot as a task_failure outcome without affecting siblings.
//
// On cluster ranks other than 0 it serves units instead and returns an
// empty slice; results belong to the coordinator.
func (d *Dispatcher) RunCollect(ctx context.Context, task *Task, tasks *TaskIterator, opts ...Option) ([]Outcome, error) {
	stream, err := d.RunStream(ctx, task, tasks, opts...)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	var outcomes []Outcome
	var nextErr error
	for {
		o, ok, err := stream.Next(ctx)
		if err != nil {
			nextErr = err
			break
		}
		if !ok {
			break
		}
		outcomes = append(outcomes, o)
	}
	// Partial results on a session fault are index-ordered too.
	sort.Slice(outcomes, func(i, j int) bool { return outcomes[i].Index < outcomes[j].Index })
	if nextErr != nil {
		return outcomes, nextErr
	}
	return outcomes, stream.sessionErr()
}

// RunStream starts dispatching immediately and returns a stream yielding
// each outcome as it completes, in completion order. The caller must Close
// the stream (or drain it) to release the session's resources.
func (d *Dispatcher) RunStream(ctx context.Context, task *Task, tasks *TaskIterator, opts ...Option) (*Stream, error) {
	o := d.opts.with(opts)
	env := d.env
	if len(opts) > 0 {
		// Per-run overrides may change the mode or the environment reader,
		// so probe again rather than trusting the construction snapshot.
		env = ProbeWith(o.env)
	}
	mode, workers, err := resolve(o, env)
	if err != nil {
		return nil, err
	}

	if mode == ModeCluster && env.Rank != 0 {
		return emptyStream(runClusterWorker(ctx, env)), nil
	}

	if task == nil {
		return nil, fmt.Errorf("dispatch: task is nil")
	}
	if !mode.Local() && task.name == "" {
		return nil, UnregisteredTask(mode)
	}
	if tasks == nil {
		return nil, fmt.Errorf("dispatch: task iterator is nil")
	}
	if err := tasks.claim(); err != nil {
		return nil, err
	}

	sess := &session{
		id:          uuid.NewString(),
		mode:        mode,
		workers:     workers,
		env:         env,
		task:        task,
		tasks:       tasks,
		consts:      o.consts,
		sink:        o.sink,
		outFormat:   o.outFormat,
		outTemplate: o.outTemplate,
		logFormat:   o.logFormat,
		logTemplate: o.logTemplate,
	}
	sess.log = d.log.WithFields(map[string]interface{}{
		logger.FieldSessionID: sess.id,
		"mode":                string(mode),
	})

	if o.outputFile != "" {
		fs, err := openFileSink(o.outputFile)
		if err != nil {
			return nil, fmt.Errorf("dispatch: open output file: %w", err)
		}
		sess.sink = fs
		sess.ownsSink = true
	}

	backend, err := newBackend(mode, workers)
	if err != nil {
		sess.releaseSink()
		return nil, err
	}

	sessCtx, cancel := context.WithCancel(ctx)
	raw := make(chan Outcome, workers)
	final := make(chan Outcome)
	stream := newStream(final, cancel)

	sess.log.Debug("session started", logger.Fields("workers", workers))
	started := time.Now()

	go func() {
		if err := backend.run(sessCtx, sess, raw); err != nil {
			stream.fail(SessionFailed(mode, err))
		}
		close(raw)
	}()

	go func() {
		defer close(final)
		defer sess.releaseSink()
		completed, failed := 0, 0
		for o := range raw {
			o = sess.finalize(sessCtx, o)
			if o.Failed() {
				failed++
			} else {
				completed++
			}
			select {
			case final <- o:
			case <-sessCtx.Done():
				// Consumer is gone; keep draining so workers can unwind,
				// discarding anything already computed.
			}
		}
		sess.log.Debug("session finished", logger.Fields(
			"completed", completed,
			"failed", failed,
			logger.FieldDuration, time.Since(started).Milliseconds(),
		))
	}()

	return stream, nil
}

// finalize applies the coordinator-side per-outcome pipeline: metrics, the
// optional sink write, and the optional per-result log line. The sink is
// owned exclusively by the coordinator; workers never touch it.
func (s *session) finalize(ctx context.Context, o Outcome) Outcome {
	recordOutcome(ctx, s.mode, o)

	if o.Failed() {
		s.log.WithError(o.Err).Error("work unit failed",
			logger.Fields("index", o.Index, "args", fmt.Sprintf("%v", o.Args)))
		return o
	}

	if s.sink != nil {
		record := fmt.Sprintf(s.outTemplate, s.outFormat(o))
		if err := s.sink.Write(record); err != nil {
			o.SinkErr = SinkFailure(o.Index, err)
			s.log.WithError(err).Error("sink write failed", logger.Fields("index", o.Index))
		}
	}

	if s.logTemplate != "" {
		s.log.Info(fmt.Sprintf(s.logTemplate, s.logFormat(o)))
	}
	return o
}

func (s *session) releaseSink() {
	if !s.ownsSink {
		return
	}
	if c, ok := s.sink.(interface{ Close() error }); ok {
		if err := c.Close(); err != nil {
			s.log.WithError(err).Warn("closing output sink failed")
		}
	}
}
