package dispatch

import (
	"github.com/kbukum/taskkit/logger"
)

// Option configures a Dispatcher at construction, or overrides settings for
// a single run.
type Option func(*options)

type options struct {
	mode        Mode
	workers     int
	workerVar   string
	env         EnvReader
	log         *logger.Logger
	consts      Consts
	sink        Sink
	outputFile  string
	outFormat   FormatFunc
	outTemplate string
	logFormat   FormatFunc
	logTemplate string
}

func defaultOptions() options {
	return options{
		env:         SystemEnv(),
		outTemplate: "%v\n",
		outFormat:   func(o Outcome) any { return o.Value },
		logFormat:   func(o Outcome) any { return o.Args },
	}
}

func (o options) with(opts []Option) options {
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithMode pins the execution mode instead of auto-selecting the best
// available one. An unavailable mode fails fast with backend_unavailable.
func WithMode(m Mode) Option {
	return func(o *options) { o.mode = m }
}

// WithWorkers overrides the probed worker count. Ignored in cluster mode,
// where the worker set is fixed at launch.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithWorkerCountVar names an environment variable holding the worker
// count, for schedulers that export core allocations (e.g. "NSLOTS").
// Ignored when WithWorkers is given.
func WithWorkerCountVar(name string) Option {
	return func(o *options) { o.workerVar = name }
}

// WithEnvReader injects the environment reader consulted by the prober.
// Intended for tests.
func WithEnvReader(env EnvReader) Option {
	return func(o *options) { o.env = env }
}

// WithLogger sets the logger used for session and per-result lines.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithConsts sets the shared constant arguments passed to every invocation.
// The mapping is read-only for the session's lifetime.
func WithConsts(c Consts) Option {
	return func(o *options) { o.consts = c }
}

// WithSink persists each formatted outcome to a caller-owned sink. The
// caller remains responsible for closing it.
func WithSink(s Sink) Option {
	return func(o *options) { o.sink = s }
}

// WithOutputFile persists each formatted outcome to the named file, opened
// at session start and closed on every exit path. Compression is chosen by
// file extension. Takes precedence over WithSink when both are given: the
// session writes to the file and the caller's sink receives nothing.
func WithOutputFile(path string) Option {
	return func(o *options) { o.outputFile = path }
}

// WithOutputFormat sets the function shaping an outcome into the value
// written to the sink. Defaults to the outcome's Value.
func WithOutputFormat(f FormatFunc) Option {
	return func(o *options) { o.outFormat = f }
}

// WithOutputTemplate sets the fmt template applied to the formatted value
// before writing. Defaults to "%v\n".
func WithOutputTemplate(tpl string) Option {
	return func(o *options) { o.outTemplate = tpl }
}

// WithLogFormat sets the function shaping an outcome into the value
// interpolated into the per-result log line. Defaults to the unit's Args.
func WithLogFormat(f FormatFunc) Option {
	return func(o *options) { o.logFormat = f }
}

// WithLogTemplate enables one info log line per successful outcome, using
// the given fmt template. Failures are always logged regardless.
func WithLogTemplate(tpl string) Option {
	return func(o *options) { o.logTemplate = tpl }
}
