package dispatch

import (
	"io"
	"sync"

	"github.com/kbukum/taskkit/smartio"
)

// Sink receives one formatted record per outcome. Implementations must not
// panic across the dispatcher boundary; any I/O fault is returned as an
// error and surfaces as a sink_failure marker on the outcome.
type Sink interface {
	Write(record string) error
}

// WriterSink adapts an io.Writer into a Sink. Writes are serialized, so a
// single underlying stream is safe even when outcomes arrive concurrently.
type WriterSink struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterSink wraps w. The caller keeps ownership of w.
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

func (s *WriterSink) Write(record string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := io.WriteString(s.w, record)
	return err
}

// fileSink is a session-owned sink backed by smartio. The session opens it
// at start and closes it on every exit path.
type fileSink struct {
	WriterSink
	c io.Closer
}

func openFileSink(path string) (*fileSink, error) {
	w, err := smartio.Create(path)
	if err != nil {
		return nil, err
	}
	s := &fileSink{c: w}
	s.w = w
	return s, nil
}

func (s *fileSink) Close() error { return s.c.Close() }
