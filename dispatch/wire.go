package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"
)

// Message types for the coordinator/worker protocol. The exchange is
// pull-based: a worker announces readiness, the coordinator assigns the
// next pending unit or tells it to exit.
const (
	msgHello  = "hello"
	msgReady  = "ready"
	msgAssign = "assign"
	msgResult = "result"
	msgExit   = "exit"
)

// envelope is one newline-delimited JSON frame. Arguments and results must
// therefore be representable in JSON to cross a process boundary.
type envelope struct {
	Type       string `json:"type"`
	Task       string `json:"task,omitempty"`
	Consts     Consts `json:"consts,omitempty"`
	Index      int    `json:"index,omitempty"`
	Args       Args   `json:"args,omitempty"`
	Value      any    `json:"value,omitempty"`
	Error      string `json:"error,omitempty"`
	DurationNS int64  `json:"duration_ns,omitempty"`
}

// wire frames envelopes over a byte stream.
type wire struct {
	enc *json.Encoder
	dec *json.Decoder
}

func newWire(r io.Reader, w io.Writer) *wire {
	return &wire{enc: json.NewEncoder(w), dec: json.NewDecoder(r)}
}

func (c *wire) send(e envelope) error {
	return c.enc.Encode(e)
}

func (c *wire) recv() (envelope, error) {
	var e envelope
	err := c.dec.Decode(&e)
	return e, err
}

// serveWorker drives one worker connection from the coordinator side:
// greet, assign a unit whenever the worker reports ready, and dismiss it
// once the iterator drains or the session context is canceled. In-flight
// units are always allowed to report before dismissal.
func serveWorker(ctx context.Context, c *wire, sess *session, out chan<- Outcome) error {
	if err := c.send(envelope{Type: msgHello, Task: sess.task.name, Consts: sess.consts}); err != nil {
		return err
	}

	// Arguments of assigned units, kept locally so outcomes echo the
	// original values rather than their JSON round trip.
	inflight := make(map[int]Args)

	for {
		e, err := c.recv()
		if err != nil {
			return fmt.Errorf("worker connection lost: %w", err)
		}
		switch e.Type {
		case msgReady:
			unit, ok := sess.tasks.pull()
			if !ok || ctx.Err() != nil {
				return c.send(envelope{Type: msgExit})
			}
			inflight[unit.Index] = unit.Args
			if err := c.send(envelope{Type: msgAssign, Index: unit.Index, Args: unit.Args}); err != nil {
				return err
			}
		case msgResult:
			o := Outcome{
				Index:    e.Index,
				Args:     inflight[e.Index],
				Value:    e.Value,
				Duration: time.Duration(e.DurationNS),
			}
			delete(inflight, e.Index)
			if e.Error != "" {
				o.Value = nil
				o.Err = TaskFailure(e.Index, errors.New(e.Error))
			}
			deliver(ctx, out, o)
		default:
			return fmt.Errorf("unexpected %q message from worker", e.Type)
		}
	}
}

// serveUnits runs the worker side of the protocol: resolve the task named
// in the greeting from the local registry, then compute assigned units
// until dismissed.
func serveUnits(ctx context.Context, c *wire) error {
	hello, err := c.recv()
	if err != nil {
		return err
	}
	if hello.Type != msgHello {
		return fmt.Errorf("expected %q message, got %q", msgHello, hello.Type)
	}
	task, ok := lookupTask(hello.Task)
	if !ok {
		return fmt.Errorf("task %q not registered in worker", hello.Task)
	}

	if err := c.send(envelope{Type: msgReady}); err != nil {
		return err
	}
	for {
		e, err := c.recv()
		if err != nil {
			return err
		}
		switch e.Type {
		case msgAssign:
			o := invoke(ctx, task, WorkUnit{Index: e.Index, Args: e.Args}, hello.Consts)
			resp := envelope{
				Type:       msgResult,
				Index:      o.Index,
				Value:      o.Value,
				DurationNS: int64(o.Duration),
			}
			if o.Err != nil {
				resp.Error = causeString(o.Err)
			}
			if err := c.send(resp); err != nil {
				return err
			}
			if err := c.send(envelope{Type: msgReady}); err != nil {
				return err
			}
		case msgExit:
			return nil
		default:
			return fmt.Errorf("unexpected %q message from coordinator", e.Type)
		}
	}
}

func causeString(err error) string {
	var de *Error
	if errors.As(err, &de) && de.Cause != nil {
		return de.Cause.Error()
	}
	return err.Error()
}
