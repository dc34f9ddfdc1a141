package dispatch

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"
)

// clusterBackend coordinates a fixed set of worker nodes launched alongside
// this process. The coordinator (rank 0) listens on the cluster address and
// every other rank dials in and serves units until dismissed. All
// coordination is explicit point-to-point messaging; no shared memory.
type clusterBackend struct{}

func (b *clusterBackend) run(ctx context.Context, sess *session, out chan<- Outcome) error {
	ln, err := net.Listen("tcp", sess.env.ClusterAddr)
	if err != nil {
		return fmt.Errorf("coordinator listen on %s: %w", sess.env.ClusterAddr, err)
	}
	defer ln.Close()

	// Unblock Accept when the session is torn down.
	stop := context.AfterFunc(ctx, func() { ln.Close() })
	defer stop()

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

	// The worker set is fixed at launch: every rank checks in exactly once.
	for i := 0; i < sess.env.ClusterSize-1; i++ {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			fail(fmt.Errorf("accept worker: %w", err))
			break
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer conn.Close()
			if err := serveWorker(ctx, newWire(conn, conn), sess, out); err != nil {
				fail(err)
			}
		}()
	}

	wg.Wait()
	return firstErr
}

// clusterDialTimeout bounds how long a worker rank waits for the
// coordinator to start listening.
const clusterDialTimeout = 30 * time.Second

// runClusterWorker is the non-coordinator side of a cluster session: dial
// the coordinator, serve units until dismissed, return. Invoked by the
// Dispatcher on ranks other than 0.
func runClusterWorker(ctx context.Context, env Environment) error {
	deadline := time.Now().Add(clusterDialTimeout)
	var conn net.Conn
	for {
		var err error
		conn, err = net.Dial("tcp", env.ClusterAddr)
		if err == nil {
			break
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("dial coordinator at %s: %w", env.ClusterAddr, err)
		}
		time.Sleep(100 * time.Millisecond)
	}
	defer conn.Close()
	return serveUnits(ctx, newWire(conn, conn))
}
