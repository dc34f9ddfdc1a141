// Package dispatch runs a function over a sequence of work units using one
// of four interchangeable concurrency backends: sequential, goroutine pool,
// worker subprocesses, or a fixed distributed cluster of worker nodes.
//
// The same dispatch code runs unmodified on every backend. One coordinator
// owns the task iterator and hands units to workers as they become idle, so
// workers of unequal speed naturally receive proportionally more units.
//
// # Quick Start
//
//	multiply := dispatch.Register("multiply", func(_ context.Context, args dispatch.Args, consts dispatch.Consts) (any, error) {
//	    return args[0].(int) * consts["multiplier"].(int), nil
//	})
//
//	d, err := dispatch.New(dispatch.WithMode(dispatch.ModeThreads))
//	if err != nil {
//	    return err
//	}
//	outcomes, err := d.RunCollect(ctx, multiply,
//	    dispatch.NewTasks([]dispatch.Args{{2}, {3}, {4}}),
//	    dispatch.WithConsts(dispatch.Consts{"multiplier": 10}),
//	)
//
// RunCollect blocks and returns one outcome per unit in input order.
// RunStream returns a lazy stream that yields outcomes in completion order;
// closing the stream early cancels units that have not been handed out yet.
//
// # Backends
//
// The available backends are probed from the runtime environment at
// construction. Requesting a mode the environment does not support fails
// with a backend_unavailable error before any unit is processed.
//
//   - ModeSequential: the coordinator is the sole worker.
//   - ModeThreads: a goroutine pool sharing process memory. The function
//     must not rely on process isolation; shared mutable globals are the
//     caller's hazard.
//   - ModeProcesses: worker subprocesses re-executing the current binary.
//     main must call dispatch.WorkerMain() after task registration, and
//     arguments and results must survive a JSON round trip.
//   - ModeCluster: a fixed set of worker nodes known at launch. Rank 0 is
//     the coordinator; other ranks dial in and serve units. Rank, cluster
//     size, and the coordinator address come from the TASKKIT_CLUSTER_*
//     environment variables.
//
// # Failure model
//
// A unit whose function returns an error (or panics) produces a
// task_failure outcome in its slot; sibling units are unaffected. A failed
// sink write produces a sink_failure marker on the outcome without
// aborting the session or retrying the unit.
package dispatch
