package dispatch

import "fmt"

// Mode selects the concurrency backend used to execute work units.
type Mode string

const (
	// ModeSequential runs every unit synchronously on the calling goroutine.
	ModeSequential Mode = "sequential"
	// ModeThreads runs units on a pool of goroutines sharing process memory.
	ModeThreads Mode = "threads"
	// ModeProcesses runs units on worker subprocesses of the current binary.
	ModeProcesses Mode = "processes"
	// ModeCluster runs units on a fixed set of separately-launched worker
	// nodes, with rank 0 acting as coordinator.
	ModeCluster Mode = "cluster"
)

// modePreference is the auto-selection order, most capable first.
var modePreference = []Mode{ModeCluster, ModeProcesses, ModeThreads, ModeSequential}

// AllModes returns every known mode in preference order.
func AllModes() []Mode {
	modes := make([]Mode, len(modePreference))
	copy(modes, modePreference)
	return modes
}

// ParseMode converts a string into a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeSequential, ModeThreads, ModeProcesses, ModeCluster:
		return Mode(s), nil
	}
	return "", fmt.Errorf("dispatch: unknown mode %q", s)
}

// Local reports whether the mode executes inside the current process.
func (m Mode) Local() bool {
	return m == ModeSequential || m == ModeThreads
}

func (m Mode) String() string { return string(m) }
