package dispatch

import (
	"os"
	"runtime"
	"strconv"
)

// Environment variables consumed by the prober. They are fixed at launch by
// whatever starts the process group; the library only ever reads them.
const (
	// EnvClusterAddr is the coordinator's listen/dial address (host:port).
	EnvClusterAddr = "TASKKIT_CLUSTER_ADDR"
	// EnvClusterRank is this node's rank, 0..size-1. Rank 0 coordinates.
	EnvClusterRank = "TASKKIT_CLUSTER_RANK"
	// EnvClusterSize is the total number of nodes, coordinator included.
	EnvClusterSize = "TASKKIT_CLUSTER_SIZE"
	// EnvWorkerProcess marks a subprocess spawned by the processes backend.
	EnvWorkerProcess = "TASKKIT_WORKER_PROCESS"
)

// EnvReader abstracts the process environment so tests can inject a fake.
type EnvReader interface {
	// LookupEnv mirrors os.LookupEnv.
	LookupEnv(key string) (string, bool)
	// CPUCount returns the number of usable logical CPUs.
	CPUCount() int
}

// systemEnv reads the real process environment.
type systemEnv struct{}

func (systemEnv) LookupEnv(key string) (string, bool) { return os.LookupEnv(key) }
func (systemEnv) CPUCount() int                       { return runtime.NumCPU() }

// SystemEnv returns an EnvReader backed by the real process environment.
func SystemEnv() EnvReader { return systemEnv{} }

// Environment describes which backends the runtime supports and how many
// workers each offers. It is a plain snapshot; probing again may return a
// different result if the environment changed.
type Environment struct {
	// Workers maps each available mode to its worker count.
	Workers map[Mode]int
	// Rank is this node's cluster rank. Zero outside a cluster launch.
	Rank int
	// ClusterAddr is the coordinator address. Empty outside a cluster launch.
	ClusterAddr string
	// ClusterSize is the total node count. Zero outside a cluster launch.
	ClusterSize int
}

// Available reports whether the mode can be used in this environment.
func (e Environment) Available(m Mode) bool {
	_, ok := e.Workers[m]
	return ok
}

// Best returns the most capable available mode.
func (e Environment) Best() Mode {
	for _, m := range modePreference {
		if e.Available(m) {
			return m
		}
	}
	return ModeSequential
}

// Probe inspects the process environment and reports the supported modes.
// Absence of a backend is reported as unavailability, never as an error.
func Probe() Environment {
	return ProbeWith(SystemEnv())
}

// ProbeWith probes using the supplied environment reader. It performs no
// side effects, so callers are free to probe as often as they like.
func ProbeWith(env EnvReader) Environment {
	e := Environment{Workers: map[Mode]int{ModeSequential: 1}}

	if cpus := env.CPUCount(); cpus >= 2 {
		e.Workers[ModeThreads] = cpus
		e.Workers[ModeProcesses] = cpus
	}

	addr, ok := env.LookupEnv(EnvClusterAddr)
	if !ok || addr == "" {
		return e
	}
	size, err := lookupInt(env, EnvClusterSize)
	if err != nil || size < 2 {
		return e
	}
	rank, err := lookupInt(env, EnvClusterRank)
	if err != nil || rank < 0 || rank >= size {
		return e
	}

	e.Rank = rank
	e.ClusterAddr = addr
	e.ClusterSize = size
	e.Workers[ModeCluster] = size - 1
	return e
}

// workersFromVar reads a worker count from a named environment variable,
// falling back to def when the variable is unset or not an integer.
func workersFromVar(env EnvReader, name string, def int) int {
	if name == "" {
		return def
	}
	v, ok := env.LookupEnv(name)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return def
	}
	return n
}

func lookupInt(env EnvReader, key string) (int, error) {
	v, _ := env.LookupEnv(key)
	return strconv.Atoi(v)
}
