package dispatch

import (
	"strconv"
	"testing"
)

// fakeEnv is an injectable environment for prober tests.
type fakeEnv struct {
	vars map[string]string
	cpus int
}

func (f *fakeEnv) LookupEnv(key string) (string, bool) {
	v, ok := f.vars[key]
	return v, ok
}

func (f *fakeEnv) CPUCount() int { return f.cpus }

func clusterEnv(addr string, rank, size int) *fakeEnv {
	return &fakeEnv{
		cpus: 4,
		vars: map[string]string{
			EnvClusterAddr: addr,
			EnvClusterRank: strconv.Itoa(rank),
			EnvClusterSize: strconv.Itoa(size),
		},
	}
}

func TestProbeSequentialAlwaysAvailable(t *testing.T) {
	e := ProbeWith(&fakeEnv{cpus: 1})
	if !e.Available(ModeSequential) {
		t.Error("sequential must always be available")
	}
	if e.Workers[ModeSequential] != 1 {
		t.Errorf("expected 1 sequential worker, got %d", e.Workers[ModeSequential])
	}
}

func TestProbeSingleCPUDisablesParallelModes(t *testing.T) {
	e := ProbeWith(&fakeEnv{cpus: 1})
	if e.Available(ModeThreads) || e.Available(ModeProcesses) {
		t.Error("one CPU should not offer parallel local modes")
	}
	if e.Best() != ModeSequential {
		t.Errorf("expected sequential best, got %s", e.Best())
	}
}

func TestProbeMultiCPU(t *testing.T) {
	e := ProbeWith(&fakeEnv{cpus: 8})
	if e.Workers[ModeThreads] != 8 || e.Workers[ModeProcesses] != 8 {
		t.Errorf("expected 8 workers for local modes, got %v", e.Workers)
	}
	if e.Best() != ModeProcesses {
		t.Errorf("expected processes best without a cluster, got %s", e.Best())
	}
	if e.Available(ModeCluster) {
		t.Error("cluster should be unavailable without launch variables")
	}
}

func TestProbeCluster(t *testing.T) {
	e := ProbeWith(clusterEnv("127.0.0.1:9999", 0, 4))
	if !e.Available(ModeCluster) {
		t.Fatal("expected cluster available")
	}
	if e.Workers[ModeCluster] != 3 {
		t.Errorf("expected 3 cluster workers, got %d", e.Workers[ModeCluster])
	}
	if e.Best() != ModeCluster {
		t.Errorf("expected cluster best, got %s", e.Best())
	}
	if e.Rank != 0 || e.ClusterSize != 4 {
		t.Errorf("unexpected rank/size: %d/%d", e.Rank, e.ClusterSize)
	}
}

func TestProbeClusterMalformed(t *testing.T) {
	cases := map[string]*fakeEnv{
		"no rank": {cpus: 4, vars: map[string]string{
			EnvClusterAddr: "x:1", EnvClusterSize: "3",
		}},
		"rank out of range": clusterEnv("x:1", 5, 3),
		"size too small":    clusterEnv("x:1", 0, 1),
		"size not a number": {cpus: 4, vars: map[string]string{
			EnvClusterAddr: "x:1", EnvClusterRank: "0", EnvClusterSize: "many",
		}},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			if e := ProbeWith(env); e.Available(ModeCluster) {
				t.Error("expected cluster unavailable")
			}
		})
	}
}

func TestWorkersFromVar(t *testing.T) {
	env := &fakeEnv{cpus: 4, vars: map[string]string{
		"NSLOTS": "3",
		"JUNK":   "lots",
	}}
	if got := workersFromVar(env, "NSLOTS", 8); got != 3 {
		t.Errorf("expected 3, got %d", got)
	}
	if got := workersFromVar(env, "UNSET", 8); got != 8 {
		t.Errorf("expected fallback 8, got %d", got)
	}
	if got := workersFromVar(env, "JUNK", 8); got != 8 {
		t.Errorf("expected fallback for non-integer, got %d", got)
	}
	if got := workersFromVar(env, "", 8); got != 8 {
		t.Errorf("expected fallback for empty name, got %d", got)
	}
}
