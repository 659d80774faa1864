// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package simulator is an in-process host for guest programs. It serves the
// full syscall surface against a transaction fixture and schedules spawned
// processes the way the VM does: one process running at a time, lowest
// process ID first, pipes as unbuffered byte streams.
package simulator

import (
	"context"
	"errors"
	"fmt"

	"github.com/ava-labs/avalanchego/cache"
	"github.com/ava-labs/avalanchego/cache/metercacher"
	"github.com/ava-labs/avalanchego/database/memdb"
	"github.com/prometheus/client_golang/prometheus"

	log "github.com/inconshreveable/log15"

	"github.com/ava-labs/ckbstd/syscalls"
	"github.com/ava-labs/ckbstd/types"
)

// Cycle costs.
const (
	SyscallCycles       = 500
	LoadCycles          = 1_000
	SpawnCycles         = 100_000
	ContextSwitchCycles = 800
	BytesPerCycle       = 4
)

const defaultProgramCacheSize = 256

var (
	ErrDeadlock       = errors.New("no runnable process while root is alive")
	ErrCyclesExceeded = errors.New("max cycles exceeded")

	errAlreadyLoaded = errors.New("state already holds a transaction")
	errNoRootCode    = errors.New("no cell dep matches the script code hash")
)

type Config struct {
	// MaxVMs caps the number of processes that have not been reaped.
	MaxVMs int
	// MaxFDs caps the number of open descriptors across all processes.
	MaxFDs int
	// MaxCycles fails the run once exceeded. Zero disables the limit.
	MaxCycles uint64
	VMVersion uint64
	CacheSize int
	// GuestLogLevel filters what guests log through the debug channel.
	GuestLogLevel log.Lvl
	Logger        log.Logger
	// Registerer receives the cache metrics, and the run metrics unless
	// Metrics is set.
	Registerer prometheus.Registerer
	Metrics    *Metrics
}

func DefaultConfig() Config {
	return Config{
		MaxVMs:        16,
		MaxFDs:        64,
		VMVersion:     2,
		CacheSize:     defaultRecordCacheSize,
		GuestLogLevel: log.LvlDebug,
	}
}

type ProcessReport struct {
	ID         uint64   `json:"id"`
	Program    string   `json:"program"`
	Argv       []string `json:"argv"`
	State      string   `json:"state"`
	ExitCode   int8     `json:"exitCode"`
	Cycles     uint64   `json:"cycles"`
	Terminated bool     `json:"terminated"`
}

type DebugMessage struct {
	PID     uint64 `json:"pid"`
	Message string `json:"message"`
}

// Result describes a finished run. ExitCode is the root process's.
type Result struct {
	ExitCode  int8            `json:"exitCode"`
	Cycles    uint64          `json:"cycles"`
	Processes []ProcessReport `json:"processes"`
	Debug     []DebugMessage  `json:"debug"`
}

// Simulator runs the script of one fixture. Runs share the loaded state and
// may be repeated.
type Simulator struct {
	config   Config
	log      log.Logger
	registry *Registry
	metrics  *Metrics

	state        State
	tx           *TxRecord
	programCache cache.Cacher
	root         Image
	fixtureArgv  []string
}

// New loads [fixture] into a fresh in-memory store and resolves the root
// program against [registry].
func New(fixture *Fixture, registry *Registry, config Config) (*Simulator, error) {
	if config.Logger == nil {
		config.Logger = log.New("module", "simulator")
	}
	if config.Registerer == nil {
		config.Registerer = prometheus.NewRegistry()
	}

	m := config.Metrics
	if m == nil {
		var err error
		m, err = NewMetrics(config.Registerer)
		if err != nil {
			return nil, fmt.Errorf("couldn't register metrics: %w", err)
		}
	}
	programCache, err := metercacher.New(
		"program_cache",
		config.Registerer,
		&cache.LRU{Size: defaultProgramCacheSize},
	)
	if err != nil {
		return nil, err
	}
	state, err := NewState(memdb.New(), config.CacheSize, config.Registerer)
	if err != nil {
		return nil, err
	}

	s := &Simulator{
		config:       config,
		log:          config.Logger,
		registry:     registry,
		metrics:      m,
		state:        state,
		programCache: programCache,
	}
	if err := s.load(fixture); err != nil {
		_ = state.Close()
		return nil, err
	}
	if err := s.resolveRoot(); err != nil {
		_ = state.Close()
		return nil, err
	}
	return s, nil
}

func (s *Simulator) Close() error {
	return s.state.Close()
}

func (s *Simulator) TxHash() types.Hash { return types.Hash(s.tx.Hash) }

func (s *Simulator) ScriptHash() types.Hash { return types.Hash(s.tx.ScriptHash) }

// RootProgram is the name of the program the script resolves to.
func (s *Simulator) RootProgram() string { return s.root.Name }

func (s *Simulator) resolveRoot() error {
	script, err := types.ParseScript(s.tx.Script)
	if err != nil {
		return err
	}
	for i := uint64(0); i < s.tx.CellDeps; i++ {
		rec, err := s.state.GetCell(CellDeps, i)
		if err != nil {
			return err
		}
		var match bool
		if script.HashType == syscalls.HashTypeType {
			out, err := types.ParseCellOutput(rec.Output)
			if err != nil {
				return err
			}
			match = out.Type != nil && out.Type.Hash() == script.CodeHash
		} else {
			match = types.ComputeHash(rec.Data) == script.CodeHash
		}
		if !match {
			continue
		}
		img, err := s.lookup(rec.Data)
		if err != nil {
			return err
		}
		s.root = img
		s.log.Debug("resolved root program", "program", img.Name, "dep", i)
		return nil
	}
	return fmt.Errorf("%w: %s", errNoRootCode, script.CodeHash)
}

// lookup finds the program for [code].
func (s *Simulator) lookup(code []byte) (Image, error) {
	h := types.ComputeHash(code)
	if cached, ok := s.programCache.Get(h); ok {
		return cached.(Image), nil
	}
	img, ok := s.registry.Lookup(h)
	if !ok {
		return Image{}, fmt.Errorf("%w: code %s is not a registered program", syscalls.ErrEncoding, h)
	}
	s.programCache.Put(h, img)
	return img, nil
}

// Run executes the root program to completion. A deadlock, the cycle limit
// or the cancellation of [ctx] stops every process and returns an error
// along with the partial result.
func (s *Simulator) Run(ctx context.Context) (*Result, error) {
	sched := newScheduler(s)
	err := sched.run(ctx)
	res := sched.result()

	s.metrics.cycles.Add(float64(res.Cycles))
	switch {
	case err == nil:
		s.metrics.runs.WithLabelValues("ok").Inc()
		s.log.Info("run finished", "exitCode", res.ExitCode, "cycles", res.Cycles, "processes", len(res.Processes))
	case errors.Is(err, ErrDeadlock):
		s.metrics.runs.WithLabelValues("deadlock").Inc()
		s.log.Warn("run deadlocked", "cycles", res.Cycles)
	default:
		s.metrics.runs.WithLabelValues("error").Inc()
		s.log.Warn("run failed", "err", err)
	}
	return res, err
}
