// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package simulator

import (
	"github.com/ava-labs/avalanchego/utils/wrappers"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ava-labs/ckbstd/syscalls"
)

const metricsNamespace = "ckbsim"

// Metrics counts what the simulator does across runs.
type Metrics struct {
	syscalls        *prometheus.CounterVec
	spawned         prometheus.Counter
	contextSwitches prometheus.Counter
	pipes           prometheus.Counter
	cycles          prometheus.Counter
	runs            *prometheus.CounterVec
}

func NewMetrics(registerer prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		syscalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "syscalls",
			Help:      "Number of syscalls served, by name",
		}, []string{"name"}),
		spawned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "processes_spawned",
			Help:      "Number of processes started, including roots",
		}),
		contextSwitches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "context_switches",
			Help:      "Number of times a process was resumed",
		}),
		pipes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "pipes",
			Help:      "Number of pipes created",
		}),
		cycles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "cycles",
			Help:      "Cycles consumed by all runs",
		}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "runs",
			Help:      "Number of finished runs, by outcome",
		}, []string{"outcome"}),
	}

	errs := wrappers.Errs{}
	errs.Add(
		registerer.Register(m.syscalls),
		registerer.Register(m.spawned),
		registerer.Register(m.contextSwitches),
		registerer.Register(m.pipes),
		registerer.Register(m.cycles),
		registerer.Register(m.runs),
	)
	return m, errs.Err
}

func (m *Metrics) syscall(n uint64) {
	m.syscalls.WithLabelValues(syscalls.SyscallName(n)).Inc()
}
