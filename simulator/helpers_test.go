// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package simulator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ava-labs/ckbstd/entry"
	"github.com/ava-labs/ckbstd/highlevel"
	"github.com/ava-labs/ckbstd/syscalls"
	"github.com/ava-labs/ckbstd/types"
)

type programs map[string]entry.Program

// newFixture returns a transaction whose lock script runs [root]. Every
// named program gets a cell dep.
func newFixture(root string, names ...string) *Fixture {
	script := ScriptFor(ProgramCode(root), nil)
	f := &Fixture{
		Script: script,
		Inputs: []Input{{
			PreviousOutput: OutPoint{TxHash: make(HexBytes, types.HashLen), Index: 1},
			Since:          0x8000_0000_0000_0005,
			Cell:           Cell{Capacity: 1000, Lock: script, Data: HexBytes("input data")},
		}},
		Outputs: []Cell{{Capacity: 900, Lock: script}},
	}
	for _, name := range append([]string{root}, names...) {
		f.CellDeps = append(f.CellDeps, Cell{Capacity: 1, Lock: script, Program: name})
	}
	return f
}

func newSimulator(t *testing.T, progs programs, f *Fixture, config Config) *Simulator {
	t.Helper()
	reg := NewRegistry()
	for name, p := range progs {
		_, err := reg.Register(name, p)
		require.NoError(t, err)
	}
	sim, err := New(f, reg, config)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sim.Close() })
	return sim
}

func run(t *testing.T, progs programs, f *Fixture, config Config) (*Result, error) {
	t.Helper()
	return newSimulator(t, progs, f, config).Run(context.Background())
}

func spawn(env *entry.Env, name string, argv []string, fds ...uint64) (uint64, error) {
	return highlevel.SpawnCell(env, types.ComputeHash(ProgramCode(name)), syscalls.HashTypeData1, argv, fds)
}

func exitOnErr(env *entry.Env, err error) {
	if err != nil {
		env.Debugf("unexpected error: %v", err)
		env.Exit(-10 - int8(syscalls.Code(err)))
	}
}
