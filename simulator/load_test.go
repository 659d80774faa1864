// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package simulator

import (
	"context"
	"testing"

	cjson "github.com/ava-labs/avalanchego/utils/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/ckbstd/entry"
	"github.com/ava-labs/ckbstd/highlevel"
	"github.com/ava-labs/ckbstd/since"
	"github.com/ava-labs/ckbstd/syscalls"
	"github.com/ava-labs/ckbstd/types"
)

func loadFixture() *Fixture {
	f := newFixture("root")
	header := 0
	f.Inputs[0].Cell.Header = &header
	f.HeaderDeps = []Header{
		{Number: 103, Epoch: cjsonEpoch(5, 3, 10), Timestamp: 1_700_000_000_000, Extension: HexBytes("ext")},
		{Number: 7},
	}
	f.Witnesses = []HexBytes{HexBytes("w0"), HexBytes("w1")}
	return f
}

func cjsonEpoch(number, index, length uint64) cjson.Uint64 {
	return cjson.Uint64(since.MustEpoch(number, index, length).FullValue())
}

func TestLoadSyscalls(t *testing.T) {
	assert := assert.New(t)

	type observed struct {
		txHash, scriptHash types.Hash
		script             *types.Script
		since              uint64
		outPoint           types.OutPoint
		capacity           uint64
		data               []byte
		groupLock          types.Hash
		epochNumber        uint64
		epochStart         uint64
		epochLength        uint64
		extension          []byte
		witness            []byte
		groupWitness       []byte
		tx                 []byte
	}
	var got observed
	must := func(env *entry.Env, err error) {
		if err != nil {
			env.Debugf("load failed: %v", err)
			env.Exit(1)
		}
	}
	f := loadFixture()
	sim := newSimulator(t, programs{
		"root": func(env *entry.Env) int8 {
			var err error
			got.txHash, err = highlevel.LoadTxHash(env)
			must(env, err)
			got.scriptHash, err = highlevel.LoadScriptHash(env)
			must(env, err)
			got.script, err = highlevel.LoadScript(env)
			must(env, err)
			got.since, err = highlevel.LoadInputSince(env, 0, syscalls.SourceGroupInput)
			must(env, err)
			got.outPoint, err = highlevel.LoadInputOutPoint(env, 0, syscalls.SourceInput)
			must(env, err)
			got.capacity, err = highlevel.LoadCellCapacity(env, 0, syscalls.SourceOutput)
			must(env, err)
			got.data, err = highlevel.LoadCellData(env, 0, syscalls.SourceGroupInput)
			must(env, err)
			got.groupLock, err = highlevel.LoadCellLockHash(env, 0, syscalls.SourceGroupInput)
			must(env, err)
			got.epochNumber, err = highlevel.LoadHeaderEpochNumber(env, 0, syscalls.SourceInput)
			must(env, err)
			got.epochStart, err = highlevel.LoadHeaderEpochStartBlockNumber(env, 0, syscalls.SourceHeaderDep)
			must(env, err)
			got.epochLength, err = highlevel.LoadHeaderEpochLength(env, 0, syscalls.SourceHeaderDep)
			must(env, err)
			got.extension, err = highlevel.LoadBlockExtension(env, 0, syscalls.SourceHeaderDep)
			must(env, err)
			got.witness, err = highlevel.LoadWitness(env, 1, syscalls.SourceInput)
			must(env, err)
			got.groupWitness, err = highlevel.LoadWitness(env, 0, syscalls.SourceGroupInput)
			must(env, err)
			got.tx, err = highlevel.LoadTransaction(env)
			must(env, err)
			return 0
		},
	}, f, DefaultConfig())
	res, err := sim.Run(context.Background())
	require.NoError(t, err)
	require.Zero(t, res.ExitCode, "%v", res.Debug)

	assert.Equal(sim.TxHash(), got.txHash)
	assert.Equal(sim.ScriptHash(), got.scriptHash)
	assert.Equal(sim.ScriptHash(), got.script.Hash())
	assert.Equal(sim.ScriptHash(), got.groupLock)
	assert.Equal(uint64(0x8000_0000_0000_0005), got.since)
	assert.Equal(uint32(1), got.outPoint.Index)
	assert.Equal(uint64(900), got.capacity)
	assert.Equal([]byte("input data"), got.data)
	assert.Equal(uint64(5), got.epochNumber)
	assert.Equal(uint64(100), got.epochStart)
	assert.Equal(uint64(10), got.epochLength)
	assert.Equal([]byte("ext"), got.extension)
	assert.Equal([]byte("w1"), got.witness)
	assert.Equal([]byte("w0"), got.groupWitness)
	assert.NotEmpty(got.tx)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		load func(env *entry.Env) error
		want error
	}{
		{
			name: "input out of range",
			load: func(env *entry.Env) error {
				_, err := highlevel.LoadCellData(env, 1, syscalls.SourceInput)
				return err
			},
			want: syscalls.ErrIndexOutOfBound,
		},
		{
			name: "no group outputs for a lock script",
			load: func(env *entry.Env) error {
				_, err := highlevel.LoadCell(env, 0, syscalls.SourceGroupOutput)
				return err
			},
			want: syscalls.ErrIndexOutOfBound,
		},
		{
			name: "unknown source",
			load: func(env *entry.Env) error {
				_, err := highlevel.LoadCell(env, 0, syscalls.Source(77))
				return err
			},
			want: syscalls.ErrIndexOutOfBound,
		},
		{
			name: "output has no header",
			load: func(env *entry.Env) error {
				_, err := highlevel.LoadHeader(env, 0, syscalls.SourceOutput)
				return err
			},
			want: syscalls.ErrIndexOutOfBound,
		},
		{
			name: "cell dep without header",
			load: func(env *entry.Env) error {
				_, err := highlevel.LoadHeader(env, 0, syscalls.SourceCellDep)
				return err
			},
			want: syscalls.ErrItemMissing,
		},
		{
			name: "header without extension",
			load: func(env *entry.Env) error {
				_, err := highlevel.LoadBlockExtension(env, 1, syscalls.SourceHeaderDep)
				return err
			},
			want: syscalls.ErrItemMissing,
		},
		{
			name: "no type script",
			load: func(env *entry.Env) error {
				_, err := env.LoadCellByField(make([]byte, 32), 0, 0, syscalls.SourceInput, syscalls.CellFieldTypeHash)
				return err
			},
			want: syscalls.ErrItemMissing,
		},
		{
			name: "witness out of range",
			load: func(env *entry.Env) error {
				_, err := highlevel.LoadWitness(env, 2, syscalls.SourceOutput)
				return err
			},
			want: syscalls.ErrIndexOutOfBound,
		},
		{
			name: "input of an output",
			load: func(env *entry.Env) error {
				_, err := highlevel.LoadInput(env, 0, syscalls.SourceOutput)
				return err
			},
			want: syscalls.ErrIndexOutOfBound,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var got error
			res, err := run(t, programs{
				"root": func(env *entry.Env) int8 {
					got = test.load(env)
					return 0
				},
			}, loadFixture(), DefaultConfig())
			require.NoError(t, err)
			require.Zero(t, res.ExitCode)
			require.ErrorIs(t, got, test.want)
		})
	}
}

func TestPartialLoad(t *testing.T) {
	assert := assert.New(t)

	var (
		n      uint64
		actual uint64
		short  bool
		prefix []byte
		tail   uint64
	)
	res, err := run(t, programs{
		"root": func(env *entry.Env) int8 {
			buf := make([]byte, 4)
			var err error
			_, err = env.LoadCellData(buf, 0, 0, syscalls.SourceInput)
			actual, short = syscalls.IsLengthNotEnough(err)
			prefix = append(prefix, buf...)

			n, err = env.LoadCellData(make([]byte, 32), 6, 0, syscalls.SourceInput)
			exitOnErr(env, err)
			tail, err = env.LoadCellData(make([]byte, 32), 100, 0, syscalls.SourceInput)
			exitOnErr(env, err)
			return 0
		},
	}, loadFixture(), DefaultConfig())
	require.NoError(t, err)
	assert.Zero(res.ExitCode)
	assert.True(short)
	assert.Equal(uint64(len("input data")), actual)
	assert.Equal([]byte("inpu"), prefix)
	assert.Equal(uint64(4), n)
	assert.Zero(tail)
}

func TestTypeScriptGroup(t *testing.T) {
	assert := assert.New(t)

	f := newFixture("root")
	typ := ScriptFor(ProgramCode("root"), HexBytes("type args"))
	f.ScriptKind = "type"
	f.Script = typ
	f.Inputs[0].Cell.Type = &typ
	f.Outputs = append(f.Outputs, Cell{Capacity: 1, Lock: typ}, Cell{Capacity: 2, Lock: typ, Type: &typ})

	var groupOutput, groupInputs uint64
	res, err := run(t, programs{
		"root": func(env *entry.Env) int8 {
			var err error
			groupOutput, err = highlevel.LoadCellCapacity(env, 0, syscalls.SourceGroupOutput)
			exitOnErr(env, err)
			groupInputs = highlevel.NewQueryIter[uint64](env, highlevel.LoadCellCapacity, syscalls.SourceGroupInput).Count()
			return 0
		},
	}, f, DefaultConfig())
	require.NoError(t, err)
	assert.Zero(res.ExitCode)
	assert.Equal(uint64(2), groupOutput)
	assert.Equal(uint64(1), groupInputs)
}
