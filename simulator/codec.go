// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package simulator

import (
	"github.com/ava-labs/avalanchego/codec"
	"github.com/ava-labs/avalanchego/codec/linearcodec"
	"github.com/ava-labs/avalanchego/utils/wrappers"
)

const (
	// CodecVersion is the current default codec version
	CodecVersion = 0
)

// Codec serializes store records and the opaque transaction encoding.
var Codec codec.Manager

func init() {
	c := linearcodec.NewDefault()
	Codec = codec.NewDefaultManager()

	errs := wrappers.Errs{}

	errs.Add(
		c.RegisterType(&CellRecord{}),
		c.RegisterType(&HeaderRecord{}),
		c.RegisterType(&TxRecord{}),
		c.RegisterType(&RawTransaction{}),
	)

	errs.Add(
		Codec.RegisterCodec(CodecVersion, c),
	)
	if errs.Errored() {
		panic(errs.Err)
	}
}

// CellRecord is a stored input, output or cell dep. Input is only set for
// inputs.
type CellRecord struct {
	Input       []byte `serialize:"true"`
	Output      []byte `serialize:"true"`
	Data        []byte `serialize:"true"`
	HasHeader   bool   `serialize:"true"`
	HeaderIndex uint64 `serialize:"true"`
}

// HeaderRecord is a stored header dep.
type HeaderRecord struct {
	Header       []byte `serialize:"true"`
	HasExtension bool   `serialize:"true"`
	Extension    []byte `serialize:"true"`
}

// TxRecord holds everything about the loaded transaction that is not an
// indexed item.
type TxRecord struct {
	Bytes        []byte   `serialize:"true"`
	Hash         [32]byte `serialize:"true"`
	Script       []byte   `serialize:"true"`
	ScriptHash   [32]byte `serialize:"true"`
	Inputs       uint64   `serialize:"true"`
	Outputs      uint64   `serialize:"true"`
	CellDeps     uint64   `serialize:"true"`
	HeaderDeps   uint64   `serialize:"true"`
	Witnesses    uint64   `serialize:"true"`
	GroupInputs  []uint64 `serialize:"true"`
	GroupOutputs []uint64 `serialize:"true"`
}

// RawTransaction is the encoding load_transaction returns.
type RawTransaction struct {
	Version     uint32     `serialize:"true"`
	CellDeps    [][]byte   `serialize:"true"`
	HeaderDeps  [][32]byte `serialize:"true"`
	Inputs      [][]byte   `serialize:"true"`
	Outputs     [][]byte   `serialize:"true"`
	OutputsData [][]byte   `serialize:"true"`
	Witnesses   [][]byte   `serialize:"true"`
}
