// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package types

import (
	"encoding/binary"

	"github.com/ava-labs/avalanchego/utils/wrappers"
)

const (
	OutPointLen  = HashLen + wrappers.IntLen
	CellInputLen = wrappers.LongLen + OutPointLen
)

// OutPoint references an output of a previous transaction.
type OutPoint struct {
	TxHash Hash
	Index  uint32
}

func (o OutPoint) Bytes() []byte {
	raw := make([]byte, OutPointLen)
	copy(raw, o.TxHash[:])
	binary.LittleEndian.PutUint32(raw[HashLen:], o.Index)
	return raw
}

func ParseOutPoint(raw []byte) (OutPoint, error) {
	if len(raw) != OutPointLen {
		return OutPoint{}, ErrInvalidStruct
	}
	var o OutPoint
	copy(o.TxHash[:], raw)
	o.Index = binary.LittleEndian.Uint32(raw[HashLen:])
	return o, nil
}

// CellInput spends [PreviousOutput] once [Since] is satisfied.
type CellInput struct {
	Since          uint64
	PreviousOutput OutPoint
}

func (c CellInput) Bytes() []byte {
	raw := make([]byte, CellInputLen)
	binary.LittleEndian.PutUint64(raw, c.Since)
	copy(raw[wrappers.LongLen:], c.PreviousOutput.Bytes())
	return raw
}

func ParseCellInput(raw []byte) (CellInput, error) {
	if len(raw) != CellInputLen {
		return CellInput{}, ErrInvalidStruct
	}
	op, err := ParseOutPoint(raw[wrappers.LongLen:])
	if err != nil {
		return CellInput{}, err
	}
	return CellInput{
		Since:          binary.LittleEndian.Uint64(raw),
		PreviousOutput: op,
	}, nil
}
