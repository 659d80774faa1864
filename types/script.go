// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package types

import (
	"github.com/ava-labs/ckbstd/syscalls"
)

// Script is a lock or type script attached to a cell.
type Script struct {
	CodeHash Hash
	HashType syscalls.ScriptHashType
	Args     []byte
}

// Bytes returns the table encoding of the script.
func (s *Script) Bytes() []byte {
	return packTable(s.CodeHash[:], []byte{byte(s.HashType)}, packBytes(s.Args))
}

// Hash returns the script hash, the digest of its encoding.
func (s *Script) Hash() Hash {
	return ComputeHash(s.Bytes())
}

// ParseScript decodes a table encoded script.
func ParseScript(raw []byte) (*Script, error) {
	fields, err := unpackTable(raw, 3)
	if err != nil {
		return nil, err
	}
	codeHash, ok := HashFromBytes(fields[0])
	if !ok {
		return nil, ErrInvalidStruct
	}
	if len(fields[1]) != 1 {
		return nil, ErrInvalidStruct
	}
	args, err := unpackBytes(fields[2])
	if err != nil {
		return nil, err
	}
	return &Script{
		CodeHash: codeHash,
		HashType: syscalls.ScriptHashType(fields[1][0]),
		Args:     args,
	}, nil
}

// CellOutput describes a cell: its capacity, lock and optional type.
type CellOutput struct {
	Capacity uint64
	Lock     Script
	Type     *Script
}

func (c *CellOutput) Bytes() []byte {
	var typ []byte
	if c.Type != nil {
		typ = c.Type.Bytes()
	}
	return packTable(PackUint64(c.Capacity), c.Lock.Bytes(), typ)
}

func ParseCellOutput(raw []byte) (*CellOutput, error) {
	fields, err := unpackTable(raw, 3)
	if err != nil {
		return nil, err
	}
	capacity, err := UnpackUint64(fields[0])
	if err != nil {
		return nil, err
	}
	lock, err := ParseScript(fields[1])
	if err != nil {
		return nil, err
	}
	out := &CellOutput{
		Capacity: capacity,
		Lock:     *lock,
	}
	if len(fields[2]) > 0 {
		typ, err := ParseScript(fields[2])
		if err != nil {
			return nil, err
		}
		out.Type = typ
	}
	return out, nil
}

// OccupiedCapacity is the capacity, in shannons, the cell needs to hold its
// own fields plus [dataLen] bytes of data.
func (c *CellOutput) OccupiedCapacity(dataLen int) uint64 {
	size := uint64(8 + scriptOccupied(&c.Lock) + dataLen)
	if c.Type != nil {
		size += uint64(scriptOccupied(c.Type))
	}
	return size * ShannonsPerByte
}

// ShannonsPerByte converts occupied bytes into capacity units.
const ShannonsPerByte = 100_000_000

func scriptOccupied(s *Script) int {
	return HashLen + 1 + len(s.Args)
}
