// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package highlevel

import (
	"errors"

	"github.com/ava-labs/ckbstd/syscalls"
	"github.com/ava-labs/ckbstd/types"
)

// FindCellByDataHash returns the index of the first cell in [src] whose data
// hash is [dataHash].
func FindCellByDataHash(sys syscalls.Impls, dataHash types.Hash, src syscalls.Source) (uint64, bool, error) {
	for i := uint64(0); ; i++ {
		h, err := LoadCellDataHash(sys, i, src)
		switch {
		case err == nil:
			if h == dataHash {
				return i, true, nil
			}
		case errors.Is(err, syscalls.ErrIndexOutOfBound):
			return 0, false, nil
		default:
			return 0, false, err
		}
	}
}

// LookForDepWithHash2 returns the index of the cell dep matching [codeHash].
// Type matches the type hash, every other hash type matches the data hash.
// It returns ErrIndexOutOfBound when no dep matches.
func LookForDepWithHash2(sys syscalls.Impls, codeHash types.Hash, hashType syscalls.ScriptHashType) (uint64, error) {
	field := syscalls.CellFieldDataHash
	if hashType == syscalls.HashTypeType {
		field = syscalls.CellFieldTypeHash
	}
	var buf [types.HashLen]byte
	for i := uint64(0); ; i++ {
		n, err := sys.LoadCellByField(buf[:], 0, i, syscalls.SourceCellDep, field)
		switch {
		case err == nil:
			if n == types.HashLen && types.Hash(buf) == codeHash {
				return i, nil
			}
		case errors.Is(err, syscalls.ErrItemMissing):
		default:
			return 0, err
		}
	}
}

// LookForDepWithDataHash is LookForDepWithHash2 by data hash.
func LookForDepWithDataHash(sys syscalls.Impls, dataHash types.Hash) (uint64, error) {
	return LookForDepWithHash2(sys, dataHash, syscalls.HashTypeData)
}

// ExecCell replaces the running program with the cell dep matching
// [codeHash]. It only returns on failure.
func ExecCell(sys syscalls.Impls, codeHash types.Hash, hashType syscalls.ScriptHashType, argv []string) error {
	index, err := LookForDepWithHash2(sys, codeHash, hashType)
	if err != nil {
		return err
	}
	return sys.Exec(index, syscalls.SourceCellDep, syscalls.PlaceCellData, 0, argv)
}

// SpawnCell starts the cell dep matching [codeHash] as a child process and
// hands it [inheritedFDs].
func SpawnCell(sys syscalls.Impls, codeHash types.Hash, hashType syscalls.ScriptHashType, argv []string, inheritedFDs []uint64) (uint64, error) {
	index, err := LookForDepWithHash2(sys, codeHash, hashType)
	if err != nil {
		return 0, err
	}
	return sys.Spawn(index, syscalls.SourceCellDep, syscalls.PlaceCellData, 0, argv, inheritedFDs)
}
