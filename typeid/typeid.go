// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package typeid validates the Type ID rule: a type script whose args carry
// a unique, unforgeable identifier. Burning a Type ID cell is allowed.
package typeid

import (
	"errors"

	"github.com/ava-labs/ckbstd/highlevel"
	"github.com/ava-labs/ckbstd/syscalls"
	"github.com/ava-labs/ckbstd/types"
)

var ErrTypeID = errors.New("type id rule violated")

func isCellPresent(sys syscalls.Impls, index uint64, src syscalls.Source) bool {
	_, err := sys.LoadCell(nil, 0, index, src)
	if err == nil {
		return true
	}
	_, short := syscalls.IsLengthNotEnough(err)
	return short
}

func locateIndex(sys syscalls.Impls) (uint64, error) {
	hash, err := highlevel.LoadScriptHash(sys)
	if err != nil {
		return 0, err
	}
	it := highlevel.NewQueryIter(sys, highlevel.LoadCellTypeHash, syscalls.SourceOutput)
	index, ok := it.Position(func(h *types.Hash) bool {
		return h != nil && *h == hash
	})
	if !ok {
		return 0, ErrTypeID
	}
	return index, nil
}

// Compute returns the Type ID minted by [firstInput] for the output at
// [index].
func Compute(firstInput types.CellInput, index uint64) types.Hash {
	return types.ComputeHash(firstInput.Bytes(), types.PackUint64(index))
}

// Validate checks [typeID] against the current script group. At most one
// cell may carry the script on either side. With no input cell the group is
// minting, and [typeID] must be derived from the transaction's first input
// and the index of the output being created.
func Validate(sys syscalls.Impls, typeID types.Hash) error {
	if isCellPresent(sys, 1, syscalls.SourceGroupInput) || isCellPresent(sys, 1, syscalls.SourceGroupOutput) {
		return ErrTypeID
	}
	if isCellPresent(sys, 0, syscalls.SourceGroupInput) {
		return nil
	}

	index, err := locateIndex(sys)
	if err != nil {
		return err
	}
	input, err := highlevel.LoadInput(sys, 0, syscalls.SourceInput)
	if err != nil {
		return err
	}
	if Compute(input, index) != typeID {
		return ErrTypeID
	}
	return nil
}

// LoadFromArgs reads the 32 byte Type ID at [offset] of the script args.
func LoadFromArgs(sys syscalls.Impls, offset int) (types.Hash, error) {
	script, err := highlevel.LoadScript(sys)
	if err != nil {
		return types.Hash{}, err
	}
	if offset < 0 || offset+types.HashLen > len(script.Args) {
		return types.Hash{}, ErrTypeID
	}
	h, _ := types.HashFromBytes(script.Args[offset : offset+types.HashLen])
	return h, nil
}

// Check validates the Type ID stored at [offset] of the script args.
func Check(sys syscalls.Impls, offset int) error {
	typeID, err := LoadFromArgs(sys, offset)
	if err != nil {
		return err
	}
	return Validate(sys, typeID)
}
