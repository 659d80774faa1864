// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package highlevel

import (
	"encoding/binary"
	"errors"

	"github.com/ava-labs/avalanchego/utils/wrappers"

	"github.com/ava-labs/ckbstd/syscalls"
	"github.com/ava-labs/ckbstd/types"
)

type source = syscalls.Source

func loadHash(load LoadFunc) (types.Hash, error) {
	raw, err := loadFixed(load, types.HashLen)
	if err != nil {
		return types.Hash{}, err
	}
	h, _ := types.HashFromBytes(raw)
	return h, nil
}

func loadUint64(load LoadFunc) (uint64, error) {
	raw, err := loadFixed(load, wrappers.LongLen)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(raw), nil
}

func LoadTxHash(sys syscalls.Impls) (types.Hash, error) {
	return loadHash(sys.LoadTxHash)
}

func LoadScriptHash(sys syscalls.Impls) (types.Hash, error) {
	return loadHash(sys.LoadScriptHash)
}

// LoadTransaction returns the encoded transaction being verified.
func LoadTransaction(sys syscalls.Impls) ([]byte, error) {
	return LoadData(sys.LoadTransaction)
}

// LoadScript returns the script currently executing.
func LoadScript(sys syscalls.Impls) (*types.Script, error) {
	raw, err := LoadData(sys.LoadScript)
	if err != nil {
		return nil, err
	}
	script, err := types.ParseScript(raw)
	if err != nil {
		return nil, encodingError(err)
	}
	return script, nil
}

func LoadCell(sys syscalls.Impls, index uint64, src source) (*types.CellOutput, error) {
	raw, err := LoadData(func(buf []byte, offset uint64) (uint64, error) {
		return sys.LoadCell(buf, offset, index, src)
	})
	if err != nil {
		return nil, err
	}
	cell, err := types.ParseCellOutput(raw)
	if err != nil {
		return nil, encodingError(err)
	}
	return cell, nil
}

func LoadInput(sys syscalls.Impls, index uint64, src source) (types.CellInput, error) {
	raw, err := loadFixed(func(buf []byte, offset uint64) (uint64, error) {
		return sys.LoadInput(buf, offset, index, src)
	}, types.CellInputLen)
	if err != nil {
		return types.CellInput{}, err
	}
	return types.ParseCellInput(raw)
}

func LoadHeader(sys syscalls.Impls, index uint64, src source) (*types.Header, error) {
	raw, err := loadFixed(func(buf []byte, offset uint64) (uint64, error) {
		return sys.LoadHeader(buf, offset, index, src)
	}, types.HeaderLen)
	if err != nil {
		return nil, err
	}
	return types.ParseHeader(raw)
}

// LoadWitness returns the raw witness bytes.
func LoadWitness(sys syscalls.Impls, index uint64, src source) ([]byte, error) {
	return LoadData(func(buf []byte, offset uint64) (uint64, error) {
		return sys.LoadWitness(buf, offset, index, src)
	})
}

func LoadWitnessArgs(sys syscalls.Impls, index uint64, src source) (*types.WitnessArgs, error) {
	raw, err := LoadWitness(sys, index, src)
	if err != nil {
		return nil, err
	}
	w, err := types.ParseWitnessArgs(raw)
	if err != nil {
		return nil, encodingError(err)
	}
	return w, nil
}

func LoadCellData(sys syscalls.Impls, index uint64, src source) ([]byte, error) {
	return LoadData(func(buf []byte, offset uint64) (uint64, error) {
		return sys.LoadCellData(buf, offset, index, src)
	})
}

func LoadBlockExtension(sys syscalls.Impls, index uint64, src source) ([]byte, error) {
	return LoadData(func(buf []byte, offset uint64) (uint64, error) {
		return sys.LoadBlockExtension(buf, offset, index, src)
	})
}

func cellField(sys syscalls.Impls, index uint64, src source, field syscalls.CellField) LoadFunc {
	return func(buf []byte, offset uint64) (uint64, error) {
		return sys.LoadCellByField(buf, offset, index, src, field)
	}
}

func LoadCellCapacity(sys syscalls.Impls, index uint64, src source) (uint64, error) {
	return loadUint64(cellField(sys, index, src, syscalls.CellFieldCapacity))
}

func LoadCellOccupiedCapacity(sys syscalls.Impls, index uint64, src source) (uint64, error) {
	return loadUint64(cellField(sys, index, src, syscalls.CellFieldOccupiedCapacity))
}

func LoadCellDataHash(sys syscalls.Impls, index uint64, src source) (types.Hash, error) {
	return loadHash(cellField(sys, index, src, syscalls.CellFieldDataHash))
}

func LoadCellLockHash(sys syscalls.Impls, index uint64, src source) (types.Hash, error) {
	return loadHash(cellField(sys, index, src, syscalls.CellFieldLockHash))
}

// LoadCellTypeHash returns nil for a cell without a type script.
func LoadCellTypeHash(sys syscalls.Impls, index uint64, src source) (*types.Hash, error) {
	h, err := loadHash(cellField(sys, index, src, syscalls.CellFieldTypeHash))
	if errors.Is(err, syscalls.ErrItemMissing) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func LoadCellLock(sys syscalls.Impls, index uint64, src source) (*types.Script, error) {
	raw, err := LoadData(cellField(sys, index, src, syscalls.CellFieldLock))
	if err != nil {
		return nil, err
	}
	s, err := types.ParseScript(raw)
	if err != nil {
		return nil, encodingError(err)
	}
	return s, nil
}

// LoadCellType returns nil for a cell without a type script.
func LoadCellType(sys syscalls.Impls, index uint64, src source) (*types.Script, error) {
	raw, err := LoadData(cellField(sys, index, src, syscalls.CellFieldType))
	if errors.Is(err, syscalls.ErrItemMissing) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	s, err := types.ParseScript(raw)
	if err != nil {
		return nil, encodingError(err)
	}
	return s, nil
}

func headerField(sys syscalls.Impls, index uint64, src source, field syscalls.HeaderField) LoadFunc {
	return func(buf []byte, offset uint64) (uint64, error) {
		return sys.LoadHeaderByField(buf, offset, index, src, field)
	}
}

func LoadHeaderEpochNumber(sys syscalls.Impls, index uint64, src source) (uint64, error) {
	return loadUint64(headerField(sys, index, src, syscalls.HeaderFieldEpochNumber))
}

func LoadHeaderEpochStartBlockNumber(sys syscalls.Impls, index uint64, src source) (uint64, error) {
	return loadUint64(headerField(sys, index, src, syscalls.HeaderFieldEpochStartBlockNumber))
}

func LoadHeaderEpochLength(sys syscalls.Impls, index uint64, src source) (uint64, error) {
	return loadUint64(headerField(sys, index, src, syscalls.HeaderFieldEpochLength))
}

func LoadInputSince(sys syscalls.Impls, index uint64, src source) (uint64, error) {
	return loadUint64(func(buf []byte, offset uint64) (uint64, error) {
		return sys.LoadInputByField(buf, offset, index, src, syscalls.InputFieldSince)
	})
}

func LoadInputOutPoint(sys syscalls.Impls, index uint64, src source) (types.OutPoint, error) {
	raw, err := loadFixed(func(buf []byte, offset uint64) (uint64, error) {
		return sys.LoadInputByField(buf, offset, index, src, syscalls.InputFieldOutPoint)
	}, types.OutPointLen)
	if err != nil {
		return types.OutPoint{}, err
	}
	return types.ParseOutPoint(raw)
}
