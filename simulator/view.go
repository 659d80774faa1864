// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package simulator

import (
	"errors"

	"github.com/ava-labs/avalanchego/database"

	"github.com/ava-labs/ckbstd/syscalls"
)

// hostError maps store errors onto syscall errors.
func hostError(err error) error {
	if errors.Is(err, database.ErrNotFound) {
		return syscalls.ErrIndexOutOfBound
	}
	return err
}

// locate maps a source and index onto a collection and its position.
func (s *Simulator) locate(src syscalls.Source, index uint64) (Collection, uint64, error) {
	var (
		coll  Collection
		count uint64
	)
	switch src {
	case syscalls.SourceInput:
		coll, count = Inputs, s.tx.Inputs
	case syscalls.SourceOutput:
		coll, count = Outputs, s.tx.Outputs
	case syscalls.SourceCellDep:
		coll, count = CellDeps, s.tx.CellDeps
	case syscalls.SourceHeaderDep:
		coll, count = HeaderDeps, s.tx.HeaderDeps
	case syscalls.SourceGroupInput:
		if index >= uint64(len(s.tx.GroupInputs)) {
			return 0, 0, syscalls.ErrIndexOutOfBound
		}
		return Inputs, s.tx.GroupInputs[index], nil
	case syscalls.SourceGroupOutput:
		if index >= uint64(len(s.tx.GroupOutputs)) {
			return 0, 0, syscalls.ErrIndexOutOfBound
		}
		return Outputs, s.tx.GroupOutputs[index], nil
	default:
		return 0, 0, syscalls.ErrIndexOutOfBound
	}
	if index >= count {
		return 0, 0, syscalls.ErrIndexOutOfBound
	}
	return coll, index, nil
}

func (s *Simulator) cell(src syscalls.Source, index uint64) (*CellRecord, error) {
	coll, i, err := s.locate(src, index)
	if err != nil {
		return nil, err
	}
	if coll == HeaderDeps {
		return nil, syscalls.ErrIndexOutOfBound
	}
	rec, err := s.state.GetCell(coll, i)
	return rec, hostError(err)
}

func (s *Simulator) input(src syscalls.Source, index uint64) (*CellRecord, error) {
	coll, i, err := s.locate(src, index)
	if err != nil {
		return nil, err
	}
	if coll != Inputs {
		return nil, syscalls.ErrIndexOutOfBound
	}
	rec, err := s.state.GetCell(coll, i)
	return rec, hostError(err)
}

// header returns a header dep, or the header of the block holding an input
// or cell dep.
func (s *Simulator) header(src syscalls.Source, index uint64) (*HeaderRecord, error) {
	coll, i, err := s.locate(src, index)
	if err != nil {
		return nil, err
	}
	switch coll {
	case HeaderDeps:
	case Inputs, CellDeps:
		rec, err := s.state.GetCell(coll, i)
		if err != nil {
			return nil, hostError(err)
		}
		if !rec.HasHeader {
			return nil, syscalls.ErrItemMissing
		}
		i = rec.HeaderIndex
	default:
		return nil, syscalls.ErrIndexOutOfBound
	}
	rec, err := s.state.GetHeader(i)
	return rec, hostError(err)
}

// witness returns the witness at the position of an input or output. Group
// sources map through the group to the transaction position.
func (s *Simulator) witness(src syscalls.Source, index uint64) ([]byte, error) {
	coll, i, err := s.locate(src, index)
	switch {
	case errors.Is(err, syscalls.ErrIndexOutOfBound) && (src == syscalls.SourceInput || src == syscalls.SourceOutput):
		i = index
	case err != nil:
		return nil, err
	case coll != Inputs && coll != Outputs:
		return nil, syscalls.ErrIndexOutOfBound
	}
	if i >= s.tx.Witnesses {
		return nil, syscalls.ErrIndexOutOfBound
	}
	w, err := s.state.GetWitness(i)
	return w, hostError(err)
}
