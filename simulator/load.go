// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package simulator

import (
	"github.com/ava-labs/ckbstd/types"
)

// load writes [f] into the store and commits it.
func (s *Simulator) load(f *Fixture) error {
	loaded, err := s.state.IsLoaded()
	if err != nil {
		return err
	}
	if loaded {
		return errAlreadyLoaded
	}
	if err := f.validate(); err != nil {
		return err
	}

	script, err := f.Script.build()
	if err != nil {
		return err
	}
	scriptHash := script.Hash()
	typeGroup := f.ScriptKind == "type"
	inGroup := func(out *types.CellOutput) bool {
		if typeGroup {
			return out.Type != nil && out.Type.Hash() == scriptHash
		}
		return out.Lock.Hash() == scriptHash
	}

	tx := &TxRecord{
		Script:     script.Bytes(),
		ScriptHash: scriptHash,
		Inputs:     uint64(len(f.Inputs)),
		Outputs:    uint64(len(f.Outputs)),
		CellDeps:   uint64(len(f.CellDeps)),
		HeaderDeps: uint64(len(f.HeaderDeps)),
		Witnesses:  uint64(len(f.Witnesses)),
	}
	raw := &RawTransaction{}

	for i := range f.HeaderDeps {
		h := &f.HeaderDeps[i]
		header, err := h.build()
		if err != nil {
			return err
		}
		rec := &HeaderRecord{
			Header:       header.Bytes(),
			HasExtension: h.Extension != nil,
			Extension:    h.Extension,
		}
		if err := s.state.PutHeader(uint64(i), rec); err != nil {
			return err
		}
		raw.HeaderDeps = append(raw.HeaderDeps, header.Hash())
	}

	cellRecord := func(c *Cell) (*CellRecord, *types.CellOutput, error) {
		out, err := c.build()
		if err != nil {
			return nil, nil, err
		}
		rec := &CellRecord{Output: out.Bytes(), Data: c.data()}
		if c.Header != nil {
			rec.HasHeader = true
			rec.HeaderIndex = uint64(*c.Header)
		}
		return rec, out, nil
	}

	for i := range f.Inputs {
		in := &f.Inputs[i]
		rec, out, err := cellRecord(&in.Cell)
		if err != nil {
			return err
		}
		input, err := in.build()
		if err != nil {
			return err
		}
		rec.Input = input.Bytes()
		if err := s.state.PutCell(Inputs, uint64(i), rec); err != nil {
			return err
		}
		if inGroup(out) {
			tx.GroupInputs = append(tx.GroupInputs, uint64(i))
		}
		raw.Inputs = append(raw.Inputs, rec.Input)
	}

	for i := range f.Outputs {
		rec, out, err := cellRecord(&f.Outputs[i])
		if err != nil {
			return err
		}
		if err := s.state.PutCell(Outputs, uint64(i), rec); err != nil {
			return err
		}
		if typeGroup && inGroup(out) {
			tx.GroupOutputs = append(tx.GroupOutputs, uint64(i))
		}
		raw.Outputs = append(raw.Outputs, rec.Output)
		raw.OutputsData = append(raw.OutputsData, rec.Data)
	}

	for i := range f.CellDeps {
		rec, _, err := cellRecord(&f.CellDeps[i])
		if err != nil {
			return err
		}
		if err := s.state.PutCell(CellDeps, uint64(i), rec); err != nil {
			return err
		}
		raw.CellDeps = append(raw.CellDeps, rec.Output)
	}

	// The hash covers everything but the witnesses.
	unsigned, err := Codec.Marshal(CodecVersion, raw)
	if err != nil {
		return err
	}
	tx.Hash = types.ComputeHash(unsigned)

	for i, w := range f.Witnesses {
		if err := s.state.PutWitness(uint64(i), w); err != nil {
			return err
		}
		raw.Witnesses = append(raw.Witnesses, w)
	}
	if tx.Bytes, err = Codec.Marshal(CodecVersion, raw); err != nil {
		return err
	}

	if err := s.state.PutTransaction(tx); err != nil {
		return err
	}
	if err := s.state.SetLoaded(); err != nil {
		return err
	}
	if err := s.state.Commit(); err != nil {
		return err
	}
	s.tx = tx
	s.fixtureArgv = f.Argv
	s.log.Debug("loaded transaction",
		"hash", types.Hash(tx.Hash),
		"inputs", tx.Inputs,
		"outputs", tx.Outputs,
		"cellDeps", tx.CellDeps,
	)
	return nil
}
