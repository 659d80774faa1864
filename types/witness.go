// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package types

// WitnessArgs is the conventional structure of a witness. Each field is
// optional; nil means absent.
type WitnessArgs struct {
	Lock       []byte
	InputType  []byte
	OutputType []byte
}

func packOptBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	return packBytes(b)
}

func unpackOptBytes(raw []byte) ([]byte, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	return unpackBytes(raw)
}

func (w *WitnessArgs) Bytes() []byte {
	return packTable(packOptBytes(w.Lock), packOptBytes(w.InputType), packOptBytes(w.OutputType))
}

func ParseWitnessArgs(raw []byte) (*WitnessArgs, error) {
	fields, err := unpackTable(raw, 3)
	if err != nil {
		return nil, err
	}
	var w WitnessArgs
	for i, dst := range []*[]byte{&w.Lock, &w.InputType, &w.OutputType} {
		v, err := unpackOptBytes(fields[i])
		if err != nil {
			return nil, err
		}
		*dst = v
	}
	return &w, nil
}
