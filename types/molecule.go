// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package types

import (
	"encoding/binary"
	"errors"

	"github.com/ava-labs/avalanchego/utils/wrappers"
)

var (
	ErrInvalidTable  = errors.New("invalid table layout")
	ErrInvalidFixvec = errors.New("invalid fixvec layout")
	ErrInvalidStruct = errors.New("invalid struct size")
	ErrInvalidOption = errors.New("invalid option value")
)

// packTable lays out [fields] as a table: a u32 total size, one u32 offset
// per field, then the field bytes back to back. All integers are little
// endian.
func packTable(fields ...[]byte) []byte {
	header := wrappers.IntLen * (len(fields) + 1)
	size := header
	for _, f := range fields {
		size += len(f)
	}

	raw := make([]byte, size)
	binary.LittleEndian.PutUint32(raw, uint32(size))
	offset := header
	for i, f := range fields {
		binary.LittleEndian.PutUint32(raw[wrappers.IntLen*(i+1):], uint32(offset))
		copy(raw[offset:], f)
		offset += len(f)
	}
	return raw
}

// unpackTable splits a table into exactly [count] fields. Trailing fields
// beyond [count] are rejected.
func unpackTable(raw []byte, count int) ([][]byte, error) {
	if len(raw) < wrappers.IntLen {
		return nil, ErrInvalidTable
	}
	size := int(binary.LittleEndian.Uint32(raw))
	if size != len(raw) {
		return nil, ErrInvalidTable
	}
	if size == wrappers.IntLen {
		if count != 0 {
			return nil, ErrInvalidTable
		}
		return nil, nil
	}
	if size < wrappers.IntLen*2 {
		return nil, ErrInvalidTable
	}
	first := int(binary.LittleEndian.Uint32(raw[wrappers.IntLen:]))
	if first%wrappers.IntLen != 0 || first < wrappers.IntLen*2 || first > size {
		return nil, ErrInvalidTable
	}
	if first/wrappers.IntLen-1 != count {
		return nil, ErrInvalidTable
	}

	offsets := make([]int, count+1)
	for i := 0; i < count; i++ {
		offsets[i] = int(binary.LittleEndian.Uint32(raw[wrappers.IntLen*(i+1):]))
	}
	offsets[count] = size

	fields := make([][]byte, count)
	for i := 0; i < count; i++ {
		start, end := offsets[i], offsets[i+1]
		if start > end || end > size {
			return nil, ErrInvalidTable
		}
		fields[i] = raw[start:end]
	}
	return fields, nil
}

// packBytes encodes [b] as a byte fixvec: a u32 item count then the items.
func packBytes(b []byte) []byte {
	raw := make([]byte, wrappers.IntLen+len(b))
	binary.LittleEndian.PutUint32(raw, uint32(len(b)))
	copy(raw[wrappers.IntLen:], b)
	return raw
}

func unpackBytes(raw []byte) ([]byte, error) {
	if len(raw) < wrappers.IntLen {
		return nil, ErrInvalidFixvec
	}
	n := int(binary.LittleEndian.Uint32(raw))
	if len(raw) != wrappers.IntLen+n {
		return nil, ErrInvalidFixvec
	}
	out := make([]byte, n)
	copy(out, raw[wrappers.IntLen:])
	return out, nil
}

// PackUint64 returns the little endian encoding of [v].
func PackUint64(v uint64) []byte {
	raw := make([]byte, wrappers.LongLen)
	binary.LittleEndian.PutUint64(raw, v)
	return raw
}

// UnpackUint64 decodes an exactly 8 byte little endian value.
func UnpackUint64(raw []byte) (uint64, error) {
	if len(raw) != wrappers.LongLen {
		return 0, ErrInvalidStruct
	}
	return binary.LittleEndian.Uint64(raw), nil
}
