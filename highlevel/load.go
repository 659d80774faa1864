// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package highlevel builds typed accessors for transaction data on top of
// the raw syscalls.
package highlevel

import (
	"errors"
	"fmt"

	"github.com/ava-labs/ckbstd/alloc"
	"github.com/ava-labs/ckbstd/syscalls"
)

// BufSize is the size of the first attempt of every variable length load.
const BufSize = 1024

var errShortLoad = errors.New("second load did not complete the item")

// LoadFunc is one load syscall bound to its item.
type LoadFunc func(buf []byte, offset uint64) (uint64, error)

// LoadData loads an item of unknown length. Items up to BufSize bytes take
// a single call. Larger items take exactly two: the first reports the full
// size, the second fetches the remainder into an exactly sized buffer.
func LoadData(load LoadFunc) ([]byte, error) {
	var buf [BufSize]byte
	n, err := load(buf[:], 0)
	if err == nil {
		out := alloc.Make(int(n))
		copy(out, buf[:n])
		return out, nil
	}
	total, ok := syscalls.IsLengthNotEnough(err)
	if !ok {
		return nil, err
	}

	data := alloc.Make(int(total))
	copy(data, buf[:])
	n, err = load(data[BufSize:], BufSize)
	if err != nil {
		alloc.Release(data)
		return nil, err
	}
	if n+BufSize != total {
		alloc.Release(data)
		return nil, fmt.Errorf("%w: got %d of %d bytes", errShortLoad, n+BufSize, total)
	}
	return data, nil
}

// loadFixed loads an item whose size is known up front.
func loadFixed(load LoadFunc, size int) ([]byte, error) {
	buf := make([]byte, size)
	n, err := load(buf, 0)
	if err != nil {
		return nil, err
	}
	if n != uint64(size) {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", syscalls.ErrEncoding, size, n)
	}
	return buf, nil
}

func encodingError(err error) error {
	return fmt.Errorf("%w: %s", syscalls.ErrEncoding, err)
}
