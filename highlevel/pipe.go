// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package highlevel

import (
	"errors"

	"github.com/ava-labs/ckbstd/syscalls"
)

const readChunk = 256

// maxInheritedFDs bounds the descriptor table a child may be handed.
const maxInheritedFDs = 64

// InheritedFDs returns every descriptor the parent passed at spawn.
func InheritedFDs(sys syscalls.Impls) ([]uint64, error) {
	fds := make([]uint64, maxInheritedFDs)
	n, err := sys.InheritedFDs(fds)
	if err != nil {
		return nil, err
	}
	if n > len(fds) {
		fds = make([]uint64, n)
		if n, err = sys.InheritedFDs(fds); err != nil {
			return nil, err
		}
	}
	return fds[:n], nil
}

// ReadAll reads from [fd] until the writer closes its end.
func ReadAll(sys syscalls.Impls, fd uint64) ([]byte, error) {
	var (
		out []byte
		buf [readChunk]byte
	)
	for {
		n, err := sys.Read(fd, buf[:])
		if errors.Is(err, syscalls.ErrOtherEndClosed) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, buf[:n]...)
	}
}

// ReadFull reads exactly len(buf) bytes.
func ReadFull(sys syscalls.Impls, fd uint64, buf []byte) error {
	for len(buf) > 0 {
		n, err := sys.Read(fd, buf)
		if err != nil {
			return err
		}
		buf = buf[n:]
	}
	return nil
}

// WriteAll writes every byte of [data], looping over partial writes.
func WriteAll(sys syscalls.Impls, fd uint64, data []byte) error {
	for len(data) > 0 {
		n, err := sys.Write(fd, data)
		if err != nil {
			return err
		}
		data = data[n:]
	}
	return nil
}
