// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package dynloading loads shared objects stored in cell deps into a page
// aligned window and resolves their symbols.
//
// The window must not move or be reused while any Library loaded into it is
// in use. Symbol types are a contract with the loaded code and are never
// checked.
package dynloading

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/ava-labs/ckbstd/syscalls"
	"github.com/ava-labs/ckbstd/types"
)

const (
	PageShift = 12
	PageSize  = 1 << PageShift
)

var (
	ErrContextFailure      = errors.New("dynamic loading context failure")
	ErrInvalidAlign        = errors.New("size is not page aligned")
	ErrInvalidHashTypeData = errors.New("hash type must be data, data1 or data2")
)

// Open failure codes.
const (
	CodeInvalidELF      = -22
	CodeMemoryNotEnough = -23
	CodeOutOfBound      = -24
	CodeInvalidArgs     = -25
	CodeELFNotAligned   = -26
)

// OpenFailedError reports a library that was found but could not be
// mapped.
type OpenFailedError struct {
	Code   int
	Reason string
}

func (e *OpenFailedError) Error() string {
	return fmt.Sprintf("open failed (%d): %s", e.Code, e.Reason)
}

func openFailed(code int, format string, args ...interface{}) error {
	return &OpenFailedError{Code: code, Reason: fmt.Sprintf(format, args...)}
}

// Context is a page aligned memory window shared by chained loads.
type Context struct {
	mem []byte
}

// NewContext allocates a zeroed window of exactly [pages] pages.
func NewContext(pages int) (*Context, error) {
	if pages <= 0 {
		return nil, ErrContextFailure
	}
	raw := make([]byte, (pages+1)*PageSize)
	ctx, err := NewContextFrom(raw)
	if err != nil {
		return nil, err
	}
	size := pages * PageSize
	ctx.mem = ctx.mem[:size:size]
	return ctx, nil
}

// NewContextFrom uses the largest page aligned, whole page part of [buf] as
// the window.
func NewContextFrom(buf []byte) (*Context, error) {
	if len(buf) == 0 {
		return nil, ErrContextFailure
	}
	addr := uintptr(unsafe.Pointer(&buf[0]))
	skip := int((PageSize - addr%PageSize) % PageSize)
	if skip > len(buf) {
		return nil, ErrContextFailure
	}
	size := (len(buf) - skip) &^ (PageSize - 1)
	if size < PageSize {
		return nil, ErrContextFailure
	}
	return &Context{mem: buf[skip : skip+size : skip+size]}, nil
}

// Size returns the length of the window in bytes.
func (c *Context) Size() int { return len(c.mem) }

// Base returns the address of the first byte of the window.
func (c *Context) Base() uintptr { return uintptr(unsafe.Pointer(&c.mem[0])) }

// LoadWithOffset loads the cell dep matching [hash] into the [size] bytes of
// the window starting at [offset]. Type matches by type hash, the data hash
// types by data hash.
func (c *Context) LoadWithOffset(
	sys syscalls.Impls,
	hash types.Hash,
	hashType syscalls.ScriptHashType,
	offset int,
	size int,
) (*Library, error) {
	if handleFootprint > PageSize || size < PageSize {
		return nil, ErrContextFailure
	}
	if size%PageSize != 0 || offset%PageSize != 0 {
		return nil, ErrInvalidAlign
	}
	if offset < 0 || offset+size > len(c.mem) {
		return nil, ErrContextFailure
	}
	return open(sys, c, hash, hashType, offset, size)
}

// LoadByDataHash loads the whole window with the cell dep whose data hashes
// to [dataHash].
func (c *Context) LoadByDataHash(sys syscalls.Impls, dataHash types.Hash, hashType syscalls.ScriptHashType) (*Library, error) {
	if !hashType.IsData() {
		return nil, ErrInvalidHashTypeData
	}
	return c.LoadWithOffset(sys, dataHash, hashType, 0, len(c.mem))
}

// LoadByTypeID loads the whole window with the cell dep whose type script
// hashes to [typeID].
func (c *Context) LoadByTypeID(sys syscalls.Impls, typeID types.Hash) (*Library, error) {
	return c.LoadWithOffset(sys, typeID, syscalls.HashTypeType, 0, len(c.mem))
}

// Chain loads several libraries back to back into one window.
type Chain struct {
	ctx    *Context
	offset int
}

func (c *Context) Chain() *Chain {
	return &Chain{ctx: c}
}

// Load places the next library right after the previous one.
func (ch *Chain) Load(sys syscalls.Impls, hash types.Hash, hashType syscalls.ScriptHashType) (*Library, error) {
	lib, err := ch.ctx.LoadWithOffset(sys, hash, hashType, ch.offset, ch.Remaining())
	if err != nil {
		return nil, err
	}
	ch.offset += lib.ConsumedSize()
	return lib, nil
}

// Offset is where the next library will be placed.
func (ch *Chain) Offset() int { return ch.offset }

// Remaining is the window space left for further loads.
func (ch *Chain) Remaining() int { return len(ch.ctx.mem) - ch.offset }
