// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package alloc provides allocators over fixed memory arenas and the
// process wide slot the runtime draws its buffers from.
package alloc

import (
	"sync/atomic"
	"unsafe"
)

// OutOfMemory is the panic value raised when the installed allocator is
// exhausted.
const OutOfMemory = "allocate memory error"

// Allocator hands out byte slices carved from a fixed arena.
//
// Alloc returns nil when no space is left. Free must be passed a slice
// previously returned by Alloc on the same allocator, unmodified in length.
type Allocator interface {
	Alloc(size int) []byte
	Free(b []byte)
	// Contains reports whether [b] lies inside the allocator's arena.
	Contains(b []byte) bool
}

// offsetIn returns the position of [b] inside [arena].
func offsetIn(arena, b []byte) (int, bool) {
	if len(arena) == 0 || cap(b) == 0 {
		return 0, false
	}
	base := uintptr(unsafe.Pointer(&arena[0]))
	p := uintptr(unsafe.Pointer(&b[:1][0]))
	if p < base || p >= base+uintptr(len(arena)) {
		return 0, false
	}
	return int(p - base), true
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

type holder struct{ a Allocator }

var installed atomic.Value

// Install makes [a] the process wide allocator. Passing nil restores the Go
// heap.
func Install(a Allocator) {
	installed.Store(holder{a: a})
}

// Installed returns the process wide allocator, or nil when buffers come
// from the Go heap.
func Installed() Allocator {
	h, _ := installed.Load().(holder)
	return h.a
}

// Make returns a zeroed buffer of [size] bytes from the installed allocator.
// It panics with OutOfMemory when the allocator is exhausted.
func Make(size int) []byte {
	a := Installed()
	if a == nil {
		return make([]byte, size)
	}
	b := a.Alloc(size)
	if b == nil {
		panic(OutOfMemory)
	}
	return b
}

// Release returns [b] to the installed allocator if it came from there.
func Release(b []byte) {
	if a := Installed(); a != nil && a.Contains(b) {
		a.Free(b)
	}
}
