// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package syscalls

import "sync/atomic"

// Impls is the full set of operations a host offers to guest code. Each
// backend (the native trap, the in-process simulator, a stub) provides one
// implementation, selected once at process entry.
//
// Load operations copy into [buf] starting at [offset] of the item and
// return the number of bytes loaded. If the item is longer than [buf] they
// return a *LengthNotEnoughError carrying the full length available from
// [offset]; [buf] still holds the prefix.
type Impls interface {
	// Debug prints [msg] on the host's debug channel.
	Debug(msg string)
	// Exit terminates the current process with [code]. It does not return.
	Exit(code int8)

	LoadTransaction(buf []byte, offset uint64) (uint64, error)
	LoadScript(buf []byte, offset uint64) (uint64, error)
	LoadTxHash(buf []byte, offset uint64) (uint64, error)
	LoadScriptHash(buf []byte, offset uint64) (uint64, error)
	LoadCell(buf []byte, offset, index uint64, source Source) (uint64, error)
	LoadHeader(buf []byte, offset, index uint64, source Source) (uint64, error)
	LoadInput(buf []byte, offset, index uint64, source Source) (uint64, error)
	LoadWitness(buf []byte, offset, index uint64, source Source) (uint64, error)
	LoadCellByField(buf []byte, offset, index uint64, source Source, field CellField) (uint64, error)
	LoadHeaderByField(buf []byte, offset, index uint64, source Source, field HeaderField) (uint64, error)
	LoadInputByField(buf []byte, offset, index uint64, source Source, field InputField) (uint64, error)
	LoadCellData(buf []byte, offset, index uint64, source Source) (uint64, error)
	LoadBlockExtension(buf []byte, offset, index uint64, source Source) (uint64, error)
	// LoadCellCode maps [contentSize] bytes of a cell's data, starting at
	// [contentOffset], into [dst] as executable memory. [dst] must be page
	// aligned and a whole number of pages.
	LoadCellCode(dst []byte, contentOffset, contentSize, index uint64, source Source) error

	VMVersion() uint64
	CurrentCycles() uint64

	// Exec replaces the running program. It only returns on failure.
	Exec(index uint64, source Source, place Place, bounds Bounds, argv []string) error
	// Spawn starts a child process and returns its process ID. Ownership of
	// [inheritedFDs] moves to the child.
	Spawn(index uint64, source Source, place Place, bounds Bounds, argv []string, inheritedFDs []uint64) (uint64, error)
	// Pipe returns a (read, write) descriptor pair.
	Pipe() (uint64, uint64, error)
	// InheritedFDs fills [fds] and returns the number of descriptors
	// available, which may exceed len(fds).
	InheritedFDs(fds []uint64) (int, error)
	// Read returns the number of bytes read, which may be fewer than
	// len(buf). It is not a truncation error.
	Read(fd uint64, buf []byte) (int, error)
	// Write returns the number of bytes consumed by the reader.
	Write(fd uint64, buf []byte) (int, error)
	Close(fd uint64) error
	// Wait blocks until [pid] terminates and returns its exit code.
	Wait(pid uint64) (int8, error)
	ProcessID() uint64
}

type implsHolder struct{ impls Impls }

// The slot is written once at entry. Scripts run single threaded, the atomic
// only keeps test binaries that swap backends race free.
var current atomic.Value

// Init installs [impls] as the process wide backend.
func Init(impls Impls) {
	current.Store(implsHolder{impls: impls})
}

// Get returns the process wide backend. It panics when Init was never
// called.
func Get() Impls {
	h, ok := current.Load().(implsHolder)
	if !ok || h.impls == nil {
		panic("syscalls: no backend installed")
	}
	return h.impls
}
