// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package syscalls

import (
	"errors"
	"runtime"
	"strings"
	"unsafe"
)

var _ Impls = (*DefaultImpls)(nil)

var errExitReturned = errors.New("exit syscall returned")

// Executor performs one trap into the host: seven argument registers
// (a0..a6) and the syscall number (a7). The single result is a0.
//
// Pointer arguments are raw guest addresses. Implementations must not keep
// them past the call.
type Executor interface {
	Syscall(a0, a1, a2, a3, a4, a5, a6, n uint64) uint64
}

// SpawnArgs is the structure a spawn call points a4 at. Its layout is part
// of the host ABI.
type SpawnArgs struct {
	Argc uint64
	// Argv points at [Argc] pointers to nul terminated strings.
	Argv uint64
	// ProcessID points at the u64 the host stores the child ID in.
	ProcessID uint64
	// InheritedFDs points at a zero terminated array of descriptors.
	InheritedFDs uint64
}

// DefaultImpls marshals typed calls onto an Executor's registers.
type DefaultImpls struct {
	exec Executor
}

// NewDefaultImpls wraps [exec].
func NewDefaultImpls(exec Executor) *DefaultImpls {
	return &DefaultImpls{exec: exec}
}

func addr(p unsafe.Pointer) uint64 { return uint64(uintptr(p)) }

func sliceAddr(buf []byte) uint64 {
	if len(buf) == 0 {
		return 0
	}
	return addr(unsafe.Pointer(&buf[0]))
}

func u64SliceAddr(buf []uint64) uint64 {
	if len(buf) == 0 {
		return 0
	}
	return addr(unsafe.Pointer(&buf[0]))
}

// cstrings lays argv out as nul terminated strings plus a pointer array.
// Both slices must stay alive until the trap returns.
func cstrings(argv []string) ([][]byte, []uint64, error) {
	strs := make([][]byte, len(argv))
	ptrs := make([]uint64, len(argv)+1)
	for i, arg := range argv {
		if strings.IndexByte(arg, 0) >= 0 {
			return nil, nil, ErrEncoding
		}
		strs[i] = append([]byte(arg), 0)
		ptrs[i] = sliceAddr(strs[i])
	}
	return strs, ptrs, nil
}

func (d *DefaultImpls) load(buf []byte, offset, a3, a4, a5, n uint64) (uint64, error) {
	actual := new(uint64)
	*actual = uint64(len(buf))
	ret := d.exec.Syscall(sliceAddr(buf), addr(unsafe.Pointer(actual)), offset, a3, a4, a5, 0, n)
	runtime.KeepAlive(buf)
	runtime.KeepAlive(actual)
	return BuildSyscallResult(ret, uint64(len(buf)), *actual)
}

func (d *DefaultImpls) Debug(msg string) {
	c := append([]byte(msg), 0)
	d.exec.Syscall(sliceAddr(c), 0, 0, 0, 0, 0, 0, SysDebug)
	runtime.KeepAlive(c)
}

func (d *DefaultImpls) Exit(code int8) {
	d.exec.Syscall(uint64(int64(code)), 0, 0, 0, 0, 0, 0, SysExit)
	panic(errExitReturned)
}

func (d *DefaultImpls) LoadTransaction(buf []byte, offset uint64) (uint64, error) {
	return d.load(buf, offset, 0, 0, 0, SysLoadTransaction)
}

func (d *DefaultImpls) LoadScript(buf []byte, offset uint64) (uint64, error) {
	return d.load(buf, offset, 0, 0, 0, SysLoadScript)
}

func (d *DefaultImpls) LoadTxHash(buf []byte, offset uint64) (uint64, error) {
	return d.load(buf, offset, 0, 0, 0, SysLoadTxHash)
}

func (d *DefaultImpls) LoadScriptHash(buf []byte, offset uint64) (uint64, error) {
	return d.load(buf, offset, 0, 0, 0, SysLoadScriptHash)
}

func (d *DefaultImpls) LoadCell(buf []byte, offset, index uint64, source Source) (uint64, error) {
	return d.load(buf, offset, index, uint64(source), 0, SysLoadCell)
}

func (d *DefaultImpls) LoadHeader(buf []byte, offset, index uint64, source Source) (uint64, error) {
	return d.load(buf, offset, index, uint64(source), 0, SysLoadHeader)
}

func (d *DefaultImpls) LoadInput(buf []byte, offset, index uint64, source Source) (uint64, error) {
	return d.load(buf, offset, index, uint64(source), 0, SysLoadInput)
}

func (d *DefaultImpls) LoadWitness(buf []byte, offset, index uint64, source Source) (uint64, error) {
	return d.load(buf, offset, index, uint64(source), 0, SysLoadWitness)
}

func (d *DefaultImpls) LoadCellByField(buf []byte, offset, index uint64, source Source, field CellField) (uint64, error) {
	return d.load(buf, offset, index, uint64(source), uint64(field), SysLoadCellByField)
}

func (d *DefaultImpls) LoadHeaderByField(buf []byte, offset, index uint64, source Source, field HeaderField) (uint64, error) {
	return d.load(buf, offset, index, uint64(source), uint64(field), SysLoadHeaderByField)
}

func (d *DefaultImpls) LoadInputByField(buf []byte, offset, index uint64, source Source, field InputField) (uint64, error) {
	return d.load(buf, offset, index, uint64(source), uint64(field), SysLoadInputByField)
}

func (d *DefaultImpls) LoadCellData(buf []byte, offset, index uint64, source Source) (uint64, error) {
	return d.load(buf, offset, index, uint64(source), 0, SysLoadCellData)
}

func (d *DefaultImpls) LoadBlockExtension(buf []byte, offset, index uint64, source Source) (uint64, error) {
	return d.load(buf, offset, index, uint64(source), 0, SysLoadBlockExtension)
}

func (d *DefaultImpls) LoadCellCode(dst []byte, contentOffset, contentSize, index uint64, source Source) error {
	ret := d.exec.Syscall(
		sliceAddr(dst),
		uint64(len(dst)),
		contentOffset,
		contentSize,
		index,
		uint64(source),
		0,
		SysLoadCellDataAsCode,
	)
	runtime.KeepAlive(dst)
	_, err := BuildSyscallResult(ret, uint64(len(dst)), uint64(len(dst)))
	return err
}

func (d *DefaultImpls) VMVersion() uint64 {
	return d.exec.Syscall(0, 0, 0, 0, 0, 0, 0, SysVMVersion)
}

func (d *DefaultImpls) CurrentCycles() uint64 {
	return d.exec.Syscall(0, 0, 0, 0, 0, 0, 0, SysCurrentCycles)
}

func (d *DefaultImpls) Exec(index uint64, source Source, place Place, bounds Bounds, argv []string) error {
	strs, ptrs, err := cstrings(argv)
	if err != nil {
		return err
	}
	ret := d.exec.Syscall(
		index,
		uint64(source),
		uint64(place),
		uint64(bounds),
		uint64(len(argv)),
		u64SliceAddr(ptrs),
		0,
		SysExec,
	)
	runtime.KeepAlive(strs)
	runtime.KeepAlive(ptrs)
	return FromCode(ret)
}

func (d *DefaultImpls) Spawn(index uint64, source Source, place Place, bounds Bounds, argv []string, inheritedFDs []uint64) (uint64, error) {
	strs, ptrs, err := cstrings(argv)
	if err != nil {
		return 0, err
	}
	fds := make([]uint64, len(inheritedFDs)+1)
	copy(fds, inheritedFDs)
	pid := new(uint64)
	args := &SpawnArgs{
		Argc:         uint64(len(argv)),
		Argv:         u64SliceAddr(ptrs),
		ProcessID:    addr(unsafe.Pointer(pid)),
		InheritedFDs: u64SliceAddr(fds),
	}
	ret := d.exec.Syscall(
		index,
		uint64(source),
		uint64(place),
		uint64(bounds),
		addr(unsafe.Pointer(args)),
		0,
		0,
		SysSpawn,
	)
	runtime.KeepAlive(strs)
	runtime.KeepAlive(ptrs)
	runtime.KeepAlive(fds)
	runtime.KeepAlive(pid)
	runtime.KeepAlive(args)
	if err := FromCode(ret); err != nil {
		return 0, err
	}
	return *pid, nil
}

func (d *DefaultImpls) Pipe() (uint64, uint64, error) {
	fds := make([]uint64, 2)
	ret := d.exec.Syscall(u64SliceAddr(fds), 0, 0, 0, 0, 0, 0, SysPipe)
	runtime.KeepAlive(fds)
	if err := FromCode(ret); err != nil {
		return 0, 0, err
	}
	return fds[0], fds[1], nil
}

func (d *DefaultImpls) InheritedFDs(fds []uint64) (int, error) {
	length := new(uint64)
	*length = uint64(len(fds))
	ret := d.exec.Syscall(u64SliceAddr(fds), addr(unsafe.Pointer(length)), 0, 0, 0, 0, 0, SysInheritedFDs)
	runtime.KeepAlive(fds)
	runtime.KeepAlive(length)
	if err := FromCode(ret); err != nil {
		return 0, err
	}
	return int(*length), nil
}

func (d *DefaultImpls) Read(fd uint64, buf []byte) (int, error) {
	length := new(uint64)
	*length = uint64(len(buf))
	ret := d.exec.Syscall(fd, sliceAddr(buf), addr(unsafe.Pointer(length)), 0, 0, 0, 0, SysRead)
	runtime.KeepAlive(buf)
	runtime.KeepAlive(length)
	if err := FromCode(ret); err != nil {
		return 0, err
	}
	return int(*length), nil
}

func (d *DefaultImpls) Write(fd uint64, buf []byte) (int, error) {
	length := new(uint64)
	*length = uint64(len(buf))
	ret := d.exec.Syscall(fd, sliceAddr(buf), addr(unsafe.Pointer(length)), 0, 0, 0, 0, SysWrite)
	runtime.KeepAlive(buf)
	runtime.KeepAlive(length)
	if err := FromCode(ret); err != nil {
		return 0, err
	}
	return int(*length), nil
}

func (d *DefaultImpls) Close(fd uint64) error {
	return FromCode(d.exec.Syscall(fd, 0, 0, 0, 0, 0, 0, SysClose))
}

func (d *DefaultImpls) Wait(pid uint64) (int8, error) {
	code := new(uint64)
	*code = ^uint64(0)
	ret := d.exec.Syscall(pid, addr(unsafe.Pointer(code)), 0, 0, 0, 0, 0, SysWait)
	runtime.KeepAlive(code)
	if err := FromCode(ret); err != nil {
		return 0, err
	}
	return int8(*code), nil
}

func (d *DefaultImpls) ProcessID() uint64 {
	return d.exec.Syscall(0, 0, 0, 0, 0, 0, 0, SysProcessID)
}
