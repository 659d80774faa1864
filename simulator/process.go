// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package simulator

import (
	"runtime"
	"sort"
	"strings"
	"unsafe"

	log "github.com/inconshreveable/log15"

	"github.com/ava-labs/ckbstd/since"
	"github.com/ava-labs/ckbstd/syscalls"
	"github.com/ava-labs/ckbstd/types"
)

const codePageSize = 4096

var _ syscalls.Impls = (*process)(nil)

type execImage struct {
	image Image
	argv  []string
}

// process is one VM instance. Its methods are the syscalls it makes and run
// on its own goroutine while it holds the baton.
type process struct {
	sched *scheduler
	sim   *Simulator
	log   log.Logger

	id        uint64
	image     Image
	argv      []string
	inherited []uint64
	fds       map[uint64]struct{}

	state    procState
	resume   chan struct{}
	exitCode int8
	cycles   uint64
	killed   bool
	// exited is set once the current image has asked to stop, by exit or a
	// successful exec. Deferred guest code then makes no syscalls.
	exited   bool
	reaped   bool
	next     *execImage

	// Set by the peer that completes a parked operation.
	buf      []byte
	waitPID  uint64
	n        int
	waitCode int8
	err      error
}

func (p *process) enter(n uint64) {
	if p.killed || p.sched.finished() {
		p.killed = true
		runtime.Goexit()
	}
	if p.exited {
		runtime.Goexit()
	}
	p.sim.metrics.syscall(n)
	p.charge(SyscallCycles)
}

func (p *process) charge(c uint64) {
	p.cycles += c
	p.sched.cycles += c
	if p.sched.overBudget() {
		p.log.Warn("cycle limit reached", "cycles", p.sched.cycles)
		p.abort(ErrCyclesExceeded)
	}
}

func (p *process) chargeBytes(n int) {
	p.charge(uint64((n + BytesPerCycle - 1) / BytesPerCycle))
}

func (p *process) takeResult() (int, error) {
	n, err := p.n, p.err
	p.n, p.err, p.buf = 0, nil, nil
	return n, err
}

func (p *process) ownedFDs() []uint64 {
	fds := make([]uint64, 0, len(p.fds))
	for fd := range p.fds {
		fds = append(fds, fd)
	}
	sort.Slice(fds, func(i, j int) bool { return fds[i] < fds[j] })
	return fds
}

// serve copies [item] from [offset] the way the host fills guest buffers.
// An offset past the end loads nothing.
func (p *process) serve(buf []byte, offset uint64, item []byte) (uint64, error) {
	if offset > uint64(len(item)) {
		offset = uint64(len(item))
	}
	avail := item[offset:]
	n := copy(buf, avail)
	p.chargeBytes(n)
	return syscalls.BuildSyscallResult(syscalls.CodeSuccess, uint64(len(buf)), uint64(len(avail)))
}

func (p *process) Debug(msg string) {
	p.enter(syscalls.SysDebug)
	p.sched.debug = append(p.sched.debug, DebugMessage{PID: p.id, Message: msg})
	p.log.Debug(msg)
}

func (p *process) Exit(code int8) {
	p.enter(syscalls.SysExit)
	p.exitCode = code
	p.exited = true
	runtime.Goexit()
}

func (p *process) LoadTransaction(buf []byte, offset uint64) (uint64, error) {
	p.enter(syscalls.SysLoadTransaction)
	return p.serve(buf, offset, p.sim.tx.Bytes)
}

func (p *process) LoadScript(buf []byte, offset uint64) (uint64, error) {
	p.enter(syscalls.SysLoadScript)
	return p.serve(buf, offset, p.sim.tx.Script)
}

func (p *process) LoadTxHash(buf []byte, offset uint64) (uint64, error) {
	p.enter(syscalls.SysLoadTxHash)
	return p.serve(buf, offset, p.sim.tx.Hash[:])
}

func (p *process) LoadScriptHash(buf []byte, offset uint64) (uint64, error) {
	p.enter(syscalls.SysLoadScriptHash)
	return p.serve(buf, offset, p.sim.tx.ScriptHash[:])
}

func (p *process) LoadCell(buf []byte, offset, index uint64, source syscalls.Source) (uint64, error) {
	p.enter(syscalls.SysLoadCell)
	rec, err := p.sim.cell(source, index)
	if err != nil {
		return 0, err
	}
	return p.serve(buf, offset, rec.Output)
}

func (p *process) LoadHeader(buf []byte, offset, index uint64, source syscalls.Source) (uint64, error) {
	p.enter(syscalls.SysLoadHeader)
	rec, err := p.sim.header(source, index)
	if err != nil {
		return 0, err
	}
	return p.serve(buf, offset, rec.Header)
}

func (p *process) LoadInput(buf []byte, offset, index uint64, source syscalls.Source) (uint64, error) {
	p.enter(syscalls.SysLoadInput)
	rec, err := p.sim.input(source, index)
	if err != nil {
		return 0, err
	}
	return p.serve(buf, offset, rec.Input)
}

func (p *process) LoadWitness(buf []byte, offset, index uint64, source syscalls.Source) (uint64, error) {
	p.enter(syscalls.SysLoadWitness)
	w, err := p.sim.witness(source, index)
	if err != nil {
		return 0, err
	}
	return p.serve(buf, offset, w)
}

func (p *process) LoadCellByField(buf []byte, offset, index uint64, source syscalls.Source, field syscalls.CellField) (uint64, error) {
	p.enter(syscalls.SysLoadCellByField)
	rec, err := p.sim.cell(source, index)
	if err != nil {
		return 0, err
	}
	out, err := types.ParseCellOutput(rec.Output)
	if err != nil {
		return 0, syscalls.ErrEncoding
	}
	var item []byte
	switch field {
	case syscalls.CellFieldCapacity:
		item = types.PackUint64(out.Capacity)
	case syscalls.CellFieldDataHash:
		h := types.ComputeHash(rec.Data)
		item = h[:]
	case syscalls.CellFieldLock:
		item = out.Lock.Bytes()
	case syscalls.CellFieldLockHash:
		h := out.Lock.Hash()
		item = h[:]
	case syscalls.CellFieldType:
		if out.Type == nil {
			return 0, syscalls.ErrItemMissing
		}
		item = out.Type.Bytes()
	case syscalls.CellFieldTypeHash:
		if out.Type == nil {
			return 0, syscalls.ErrItemMissing
		}
		h := out.Type.Hash()
		item = h[:]
	case syscalls.CellFieldOccupiedCapacity:
		item = types.PackUint64(out.OccupiedCapacity(len(rec.Data)))
	default:
		return 0, syscalls.ErrItemMissing
	}
	return p.serve(buf, offset, item)
}

func (p *process) LoadHeaderByField(buf []byte, offset, index uint64, source syscalls.Source, field syscalls.HeaderField) (uint64, error) {
	p.enter(syscalls.SysLoadHeaderByField)
	rec, err := p.sim.header(source, index)
	if err != nil {
		return 0, err
	}
	header, err := types.ParseHeader(rec.Header)
	if err != nil {
		return 0, syscalls.ErrEncoding
	}
	epoch := since.EpochFromFullValue(header.Epoch)
	var value uint64
	switch field {
	case syscalls.HeaderFieldEpochNumber:
		value = epoch.Number()
	case syscalls.HeaderFieldEpochStartBlockNumber:
		value = header.Number - epoch.Index()
	case syscalls.HeaderFieldEpochLength:
		value = epoch.Length()
	default:
		return 0, syscalls.ErrItemMissing
	}
	return p.serve(buf, offset, types.PackUint64(value))
}

func (p *process) LoadInputByField(buf []byte, offset, index uint64, source syscalls.Source, field syscalls.InputField) (uint64, error) {
	p.enter(syscalls.SysLoadInputByField)
	rec, err := p.sim.input(source, index)
	if err != nil {
		return 0, err
	}
	input, err := types.ParseCellInput(rec.Input)
	if err != nil {
		return 0, syscalls.ErrEncoding
	}
	switch field {
	case syscalls.InputFieldOutPoint:
		return p.serve(buf, offset, input.PreviousOutput.Bytes())
	case syscalls.InputFieldSince:
		return p.serve(buf, offset, types.PackUint64(input.Since))
	default:
		return 0, syscalls.ErrItemMissing
	}
}

func (p *process) LoadCellData(buf []byte, offset, index uint64, source syscalls.Source) (uint64, error) {
	p.enter(syscalls.SysLoadCellData)
	rec, err := p.sim.cell(source, index)
	if err != nil {
		return 0, err
	}
	return p.serve(buf, offset, rec.Data)
}

func (p *process) LoadBlockExtension(buf []byte, offset, index uint64, source syscalls.Source) (uint64, error) {
	p.enter(syscalls.SysLoadBlockExtension)
	rec, err := p.sim.header(source, index)
	if err != nil {
		return 0, err
	}
	if !rec.HasExtension {
		return 0, syscalls.ErrItemMissing
	}
	return p.serve(buf, offset, rec.Extension)
}

func (p *process) LoadCellCode(dst []byte, contentOffset, contentSize, index uint64, source syscalls.Source) error {
	p.enter(syscalls.SysLoadCellDataAsCode)
	rec, err := p.sim.cell(source, index)
	if err != nil {
		return err
	}
	if len(dst) == 0 || len(dst)%codePageSize != 0 || uintptr(unsafe.Pointer(&dst[0]))%codePageSize != 0 {
		return syscalls.ErrEncoding
	}
	end := contentOffset + contentSize
	if contentSize > uint64(len(dst)) || end < contentOffset || end > uint64(len(rec.Data)) {
		return syscalls.ErrEncoding
	}
	n := copy(dst, rec.Data[contentOffset:end])
	for i := n; i < len(dst); i++ {
		dst[i] = 0
	}
	p.chargeBytes(len(dst))
	return nil
}

func (p *process) VMVersion() uint64 {
	p.enter(syscalls.SysVMVersion)
	return p.sim.config.VMVersion
}

func (p *process) CurrentCycles() uint64 {
	p.enter(syscalls.SysCurrentCycles)
	return p.sched.cycles
}

// resolve finds the program that exec or spawn would load. Bounds past the
// end of the content are an encoding error.
func (p *process) resolve(index uint64, source syscalls.Source, place syscalls.Place, bounds syscalls.Bounds) (Image, error) {
	var data []byte
	switch place {
	case syscalls.PlaceCellData:
		rec, err := p.sim.cell(source, index)
		if err != nil {
			return Image{}, err
		}
		data = rec.Data
	case syscalls.PlaceWitness:
		w, err := p.sim.witness(source, index)
		if err != nil {
			return Image{}, err
		}
		data = w
	default:
		return Image{}, syscalls.ErrEncoding
	}

	offset, length := bounds.Offset(), bounds.Length()
	if offset > uint64(len(data)) {
		return Image{}, syscalls.ErrEncoding
	}
	if length == 0 {
		length = uint64(len(data)) - offset
	}
	if offset+length > uint64(len(data)) {
		return Image{}, syscalls.ErrEncoding
	}
	return p.sim.lookup(data[offset : offset+length])
}

func checkArgv(argv []string) ([]string, error) {
	for _, arg := range argv {
		if strings.IndexByte(arg, 0) >= 0 {
			return nil, syscalls.ErrEncoding
		}
	}
	return append([]string(nil), argv...), nil
}

func (p *process) Exec(index uint64, source syscalls.Source, place syscalls.Place, bounds syscalls.Bounds, argv []string) error {
	p.enter(syscalls.SysExec)
	args, err := checkArgv(argv)
	if err != nil {
		return err
	}
	img, err := p.resolve(index, source, place, bounds)
	if err != nil {
		return err
	}
	p.log.Debug("exec", "next", img.Name, "argc", len(args))
	p.next = &execImage{image: img, argv: args}
	p.exited = true
	runtime.Goexit()
	return nil
}

func (p *process) Spawn(index uint64, source syscalls.Source, place syscalls.Place, bounds syscalls.Bounds, argv []string, inheritedFDs []uint64) (uint64, error) {
	p.enter(syscalls.SysSpawn)
	s := p.sched
	if len(s.live) >= s.sim.config.MaxVMs {
		return 0, syscalls.ErrMaxVmsSpawned
	}
	seen := make(map[uint64]struct{}, len(inheritedFDs))
	for _, fd := range inheritedFDs {
		if _, ok := p.fds[fd]; !ok {
			return 0, syscalls.ErrInvalidFd
		}
		if _, dup := seen[fd]; dup {
			return 0, syscalls.ErrInvalidFd
		}
		seen[fd] = struct{}{}
	}
	args, err := checkArgv(argv)
	if err != nil {
		return 0, err
	}
	img, err := p.resolve(index, source, place, bounds)
	if err != nil {
		return 0, err
	}
	p.charge(SpawnCycles)

	fds := append([]uint64(nil), inheritedFDs...)
	for _, fd := range fds {
		delete(p.fds, fd)
	}
	child := s.newProcess(img, args, fds)
	p.log.Debug("spawned process", "child", child.id, "program", img.Name, "fds", len(fds))
	return child.id, nil
}

func (p *process) Pipe() (uint64, uint64, error) {
	p.enter(syscalls.SysPipe)
	s := p.sched
	if len(s.pipes)+2 > s.sim.config.MaxFDs {
		return 0, 0, syscalls.ErrMaxFdsCreated
	}
	r, w := s.nextFD, s.nextFD+1
	s.nextFD += 2
	pp := &pipe{readOpen: true, writeOpen: true}
	s.pipes[r] = pp
	s.pipes[w] = pp
	p.fds[r] = struct{}{}
	p.fds[w] = struct{}{}
	s.sim.metrics.pipes.Inc()
	return r, w, nil
}

func (p *process) InheritedFDs(fds []uint64) (int, error) {
	p.enter(syscalls.SysInheritedFDs)
	copy(fds, p.inherited)
	return len(p.inherited), nil
}

// pipeEnd returns the pipe behind an owned descriptor of the wanted
// direction.
func (p *process) pipeEnd(fd uint64, read bool) (*pipe, error) {
	if _, ok := p.fds[fd]; !ok || isReadFD(fd) != read {
		return nil, syscalls.ErrInvalidFd
	}
	pp, ok := p.sched.pipes[fd]
	if !ok {
		return nil, syscalls.ErrInvalidFd
	}
	return pp, nil
}

func (p *process) Read(fd uint64, buf []byte) (int, error) {
	p.enter(syscalls.SysRead)
	pp, err := p.pipeEnd(fd, true)
	if err != nil {
		return 0, err
	}
	if len(buf) == 0 {
		return 0, nil
	}
	if w := pp.writer; w != nil {
		n := copy(buf, w.buf)
		pp.writer = nil
		w.n = n
		w.state = Runnable
		p.chargeBytes(n)
		return n, nil
	}
	if !pp.writeOpen {
		return 0, syscalls.ErrOtherEndClosed
	}
	pp.reader = p
	p.buf = buf
	p.block(WaitForRead)
	return p.takeResult()
}

func (p *process) Write(fd uint64, buf []byte) (int, error) {
	p.enter(syscalls.SysWrite)
	pp, err := p.pipeEnd(fd, false)
	if err != nil {
		return 0, err
	}
	if !pp.readOpen {
		return 0, syscalls.ErrOtherEndClosed
	}
	if len(buf) == 0 {
		return 0, nil
	}
	if r := pp.reader; r != nil {
		n := copy(r.buf, buf)
		pp.reader = nil
		r.n = n
		r.state = Runnable
		p.chargeBytes(n)
		return n, nil
	}
	pp.writer = p
	p.buf = buf
	p.block(WaitForWrite)
	return p.takeResult()
}

func (p *process) Close(fd uint64) error {
	p.enter(syscalls.SysClose)
	if _, ok := p.fds[fd]; !ok {
		return syscalls.ErrInvalidFd
	}
	p.sched.closeFD(p, fd)
	return nil
}

func (p *process) Wait(pid uint64) (int8, error) {
	p.enter(syscalls.SysWait)
	s := p.sched
	target := s.find(pid)
	if pid == p.id || target == nil {
		return 0, syscalls.ErrWaitFailure
	}
	if target.state == Terminated {
		s.reap(target)
		return target.exitCode, nil
	}
	p.waitPID = pid
	p.block(WaitForExit)
	code, err := p.waitCode, p.err
	p.waitCode, p.err = 0, nil
	if err != nil {
		return 0, err
	}
	return code, nil
}

func (p *process) ProcessID() uint64 {
	p.enter(syscalls.SysProcessID)
	return p.id
}
