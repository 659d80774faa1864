// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package simulator

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	log "github.com/inconshreveable/log15"

	"github.com/ava-labs/ckbstd/entry"
	"github.com/ava-labs/ckbstd/syscalls"
)

// RootPID is the process ID of the script's own process.
const RootPID uint64 = 0

// The first pipe gets descriptors 2 and 3.
const firstFD uint64 = 2

type procState int

const (
	Runnable procState = iota
	Running
	WaitForRead
	WaitForWrite
	WaitForExit
	Terminated
)

func (s procState) String() string {
	switch s {
	case Runnable:
		return "runnable"
	case Running:
		return "running"
	case WaitForRead:
		return "wait_for_read"
	case WaitForWrite:
		return "wait_for_write"
	case WaitForExit:
		return "wait_for_exit"
	case Terminated:
		return "terminated"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// pipe is an unbuffered byte stream. A write completes when a reader takes
// bytes from it, so at most one side is ever parked on a pipe.
type pipe struct {
	readOpen  bool
	writeOpen bool
	reader    *process
	writer    *process
}

func isReadFD(fd uint64) bool { return fd%2 == 0 }

// scheduler runs the processes of one simulation. Exactly one goroutine, a
// process or the scheduler loop, touches its state at a time: the baton
// passes through the resume and yield channels.
type scheduler struct {
	sim *Simulator
	log log.Logger

	// live holds the processes not yet reaped, in process ID order.
	live []*process
	all  []*process
	root *process

	pipes   map[uint64]*pipe
	nextPID uint64
	nextFD  uint64
	cycles  uint64
	debug   []DebugMessage
	err     error

	yield chan struct{}
	done  chan struct{}
	wg    sync.WaitGroup
}

func newScheduler(sim *Simulator) *scheduler {
	s := &scheduler{
		sim:     sim,
		log:     sim.log,
		pipes:   make(map[uint64]*pipe),
		nextPID: RootPID,
		nextFD:  firstFD,
		yield:   make(chan struct{}),
		done:    make(chan struct{}),
	}
	s.root = s.newProcess(sim.root, rootArgv(sim), nil)
	return s
}

func rootArgv(sim *Simulator) []string {
	return append([]string(nil), sim.fixtureArgv...)
}

func (s *scheduler) newProcess(img Image, argv []string, inherited []uint64) *process {
	p := &process{
		sched:     s,
		sim:       s.sim,
		id:        s.nextPID,
		image:     img,
		argv:      argv,
		inherited: inherited,
		fds:       make(map[uint64]struct{}),
		state:     Runnable,
		resume:    make(chan struct{}),
	}
	p.log = s.log.New("pid", p.id, "program", img.Name)
	for _, fd := range inherited {
		p.fds[fd] = struct{}{}
	}
	s.nextPID++
	s.live = append(s.live, p)
	s.all = append(s.all, p)
	s.sim.metrics.spawned.Inc()
	p.launch(true)
	return p
}

// next returns the runnable process with the lowest ID.
func (s *scheduler) next() *process {
	for _, p := range s.live {
		if p.state == Runnable {
			return p
		}
	}
	return nil
}

func (s *scheduler) find(pid uint64) *process {
	for _, p := range s.live {
		if p.id == pid {
			return p
		}
	}
	return nil
}

func (s *scheduler) reap(target *process) {
	for i, p := range s.live {
		if p == target {
			s.live = append(s.live[:i], s.live[i+1:]...)
			target.reaped = true
			return
		}
	}
}

func (s *scheduler) overBudget() bool {
	max := s.sim.config.MaxCycles
	return max > 0 && s.cycles > max
}

func (s *scheduler) run(ctx context.Context) error {
	defer s.teardown()

	var last *process
	for {
		switch {
		case s.err != nil:
			return s.err
		case s.root.state == Terminated:
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		p := s.next()
		if p == nil {
			s.log.Warn("deadlock", "live", len(s.live))
			return ErrDeadlock
		}
		if last != nil && last != p {
			s.cycles += ContextSwitchCycles
			s.sim.metrics.contextSwitches.Inc()
			if s.overBudget() {
				return ErrCyclesExceeded
			}
		}
		last = p

		p.state = Running
		p.resume <- struct{}{}
		<-s.yield
	}
}

// teardown stops every parked process and waits for its goroutine.
func (s *scheduler) teardown() {
	close(s.done)
	s.wg.Wait()
}

func (s *scheduler) finished() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

func (s *scheduler) result() *Result {
	res := &Result{
		ExitCode: s.root.exitCode,
		Cycles:   s.cycles,
		Debug:    s.debug,
	}
	for _, p := range s.all {
		res.Processes = append(res.Processes, ProcessReport{
			ID:         p.id,
			Program:    p.image.Name,
			Argv:       p.argv,
			State:      p.state.String(),
			ExitCode:   p.exitCode,
			Cycles:     p.cycles,
			Terminated: p.state == Terminated,
		})
	}
	return res
}

// launch starts the goroutine running the process's current image. A fresh
// process parks until scheduled, an exec'd one keeps the baton.
func (p *process) launch(park bool) {
	s := p.sched
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		completed := false
		defer func() {
			if completed || p.killed {
				return
			}
			if next := p.next; next != nil {
				p.next = nil
				p.image = next.image
				p.argv = next.argv
				p.exited = false
				p.log = s.log.New("pid", p.id, "program", p.image.Name)
				p.launch(false)
				return
			}
			p.terminate(p.exitCode)
		}()

		if park {
			p.park()
		}
		p.charge(LoadCycles)
		env := entry.NewEnv(p, p.argv, entry.Config{LogLevel: s.sim.config.GuestLogLevel})
		code := entry.Run(env, p.image.Program)
		completed = true
		p.terminate(code)
	}()
}

// park gives up the baton until the scheduler resumes this process. It
// never returns once the run is over.
func (p *process) park() {
	select {
	case <-p.resume:
	case <-p.sched.done:
		p.killed = true
		runtime.Goexit()
	}
}

// block moves the running process to [state] and parks it.
func (p *process) block(state procState) {
	p.state = state
	p.sched.yield <- struct{}{}
	p.park()
}

// abort ends the run from inside a process.
func (p *process) abort(err error) {
	p.sched.err = err
	p.killed = true
	p.sched.yield <- struct{}{}
	runtime.Goexit()
}

func (p *process) terminate(code int8) {
	s := p.sched
	p.state = Terminated
	p.exitCode = code
	for _, fd := range p.ownedFDs() {
		s.closeFD(p, fd)
	}
	var waiters []*process
	for _, w := range s.live {
		if w.state == WaitForExit && w.waitPID == p.id {
			waiters = append(waiters, w)
		}
	}
	for _, w := range waiters {
		if p.reaped {
			w.err = syscalls.ErrWaitFailure
		} else {
			w.waitCode = code
			s.reap(p)
		}
		w.state = Runnable
	}
	p.log.Debug("terminated", "exitCode", code)
	s.yield <- struct{}{}
}

// closeFD releases one end of a pipe owned by [p] and wakes a peer parked on
// the other end.
func (s *scheduler) closeFD(p *process, fd uint64) {
	delete(p.fds, fd)
	pp, ok := s.pipes[fd]
	if !ok {
		return
	}
	delete(s.pipes, fd)
	if isReadFD(fd) {
		pp.readOpen = false
		if w := pp.writer; w != nil {
			pp.writer = nil
			w.err = syscalls.ErrOtherEndClosed
			w.state = Runnable
		}
		return
	}
	pp.writeOpen = false
	if r := pp.reader; r != nil {
		pp.reader = nil
		r.err = syscalls.ErrOtherEndClosed
		r.state = Runnable
	}
}
