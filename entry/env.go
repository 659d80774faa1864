// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package entry is the process entry convention for guest programs: it
// binds a syscall backend, argv and a logger into an Env and turns panics
// into a sentinel exit code.
package entry

import (
	"fmt"

	log "github.com/inconshreveable/log15"

	"github.com/ava-labs/ckbstd/alloc"
	"github.com/ava-labs/ckbstd/syscalls"
)

// DefaultPanicExitCode is the exit code of a process that panics.
const DefaultPanicExitCode int8 = -1

// Program is a guest entry point. Its result is the process exit code.
type Program func(env *Env) int8

type Config struct {
	// LogLevel filters records sent to the debug channel.
	LogLevel log.Lvl
	// Allocator, when set, is installed as the process wide allocator.
	Allocator alloc.Allocator
}

func DefaultConfig() Config {
	return Config{LogLevel: log.LvlInfo}
}

// Env is everything a running program owns. It is created once at entry and
// passed down explicitly.
type Env struct {
	syscalls.Impls

	argv      []string
	log       log.Logger
	panicCode int8
}

func NewEnv(impls syscalls.Impls, argv []string, config Config) *Env {
	logger := log.New()
	logger.SetHandler(log.LvlFilterHandler(config.LogLevel, DebugHandler(impls)))
	if config.Allocator != nil {
		alloc.Install(config.Allocator)
	}
	return &Env{
		Impls:     impls,
		argv:      argv,
		log:       logger,
		panicCode: DefaultPanicExitCode,
	}
}

// Argv returns the arguments passed by exec or spawn.
func (e *Env) Argv() []string { return e.argv }

// Log returns a logger writing to the debug channel.
func (e *Env) Log() log.Logger { return e.log }

// Debugf prints a formatted message on the debug channel.
func (e *Env) Debugf(format string, args ...interface{}) {
	e.Debug(fmt.Sprintf(format, args...))
}

// SetPanicExitCode changes the exit code used if the program panics.
func (e *Env) SetPanicExitCode(code int8) { e.panicCode = code }

func (e *Env) PanicExitCode() int8 { return e.panicCode }

// Assert panics with [msg] unless [cond] holds. The process then exits with
// [code] instead of DefaultPanicExitCode.
func (e *Env) Assert(code int8, cond bool, msg string) {
	e.panicCode = code
	if !cond {
		panic(msg)
	}
	e.panicCode = DefaultPanicExitCode
}

// Expect is Assert on an error.
func (e *Env) Expect(code int8, err error, msg string) {
	e.panicCode = code
	if err != nil {
		panic(fmt.Sprintf("%s: %v", msg, err))
	}
	e.panicCode = DefaultPanicExitCode
}

// Must returns [v] or panics with [code] as the exit code.
func Must[T any](e *Env, code int8, v T, err error) T {
	e.Expect(code, err, "unexpected error")
	return v
}

// Run calls [program] and returns its exit code. A panic is printed on the
// debug channel and yields the current panic exit code.
func Run(env *Env, program Program) (code int8) {
	defer func() {
		if r := recover(); r != nil {
			env.Debug(fmt.Sprintf("panic: %v", r))
			code = env.panicCode
		}
	}()
	return program(env)
}
