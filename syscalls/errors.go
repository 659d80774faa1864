// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package syscalls

import (
	"errors"
	"fmt"
)

// Host return codes.
const (
	CodeSuccess         uint64 = 0
	CodeIndexOutOfBound uint64 = 1
	CodeItemMissing     uint64 = 2
	CodeEncoding        uint64 = 3
	CodeWaitFailure     uint64 = 5
	CodeInvalidFd       uint64 = 6
	CodeOtherEndClosed  uint64 = 7
	CodeMaxVmsSpawned   uint64 = 8
	CodeMaxFdsCreated   uint64 = 9

	// Unsupported is returned by the trap on targets that cannot reach a host.
	Unsupported uint64 = ^uint64(0)
)

var (
	ErrIndexOutOfBound = errors.New("index out of bound")
	ErrItemMissing     = errors.New("item missing")
	ErrEncoding        = errors.New("encoding error")
	ErrWaitFailure     = errors.New("wait failure")
	ErrInvalidFd       = errors.New("invalid fd")
	ErrOtherEndClosed  = errors.New("other end closed")
	ErrMaxVmsSpawned   = errors.New("max vms spawned")
	ErrMaxFdsCreated   = errors.New("max fds created")
)

// LengthNotEnoughError is returned by load syscalls when the supplied buffer
// is smaller than the data available. Actual is the full available length.
type LengthNotEnoughError struct {
	Actual uint64
}

func (e *LengthNotEnoughError) Error() string {
	return fmt.Sprintf("length not enough, %d bytes available", e.Actual)
}

// UnknownError carries a return code this runtime does not interpret.
type UnknownError struct {
	Code uint64
}

func (e *UnknownError) Error() string {
	return fmt.Sprintf("unknown syscall error %d", e.Code)
}

// BuildSyscallResult decodes the result of a load syscall.
//
// A zero code with [actualLen] larger than [loadLen] is a truncation, not a
// failure: the returned *LengthNotEnoughError tells the caller exactly how
// many bytes are available.
func BuildSyscallResult(code, loadLen, actualLen uint64) (uint64, error) {
	switch code {
	case CodeSuccess:
		if actualLen > loadLen {
			return 0, &LengthNotEnoughError{Actual: actualLen}
		}
		return actualLen, nil
	case CodeIndexOutOfBound:
		return 0, ErrIndexOutOfBound
	case CodeItemMissing:
		return 0, ErrItemMissing
	default:
		return 0, &UnknownError{Code: code}
	}
}

// FromCode maps any host return code to its error. Zero maps to nil.
func FromCode(code uint64) error {
	switch code {
	case CodeSuccess:
		return nil
	case CodeIndexOutOfBound:
		return ErrIndexOutOfBound
	case CodeItemMissing:
		return ErrItemMissing
	case CodeEncoding:
		return ErrEncoding
	case CodeWaitFailure:
		return ErrWaitFailure
	case CodeInvalidFd:
		return ErrInvalidFd
	case CodeOtherEndClosed:
		return ErrOtherEndClosed
	case CodeMaxVmsSpawned:
		return ErrMaxVmsSpawned
	case CodeMaxFdsCreated:
		return ErrMaxFdsCreated
	default:
		return &UnknownError{Code: code}
	}
}

// Code is the inverse of FromCode. A *LengthNotEnoughError is reported as
// success since the host signals truncation through the length slot.
func Code(err error) uint64 {
	var (
		unknown *UnknownError
		short   *LengthNotEnoughError
	)
	switch {
	case err == nil:
		return CodeSuccess
	case errors.As(err, &short):
		return CodeSuccess
	case errors.Is(err, ErrIndexOutOfBound):
		return CodeIndexOutOfBound
	case errors.Is(err, ErrItemMissing):
		return CodeItemMissing
	case errors.Is(err, ErrEncoding):
		return CodeEncoding
	case errors.Is(err, ErrWaitFailure):
		return CodeWaitFailure
	case errors.Is(err, ErrInvalidFd):
		return CodeInvalidFd
	case errors.Is(err, ErrOtherEndClosed):
		return CodeOtherEndClosed
	case errors.Is(err, ErrMaxVmsSpawned):
		return CodeMaxVmsSpawned
	case errors.Is(err, ErrMaxFdsCreated):
		return CodeMaxFdsCreated
	case errors.As(err, &unknown):
		return unknown.Code
	default:
		return Unsupported
	}
}

// IsLengthNotEnough reports whether [err] is a truncation signal and returns
// the available length.
func IsLengthNotEnough(err error) (uint64, bool) {
	var short *LengthNotEnoughError
	if errors.As(err, &short) {
		return short.Actual, true
	}
	return 0, false
}
