// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

//go:build !(riscv64 && ckbvm)

package syscalls

var _ Executor = Native{}

// Native is the trap stub for targets without a host VM. Every call returns
// Unsupported.
type Native struct{}

func (Native) Syscall(_, _, _, _, _, _, _, _ uint64) uint64 {
	return Unsupported
}

// NativeSupported reports whether this build can reach a host VM.
const NativeSupported = false
