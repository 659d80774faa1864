// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

//go:build riscv64 && ckbvm

package syscalls

var _ Executor = Native{}

// Native traps into the host VM with ecall.
type Native struct{}

//go:noescape
func ecall(a0, a1, a2, a3, a4, a5, a6, n uint64) (ret uint64)

func (Native) Syscall(a0, a1, a2, a3, a4, a5, a6, n uint64) uint64 {
	return ecall(a0, a1, a2, a3, a4, a5, a6, n)
}

// NativeSupported reports whether this build can reach a host VM.
const NativeSupported = true
