// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package entry

import (
	"os"

	"github.com/ava-labs/ckbstd/syscalls"
)

// Main is the entry point of a program built for the host VM. It installs
// the native backend, runs [program] and exits with its result.
func Main(program Program, config Config) {
	impls := syscalls.NewDefaultImpls(syscalls.Native{})
	syscalls.Init(impls)

	env := NewEnv(impls, os.Args, config)
	impls.Exit(Run(env, program))
}
