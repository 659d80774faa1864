// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package highlevel

import (
	"errors"
	"fmt"

	"github.com/ava-labs/ckbstd/syscalls"
)

// DefaultVMVersions are the VM versions this runtime is built against.
var DefaultVMVersions = []uint64{1, 2}

var ErrUnsupportedVMVersion = errors.New("unsupported vm version")

// CheckVMVersion fails unless the host reports one of [accepted], or one of
// DefaultVMVersions when [accepted] is empty.
func CheckVMVersion(sys syscalls.Impls, accepted ...uint64) (uint64, error) {
	if len(accepted) == 0 {
		accepted = DefaultVMVersions
	}
	v := sys.VMVersion()
	for _, ok := range accepted {
		if v == ok {
			return v, nil
		}
	}
	return v, fmt.Errorf("%w: %d", ErrUnsupportedVMVersion, v)
}
