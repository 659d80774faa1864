// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package simulator

import "github.com/ava-labs/avalanchego/version"

// Name is the name of the simulator binary and its metrics namespace.
const Name = metricsNamespace

var Version = version.NewDefaultVersion(0, 1, 0)
