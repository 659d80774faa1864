// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package entry

import (
	"strings"

	log "github.com/inconshreveable/log15"

	"github.com/ava-labs/ckbstd/syscalls"
)

// DebugHandler formats records as logfmt and prints each one with the debug
// syscall.
func DebugHandler(impls syscalls.Impls) log.Handler {
	format := log.LogfmtFormat()
	return log.FuncHandler(func(r *log.Record) error {
		impls.Debug(strings.TrimRight(string(format.Format(r)), "\n"))
		return nil
	})
}
