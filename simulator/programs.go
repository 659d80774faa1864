// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package simulator

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/ava-labs/ckbstd/entry"
	"github.com/ava-labs/ckbstd/types"
)

const programCodePrefix = "ckbsim:program:"

var errDuplicateProgram = errors.New("program already registered")

// ProgramCode returns the code bytes that stand for the program registered
// under [name]. Cells holding these bytes run that program.
func ProgramCode(name string) []byte {
	return []byte(programCodePrefix + name)
}

// Image is a resolved program.
type Image struct {
	Name    string
	Program entry.Program
}

// Registry maps code bytes to Go programs. The simulator cannot execute
// RISC-V, so every cell a process execs or spawns must hold registered code.
type Registry struct {
	lock     sync.RWMutex
	programs map[types.Hash]Image
}

func NewRegistry() *Registry {
	return &Registry{programs: make(map[types.Hash]Image)}
}

// Register binds [program] to ProgramCode(name) and returns that code.
func (r *Registry) Register(name string, program entry.Program) ([]byte, error) {
	code := ProgramCode(name)
	return code, r.RegisterCode(name, code, program)
}

// RegisterCode binds [program] to arbitrary code bytes.
func (r *Registry) RegisterCode(name string, code []byte, program entry.Program) error {
	h := types.ComputeHash(code)

	r.lock.Lock()
	defer r.lock.Unlock()

	if _, ok := r.programs[h]; ok {
		return fmt.Errorf("%w: %s", errDuplicateProgram, name)
	}
	r.programs[h] = Image{Name: name, Program: program}
	return nil
}

// Lookup returns the program whose code hashes to [codeHash].
func (r *Registry) Lookup(codeHash types.Hash) (Image, bool) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	img, ok := r.programs[codeHash]
	return img, ok
}

// Names lists the registered programs in order.
func (r *Registry) Names() []string {
	r.lock.RLock()
	defer r.lock.RUnlock()

	names := make([]string, 0, len(r.programs))
	for _, img := range r.programs {
		names = append(names, img.Name)
	}
	sort.Strings(names)
	return names
}
