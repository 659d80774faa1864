// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package dynloading

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"unsafe"

	"github.com/ava-labs/ckbstd/highlevel"
	"github.com/ava-labs/ckbstd/syscalls"
	"github.com/ava-labs/ckbstd/types"
)

// The first page of every load holds the handle record.
const (
	handleMagic     = 0x4c44424b43 // "CKBDL"
	handleFootprint = 32
)

// Library is a loaded shared object. It is valid for as long as the window
// it was loaded into.
type Library struct {
	ctx      *Context
	offset   int
	consumed int
	symbols  map[string]uint64
}

// ConsumedSize is the number of window bytes the library occupies,
// including its handle page. It is always a multiple of PageSize.
func (l *Library) ConsumedSize() int { return l.consumed }

// Offset is where the library starts in the window.
func (l *Library) Offset() int { return l.offset }

// Handle is the address of the library's handle page.
func (l *Library) Handle() uintptr { return l.ctx.Base() + uintptr(l.offset) }

func (l *Library) imageBase() int { return l.offset + PageSize }

// Lookup returns the window offset of [name].
func (l *Library) Lookup(name string) (int, bool) {
	name = strings.TrimRight(name, "\x00")
	if name == "" {
		return 0, false
	}
	value, ok := l.symbols[name]
	if !ok {
		return 0, false
	}
	off := l.imageBase() + int(value)
	if off >= l.offset+l.consumed {
		return 0, false
	}
	return off, true
}

// Symbol is a typed view of an address inside a loaded library.
type Symbol[T any] struct {
	ptr    unsafe.Pointer
	offset int
}

// Pointer reinterprets the symbol's address as a *T.
func (s Symbol[T]) Pointer() *T { return (*T)(s.ptr) }

func (s Symbol[T]) Addr() uintptr { return uintptr(s.ptr) }

// Offset is the symbol's position in the window.
func (s Symbol[T]) Offset() int { return s.offset }

// Get resolves [name] in [lib]. The returned symbol is only as valid as the
// window it points into.
func Get[T any](lib *Library, name string) (Symbol[T], bool) {
	off, ok := lib.Lookup(name)
	if !ok {
		return Symbol[T]{}, false
	}
	return Symbol[T]{ptr: unsafe.Pointer(&lib.ctx.mem[off]), offset: off}, true
}

func pageDown(v uint64) uint64 { return v &^ (PageSize - 1) }

func pageUp(v uint64) (uint64, bool) {
	if v > ^uint64(0)-(PageSize-1) {
		return 0, false
	}
	return pageDown(v + PageSize - 1), true
}

func open(
	sys syscalls.Impls,
	ctx *Context,
	hash types.Hash,
	hashType syscalls.ScriptHashType,
	offset int,
	size int,
) (*Library, error) {
	index, err := highlevel.LookForDepWithHash2(sys, hash, hashType)
	if err != nil {
		return nil, fmt.Errorf("couldn't find library %s: %w", hash, err)
	}
	data, err := highlevel.LoadCellData(sys, index, syscalls.SourceCellDep)
	if err != nil {
		return nil, fmt.Errorf("couldn't load library %s: %w", hash, err)
	}
	f, err := elf.NewFile(bytes.NewReader(data))
	if err != nil {
		return nil, openFailed(CodeInvalidELF, "%s", err)
	}
	defer f.Close()
	if f.Class != elf.ELFCLASS64 || f.Type != elf.ET_DYN {
		return nil, openFailed(CodeInvalidELF, "unsupported object %s %s", f.Class, f.Type)
	}

	base := offset + PageSize
	avail := uint64(size - PageSize)
	region := ctx.mem[base : offset+size]
	for i := range region {
		region[i] = 0
	}

	var maxEnd uint64
	for _, prog := range f.Progs {
		if prog.Type != elf.PT_LOAD || prog.Memsz == 0 {
			continue
		}
		end, err := mapSegment(sys, region, avail, prog, index)
		if err != nil {
			return nil, err
		}
		if end > maxEnd {
			maxEnd = end
		}
	}
	if maxEnd == 0 {
		return nil, openFailed(CodeInvalidELF, "no loadable segments")
	}

	if err := relocate(f, region, maxEnd, uint64(ctx.Base())+uint64(base)); err != nil {
		return nil, err
	}

	symbols, err := collectSymbols(f)
	if err != nil {
		return nil, err
	}

	lib := &Library{
		ctx:      ctx,
		offset:   offset,
		consumed: int(maxEnd) + PageSize,
		symbols:  symbols,
	}
	writeHandle(ctx.mem[offset:base], lib)
	return lib, nil
}

// mapSegment copies one PT_LOAD segment into [region] and returns the page
// aligned end of the memory it covers.
func mapSegment(sys syscalls.Impls, region []byte, avail uint64, prog *elf.Prog, index uint64) (uint64, error) {
	if prog.Filesz > prog.Memsz {
		return 0, openFailed(CodeInvalidELF, "segment file size exceeds memory size")
	}
	if prog.Flags&elf.PF_X != 0 {
		prepad := prog.Vaddr % PageSize
		if prog.Off < prepad {
			return 0, openFailed(CodeELFNotAligned, "segment offset %#x is not page congruent", prog.Off)
		}
		start := prog.Vaddr - prepad
		memsz, ok := pageUp(prepad + prog.Memsz)
		if !ok || start+memsz < start {
			return 0, openFailed(CodeInvalidELF, "segment overflows")
		}
		end := start + memsz
		if end > avail {
			return 0, openFailed(CodeMemoryNotEnough, "segment ends at %#x, %#x available", end, avail)
		}
		err := sys.LoadCellCode(region[start:end], prog.Off-prepad, prog.Filesz+prepad, index, syscalls.SourceCellDep)
		if err != nil {
			return 0, fmt.Errorf("couldn't map code segment: %w", err)
		}
		return end, nil
	}

	fileEnd := prog.Vaddr + prog.Filesz
	memEnd := prog.Vaddr + prog.Memsz
	if memEnd < prog.Vaddr {
		return 0, openFailed(CodeInvalidELF, "segment overflows")
	}
	end, ok := pageUp(memEnd)
	if !ok {
		return 0, openFailed(CodeInvalidELF, "segment overflows")
	}
	if end > avail {
		return 0, openFailed(CodeMemoryNotEnough, "segment ends at %#x, %#x available", end, avail)
	}
	if prog.Filesz == 0 {
		return end, nil
	}
	n, err := sys.LoadCellData(region[prog.Vaddr:fileEnd], prog.Off, index, syscalls.SourceCellDep)
	switch _, short := syscalls.IsLengthNotEnough(err); {
	case short:
	case err != nil:
		return 0, fmt.Errorf("couldn't load data segment: %w", err)
	case n < prog.Filesz:
		return 0, fmt.Errorf("data segment truncated at %d of %d bytes: %w", n, prog.Filesz, syscalls.ErrItemMissing)
	}
	return end, nil
}

func relocate(f *elf.File, region []byte, limit uint64, loadAddr uint64) error {
	for _, sec := range f.Sections {
		if sec.Type != elf.SHT_RELA {
			continue
		}
		raw, err := sec.Data()
		if err != nil {
			return openFailed(CodeInvalidELF, "%s", err)
		}
		if len(raw)%24 != 0 {
			return openFailed(CodeInvalidELF, "malformed relocation section %s", sec.Name)
		}
		for i := 0; i < len(raw); i += 24 {
			var rela elf.Rela64
			rela.Off = binary.LittleEndian.Uint64(raw[i:])
			rela.Info = binary.LittleEndian.Uint64(raw[i+8:])
			rela.Addend = int64(binary.LittleEndian.Uint64(raw[i+16:]))
			switch elf.R_RISCV(elf.R_TYPE64(rela.Info)) {
			case elf.R_RISCV_NONE:
			case elf.R_RISCV_RELATIVE:
				if rela.Off+8 > limit || rela.Off+8 < rela.Off {
					return openFailed(CodeOutOfBound, "relocation at %#x outside image", rela.Off)
				}
				binary.LittleEndian.PutUint64(region[rela.Off:], loadAddr+uint64(rela.Addend))
			default:
				return openFailed(CodeInvalidELF, "unsupported relocation %s", elf.R_RISCV(elf.R_TYPE64(rela.Info)))
			}
		}
	}
	return nil
}

func collectSymbols(f *elf.File) (map[string]uint64, error) {
	syms, err := f.DynamicSymbols()
	if errors.Is(err, elf.ErrNoSymbols) {
		return map[string]uint64{}, nil
	}
	if err != nil {
		return nil, openFailed(CodeInvalidELF, "%s", err)
	}
	out := make(map[string]uint64, len(syms))
	for _, sym := range syms {
		if sym.Name == "" || sym.Section == elf.SHN_UNDEF {
			continue
		}
		out[sym.Name] = sym.Value
	}
	return out, nil
}

func writeHandle(page []byte, lib *Library) {
	binary.LittleEndian.PutUint64(page[0:], handleMagic)
	binary.LittleEndian.PutUint64(page[8:], uint64(lib.imageBase()))
	binary.LittleEndian.PutUint64(page[16:], uint64(lib.consumed))
	binary.LittleEndian.PutUint64(page[24:], uint64(len(lib.symbols)))
}
