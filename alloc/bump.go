// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package alloc

var _ Allocator = (*Bump)(nil)

const bumpAlign = 16

// Bump allocates by advancing a cursor. Free only reclaims the most recent
// allocation.
type Bump struct {
	arena  []byte
	cursor int
}

func NewBump(arena []byte) *Bump {
	return &Bump{arena: arena}
}

func (b *Bump) Alloc(size int) []byte {
	start := (b.cursor + bumpAlign - 1) &^ (bumpAlign - 1)
	if size < 0 || start+size > len(b.arena) {
		return nil
	}
	b.cursor = start + size
	out := b.arena[start : start+size : start+size]
	zero(out)
	return out
}

func (b *Bump) Free(p []byte) {
	off, ok := offsetIn(b.arena, p)
	if ok && off+len(p) == b.cursor {
		b.cursor = off
	}
}

func (b *Bump) Contains(p []byte) bool {
	_, ok := offsetIn(b.arena, p)
	return ok
}

// Used returns the number of arena bytes consumed so far.
func (b *Bump) Used() int { return b.cursor }
