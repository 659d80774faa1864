// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package alloc

import "fmt"

var _ Allocator = (*Buddy)(nil)

// Buddy splits a power of two arena into power of two blocks and merges
// freed blocks with their buddies.
type Buddy struct {
	arena    []byte
	minBlock int
	// free[k] holds offsets of free blocks of minBlock<<k bytes.
	free [][]int
}

// NewBuddy panics unless len(arena)/minBlock is a power of two and
// minBlock is a power of two.
func NewBuddy(arena []byte, minBlock int) *Buddy {
	if minBlock <= 0 || minBlock&(minBlock-1) != 0 || len(arena) < minBlock || len(arena)%minBlock != 0 {
		panic(fmt.Sprintf("buddy arena of %d bytes with %d byte blocks", len(arena), minBlock))
	}
	blocks := len(arena) / minBlock
	if blocks&(blocks-1) != 0 {
		panic(fmt.Sprintf("buddy arena of %d bytes is not a power of two", len(arena)))
	}
	orders := 1
	for 1<<(orders-1) < blocks {
		orders++
	}
	b := &Buddy{
		arena:    arena,
		minBlock: minBlock,
		free:     make([][]int, orders),
	}
	b.free[orders-1] = []int{0}
	return b
}

func (b *Buddy) order(size int) int {
	k := 0
	for b.minBlock<<k < size {
		k++
	}
	return k
}

func (b *Buddy) Alloc(size int) []byte {
	want := b.order(size)
	k := want
	for k < len(b.free) && len(b.free[k]) == 0 {
		k++
	}
	if k >= len(b.free) {
		return nil
	}
	last := len(b.free[k]) - 1
	off := b.free[k][last]
	b.free[k] = b.free[k][:last]

	for k > want {
		k--
		b.free[k] = append(b.free[k], off+b.minBlock<<k)
	}

	out := b.arena[off : off+size : off+b.minBlock<<want]
	zero(out)
	return out
}

func (b *Buddy) Free(p []byte) {
	off, ok := b.offset(p)
	if !ok {
		return
	}
	k := b.order(len(p))
	for k < len(b.free)-1 {
		buddy := off ^ (b.minBlock << k)
		i := indexOf(b.free[k], buddy)
		if i < 0 {
			break
		}
		b.free[k] = append(b.free[k][:i], b.free[k][i+1:]...)
		if buddy < off {
			off = buddy
		}
		k++
	}
	b.free[k] = append(b.free[k], off)
}

func (b *Buddy) offset(p []byte) (int, bool) {
	return offsetIn(b.arena, p)
}

func (b *Buddy) Contains(p []byte) bool {
	_, ok := b.offset(p)
	return ok
}

func indexOf(s []int, v int) int {
	for i, x := range s {
		if x == v {
			return i
		}
	}
	return -1
}
