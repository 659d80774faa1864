// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package alloc

import "fmt"

var _ Allocator = (*BlockList)(nil)

// BlockSize is the unit of a BlockList.
const BlockSize = 64

// BlockList serves requests of at most BlockSize bytes from a LIFO free
// list of blocks. The list is kept as block indexes beside the arena.
type BlockList struct {
	arena []byte
	free  []int32
}

// NewBlockList panics if len(arena) is not a non zero multiple of BlockSize.
func NewBlockList(arena []byte) *BlockList {
	if len(arena) == 0 || len(arena)%BlockSize != 0 {
		panic(fmt.Sprintf("block list arena of %d bytes", len(arena)))
	}
	n := len(arena) / BlockSize
	free := make([]int32, n)
	for i := range free {
		free[i] = int32(i)
	}
	return &BlockList{arena: arena, free: free}
}

func (l *BlockList) Alloc(size int) []byte {
	if size > BlockSize || len(l.free) == 0 {
		return nil
	}
	last := len(l.free) - 1
	block := int(l.free[last])
	l.free = l.free[:last]

	start := block * BlockSize
	out := l.arena[start : start+size : start+BlockSize]
	zero(out)
	return out
}

func (l *BlockList) Free(b []byte) {
	off, ok := offsetIn(l.arena, b)
	if !ok {
		return
	}
	l.free = append(l.free, int32(off/BlockSize))
}

func (l *BlockList) Contains(b []byte) bool {
	_, ok := offsetIn(l.arena, b)
	return ok
}

// Available returns the number of free blocks.
func (l *BlockList) Available() int { return len(l.free) }
