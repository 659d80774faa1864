// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package alloc

var _ Allocator = (*Bitmap)(nil)

const (
	MinMemoryBlock = 256
	BitmapMemory   = 1 << 16
	MaxBlocks      = BitmapMemory / MinMemoryBlock
)

// Bitmap tracks MaxBlocks blocks of MinMemoryBlock bytes with one bit each.
// Searches start at a cursor left behind the previous allocation and wrap
// around once.
type Bitmap struct {
	bitmap [MaxBlocks / 8]byte
	memory [BitmapMemory]byte
	cursor int
}

func NewBitmap() *Bitmap {
	return &Bitmap{}
}

func roundupBlocks(n int) int {
	if n <= 0 {
		return 1
	}
	return (n-1)/MinMemoryBlock + 1
}

func (m *Bitmap) isSet(i int) bool { return m.bitmap[i/8]&(1<<(i%8)) != 0 }
func (m *Bitmap) set(i int)        { m.bitmap[i/8] |= 1 << (i % 8) }
func (m *Bitmap) clear(i int)      { m.bitmap[i/8] &^= 1 << (i % 8) }

func (m *Bitmap) search(nblocks, start, end int) (int, bool) {
	if end-start < nblocks {
		return 0, false
	}
	for i := start; i <= end-nblocks; i++ {
		free := true
		for j := i; j < i+nblocks; j++ {
			if m.isSet(j) {
				free = false
				break
			}
		}
		if free {
			return i, true
		}
	}
	return 0, false
}

func (m *Bitmap) Alloc(size int) []byte {
	nblocks := roundupBlocks(size)
	n, ok := m.search(nblocks, m.cursor, MaxBlocks)
	if !ok && m.cursor != 0 {
		n, ok = m.search(nblocks, 0, m.cursor)
	}
	if !ok {
		return nil
	}
	for i := n; i < n+nblocks; i++ {
		m.set(i)
	}
	m.cursor = (n + nblocks) % MaxBlocks

	start := n * MinMemoryBlock
	out := m.memory[start : start+size : start+nblocks*MinMemoryBlock]
	zero(out)
	return out
}

func (m *Bitmap) Free(b []byte) {
	off, ok := offsetIn(m.memory[:], b)
	if !ok {
		return
	}
	start := off / MinMemoryBlock
	for i := start; i < start+roundupBlocks(len(b)); i++ {
		m.clear(i)
	}
}

func (m *Bitmap) Contains(b []byte) bool {
	_, ok := offsetIn(m.memory[:], b)
	return ok
}
