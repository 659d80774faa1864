// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package alloc

var _ Allocator = (*Mixed)(nil)

// Mixed serves small requests from a Bitmap and everything else, including
// small requests the bitmap cannot fit, from [fallback].
type Mixed struct {
	bitmap   *Bitmap
	fallback Allocator
}

func NewMixed(fallback Allocator) *Mixed {
	return &Mixed{
		bitmap:   NewBitmap(),
		fallback: fallback,
	}
}

func (m *Mixed) Alloc(size int) []byte {
	if size > MinMemoryBlock {
		return m.fallback.Alloc(size)
	}
	if b := m.bitmap.Alloc(size); b != nil {
		return b
	}
	return m.fallback.Alloc(size)
}

func (m *Mixed) Free(b []byte) {
	if m.bitmap.Contains(b) {
		m.bitmap.Free(b)
		return
	}
	m.fallback.Free(b)
}

func (m *Mixed) Contains(b []byte) bool {
	return m.bitmap.Contains(b) || m.fallback.Contains(b)
}
