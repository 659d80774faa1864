// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package syscalls

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBounds(t *testing.T) {
	assert := assert.New(t)

	b := NewBounds(0x10, 0x20)
	assert.Equal(Bounds(0x10_0000_0020), b)
	assert.Equal(uint64(0x10), b.Offset())
	assert.Equal(uint64(0x20), b.Length())

	assert.Equal(uint64(0), NewBounds(7, 0).Length())
}

func TestSyscallName(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("spawn", SyscallName(SysSpawn))
	assert.Equal("load_cell_data", SyscallName(2092))
	assert.Equal("unknown(1)", SyscallName(1))
}

func TestHashTypeParse(t *testing.T) {
	assert := assert.New(t)

	for _, h := range []ScriptHashType{HashTypeData, HashTypeType, HashTypeData1, HashTypeData2} {
		parsed, err := ParseHashType(h.String())
		assert.NoError(err)
		assert.Equal(h, parsed)
	}
	_, err := ParseHashType("data3")
	assert.Error(err)

	assert.True(HashTypeData2.IsData())
	assert.False(HashTypeType.IsData())
}

func TestSourceString(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("group_input", SourceGroupInput.String())
	assert.Equal("source(0x9)", Source(9).String())
}
