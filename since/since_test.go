// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package since

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/ckbstd/types"
)

func TestEpochAdd(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	sum, ok := MustEpoch(1000, 1, 7).Add(MustEpoch(2000, 1, 5))
	require.True(ok)
	assert.Equal(MustEpoch(3000, 12, 35), sum)

	// 1/2 + 1/2 rolls into the next epoch.
	sum, ok = MustEpoch(1, 1, 2).Add(MustEpoch(1, 1, 2))
	require.True(ok)
	assert.Equal(MustEpoch(3, 0, 1), sum)

	// Reduced by the gcd.
	sum, ok = MustEpoch(0, 1, 4).Add(MustEpoch(0, 1, 4))
	require.True(ok)
	assert.Equal(MustEpoch(0, 1, 2), sum)
}

func TestEpochAddOverflow(t *testing.T) {
	assert := assert.New(t)

	_, ok := MustEpoch(NumberMax-1, 0, 1).Add(MustEpoch(1, 0, 1))
	assert.False(ok)

	_, ok = MustEpoch(NumberMax-1, 1, 2).Add(MustEpoch(0, 1, 2))
	assert.False(ok)

	// Coprime lengths whose product does not fit in 16 bits.
	_, ok = MustEpoch(0, 1, 1009).Add(MustEpoch(0, 1, 1013))
	assert.False(ok)
}

func TestNewEpochValidation(t *testing.T) {
	assert := assert.New(t)

	for _, args := range [][3]uint64{
		{NumberMax, 0, 1},
		{0, 0, 0},
		{0, 5, 5},
		{0, 1, LengthMax},
	} {
		_, ok := NewEpoch(args[0], args[1], args[2])
		assert.False(ok, "%v", args)
	}

	e := MustEpoch(0xabcdef, 0x1234, 0x5678)
	assert.Equal(uint64(0xabcdef), e.Number())
	assert.Equal(uint64(0x1234), e.Index())
	assert.Equal(uint64(0x5678), e.Length())
	assert.Equal(uint64(0x5678_1234_abcdef), e.FullValue())

	assert.Panics(func() { MustEpoch(0, 1, 1) })
}

func TestEpochFromFullValueZeroLength(t *testing.T) {
	assert := assert.New(t)

	e := EpochFromFullValue(0x0000_0005_000010)
	assert.Equal(uint64(0x10), e.Number())
	assert.Equal(uint64(0), e.Index())
	assert.Equal(uint64(1), e.Length())
}

func TestEpochCompare(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(0, MustEpoch(3, 1, 2).Compare(MustEpoch(3, 2, 4)))
	assert.Equal(-1, MustEpoch(3, 1, 3).Compare(MustEpoch(3, 1, 2)))
	assert.Equal(1, MustEpoch(4, 0, 1).Compare(MustEpoch(3, 9, 10)))
}

func TestFromBlockNumber(t *testing.T) {
	assert := assert.New(t)

	s, ok := FromBlockNumber(0x12300, true)
	assert.True(ok)
	assert.Equal(Since(0x12300), s)

	s, ok = FromBlockNumber(0x12300, false)
	assert.True(ok)
	assert.Equal(Since(0x8000_0000_0001_2300), s)

	_, ok = FromBlockNumber(0x0100_0000_0000_0000, true)
	assert.False(ok)
}

func TestSinceIncomparable(t *testing.T) {
	assert := assert.New(t)

	block, _ := FromBlockNumber(10, true)
	stamp, _ := FromTimestamp(10, true)
	_, ok := block.Compare(stamp)
	assert.False(ok)

	relative, _ := FromBlockNumber(10, false)
	_, ok = block.Compare(relative)
	assert.False(ok)

	reserved := Since(0x6000_0000_0000_0001)
	assert.False(reserved.FlagsValid())
	_, ok = reserved.Compare(reserved)
	assert.False(ok)
}

func TestSinceCompare(t *testing.T) {
	assert := assert.New(t)

	a, _ := FromTimestamp(100, false)
	b, _ := FromTimestamp(200, false)
	cmp, ok := a.Compare(b)
	assert.True(ok)
	assert.Equal(-1, cmp)

	e1 := FromEpoch(MustEpoch(5, 1, 2), true)
	e2 := FromEpoch(MustEpoch(5, 2, 4), true)
	cmp, ok = e1.Compare(e2)
	assert.True(ok)
	assert.Equal(0, cmp)
}

func TestExtractLockValue(t *testing.T) {
	assert := assert.New(t)

	s, _ := FromTimestamp(1234, true)
	lock, ok := s.ExtractLockValue()
	assert.True(ok)
	ts, ok := lock.Timestamp()
	assert.True(ok)
	assert.Equal(uint64(1_234_000), ts)
	_, ok = lock.BlockNumber()
	assert.False(ok)

	e := FromEpoch(MustEpoch(7, 1, 3), false)
	assert.True(e.IsRelative())
	assert.True(e.FlagsValid())
	lock, ok = e.ExtractLockValue()
	assert.True(ok)
	epoch, ok := lock.Epoch()
	assert.True(ok)
	assert.Equal(MustEpoch(7, 1, 3), epoch)
}

func TestToAbsolute(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	base := &types.Header{
		Number:    100,
		Timestamp: 5_000,
		Epoch:     MustEpoch(10, 1, 2).FullValue(),
	}

	rel, _ := FromBlockNumber(20, false)
	abs, ok := rel.ToAbsolute(base)
	require.True(ok)
	want, _ := FromBlockNumber(120, true)
	assert.Equal(want, abs)

	relEpoch := FromEpoch(MustEpoch(1, 1, 2), false)
	abs, ok = relEpoch.ToAbsolute(base)
	require.True(ok)
	assert.Equal(FromEpoch(MustEpoch(12, 0, 1), true), abs)

	rel, _ = FromTimestamp(3, false)
	abs, ok = rel.ToAbsolute(base)
	require.True(ok)
	want, _ = FromTimestamp(8_000, true)
	assert.Equal(want, abs)

	absolute, _ := FromBlockNumber(1, true)
	_, ok = absolute.ToAbsolute(base)
	assert.False(ok)
}
