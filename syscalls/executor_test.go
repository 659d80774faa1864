// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package syscalls

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	regs [7]uint64
	n    uint64
}

// fakeHost interprets guest addresses the way the VM would.
type fakeHost struct {
	calls []call

	data []byte
	ret  uint64

	spawnArgv []string
	spawnFDs  []uint64
	pid       uint64
}

// ptrAt reinterprets a register as the pointer it was built from. Reading
// the bits through memory keeps checkptr from treating it as arithmetic.
func ptrAt(a uint64) unsafe.Pointer {
	return *(*unsafe.Pointer)(unsafe.Pointer(&a))
}

func bytesAt(a, n uint64) []byte {
	if n == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(ptrAt(a)), n)
}

func u64At(a uint64) *uint64 {
	return (*uint64)(ptrAt(a))
}

func cstringAt(a uint64) string {
	var out []byte
	for p := a; *(*byte)(ptrAt(p)) != 0; p++ {
		out = append(out, *(*byte)(ptrAt(p)))
	}
	return string(out)
}

func (f *fakeHost) Syscall(a0, a1, a2, a3, a4, a5, a6, n uint64) uint64 {
	f.calls = append(f.calls, call{regs: [7]uint64{a0, a1, a2, a3, a4, a5, a6}, n: n})
	if f.ret != 0 {
		return f.ret
	}
	switch n {
	case SysLoadCellData, SysLoadScript:
		lenSlot := u64At(a1)
		if a2 > uint64(len(f.data)) {
			return CodeItemMissing
		}
		avail := f.data[a2:]
		copy(bytesAt(a0, *lenSlot), avail)
		*lenSlot = uint64(len(avail))
	case SysSpawn:
		args := (*SpawnArgs)(ptrAt(a4))
		for i := uint64(0); i < args.Argc; i++ {
			f.spawnArgv = append(f.spawnArgv, cstringAt(*u64At(args.Argv + 8*i)))
		}
		for p := args.InheritedFDs; *u64At(p) != 0; p += 8 {
			f.spawnFDs = append(f.spawnFDs, *u64At(p))
		}
		*u64At(args.ProcessID) = f.pid
	case SysPipe:
		*u64At(a0) = 2
		*u64At(a0 + 8) = 3
	case SysRead:
		lenSlot := u64At(a2)
		n := uint64(copy(bytesAt(a1, *lenSlot), f.data))
		*lenSlot = n
	case SysWait:
		*u64At(a1) = uint64(0xfe) // -2 as a u8
	case SysVMVersion:
		return 2
	}
	return 0
}

func TestLoadFits(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	host := &fakeHost{data: []byte("hello world")}
	impls := NewDefaultImpls(host)

	buf := make([]byte, 64)
	n, err := impls.LoadCellData(buf, 0, 3, SourceCellDep)
	require.NoError(err)
	assert.Equal(uint64(11), n)
	assert.Equal("hello world", string(buf[:n]))

	require.Len(host.calls, 1)
	c := host.calls[0]
	assert.Equal(SysLoadCellData, c.n)
	assert.Equal(uint64(0), c.regs[2])
	assert.Equal(uint64(3), c.regs[3])
	assert.Equal(uint64(SourceCellDep), c.regs[4])
}

func TestLoadTruncated(t *testing.T) {
	assert := assert.New(t)

	host := &fakeHost{data: []byte("0123456789")}
	impls := NewDefaultImpls(host)

	buf := make([]byte, 4)
	_, err := impls.LoadScript(buf, 2)
	actual, ok := IsLengthNotEnough(err)
	assert.True(ok)
	assert.Equal(uint64(8), actual)
	// The prefix is still delivered.
	assert.Equal("2345", string(buf))
}

func TestLoadItemMissing(t *testing.T) {
	assert := assert.New(t)

	impls := NewDefaultImpls(&fakeHost{ret: CodeItemMissing})
	_, err := impls.LoadCellData(make([]byte, 8), 0, 0, SourceInput)
	assert.ErrorIs(err, ErrItemMissing)
}

func TestSpawnMarshaling(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	host := &fakeHost{pid: 5}
	impls := NewDefaultImpls(host)

	pid, err := impls.Spawn(1, SourceCellDep, PlaceCellData, NewBounds(0, 0), []string{"a", "bc"}, []uint64{2, 5})
	require.NoError(err)
	assert.Equal(uint64(5), pid)
	assert.Equal([]string{"a", "bc"}, host.spawnArgv)
	assert.Equal([]uint64{2, 5}, host.spawnFDs)

	c := host.calls[0]
	assert.Equal(SysSpawn, c.n)
	assert.Equal([4]uint64{1, uint64(SourceCellDep), 0, 0}, [4]uint64{c.regs[0], c.regs[1], c.regs[2], c.regs[3]})
	assert.Zero(c.regs[5])
	assert.Zero(c.regs[6])
}

func TestRegisterLayout(t *testing.T) {
	assert := assert.New(t)

	host := &fakeHost{data: []byte("abc")}
	impls := NewDefaultImpls(host)

	err := impls.LoadCellCode(make([]byte, 8), 1, 2, 3, SourceCellDep)
	assert.NoError(err)
	_, err = impls.Read(4, make([]byte, 8))
	assert.NoError(err)
	assert.Equal(uint64(2), impls.VMVersion())

	require.Len(t, host.calls, 3)
	assert.Equal([]uint64{SysLoadCellDataAsCode, SysRead, SysVMVersion}, []uint64{host.calls[0].n, host.calls[1].n, host.calls[2].n})
	code := host.calls[0].regs
	assert.Equal([5]uint64{8, 1, 2, 3, uint64(SourceCellDep)}, [5]uint64{code[1], code[2], code[3], code[4], code[5]})
	for _, c := range host.calls {
		assert.Zero(c.regs[6])
	}
}

func TestHeapBuffers(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	host := &fakeHost{data: make([]byte, 4096)}
	for i := range host.data {
		host.data[i] = byte(i)
	}
	impls := NewDefaultImpls(host)

	buf := make([]byte, 8192)
	n, err := impls.LoadCellData(buf, 100, 0, SourceInput)
	require.NoError(err)
	assert.Equal(uint64(3996), n)
	assert.Equal(host.data[100:], buf[:n])

	r, w, err := impls.Pipe()
	require.NoError(err)
	assert.Equal([2]uint64{2, 3}, [2]uint64{r, w})
}

func TestSpawnRejectsNul(t *testing.T) {
	assert := assert.New(t)

	host := &fakeHost{}
	_, err := NewDefaultImpls(host).Spawn(0, SourceCellDep, PlaceCellData, 0, []string{"a\x00b"}, nil)
	assert.ErrorIs(err, ErrEncoding)
	assert.Empty(host.calls)
}

func TestSpawnError(t *testing.T) {
	assert := assert.New(t)

	_, err := NewDefaultImpls(&fakeHost{ret: CodeMaxVmsSpawned}).Spawn(0, SourceCellDep, PlaceCellData, 0, nil, nil)
	assert.ErrorIs(err, ErrMaxVmsSpawned)
}

func TestPipeReadWait(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	host := &fakeHost{data: []byte("xyz")}
	impls := NewDefaultImpls(host)

	r, w, err := impls.Pipe()
	require.NoError(err)
	assert.Equal(uint64(2), r)
	assert.Equal(uint64(3), w)

	buf := make([]byte, 2)
	n, err := impls.Read(r, buf)
	require.NoError(err)
	assert.Equal(2, n)
	assert.Equal("xy", string(buf))

	code, err := impls.Wait(1)
	require.NoError(err)
	assert.Equal(int8(-2), code)

	assert.Equal(uint64(2), impls.VMVersion())
}

func TestCloseError(t *testing.T) {
	assert := assert.New(t)

	err := NewDefaultImpls(&fakeHost{ret: CodeInvalidFd}).Close(9)
	assert.ErrorIs(err, ErrInvalidFd)
}

func TestNativeStub(t *testing.T) {
	if NativeSupported {
		t.Skip("running inside a host VM")
	}
	assert := assert.New(t)

	impls := NewDefaultImpls(Native{})
	_, err := impls.LoadTxHash(make([]byte, 32), 0)
	var unknown *UnknownError
	assert.ErrorAs(err, &unknown)
	assert.Equal(Unsupported, unknown.Code)
	assert.Panics(func() { impls.Exit(0) })
}

func TestGetWithoutInit(t *testing.T) {
	assert := assert.New(t)

	Init(nil)
	assert.Panics(func() { Get() })

	impls := NewDefaultImpls(Native{})
	Init(impls)
	assert.Equal(Impls(impls), Get())
}
