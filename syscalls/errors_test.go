// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package syscalls

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildSyscallResult(t *testing.T) {
	tests := []struct {
		name      string
		code      uint64
		loadLen   uint64
		actualLen uint64
		want      uint64
		wantErr   error
	}{
		{name: "fits", code: 0, loadLen: 32, actualLen: 10, want: 10},
		{name: "exact", code: 0, loadLen: 32, actualLen: 32, want: 32},
		{name: "index out of bound", code: 1, loadLen: 32, actualLen: 32, wantErr: ErrIndexOutOfBound},
		{name: "item missing", code: 2, loadLen: 32, actualLen: 32, wantErr: ErrItemMissing},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert := assert.New(t)

			got, err := BuildSyscallResult(test.code, test.loadLen, test.actualLen)
			assert.ErrorIs(err, test.wantErr)
			assert.Equal(test.want, got)
		})
	}
}

func TestBuildSyscallResultTruncated(t *testing.T) {
	assert := assert.New(t)

	_, err := BuildSyscallResult(0, 16, 100)
	actual, ok := IsLengthNotEnough(err)
	assert.True(ok)
	assert.Equal(uint64(100), actual)
}

func TestBuildSyscallResultUnknown(t *testing.T) {
	assert := assert.New(t)

	// Load syscalls only ever report 0, 1 or 2.
	for _, code := range []uint64{3, 7, 42, Unsupported} {
		_, err := BuildSyscallResult(code, 8, 8)
		var unknown *UnknownError
		assert.True(errors.As(err, &unknown))
		assert.Equal(code, unknown.Code)
	}
}

func TestCodeRoundTrip(t *testing.T) {
	assert := assert.New(t)

	codes := []uint64{
		CodeSuccess,
		CodeIndexOutOfBound,
		CodeItemMissing,
		CodeEncoding,
		CodeWaitFailure,
		CodeInvalidFd,
		CodeOtherEndClosed,
		CodeMaxVmsSpawned,
		CodeMaxFdsCreated,
		4,
		100,
	}
	for _, code := range codes {
		assert.Equal(code, Code(FromCode(code)), "code %d", code)
	}
}

func TestCodeWrapped(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(CodeInvalidFd, Code(fmt.Errorf("closing: %w", ErrInvalidFd)))
	assert.Equal(CodeSuccess, Code(&LengthNotEnoughError{Actual: 3}))
	assert.Equal(Unsupported, Code(errors.New("something else")))
}
