// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package types

import (
	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/hashing"
)

const HashLen = 32

// Hash is a 32 byte digest of an encoded record.
type Hash [HashLen]byte

// ComputeHash digests the concatenation of [parts].
func ComputeHash(parts ...[]byte) Hash {
	if len(parts) == 1 {
		return hashing.ComputeHash256Array(parts[0])
	}
	size := 0
	for _, p := range parts {
		size += len(p)
	}
	buf := make([]byte, 0, size)
	for _, p := range parts {
		buf = append(buf, p...)
	}
	return hashing.ComputeHash256Array(buf)
}

// HashFromBytes copies the first 32 bytes of [b]. It returns false if [b] is
// not exactly 32 bytes long.
func HashFromBytes(b []byte) (Hash, bool) {
	var h Hash
	if len(b) != HashLen {
		return h, false
	}
	copy(h[:], b)
	return h, true
}

func (h Hash) ID() ids.ID { return ids.ID(h) }

func (h Hash) String() string { return ids.ID(h).String() }

func (h Hash) IsZero() bool { return h == Hash{} }
