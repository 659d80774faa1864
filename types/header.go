// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package types

import (
	"encoding/binary"
)

const (
	nonceLen = 16

	// HeaderLen is the size of an encoded header.
	HeaderLen = 4 + 4 + 8 + 8 + 8 + 5*HashLen + nonceLen
)

// Header is a block header. Epoch holds a packed epoch number with
// fraction.
type Header struct {
	Version          uint32
	CompactTarget    uint32
	Timestamp        uint64
	Number           uint64
	Epoch            uint64
	ParentHash       Hash
	TransactionsRoot Hash
	ProposalsHash    Hash
	ExtraHash        Hash
	DAO              [HashLen]byte
	Nonce            [nonceLen]byte
}

func (h *Header) Bytes() []byte {
	raw := make([]byte, HeaderLen)
	work := raw

	binary.LittleEndian.PutUint32(work, h.Version)
	work = work[4:]
	binary.LittleEndian.PutUint32(work, h.CompactTarget)
	work = work[4:]
	binary.LittleEndian.PutUint64(work, h.Timestamp)
	work = work[8:]
	binary.LittleEndian.PutUint64(work, h.Number)
	work = work[8:]
	binary.LittleEndian.PutUint64(work, h.Epoch)
	work = work[8:]
	for _, hash := range [][HashLen]byte{h.ParentHash, h.TransactionsRoot, h.ProposalsHash, h.ExtraHash, h.DAO} {
		copy(work, hash[:])
		work = work[HashLen:]
	}
	copy(work, h.Nonce[:])
	return raw
}

func (h *Header) Hash() Hash {
	return ComputeHash(h.Bytes())
}

func ParseHeader(raw []byte) (*Header, error) {
	if len(raw) != HeaderLen {
		return nil, ErrInvalidStruct
	}
	var h Header
	work := raw

	h.Version = binary.LittleEndian.Uint32(work)
	work = work[4:]
	h.CompactTarget = binary.LittleEndian.Uint32(work)
	work = work[4:]
	h.Timestamp = binary.LittleEndian.Uint64(work)
	work = work[8:]
	h.Number = binary.LittleEndian.Uint64(work)
	work = work[8:]
	h.Epoch = binary.LittleEndian.Uint64(work)
	work = work[8:]
	for _, dst := range [][]byte{h.ParentHash[:], h.TransactionsRoot[:], h.ProposalsHash[:], h.ExtraHash[:], h.DAO[:]} {
		copy(dst, work)
		work = work[HashLen:]
	}
	copy(h.Nonce[:], work)
	return &h, nil
}
