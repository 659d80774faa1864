// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package simulator

import (
	"fmt"

	"github.com/ava-labs/avalanchego/cache"
	"github.com/ava-labs/avalanchego/cache/metercacher"
	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/utils/wrappers"
	"github.com/prometheus/client_golang/prometheus"
)

const defaultRecordCacheSize = 1024

// Collection names one indexed list of the transaction.
type Collection byte

const (
	Inputs Collection = iota
	Outputs
	CellDeps
	HeaderDeps
	Witnesses
)

func (c Collection) String() string {
	switch c {
	case Inputs:
		return "inputs"
	case Outputs:
		return "outputs"
	case CellDeps:
		return "cell_deps"
	case HeaderDeps:
		return "header_deps"
	case Witnesses:
		return "witnesses"
	default:
		return fmt.Sprintf("collection(%d)", byte(c))
	}
}

var _ RecordState = &recordState{}

// RecordState stores the indexed items of the transaction. Missing entries
// return database.ErrNotFound.
type RecordState interface {
	GetCell(coll Collection, index uint64) (*CellRecord, error)
	PutCell(coll Collection, index uint64, rec *CellRecord) error

	GetHeader(index uint64) (*HeaderRecord, error)
	PutHeader(index uint64, rec *HeaderRecord) error

	GetWitness(index uint64) ([]byte, error)
	PutWitness(index uint64, witness []byte) error

	ClearCache()
}

type recordKey struct {
	coll  Collection
	index uint64
}

type recordState struct {
	recordCache cache.Cacher
	dbs         map[Collection]database.Database
}

func NewRecordState(
	inputDB, outputDB, cellDepDB, headerDepDB, witnessDB database.Database,
	cacheSize int,
	registerer prometheus.Registerer,
) (RecordState, error) {
	if cacheSize <= 0 {
		cacheSize = defaultRecordCacheSize
	}
	recordCache, err := metercacher.New(
		"record_cache",
		registerer,
		&cache.LRU{Size: cacheSize},
	)
	if err != nil {
		return nil, err
	}
	return &recordState{
		recordCache: recordCache,
		dbs: map[Collection]database.Database{
			Inputs:     inputDB,
			Outputs:    outputDB,
			CellDeps:   cellDepDB,
			HeaderDeps: headerDepDB,
			Witnesses:  witnessDB,
		},
	}, nil
}

func indexKey(index uint64) []byte {
	p := wrappers.Packer{Bytes: make([]byte, wrappers.LongLen)}
	p.PackLong(index)
	return p.Bytes
}

func (s *recordState) get(coll Collection, index uint64, dst interface{}) (interface{}, error) {
	key := recordKey{coll: coll, index: index}
	if cached, ok := s.recordCache.Get(key); ok {
		return cached, nil
	}
	recBytes, err := s.dbs[coll].Get(indexKey(index))
	if err != nil {
		return nil, err
	}
	parsedVersion, err := Codec.Unmarshal(recBytes, dst)
	if err != nil {
		return nil, err
	}
	if parsedVersion != CodecVersion {
		return nil, errRecordWrongVersion
	}
	s.recordCache.Put(key, dst)
	return dst, nil
}

func (s *recordState) put(coll Collection, index uint64, rec interface{}) error {
	bytes, err := Codec.Marshal(CodecVersion, rec)
	if err != nil {
		return err
	}
	s.recordCache.Put(recordKey{coll: coll, index: index}, rec)
	return s.dbs[coll].Put(indexKey(index), bytes)
}

func (s *recordState) GetCell(coll Collection, index uint64) (*CellRecord, error) {
	if coll != Inputs && coll != Outputs && coll != CellDeps {
		return nil, database.ErrNotFound
	}
	rec, err := s.get(coll, index, &CellRecord{})
	if err != nil {
		return nil, err
	}
	return rec.(*CellRecord), nil
}

func (s *recordState) PutCell(coll Collection, index uint64, rec *CellRecord) error {
	return s.put(coll, index, rec)
}

func (s *recordState) GetHeader(index uint64) (*HeaderRecord, error) {
	rec, err := s.get(HeaderDeps, index, &HeaderRecord{})
	if err != nil {
		return nil, err
	}
	return rec.(*HeaderRecord), nil
}

func (s *recordState) PutHeader(index uint64, rec *HeaderRecord) error {
	return s.put(HeaderDeps, index, rec)
}

type witnessRecord struct {
	Data []byte `serialize:"true"`
}

func (s *recordState) GetWitness(index uint64) ([]byte, error) {
	rec, err := s.get(Witnesses, index, &witnessRecord{})
	if err != nil {
		return nil, err
	}
	return rec.(*witnessRecord).Data, nil
}

func (s *recordState) PutWitness(index uint64, witness []byte) error {
	return s.put(Witnesses, index, &witnessRecord{Data: witness})
}

func (s *recordState) ClearCache() {
	s.recordCache.Flush()
}
