// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package simulator

import (
	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/database/prefixdb"
	"github.com/ava-labs/avalanchego/database/versiondb"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// These are prefixes for db keys.
	// It's important to set different prefixes for each separate database objects.
	singletonStatePrefix = []byte("singleton")
	inputStatePrefix     = []byte("input")
	outputStatePrefix    = []byte("output")
	cellDepStatePrefix   = []byte("cell_dep")
	headerDepStatePrefix = []byte("header_dep")
	witnessStatePrefix   = []byte("witness")

	_ State = &state{}
)

// State is the transaction store a simulation reads from. It is written once
// when a fixture is loaded and only read afterwards.
type State interface {
	TxState
	RecordState

	Commit() error
	Close() error
}

type state struct {
	TxState
	RecordState

	baseDB *versiondb.Database
}

func NewState(db database.Database, cacheSize int, registerer prometheus.Registerer) (State, error) {
	baseDB := versiondb.New(db)

	records, err := NewRecordState(
		prefixdb.New(inputStatePrefix, baseDB),
		prefixdb.New(outputStatePrefix, baseDB),
		prefixdb.New(cellDepStatePrefix, baseDB),
		prefixdb.New(headerDepStatePrefix, baseDB),
		prefixdb.New(witnessStatePrefix, baseDB),
		cacheSize,
		registerer,
	)
	if err != nil {
		return nil, err
	}

	return &state{
		TxState:     NewTxState(prefixdb.New(singletonStatePrefix, baseDB)),
		RecordState: records,
		baseDB:      baseDB,
	}, nil
}

// Commit commits pending operations to baseDB
func (s *state) Commit() error {
	return s.baseDB.Commit()
}

// Close closes the underlying base database
func (s *state) Close() error {
	return s.baseDB.Close()
}
