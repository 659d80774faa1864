// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package simulator

import (
	"errors"

	"github.com/ava-labs/avalanchego/database"
)

const (
	IsLoadedKey byte = iota
	TransactionKey
)

var (
	isLoadedKey    = []byte{IsLoadedKey}
	transactionKey = []byte{TransactionKey}

	errRecordWrongVersion = errors.New("wrong version")

	_ TxState = (*txState)(nil)
)

// TxState stores the load marker and the transaction summary.
type TxState interface {
	IsLoaded() (bool, error)
	SetLoaded() error

	GetTransaction() (*TxRecord, error)
	PutTransaction(tx *TxRecord) error
}

type txState struct {
	singletonDB database.Database

	tx *TxRecord
}

func NewTxState(db database.Database) TxState {
	return &txState{
		singletonDB: db,
	}
}

func (s *txState) IsLoaded() (bool, error) {
	return s.singletonDB.Has(isLoadedKey)
}

func (s *txState) SetLoaded() error {
	return s.singletonDB.Put(isLoadedKey, nil)
}

func (s *txState) GetTransaction() (*TxRecord, error) {
	if s.tx != nil {
		return s.tx, nil
	}
	txBytes, err := s.singletonDB.Get(transactionKey)
	if err != nil {
		return nil, err
	}
	tx := &TxRecord{}
	parsedVersion, err := Codec.Unmarshal(txBytes, tx)
	if err != nil {
		return nil, err
	}
	if parsedVersion != CodecVersion {
		return nil, errRecordWrongVersion
	}
	s.tx = tx
	return tx, nil
}

func (s *txState) PutTransaction(tx *TxRecord) error {
	bytes, err := Codec.Marshal(CodecVersion, tx)
	if err != nil {
		return err
	}
	s.tx = tx
	return s.singletonDB.Put(transactionKey, bytes)
}
