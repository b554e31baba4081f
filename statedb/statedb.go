// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package statedb implements contract.StateDB over a key-value database with
// a write journal, so that a failed call can be rolled back to a snapshot.
package statedb

import (
	"errors"
	"fmt"

	"github.com/luxfi/database"
	"github.com/luxfi/geth/common"
	ethtypes "github.com/luxfi/geth/core/types"

	"github.com/parsdao/shadowtrade/contract"
)

var _ contract.StateDB = (*StateDB)(nil)

var ErrInvalidSnapshot = errors.New("invalid snapshot id")

type journalEntry struct {
	addr common.Address
	key  common.Hash
	prev common.Hash
}

type snapshot struct {
	journalLen int
	logsLen    int
}

// StateDB persists contract storage in db. It is not safe for concurrent use;
// callers serialize transactions.
type StateDB struct {
	db        database.Database
	journal   []journalEntry
	snapshots []snapshot
	logs      []*ethtypes.Log
	dbErr     error
}

func New(db database.Database) *StateDB {
	return &StateDB{db: db}
}

func storageKey(addr common.Address, key common.Hash) []byte {
	k := make([]byte, 0, common.AddressLength+common.HashLength)
	k = append(k, addr.Bytes()...)
	return append(k, key.Bytes()...)
}

func (s *StateDB) GetState(addr common.Address, key common.Hash) common.Hash {
	val, err := s.db.Get(storageKey(addr, key))
	if err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			s.setError(fmt.Errorf("get %s/%s: %w", addr, key, err))
		}
		return common.Hash{}
	}
	return common.BytesToHash(val)
}

func (s *StateDB) SetState(addr common.Address, key, value common.Hash) common.Hash {
	prev := s.GetState(addr, key)
	if prev == value {
		return prev
	}
	s.journal = append(s.journal, journalEntry{addr: addr, key: key, prev: prev})
	s.write(addr, key, value)
	return prev
}

func (s *StateDB) write(addr common.Address, key, value common.Hash) {
	var err error
	if value == (common.Hash{}) {
		err = s.db.Delete(storageKey(addr, key))
	} else {
		err = s.db.Put(storageKey(addr, key), value.Bytes())
	}
	if err != nil {
		s.setError(fmt.Errorf("write %s/%s: %w", addr, key, err))
	}
}

func (s *StateDB) AddLog(log *ethtypes.Log) {
	log.Index = uint(len(s.logs))
	s.logs = append(s.logs, log)
}

// Logs returns the logs emitted since the last Commit.
func (s *StateDB) Logs() []*ethtypes.Log {
	return s.logs
}

// Snapshot returns an id that RevertToSnapshot can roll back to.
func (s *StateDB) Snapshot() int {
	s.snapshots = append(s.snapshots, snapshot{journalLen: len(s.journal), logsLen: len(s.logs)})
	return len(s.snapshots) - 1
}

// RevertToSnapshot undoes every write and log recorded after snapshot id.
func (s *StateDB) RevertToSnapshot(id int) {
	if id < 0 || id >= len(s.snapshots) {
		s.setError(fmt.Errorf("%w: %d", ErrInvalidSnapshot, id))
		return
	}
	snap := s.snapshots[id]
	for i := len(s.journal) - 1; i >= snap.journalLen; i-- {
		entry := s.journal[i]
		s.write(entry.addr, entry.key, entry.prev)
	}
	s.journal = s.journal[:snap.journalLen]
	s.logs = s.logs[:snap.logsLen]
	s.snapshots = s.snapshots[:id]
}

// Commit finalizes the current transaction: the journal is dropped and the
// emitted logs are returned to the caller.
func (s *StateDB) Commit() ([]*ethtypes.Log, error) {
	if err := s.dbErr; err != nil {
		s.dbErr = nil
		return nil, err
	}
	logs := s.logs
	s.journal = nil
	s.snapshots = nil
	s.logs = nil
	return logs, nil
}

// Error returns the first database error hit since the last Commit.
func (s *StateDB) Error() error {
	return s.dbErr
}

func (s *StateDB) setError(err error) {
	if s.dbErr == nil {
		s.dbErr = err
	}
}
