// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package store provides typed access to the 32-byte storage slots of a
// single contract address. Composite keys are derived with blake3 so that
// (account, asset) style tuples map to independent slots.
package store

import (
	"encoding/binary"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/zeebo/blake3"

	"github.com/parsdao/shadowtrade/contract"
)

// Key derives a storage slot from a namespace prefix and key parts.
func Key(prefix []byte, parts ...[]byte) common.Hash {
	h := blake3.New()
	h.Write(prefix)
	for _, p := range parts {
		h.Write(p)
	}
	var key common.Hash
	h.Digest().Read(key[:])
	return key
}

// Field derives the slot of a numbered field of the record at base.
func Field(base common.Hash, field byte) common.Hash {
	return Key(base[:], []byte{field})
}

// Store reads and writes slots of one contract address.
type Store struct {
	state contract.StateDB
	addr  common.Address
}

func New(state contract.StateDB, addr common.Address) Store {
	return Store{state: state, addr: addr}
}

// Address returns the contract address the store is scoped to.
func (s Store) Address() common.Address { return s.addr }

// State returns the underlying state view.
func (s Store) State() contract.StateDB { return s.state }

func (s Store) Get(key common.Hash) common.Hash {
	return s.state.GetState(s.addr, key)
}

func (s Store) Set(key, value common.Hash) {
	s.state.SetState(s.addr, key, value)
}

func (s Store) Clear(key common.Hash) {
	s.state.SetState(s.addr, key, common.Hash{})
}

func (s Store) GetAddress(key common.Hash) common.Address {
	return common.BytesToAddress(s.Get(key).Bytes())
}

func (s Store) SetAddress(key common.Hash, addr common.Address) {
	var val common.Hash
	copy(val[12:], addr.Bytes())
	s.Set(key, val)
}

func (s Store) GetUint256(key common.Hash) *uint256.Int {
	val := s.Get(key)
	return new(uint256.Int).SetBytes32(val[:])
}

func (s Store) SetUint256(key common.Hash, v *uint256.Int) {
	s.Set(key, common.Hash(v.Bytes32()))
}

// GetUint64 returns the value and whether it was ever written.
func (s Store) GetUint64(key common.Hash) (uint64, bool) {
	val := s.Get(key)
	if val[0] != 1 {
		return 0, false
	}
	return binary.BigEndian.Uint64(val[24:]), true
}

// SetUint64 writes v with a presence marker so that zero is distinguishable
// from an unset slot.
func (s Store) SetUint64(key common.Hash, v uint64) {
	var val common.Hash
	val[0] = 1
	binary.BigEndian.PutUint64(val[24:], v)
	s.Set(key, val)
}

func (s Store) GetBool(key common.Hash) bool {
	return s.Get(key)[31] == 1
}

func (s Store) SetBool(key common.Hash, v bool) {
	var val common.Hash
	if v {
		val[31] = 1
	}
	s.Set(key, val)
}

func (s Store) GetUint8(key common.Hash) uint8 {
	return s.Get(key)[31]
}

func (s Store) SetUint8(key common.Hash, v uint8) {
	var val common.Hash
	val[31] = v
	s.Set(key, val)
}

// NextNonce increments the counter at key and returns the new value.
func (s Store) NextNonce(key common.Hash) uint64 {
	n, _ := s.GetUint64(key)
	n++
	s.SetUint64(key, n)
	return n
}

// Uint64Bytes encodes v for use as a key part.
func Uint64Bytes(v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return b[:]
}
