// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package reward records one-time reward allocations for accounts holding a
// verified attestation for a collection. Distribution of the reward is done
// off chain; the ledger only tracks what is owed and what was claimed.
package reward

import (
	"errors"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"

	"github.com/parsdao/shadowtrade/attestation"
	"github.com/parsdao/shadowtrade/roles"
	"github.com/parsdao/shadowtrade/store"
)

var (
	ErrAlreadyRecorded = errors.New("reward already recorded")
	ErrNoAttestation   = errors.New("no verified attestation")
	ErrNoReward        = errors.New("no reward recorded")
	ErrAlreadyClaimed  = errors.New("reward already claimed")
	ErrOverflow        = errors.New("reward total overflow")
)

// DefaultAmount is 1000 reward units with 18 decimals.
var DefaultAmount = uint256.MustFromDecimal("1000000000000000000000")

var (
	prefixReward = []byte("reward/record")
	prefixAmount = []byte("reward/amount")
	prefixTotal  = []byte("reward/total")
)

const (
	fieldAmount byte = iota
	fieldClaimed
	fieldRecordedAt
)

// Record is the reward allocation of an (account, collection) pair.
type Record struct {
	Amount     *uint256.Int
	Claimed    bool
	RecordedAt uint64
	Exists     bool
}

type Ledger struct {
	st     store.Store
	attest *attestation.Registry
	roles  roles.Checker
}

func New(st store.Store, attest *attestation.Registry, checker roles.Checker) *Ledger {
	return &Ledger{st: st, attest: attest, roles: checker}
}

func recordKey(account, collection common.Address) common.Hash {
	return store.Key(prefixReward, account.Bytes(), collection.Bytes())
}

// SetAmount overrides the reward for collection. A zero amount restores the
// default.
func (l *Ledger) SetAmount(caller, collection common.Address, amount *uint256.Int) error {
	if !l.roles.HasRole(caller, roles.RoleAdmin) {
		return roles.ErrUnauthorized
	}
	if collection == (common.Address{}) {
		return attestation.ErrInvalidCollection
	}
	l.st.SetUint256(store.Key(prefixAmount, collection.Bytes()), amount)
	return nil
}

// Amount returns the reward paid for collection, or zero while the
// collection is not allow-listed.
func (l *Ledger) Amount(collection common.Address) *uint256.Int {
	if !l.attest.IsAuthorized(collection) {
		return new(uint256.Int)
	}
	amount := l.st.GetUint256(store.Key(prefixAmount, collection.Bytes()))
	if amount.IsZero() {
		return new(uint256.Int).Set(DefaultAmount)
	}
	return amount
}

// RecordReward allocates the collection reward to account. It requires a
// finalized positive attestation for a collection that is still
// allow-listed and succeeds at most once per pair.
func (l *Ledger) RecordReward(account, collection common.Address, now uint64) (*uint256.Int, error) {
	if !l.attest.IsVerified(account, collection) {
		return nil, ErrNoAttestation
	}
	if !l.attest.IsAuthorized(collection) {
		return nil, attestation.ErrUnauthorizedCollection
	}
	base := recordKey(account, collection)
	if _, recorded := l.st.GetUint64(store.Field(base, fieldRecordedAt)); recorded {
		return nil, ErrAlreadyRecorded
	}

	amount := l.Amount(collection)
	totalKey := store.Key(prefixTotal, account.Bytes())
	total, overflow := new(uint256.Int).AddOverflow(l.st.GetUint256(totalKey), amount)
	if overflow {
		return nil, ErrOverflow
	}

	l.st.SetUint256(store.Field(base, fieldAmount), amount)
	l.st.SetUint64(store.Field(base, fieldRecordedAt), now)
	l.st.SetUint256(totalKey, total)
	return amount, nil
}

func (l *Ledger) Get(account, collection common.Address) Record {
	base := recordKey(account, collection)
	at, exists := l.st.GetUint64(store.Field(base, fieldRecordedAt))
	if !exists {
		return Record{Amount: new(uint256.Int)}
	}
	return Record{
		Amount:     l.st.GetUint256(store.Field(base, fieldAmount)),
		Claimed:    l.st.GetBool(store.Field(base, fieldClaimed)),
		RecordedAt: at,
		Exists:     true,
	}
}

// Total is the sum of all rewards recorded for account.
func (l *Ledger) Total(account common.Address) *uint256.Int {
	return l.st.GetUint256(store.Key(prefixTotal, account.Bytes()))
}

func (l *Ledger) HasUnclaimed(account, collection common.Address) bool {
	rec := l.Get(account, collection)
	return rec.Exists && !rec.Claimed
}

// MarkClaimed flags a recorded reward as distributed.
func (l *Ledger) MarkClaimed(caller, account, collection common.Address) error {
	if !l.roles.HasRole(caller, roles.RoleAdmin) {
		return roles.ErrUnauthorized
	}
	rec := l.Get(account, collection)
	if !rec.Exists {
		return ErrNoReward
	}
	if rec.Claimed {
		return ErrAlreadyClaimed
	}
	l.st.SetBool(store.Field(recordKey(account, collection), fieldClaimed), true)
	return nil
}
