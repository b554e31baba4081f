// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package attestation records oracle-confirmed NFT ownership attestations for
// (account, collection) pairs. Attestations are requested on chain and
// finalized by an oracle callback.
package attestation

import (
	"errors"

	"github.com/luxfi/geth/common"

	"github.com/parsdao/shadowtrade/identity"
	"github.com/parsdao/shadowtrade/roles"
	"github.com/parsdao/shadowtrade/store"
)

var (
	ErrUnauthorizedCollection = errors.New("collection not authorized")
	ErrUnknownRequest         = errors.New("unknown verification request")
	ErrAlreadyComplete        = errors.New("verification request already complete")
	ErrAlreadyFinalized       = errors.New("attestation already finalized")
	ErrRequestPending         = errors.New("verification request pending")
	ErrInvalidCollection      = errors.New("invalid collection address")
)

var (
	prefixAllowList   = []byte("attest/allow")
	prefixAttestation = []byte("attest/record")
	prefixPending     = []byte("attest/pending")
	prefixLive        = []byte("attest/live")
	nonceSlot         = store.Key([]byte("attest/nonce"))
)

const (
	fieldVerified byte = iota
	fieldFinalized
	fieldVerifiedAt
)

const (
	fieldAccount byte = iota
	fieldCollection
	fieldRequestedAt
	fieldComplete
)

// Record is the attestation of an (account, collection) pair.
type Record struct {
	Verified   bool
	Finalized  bool
	VerifiedAt uint64
}

// Pending is a verification request. Exists reports whether the id was ever
// issued.
type Pending struct {
	Account     common.Address
	Collection  common.Address
	RequestedAt uint64
	Complete    bool
	Exists      bool
}

type Registry struct {
	st    store.Store
	ids   *identity.Registry
	roles roles.Checker
}

func New(st store.Store, ids *identity.Registry, checker roles.Checker) *Registry {
	return &Registry{st: st, ids: ids, roles: checker}
}

func recordKey(account, collection common.Address) common.Hash {
	return store.Key(prefixAttestation, account.Bytes(), collection.Bytes())
}

func pendingKey(id common.Hash) common.Hash {
	return store.Key(prefixPending, id[:])
}

func liveKey(account, collection common.Address) common.Hash {
	return store.Key(prefixLive, account.Bytes(), collection.Bytes())
}

// Authorize adds or removes collection from the allow-list.
func (r *Registry) Authorize(caller, collection common.Address, authorized bool) error {
	if !r.roles.HasRole(caller, roles.RoleAdmin) {
		return roles.ErrUnauthorized
	}
	if collection == (common.Address{}) {
		return ErrInvalidCollection
	}
	r.st.SetBool(store.Key(prefixAllowList, collection.Bytes()), authorized)
	return nil
}

func (r *Registry) IsAuthorized(collection common.Address) bool {
	return r.st.GetBool(store.Key(prefixAllowList, collection.Bytes()))
}

// RequestVerification opens a verification request for account's ownership
// of collection and returns its id.
func (r *Registry) RequestVerification(account, collection common.Address, now uint64) (common.Hash, error) {
	if !r.ids.IsRegistered(account) {
		return common.Hash{}, identity.ErrNotRegistered
	}
	if !r.IsAuthorized(collection) {
		return common.Hash{}, ErrUnauthorizedCollection
	}
	if r.Get(account, collection).Finalized {
		return common.Hash{}, ErrAlreadyFinalized
	}
	if live := r.st.Get(liveKey(account, collection)); live != (common.Hash{}) {
		return common.Hash{}, ErrRequestPending
	}

	nonce := r.st.NextNonce(nonceSlot)
	id := store.Key([]byte("attest/request-id"), r.st.Address().Bytes(), account.Bytes(), collection.Bytes(), store.Uint64Bytes(nonce))

	base := pendingKey(id)
	r.st.SetAddress(store.Field(base, fieldAccount), account)
	r.st.SetAddress(store.Field(base, fieldCollection), collection)
	r.st.SetUint64(store.Field(base, fieldRequestedAt), now)
	r.st.Set(liveKey(account, collection), id)
	return id, nil
}

// OnVerificationCallback finalizes request id with the oracle's verdict.
func (r *Registry) OnVerificationCallback(caller common.Address, id common.Hash, verified bool, now uint64) (Pending, error) {
	if !r.roles.HasRole(caller, roles.RoleOracle) {
		return Pending{}, roles.ErrUnauthorized
	}
	p := r.Pending(id)
	if !p.Exists {
		return Pending{}, ErrUnknownRequest
	}
	if p.Complete {
		return Pending{}, ErrAlreadyComplete
	}

	rec := recordKey(p.Account, p.Collection)
	r.st.SetBool(store.Field(rec, fieldVerified), verified)
	r.st.SetBool(store.Field(rec, fieldFinalized), true)
	r.st.SetUint64(store.Field(rec, fieldVerifiedAt), now)

	r.st.SetBool(store.Field(pendingKey(id), fieldComplete), true)
	r.st.Clear(liveKey(p.Account, p.Collection))

	p.Complete = true
	return p, nil
}

func (r *Registry) Get(account, collection common.Address) Record {
	base := recordKey(account, collection)
	at, _ := r.st.GetUint64(store.Field(base, fieldVerifiedAt))
	return Record{
		Verified:   r.st.GetBool(store.Field(base, fieldVerified)),
		Finalized:  r.st.GetBool(store.Field(base, fieldFinalized)),
		VerifiedAt: at,
	}
}

// IsVerified reports whether a finalized positive attestation exists.
func (r *Registry) IsVerified(account, collection common.Address) bool {
	rec := r.Get(account, collection)
	return rec.Finalized && rec.Verified
}

func (r *Registry) Pending(id common.Hash) Pending {
	base := pendingKey(id)
	at, exists := r.st.GetUint64(store.Field(base, fieldRequestedAt))
	if !exists {
		return Pending{}
	}
	return Pending{
		Account:     r.st.GetAddress(store.Field(base, fieldAccount)),
		Collection:  r.st.GetAddress(store.Field(base, fieldCollection)),
		RequestedAt: at,
		Complete:    r.st.GetBool(store.Field(base, fieldComplete)),
		Exists:      true,
	}
}
