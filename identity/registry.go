// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package identity stores one encrypted shadow identity per account.
package identity

import (
	"errors"

	"github.com/luxfi/geth/common"

	"github.com/parsdao/shadowtrade/fhe"
	"github.com/parsdao/shadowtrade/store"
)

var (
	ErrAlreadyRegistered = errors.New("already registered")
	ErrNotRegistered     = errors.New("not registered")
	ErrInvalidProof      = errors.New("invalid input proof")
	ErrInvalidHandle     = errors.New("invalid ciphertext handle")
)

var prefixIdentity = []byte("identity")

const (
	fieldHandle byte = iota
	fieldRegistered
	fieldRegisteredAt
)

// ShadowIdentity is the registration record of an account. The zero value is
// returned for accounts that never registered.
type ShadowIdentity struct {
	Handle       fhe.Handle
	IsRegistered bool
	RegisteredAt uint64
}

type Registry struct {
	st       store.Store
	verifier fhe.InputVerifier
}

// New returns a registry over st. Input proofs are checked by verifier
// against the store's contract address.
func New(st store.Store, verifier fhe.InputVerifier) *Registry {
	return &Registry{st: st, verifier: verifier}
}

func recordKey(account common.Address) common.Hash {
	return store.Key(prefixIdentity, account.Bytes())
}

// Register records handle as account's shadow identity. It succeeds once per
// account.
func (r *Registry) Register(account common.Address, handle fhe.Handle, inputProof []byte, now uint64) error {
	base := recordKey(account)
	if r.st.GetBool(store.Field(base, fieldRegistered)) {
		return ErrAlreadyRegistered
	}
	if handle.IsNull() || handle.Type() != fhe.TypeEaddress {
		return ErrInvalidHandle
	}
	if r.verifier == nil || !r.verifier.VerifyInput(handle, account, r.st.Address(), inputProof) {
		return ErrInvalidProof
	}

	r.st.Set(store.Field(base, fieldHandle), handle.Hash())
	r.st.SetBool(store.Field(base, fieldRegistered), true)
	r.st.SetUint64(store.Field(base, fieldRegisteredAt), now)
	return nil
}

func (r *Registry) Get(account common.Address) ShadowIdentity {
	base := recordKey(account)
	if !r.st.GetBool(store.Field(base, fieldRegistered)) {
		return ShadowIdentity{}
	}
	at, _ := r.st.GetUint64(store.Field(base, fieldRegisteredAt))
	return ShadowIdentity{
		Handle:       fhe.HandleFromHash(r.st.Get(store.Field(base, fieldHandle))),
		IsRegistered: true,
		RegisteredAt: at,
	}
}

func (r *Registry) IsRegistered(account common.Address) bool {
	return r.st.GetBool(store.Field(recordKey(account), fieldRegistered))
}

// Require returns the identity of a registered account or ErrNotRegistered.
func (r *Registry) Require(account common.Address) (ShadowIdentity, error) {
	id := r.Get(account)
	if !id.IsRegistered {
		return ShadowIdentity{}, ErrNotRegistered
	}
	return id, nil
}
