// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package roles implements role checks for privileged protocol calls. The
// Admin role is held by a single owner; the Oracle role is granted per account
// by the owner.
package roles

import (
	"errors"

	"github.com/luxfi/geth/common"

	"github.com/parsdao/shadowtrade/store"
)

type Role uint8

const (
	RoleAdmin Role = iota + 1
	RoleOracle
)

func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleOracle:
		return "oracle"
	default:
		return "unknown"
	}
}

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidRole  = errors.New("invalid role")
	ErrZeroAddress  = errors.New("zero address")
)

var (
	ownerSlot    = store.Key([]byte("roles/owner"))
	prefixGrants = []byte("roles/grant")
)

// Checker answers role membership questions.
type Checker interface {
	HasRole(account common.Address, role Role) bool
}

// Registry stores role assignments in contract storage.
type Registry struct {
	st store.Store
}

func New(st store.Store) *Registry {
	return &Registry{st: st}
}

func (r *Registry) Owner() common.Address {
	return r.st.GetAddress(ownerSlot)
}

func (r *Registry) HasRole(account common.Address, role Role) bool {
	if account == (common.Address{}) {
		return false
	}
	switch role {
	case RoleAdmin:
		return r.Owner() == account
	case RoleOracle:
		return r.st.GetBool(store.Key(prefixGrants, []byte{byte(role)}, account.Bytes()))
	default:
		return false
	}
}

// Require returns ErrUnauthorized unless account holds role.
func (r *Registry) Require(account common.Address, role Role) error {
	if !r.HasRole(account, role) {
		return ErrUnauthorized
	}
	return nil
}

// Initialize sets the owner when none is set yet. It is used at activation.
func (r *Registry) Initialize(owner common.Address) error {
	if owner == (common.Address{}) {
		return ErrZeroAddress
	}
	if r.Owner() != (common.Address{}) {
		return nil
	}
	r.st.SetAddress(ownerSlot, owner)
	return nil
}

func (r *Registry) TransferOwnership(caller, newOwner common.Address) error {
	if err := r.Require(caller, RoleAdmin); err != nil {
		return err
	}
	if newOwner == (common.Address{}) {
		return ErrZeroAddress
	}
	r.st.SetAddress(ownerSlot, newOwner)
	return nil
}

// Grant gives account a grantable role. Admin is not grantable; it moves only
// through TransferOwnership.
func (r *Registry) Grant(caller common.Address, role Role, account common.Address) error {
	return r.setGrant(caller, role, account, true)
}

func (r *Registry) Revoke(caller common.Address, role Role, account common.Address) error {
	return r.setGrant(caller, role, account, false)
}

func (r *Registry) setGrant(caller common.Address, role Role, account common.Address, granted bool) error {
	if err := r.Require(caller, RoleAdmin); err != nil {
		return err
	}
	if role != RoleOracle {
		return ErrInvalidRole
	}
	if account == (common.Address{}) {
		return ErrZeroAddress
	}
	r.st.SetBool(store.Key(prefixGrants, []byte{byte(role)}, account.Bytes()), granted)
	return nil
}
