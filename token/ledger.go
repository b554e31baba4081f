// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package token implements the minimal fungible ledger used as the payment
// token and as asset custody. Each token's balances live in the storage of
// the token's own address.
package token

import (
	"errors"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"

	"github.com/parsdao/shadowtrade/contract"
	"github.com/parsdao/shadowtrade/store"
)

var (
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
	ErrZeroAddress           = errors.New("zero address")
	ErrOverflow              = errors.New("supply overflow")
)

var (
	prefixBalance   = []byte("token/balance")
	prefixAllowance = []byte("token/allowance")
	totalSupplySlot = store.Key([]byte("token/supply"))
)

// Ledger is a view of one token's balances.
type Ledger struct {
	st     store.Store
	events Emitter
}

// Emitter receives transfer and approval notifications. A nil Emitter
// discards them. An Emitter error fails the ledger operation.
type Emitter interface {
	Transfer(token, from, to common.Address, amount *uint256.Int) error
	Approval(token, owner, spender common.Address, amount *uint256.Int) error
}

// New returns the ledger of the token at address tokenAddr.
func New(state contract.StateDB, tokenAddr common.Address, events Emitter) *Ledger {
	return &Ledger{st: store.New(state, tokenAddr), events: events}
}

func (l *Ledger) Address() common.Address { return l.st.Address() }

func balanceKey(owner common.Address) common.Hash {
	return store.Key(prefixBalance, owner.Bytes())
}

func allowanceKey(owner, spender common.Address) common.Hash {
	return store.Key(prefixAllowance, owner.Bytes(), spender.Bytes())
}

func (l *Ledger) BalanceOf(owner common.Address) *uint256.Int {
	return l.st.GetUint256(balanceKey(owner))
}

func (l *Ledger) Allowance(owner, spender common.Address) *uint256.Int {
	return l.st.GetUint256(allowanceKey(owner, spender))
}

func (l *Ledger) TotalSupply() *uint256.Int {
	return l.st.GetUint256(totalSupplySlot)
}

func (l *Ledger) Approve(owner, spender common.Address, amount *uint256.Int) error {
	if owner == (common.Address{}) || spender == (common.Address{}) {
		return ErrZeroAddress
	}
	l.st.SetUint256(allowanceKey(owner, spender), amount)
	if l.events != nil {
		return l.events.Approval(l.Address(), owner, spender, amount)
	}
	return nil
}

func (l *Ledger) Transfer(from, to common.Address, amount *uint256.Int) error {
	if to == (common.Address{}) {
		return ErrZeroAddress
	}
	fromBal := l.BalanceOf(from)
	if fromBal.Lt(amount) {
		return ErrInsufficientBalance
	}
	l.st.SetUint256(balanceKey(from), new(uint256.Int).Sub(fromBal, amount))
	// cannot overflow: supply bounds every balance
	toBal := l.BalanceOf(to)
	l.st.SetUint256(balanceKey(to), new(uint256.Int).Add(toBal, amount))
	if l.events != nil {
		return l.events.Transfer(l.Address(), from, to, amount)
	}
	return nil
}

// TransferFrom moves amount from owner to to, spending spender's allowance.
func (l *Ledger) TransferFrom(spender, from, to common.Address, amount *uint256.Int) error {
	allowance := l.Allowance(from, spender)
	if allowance.Lt(amount) {
		return ErrInsufficientAllowance
	}
	if l.BalanceOf(from).Lt(amount) {
		return ErrInsufficientBalance
	}
	if err := l.Transfer(from, to, amount); err != nil {
		return err
	}
	l.st.SetUint256(allowanceKey(from, spender), new(uint256.Int).Sub(allowance, amount))
	return nil
}

// Mint credits amount to to and grows the supply.
func (l *Ledger) Mint(to common.Address, amount *uint256.Int) error {
	if to == (common.Address{}) {
		return ErrZeroAddress
	}
	supply, overflow := new(uint256.Int).AddOverflow(l.TotalSupply(), amount)
	if overflow {
		return ErrOverflow
	}
	l.st.SetUint256(totalSupplySlot, supply)
	l.st.SetUint256(balanceKey(to), new(uint256.Int).Add(l.BalanceOf(to), amount))
	if l.events != nil {
		return l.events.Transfer(l.Address(), common.Address{}, to, amount)
	}
	return nil
}
