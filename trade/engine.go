// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package trade credits the purchase ledger of registered accounts against
// payment collected in the stable payment token.
package trade

import (
	"errors"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"

	"github.com/parsdao/shadowtrade/identity"
	"github.com/parsdao/shadowtrade/pricing"
	"github.com/parsdao/shadowtrade/store"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrZeroAmount        = errors.New("zero amount")
	ErrZeroBalance       = errors.New("zero balance")
	ErrOverflow          = errors.New("balance overflow")
)

var (
	prefixBalance     = []byte("trade/balance")
	prefixOutstanding = []byte("trade/outstanding")
)

// PaymentLedger is the payment token as seen by the engine.
type PaymentLedger interface {
	BalanceOf(owner common.Address) *uint256.Int
	Allowance(owner, spender common.Address) *uint256.Int
	TransferFrom(spender, from, to common.Address, amount *uint256.Int) error
}

type Engine struct {
	st       store.Store
	ids      *identity.Registry
	prices   *pricing.Table
	payment  PaymentLedger
	treasury common.Address
}

// New returns an engine whose contract address (st.Address()) acts as the
// payment spender, forwarding collected payment to treasury.
func New(st store.Store, ids *identity.Registry, prices *pricing.Table, payment PaymentLedger, treasury common.Address) *Engine {
	return &Engine{
		st:       st,
		ids:      ids,
		prices:   prices,
		payment:  payment,
		treasury: treasury,
	}
}

func balanceKey(account, asset common.Address) common.Hash {
	return store.Key(prefixBalance, account.Bytes(), asset.Bytes())
}

func outstandingKey(asset common.Address) common.Hash {
	return store.Key(prefixOutstanding, asset.Bytes())
}

// Purchase collects the payment for buyAmount of asset from account and
// credits the account's ledger entry. It returns the payment collected.
func (e *Engine) Purchase(account, asset common.Address, buyAmount *uint256.Int) (*uint256.Int, error) {
	if !e.ids.IsRegistered(account) {
		return nil, identity.ErrNotRegistered
	}
	payment, err := e.prices.Quote(asset, buyAmount)
	if err != nil {
		return nil, err
	}
	if buyAmount.IsZero() || payment.IsZero() {
		return nil, ErrZeroAmount
	}
	if e.payment.BalanceOf(account).Lt(payment) || e.payment.Allowance(account, e.st.Address()).Lt(payment) {
		return nil, ErrInsufficientFunds
	}
	balance, overflow := new(uint256.Int).AddOverflow(e.Balance(account, asset), buyAmount)
	if overflow {
		return nil, ErrOverflow
	}
	outstanding, overflow := new(uint256.Int).AddOverflow(e.Outstanding(asset), buyAmount)
	if overflow {
		return nil, ErrOverflow
	}

	if err := e.payment.TransferFrom(e.st.Address(), account, e.treasury, payment); err != nil {
		return nil, err
	}
	e.st.SetUint256(balanceKey(account, asset), balance)
	e.st.SetUint256(outstandingKey(asset), outstanding)
	return payment, nil
}

func (e *Engine) Balance(account, asset common.Address) *uint256.Int {
	return e.st.GetUint256(balanceKey(account, asset))
}

// Outstanding is the total ledger balance of asset across all accounts.
func (e *Engine) Outstanding(asset common.Address) *uint256.Int {
	return e.st.GetUint256(outstandingKey(asset))
}

// Drain zeroes the entry of (account, asset) and returns the amount removed.
func (e *Engine) Drain(account, asset common.Address) (*uint256.Int, error) {
	amount := e.Balance(account, asset)
	if amount.IsZero() {
		return nil, ErrZeroBalance
	}
	e.st.Clear(balanceKey(account, asset))
	e.st.SetUint256(outstandingKey(asset), new(uint256.Int).Sub(e.Outstanding(asset), amount))
	return amount, nil
}
