// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package pricing keeps the administrator-maintained unit price of each
// tradable asset, denominated in the payment token.
package pricing

import (
	"errors"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"

	"github.com/parsdao/shadowtrade/roles"
	"github.com/parsdao/shadowtrade/store"
)

const (
	// AmountDecimals is the precision of asset amounts.
	AmountDecimals = 18
	// PriceDecimals is the precision of unit prices (payment token units).
	PriceDecimals = 6
)

// AmountScale is 10^AmountDecimals.
var AmountScale = uint256.NewInt(1_000_000_000_000_000_000)

var (
	ErrUnknownAsset = errors.New("unknown asset")
	ErrInvalidAsset = errors.New("invalid asset address")
	ErrOverflow     = errors.New("arithmetic overflow")
)

var prefixPrice = []byte("price")

type Table struct {
	st    store.Store
	roles roles.Checker
}

func New(st store.Store, checker roles.Checker) *Table {
	return &Table{st: st, roles: checker}
}

// SetPrice overwrites the unit price of asset. A zero price delists it.
func (t *Table) SetPrice(caller, asset common.Address, price *uint256.Int) error {
	if !t.roles.HasRole(caller, roles.RoleAdmin) {
		return roles.ErrUnauthorized
	}
	if asset == (common.Address{}) {
		return ErrInvalidAsset
	}
	t.st.SetUint256(store.Key(prefixPrice, asset.Bytes()), price)
	return nil
}

// Price returns the unit price of asset, zero when unpriced.
func (t *Table) Price(asset common.Address) *uint256.Int {
	return t.st.GetUint256(store.Key(prefixPrice, asset.Bytes()))
}

// Quote returns the payment due for buyAmount of asset:
// buyAmount * price / 10^18.
func (t *Table) Quote(asset common.Address, buyAmount *uint256.Int) (*uint256.Int, error) {
	price := t.Price(asset)
	if price.IsZero() {
		return nil, ErrUnknownAsset
	}
	return PaymentFor(buyAmount, price)
}

func PaymentFor(buyAmount, price *uint256.Int) (*uint256.Int, error) {
	payment, overflow := new(uint256.Int).MulDivOverflow(buyAmount, price, AmountScale)
	if overflow {
		return nil, ErrOverflow
	}
	return payment, nil
}
