// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package trade

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/luxfi/database/memdb"
	"github.com/luxfi/geth/common"
	"github.com/stretchr/testify/require"

	"github.com/parsdao/shadowtrade/fhe"
	"github.com/parsdao/shadowtrade/identity"
	"github.com/parsdao/shadowtrade/pricing"
	"github.com/parsdao/shadowtrade/roles"
	"github.com/parsdao/shadowtrade/statedb"
	"github.com/parsdao/shadowtrade/store"
	"github.com/parsdao/shadowtrade/token"
)

var (
	contractAddr = common.HexToAddress("0x0000000000000000000000000000000000009400")
	treasury     = common.HexToAddress("0x7ea5000000000000000000000000000000000001")
	admin        = common.HexToAddress("0xad00000000000000000000000000000000000001")
	alice        = common.HexToAddress("0x1111111111111111111111111111111111111111")
	bob          = common.HexToAddress("0x2222222222222222222222222222222222222222")
	assetX       = common.HexToAddress("0xa55e700000000000000000000000000000000001")
)

type fixture struct {
	engine  *Engine
	payment *token.Ledger
	state   *statedb.StateDB
}

func units(n uint64) *uint256.Int {
	return new(uint256.Int).Mul(uint256.NewInt(n), pricing.AmountScale)
}

func newFixture(t *testing.T) *fixture {
	db := memdb.New()
	t.Cleanup(func() { db.Close() })
	state := statedb.New(db)
	st := store.New(state, contractAddr)

	r := roles.New(st)
	require.NoError(t, r.Initialize(admin))

	signer, err := fhe.GenerateSigner(nil)
	require.NoError(t, err)
	ids := identity.New(st, signer.Verifier())
	handle := fhe.NewHandle([]byte("alice"), fhe.TypeEaddress)
	proof, err := signer.SignInput(handle, alice, contractAddr)
	require.NoError(t, err)
	require.NoError(t, ids.Register(alice, handle, proof, 1))

	prices := pricing.New(st, r)
	require.NoError(t, prices.SetPrice(admin, assetX, uint256.NewInt(2_000_000)))

	payment := token.New(state, token.PaymentTokenAddress, nil)
	require.NoError(t, payment.Mint(alice, uint256.NewInt(1_000_000_000)))
	require.NoError(t, payment.Mint(bob, uint256.NewInt(1_000_000_000)))

	return &fixture{
		engine:  New(st, ids, prices, payment, treasury),
		payment: payment,
		state:   state,
	}
}

func TestPurchase(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.payment.Approve(alice, contractAddr, uint256.NewInt(1_000_000_000)))

	paid, err := f.engine.Purchase(alice, assetX, units(100))
	require.NoError(t, err)
	require.Equal(t, uint64(200_000_000), paid.Uint64())

	require.Equal(t, units(100), f.engine.Balance(alice, assetX))
	require.Equal(t, units(100), f.engine.Outstanding(assetX))
	require.Equal(t, uint64(200_000_000), f.payment.BalanceOf(treasury).Uint64())
	require.Equal(t, uint64(800_000_000), f.payment.BalanceOf(alice).Uint64())

	_, err = f.engine.Purchase(alice, assetX, units(50))
	require.NoError(t, err)
	require.Equal(t, units(150), f.engine.Balance(alice, assetX))
}

func TestPurchaseFailuresLeaveNoEffect(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.payment.Approve(alice, contractAddr, uint256.NewInt(100_000_000)))
	require.NoError(t, f.payment.Approve(bob, contractAddr, uint256.NewInt(1_000_000_000)))

	tests := []struct {
		name    string
		account common.Address
		asset   common.Address
		amount  *uint256.Int
		err     error
	}{
		{"unregistered", bob, assetX, units(1), identity.ErrNotRegistered},
		{"unpriced asset", alice, common.HexToAddress("0xbeef"), units(1), pricing.ErrUnknownAsset},
		{"zero amount", alice, assetX, new(uint256.Int), ErrZeroAmount},
		{"payment rounds to zero", alice, assetX, uint256.NewInt(1), ErrZeroAmount},
		{"allowance too small", alice, assetX, units(51), ErrInsufficientFunds},
		{"balance too small", alice, assetX, units(501), ErrInsufficientFunds},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.engine.Purchase(tt.account, tt.asset, tt.amount)
			require.ErrorIs(t, err, tt.err)
			require.True(t, f.engine.Balance(tt.account, tt.asset).IsZero())
			require.True(t, f.payment.BalanceOf(treasury).IsZero())
		})
	}
}

func TestDrain(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.payment.Approve(alice, contractAddr, uint256.NewInt(1_000_000_000)))
	_, err := f.engine.Purchase(alice, assetX, units(100))
	require.NoError(t, err)

	amount, err := f.engine.Drain(alice, assetX)
	require.NoError(t, err)
	require.Equal(t, units(100), amount)
	require.True(t, f.engine.Balance(alice, assetX).IsZero())
	require.True(t, f.engine.Outstanding(assetX).IsZero())

	_, err = f.engine.Drain(alice, assetX)
	require.ErrorIs(t, err, ErrZeroBalance)
}

func TestBalanceEqualsSumOfPurchasesMinusWithdrawals(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.payment.Approve(alice, contractAddr, uint256.NewInt(1_000_000_000)))

	expected := new(uint256.Int)
	for _, n := range []uint64{3, 7, 11, 19} {
		_, err := f.engine.Purchase(alice, assetX, units(n))
		require.NoError(t, err)
		expected.Add(expected, units(n))
		require.Equal(t, expected, f.engine.Balance(alice, assetX))
	}

	_, err := f.engine.Drain(alice, assetX)
	require.NoError(t, err)
	_, err = f.engine.Purchase(alice, assetX, units(5))
	require.NoError(t, err)
	require.Equal(t, units(5), f.engine.Balance(alice, assetX))
	require.Equal(t, units(5), f.engine.Outstanding(assetX))
}
