// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package reveal

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
	"github.com/parsdao/shadowtrade/trade"
)

var (
	contractAddr = common.HexToAddress("0x0000000000000000000000000000000000009400")
	admin        = common.HexToAddress("0xad00000000000000000000000000000000000001")
	oracle       = common.HexToAddress("0x0c00000000000000000000000000000000000001")
	alice        = common.HexToAddress("0x1111111111111111111111111111111111111111")
	bob          = common.HexToAddress("0x2222222222222222222222222222222222222222")
	aliceProxy   = common.HexToAddress("0xa11ce00000000000000000000000000000000001")
	bobProxy     = common.HexToAddress("0xb0b0000000000000000000000000000000000001")
	assetX       = common.HexToAddress("0xa55e700000000000000000000000000000000001")
)

type fixture struct {
	state     *statedb.StateDB
	ids       *identity.Registry
	engine    *trade.Engine
	coord     *Coordinator
	payment   *token.Ledger
	kmsSigner *fhe.Signer
	handles   map[common.Address]fhe.Handle
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
	require.NoError(t, r.Grant(admin, roles.RoleOracle, oracle))

	coprocessor, err := fhe.GenerateSigner(nil)
	require.NoError(t, err)
	kmsSigner, err := fhe.GenerateSigner(nil)
	require.NoError(t, err)

	ids := identity.New(st, coprocessor.Verifier())
	handles := make(map[common.Address]fhe.Handle)
	for _, account := range []common.Address{alice, bob} {
		h := fhe.NewHandle(account.Bytes(), fhe.TypeEaddress)
		proof, err := coprocessor.SignInput(h, account, contractAddr)
		require.NoError(t, err)
		require.NoError(t, ids.Register(account, h, proof, 1))
		handles[account] = h
	}

	prices := pricing.New(st, r)
	require.NoError(t, prices.SetPrice(admin, assetX, uint256.NewInt(2_000_000)))

	payment := token.New(state, token.PaymentTokenAddress, nil)
	require.NoError(t, payment.Mint(alice, uint256.NewInt(1_000_000_000)))
	require.NoError(t, payment.Approve(alice, contractAddr, uint256.NewInt(1_000_000_000)))

	// inventory the protocol pays withdrawals from
	require.NoError(t, token.New(state, assetX, nil).Mint(contractAddr, units(1_000)))

	engine := trade.New(st, ids, prices, payment, contractAddr)
	coord := New(st, ids, engine, r, kmsSigner.Verifier(), func(asset common.Address) Custody {
		return token.New(state, asset, nil)
	})
	return &fixture{
		state:     state,
		ids:       ids,
		engine:    engine,
		coord:     coord,
		payment:   payment,
		kmsSigner: kmsSigner,
		handles:   handles,
	}
}

func (f *fixture) sign(t *testing.T, req Request, plaintext common.Address) []byte {
	proof, err := f.kmsSigner.SignDecryption(req.ID, req.Handle, plaintext)
	require.NoError(t, err)
	return proof
}

func TestRevealAndWithdrawScenario(t *testing.T) {
	f := newFixture(t)

	paid, err := f.engine.Purchase(alice, assetX, units(100))
	require.NoError(t, err)
	require.Equal(t, uint64(200_000_000), paid.Uint64())
	require.Equal(t, units(100), f.engine.Balance(alice, assetX))

	require.Equal(t, StateRegistered, f.coord.State(alice))
	req, err := f.coord.RequestDecryption(alice, 10)
	require.NoError(t, err)
	require.Equal(t, f.handles[alice], req.Handle)
	require.Equal(t, StateDecryptionRequested, f.coord.State(alice))

	// pending reveal does not unlock withdrawal
	_, err = f.coord.Withdraw(aliceProxy, assetX)
	require.ErrorIs(t, err, ErrNotRevealed)

	account, err := f.coord.OnDecryptionCallback(oracle, req.ID, aliceProxy, f.sign(t, req, aliceProxy), 20)
	require.NoError(t, err)
	require.Equal(t, alice, account)
	require.Equal(t, StateRevealed, f.coord.State(alice))

	resolved, ok := f.coord.ResolveProxy(aliceProxy)
	require.True(t, ok)
	require.Equal(t, alice, resolved)

	rec := f.coord.Record(alice)
	require.Equal(t, aliceProxy, rec.Proxy)
	require.Equal(t, uint64(10), rec.RequestedAt)
	require.Equal(t, uint64(20), rec.RevealedAt)

	amount, err := f.coord.Withdraw(aliceProxy, assetX)
	require.NoError(t, err)
	require.Equal(t, units(100), amount)
	require.True(t, f.engine.Balance(alice, assetX).IsZero())
	require.Equal(t, units(100), token.New(f.state, assetX, nil).BalanceOf(aliceProxy))

	_, err = f.coord.Withdraw(aliceProxy, assetX)
	require.ErrorIs(t, err, ErrZeroBalance)
}

func TestRequestDecryptionPreconditions(t *testing.T) {
	f := newFixture(t)
	stranger := common.HexToAddress("0x3333333333333333333333333333333333333333")

	_, err := f.coord.RequestDecryption(stranger, 1)
	require.ErrorIs(t, err, identity.ErrNotRegistered)
	require.Equal(t, StateUnregistered, f.coord.State(stranger))

	req, err := f.coord.RequestDecryption(alice, 1)
	require.NoError(t, err)
	_, err = f.coord.OnDecryptionCallback(oracle, req.ID, aliceProxy, f.sign(t, req, aliceProxy), 2)
	require.NoError(t, err)

	_, err = f.coord.RequestDecryption(alice, 3)
	require.ErrorIs(t, err, ErrAlreadyRevealed)
}

func TestReRequestSupersedes(t *testing.T) {
	f := newFixture(t)

	first, err := f.coord.RequestDecryption(alice, 1)
	require.NoError(t, err)
	second, err := f.coord.RequestDecryption(alice, 2)
	require.NoError(t, err)
	require.NotEqual(t, first.ID, second.ID)

	require.Equal(t, StatusSuperseded, f.coord.Request(first.ID).Status)
	require.Equal(t, StatusPending, f.coord.Request(second.ID).Status)
	require.Equal(t, second.ID, f.coord.Record(alice).RequestID)

	// the superseded request can no longer resolve the account
	_, err = f.coord.OnDecryptionCallback(oracle, first.ID, aliceProxy, f.sign(t, first, aliceProxy), 3)
	require.ErrorIs(t, err, ErrUnknownRequest)
	require.Equal(t, StateDecryptionRequested, f.coord.State(alice))

	_, err = f.coord.OnDecryptionCallback(oracle, second.ID, aliceProxy, f.sign(t, second, aliceProxy), 4)
	require.NoError(t, err)
}

func TestCallbackValidation(t *testing.T) {
	f := newFixture(t)
	req, err := f.coord.RequestDecryption(alice, 1)
	require.NoError(t, err)
	bobReq, err := f.coord.RequestDecryption(bob, 1)
	require.NoError(t, err)

	tests := []struct {
		name      string
		caller    common.Address
		id        common.Hash
		plaintext common.Address
		proof     []byte
		err       error
	}{
		{"not oracle", alice, req.ID, aliceProxy, f.sign(t, req, aliceProxy), roles.ErrUnauthorized},
		{"unknown id", oracle, common.HexToHash("0x1234"), aliceProxy, f.sign(t, req, aliceProxy), ErrUnknownRequest},
		{"zero plaintext", oracle, req.ID, common.Address{}, f.sign(t, req, common.Address{}), ErrInvalidProxy},
		{"proof for other plaintext", oracle, req.ID, aliceProxy, f.sign(t, req, bobProxy), ErrProofInvalid},
		{"proof for other request", oracle, req.ID, aliceProxy, f.sign(t, bobReq, aliceProxy), ErrProofInvalid},
		{"empty proof", oracle, req.ID, aliceProxy, nil, ErrProofInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.coord.OnDecryptionCallback(tt.caller, tt.id, tt.plaintext, tt.proof, 2)
			require.ErrorIs(t, err, tt.err)
			// rejected callbacks leave the request pending
			require.Equal(t, StatusPending, f.coord.Request(req.ID).Status)
			require.Equal(t, StateDecryptionRequested, f.coord.State(alice))
		})
	}

	// a corrected callback still succeeds afterwards
	_, err = f.coord.OnDecryptionCallback(oracle, req.ID, aliceProxy, f.sign(t, req, aliceProxy), 3)
	require.NoError(t, err)
}

func TestCallbackIdempotent(t *testing.T) {
	f := newFixture(t)
	req, err := f.coord.RequestDecryption(alice, 1)
	require.NoError(t, err)
	proof := f.sign(t, req, aliceProxy)

	_, err = f.coord.OnDecryptionCallback(oracle, req.ID, aliceProxy, proof, 2)
	require.NoError(t, err)
	before := f.coord.Record(alice)

	_, err = f.coord.OnDecryptionCallback(oracle, req.ID, aliceProxy, proof, 99)
	require.ErrorIs(t, err, ErrAlreadyComplete)
	require.Equal(t, before, f.coord.Record(alice))
}

func TestProxyConflict(t *testing.T) {
	f := newFixture(t)
	aliceReq, err := f.coord.RequestDecryption(alice, 1)
	require.NoError(t, err)
	_, err = f.coord.OnDecryptionCallback(oracle, aliceReq.ID, aliceProxy, f.sign(t, aliceReq, aliceProxy), 2)
	require.NoError(t, err)

	bobReq, err := f.coord.RequestDecryption(bob, 3)
	require.NoError(t, err)
	_, err = f.coord.OnDecryptionCallback(oracle, bobReq.ID, aliceProxy, f.sign(t, bobReq, aliceProxy), 4)
	require.ErrorIs(t, err, ErrProxyConflict)

	owner, _ := f.coord.ResolveProxy(aliceProxy)
	require.Equal(t, alice, owner)
}

func TestWithdrawPreconditions(t *testing.T) {
	f := newFixture(t)

	_, err := f.coord.Withdraw(aliceProxy, assetX)
	require.ErrorIs(t, err, ErrNotRevealed)
	_, err = f.coord.Withdraw(common.Address{}, assetX)
	require.ErrorIs(t, err, ErrNotRevealed)

	req, err := f.coord.RequestDecryption(alice, 1)
	require.NoError(t, err)
	_, err = f.coord.OnDecryptionCallback(oracle, req.ID, aliceProxy, f.sign(t, req, aliceProxy), 2)
	require.NoError(t, err)

	_, err = f.coord.Withdraw(aliceProxy, assetX)
	require.ErrorIs(t, err, ErrZeroBalance)

	// the original account cannot withdraw on its own behalf
	_, err = f.engine.Purchase(alice, assetX, units(10))
	require.NoError(t, err)
	_, err = f.coord.Withdraw(alice, assetX)
	require.ErrorIs(t, err, ErrNotRevealed)

	// custody of an asset that holds no inventory
	assetY := common.HexToAddress("0xa55e700000000000000000000000000000000002")
	require.NoError(t, listAsset(f, assetY))
	_, err = f.engine.Purchase(alice, assetY, units(1))
	require.NoError(t, err)
	_, err = f.coord.Withdraw(aliceProxy, assetY)
	require.ErrorIs(t, err, ErrInsufficientCustody)
	require.Equal(t, units(1), f.engine.Balance(alice, assetY))
}

// listAsset prices asset at 1.0 payment unit.
func listAsset(f *fixture, asset common.Address) error {
	st := store.New(f.state, contractAddr)
	return pricing.New(st, roles.New(st)).SetPrice(admin, asset, uint256.NewInt(1_000_000))
}

func TestWithdrawNeverSucceedsBeforeReveal(t *testing.T) {
	f := newFixture(t)
	_, err := f.engine.Purchase(alice, assetX, units(5))
	require.NoError(t, err)

	for i := uint64(0); i < 3; i++ {
		_, err := f.coord.RequestDecryption(alice, i)
		require.NoError(t, err)
		for _, who := range []common.Address{alice, aliceProxy, bobProxy} {
			_, err := f.coord.Withdraw(who, assetX)
			require.ErrorIs(t, err, ErrNotRevealed)
		}
	}
	require.Equal(t, units(5), f.engine.Balance(alice, assetX))
}
