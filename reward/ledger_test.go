// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package reward

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/luxfi/database/memdb"
	"github.com/luxfi/geth/common"
	"github.com/stretchr/testify/require"

	"github.com/parsdao/shadowtrade/attestation"
	"github.com/parsdao/shadowtrade/fhe"
	"github.com/parsdao/shadowtrade/identity"
	"github.com/parsdao/shadowtrade/roles"
	"github.com/parsdao/shadowtrade/statedb"
	"github.com/parsdao/shadowtrade/store"
)

var (
	contractAddr = common.HexToAddress("0x0000000000000000000000000000000000009400")
	admin        = common.HexToAddress("0xad00000000000000000000000000000000000001")
	oracle       = common.HexToAddress("0x0c00000000000000000000000000000000000001")
	alice        = common.HexToAddress("0x1111111111111111111111111111111111111111")
	punks        = common.HexToAddress("0xc011ec7100000000000000000000000000000001")
	apes         = common.HexToAddress("0xc011ec7100000000000000000000000000000002")
)

type fixture struct {
	ledger *Ledger
	attest *attestation.Registry
}

func newFixture(t *testing.T) *fixture {
	db := memdb.New()
	t.Cleanup(func() { db.Close() })
	st := store.New(statedb.New(db), contractAddr)

	r := roles.New(st)
	require.NoError(t, r.Initialize(admin))
	require.NoError(t, r.Grant(admin, roles.RoleOracle, oracle))

	signer, err := fhe.GenerateSigner(nil)
	require.NoError(t, err)
	ids := identity.New(st, signer.Verifier())
	h := fhe.NewHandle([]byte("alice"), fhe.TypeEaddress)
	proof, err := signer.SignInput(h, alice, contractAddr)
	require.NoError(t, err)
	require.NoError(t, ids.Register(alice, h, proof, 1))

	attest := attestation.New(st, ids, r)
	require.NoError(t, attest.Authorize(admin, punks, true))
	require.NoError(t, attest.Authorize(admin, apes, true))

	return &fixture{ledger: New(st, attest, r), attest: attest}
}

func (f *fixture) attestOwnership(t *testing.T, collection common.Address, verified bool) {
	id, err := f.attest.RequestVerification(alice, collection, 2)
	require.NoError(t, err)
	_, err = f.attest.OnVerificationCallback(oracle, id, verified, 3)
	require.NoError(t, err)
}

func TestRecordReward(t *testing.T) {
	f := newFixture(t)
	f.attestOwnership(t, punks, true)

	amount, err := f.ledger.RecordReward(alice, punks, 10)
	require.NoError(t, err)
	require.Equal(t, DefaultAmount, amount)

	rec := f.ledger.Get(alice, punks)
	require.True(t, rec.Exists)
	require.False(t, rec.Claimed)
	require.Equal(t, uint64(10), rec.RecordedAt)
	require.Equal(t, DefaultAmount, rec.Amount)
	require.True(t, f.ledger.HasUnclaimed(alice, punks))

	_, err = f.ledger.RecordReward(alice, punks, 11)
	require.ErrorIs(t, err, ErrAlreadyRecorded)
	require.Equal(t, DefaultAmount, f.ledger.Total(alice))
}

func TestRecordRewardRequiresVerifiedAttestation(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, f *fixture)
	}{
		{"no request", func(*testing.T, *fixture) {}},
		{"pending", func(t *testing.T, f *fixture) {
			_, err := f.attest.RequestVerification(alice, punks, 2)
			require.NoError(t, err)
		}},
		{"negative verdict", func(t *testing.T, f *fixture) {
			f.attestOwnership(t, punks, false)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.setup(t, f)
			_, err := f.ledger.RecordReward(alice, punks, 5)
			require.ErrorIs(t, err, ErrNoAttestation)
			require.False(t, f.ledger.Get(alice, punks).Exists)
			require.True(t, f.ledger.Total(alice).IsZero())
		})
	}
}

func TestRewardAmountOverride(t *testing.T) {
	f := newFixture(t)
	custom := uint256.NewInt(42)

	require.ErrorIs(t, f.ledger.SetAmount(alice, apes, custom), roles.ErrUnauthorized)
	require.NoError(t, f.ledger.SetAmount(admin, apes, custom))
	require.Equal(t, custom, f.ledger.Amount(apes))
	require.Equal(t, DefaultAmount, f.ledger.Amount(punks))

	f.attestOwnership(t, punks, true)
	f.attestOwnership(t, apes, true)
	_, err := f.ledger.RecordReward(alice, punks, 5)
	require.NoError(t, err)
	got, err := f.ledger.RecordReward(alice, apes, 6)
	require.NoError(t, err)
	require.Equal(t, custom, got)

	want := new(uint256.Int).Add(DefaultAmount, custom)
	require.Equal(t, want, f.ledger.Total(alice))

	require.NoError(t, f.ledger.SetAmount(admin, apes, new(uint256.Int)))
	require.Equal(t, DefaultAmount, f.ledger.Amount(apes))
}

func TestMarkClaimed(t *testing.T) {
	f := newFixture(t)

	require.ErrorIs(t, f.ledger.MarkClaimed(admin, alice, punks), ErrNoReward)

	f.attestOwnership(t, punks, true)
	_, err := f.ledger.RecordReward(alice, punks, 5)
	require.NoError(t, err)

	require.ErrorIs(t, f.ledger.MarkClaimed(oracle, alice, punks), roles.ErrUnauthorized)
	require.NoError(t, f.ledger.MarkClaimed(admin, alice, punks))
	require.False(t, f.ledger.HasUnclaimed(alice, punks))
	require.True(t, f.ledger.Get(alice, punks).Claimed)
	require.ErrorIs(t, f.ledger.MarkClaimed(admin, alice, punks), ErrAlreadyClaimed)
}

func TestRewardFollowsAllowList(t *testing.T) {
	f := newFixture(t)
	unlisted := common.HexToAddress("0xc011ec7100000000000000000000000000000003")
	require.True(t, f.ledger.Amount(unlisted).IsZero())

	f.attestOwnership(t, punks, true)
	require.NoError(t, f.attest.Authorize(admin, punks, false))
	require.True(t, f.ledger.Amount(punks).IsZero())

	_, err := f.ledger.RecordReward(alice, punks, 5)
	require.ErrorIs(t, err, attestation.ErrUnauthorizedCollection)
	require.False(t, f.ledger.Get(alice, punks).Exists)
	require.True(t, f.ledger.Total(alice).IsZero())

	require.NoError(t, f.attest.Authorize(admin, punks, true))
	require.Equal(t, DefaultAmount, f.ledger.Amount(punks))
	amount, err := f.ledger.RecordReward(alice, punks, 6)
	require.NoError(t, err)
	require.Equal(t, DefaultAmount, amount)
}
