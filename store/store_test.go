// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package store

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/luxfi/database/memdb"
	"github.com/luxfi/geth/common"
	"github.com/stretchr/testify/require"

	"github.com/parsdao/shadowtrade/statedb"
)

var contractAddr = common.HexToAddress("0x0000000000000000000000000000000000009400")

func newTestStore(t *testing.T) Store {
	db := memdb.New()
	t.Cleanup(func() { db.Close() })
	return New(statedb.New(db), contractAddr)
}

func TestKeyDerivation(t *testing.T) {
	a := common.HexToAddress("0x01").Bytes()
	b := common.HexToAddress("0x02").Bytes()

	require.Equal(t, Key([]byte("bal"), a, b), Key([]byte("bal"), a, b))
	require.NotEqual(t, Key([]byte("bal"), a, b), Key([]byte("bal"), b, a))
	require.NotEqual(t, Key([]byte("bal"), a), Key([]byte("px"), a))

	base := Key([]byte("rec"), a)
	require.NotEqual(t, Field(base, 0), Field(base, 1))
}

func TestTypedAccessors(t *testing.T) {
	s := newTestStore(t)
	key := Key([]byte("k"))

	addr := common.HexToAddress("0x00000000000000000000000000000000deadbeef")
	s.SetAddress(key, addr)
	require.Equal(t, addr, s.GetAddress(key))

	v := uint256.MustFromDecimal("100000000000000000000")
	s.SetUint256(key, v)
	require.Equal(t, v, s.GetUint256(key))

	_, ok := s.GetUint64(Key([]byte("unset")))
	require.False(t, ok)
	s.SetUint64(key, 0)
	n, ok := s.GetUint64(key)
	require.True(t, ok)
	require.Zero(t, n)

	s.SetBool(key, true)
	require.True(t, s.GetBool(key))
	s.SetBool(key, false)
	require.False(t, s.GetBool(key))

	s.SetUint8(key, 3)
	require.Equal(t, uint8(3), s.GetUint8(key))

	s.Clear(key)
	require.Equal(t, common.Hash{}, s.Get(key))
}

func TestNextNonce(t *testing.T) {
	s := newTestStore(t)
	key := Key([]byte("nonce"))
	require.Equal(t, uint64(1), s.NextNonce(key))
	require.Equal(t, uint64(2), s.NextNonce(key))
}
