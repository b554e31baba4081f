// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package fhe

import (
	"testing"

	"github.com/luxfi/geth/common"
	"github.com/stretchr/testify/require"
)

var (
	account  = common.HexToAddress("0x1111111111111111111111111111111111111111")
	contract = common.HexToAddress("0x0000000000000000000000000000000000009400")
	proxy    = common.HexToAddress("0xa1b2c3d4e5f60718293a4b5c6d7e8f9001122334")
)

func TestHandle(t *testing.T) {
	require.True(t, NullHandle.IsNull())

	h := NewHandle([]byte("ciphertext"), TypeEaddress)
	require.False(t, h.IsNull())
	require.Equal(t, TypeEaddress, h.Type())
	require.Equal(t, h, NewHandle([]byte("ciphertext"), TypeEaddress))
	require.NotEqual(t, h, NewHandle([]byte("other"), TypeEaddress))
	require.Equal(t, h, HandleFromHash(h.Hash()))
}

func TestInputProof(t *testing.T) {
	signer, err := GenerateSigner(nil)
	require.NoError(t, err)
	verifier, err := NewMLDSAVerifier(signer.PublicKey())
	require.NoError(t, err)

	handle := NewHandle([]byte("ct"), TypeEaddress)
	proof, err := signer.SignInput(handle, account, contract)
	require.NoError(t, err)

	require.True(t, verifier.VerifyInput(handle, account, contract, proof))

	tests := []struct {
		name     string
		handle   Handle
		account  common.Address
		contract common.Address
		proof    []byte
	}{
		{"other account", handle, proxy, contract, proof},
		{"other contract", handle, account, proxy, proof},
		{"other handle", NewHandle([]byte("x"), TypeEaddress), account, contract, proof},
		{"null handle", NullHandle, account, contract, proof},
		{"truncated proof", handle, account, contract, proof[:10]},
		{"empty proof", handle, account, contract, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.False(t, verifier.VerifyInput(tt.handle, tt.account, tt.contract, tt.proof))
		})
	}
}

func TestDecryptionProofDomainSeparation(t *testing.T) {
	signer, err := GenerateSigner(nil)
	require.NoError(t, err)
	verifier := signer.Verifier()

	handle := NewHandle([]byte("ct"), TypeEaddress)
	reqID := common.HexToHash("0x01")

	proof, err := signer.SignDecryption(reqID, handle, proxy)
	require.NoError(t, err)
	require.True(t, verifier.VerifyDecryption(reqID, handle, proxy, proof))
	require.False(t, verifier.VerifyDecryption(common.HexToHash("0x02"), handle, proxy, proof))
	require.False(t, verifier.VerifyDecryption(reqID, handle, account, proof))

	// an input proof never validates as a decryption proof
	inputProof, err := signer.SignInput(handle, proxy, contract)
	require.NoError(t, err)
	require.False(t, verifier.VerifyDecryption(reqID, handle, proxy, inputProof))
}

func TestNewMLDSAVerifierRejectsGarbage(t *testing.T) {
	_, err := NewMLDSAVerifier([]byte{1, 2, 3})
	require.ErrorIs(t, err, ErrInvalidPublicKey)
}

func TestEngineRoundTrip(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)

	for _, addr := range []common.Address{proxy, account, {}} {
		handle, err := engine.EncryptAddress(addr)
		require.NoError(t, err)
		require.Equal(t, TypeEaddress, handle.Type())

		got, err := engine.DecryptAddress(handle)
		require.NoError(t, err)
		require.Equal(t, addr, got)
	}

	_, err = engine.DecryptAddress(NewHandle([]byte("missing"), TypeEaddress))
	require.ErrorIs(t, err, ErrUnknownHandle)
	_, err = engine.DecryptAddress(NewHandle([]byte("missing"), TypeEuint64))
	require.ErrorIs(t, err, ErrInvalidCiphertext)
}

func TestToolkitAndKMS(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)
	coprocessor, err := GenerateSigner(nil)
	require.NoError(t, err)
	kmsSigner, err := GenerateSigner(nil)
	require.NoError(t, err)

	toolkit := NewToolkit(engine, coprocessor)
	kms := NewKMS(engine, kmsSigner)

	handle, proof, err := toolkit.EncryptAddress(proxy, account, contract)
	require.NoError(t, err)
	require.True(t, coprocessor.Verifier().VerifyInput(handle, account, contract, proof))

	reqID := common.HexToHash("0xabc")
	plain, decProof, err := kms.Decrypt(reqID, handle)
	require.NoError(t, err)
	require.Equal(t, proxy, plain)
	require.True(t, kmsSigner.Verifier().VerifyDecryption(reqID, handle, plain, decProof))
}
