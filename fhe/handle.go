// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package fhe is the encryption toolkit boundary of the protocol. On-chain
// code only ever sees opaque ciphertext handles and verifies the signatures
// that bind them to an account (input proofs) or to a plaintext (decryption
// proofs). The off-chain side encrypts and decrypts with TFHE.
package fhe

import (
	"errors"

	"github.com/luxfi/geth/common"
	"github.com/zeebo/blake3"
)

// Ciphertext types, encoded in the last byte of a handle.
const (
	TypeEbool    uint8 = 0
	TypeEuint64  uint8 = 5
	TypeEaddress uint8 = 7
)

var (
	ErrInvalidCiphertext = errors.New("invalid ciphertext")
	ErrUnknownHandle     = errors.New("unknown ciphertext handle")
	ErrInvalidPublicKey  = errors.New("invalid public key")
)

// Handle is an opaque reference to a stored ciphertext.
type Handle common.Hash

// NullHandle is the handle of unregistered identities.
var NullHandle Handle

func HandleFromHash(h common.Hash) Handle { return Handle(h) }

func (h Handle) Hash() common.Hash { return common.Hash(h) }

func (h Handle) IsNull() bool { return h == NullHandle }

// Type returns the ciphertext type tag carried by the handle.
func (h Handle) Type() uint8 { return h[len(h)-1] }

func (h Handle) Hex() string { return common.Hash(h).Hex() }

func (h Handle) String() string { return h.Hex() }

// NewHandle derives the handle of ciphertext ct of type ctType.
func NewHandle(ct []byte, ctType uint8) Handle {
	hasher := blake3.New()
	hasher.Write([]byte("fhe/handle"))
	hasher.Write(ct)
	var h Handle
	hasher.Digest().Read(h[:])
	h[len(h)-1] = ctType
	return h
}
