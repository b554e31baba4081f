// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package fhe

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/luxfi/fhe"
	"github.com/luxfi/geth/common"
)

// An address is encrypted as three limbs: bytes [0,8) and [8,16) as 64-bit
// integers and bytes [16,20) as a 32-bit integer.
var addressLimbs = []struct {
	offset, size int
	typ          fhe.FheUintType
}{
	{0, 8, fhe.FheUint64},
	{8, 8, fhe.FheUint64},
	{16, 4, fhe.FheUint32},
}

// Engine encrypts and decrypts addresses under a TFHE secret key and keeps
// the resulting ciphertexts addressable by handle. It plays the part of the
// coprocessor ciphertext store.
type Engine struct {
	mu          sync.RWMutex
	encryptor   *fhe.BitwiseEncryptor
	decryptor   *fhe.BitwiseDecryptor
	ciphertexts map[Handle][]byte
}

func NewEngine() (*Engine, error) {
	params, err := fhe.NewParametersFromLiteral(fhe.PN10QP27)
	if err != nil {
		return nil, fmt.Errorf("fhe parameters: %w", err)
	}
	kg := fhe.NewKeyGenerator(params)
	secretKey, _ := kg.GenKeyPair()

	return &Engine{
		encryptor:   fhe.NewBitwiseEncryptor(params, secretKey),
		decryptor:   fhe.NewBitwiseDecryptor(params, secretKey),
		ciphertexts: make(map[Handle][]byte),
	}, nil
}

// EncryptAddress encrypts addr, stores the ciphertext and returns its handle.
func (e *Engine) EncryptAddress(addr common.Address) (Handle, error) {
	raw := addr.Bytes()

	var ct []byte
	for _, limb := range addressLimbs {
		var v uint64
		for _, b := range raw[limb.offset : limb.offset+limb.size] {
			v = v<<8 | uint64(b)
		}
		enc := e.encryptor.EncryptUint64(v, limb.typ)
		data, err := enc.MarshalBinary()
		if err != nil {
			return NullHandle, fmt.Errorf("marshal limb: %w", err)
		}
		ct = binary.BigEndian.AppendUint32(ct, uint32(len(data)))
		ct = append(ct, data...)
	}

	handle := NewHandle(ct, TypeEaddress)
	e.mu.Lock()
	e.ciphertexts[handle] = ct
	e.mu.Unlock()
	return handle, nil
}

// Ciphertext returns the stored ciphertext of handle.
func (e *Engine) Ciphertext(handle Handle) ([]byte, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	ct, ok := e.ciphertexts[handle]
	return ct, ok
}

// DecryptAddress decrypts the address ciphertext referenced by handle.
func (e *Engine) DecryptAddress(handle Handle) (common.Address, error) {
	if handle.Type() != TypeEaddress {
		return common.Address{}, fmt.Errorf("%w: handle type %d", ErrInvalidCiphertext, handle.Type())
	}
	ct, ok := e.Ciphertext(handle)
	if !ok {
		return common.Address{}, ErrUnknownHandle
	}

	var out common.Address
	rest := ct
	for _, limb := range addressLimbs {
		if len(rest) < 4 {
			return common.Address{}, ErrInvalidCiphertext
		}
		n := int(binary.BigEndian.Uint32(rest[:4]))
		rest = rest[4:]
		if len(rest) < n {
			return common.Address{}, ErrInvalidCiphertext
		}
		enc := new(fhe.BitCiphertext)
		if err := enc.UnmarshalBinary(rest[:n]); err != nil {
			return common.Address{}, fmt.Errorf("%w: %v", ErrInvalidCiphertext, err)
		}
		rest = rest[n:]

		v := e.decryptor.DecryptUint64(enc)
		for i := limb.size - 1; i >= 0; i-- {
			out[limb.offset+i] = byte(v)
			v >>= 8
		}
	}
	return out, nil
}
