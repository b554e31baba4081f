// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package fhe

import (
	"github.com/luxfi/geth/common"
)

// Toolkit is the client side: it encrypts a plaintext address and obtains the
// coprocessor's input proof binding the handle to the caller and contract.
type Toolkit struct {
	engine      *Engine
	coprocessor *Signer
}

func NewToolkit(engine *Engine, coprocessor *Signer) *Toolkit {
	return &Toolkit{engine: engine, coprocessor: coprocessor}
}

// EncryptAddress returns the handle of the encrypted plaintext and the input
// proof for registering it from account at contract.
func (t *Toolkit) EncryptAddress(plaintext, account, contract common.Address) (Handle, []byte, error) {
	handle, err := t.engine.EncryptAddress(plaintext)
	if err != nil {
		return NullHandle, nil, err
	}
	proof, err := t.coprocessor.SignInput(handle, account, contract)
	if err != nil {
		return NullHandle, nil, err
	}
	return handle, proof, nil
}

// KMS is the decryption oracle's key service. It decrypts handles and signs
// the result for a specific request id.
type KMS struct {
	engine *Engine
	signer *Signer
}

func NewKMS(engine *Engine, signer *Signer) *KMS {
	return &KMS{engine: engine, signer: signer}
}

func (k *KMS) Decrypt(requestID common.Hash, handle Handle) (common.Address, []byte, error) {
	plaintext, err := k.engine.DecryptAddress(handle)
	if err != nil {
		return common.Address{}, nil, err
	}
	proof, err := k.signer.SignDecryption(requestID, handle, plaintext)
	if err != nil {
		return common.Address{}, nil, err
	}
	return plaintext, proof, nil
}
