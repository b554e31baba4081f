// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package shadowtrade

import (
	"errors"
	"math/big"
	"sync"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"

	"github.com/parsdao/shadowtrade/contract"
	"github.com/parsdao/shadowtrade/fhe"
)

// Gas costs per method
const (
	GasRead     uint64 = 2_600
	GasAdmin    uint64 = 20_000
	GasRegister uint64 = 60_000
	GasPurchase uint64 = 45_000
	GasRequest  uint64 = 30_000
	GasCallback uint64 = 70_000
	GasWithdraw uint64 = 40_000
	GasReward   uint64 = 30_000
	GasInvalid  uint64 = 2_100
)

var ErrNotConfigured = errors.New("shadowtrade not configured")

var _ contract.StatefulPrecompiledContract = (*Contract)(nil)

// Contract is the ShadowTrade precompile. Protocol state lives in the
// storage of the address it is invoked at; the proof verifiers are set when
// the module is configured.
type Contract struct {
	mu      sync.RWMutex
	input   *fhe.MLDSAVerifier
	decrypt *fhe.MLDSAVerifier
}

// SetVerifiers installs the coprocessor input verifier and the KMS
// decryption verifier.
func (c *Contract) SetVerifiers(input, decrypt *fhe.MLDSAVerifier) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.input = input
	c.decrypt = decrypt
}

// verifiers returns untyped nil interfaces for unset verifiers so that
// callers' nil checks hold.
func (c *Contract) verifiers() (fhe.InputVerifier, fhe.DecryptionVerifier) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var (
		input   fhe.InputVerifier
		decrypt fhe.DecryptionVerifier
	)
	if c.input != nil {
		input = c.input
	}
	if c.decrypt != nil {
		decrypt = c.decrypt
	}
	return input, decrypt
}

func gasCost(method string) uint64 {
	switch method {
	case "register":
		return GasRegister
	case "purchase":
		return GasPurchase
	case "requestDecryption", "requestVerification":
		return GasRequest
	case "onDecryptionCallback", "onVerificationCallback":
		return GasCallback
	case "withdraw":
		return GasWithdraw
	case "recordReward":
		return GasReward
	case "setPrice", "authorizeCollection", "setRewardAmount", "markRewardClaimed",
		"grantRole", "revokeRole", "transferOwnership":
		return GasAdmin
	default:
		return GasRead
	}
}

func (c *Contract) Run(
	accessibleState contract.AccessibleState,
	caller common.Address,
	addr common.Address,
	input []byte,
	suppliedGas uint64,
	readOnly bool,
) (ret []byte, remainingGas uint64, err error) {
	method, data, err := ABI.Method(input)
	if err != nil {
		remainingGas, _ = contract.DeductGas(suppliedGas, GasInvalid)
		return nil, remainingGas, err
	}
	if remainingGas, err = contract.DeductGas(suppliedGas, gasCost(method.Name)); err != nil {
		return nil, 0, err
	}
	if readOnly && !method.IsConstant() {
		return nil, remainingGas, contract.ErrWriteProtection
	}

	args, err := ABI.UnpackInput(method.Name, data)
	if err != nil {
		return nil, remainingGas, err
	}

	state := accessibleState.GetStateDB()
	block := accessibleState.GetBlockContext()
	inputVerifier, decryptVerifier := c.verifiers()
	p := newProtocol(state, addr, block.Number(), inputVerifier, decryptVerifier)

	if method.IsConstant() {
		ret, err = p.view(method.Name, args)
		if err != nil {
			return nil, remainingGas, err
		}
		return ret, remainingGas, nil
	}

	snapshot := state.Snapshot()
	ret, err = p.exec(caller, block.Timestamp(), method.Name, args)
	if err != nil {
		state.RevertToSnapshot(snapshot)
		return nil, remainingGas, err
	}
	return ret, remainingGas, nil
}

func toUint256(v interface{}) (*uint256.Int, error) {
	b, ok := v.(*big.Int)
	if !ok {
		return nil, contract.ErrInvalidInput
	}
	u, overflow := uint256.FromBig(b)
	if overflow {
		return nil, contract.ErrInvalidInput
	}
	return u, nil
}
