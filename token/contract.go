// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package token

import (
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"

	"github.com/parsdao/shadowtrade/contract"
	"github.com/parsdao/shadowtrade/roles"
	"github.com/parsdao/shadowtrade/store"
)

const rawABI = `[
	{"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"owner","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"allowance","stateMutability":"view","inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"totalSupply","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"decimals","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint8"}]},
	{"type":"function","name":"approve","stateMutability":"nonpayable","inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"transfer","stateMutability":"nonpayable","inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"transferFrom","stateMutability":"nonpayable","inputs":[{"name":"from","type":"address"},{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"mint","stateMutability":"nonpayable","inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[]},
	{"type":"event","name":"Transfer","anonymous":false,"inputs":[{"name":"from","type":"address","indexed":true},{"name":"to","type":"address","indexed":true},{"name":"value","type":"uint256","indexed":false}]},
	{"type":"event","name":"Approval","anonymous":false,"inputs":[{"name":"owner","type":"address","indexed":true},{"name":"spender","type":"address","indexed":true},{"name":"value","type":"uint256","indexed":false}]}
]`

// ABI is the call surface of the token precompile.
var ABI = contract.ParseABI(rawABI)

const (
	GasRead    uint64 = 2_600
	GasWrite   uint64 = 25_000
	GasMint    uint64 = 30_000
	GasInvalid uint64 = 2_100
)

var decimalsSlot = store.Key([]byte("token/decimals"))

var _ contract.StatefulPrecompiledContract = (*Contract)(nil)

// Contract is the token precompile. It is address agnostic: the ledger is
// the storage of the address it is invoked at.
type Contract struct{}

// LogEmitter writes Transfer and Approval logs into state.
type LogEmitter struct {
	State       contract.StateDB
	BlockNumber uint64
}

func (e LogEmitter) Transfer(token, from, to common.Address, amount *uint256.Int) error {
	return ABI.EmitEvent(e.State, token, e.BlockNumber, "Transfer", from, to, amount.ToBig())
}

func (e LogEmitter) Approval(token, owner, spender common.Address, amount *uint256.Int) error {
	return ABI.EmitEvent(e.State, token, e.BlockNumber, "Approval", owner, spender, amount.ToBig())
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

	cost := GasRead
	switch method.Name {
	case "approve", "transfer", "transferFrom":
		cost = GasWrite
	case "mint":
		cost = GasMint
	}
	if remainingGas, err = contract.DeductGas(suppliedGas, cost); err != nil {
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
	ledger := New(state, addr, LogEmitter{State: state, BlockNumber: accessibleState.GetBlockContext().Number()})

	switch method.Name {
	case "balanceOf":
		ret, err = ABI.PackOutput(method.Name, ledger.BalanceOf(args[0].(common.Address)).ToBig())
	case "allowance":
		ret, err = ABI.PackOutput(method.Name, ledger.Allowance(args[0].(common.Address), args[1].(common.Address)).ToBig())
	case "totalSupply":
		ret, err = ABI.PackOutput(method.Name, ledger.TotalSupply().ToBig())
	case "decimals":
		ret, err = ABI.PackOutput(method.Name, store.New(state, addr).GetUint8(decimalsSlot))
	case "approve":
		amount, aerr := toUint256(args[1])
		if aerr != nil {
			return nil, remainingGas, aerr
		}
		if err = ledger.Approve(caller, args[0].(common.Address), amount); err == nil {
			ret, err = ABI.PackOutput(method.Name, true)
		}
	case "transfer":
		amount, aerr := toUint256(args[1])
		if aerr != nil {
			return nil, remainingGas, aerr
		}
		if err = ledger.Transfer(caller, args[0].(common.Address), amount); err == nil {
			ret, err = ABI.PackOutput(method.Name, true)
		}
	case "transferFrom":
		amount, aerr := toUint256(args[2])
		if aerr != nil {
			return nil, remainingGas, aerr
		}
		if err = ledger.TransferFrom(caller, args[0].(common.Address), args[1].(common.Address), amount); err == nil {
			ret, err = ABI.PackOutput(method.Name, true)
		}
	case "mint":
		amount, aerr := toUint256(args[1])
		if aerr != nil {
			return nil, remainingGas, aerr
		}
		if err = roles.New(store.New(state, addr)).Require(caller, roles.RoleAdmin); err == nil {
			err = ledger.Mint(args[0].(common.Address), amount)
		}
	default:
		err = fmt.Errorf("%w: %s", contract.ErrUnknownSelector, method.Name)
	}
	if err != nil {
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
