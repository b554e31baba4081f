// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package contract defines the execution surface shared by every stateful
// precompile: the state view handed to Run, the block context, and the
// configurator hook invoked when a precompile activates.
package contract

import (
	"errors"

	"github.com/luxfi/geth/common"
	ethtypes "github.com/luxfi/geth/core/types"

	"github.com/parsdao/shadowtrade/precompileconfig"
)

var (
	ErrOutOfGas        = errors.New("out of gas")
	ErrWriteProtection = errors.New("write protection")
	ErrUnknownSelector = errors.New("unknown function selector")
	ErrInvalidInput    = errors.New("invalid input")
)

// StateDB is the storage view a precompile may touch. Slots are scoped by
// contract address; logs are attached to the current transaction.
type StateDB interface {
	GetState(common.Address, common.Hash) common.Hash
	SetState(common.Address, common.Hash, common.Hash) common.Hash

	AddLog(*ethtypes.Log)

	Snapshot() int
	RevertToSnapshot(int)
}

// BlockContext exposes the block the call executes in.
type BlockContext interface {
	Number() uint64
	Timestamp() uint64
}

// AccessibleState is handed to every Run invocation.
type AccessibleState interface {
	GetStateDB() StateDB
	GetBlockContext() BlockContext
}

// ConfigurationBlockContext is the block context available at activation.
type ConfigurationBlockContext interface {
	Timestamp() uint64
}

// StatefulPrecompiledContract is the interface every precompile implements.
type StatefulPrecompiledContract interface {
	Run(
		accessibleState AccessibleState,
		caller common.Address,
		addr common.Address,
		input []byte,
		suppliedGas uint64,
		readOnly bool,
	) (ret []byte, remainingGas uint64, err error)
}

// Configurator builds and applies a module's activation config.
type Configurator interface {
	MakeConfig() precompileconfig.Config
	Configure(
		chainConfig precompileconfig.ChainConfig,
		cfg precompileconfig.Config,
		state StateDB,
		blockContext ConfigurationBlockContext,
	) error
}

// DeductGas charges cost against suppliedGas.
func DeductGas(suppliedGas uint64, cost uint64) (uint64, error) {
	if suppliedGas < cost {
		return 0, ErrOutOfGas
	}
	return suppliedGas - cost, nil
}
