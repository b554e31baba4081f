// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package modules keeps the registry of stateful precompile modules.
package modules

import (
	"bytes"

	"github.com/luxfi/geth/common"

	"github.com/parsdao/shadowtrade/contract"
)

// Module binds a precompile contract to its address and config key.
type Module struct {
	// ConfigKey is the key used in genesis and upgrade JSON.
	ConfigKey    string
	Address      common.Address
	Contract     contract.StatefulPrecompiledContract
	Configurator contract.Configurator
}

type moduleArray []Module

func (u moduleArray) Len() int {
	return len(u)
}

func (u moduleArray) Swap(i, j int) {
	u[i], u[j] = u[j], u[i]
}

func (m moduleArray) Less(i, j int) bool {
	return bytes.Compare(m[i].Address.Bytes(), m[j].Address.Bytes()) < 0
}
