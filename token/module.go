// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package token

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"

	"github.com/parsdao/shadowtrade/contract"
	"github.com/parsdao/shadowtrade/modules"
	"github.com/parsdao/shadowtrade/precompileconfig"
	"github.com/parsdao/shadowtrade/registry"
	"github.com/parsdao/shadowtrade/roles"
	"github.com/parsdao/shadowtrade/store"
)

var _ contract.Configurator = (*configurator)(nil)

const ConfigKey = "paymentTokenConfig"

// PaymentTokenAddress hosts the stable payment token (LP-9401).
var PaymentTokenAddress = registry.PaymentTokenAddress

// TokenPrecompile serves every token ledger address it is mounted at.
var TokenPrecompile = &Contract{}

var Module = modules.Module{
	ConfigKey:    ConfigKey,
	Address:      PaymentTokenAddress,
	Contract:     TokenPrecompile,
	Configurator: &configurator{},
}

var allocatedSlot = store.Key([]byte("token/allocated"))

func init() {
	if err := modules.RegisterModule(Module); err != nil {
		panic(err)
	}
}

// Allocation credits Amount to Address at activation.
type Allocation struct {
	Address common.Address `json:"address"`
	Amount  *big.Int       `json:"amount"`
}

type configurator struct{}

func (*configurator) MakeConfig() precompileconfig.Config {
	return new(Config)
}

// Configure sets the token admin and decimals and mints the genesis
// allocations. Allocations are minted on first activation only.
func (*configurator) Configure(
	chainConfig precompileconfig.ChainConfig,
	cfg precompileconfig.Config,
	state contract.StateDB,
	blockContext contract.ConfigurationBlockContext,
) error {
	config, ok := cfg.(*Config)
	if !ok {
		return fmt.Errorf("expected config type %T, got %T: %v", &Config{}, cfg, cfg)
	}
	return config.Apply(state, PaymentTokenAddress)
}

// Config configures a token ledger.
type Config struct {
	Upgrade     precompileconfig.Upgrade `json:"upgrade,omitempty"`
	Admin       common.Address           `json:"admin"`
	Decimals    uint8                    `json:"decimals"`
	Allocations []Allocation             `json:"allocations,omitempty"`
}

func (c *Config) Key() string {
	return ConfigKey
}

func (c *Config) Timestamp() *uint64 {
	return c.Upgrade.Timestamp()
}

func (c *Config) IsDisabled() bool {
	return c.Upgrade.Disable
}

func (c *Config) Equal(cfg precompileconfig.Config) bool {
	other, ok := cfg.(*Config)
	if !ok {
		return false
	}
	if !c.Upgrade.Equal(&other.Upgrade) || c.Admin != other.Admin || c.Decimals != other.Decimals {
		return false
	}
	if len(c.Allocations) != len(other.Allocations) {
		return false
	}
	for i, a := range c.Allocations {
		b := other.Allocations[i]
		if a.Address != b.Address || a.Amount.Cmp(b.Amount) != 0 {
			return false
		}
	}
	return true
}

func (c *Config) Verify(chainConfig precompileconfig.ChainConfig) error {
	if c.Admin == (common.Address{}) {
		return errors.New("token admin is required")
	}
	for _, a := range c.Allocations {
		if a.Address == (common.Address{}) {
			return errors.New("allocation to zero address")
		}
		if a.Amount == nil || a.Amount.Sign() <= 0 {
			return fmt.Errorf("allocation to %s must be positive", a.Address)
		}
		if _, overflow := uint256.FromBig(a.Amount); overflow {
			return fmt.Errorf("allocation to %s overflows", a.Address)
		}
	}
	return nil
}

// Apply writes the config into the ledger at tokenAddr.
func (c *Config) Apply(state contract.StateDB, tokenAddr common.Address) error {
	if err := c.Verify(nil); err != nil {
		return err
	}
	st := store.New(state, tokenAddr)
	if err := roles.New(st).Initialize(c.Admin); err != nil {
		return err
	}
	st.SetUint8(decimalsSlot, c.Decimals)

	if st.GetBool(allocatedSlot) {
		return nil
	}
	ledger := New(state, tokenAddr, nil)
	for _, a := range c.Allocations {
		amount, _ := uint256.FromBig(a.Amount)
		if err := ledger.Mint(a.Address, amount); err != nil {
			return err
		}
	}
	st.SetBool(allocatedSlot, true)
	return nil
}
