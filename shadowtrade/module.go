// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package shadowtrade

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/common/hexutil"

	"github.com/parsdao/shadowtrade/attestation"
	"github.com/parsdao/shadowtrade/contract"
	"github.com/parsdao/shadowtrade/fhe"
	"github.com/parsdao/shadowtrade/modules"
	"github.com/parsdao/shadowtrade/precompileconfig"
	"github.com/parsdao/shadowtrade/pricing"
	"github.com/parsdao/shadowtrade/registry"
	"github.com/parsdao/shadowtrade/reward"
	"github.com/parsdao/shadowtrade/roles"
	"github.com/parsdao/shadowtrade/store"
	"github.com/parsdao/shadowtrade/token"
)

var _ contract.Configurator = (*configurator)(nil)

// ConfigKey is the key used in json config files to specify this precompile config.
const ConfigKey = "shadowTradeConfig"

// ContractAddress hosts the ShadowTrade precompile (LP-9400).
var ContractAddress = registry.ShadowTradeAddress

// ShadowTradePrecompile is the singleton instance
var ShadowTradePrecompile = &Contract{}

var Module = modules.Module{
	ConfigKey:    ConfigKey,
	Address:      ContractAddress,
	Contract:     ShadowTradePrecompile,
	Configurator: &configurator{},
}

func init() {
	if err := modules.RegisterModule(Module); err != nil {
		panic(err)
	}
}

type configurator struct{}

func (*configurator) MakeConfig() precompileconfig.Config {
	return new(Config)
}

// Configure installs the proof verifiers and writes the genesis protocol
// state.
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
	if err := config.Verify(chainConfig); err != nil {
		return err
	}
	input, decrypt, err := config.verifiers()
	if err != nil {
		return err
	}
	ShadowTradePrecompile.SetVerifiers(input, decrypt)
	return config.Apply(state, ContractAddress)
}

// PriceEntry lists an asset at a unit price with 6 decimals.
type PriceEntry struct {
	Asset common.Address `json:"asset"`
	Price *big.Int       `json:"price"`
}

// CollectionEntry allow-lists an NFT collection. A nil RewardAmount keeps
// the default reward.
type CollectionEntry struct {
	Address      common.Address `json:"address"`
	RewardAmount *big.Int       `json:"rewardAmount,omitempty"`
}

// InventoryEntry mints Amount of Asset into contract custody.
type InventoryEntry struct {
	Asset  common.Address `json:"asset"`
	Amount *big.Int       `json:"amount"`
}

// Config implements the precompileconfig.Config interface
type Config struct {
	Upgrade              precompileconfig.Upgrade `json:"upgrade,omitempty"`
	Admin                common.Address           `json:"admin"`
	Oracles              []common.Address         `json:"oracles,omitempty"`
	PaymentToken         common.Address           `json:"paymentToken"`
	Treasury             common.Address           `json:"treasury"`
	CoprocessorPublicKey hexutil.Bytes            `json:"coprocessorPublicKey"`
	KMSPublicKey         hexutil.Bytes            `json:"kmsPublicKey"`
	Prices               []PriceEntry             `json:"prices,omitempty"`
	Collections          []CollectionEntry        `json:"collections,omitempty"`
	Inventory            []InventoryEntry         `json:"inventory,omitempty"`
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

func bigEqual(a, b *big.Int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Cmp(b) == 0
}

func (c *Config) Equal(cfg precompileconfig.Config) bool {
	other, ok := cfg.(*Config)
	if !ok {
		return false
	}
	if !c.Upgrade.Equal(&other.Upgrade) ||
		c.Admin != other.Admin ||
		c.PaymentToken != other.PaymentToken ||
		c.Treasury != other.Treasury ||
		string(c.CoprocessorPublicKey) != string(other.CoprocessorPublicKey) ||
		string(c.KMSPublicKey) != string(other.KMSPublicKey) {
		return false
	}
	if len(c.Oracles) != len(other.Oracles) ||
		len(c.Prices) != len(other.Prices) ||
		len(c.Collections) != len(other.Collections) ||
		len(c.Inventory) != len(other.Inventory) {
		return false
	}
	for i, o := range c.Oracles {
		if o != other.Oracles[i] {
			return false
		}
	}
	for i, p := range c.Prices {
		if p.Asset != other.Prices[i].Asset || !bigEqual(p.Price, other.Prices[i].Price) {
			return false
		}
	}
	for i, col := range c.Collections {
		if col.Address != other.Collections[i].Address || !bigEqual(col.RewardAmount, other.Collections[i].RewardAmount) {
			return false
		}
	}
	for i, inv := range c.Inventory {
		if inv.Asset != other.Inventory[i].Asset || !bigEqual(inv.Amount, other.Inventory[i].Amount) {
			return false
		}
	}
	return true
}

func checkAmount(what string, v *big.Int) error {
	if v == nil || v.Sign() <= 0 {
		return fmt.Errorf("%s must be positive", what)
	}
	if _, overflow := uint256.FromBig(v); overflow {
		return fmt.Errorf("%s overflows", what)
	}
	return nil
}

func (c *Config) Verify(chainConfig precompileconfig.ChainConfig) error {
	switch {
	case c.Admin == (common.Address{}):
		return errors.New("shadowtrade admin is required")
	case c.PaymentToken == (common.Address{}):
		return errors.New("payment token is required")
	case c.Treasury == (common.Address{}):
		return errors.New("treasury is required")
	}
	if _, _, err := c.verifiers(); err != nil {
		return err
	}
	for _, o := range c.Oracles {
		if o == (common.Address{}) {
			return errors.New("oracle cannot be the zero address")
		}
	}
	for _, p := range c.Prices {
		if p.Asset == (common.Address{}) {
			return pricing.ErrInvalidAsset
		}
		if err := checkAmount(fmt.Sprintf("price of %s", p.Asset), p.Price); err != nil {
			return err
		}
	}
	for _, col := range c.Collections {
		if col.Address == (common.Address{}) {
			return attestation.ErrInvalidCollection
		}
		if col.RewardAmount != nil {
			if err := checkAmount(fmt.Sprintf("reward of %s", col.Address), col.RewardAmount); err != nil {
				return err
			}
		}
	}
	for _, inv := range c.Inventory {
		if inv.Asset == (common.Address{}) {
			return pricing.ErrInvalidAsset
		}
		if err := checkAmount(fmt.Sprintf("inventory of %s", inv.Asset), inv.Amount); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) verifiers() (*fhe.MLDSAVerifier, *fhe.MLDSAVerifier, error) {
	input, err := fhe.NewMLDSAVerifier(c.CoprocessorPublicKey)
	if err != nil {
		return nil, nil, fmt.Errorf("coprocessor key: %w", err)
	}
	decrypt, err := fhe.NewMLDSAVerifier(c.KMSPublicKey)
	if err != nil {
		return nil, nil, fmt.Errorf("kms key: %w", err)
	}
	return input, decrypt, nil
}

// Apply writes the genesis protocol state into the storage of addr. Roles
// are initialized once; custody inventory is minted on first activation only.
func (c *Config) Apply(state contract.StateDB, addr common.Address) error {
	st := store.New(state, addr)
	r := roles.New(st)
	if err := r.Initialize(c.Admin); err != nil {
		return err
	}
	owner := r.Owner()
	for _, o := range c.Oracles {
		if err := r.Grant(owner, roles.RoleOracle, o); err != nil {
			return err
		}
	}

	st.SetAddress(paymentTokenSlot, c.PaymentToken)
	st.SetAddress(treasurySlot, c.Treasury)

	prices := pricing.New(st, r)
	for _, p := range c.Prices {
		price, _ := uint256.FromBig(p.Price)
		if err := prices.SetPrice(owner, p.Asset, price); err != nil {
			return err
		}
	}

	attest := attestation.New(st, nil, r)
	rewards := reward.New(st, attest, r)
	for _, col := range c.Collections {
		if err := attest.Authorize(owner, col.Address, true); err != nil {
			return err
		}
		if col.RewardAmount == nil {
			continue
		}
		amount, _ := uint256.FromBig(col.RewardAmount)
		if err := rewards.SetAmount(owner, col.Address, amount); err != nil {
			return err
		}
	}

	if st.GetBool(inventorySlot) {
		return nil
	}
	for _, inv := range c.Inventory {
		amount, _ := uint256.FromBig(inv.Amount)
		if err := token.New(state, inv.Asset, nil).Mint(addr, amount); err != nil {
			return err
		}
	}
	st.SetBool(inventorySlot, true)
	return nil
}
