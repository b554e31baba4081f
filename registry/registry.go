// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package registry

import (
	"github.com/luxfi/geth/common"
)

// ============================================================================
// PRECOMPILE ADDRESS SCHEME - Aligned with LP Numbering
// ============================================================================
//
// Precompiles use trailing-significant 20-byte addresses:
//   Format: 0x0000000000000000000000000000000000PCII
//
// The address ends with the 16-bit LP number (PCII):
//   0x 0000...0000 P C II
//                  │ │ └┴─ Item (8 bits, 256 items per family×slot)
//                  │ └──── Slot  (4 bits)
//                  └────── Family page (4 bits, aligned with LP-Pxxx)
//
// P nibble = LP range first digit:
//   P=4 → LP-4xxx (Privacy)
//   P=9 → LP-9xxx (Markets)
//
// Example: ShadowTrade = P=9 (Markets), C=4, II=00
//          Address = 0x0000000000000000000000000000000000009400 (LP-9400)

const (
	FamilyPrivacy uint8 = 4
	FamilyMarkets uint8 = 9

	// SlotConfidential groups the confidential trading precompiles.
	SlotConfidential uint8 = 4
)

var (
	// ShadowTradeAddress is LP-9400, the confidential trading protocol.
	ShadowTradeAddress = PrecompileAddress(FamilyMarkets, SlotConfidential, 0x00)
	// PaymentTokenAddress is LP-9401, the stable payment token ledger.
	PaymentTokenAddress = PrecompileAddress(FamilyMarkets, SlotConfidential, 0x01)
)

// PrecompileAddress calculates address from (P, C, II) nibbles.
// Returns the zero address when a nibble is out of range.
func PrecompileAddress(p, c, ii uint8) common.Address {
	if p > 15 || c > 15 {
		return common.Address{}
	}
	var addr common.Address
	addr[18] = p<<4 | c
	addr[19] = ii
	return addr
}

// FamilyRange returns the inclusive address range of family page p.
func FamilyRange(p uint8) (common.Address, common.Address) {
	return PrecompileAddress(p, 0, 0x00), PrecompileAddress(p, 15, 0xff)
}

// FamilyPage returns the P-nibble for a family name, or 0xFF when unknown.
func FamilyPage(family string) uint8 {
	switch family {
	case "Privacy", "privacy":
		return FamilyPrivacy
	case "Markets", "markets", "DEX", "dex":
		return FamilyMarkets
	default:
		return 0xFF
	}
}

// LPNumber returns the LP number an address encodes, or false for addresses
// outside the scheme.
func LPNumber(addr common.Address) (uint16, bool) {
	for _, b := range addr[:18] {
		if b != 0 {
			return 0, false
		}
	}
	lp := uint16(addr[18])<<8 | uint16(addr[19])
	return lp, lp != 0
}

// PrecompileInfo describes a precompile of this chain.
type PrecompileInfo struct {
	Name    string
	Address common.Address
	LP      string
}

// AllPrecompiles lists the precompiles defined by this module.
var AllPrecompiles = []PrecompileInfo{
	{Name: "ShadowTrade", Address: ShadowTradeAddress, LP: "LP-9400"},
	{Name: "PaymentToken", Address: PaymentTokenAddress, LP: "LP-9401"},
}

// Lookup returns the precompile at addr.
func Lookup(addr common.Address) (PrecompileInfo, bool) {
	for _, p := range AllPrecompiles {
		if p.Address == addr {
			return p, true
		}
	}
	return PrecompileInfo{}, false
}
