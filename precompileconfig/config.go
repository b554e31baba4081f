// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package precompileconfig defines the activation config shared by all
// precompile modules.
package precompileconfig

// Config is implemented by every module's activation config.
type Config interface {
	// Key returns the unique key of the module this config belongs to.
	Key() string
	// Timestamp returns the activation time, or nil when unscheduled.
	Timestamp() *uint64
	IsDisabled() bool
	Equal(Config) bool
	Verify(ChainConfig) error
}

// ChainConfig is the subset of chain parameters a module may consult.
type ChainConfig interface {
	ChainID() uint64
}

// Upgrade schedules a module activation or deactivation.
type Upgrade struct {
	BlockTimestamp *uint64 `json:"blockTimestamp,omitempty"`
	Disable        bool    `json:"disable,omitempty"`
}

func (u *Upgrade) Timestamp() *uint64 {
	return u.BlockTimestamp
}

// Equal reports whether both upgrades activate at the same time with the
// same disable flag.
func (u *Upgrade) Equal(other *Upgrade) bool {
	if other == nil {
		return false
	}
	if u.Disable != other.Disable {
		return false
	}
	switch {
	case u.BlockTimestamp == nil && other.BlockTimestamp == nil:
		return true
	case u.BlockTimestamp == nil || other.BlockTimestamp == nil:
		return false
	default:
		return *u.BlockTimestamp == *other.BlockTimestamp
	}
}

// IsActive reports whether the upgrade is in force at time now.
func (u *Upgrade) IsActive(now uint64) bool {
	if u.Disable {
		return false
	}
	return u.BlockTimestamp == nil || *u.BlockTimestamp <= now
}
