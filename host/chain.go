// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package host is an in-process chain that executes the registered
// precompile modules over a journaled state. Each call is one transaction in
// its own block.
package host

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/luxfi/database"
	"github.com/luxfi/geth/common"
	ethtypes "github.com/luxfi/geth/core/types"
	log "github.com/luxfi/logger"

	"github.com/parsdao/shadowtrade/contract"
	"github.com/parsdao/shadowtrade/modules"
	"github.com/parsdao/shadowtrade/precompileconfig"
	"github.com/parsdao/shadowtrade/statedb"
)

// DefaultGasLimit is supplied to every call.
const DefaultGasLimit uint64 = 10_000_000

var (
	ErrNoPrecompile   = errors.New("no active precompile at address")
	ErrUnknownModule  = errors.New("unknown precompile module")
	ErrChainCancelled = errors.New("call cancelled")
)

type blockContext struct {
	number, time uint64
}

func (b blockContext) Number() uint64    { return b.number }
func (b blockContext) Timestamp() uint64 { return b.time }

type accessibleState struct {
	state contract.StateDB
	block blockContext
}

func (a accessibleState) GetStateDB() contract.StateDB           { return a.state }
func (a accessibleState) GetBlockContext() contract.BlockContext { return a.block }

type Config struct {
	ChainID     uint64
	GenesisTime uint64
	// BlockTime is the timestamp step between blocks, in seconds.
	BlockTime uint64
	GasLimit  uint64
}

type Chain struct {
	cfg Config
	log log.Logger

	mu      sync.Mutex
	state   *statedb.StateDB
	block   blockContext
	active  map[common.Address]modules.Module
	pending []precompileconfig.Config

	subsMu sync.RWMutex
	subs   map[int]chan *ethtypes.Log
	nextID int
}

var _ precompileconfig.ChainConfig = (*Chain)(nil)

func New(cfg Config, db database.Database, logger log.Logger) *Chain {
	if cfg.BlockTime == 0 {
		cfg.BlockTime = 1
	}
	if cfg.GasLimit == 0 {
		cfg.GasLimit = DefaultGasLimit
	}
	return &Chain{
		cfg:    cfg,
		log:    logger,
		state:  statedb.New(db),
		block:  blockContext{time: cfg.GenesisTime},
		active: make(map[common.Address]modules.Module),
		subs:   make(map[int]chan *ethtypes.Log),
	}
}

func (c *Chain) ChainID() uint64 { return c.cfg.ChainID }

// Head returns the number and timestamp of the latest block.
func (c *Chain) Head() (uint64, uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.block.number, c.block.time
}

// Configure schedules module configs. Configs without a timestamp, or with
// one already reached, are activated immediately.
func (c *Chain) Configure(cfgs ...precompileconfig.Config) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, cfg := range cfgs {
		if _, ok := modules.GetPrecompileModule(cfg.Key()); !ok {
			return fmt.Errorf("%w: %s", ErrUnknownModule, cfg.Key())
		}
		if err := cfg.Verify(c); err != nil {
			return fmt.Errorf("invalid %s: %w", cfg.Key(), err)
		}
		c.pending = append(c.pending, cfg)
	}
	return c.activateDue()
}

// activateDue applies every pending config whose activation time has come.
func (c *Chain) activateDue() error {
	var remaining []precompileconfig.Config
	for i, cfg := range c.pending {
		if ts := cfg.Timestamp(); ts != nil && *ts > c.block.time {
			remaining = append(remaining, cfg)
			continue
		}
		module, _ := modules.GetPrecompileModule(cfg.Key())
		if cfg.IsDisabled() {
			delete(c.active, module.Address)
			c.log.Info().Str("module", cfg.Key()).Msg("precompile disabled")
			continue
		}
		snap := c.state.Snapshot()
		if err := module.Configurator.Configure(c, cfg, c.state, c.block); err != nil {
			c.state.RevertToSnapshot(snap)
			_, _ = c.state.Commit()
			c.pending = append(remaining, c.pending[i+1:]...)
			return fmt.Errorf("configure %s: %w", cfg.Key(), err)
		}
		if _, err := c.state.Commit(); err != nil {
			c.pending = append(remaining, c.pending[i+1:]...)
			return err
		}
		c.active[module.Address] = module
		c.log.Info().
			Str("module", cfg.Key()).
			Str("address", module.Address.Hex()).
			Msg("precompile activated")
	}
	c.pending = remaining
	return nil
}

// Call executes input against the precompile at to as a transaction from
// from. A failed call leaves no trace in state.
func (c *Chain) Call(ctx context.Context, from, to common.Address, input []byte) ([]byte, error) {
	ret, logs, err := c.execute(ctx, from, to, input, false)
	if err != nil {
		return nil, err
	}
	c.publish(logs)
	return ret, nil
}

// StaticCall executes a read-only call against the latest state.
func (c *Chain) StaticCall(ctx context.Context, from, to common.Address, input []byte) ([]byte, error) {
	ret, _, err := c.execute(ctx, from, to, input, true)
	return ret, err
}

func (c *Chain) execute(ctx context.Context, from, to common.Address, input []byte, readOnly bool) ([]byte, []*ethtypes.Log, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrChainCancelled, err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if !readOnly {
		c.block.number++
		c.block.time += c.cfg.BlockTime
		if err := c.activateDue(); err != nil {
			return nil, nil, err
		}
	}
	module, ok := c.active[to]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrNoPrecompile, to)
	}

	snap := c.state.Snapshot()
	ret, remaining, err := module.Contract.Run(accessibleState{state: c.state, block: c.block}, from, to, input, c.cfg.GasLimit, readOnly)
	if err != nil {
		c.state.RevertToSnapshot(snap)
		_, _ = c.state.Commit()
		c.log.Debug().
			Str("from", from.Hex()).
			Str("to", to.Hex()).
			Err(err).
			Msg("call reverted")
		return nil, nil, err
	}
	logs, err := c.state.Commit()
	if err != nil {
		return nil, nil, err
	}
	if !readOnly {
		c.log.Debug().
			Str("from", from.Hex()).
			Str("to", to.Hex()).
			Uint64("gasUsed", c.cfg.GasLimit-remaining).
			Int("logs", len(logs)).
			Msg("call executed")
	}
	return ret, logs, nil
}

// View runs fn against the latest state. fn must not write.
func (c *Chain) View(fn func(state contract.StateDB)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(c.state)
}

// Subscribe returns a channel receiving every log emitted by successful
// calls, and a function to cancel the subscription. Logs are dropped for a
// subscriber whose buffer is full.
func (c *Chain) Subscribe(buffer int) (<-chan *ethtypes.Log, func()) {
	c.subsMu.Lock()
	defer c.subsMu.Unlock()
	id := c.nextID
	c.nextID++
	ch := make(chan *ethtypes.Log, buffer)
	c.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.subsMu.Lock()
			defer c.subsMu.Unlock()
			delete(c.subs, id)
			close(ch)
		})
	}
}

func (c *Chain) publish(logs []*ethtypes.Log) {
	c.subsMu.RLock()
	defer c.subsMu.RUnlock()
	for _, l := range logs {
		for id, ch := range c.subs {
			select {
			case ch <- l:
			default:
				c.log.Warn().Int("subscriber", id).Msg("subscriber buffer full, dropping log")
			}
		}
	}
}
