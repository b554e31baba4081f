// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package relayer is the off-chain oracle for the ShadowTrade precompile. It
// watches contract logs for decryption and verification requests, resolves
// them against the KMS or an ownership source, and submits the callbacks
// from the oracle account.
package relayer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/luxfi/geth/common"
	ethtypes "github.com/luxfi/geth/core/types"
	log "github.com/luxfi/logger"
	"golang.org/x/sync/errgroup"

	"github.com/parsdao/shadowtrade/fhe"
	"github.com/parsdao/shadowtrade/shadowtrade"
)

const (
	kindDecryption   = "decryption"
	kindVerification = "verification"
)

var ErrNoWorkers = errors.New("relayer needs at least one worker")

// Chain submits calls to the network on behalf of from.
type Chain interface {
	Call(ctx context.Context, from, to common.Address, input []byte) ([]byte, error)
}

// Decryptor produces a plaintext address and its proof for a request.
type Decryptor interface {
	Decrypt(requestID common.Hash, handle fhe.Handle) (common.Address, []byte, error)
}

// OwnershipChecker reports whether account owns a token of collection.
type OwnershipChecker interface {
	OwnsToken(ctx context.Context, account, collection common.Address) (bool, error)
}

// OwnershipFunc adapts a function to OwnershipChecker.
type OwnershipFunc func(ctx context.Context, account, collection common.Address) (bool, error)

func (f OwnershipFunc) OwnsToken(ctx context.Context, account, collection common.Address) (bool, error) {
	return f(ctx, account, collection)
}

type Config struct {
	Oracle   common.Address
	Contract common.Address
	Workers  int
}

type Relayer struct {
	cfg       Config
	chain     Chain
	decryptor Decryptor
	ownership OwnershipChecker
	log       log.Logger
	metrics   *Metrics

	mu   sync.Mutex
	seen map[common.Hash]struct{}
}

func New(cfg Config, chain Chain, decryptor Decryptor, ownership OwnershipChecker, logger log.Logger, metrics *Metrics) (*Relayer, error) {
	if cfg.Workers < 1 {
		return nil, ErrNoWorkers
	}
	return &Relayer{
		cfg:       cfg,
		chain:     chain,
		decryptor: decryptor,
		ownership: ownership,
		log:       logger,
		metrics:   metrics,
		seen:      make(map[common.Hash]struct{}),
	}, nil
}

// Run processes logs until the channel is closed or ctx is done. Workers
// share the channel; each request id is handled at most once.
func (r *Relayer) Run(ctx context.Context, logs <-chan *ethtypes.Log) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < r.cfg.Workers; i++ {
		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case l, ok := <-logs:
					if !ok {
						return nil
					}
					r.handle(ctx, l)
				}
			}
		})
	}
	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// claim marks id as taken and reports whether it was new.
func (r *Relayer) claim(id common.Hash) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.seen[id]; ok {
		return false
	}
	r.seen[id] = struct{}{}
	return true
}

func (r *Relayer) handle(ctx context.Context, l *ethtypes.Log) {
	if l.Address != r.cfg.Contract || len(l.Topics) < 3 {
		return
	}
	var err error
	switch l.Topics[0] {
	case shadowtrade.ABI.Events["DecryptionRequested"].ID:
		err = r.process(ctx, kindDecryption, l, r.decryption)
	case shadowtrade.ABI.Events["VerificationRequested"].ID:
		err = r.process(ctx, kindVerification, l, r.verification)
	default:
		return
	}
	if err != nil {
		r.log.Warn().
			Str("requestID", l.Topics[1].Hex()).
			Err(err).
			Msg("oracle request not fulfilled")
	}
}

func (r *Relayer) process(
	ctx context.Context,
	kind string,
	l *ethtypes.Log,
	build func(context.Context, *ethtypes.Log) ([]byte, error),
) error {
	id := l.Topics[1]
	r.metrics.IncrementReceived(kind)
	if !r.claim(id) {
		r.metrics.IncrementDuplicate()
		r.log.Debug().Str("kind", kind).Str("requestID", id.Hex()).Msg("skipping redelivered request")
		return nil
	}

	start := time.Now()
	defer func() { r.metrics.ObserveCallbackLatency(kind, time.Since(start)) }()

	input, err := build(ctx, l)
	if err != nil {
		r.metrics.IncrementCallback(kind, "failed")
		return err
	}
	if _, err := r.chain.Call(ctx, r.cfg.Oracle, r.cfg.Contract, input); err != nil {
		r.metrics.IncrementCallback(kind, "rejected")
		return fmt.Errorf("%s callback rejected: %w", kind, err)
	}
	r.metrics.IncrementCallback(kind, "submitted")
	r.log.Info().
		Str("kind", kind).
		Str("requestID", id.Hex()).
		Str("account", common.BytesToAddress(l.Topics[2].Bytes()).Hex()).
		Msg("oracle callback submitted")
	return nil
}

func (r *Relayer) decryption(_ context.Context, l *ethtypes.Log) ([]byte, error) {
	data, err := shadowtrade.ABI.UnpackEvent("DecryptionRequested", l)
	if err != nil {
		return nil, err
	}
	handle := fhe.HandleFromHash(data[0].([32]byte))
	plaintext, proof, err := r.decryptor.Decrypt(l.Topics[1], handle)
	if err != nil {
		return nil, fmt.Errorf("decrypt %s: %w", handle, err)
	}
	return shadowtrade.ABI.Pack("onDecryptionCallback", [32]byte(l.Topics[1]), plaintext, proof)
}

func (r *Relayer) verification(ctx context.Context, l *ethtypes.Log) ([]byte, error) {
	data, err := shadowtrade.ABI.UnpackEvent("VerificationRequested", l)
	if err != nil {
		return nil, err
	}
	account := common.BytesToAddress(l.Topics[2].Bytes())
	collection := data[0].(common.Address)
	owns, err := r.ownership.OwnsToken(ctx, account, collection)
	if err != nil {
		return nil, fmt.Errorf("ownership of %s: %w", collection, err)
	}
	return shadowtrade.ABI.Pack("onVerificationCallback", [32]byte(l.Topics[1]), owns)
}
