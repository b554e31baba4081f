// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Command shadowtrade-devnet runs the ShadowTrade protocol on an in-process
// chain: a trader registers an encrypted proxy, buys an asset anonymously,
// proves NFT ownership for a reward, has the proxy revealed by the oracle
// relayer and withdraws to it.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/luxfi/database/memdb"
	"github.com/luxfi/geth/common"
	log "github.com/luxfi/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/parsdao/shadowtrade/fhe"
	"github.com/parsdao/shadowtrade/host"
	"github.com/parsdao/shadowtrade/registry"
	"github.com/parsdao/shadowtrade/relayer"
	"github.com/parsdao/shadowtrade/shadowtrade"
	"github.com/parsdao/shadowtrade/token"
)

var (
	admin    = common.HexToAddress("0xad00000000000000000000000000000000000001")
	oracle   = common.HexToAddress("0x0c00000000000000000000000000000000000001")
	treasury = common.HexToAddress("0x7ea5000000000000000000000000000000000001")
	trader   = common.HexToAddress("0x1111111111111111111111111111111111111111")
	proxy    = common.HexToAddress("0x9999999999999999999999999999999999999999")
	assetX   = common.HexToAddress("0xa55e700000000000000000000000000000000001")
	punks    = common.HexToAddress("0xc011ec7100000000000000000000000000000001")
)

type options struct {
	buyUnits    int64
	priceMicros int64
	workers     int
	metricsAddr string
	timeout     time.Duration
	linger      bool
}

func main() {
	var opts options
	flag.Int64Var(&opts.buyUnits, "buy", 100, "Whole asset units to purchase")
	flag.Int64Var(&opts.priceMicros, "price", 2_000_000, "Unit price in payment token micro-units (6 decimals)")
	flag.IntVar(&opts.workers, "workers", 2, "Oracle relayer workers")
	flag.StringVar(&opts.metricsAddr, "metrics", "", "Serve relayer metrics on this address (e.g. :9090)")
	flag.DurationVar(&opts.timeout, "timeout", 30*time.Second, "Scenario timeout")
	flag.BoolVar(&opts.linger, "linger", false, "Keep serving metrics after the scenario until interrupted")
	flag.Parse()

	if opts.buyUnits <= 0 || opts.priceMicros <= 0 || opts.workers < 1 {
		flag.Usage()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "shadowtrade-devnet: %v\n", err)
		os.Exit(1)
	}
}

func units(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1_000_000_000_000_000_000))
}

func run(root context.Context, opts options) error {
	logger := log.New(os.Stderr).Level(log.InfoLevel).With().Timestamp().Logger()
	reg := prometheus.NewRegistry()
	metrics := relayer.NewMetrics(reg)

	if opts.metricsAddr != "" {
		srv := &http.Server{Addr: opts.metricsAddr, Handler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Warn().Err(err).Msg("metrics server stopped")
			}
		}()
		defer srv.Close()
		logger.Info().Str("addr", opts.metricsAddr).Msg("serving metrics")
	}

	engine, err := fhe.NewEngine()
	if err != nil {
		return fmt.Errorf("fhe engine: %w", err)
	}
	coprocessor, err := fhe.GenerateSigner(nil)
	if err != nil {
		return err
	}
	kmsSigner, err := fhe.GenerateSigner(nil)
	if err != nil {
		return err
	}
	toolkit := fhe.NewToolkit(engine, coprocessor)
	kms := fhe.NewKMS(engine, kmsSigner)

	db := memdb.New()
	defer db.Close()
	chain := host.New(host.Config{ChainID: 1337, GenesisTime: uint64(time.Now().Unix())}, db, logger)

	payment := new(big.Int).Mul(big.NewInt(opts.buyUnits), big.NewInt(opts.priceMicros))
	err = chain.Configure(
		&token.Config{
			Admin:       admin,
			Decimals:    6,
			Allocations: []token.Allocation{{Address: trader, Amount: payment}},
		},
		&shadowtrade.Config{
			Admin:                admin,
			Oracles:              []common.Address{oracle},
			PaymentToken:         token.PaymentTokenAddress,
			Treasury:             treasury,
			CoprocessorPublicKey: coprocessor.PublicKey(),
			KMSPublicKey:         kmsSigner.PublicKey(),
			Prices:               []shadowtrade.PriceEntry{{Asset: assetX, Price: big.NewInt(opts.priceMicros)}},
			Collections:          []shadowtrade.CollectionEntry{{Address: punks}},
			Inventory:            []shadowtrade.InventoryEntry{{Asset: assetX, Amount: units(opts.buyUnits)}},
		},
	)
	if err != nil {
		return fmt.Errorf("genesis: %w", err)
	}
	for _, addr := range []common.Address{token.PaymentTokenAddress, shadowtrade.ContractAddress} {
		if info, ok := registry.Lookup(addr); ok {
			logger.Info().Str("name", info.Name).Str("lp", info.LP).Str("address", addr.Hex()).Msg("precompile active")
		}
	}

	logs, unsubscribe := chain.Subscribe(256)
	defer unsubscribe()
	owners := relayer.OwnershipFunc(func(_ context.Context, account, collection common.Address) (bool, error) {
		return account == trader && collection == punks, nil
	})
	rl, err := relayer.New(relayer.Config{Oracle: oracle, Contract: shadowtrade.ContractAddress, Workers: opts.workers},
		chain, kms, owners, logger, metrics)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(root)
	defer cancel()
	scenarioCtx, scenarioCancel := context.WithTimeout(ctx, opts.timeout)
	defer scenarioCancel()
	relayerDone := make(chan error, 1)
	go func() { relayerDone <- rl.Run(ctx, logs) }()

	s := &scenario{chain: chain, log: logger}
	if err := s.play(scenarioCtx, toolkit, opts); err != nil {
		return err
	}
	logger.Info().Msg("scenario complete")

	if opts.linger && opts.metricsAddr != "" {
		<-root.Done()
	}
	cancel()
	return <-relayerDone
}

type scenario struct {
	chain *host.Chain
	log   log.Logger
}

type packer interface {
	Pack(name string, args ...interface{}) ([]byte, error)
}

func (s *scenario) call(ctx context.Context, from, to common.Address, p packer, method string, args ...interface{}) ([]byte, error) {
	input, err := p.Pack(method, args...)
	if err != nil {
		return nil, err
	}
	ret, err := s.chain.Call(ctx, from, to, input)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	return ret, nil
}

func (s *scenario) view(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	input, err := shadowtrade.ABI.Pack(method, args...)
	if err != nil {
		return nil, err
	}
	ret, err := s.chain.StaticCall(ctx, trader, shadowtrade.ContractAddress, input)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	return shadowtrade.ABI.Unpack(method, ret)
}

// await polls done until it reports true or ctx ends.
func (s *scenario) await(ctx context.Context, what string, done func() (bool, error)) error {
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	for {
		ok, err := done()
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for %s: %w", what, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (s *scenario) play(ctx context.Context, toolkit *fhe.Toolkit, opts options) error {
	st := shadowtrade.ContractAddress
	handle, proof, err := toolkit.EncryptAddress(proxy, trader, st)
	if err != nil {
		return fmt.Errorf("encrypt proxy: %w", err)
	}
	if _, err := s.call(ctx, trader, st, shadowtrade.ABI, "register", [32]byte(handle.Hash()), proof); err != nil {
		return err
	}
	s.log.Info().Str("handle", handle.Hex()).Msg("registered shadow identity")

	payment := new(big.Int).Mul(big.NewInt(opts.buyUnits), big.NewInt(opts.priceMicros))
	if _, err := s.call(ctx, trader, token.PaymentTokenAddress, token.ABI, "approve", st, payment); err != nil {
		return err
	}
	ret, err := s.call(ctx, trader, st, shadowtrade.ABI, "purchase", assetX, units(opts.buyUnits))
	if err != nil {
		return err
	}
	out, err := shadowtrade.ABI.Unpack("purchase", ret)
	if err != nil {
		return err
	}
	s.log.Info().Str("asset", assetX.Hex()).Str("paid", out[0].(*big.Int).String()).Msg("purchased")

	if _, err := s.call(ctx, trader, st, shadowtrade.ABI, "requestVerification", punks); err != nil {
		return err
	}
	if err := s.await(ctx, "attestation", func() (bool, error) {
		out, err := s.view(ctx, "getAttestation", trader, punks)
		if err != nil {
			return false, err
		}
		return out[1].(bool), nil
	}); err != nil {
		return err
	}
	ret, err = s.call(ctx, trader, st, shadowtrade.ABI, "recordReward", punks)
	if err != nil {
		return err
	}
	out, err = shadowtrade.ABI.Unpack("recordReward", ret)
	if err != nil {
		return err
	}
	s.log.Info().Str("amount", out[0].(*big.Int).String()).Msg("reward recorded")

	if _, err := s.call(ctx, trader, st, shadowtrade.ABI, "requestDecryption"); err != nil {
		return err
	}
	if err := s.await(ctx, "reveal", func() (bool, error) {
		out, err := s.view(ctx, "resolveProxy", proxy)
		if err != nil {
			return false, err
		}
		return out[1].(bool), nil
	}); err != nil {
		return err
	}
	s.log.Info().Str("proxy", proxy.Hex()).Msg("proxy revealed")

	ret, err = s.call(ctx, proxy, st, shadowtrade.ABI, "withdraw", assetX)
	if err != nil {
		return err
	}
	out, err = shadowtrade.ABI.Unpack("withdraw", ret)
	if err != nil {
		return err
	}
	s.log.Info().Str("amount", out[0].(*big.Int).String()).Msg("withdrawn to proxy")
	return nil
}
