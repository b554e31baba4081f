// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package shadowtrade

import (
	"fmt"

	"github.com/luxfi/geth/common"

	"github.com/parsdao/shadowtrade/attestation"
	"github.com/parsdao/shadowtrade/contract"
	"github.com/parsdao/shadowtrade/fhe"
	"github.com/parsdao/shadowtrade/identity"
	"github.com/parsdao/shadowtrade/pricing"
	"github.com/parsdao/shadowtrade/reveal"
	"github.com/parsdao/shadowtrade/reward"
	"github.com/parsdao/shadowtrade/roles"
	"github.com/parsdao/shadowtrade/store"
	"github.com/parsdao/shadowtrade/token"
	"github.com/parsdao/shadowtrade/trade"
)

var (
	paymentTokenSlot = store.Key([]byte("shadowtrade/payment-token"))
	treasurySlot     = store.Key([]byte("shadowtrade/treasury"))
	inventorySlot    = store.Key([]byte("shadowtrade/inventory-minted"))
)

// protocol wires the components over the storage of one contract address
// for the duration of a call.
type protocol struct {
	state       contract.StateDB
	st          store.Store
	blockNumber uint64

	roles    *roles.Registry
	ids      *identity.Registry
	prices   *pricing.Table
	engine   *trade.Engine
	reveal   *reveal.Coordinator
	attest   *attestation.Registry
	rewards  *reward.Ledger
	payToken common.Address
}

func newProtocol(
	state contract.StateDB,
	addr common.Address,
	blockNumber uint64,
	inputVerifier fhe.InputVerifier,
	decryptVerifier fhe.DecryptionVerifier,
) *protocol {
	st := store.New(state, addr)
	emitter := token.LogEmitter{State: state, BlockNumber: blockNumber}

	r := roles.New(st)
	ids := identity.New(st, inputVerifier)
	prices := pricing.New(st, r)
	payToken := st.GetAddress(paymentTokenSlot)
	engine := trade.New(st, ids, prices, token.New(state, payToken, emitter), st.GetAddress(treasurySlot))
	custody := func(asset common.Address) reveal.Custody {
		return token.New(state, asset, emitter)
	}
	attest := attestation.New(st, ids, r)

	return &protocol{
		state:       state,
		st:          st,
		blockNumber: blockNumber,
		roles:       r,
		ids:         ids,
		prices:      prices,
		engine:      engine,
		reveal:      reveal.New(st, ids, engine, r, decryptVerifier, custody),
		attest:      attest,
		rewards:     reward.New(st, attest, r),
		payToken:    payToken,
	}
}

func (p *protocol) emit(name string, args ...interface{}) error {
	return ABI.EmitEvent(p.state, p.st.Address(), p.blockNumber, name, args...)
}

// exec runs a mutating method on behalf of caller at block time now.
func (p *protocol) exec(caller common.Address, now uint64, method string, args []interface{}) ([]byte, error) {
	switch method {
	case "register":
		handle := fhe.HandleFromHash(args[0].([32]byte))
		if err := p.ids.Register(caller, handle, args[1].([]byte), now); err != nil {
			return nil, err
		}
		return nil, p.emit("Registered", caller, handle.Hash())

	case "purchase":
		if p.payToken == (common.Address{}) {
			return nil, ErrNotConfigured
		}
		asset := args[0].(common.Address)
		amount, err := toUint256(args[1])
		if err != nil {
			return nil, err
		}
		payment, err := p.engine.Purchase(caller, asset, amount)
		if err != nil {
			return nil, err
		}
		if err := p.emit("Purchased", caller, asset, amount.ToBig(), payment.ToBig()); err != nil {
			return nil, err
		}
		return ABI.PackOutput(method, payment.ToBig())

	case "setPrice":
		asset := args[0].(common.Address)
		price, err := toUint256(args[1])
		if err != nil {
			return nil, err
		}
		if err := p.prices.SetPrice(caller, asset, price); err != nil {
			return nil, err
		}
		return nil, p.emit("PriceSet", asset, price.ToBig())

	case "requestDecryption":
		req, err := p.reveal.RequestDecryption(caller, now)
		if err != nil {
			return nil, err
		}
		if err := p.emit("DecryptionRequested", req.ID, req.Account, req.Handle.Hash()); err != nil {
			return nil, err
		}
		return ABI.PackOutput(method, req.ID)

	case "onDecryptionCallback":
		id := common.Hash(args[0].([32]byte))
		proxy := args[1].(common.Address)
		account, err := p.reveal.OnDecryptionCallback(caller, id, proxy, args[2].([]byte), now)
		if err != nil {
			return nil, err
		}
		return nil, p.emit("Revealed", account, proxy, id)

	case "withdraw":
		asset := args[0].(common.Address)
		amount, err := p.reveal.Withdraw(caller, asset)
		if err != nil {
			return nil, err
		}
		if err := p.emit("Withdrawn", caller, asset, amount.ToBig()); err != nil {
			return nil, err
		}
		return ABI.PackOutput(method, amount.ToBig())

	case "requestVerification":
		collection := args[0].(common.Address)
		id, err := p.attest.RequestVerification(caller, collection, now)
		if err != nil {
			return nil, err
		}
		if err := p.emit("VerificationRequested", id, caller, collection); err != nil {
			return nil, err
		}
		return ABI.PackOutput(method, id)

	case "onVerificationCallback":
		id := common.Hash(args[0].([32]byte))
		verified := args[1].(bool)
		pending, err := p.attest.OnVerificationCallback(caller, id, verified, now)
		if err != nil {
			return nil, err
		}
		return nil, p.emit("VerificationCompleted", id, pending.Account, pending.Collection, verified)

	case "recordReward":
		collection := args[0].(common.Address)
		amount, err := p.rewards.RecordReward(caller, collection, now)
		if err != nil {
			return nil, err
		}
		if err := p.emit("RewardRecorded", caller, collection, amount.ToBig()); err != nil {
			return nil, err
		}
		return ABI.PackOutput(method, amount.ToBig())

	case "authorizeCollection":
		return nil, p.attest.Authorize(caller, args[0].(common.Address), args[1].(bool))

	case "setRewardAmount":
		amount, err := toUint256(args[1])
		if err != nil {
			return nil, err
		}
		return nil, p.rewards.SetAmount(caller, args[0].(common.Address), amount)

	case "markRewardClaimed":
		return nil, p.rewards.MarkClaimed(caller, args[0].(common.Address), args[1].(common.Address))

	case "grantRole":
		return nil, p.roles.Grant(caller, roles.Role(args[0].(uint8)), args[1].(common.Address))

	case "revokeRole":
		return nil, p.roles.Revoke(caller, roles.Role(args[0].(uint8)), args[1].(common.Address))

	case "transferOwnership":
		return nil, p.roles.TransferOwnership(caller, args[0].(common.Address))
	}
	return nil, fmt.Errorf("%w: %s", contract.ErrUnknownSelector, method)
}

func (p *protocol) view(method string, args []interface{}) ([]byte, error) {
	switch method {
	case "getRegistration":
		id := p.ids.Get(args[0].(common.Address))
		return ABI.PackOutput(method, id.IsRegistered, id.Handle.Hash(), id.RegisteredAt)

	case "getPrice":
		return ABI.PackOutput(method, p.prices.Price(args[0].(common.Address)).ToBig())

	case "getBalance":
		return ABI.PackOutput(method, p.engine.Balance(args[0].(common.Address), args[1].(common.Address)).ToBig())

	case "getOutstanding":
		return ABI.PackOutput(method, p.engine.Outstanding(args[0].(common.Address)).ToBig())

	case "getReveal":
		account := args[0].(common.Address)
		rec := p.reveal.Record(account)
		return ABI.PackOutput(method, uint8(p.reveal.State(account)), rec.RequestID, rec.Proxy, rec.RequestedAt, rec.RevealedAt)

	case "getDecryptionRequest":
		req := p.reveal.Request(common.Hash(args[0].([32]byte)))
		return ABI.PackOutput(method, req.Account, req.Handle.Hash(), uint8(req.Status), req.RequestedAt)

	case "resolveProxy":
		account, found := p.reveal.ResolveProxy(args[0].(common.Address))
		return ABI.PackOutput(method, account, found)

	case "getAttestation":
		rec := p.attest.Get(args[0].(common.Address), args[1].(common.Address))
		return ABI.PackOutput(method, rec.Verified, rec.Finalized, rec.VerifiedAt)

	case "getPendingVerification":
		pending := p.attest.Pending(common.Hash(args[0].([32]byte)))
		return ABI.PackOutput(method, pending.Account, pending.Collection, pending.RequestedAt, pending.Complete, pending.Exists)

	case "isCollectionAuthorized":
		return ABI.PackOutput(method, p.attest.IsAuthorized(args[0].(common.Address)))

	case "getRewardAmount":
		return ABI.PackOutput(method, p.rewards.Amount(args[0].(common.Address)).ToBig())

	case "getReward":
		rec := p.rewards.Get(args[0].(common.Address), args[1].(common.Address))
		return ABI.PackOutput(method, rec.Amount.ToBig(), rec.Claimed, rec.RecordedAt, rec.Exists)

	case "totalRewards":
		return ABI.PackOutput(method, p.rewards.Total(args[0].(common.Address)).ToBig())

	case "hasUnclaimedReward":
		return ABI.PackOutput(method, p.rewards.HasUnclaimed(args[0].(common.Address), args[1].(common.Address)))

	case "owner":
		return ABI.PackOutput(method, p.roles.Owner())

	case "hasRole":
		return ABI.PackOutput(method, p.roles.HasRole(args[1].(common.Address), roles.Role(args[0].(uint8))))
	}
	return nil, fmt.Errorf("%w: %s", contract.ErrUnknownSelector, method)
}
