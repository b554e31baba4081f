// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package reveal drives the two-phase reveal of shadow identities and gates
// withdrawal of purchased balances to the revealed proxy address.
//
// A reveal starts with RequestDecryption, which records a pending request for
// the account's ciphertext handle and returns immediately. The decryption
// oracle later delivers the plaintext through OnDecryptionCallback together
// with a proof over (request id, handle, plaintext). Only then does the proxy
// become public and able to Withdraw.
package reveal

import (
	"errors"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"

	"github.com/parsdao/shadowtrade/fhe"
	"github.com/parsdao/shadowtrade/identity"
	"github.com/parsdao/shadowtrade/roles"
	"github.com/parsdao/shadowtrade/store"
	"github.com/parsdao/shadowtrade/trade"
)

var (
	ErrUnknownRequest      = errors.New("unknown decryption request")
	ErrAlreadyComplete     = errors.New("decryption request already complete")
	ErrProofInvalid        = errors.New("invalid decryption proof")
	ErrAlreadyRevealed     = errors.New("identity already revealed")
	ErrNotRevealed         = errors.New("proxy not revealed")
	ErrInvalidProxy        = errors.New("invalid proxy address")
	ErrProxyConflict       = errors.New("proxy already bound to another account")
	ErrInsufficientCustody = errors.New("insufficient custody inventory")
)

// ErrZeroBalance is returned by Withdraw when there is nothing to withdraw.
var ErrZeroBalance = trade.ErrZeroBalance

// State is the reveal state of an account.
type State uint8

const (
	StateUnregistered State = iota
	StateRegistered
	StateDecryptionRequested
	StateRevealed
)

func (s State) String() string {
	switch s {
	case StateUnregistered:
		return "unregistered"
	case StateRegistered:
		return "registered"
	case StateDecryptionRequested:
		return "decryption-requested"
	case StateRevealed:
		return "revealed"
	default:
		return "unknown"
	}
}

// RequestStatus tracks a single decryption request.
type RequestStatus uint8

const (
	StatusNone RequestStatus = iota
	StatusPending
	StatusResolved
	StatusSuperseded
)

var (
	prefixRecord  = []byte("reveal/record")
	prefixRequest = []byte("reveal/request")
	prefixProxy   = []byte("reveal/proxy")
	nonceSlot     = store.Key([]byte("reveal/nonce"))
)

const (
	fieldRequestID byte = iota
	fieldProxy
	fieldRequestedAt
	fieldRevealedAt
)

const (
	fieldAccount byte = iota
	fieldHandle
	fieldStatus
	fieldIssuedAt
)

// Record is the reveal record of an account.
type Record struct {
	RequestID   common.Hash
	Proxy       common.Address
	RequestedAt uint64
	RevealedAt  uint64
}

// Request is a decryption request as issued to the oracle.
type Request struct {
	ID          common.Hash
	Account     common.Address
	Handle      fhe.Handle
	Status      RequestStatus
	RequestedAt uint64
}

// Custody is the ledger of an asset held by the protocol.
type Custody interface {
	BalanceOf(owner common.Address) *uint256.Int
	Transfer(from, to common.Address, amount *uint256.Int) error
}

type Coordinator struct {
	st       store.Store
	ids      *identity.Registry
	engine   *trade.Engine
	roles    roles.Checker
	verifier fhe.DecryptionVerifier
	custody  func(asset common.Address) Custody
}

func New(
	st store.Store,
	ids *identity.Registry,
	engine *trade.Engine,
	checker roles.Checker,
	verifier fhe.DecryptionVerifier,
	custody func(asset common.Address) Custody,
) *Coordinator {
	return &Coordinator{
		st:       st,
		ids:      ids,
		engine:   engine,
		roles:    checker,
		verifier: verifier,
		custody:  custody,
	}
}

func recordKey(account common.Address) common.Hash {
	return store.Key(prefixRecord, account.Bytes())
}

func requestKey(id common.Hash) common.Hash {
	return store.Key(prefixRequest, id[:])
}

func proxyKey(proxy common.Address) common.Hash {
	return store.Key(prefixProxy, proxy.Bytes())
}

func (c *Coordinator) Record(account common.Address) Record {
	base := recordKey(account)
	requestedAt, _ := c.st.GetUint64(store.Field(base, fieldRequestedAt))
	revealedAt, _ := c.st.GetUint64(store.Field(base, fieldRevealedAt))
	return Record{
		RequestID:   c.st.Get(store.Field(base, fieldRequestID)),
		Proxy:       c.st.GetAddress(store.Field(base, fieldProxy)),
		RequestedAt: requestedAt,
		RevealedAt:  revealedAt,
	}
}

func (c *Coordinator) Request(id common.Hash) Request {
	base := requestKey(id)
	at, _ := c.st.GetUint64(store.Field(base, fieldIssuedAt))
	return Request{
		ID:          id,
		Account:     c.st.GetAddress(store.Field(base, fieldAccount)),
		Handle:      fhe.HandleFromHash(c.st.Get(store.Field(base, fieldHandle))),
		Status:      RequestStatus(c.st.GetUint8(store.Field(base, fieldStatus))),
		RequestedAt: at,
	}
}

func (c *Coordinator) State(account common.Address) State {
	if !c.ids.IsRegistered(account) {
		return StateUnregistered
	}
	rec := c.Record(account)
	switch {
	case rec.Proxy != (common.Address{}):
		return StateRevealed
	case rec.RequestID != (common.Hash{}):
		return StateDecryptionRequested
	default:
		return StateRegistered
	}
}

// ResolveProxy returns the account a revealed proxy belongs to.
func (c *Coordinator) ResolveProxy(proxy common.Address) (common.Address, bool) {
	if proxy == (common.Address{}) {
		return common.Address{}, false
	}
	account := c.st.GetAddress(proxyKey(proxy))
	return account, account != (common.Address{})
}

// RequestDecryption issues a fresh decryption request for account's handle.
// A request still pending for the account is superseded: its eventual
// callback fails with ErrUnknownRequest.
func (c *Coordinator) RequestDecryption(account common.Address, now uint64) (Request, error) {
	id, err := c.ids.Require(account)
	if err != nil {
		return Request{}, err
	}
	base := recordKey(account)
	rec := c.Record(account)
	if rec.Proxy != (common.Address{}) {
		return Request{}, ErrAlreadyRevealed
	}

	if rec.RequestID != (common.Hash{}) {
		c.st.SetUint8(store.Field(requestKey(rec.RequestID), fieldStatus), uint8(StatusSuperseded))
	}

	nonce := c.st.NextNonce(nonceSlot)
	reqID := store.Key([]byte("reveal/request-id"), c.st.Address().Bytes(), account.Bytes(), store.Uint64Bytes(nonce))

	reqBase := requestKey(reqID)
	c.st.SetAddress(store.Field(reqBase, fieldAccount), account)
	c.st.Set(store.Field(reqBase, fieldHandle), id.Handle.Hash())
	c.st.SetUint8(store.Field(reqBase, fieldStatus), uint8(StatusPending))
	c.st.SetUint64(store.Field(reqBase, fieldIssuedAt), now)

	c.st.Set(store.Field(base, fieldRequestID), reqID)
	c.st.SetUint64(store.Field(base, fieldRequestedAt), now)

	return Request{
		ID:          reqID,
		Account:     account,
		Handle:      id.Handle,
		Status:      StatusPending,
		RequestedAt: now,
	}, nil
}

// OnDecryptionCallback resolves request id with plaintext. Only an oracle may
// deliver callbacks; a rejected callback leaves the request pending.
func (c *Coordinator) OnDecryptionCallback(caller common.Address, id common.Hash, plaintext common.Address, proof []byte, now uint64) (common.Address, error) {
	if !c.roles.HasRole(caller, roles.RoleOracle) {
		return common.Address{}, roles.ErrUnauthorized
	}
	req := c.Request(id)
	switch req.Status {
	case StatusPending:
	case StatusResolved:
		return common.Address{}, ErrAlreadyComplete
	default:
		return common.Address{}, ErrUnknownRequest
	}
	if plaintext == (common.Address{}) {
		return common.Address{}, ErrInvalidProxy
	}
	if owner, ok := c.ResolveProxy(plaintext); ok && owner != req.Account {
		return common.Address{}, ErrProxyConflict
	}
	if c.verifier == nil || !c.verifier.VerifyDecryption(id, req.Handle, plaintext, proof) {
		return common.Address{}, ErrProofInvalid
	}

	base := recordKey(req.Account)
	c.st.SetUint8(store.Field(requestKey(id), fieldStatus), uint8(StatusResolved))
	c.st.SetAddress(store.Field(base, fieldProxy), plaintext)
	c.st.SetUint64(store.Field(base, fieldRevealedAt), now)
	c.st.SetAddress(proxyKey(plaintext), req.Account)
	return req.Account, nil
}

// Withdraw pays the full ledger balance of asset owned by the account behind
// proxy out of custody to proxy.
func (c *Coordinator) Withdraw(proxy, asset common.Address) (*uint256.Int, error) {
	account, ok := c.ResolveProxy(proxy)
	if !ok || c.State(account) != StateRevealed {
		return nil, ErrNotRevealed
	}
	amount := c.engine.Balance(account, asset)
	if amount.IsZero() {
		return nil, ErrZeroBalance
	}
	ledger := c.custody(asset)
	if ledger.BalanceOf(c.st.Address()).Lt(amount) {
		return nil, ErrInsufficientCustody
	}

	if _, err := c.engine.Drain(account, asset); err != nil {
		return nil, err
	}
	if err := ledger.Transfer(c.st.Address(), proxy, amount); err != nil {
		return nil, err
	}
	return amount, nil
}
