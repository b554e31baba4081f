// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package fhe

import (
	"crypto/rand"
	"fmt"
	"io"

	"github.com/cloudflare/circl/sign/mldsa/mldsa65"
	"github.com/luxfi/geth/common"
	"github.com/zeebo/blake3"
)

// Domain tags for signed digests.
var (
	inputDomain      = []byte("shadowtrade/input-proof/v1")
	decryptionDomain = []byte("shadowtrade/decryption-proof/v1")
)

// InputVerifier checks that proof binds handle to account and the target
// contract. It is the only check performed on client ciphertexts.
type InputVerifier interface {
	VerifyInput(handle Handle, account, contract common.Address, proof []byte) bool
}

// DecryptionVerifier checks that proof attests plaintext as the decryption of
// handle for request requestID.
type DecryptionVerifier interface {
	VerifyDecryption(requestID common.Hash, handle Handle, plaintext common.Address, proof []byte) bool
}

func InputDigest(handle Handle, account, contract common.Address) []byte {
	return digest(inputDomain, handle[:], account.Bytes(), contract.Bytes())
}

func DecryptionDigest(requestID common.Hash, handle Handle, plaintext common.Address) []byte {
	return digest(decryptionDomain, requestID[:], handle[:], plaintext.Bytes())
}

func digest(domain []byte, parts ...[]byte) []byte {
	h := blake3.New()
	h.Write(domain)
	for _, p := range parts {
		h.Write(p)
	}
	out := make([]byte, 32)
	h.Digest().Read(out)
	return out
}

// MLDSAVerifier verifies ML-DSA-65 signatures over input and decryption
// digests. One instance is configured per trusted signer.
type MLDSAVerifier struct {
	pk mldsa65.PublicKey
}

var (
	_ InputVerifier      = (*MLDSAVerifier)(nil)
	_ DecryptionVerifier = (*MLDSAVerifier)(nil)
)

func NewMLDSAVerifier(publicKey []byte) (*MLDSAVerifier, error) {
	v := &MLDSAVerifier{}
	if err := v.pk.UnmarshalBinary(publicKey); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}
	return v, nil
}

func (v *MLDSAVerifier) verify(msg, sig []byte) bool {
	if len(sig) != mldsa65.SignatureSize {
		return false
	}
	return mldsa65.Verify(&v.pk, msg, nil, sig)
}

func (v *MLDSAVerifier) VerifyInput(handle Handle, account, contract common.Address, proof []byte) bool {
	if handle.IsNull() {
		return false
	}
	return v.verify(InputDigest(handle, account, contract), proof)
}

func (v *MLDSAVerifier) VerifyDecryption(requestID common.Hash, handle Handle, plaintext common.Address, proof []byte) bool {
	return v.verify(DecryptionDigest(requestID, handle, plaintext), proof)
}

// Signer holds an ML-DSA-65 key pair of a trusted off-chain party.
type Signer struct {
	pub  *mldsa65.PublicKey
	priv *mldsa65.PrivateKey
}

// GenerateSigner creates a fresh key pair from r, or crypto/rand when nil.
func GenerateSigner(r io.Reader) (*Signer, error) {
	if r == nil {
		r = rand.Reader
	}
	pub, priv, err := mldsa65.GenerateKey(r)
	if err != nil {
		return nil, err
	}
	return &Signer{pub: pub, priv: priv}, nil
}

func (s *Signer) PublicKey() []byte {
	b, _ := s.pub.MarshalBinary()
	return b
}

// Verifier returns a verifier for signatures made by s.
func (s *Signer) Verifier() *MLDSAVerifier {
	return &MLDSAVerifier{pk: *s.pub}
}

func (s *Signer) sign(msg []byte) ([]byte, error) {
	sig := make([]byte, mldsa65.SignatureSize)
	if err := mldsa65.SignTo(s.priv, msg, nil, true, sig); err != nil {
		return nil, err
	}
	return sig, nil
}

func (s *Signer) SignInput(handle Handle, account, contract common.Address) ([]byte, error) {
	return s.sign(InputDigest(handle, account, contract))
}

func (s *Signer) SignDecryption(requestID common.Hash, handle Handle, plaintext common.Address) ([]byte, error) {
	return s.sign(DecryptionDigest(requestID, handle, plaintext))
}
