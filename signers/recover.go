// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package signers

import (
	"math/big"

	"github.com/luxfi/crypto"
	"github.com/luxfi/geth/common"

	"github.com/luxfi/xbridge/cache"
)

// SignatureLen is the length of a recoverable secp256k1 signature [R || S || V].
const SignatureLen = crypto.SignatureLength

// Recoverer returns the address that produced sig over digest.
type Recoverer interface {
	Recover(digest common.Hash, sig []byte) (common.Address, error)
}

// RecoverFunc adapts a function to a Recoverer.
type RecoverFunc func(digest common.Hash, sig []byte) (common.Address, error)

func (f RecoverFunc) Recover(digest common.Hash, sig []byte) (common.Address, error) {
	return f(digest, sig)
}

type recoverKey struct {
	digest common.Hash
	sig    [SignatureLen]byte
}

// EthRecoverer recovers secp256k1 signatures. V may be 0/1 or 27/28, and
// high-s signatures are rejected.
type EthRecoverer struct {
	cache *cache.LRUCache[recoverKey, common.Address]
}

// NewEthRecoverer creates a recoverer that memoizes up to cacheSize
// recoveries. A zero cacheSize disables memoization.
func NewEthRecoverer(cacheSize int) (*EthRecoverer, error) {
	r := &EthRecoverer{}
	if cacheSize > 0 {
		c, err := cache.NewLRUCache[recoverKey, common.Address](cacheSize)
		if err != nil {
			return nil, err
		}
		r.cache = c
	}
	return r, nil
}

func (r *EthRecoverer) Recover(digest common.Hash, sig []byte) (common.Address, error) {
	if len(sig) != SignatureLen {
		return common.Address{}, ErrInvalidSignature.Errorf("length %d", len(sig))
	}
	if r.cache == nil {
		return recoverAddress(digest, sig)
	}
	key := recoverKey{digest: digest}
	copy(key.sig[:], sig)
	return r.cache.Get(key, func(k recoverKey) (common.Address, error) {
		return recoverAddress(k.digest, k.sig[:])
	}, false)
}

func recoverAddress(digest common.Hash, sig []byte) (common.Address, error) {
	v := sig[crypto.RecoveryIDOffset]
	if v >= 27 {
		v -= 27
	}
	rr := new(big.Int).SetBytes(sig[:32])
	ss := new(big.Int).SetBytes(sig[32:64])
	if !crypto.ValidateSignatureValues(v, rr, ss, true) {
		return common.Address{}, ErrInvalidSignature.Errorf("invalid r, s or v value")
	}

	normalized := make([]byte, SignatureLen)
	copy(normalized, sig)
	normalized[crypto.RecoveryIDOffset] = v
	pub, err := crypto.SigToPub(digest[:], normalized)
	if err != nil {
		return common.Address{}, ErrInvalidSignature.Errorf("%v", err)
	}
	return common.PubkeyToAddress(*pub), nil
}
