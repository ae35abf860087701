// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package signers

import (
	"bytes"
	"crypto/ecdsa"
	"fmt"
	"sort"

	"github.com/luxfi/crypto"
	"github.com/luxfi/geth/common"
)

// LocalSigner signs digests with an in-process secp256k1 key.
type LocalSigner struct {
	key  *ecdsa.PrivateKey
	addr common.Address
}

// NewLocalSigner creates a new local signer
func NewLocalSigner(key *ecdsa.PrivateKey) *LocalSigner {
	return &LocalSigner{
		key:  key,
		addr: common.PubkeyToAddress(key.PublicKey),
	}
}

// NewLocalSignerFromHex parses a hex encoded private key.
func NewLocalSignerFromHex(hexKey string) (*LocalSigner, error) {
	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, fmt.Errorf("failed to parse signer key: %w", err)
	}
	return NewLocalSigner(key), nil
}

// GenerateLocalSigner creates a signer with a fresh random key.
func GenerateLocalSigner() (*LocalSigner, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, err
	}
	return NewLocalSigner(key), nil
}

func (s *LocalSigner) Address() common.Address {
	return s.addr
}

// Sign returns a 65 byte signature over digest with V in {27, 28}.
func (s *LocalSigner) Sign(digest common.Hash) ([]byte, error) {
	sig, err := crypto.Sign(digest[:], s.key)
	if err != nil {
		return nil, err
	}
	sig[crypto.RecoveryIDOffset] += 27
	return sig, nil
}

// SortByAddress orders signers ascending by address.
func SortByAddress(ss []*LocalSigner) {
	sort.Slice(ss, func(i, j int) bool {
		return bytes.Compare(ss[i].addr[:], ss[j].addr[:]) < 0
	})
}

// NewBundle signs digest with every signer and claims their powers from
// live. Signatures are emitted in ascending signer order.
func NewBundle(digest common.Hash, live *Set, ss ...*LocalSigner) (Bundle, error) {
	sorted := make([]*LocalSigner, len(ss))
	copy(sorted, ss)
	SortByAddress(sorted)

	var b Bundle
	for _, s := range sorted {
		power, ok := live.Power(s.addr)
		if !ok {
			return Bundle{}, ErrSignerNotFound.Errorf("%s", s.addr)
		}
		sig, err := s.Sign(digest)
		if err != nil {
			return Bundle{}, err
		}
		b.Sigs = append(b.Sigs, sig)
		b.Signers = append(b.Signers, s.addr)
		b.Powers = append(b.Powers, power)
	}
	return b, nil
}
