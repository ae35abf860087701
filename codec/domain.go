// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package codec

import (
	"github.com/holiman/uint256"
	"github.com/luxfi/crypto"
	"github.com/luxfi/geth/accounts"
	"github.com/luxfi/geth/common"
)

// Domain identifies the contract instance a signature is valid for.
type Domain struct {
	ChainID  uint64
	Contract common.Address
}

// Separator returns keccak256(chainId, contract, name). Every signed payload
// is prefixed with the separator of its request type.
func (d Domain) Separator(name string) common.Hash {
	return NewPacker().
		Uint256(uint256.NewInt(d.ChainID)).
		Address(d.Contract).
		Text(name).
		Keccak()
}

// Hash returns keccak256 of b.
func Hash(b []byte) common.Hash {
	return common.Keccak256Hash(b)
}

// SignedDigest returns the EIP-191 personal message hash of
// keccak256(separator || payload...). This is the digest signers sign.
func SignedDigest(separator common.Hash, payload ...[]byte) common.Hash {
	parts := make([][]byte, 0, len(payload)+1)
	parts = append(parts, separator[:])
	parts = append(parts, payload...)
	return common.BytesToHash(accounts.TextHash(crypto.Keccak256(parts...)))
}
