// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package signers

import (
	"bytes"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
)

// Bundle is the proof attached to a signed request. Sigs are ordered by
// the address they recover to. Signers and Powers are parallel and name
// the members of the live set the signatures are checked against; they may
// be the whole set or only the members that signed.
type Bundle struct {
	Sigs    [][]byte
	Signers []common.Address
	Powers  []*uint256.Int
}

// Verify checks that b carries a quorum of live over digest.
//
// Claimed (signer, power) pairs must be strictly ascending and match live
// exactly. Signatures must recover to strictly ascending claimed signers.
// Each recovered signer is counted once, and every check runs to the end so
// a bad entry is never masked by an early quorum.
func Verify(r Recoverer, digest common.Hash, b Bundle, live *Set) error {
	if len(b.Signers) != len(b.Powers) {
		return ErrLengthMismatch.Errorf("%d signers, %d powers", len(b.Signers), len(b.Powers))
	}

	var prev common.Address
	for i, addr := range b.Signers {
		if i > 0 && bytes.Compare(addr[:], prev[:]) <= 0 {
			return ErrSignersNotAscending.Errorf("claimed signer %d", i)
		}
		prev = addr

		power, ok := live.Power(addr)
		if !ok {
			return ErrSignerNotFound.Errorf("%s", addr)
		}
		if b.Powers[i] == nil || !power.Eq(b.Powers[i]) {
			return ErrPowerMismatch.Errorf("%s", addr)
		}
	}

	var (
		signed    = new(uint256.Int)
		prevSig   common.Address
		claimIdx  int
		recovered common.Address
		err       error
	)
	for i, sig := range b.Sigs {
		recovered, err = r.Recover(digest, sig)
		if err != nil {
			return err
		}
		if i > 0 && bytes.Compare(recovered[:], prevSig[:]) <= 0 {
			return ErrSignersNotAscending.Errorf("signature %d", i)
		}
		prevSig = recovered

		for claimIdx < len(b.Signers) && bytes.Compare(b.Signers[claimIdx][:], recovered[:]) < 0 {
			claimIdx++
		}
		if claimIdx == len(b.Signers) || b.Signers[claimIdx] != recovered {
			return ErrSignerNotFound.Errorf("signature %d recovers to %s", i, recovered)
		}
		signed.Add(signed, b.Powers[claimIdx])
		claimIdx++
	}

	if quorum := live.Quorum(); signed.Lt(quorum) {
		return ErrQuorumNotReached.Errorf("signed %s, need %s", signed.Dec(), quorum.Dec())
	}
	return nil
}
