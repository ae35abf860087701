// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package signers

import (
	"bytes"
	"context"
	"sort"
	"sync"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/math/set"
	"go.uber.org/zap"

	"github.com/luxfi/xbridge"
)

var ErrDuplicateSignature = xbridge.NewError(xbridge.KindReplay, "duplicate signature")

// Aggregator collects signatures over one digest from members of a live
// signer set and builds the Bundle that proves their quorum.
type Aggregator struct {
	recoverer Recoverer
	digest    common.Hash
	live      *Set
	log       *zap.Logger

	lock   sync.Mutex
	signed set.Set[common.Address]
	sigs   map[common.Address][]byte
	power  *uint256.Int
}

// NewAggregator returns an aggregator for digest against live.
func NewAggregator(r Recoverer, digest common.Hash, live *Set, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{
		recoverer: r,
		digest:    digest,
		live:      live,
		log:       logger,
		signed:    set.NewSet[common.Address](live.Len()),
		sigs:      make(map[common.Address][]byte, live.Len()),
		power:     new(uint256.Int),
	}
}

// Add records sig and returns the signer it recovers to. The signer must be
// a live member that has not signed yet.
func (a *Aggregator) Add(sig []byte) (common.Address, error) {
	addr, err := a.recoverer.Recover(a.digest, sig)
	if err != nil {
		return common.Address{}, err
	}
	power, ok := a.live.Power(addr)
	if !ok {
		return addr, ErrSignerNotFound.Errorf("%s", addr)
	}

	a.lock.Lock()
	defer a.lock.Unlock()

	if a.signed.Contains(addr) {
		return addr, ErrDuplicateSignature.Errorf("%s", addr)
	}
	a.signed.Add(addr)
	a.sigs[addr] = sig
	a.power.Add(a.power, power)
	return addr, nil
}

// Power returns the power signed so far.
func (a *Aggregator) Power() *uint256.Int {
	a.lock.Lock()
	defer a.lock.Unlock()

	return new(uint256.Int).Set(a.power)
}

// QuorumReached reports whether the signed power reaches the live quorum.
func (a *Aggregator) QuorumReached() bool {
	return !a.Power().Lt(a.live.Quorum())
}

// Bundle returns the collected signatures in ascending signer order.
func (a *Aggregator) Bundle() Bundle {
	a.lock.Lock()
	defer a.lock.Unlock()

	addrs := a.signed.List()
	sort.Slice(addrs, func(i, j int) bool {
		return bytes.Compare(addrs[i][:], addrs[j][:]) < 0
	})
	b := Bundle{
		Sigs:    make([][]byte, 0, len(addrs)),
		Signers: addrs,
		Powers:  make([]*uint256.Int, 0, len(addrs)),
	}
	for _, addr := range addrs {
		power, _ := a.live.Power(addr)
		b.Sigs = append(b.Sigs, a.sigs[addr])
		b.Powers = append(b.Powers, power)
	}
	return b
}

// Collect adds signatures from sigs until the quorum is reached, sigs is
// closed or ctx is done. Invalid and duplicate signatures are dropped. It
// returns whatever was collected, and ErrQuorumNotReached when that is
// short of quorum.
func (a *Aggregator) Collect(ctx context.Context, sigs <-chan []byte) (Bundle, error) {
	for !a.QuorumReached() {
		select {
		case <-ctx.Done():
			return a.Bundle(), a.shortOfQuorum()
		case sig, ok := <-sigs:
			if !ok {
				return a.Bundle(), a.shortOfQuorum()
			}
			if addr, err := a.Add(sig); err != nil {
				a.log.Debug("Dropping signature",
					zap.Stringer("signer", addr),
					zap.Error(err),
				)
			}
		}
	}
	return a.Bundle(), nil
}

func (a *Aggregator) shortOfQuorum() error {
	if a.QuorumReached() {
		return nil
	}
	return ErrQuorumNotReached.Errorf("signed %s, need %s", a.Power().Dec(), a.live.Quorum().Dec())
}
