// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package bridge

import (
	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"

	"github.com/luxfi/xbridge/risk"
	"github.com/luxfi/xbridge/signers"
	"github.com/luxfi/xbridge/state"
	"github.com/luxfi/xbridge/token"
)

// VerifySigs checks bundle against the live signer set over payload in the
// named domain. Other contracts, such as the message bus, authenticate
// their requests through it.
func (b *Bridge) VerifySigs(domainName string, payload []byte, bundle signers.Bundle) error {
	return b.cfg.Store.View(func(rd state.Reader) error {
		return b.registry.Verify(rd, domainName, payload, bundle)
	})
}

// VerifyDigest checks bundle against the live signer set over a digest
// built by the caller in its own domain.
func (b *Bridge) VerifyDigest(digest common.Hash, bundle signers.Bundle) error {
	return b.cfg.Store.View(func(rd state.Reader) error {
		live, err := b.registry.Current(rd)
		if err != nil {
			return err
		}
		return signers.Verify(b.cfg.Recoverer, digest, bundle, live)
	})
}

// Signers returns the live signer set.
func (b *Bridge) Signers() (*signers.Set, error) {
	var set *signers.Set
	err := b.cfg.Store.View(func(rd state.Reader) error {
		var err error
		set, err = b.registry.Current(rd)
		return err
	})
	return set, err
}

// Limit returns the value of l for asset.
func (b *Bridge) Limit(l risk.Limit, asset common.Address) (*uint256.Int, error) {
	var v *uint256.Int
	err := b.cfg.Store.View(func(rd state.Reader) error {
		var err error
		v, err = b.risk.Limit(rd, l, asset)
		return err
	})
	return v, err
}

// EpochLength returns the epoch length in seconds.
func (b *Bridge) EpochLength() (uint64, error) {
	var v uint64
	err := b.cfg.Store.View(func(rd state.Reader) error {
		var err error
		v, err = b.risk.EpochLength(rd)
		return err
	})
	return v, err
}

// DelayPeriod returns the delayed-transfer period in seconds.
func (b *Bridge) DelayPeriod() (uint64, error) {
	var v uint64
	err := b.cfg.Store.View(func(rd state.Reader) error {
		var err error
		v, err = b.risk.DelayPeriod(rd)
		return err
	})
	return v, err
}

// EpochVolume returns the volume of asset in the current epoch.
func (b *Bridge) EpochVolume(asset common.Address) (*uint256.Int, error) {
	var v *uint256.Int
	err := b.cfg.Store.View(func(rd state.Reader) error {
		var err error
		v, err = b.risk.EpochVolume(rd, asset)
		return err
	})
	return v, err
}

// BalanceOf returns the balance of account when the backend can report it.
func (b *Bridge) BalanceOf(asset, account common.Address) (*uint256.Int, error) {
	balances, ok := b.cfg.Backend.(token.Balances)
	if !ok {
		return nil, ErrUnsupportedOperation.Errorf("backend has no balances")
	}
	var v *uint256.Int
	err := b.cfg.Store.View(func(rd state.Reader) error {
		var err error
		v, err = balances.BalanceOf(rd, asset, account)
		return err
	})
	return v, err
}
