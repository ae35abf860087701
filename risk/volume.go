// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package risk

import (
	"math/big"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"go.uber.org/zap"

	"github.com/luxfi/xbridge"
	"github.com/luxfi/xbridge/state"
)

type epochVolume struct {
	EpochStart uint64
	Volume     *uint256.Int
}

func volumeKey(token common.Address) []byte {
	return state.Key([]byte("risk/volume/"), token[:])
}

// CheckAndUpdateEpochVolume adds amount to token's volume for the current
// epoch and rejects the operation if the volume would exceed the cap. The
// accumulator restarts at each epoch boundary. A zero epoch length or cap
// disables the check.
//
// This is not idempotent: call it once per admitted operation, after every
// other check has passed.
func (c *Controller) CheckAndUpdateEpochVolume(kv state.KV, token common.Address, amount *uint256.Int) error {
	length, err := c.EpochLength(kv)
	if err != nil || length == 0 {
		return err
	}
	limit, err := c.Limit(kv, EpochVolumeCap, token)
	if err != nil || limit.IsZero() {
		return err
	}

	now := xbridge.Unix(c.cfg.Now())
	epochStart := now / length * length

	var stored epochVolume
	if _, err := state.GetRLP(kv, volumeKey(token), &stored); err != nil {
		return err
	}
	volume := new(uint256.Int)
	if stored.EpochStart == epochStart && stored.Volume != nil {
		volume.Set(stored.Volume)
	}
	next, overflow := new(uint256.Int).AddOverflow(volume, amount)
	if overflow || next.Gt(limit) {
		return ErrVolumeExceeded.Errorf("%s + %s > %s", volume.Dec(), amount.Dec(), limit.Dec())
	}

	if err := state.PutRLP(kv, volumeKey(token), &epochVolume{EpochStart: epochStart, Volume: next}); err != nil {
		return err
	}
	c.cfg.Logger.Debug("Updated epoch volume",
		zap.Stringer("token", token),
		zap.Uint64("epochStart", epochStart),
		zap.String("volume", next.Dec()),
	)
	f, _ := new(big.Float).SetInt(next.ToBig()).Float64()
	kv.OnCommit(func() { c.cfg.Metrics.EpochVolume(token.Hex(), f) })
	return nil
}

// EpochVolume returns the volume accumulated for token in the epoch that
// contains now.
func (c *Controller) EpochVolume(rd state.Reader, token common.Address) (*uint256.Int, error) {
	length, err := c.EpochLength(rd)
	if err != nil || length == 0 {
		return new(uint256.Int), err
	}
	var stored epochVolume
	ok, err := state.GetRLP(rd, volumeKey(token), &stored)
	if err != nil || !ok {
		return new(uint256.Int), err
	}
	now := xbridge.Unix(c.cfg.Now())
	if stored.EpochStart != now/length*length || stored.Volume == nil {
		return new(uint256.Int), nil
	}
	return stored.Volume, nil
}
