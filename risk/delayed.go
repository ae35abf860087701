// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package risk

import (
	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/ids"
	"go.uber.org/zap"

	"github.com/luxfi/xbridge"
	"github.com/luxfi/xbridge/state"
)

// DelayedTransfer is an escrowed transfer waiting for the delay period.
type DelayedTransfer struct {
	Receiver  common.Address
	Token     common.Address
	Amount    *uint256.Int
	CreatedAt uint64
	Executed  bool
}

func delayedKey(id ids.ID) []byte {
	return state.Key([]byte("risk/delayed/"), id[:])
}

// GetDelayedTransfer returns the delayed transfer recorded under id.
func (c *Controller) GetDelayedTransfer(rd state.Reader, id ids.ID) (*DelayedTransfer, bool, error) {
	var dt DelayedTransfer
	ok, err := state.GetRLP(rd, delayedKey(id), &dt)
	if err != nil || !ok {
		return nil, false, err
	}
	return &dt, true, nil
}

// MaybeDelay escrows the transfer under id when amount exceeds token's
// delay threshold and reports whether it did. A zero threshold never
// delays.
func (c *Controller) MaybeDelay(kv state.KV, id ids.ID, receiver, token common.Address, amount *uint256.Int) (bool, error) {
	threshold, err := c.Limit(kv, DelayThreshold, token)
	if err != nil {
		return false, err
	}
	if threshold.IsZero() || !amount.Gt(threshold) {
		return false, nil
	}
	return true, c.addDelayedTransfer(kv, id, receiver, token, amount)
}

func (c *Controller) addDelayedTransfer(kv state.KV, id ids.ID, receiver, token common.Address, amount *uint256.Int) error {
	ok, err := state.Has(kv, delayedKey(id))
	if err != nil {
		return err
	}
	if ok {
		return ErrDelayedExists.Errorf("%s", common.Hash(id))
	}
	dt := &DelayedTransfer{
		Receiver:  receiver,
		Token:     token,
		Amount:    new(uint256.Int).Set(amount),
		CreatedAt: xbridge.Unix(c.cfg.Now()),
	}
	if err := state.PutRLP(kv, delayedKey(id), dt); err != nil {
		return err
	}
	kv.Emit(DelayedTransferAdded{ID: id})
	kv.OnCommit(c.cfg.Metrics.DelayedTransferAdded)
	c.cfg.Logger.Info("Delayed transfer",
		zap.Stringer("id", common.Hash(id)),
		zap.Stringer("token", token),
		zap.String("amount", amount.Dec()),
	)
	return nil
}

// ExecuteDelayedTransfer releases the escrow under id once the delay
// period has strictly elapsed and marks it executed. The caller performs
// the actual value transfer in the same transition.
func (c *Controller) ExecuteDelayedTransfer(kv state.KV, id ids.ID) (*DelayedTransfer, error) {
	dt, ok, err := c.GetDelayedTransfer(kv, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrDelayedNotExist.Errorf("%s", common.Hash(id))
	}
	if dt.Executed {
		return nil, ErrDelayedExecuted.Errorf("%s", common.Hash(id))
	}
	period, err := c.DelayPeriod(kv)
	if err != nil {
		return nil, err
	}
	if now := xbridge.Unix(c.cfg.Now()); now <= dt.CreatedAt+period {
		return nil, ErrDelayedLocked.Errorf("unlocks after %d", dt.CreatedAt+period)
	}

	dt.Executed = true
	if err := state.PutRLP(kv, delayedKey(id), dt); err != nil {
		return nil, err
	}
	kv.Emit(DelayedTransferExecuted{
		ID:       id,
		Receiver: dt.Receiver,
		Token:    dt.Token,
		Amount:   dt.Amount,
	})
	kv.OnCommit(c.cfg.Metrics.DelayedTransferExecuted)
	return dt, nil
}
