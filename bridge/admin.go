// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package bridge

import (
	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"go.uber.org/zap"

	"github.com/luxfi/xbridge/codec"
	"github.com/luxfi/xbridge/risk"
	"github.com/luxfi/xbridge/roles"
	"github.com/luxfi/xbridge/state"
)

// UpdateSigners rotates the signer set. The request must be signed by a
// quorum of the current set, named in full by cur and curPowers. Anyone
// may submit it.
func (b *Bridge) UpdateSigners(request []byte, sigs [][]byte, cur []common.Address, curPowers []*uint256.Int) error {
	return b.transition(OpUpdateSigners, func(kv state.KV) error {
		req, err := codec.DecodeAs[*codec.UpdateSignersRequest](b.cfg.Codec, request)
		if err != nil {
			return err
		}
		return b.registry.UpdateSigners(kv, req, sigs, cur, curPowers)
	})
}

// ResetSigners overwrites the signer set once the reset notice has
// elapsed. Owner only.
func (b *Bridge) ResetSigners(caller common.Address, addrs []common.Address, powers []*uint256.Int) error {
	return b.transition(OpResetSigners, func(kv state.KV) error {
		if err := b.roles.Require(kv, caller, roles.Owner); err != nil {
			return err
		}
		return b.registry.ResetSigners(kv, addrs, powers)
	})
}

// NotifyResetSigners starts the reset notice. Owner only. It returns the
// time after which ResetSigners is allowed.
func (b *Bridge) NotifyResetSigners(caller common.Address) (uint64, error) {
	var resetTime uint64
	err := b.transition(OpNotifyReset, func(kv state.KV) error {
		if err := b.roles.Require(kv, caller, roles.Owner); err != nil {
			return err
		}
		var err error
		resetTime, err = b.registry.NotifyResetSigners(kv)
		return err
	})
	if err == nil {
		b.log.Warn("Signer reset notified", zap.Uint64("resetTime", resetTime))
	}
	return resetTime, err
}

// IncreaseNoticePeriod raises the reset notice period. Owner only.
func (b *Bridge) IncreaseNoticePeriod(caller common.Address, period uint64) error {
	return b.transition(OpIncreaseNotice, func(kv state.KV) error {
		if err := b.roles.Require(kv, caller, roles.Owner); err != nil {
			return err
		}
		return b.registry.IncreaseNoticePeriod(kv, period)
	})
}

// SetLimits sets limit l for each token. Governor only.
func (b *Bridge) SetLimits(caller common.Address, l risk.Limit, tokens []common.Address, values []*uint256.Int) error {
	return b.transition(OpSetLimits, func(kv state.KV) error {
		if err := b.roles.Require(kv, caller, roles.Governor); err != nil {
			return err
		}
		return b.risk.SetLimits(kv, l, tokens, values)
	})
}

// SetEpochLength sets the epoch length in seconds. Governor only.
func (b *Bridge) SetEpochLength(caller common.Address, length uint64) error {
	return b.transition(OpSetEpochLength, func(kv state.KV) error {
		if err := b.roles.Require(kv, caller, roles.Governor); err != nil {
			return err
		}
		return b.risk.SetEpochLength(kv, length)
	})
}

// SetDelayPeriod sets the delayed-transfer period in seconds. Governor
// only.
func (b *Bridge) SetDelayPeriod(caller common.Address, period uint64) error {
	return b.transition(OpSetDelayPeriod, func(kv state.KV) error {
		if err := b.roles.Require(kv, caller, roles.Governor); err != nil {
			return err
		}
		return b.risk.SetDelayPeriod(kv, period)
	})
}

// SetMinimalMaxSlippage sets the floor of the max slippage a sender may
// accept. Governor only.
func (b *Bridge) SetMinimalMaxSlippage(caller common.Address, slippage uint32) error {
	return b.transition(OpSetMinSlippage, func(kv state.KV) error {
		if err := b.supports(OpSetMinSlippage); err != nil {
			return err
		}
		if err := b.roles.Require(kv, caller, roles.Governor); err != nil {
			return err
		}
		if err := state.PutRLP(kv, minSlippageKey, slippage); err != nil {
			return err
		}
		kv.Emit(MinimalMaxSlippageUpdated{Slippage: slippage})
		return nil
	})
}

// Pause stops every transfer operation. Pauser only.
func (b *Bridge) Pause(caller common.Address) error {
	return b.transition(OpPause, func(kv state.KV) error {
		return b.roles.Pause(kv, caller)
	})
}

// Unpause resumes transfer operations. Pauser only.
func (b *Bridge) Unpause(caller common.Address) error {
	return b.transition(OpUnpause, func(kv state.KV) error {
		return b.roles.Unpause(kv, caller)
	})
}

// Paused reports whether the bridge is paused.
func (b *Bridge) Paused() (bool, error) {
	var paused bool
	err := b.cfg.Store.View(func(rd state.Reader) error {
		var err error
		paused, err = b.roles.Paused(rd)
		return err
	})
	return paused, err
}

// GrantRole gives account the governor or pauser role. Owner only.
func (b *Bridge) GrantRole(caller common.Address, r roles.Role, account common.Address) error {
	return b.transition(OpGrantRole, func(kv state.KV) error {
		return b.roles.Grant(kv, caller, r, account)
	})
}

// RevokeRole takes the governor or pauser role from account. Owner only.
func (b *Bridge) RevokeRole(caller common.Address, r roles.Role, account common.Address) error {
	return b.transition(OpRevokeRole, func(kv state.KV) error {
		return b.roles.Revoke(kv, caller, r, account)
	})
}

// TransferOwnership hands the owner role to newOwner. Owner only.
func (b *Bridge) TransferOwnership(caller, newOwner common.Address) error {
	return b.transition(OpTransferOwner, func(kv state.KV) error {
		return b.roles.TransferOwnership(kv, caller, newOwner)
	})
}
