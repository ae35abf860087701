// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package sentinel

import (
	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"go.uber.org/zap"

	"github.com/luxfi/xbridge"
	"github.com/luxfi/xbridge/risk"
	"github.com/luxfi/xbridge/roles"
	"github.com/luxfi/xbridge/state"
)

// tighten checks that moving limit l from cur to next does not loosen it.
// A zero cap, threshold or max means unlimited.
func tighten(l risk.Limit, cur, next *uint256.Int) error {
	switch l {
	case risk.MinAdd, risk.MinSend, risk.MinDeposit, risk.MinBurn:
		if next.Lt(cur) {
			return ErrCanOnlyIncreaseMin.Errorf("%s from %s to %s", l, cur.Dec(), next.Dec())
		}
	case risk.MaxSend, risk.MaxDeposit, risk.MaxBurn, risk.MaxReceive:
		if !reduces(cur, next) {
			return ErrCanOnlyReduceMax.Errorf("%s from %s to %s", l, cur.Dec(), next.Dec())
		}
	case risk.EpochVolumeCap:
		if !reduces(cur, next) {
			return ErrCanOnlyReduceCap.Errorf("from %s to %s", cur.Dec(), next.Dec())
		}
	case risk.DelayThreshold:
		if !reduces(cur, next) {
			return ErrCanOnlyReduceThresh.Errorf("from %s to %s", cur.Dec(), next.Dec())
		}
	default:
		return risk.ErrUnknownLimit.Errorf("%q", l)
	}
	return nil
}

func reduces(cur, next *uint256.Int) bool {
	if next.IsZero() {
		return false
	}
	return cur.IsZero() || !next.Gt(cur)
}

// requireGovernor checks the caller and reports whether the sentinel is
// relaxed.
func (s *Sentinel) requireGovernor(rd state.Reader, caller common.Address) (bool, error) {
	if err := s.roles.Require(rd, caller, roles.Governor); err != nil {
		return false, err
	}
	g, err := loadGuards(rd)
	if err != nil {
		return false, err
	}
	return g.Relaxed, nil
}

// SetLimits sets limit l on target for each token. Governor only. Outside
// relaxed mode the new values may only tighten the current ones.
func (s *Sentinel) SetLimits(
	caller common.Address,
	target common.Address,
	l risk.Limit,
	tokens []common.Address,
	values []*uint256.Int,
) error {
	return s.transition("set_limits", func(kv state.KV) error {
		relaxed, err := s.requireGovernor(kv, caller)
		if err != nil {
			return err
		}
		if len(tokens) != len(values) {
			return ErrLengthMismatch.Errorf("%d tokens and %d values", len(tokens), len(values))
		}
		t, err := s.target(target)
		if err != nil {
			return err
		}
		if !relaxed {
			for i, token := range tokens {
				cur, err := t.Limit(l, token)
				if err != nil {
					return err
				}
				if err := tighten(l, cur, xbridge.Amount(values[i])); err != nil {
					return err
				}
			}
		}
		s.log.Info("Setting limits",
			zap.Stringer("target", target),
			zap.String("limit", string(l)),
			zap.Bool("relaxed", relaxed),
		)
		return t.SetLimits(s.cfg.Address, l, tokens, values)
	})
}

// SetEpochLength sets the epoch length of target. Governor only. Outside
// relaxed mode the length may only increase.
func (s *Sentinel) SetEpochLength(caller, target common.Address, length uint64) error {
	return s.transition("set_epoch_length", func(kv state.KV) error {
		relaxed, err := s.requireGovernor(kv, caller)
		if err != nil {
			return err
		}
		t, err := s.target(target)
		if err != nil {
			return err
		}
		if !relaxed {
			cur, err := t.EpochLength()
			if err != nil {
				return err
			}
			if length <= cur {
				return ErrCanOnlyIncreaseLen.Errorf("from %d to %d", cur, length)
			}
		}
		return t.SetEpochLength(s.cfg.Address, length)
	})
}

// SetDelayPeriod sets the delay period of target. Governor only. Outside
// relaxed mode the period may only increase.
func (s *Sentinel) SetDelayPeriod(caller, target common.Address, period uint64) error {
	return s.transition("set_delay_period", func(kv state.KV) error {
		relaxed, err := s.requireGovernor(kv, caller)
		if err != nil {
			return err
		}
		t, err := s.target(target)
		if err != nil {
			return err
		}
		if !relaxed {
			cur, err := t.DelayPeriod()
			if err != nil {
				return err
			}
			if period <= cur {
				return ErrCanOnlyIncreasePer.Errorf("from %d to %d", cur, period)
			}
		}
		return t.SetDelayPeriod(s.cfg.Address, period)
	})
}
