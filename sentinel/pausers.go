// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package sentinel

import (
	"github.com/luxfi/geth/common"
	"go.uber.org/zap"

	"github.com/luxfi/xbridge/roles"
	"github.com/luxfi/xbridge/state"
)

// PauserType is what a pauser may do.
type PauserType uint8

const (
	PauserNone PauserType = iota
	// PauserFull may pause, and unpause in relaxed mode.
	PauserFull
	// PauserPauseOnly may only pause.
	PauserPauseOnly
)

func (p PauserType) String() string {
	switch p {
	case PauserFull:
		return "full"
	case PauserPauseOnly:
		return "pause-only"
	default:
		return "none"
	}
}

func pauserKey(account common.Address) []byte {
	return state.Key([]byte("sentinel/pauser/"), account[:])
}

func pauserType(rd state.Reader, account common.Address) (PauserType, error) {
	var p uint8
	if _, err := state.GetRLP(rd, pauserKey(account), &p); err != nil {
		return PauserNone, err
	}
	return PauserType(p), nil
}

// AddPausers adds accounts[i] as a pauser of types[i]. Owner only.
func (s *Sentinel) AddPausers(caller common.Address, accounts []common.Address, types []PauserType) error {
	return s.transition("add_pausers", func(kv state.KV) error {
		if err := s.roles.Require(kv, caller, roles.Owner); err != nil {
			return err
		}
		if len(accounts) != len(types) {
			return ErrLengthMismatch.Errorf("%d accounts and %d types", len(accounts), len(types))
		}
		for i, a := range accounts {
			if types[i] != PauserFull && types[i] != PauserPauseOnly {
				return ErrInvalidPauserType.Errorf("%d", types[i])
			}
			cur, err := pauserType(kv, a)
			if err != nil {
				return err
			}
			if cur != PauserNone {
				return ErrAlreadyPauser.Errorf("%s", a)
			}
			if err := state.PutRLP(kv, pauserKey(a), uint8(types[i])); err != nil {
				return err
			}
			kv.Emit(PauserUpdated{Account: a, Type: types[i]})
		}
		return nil
	})
}

// RemovePausers removes pausers. Owner only.
func (s *Sentinel) RemovePausers(caller common.Address, accounts []common.Address) error {
	return s.transition("remove_pausers", func(kv state.KV) error {
		if err := s.roles.Require(kv, caller, roles.Owner); err != nil {
			return err
		}
		for _, a := range accounts {
			cur, err := pauserType(kv, a)
			if err != nil {
				return err
			}
			if cur == PauserNone {
				return ErrNotPauser.Errorf("%s", a)
			}
			kv.Delete(pauserKey(a))
			kv.Emit(PauserUpdated{Account: a, Type: PauserNone})
		}
		return nil
	})
}

// PauserType returns the pauser type of account.
func (s *Sentinel) PauserType(account common.Address) (PauserType, error) {
	var p PauserType
	err := s.cfg.Store.View(func(rd state.Reader) error {
		var err error
		p, err = pauserType(rd, account)
		return err
	})
	return p, err
}

// Pause pauses every target. Any pauser may pause. A target that fails is
// reported with a Failed event and the call fails only when every target
// does.
func (s *Sentinel) Pause(caller common.Address, targets []common.Address) error {
	return s.transition("pause", func(kv state.KV) error {
		p, err := pauserType(kv, caller)
		if err != nil {
			return err
		}
		if p == PauserNone {
			return ErrInvalidCaller
		}
		return s.each(kv, "pause", targets, Target.Pause, ErrPauseFailed)
	})
}

// Unpause unpauses every target. Only a full pauser may unpause, and only
// in relaxed mode.
func (s *Sentinel) Unpause(caller common.Address, targets []common.Address) error {
	return s.transition("unpause", func(kv state.KV) error {
		g, err := loadGuards(kv)
		if err != nil {
			return err
		}
		if !g.Relaxed {
			return ErrNotRelaxed
		}
		p, err := pauserType(kv, caller)
		if err != nil {
			return err
		}
		if p != PauserFull {
			return ErrInvalidCaller
		}
		return s.each(kv, "unpause", targets, Target.Unpause, ErrUnpauseFailed)
	})
}

func (s *Sentinel) each(
	kv state.KV,
	op string,
	targets []common.Address,
	call func(Target, common.Address) error,
	allFailed error,
) error {
	targets = distinct(targets)
	failed := 0
	for _, addr := range targets {
		t, err := s.target(addr)
		if err == nil {
			err = call(t, s.cfg.Address)
		}
		if err != nil {
			failed++
			kv.Emit(Failed{Target: addr, Reason: err.Error()})
			s.log.Warn("Sentinel call failed",
				zap.String("op", op),
				zap.Stringer("target", addr),
				zap.Error(err),
			)
		}
	}
	if failed == len(targets) {
		return allFailed
	}
	return nil
}
