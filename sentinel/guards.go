// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package sentinel

import (
	"github.com/luxfi/geth/common"
	"go.uber.org/zap"

	"github.com/luxfi/xbridge/roles"
	"github.com/luxfi/xbridge/state"
)

// GuardState is the vote of one guard.
type GuardState uint8

const (
	GuardNone GuardState = iota
	Guarded
	Relaxed
)

func (g GuardState) String() string {
	switch g {
	case Guarded:
		return "guarded"
	case Relaxed:
		return "relaxed"
	default:
		return "none"
	}
}

// ThresholdType selects how the relax threshold follows the guard count.
type ThresholdType uint8

const (
	// ThresholdKeep keeps the current threshold, capped at the guard count.
	ThresholdKeep ThresholdType = iota
	// ThresholdTwoThirds sets the threshold to more than two thirds.
	ThresholdTwoThirds
	// ThresholdAll requires every guard.
	ThresholdAll
)

var guardsKey = []byte("sentinel/guards")

type guardRecord struct {
	Account common.Address
	State   uint8
}

type guardTable struct {
	Guards         []guardRecord
	RelaxThreshold uint64
	Relaxed        bool
}

func loadGuards(rd state.Reader) (*guardTable, error) {
	g := &guardTable{}
	ok, err := state.GetRLP(rd, guardsKey, g)
	if err != nil {
		return nil, err
	}
	if !ok {
		g.Relaxed = g.numRelaxed() >= g.RelaxThreshold
	}
	return g, nil
}

func (g *guardTable) index(account common.Address) int {
	for i, r := range g.Guards {
		if r.Account == account {
			return i
		}
	}
	return -1
}

func (g *guardTable) state(account common.Address) GuardState {
	if i := g.index(account); i >= 0 {
		return GuardState(g.Guards[i].State)
	}
	return GuardNone
}

func (g *guardTable) numRelaxed() uint64 {
	var n uint64
	for _, r := range g.Guards {
		if GuardState(r.State) == Relaxed {
			n++
		}
	}
	return n
}

func (g *guardTable) setThreshold(t ThresholdType) error {
	n := uint64(len(g.Guards))
	switch t {
	case ThresholdKeep:
	case ThresholdTwoThirds:
		g.RelaxThreshold = n*2/3 + 1
	case ThresholdAll:
		g.RelaxThreshold = n
	default:
		return ErrInvalidThreshold.Errorf("%d", t)
	}
	g.RelaxThreshold = min(g.RelaxThreshold, n)
	return nil
}

// save stores g and emits RelaxStatusUpdated when the relaxed flag flips.
func (g *guardTable) save(kv state.KV) error {
	relaxed := g.numRelaxed() >= g.RelaxThreshold
	if relaxed != g.Relaxed {
		g.Relaxed = relaxed
		kv.Emit(RelaxStatusUpdated{Relaxed: relaxed})
	}
	return state.PutRLP(kv, guardsKey, g)
}

// AddGuards adds accounts as guards in the Guarded state. Owner only.
func (s *Sentinel) AddGuards(caller common.Address, accounts []common.Address, t ThresholdType) error {
	return s.transition("add_guards", func(kv state.KV) error {
		if err := s.roles.Require(kv, caller, roles.Owner); err != nil {
			return err
		}
		g, err := loadGuards(kv)
		if err != nil {
			return err
		}
		for _, a := range accounts {
			if g.index(a) >= 0 {
				return ErrAlreadyGuard.Errorf("%s", a)
			}
			g.Guards = append(g.Guards, guardRecord{Account: a, State: uint8(Guarded)})
			kv.Emit(GuardUpdated{Account: a, State: Guarded})
		}
		if err := g.setThreshold(t); err != nil {
			return err
		}
		kv.Emit(RelaxThresholdUpdated{Threshold: g.RelaxThreshold, Total: uint64(len(g.Guards))})
		return g.save(kv)
	})
}

// RemoveGuards removes guards whatever their state. Owner only.
func (s *Sentinel) RemoveGuards(caller common.Address, accounts []common.Address, t ThresholdType) error {
	return s.transition("remove_guards", func(kv state.KV) error {
		if err := s.roles.Require(kv, caller, roles.Owner); err != nil {
			return err
		}
		g, err := loadGuards(kv)
		if err != nil {
			return err
		}
		for _, a := range accounts {
			i := g.index(a)
			if i < 0 {
				return ErrNotGuard.Errorf("%s", a)
			}
			g.Guards = append(g.Guards[:i], g.Guards[i+1:]...)
			kv.Emit(GuardUpdated{Account: a, State: GuardNone})
		}
		if err := g.setThreshold(t); err != nil {
			return err
		}
		kv.Emit(RelaxThresholdUpdated{Threshold: g.RelaxThreshold, Total: uint64(len(g.Guards))})
		return g.save(kv)
	})
}

// UpdateRelaxThreshold recomputes the threshold for the current guards.
// Owner only.
func (s *Sentinel) UpdateRelaxThreshold(caller common.Address, t ThresholdType) error {
	return s.transition("update_threshold", func(kv state.KV) error {
		if err := s.roles.Require(kv, caller, roles.Owner); err != nil {
			return err
		}
		g, err := loadGuards(kv)
		if err != nil {
			return err
		}
		if err := g.setThreshold(t); err != nil {
			return err
		}
		kv.Emit(RelaxThresholdUpdated{Threshold: g.RelaxThreshold, Total: uint64(len(g.Guards))})
		return g.save(kv)
	})
}

// Relax moves the calling guard from Guarded to Relaxed.
func (s *Sentinel) Relax(caller common.Address) error {
	return s.vote("relax", caller, Guarded, Relaxed)
}

// Guard moves the calling guard from Relaxed back to Guarded.
func (s *Sentinel) Guard(caller common.Address) error {
	return s.vote("guard", caller, Relaxed, Guarded)
}

func (s *Sentinel) vote(op string, caller common.Address, from, to GuardState) error {
	return s.transition(op, func(kv state.KV) error {
		g, err := loadGuards(kv)
		if err != nil {
			return err
		}
		i := g.index(caller)
		if i < 0 || GuardState(g.Guards[i].State) != from {
			return ErrInvalidCaller
		}
		g.Guards[i].State = uint8(to)
		kv.Emit(GuardUpdated{Account: caller, State: to})
		s.log.Info("Guard voted",
			zap.Stringer("guard", caller),
			zap.Stringer("state", to),
		)
		return g.save(kv)
	})
}

// GuardStatus is a snapshot of the guard table.
type GuardStatus struct {
	NumGuards      uint64
	NumRelaxed     uint64
	RelaxThreshold uint64
	Relaxed        bool
}

// Guards returns the current guard counts and relaxed flag.
func (s *Sentinel) Guards() (GuardStatus, error) {
	var st GuardStatus
	err := s.cfg.Store.View(func(rd state.Reader) error {
		g, err := loadGuards(rd)
		if err != nil {
			return err
		}
		st = GuardStatus{
			NumGuards:      uint64(len(g.Guards)),
			NumRelaxed:     g.numRelaxed(),
			RelaxThreshold: g.RelaxThreshold,
			Relaxed:        g.Relaxed,
		}
		return nil
	})
	return st, err
}

// GuardState returns the state of account.
func (s *Sentinel) GuardState(account common.Address) (GuardState, error) {
	var gs GuardState
	err := s.cfg.Store.View(func(rd state.Reader) error {
		g, err := loadGuards(rd)
		if err != nil {
			return err
		}
		gs = g.state(account)
		return nil
	})
	return gs, err
}

// Relaxed reports whether the sentinel is in relaxed mode.
func (s *Sentinel) Relaxed() (bool, error) {
	st, err := s.Guards()
	return st.Relaxed, err
}
