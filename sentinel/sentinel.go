// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

// Package sentinel is the emergency controller in front of a group of
// bridges. Guards vote the sentinel into relaxed mode, pausers pause and
// unpause targets, and governors adjust target limits. Outside relaxed
// mode governors may only tighten limits and only full pausers, once
// relaxed, may unpause.
package sentinel

import (
	"sync"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/math/set"
	"go.uber.org/zap"

	"github.com/luxfi/xbridge"
	"github.com/luxfi/xbridge/metrics"
	"github.com/luxfi/xbridge/risk"
	"github.com/luxfi/xbridge/roles"
	"github.com/luxfi/xbridge/state"
)

var (
	ErrInvalidCaller       = xbridge.NewError(xbridge.KindAuthorization, "invalid caller")
	ErrNotRelaxed          = xbridge.NewError(xbridge.KindAuthorization, "not in relaxed mode")
	ErrAlreadyGuard        = xbridge.NewError(xbridge.KindState, "account is already guard")
	ErrNotGuard            = xbridge.NewError(xbridge.KindState, "account is not guard")
	ErrInvalidThreshold    = xbridge.NewError(xbridge.KindState, "invalid threshold type")
	ErrAlreadyPauser       = xbridge.NewError(xbridge.KindState, "account is already pauser")
	ErrNotPauser           = xbridge.NewError(xbridge.KindState, "account is not pauser")
	ErrInvalidPauserType   = xbridge.NewError(xbridge.KindState, "invalid pauser type")
	ErrLengthMismatch      = xbridge.NewError(xbridge.KindState, "length mismatch")
	ErrPauseFailed         = xbridge.NewError(xbridge.KindState, "pause failed for all targets")
	ErrUnpauseFailed       = xbridge.NewError(xbridge.KindState, "unpause failed for all targets")
	ErrUnknownTarget       = xbridge.NewError(xbridge.KindState, "unknown target")
	ErrCanOnlyIncreaseMin  = xbridge.NewError(xbridge.KindAuthorization, "not in relax mode, can only increase min")
	ErrCanOnlyReduceMax    = xbridge.NewError(xbridge.KindAuthorization, "not in relax mode, can only reduce max")
	ErrCanOnlyReduceCap    = xbridge.NewError(xbridge.KindAuthorization, "not in relax mode, can only reduce cap")
	ErrCanOnlyReduceThresh = xbridge.NewError(xbridge.KindAuthorization, "not in relax mode, can only reduce threshold")
	ErrCanOnlyIncreaseLen  = xbridge.NewError(xbridge.KindAuthorization, "not in relax mode, can only increase length")
	ErrCanOnlyIncreasePer  = xbridge.NewError(xbridge.KindAuthorization, "not in relax mode, can only increase period")
)

// Target is a contract the sentinel holds the pauser and governor roles
// on. *bridge.Bridge implements it.
type Target interface {
	Address() common.Address
	Pause(caller common.Address) error
	Unpause(caller common.Address) error
	Limit(l risk.Limit, asset common.Address) (*uint256.Int, error)
	SetLimits(caller common.Address, l risk.Limit, tokens []common.Address, values []*uint256.Int) error
	EpochLength() (uint64, error)
	SetEpochLength(caller common.Address, length uint64) error
	DelayPeriod() (uint64, error)
	SetDelayPeriod(caller common.Address, period uint64) error
}

// Config configures a Sentinel. Address is the account the sentinel acts
// as when it calls into targets.
type Config struct {
	Address common.Address
	Store   *state.Store
	Logger  *zap.Logger
	Metrics *metrics.Metrics
}

type Sentinel struct {
	cfg   Config
	log   *zap.Logger
	roles *roles.Table

	targetsLock sync.RWMutex
	targets     map[common.Address]Target
}

// New creates a new sentinel
func New(cfg Config) *Sentinel {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	log := cfg.Logger.With(zap.Stringer("sentinel", cfg.Address))
	return &Sentinel{
		cfg:     cfg,
		log:     log,
		roles:   roles.New("sentinel", log),
		targets: make(map[common.Address]Target),
	}
}

// Init sets the owner. The owner is also a governor.
func (s *Sentinel) Init(owner common.Address) error {
	return s.cfg.Store.Init(func(kv state.KV) error {
		if err := s.roles.Init(kv, owner); err != nil {
			return err
		}
		return (&guardTable{}).save(kv)
	})
}

// Address returns the account the sentinel calls targets as.
func (s *Sentinel) Address() common.Address {
	return s.cfg.Address
}

// Register makes t addressable by the sentinel.
func (s *Sentinel) Register(t Target) {
	s.targetsLock.Lock()
	defer s.targetsLock.Unlock()

	s.targets[t.Address()] = t
}

func (s *Sentinel) target(addr common.Address) (Target, error) {
	s.targetsLock.RLock()
	defer s.targetsLock.RUnlock()

	t, ok := s.targets[addr]
	if !ok {
		return nil, ErrUnknownTarget.Errorf("%s", addr)
	}
	return t, nil
}

// AddGovernors grants the governor role. Owner only.
func (s *Sentinel) AddGovernors(caller common.Address, accounts []common.Address) error {
	return s.transition("add_governors", func(kv state.KV) error {
		for _, a := range accounts {
			if err := s.roles.Grant(kv, caller, roles.Governor, a); err != nil {
				return err
			}
		}
		return nil
	})
}

// RemoveGovernors revokes the governor role. Owner only.
func (s *Sentinel) RemoveGovernors(caller common.Address, accounts []common.Address) error {
	return s.transition("remove_governors", func(kv state.KV) error {
		for _, a := range accounts {
			if err := s.roles.Revoke(kv, caller, roles.Governor, a); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Sentinel) transition(op string, fn func(kv state.KV) error) error {
	err := s.cfg.Store.Update(fn)
	s.cfg.Metrics.Transition("sentinel_"+op, err)
	if err != nil {
		s.log.Debug("Rejected transition", zap.String("op", op), zap.Error(err))
	}
	return err
}

// distinct drops repeated addresses and keeps the first occurrence.
func distinct(addrs []common.Address) []common.Address {
	seen := set.NewSet[common.Address](len(addrs))
	out := make([]common.Address, 0, len(addrs))
	for _, a := range addrs {
		if seen.Contains(a) {
			continue
		}
		seen.Add(a)
		out = append(out, a)
	}
	return out
}
