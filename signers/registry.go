// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package signers

import (
	"math"
	"time"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"go.uber.org/zap"

	"github.com/luxfi/xbridge"
	"github.com/luxfi/xbridge/codec"
	"github.com/luxfi/xbridge/metrics"
	"github.com/luxfi/xbridge/state"
)

// DefaultMaxFutureSkew bounds how far ahead of now a rotation trigger time
// may be.
const DefaultMaxFutureSkew = time.Hour

var (
	setKey         = []byte("signers/set")
	commitmentKey  = []byte("signers/hash")
	triggerTimeKey = []byte("signers/trigger")
	resetTimeKey   = []byte("signers/reset")
	noticeKey      = []byte("signers/notice")
)

type storedSet struct {
	Signers []common.Address
	Powers  []*uint256.Int
}

// RegistryConfig configures a Registry
type RegistryConfig struct {
	Domain        codec.Domain
	Codec         codec.Codec
	Recoverer     Recoverer
	MaxFutureSkew time.Duration
	Now           func() time.Time
	Logger        *zap.Logger
	Metrics       *metrics.Metrics
}

// Registry holds the live signer set in a state store. It is stateless
// itself; every method runs against the state handle it is given.
type Registry struct {
	cfg RegistryConfig
}

// NewRegistry creates a new signer registry
func NewRegistry(cfg RegistryConfig) *Registry {
	if cfg.MaxFutureSkew == 0 {
		cfg.MaxFutureSkew = DefaultMaxFutureSkew
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Registry{cfg: cfg}
}

// Domain returns the domain signatures are bound to.
func (r *Registry) Domain() codec.Domain {
	return r.cfg.Domain
}

// Init stores the genesis signer set and reset notice period. With no
// genesis signers the first ResetSigners call is allowed immediately.
func (r *Registry) Init(kv state.KV, addrs []common.Address, powers []*uint256.Int, noticePeriod uint64) error {
	if err := putUint64(kv, noticeKey, noticePeriod); err != nil {
		return err
	}
	if len(addrs) == 0 {
		return putUint64(kv, resetTimeKey, 0)
	}
	if err := putUint64(kv, resetTimeKey, math.MaxUint64); err != nil {
		return err
	}
	set, err := NewSet(addrs, powers)
	if err != nil {
		return err
	}
	return r.store(kv, set)
}

// Current returns the live signer set.
func (r *Registry) Current(rd state.Reader) (*Set, error) {
	var stored storedSet
	ok, err := state.GetRLP(rd, setKey, &stored)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoSigners
	}
	return NewSet(stored.Signers, stored.Powers)
}

// Commitment returns the stored hash of the live set.
func (r *Registry) Commitment(rd state.Reader) (common.Hash, error) {
	b, ok, err := rd.Get(commitmentKey)
	if err != nil {
		return common.Hash{}, err
	}
	if !ok {
		return common.Hash{}, ErrNoSigners
	}
	return common.BytesToHash(b), nil
}

// TriggerTime returns the trigger time of the last rotation.
func (r *Registry) TriggerTime(rd state.Reader) (uint64, error) {
	return getUint64(rd, triggerTimeKey)
}

// ResetTime returns the earliest time ResetSigners is allowed, exclusive.
func (r *Registry) ResetTime(rd state.Reader) (uint64, error) {
	return getUint64(rd, resetTimeKey)
}

// NoticePeriod returns the delay between NotifyResetSigners and the
// earliest allowed ResetSigners.
func (r *Registry) NoticePeriod(rd state.Reader) (uint64, error) {
	return getUint64(rd, noticeKey)
}

// Verify checks b against the live set over the digest of payload in the
// named domain.
func (r *Registry) Verify(rd state.Reader, domainName string, payload []byte, b Bundle) error {
	live, err := r.Current(rd)
	if err != nil {
		return err
	}
	digest := codec.SignedDigest(r.cfg.Domain.Separator(domainName), payload)
	return Verify(r.cfg.Recoverer, digest, b, live)
}

// UpdateSigners rotates to the set in req, authorized by a quorum of the
// current set. cur must name the whole current set and hash to the stored
// commitment.
func (r *Registry) UpdateSigners(kv state.KV, req *codec.UpdateSignersRequest, sigs [][]byte, cur []common.Address, curPowers []*uint256.Int) error {
	last, err := getUint64(kv, triggerTimeKey)
	if err != nil {
		return err
	}
	if req.TriggerTime <= last {
		return ErrTriggerTimeNotIncreasing.Errorf("%d <= %d", req.TriggerTime, last)
	}
	now := xbridge.Unix(r.cfg.Now())
	if limit := now + uint64(r.cfg.MaxFutureSkew/time.Second); req.TriggerTime >= limit {
		return ErrTriggerTimeTooLarge.Errorf("%d >= %d", req.TriggerTime, limit)
	}

	commitment, err := r.Commitment(kv)
	if err != nil {
		return err
	}
	if Commitment(cur, curPowers) != commitment {
		return ErrMismatchCurrentSigners
	}

	payload, err := r.cfg.Codec.Encode(req)
	if err != nil {
		return err
	}
	err = r.Verify(kv, codec.TypeUpdateSigners.DomainName(), payload, Bundle{
		Sigs:    sigs,
		Signers: cur,
		Powers:  curPowers,
	})
	if err != nil {
		return err
	}

	next, err := NewSet(req.Signers, req.Powers)
	if err != nil {
		return err
	}
	if err := r.store(kv, next); err != nil {
		return err
	}
	if err := putUint64(kv, triggerTimeKey, req.TriggerTime); err != nil {
		return err
	}
	r.cfg.Logger.Info("Rotated signer set",
		zap.Uint64("triggerTime", req.TriggerTime),
		zap.Int("signers", next.Len()),
		zap.String("totalPower", next.TotalPower().Dec()),
	)
	return nil
}

// ResetSigners overwrites the signer set. The caller is responsible for
// the ownership check. Allowed only after a reset notice has elapsed, or
// once to bootstrap an empty registry.
func (r *Registry) ResetSigners(kv state.KV, addrs []common.Address, powers []*uint256.Int) error {
	resetTime, err := getUint64(kv, resetTimeKey)
	if err != nil {
		return err
	}
	if now := xbridge.Unix(r.cfg.Now()); now <= resetTime {
		return ErrResetNotReady.Errorf("now %d, reset time %d", now, resetTime)
	}
	set, err := NewSet(addrs, powers)
	if err != nil {
		return err
	}
	if err := putUint64(kv, resetTimeKey, math.MaxUint64); err != nil {
		return err
	}
	if err := r.store(kv, set); err != nil {
		return err
	}
	r.cfg.Logger.Warn("Reset signer set", zap.Int("signers", set.Len()))
	return nil
}

// NotifyResetSigners opens the reset window after the notice period.
func (r *Registry) NotifyResetSigners(kv state.KV) (uint64, error) {
	notice, err := getUint64(kv, noticeKey)
	if err != nil {
		return 0, err
	}
	resetTime := xbridge.Unix(r.cfg.Now()) + notice
	if err := putUint64(kv, resetTimeKey, resetTime); err != nil {
		return 0, err
	}
	kv.Emit(ResetNotification{ResetTime: resetTime})
	return resetTime, nil
}

// IncreaseNoticePeriod raises the reset notice period.
func (r *Registry) IncreaseNoticePeriod(kv state.KV, period uint64) error {
	notice, err := getUint64(kv, noticeKey)
	if err != nil {
		return err
	}
	if period <= notice {
		return ErrNoticePeriodDecrease.Errorf("%d <= %d", period, notice)
	}
	if err := putUint64(kv, noticeKey, period); err != nil {
		return err
	}
	kv.Emit(NoticePeriodUpdated{Period: period})
	return nil
}

func (r *Registry) store(kv state.KV, set *Set) error {
	addrs, powers := set.Addresses(), set.Powers()
	if err := state.PutRLP(kv, setKey, &storedSet{Signers: addrs, Powers: powers}); err != nil {
		return err
	}
	commitment := set.Commitment()
	kv.Put(commitmentKey, commitment[:])
	kv.Emit(SignersUpdated{Signers: addrs, Powers: powers})
	kv.OnCommit(r.cfg.Metrics.SignerSetUpdated)
	return nil
}

func getUint64(rd state.Reader, key []byte) (uint64, error) {
	var v uint64
	_, err := state.GetRLP(rd, key, &v)
	return v, err
}

func putUint64(kv state.KV, key []byte, v uint64) error {
	return state.PutRLP(kv, key, v)
}
