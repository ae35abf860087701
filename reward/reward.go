// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

// Package reward pays signed staking rewards and applies signed penalties.
// It authenticates requests through the bridge signer set and moves value
// through a token.Backend.
package reward

import (
	"math"
	"time"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"go.uber.org/zap"

	"github.com/luxfi/xbridge"
	"github.com/luxfi/xbridge/codec"
	"github.com/luxfi/xbridge/metrics"
	"github.com/luxfi/xbridge/roles"
	"github.com/luxfi/xbridge/signers"
	"github.com/luxfi/xbridge/state"
	"github.com/luxfi/xbridge/token"
)

// SlashFactorDecimal is the denominator of PenaltyRequest.SlashFactor.
const SlashFactorDecimal = 1_000_000

var (
	ErrNoNewReward        = xbridge.NewError(xbridge.KindReplay, "No new reward")
	ErrUsedPenaltyNonce   = xbridge.NewError(xbridge.KindReplay, "Used penalty nonce")
	ErrPenaltyExpired     = xbridge.NewError(xbridge.KindTimelock, "Penalty expired")
	ErrInvalidSlashFactor = xbridge.NewError(xbridge.KindEncoding, "Invalid slash factor")
	ErrNoVerifier         = xbridge.NewError(xbridge.KindState, "verifier not configured")
)

// Verifier authenticates digests against the bridge signer set.
type Verifier interface {
	VerifyDigest(digest common.Hash, bundle signers.Bundle) error
}

// Config configures a Distributor. Store must not be shared with the
// Verifier, which reads its own store while a transition is open.
type Config struct {
	Domain      codec.Domain
	Codec       codec.Codec
	Store       *state.Store
	Verifier    Verifier
	Backend     token.Backend
	RewardToken common.Address
	// PenaltyPool holds the funds penalties are paid out of.
	PenaltyPool common.Address
	Now         func() time.Time
	Logger      *zap.Logger
	Metrics     *metrics.Metrics
}

// Distributor is the staking reward and penalty contract. Rewards are paid
// out of the contract's own balance of RewardToken.
type Distributor struct {
	cfg   Config
	log   *zap.Logger
	roles *roles.Table
}

// New creates a new distributor
func New(cfg Config) (*Distributor, error) {
	if cfg.Verifier == nil {
		return nil, ErrNoVerifier
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Backend == nil {
		cfg.Backend = token.NewLedger(cfg.Logger)
	}
	log := cfg.Logger.With(zap.Stringer("reward", cfg.Domain.Contract))
	return &Distributor{
		cfg:   cfg,
		log:   log,
		roles: roles.New("reward", log),
	}, nil
}

// Init sets the owner.
func (d *Distributor) Init(owner common.Address) error {
	return d.cfg.Store.Init(func(kv state.KV) error {
		return d.roles.Init(kv, owner)
	})
}

func claimedKey(recipient common.Address) []byte {
	return state.Key([]byte("reward/claimed/"), recipient[:])
}

func nonceKey(nonce uint64) []byte {
	return state.Key([]byte("reward/penaltyNonce/"), new(uint256.Int).SetUint64(nonce).Bytes())
}

func jailKey(validator common.Address) []byte {
	return state.Key([]byte("reward/jailedUntil/"), validator[:])
}

func (d *Distributor) verify(t codec.RequestType, payload []byte, bundle signers.Bundle) error {
	digest := codec.SignedDigest(d.cfg.Domain.Separator(t.DomainName()), payload)
	return d.cfg.Verifier.VerifyDigest(digest, bundle)
}

func (d *Distributor) transition(op string, fn func(kv state.KV) error) error {
	err := d.cfg.Store.Update(fn)
	d.cfg.Metrics.Transition(op, err)
	if err != nil {
		d.log.Debug("Rejected transition", zap.String("op", op), zap.Error(err))
	}
	return err
}

// ClaimReward pays the recipient of a signed RewardRequest the part of its
// cumulative reward not claimed yet. It returns the amount paid.
func (d *Distributor) ClaimReward(request []byte, bundle signers.Bundle) (*uint256.Int, error) {
	var reward *uint256.Int
	err := d.transition("claim_reward", func(kv state.KV) error {
		if err := d.roles.RequireNotPaused(kv); err != nil {
			return err
		}
		req, err := codec.DecodeAs[*codec.RewardRequest](d.cfg.Codec, request)
		if err != nil {
			return err
		}
		if err := d.verify(codec.TypeReward, request, bundle); err != nil {
			return err
		}
		claimed, err := d.claimed(kv, req.Recipient)
		if err != nil {
			return err
		}
		if !req.CumulativeRewardAmount.Gt(claimed) {
			return ErrNoNewReward.Errorf("claimed %s of %s", claimed.Dec(), req.CumulativeRewardAmount.Dec())
		}
		reward = new(uint256.Int).Sub(req.CumulativeRewardAmount, claimed)
		kv.Put(claimedKey(req.Recipient), req.CumulativeRewardAmount.Bytes())
		if err := d.cfg.Backend.Transfer(kv, d.cfg.RewardToken, d.cfg.Domain.Contract, req.Recipient, reward); err != nil {
			return err
		}
		kv.Emit(RewardClaimed{Recipient: req.Recipient, Reward: reward})
		d.log.Info("Claimed reward",
			zap.Stringer("recipient", req.Recipient),
			zap.String("reward", reward.Dec()),
		)
		return nil
	})
	return reward, err
}

// Claimed returns the cumulative reward paid to recipient so far.
func (d *Distributor) Claimed(recipient common.Address) (*uint256.Int, error) {
	var v *uint256.Int
	err := d.cfg.Store.View(func(rd state.Reader) error {
		var err error
		v, err = d.claimed(rd, recipient)
		return err
	})
	return v, err
}

func (d *Distributor) claimed(rd state.Reader, recipient common.Address) (*uint256.Int, error) {
	b, ok, err := rd.Get(claimedKey(recipient))
	if err != nil || !ok {
		return new(uint256.Int), err
	}
	return new(uint256.Int).SetBytes(b), nil
}

// Contribute adds amount of the reward token to the reward pool.
func (d *Distributor) Contribute(contributor common.Address, amount *uint256.Int) error {
	return d.transition("contribute", func(kv state.KV) error {
		if err := d.roles.RequireNotPaused(kv); err != nil {
			return err
		}
		amount = xbridge.Amount(amount)
		if err := d.cfg.Backend.Transfer(kv, d.cfg.RewardToken, contributor, d.cfg.Domain.Contract, amount); err != nil {
			return err
		}
		kv.Emit(RewardPoolContribution{Contributor: contributor, Amount: amount})
		return nil
	})
}

// ApplyPenalty records a signed penalty against a validator and pays its
// collectors out of the penalty pool.
func (d *Distributor) ApplyPenalty(request []byte, bundle signers.Bundle) error {
	return d.transition("apply_penalty", func(kv state.KV) error {
		if err := d.roles.RequireNotPaused(kv); err != nil {
			return err
		}
		req, err := codec.DecodeAs[*codec.PenaltyRequest](d.cfg.Codec, request)
		if err != nil {
			return err
		}
		if err := d.verify(codec.TypePenalty, request, bundle); err != nil {
			return err
		}
		used, err := state.Has(kv, nonceKey(req.Nonce))
		if err != nil {
			return err
		}
		if used {
			return ErrUsedPenaltyNonce.Errorf("%d", req.Nonce)
		}
		now := xbridge.Unix(d.cfg.Now())
		if now > req.ExpireTime {
			return ErrPenaltyExpired.Errorf("expired at %d", req.ExpireTime)
		}
		if req.SlashFactor > SlashFactorDecimal {
			return ErrInvalidSlashFactor.Errorf("%d", req.SlashFactor)
		}
		state.SetFlag(kv, nonceKey(req.Nonce))

		if req.JailPeriod > 0 {
			until := now + req.JailPeriod
			if until < now {
				until = math.MaxUint64
			}
			if err := state.PutRLP(kv, jailKey(req.Validator), until); err != nil {
				return err
			}
		}
		for _, c := range req.Collectors {
			if err := d.cfg.Backend.Transfer(kv, d.cfg.RewardToken, d.cfg.PenaltyPool, c.Account, c.Amount); err != nil {
				return err
			}
		}
		kv.Emit(PenaltyApplied{
			Validator:   req.Validator,
			Nonce:       req.Nonce,
			SlashFactor: req.SlashFactor,
			JailPeriod:  req.JailPeriod,
			Collectors:  req.Collectors,
		})
		d.log.Warn("Applied penalty",
			zap.Stringer("validator", req.Validator),
			zap.Uint64("nonce", req.Nonce),
			zap.Uint64("slashFactor", req.SlashFactor),
		)
		return nil
	})
}

// JailedUntil returns the time until which validator is jailed, or zero.
func (d *Distributor) JailedUntil(validator common.Address) (uint64, error) {
	var until uint64
	err := d.cfg.Store.View(func(rd state.Reader) error {
		_, err := state.GetRLP(rd, jailKey(validator), &until)
		return err
	})
	return until, err
}

// Pause stops claims and penalties. Pauser only.
func (d *Distributor) Pause(caller common.Address) error {
	return d.transition("pause", func(kv state.KV) error {
		return d.roles.Pause(kv, caller)
	})
}

// Unpause resumes claims and penalties. Pauser only.
func (d *Distributor) Unpause(caller common.Address) error {
	return d.transition("unpause", func(kv state.KV) error {
		return d.roles.Unpause(kv, caller)
	})
}
