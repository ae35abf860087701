// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

// Package bridge is the destination-side state machine of the token bridge.
// A Bridge admits signed requests, guards them with replay protection and
// risk control, and moves value through a token.Backend.
package bridge

import (
	"time"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/ids"
	"go.uber.org/zap"

	"github.com/luxfi/xbridge/codec"
	"github.com/luxfi/xbridge/metrics"
	"github.com/luxfi/xbridge/risk"
	"github.com/luxfi/xbridge/roles"
	"github.com/luxfi/xbridge/signers"
	"github.com/luxfi/xbridge/state"
	"github.com/luxfi/xbridge/token"
)

var (
	addSeqKey      = []byte("bridge/addSeq")
	minSlippageKey = []byte("bridge/minimalMaxSlippage")
)

// Config configures a Bridge
type Config struct {
	Kind          Kind
	Domain        codec.Domain
	Codec         codec.Codec
	Store         *state.Store
	Recoverer     signers.Recoverer
	Backend       token.Backend
	MaxFutureSkew time.Duration
	Now           func() time.Time
	Logger        *zap.Logger
	Metrics       *metrics.Metrics
}

// Genesis is the initial state of a Bridge.
type Genesis struct {
	Owner              common.Address
	Signers            []common.Address
	Powers             []*uint256.Int
	NoticePeriod       uint64
	EpochLength        uint64
	DelayPeriod        uint64
	MinimalMaxSlippage uint32
	Tokens             []TokenLimits
}

// TokenLimits holds the initial limits of one token. Limits absent from
// the map stay zero.
type TokenLimits struct {
	Token  common.Address
	Limits map[risk.Limit]*uint256.Int
}

// Bridge is a single bridge contract. Every exported mutator is one atomic
// transition of the underlying store.
type Bridge struct {
	cfg      Config
	log      *zap.Logger
	registry *signers.Registry
	risk     *risk.Controller
	roles    *roles.Table
}

// New creates a new bridge
func New(cfg Config) (*Bridge, error) {
	if cfg.Kind < Liquidity || cfg.Kind > Vault {
		return nil, ErrUnknownKind.Errorf("%d", cfg.Kind)
	}
	if cfg.Codec == nil {
		return nil, ErrNilCodec
	}
	if cfg.Store == nil {
		return nil, ErrNilStore
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Recoverer == nil {
		r, err := signers.NewEthRecoverer(0)
		if err != nil {
			return nil, err
		}
		cfg.Recoverer = r
	}
	if cfg.Backend == nil {
		cfg.Backend = token.NewLedger(cfg.Logger)
	}
	log := cfg.Logger.With(
		zap.Stringer("kind", cfg.Kind),
		zap.Stringer("contract", cfg.Domain.Contract),
	)
	return &Bridge{
		cfg: cfg,
		log: log,
		registry: signers.NewRegistry(signers.RegistryConfig{
			Domain:        cfg.Domain,
			Codec:         cfg.Codec,
			Recoverer:     cfg.Recoverer,
			MaxFutureSkew: cfg.MaxFutureSkew,
			Now:           cfg.Now,
			Logger:        log,
			Metrics:       cfg.Metrics,
		}),
		risk: risk.NewController(risk.Config{
			Now:     cfg.Now,
			Logger:  log,
			Metrics: cfg.Metrics,
		}),
		roles: roles.New("bridge", log),
	}, nil
}

func (b *Bridge) Kind() Kind                  { return b.cfg.Kind }
func (b *Bridge) Domain() codec.Domain        { return b.cfg.Domain }
func (b *Bridge) Codec() codec.Codec          { return b.cfg.Codec }
func (b *Bridge) Store() *state.Store         { return b.cfg.Store }
func (b *Bridge) Registry() *signers.Registry { return b.registry }
func (b *Bridge) Risk() *risk.Controller      { return b.risk }
func (b *Bridge) Roles() *roles.Table         { return b.roles }
func (b *Bridge) Backend() token.Backend      { return b.cfg.Backend }

// Address is the custody account of the bridge.
func (b *Bridge) Address() common.Address {
	return b.cfg.Domain.Contract
}

// Init writes the genesis state. It fails if the store already holds one.
func (b *Bridge) Init(g Genesis) error {
	return b.record(OpInit, b.cfg.Store.Init(func(kv state.KV) error {
		if err := b.roles.Init(kv, g.Owner); err != nil {
			return err
		}
		if err := b.registry.Init(kv, g.Signers, g.Powers, g.NoticePeriod); err != nil {
			return err
		}
		if err := b.risk.SetEpochLength(kv, g.EpochLength); err != nil {
			return err
		}
		if err := b.risk.SetDelayPeriod(kv, g.DelayPeriod); err != nil {
			return err
		}
		if b.cfg.Kind == Liquidity {
			if err := state.PutRLP(kv, minSlippageKey, g.MinimalMaxSlippage); err != nil {
				return err
			}
		}
		for _, l := range risk.Limits {
			var (
				tokens []common.Address
				values []*uint256.Int
			)
			for _, tl := range g.Tokens {
				if v, ok := tl.Limits[l]; ok {
					tokens = append(tokens, tl.Token)
					values = append(values, v)
				}
			}
			if len(tokens) == 0 {
				continue
			}
			if err := b.risk.SetLimits(kv, l, tokens, values); err != nil {
				return err
			}
		}
		return nil
	}))
}

// transition runs fn as one atomic state transition and records its outcome.
func (b *Bridge) transition(op Operation, fn func(kv state.KV) error) error {
	return b.record(op, b.cfg.Store.Update(fn))
}

func (b *Bridge) record(op Operation, err error) error {
	b.cfg.Metrics.Transition(string(op), err)
	if err != nil {
		b.log.Debug("Rejected transition",
			zap.String("op", string(op)),
			zap.Error(err),
		)
	}
	return err
}

// require rejects op when the bridge kind does not offer it or the bridge
// is paused.
func (b *Bridge) require(rd state.Reader, op Operation) error {
	if err := b.supports(op); err != nil {
		return err
	}
	return b.roles.RequireNotPaused(rd)
}

func (b *Bridge) supports(op Operation) error {
	if !b.cfg.Kind.Supports(op) {
		return ErrUnsupportedOperation.Errorf("%s on %s bridge", op, b.cfg.Kind)
	}
	return nil
}

func (b *Bridge) logID(msg string, id ids.ID, fields ...zap.Field) {
	b.log.Info(msg, append([]zap.Field{zap.String("id", codec.Hex(id))}, fields...)...)
}
