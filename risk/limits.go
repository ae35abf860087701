// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package risk

import (
	"fmt"
	"time"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"go.uber.org/zap"

	"github.com/luxfi/xbridge"
	"github.com/luxfi/xbridge/metrics"
	"github.com/luxfi/xbridge/state"
)

var (
	ErrAmountTooSmall  = xbridge.NewError(xbridge.KindRiskControl, "amount too small")
	ErrAmountTooLarge  = xbridge.NewError(xbridge.KindRiskControl, "amount too large")
	ErrVolumeExceeded  = xbridge.NewError(xbridge.KindRiskControl, "volume exceeds cap")
	ErrLengthMismatch  = xbridge.NewError(xbridge.KindState, "length mismatch")
	ErrUnknownLimit    = xbridge.NewError(xbridge.KindState, "unknown limit")
	ErrDelayedExists   = xbridge.NewError(xbridge.KindReplay, "delayed transfer already exists")
	ErrDelayedNotExist = xbridge.NewError(xbridge.KindState, "delayed transfer not exist")
	ErrDelayedExecuted = xbridge.NewError(xbridge.KindReplay, "delayed transfer already executed")
	ErrDelayedLocked   = xbridge.NewError(xbridge.KindTimelock, "delayed transfer still locked")

	epochLengthKey = []byte("risk/epochLength")
	delayPeriodKey = []byte("risk/delayPeriod")
)

// Limit names a per-token limit.
type Limit string

const (
	MinAdd         Limit = "minAdd"
	MinSend        Limit = "minSend"
	MaxSend        Limit = "maxSend"
	MinDeposit     Limit = "minDeposit"
	MaxDeposit     Limit = "maxDeposit"
	MinBurn        Limit = "minBurn"
	MaxBurn        Limit = "maxBurn"
	MaxReceive     Limit = "maxReceive"
	EpochVolumeCap Limit = "epochVolumeCap"
	DelayThreshold Limit = "delayThreshold"
)

// Limits lists every per-token limit.
var Limits = []Limit{MinAdd, MinSend, MaxSend, MinDeposit, MaxDeposit, MinBurn, MaxBurn, MaxReceive, EpochVolumeCap, DelayThreshold}

// ParseLimit parses a limit name.
func ParseLimit(s string) (Limit, error) {
	for _, l := range Limits {
		if string(l) == s {
			return l, nil
		}
	}
	return "", ErrUnknownLimit.Errorf("%q", s)
}

// EventName is the name of the event emitted when l changes.
func (l Limit) EventName() string {
	switch l {
	case EpochVolumeCap:
		return "EpochVolumeUpdated"
	default:
		return fmt.Sprintf("%c%sUpdated", l[0]-'a'+'A', l[1:])
	}
}

// Op is an operation subject to amount bounds.
type Op uint8

const (
	OpAdd Op = iota + 1
	OpSend
	OpDeposit
	OpBurn
	OpReceive
)

func (o Op) String() string {
	switch o {
	case OpAdd:
		return "add"
	case OpSend:
		return "send"
	case OpDeposit:
		return "deposit"
	case OpBurn:
		return "burn"
	case OpReceive:
		return "receive"
	default:
		return "unknown"
	}
}

// bounds returns the limits bounding o. An empty min means no lower
// bound beyond a nonzero amount; inbound operations have none at all.
func (o Op) bounds() (lower, upper Limit) {
	switch o {
	case OpAdd:
		return MinAdd, ""
	case OpSend:
		return MinSend, MaxSend
	case OpDeposit:
		return MinDeposit, MaxDeposit
	case OpBurn:
		return MinBurn, MaxBurn
	case OpReceive:
		return "", MaxReceive
	default:
		return "", ""
	}
}

// Config configures a Controller
type Config struct {
	Now     func() time.Time
	Logger  *zap.Logger
	Metrics *metrics.Metrics
}

// Controller is the admission-control layer. It holds no state of its own;
// limits, volumes and delayed transfers live in the store.
type Controller struct {
	cfg Config
}

// NewController creates a new risk controller
func NewController(cfg Config) *Controller {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Controller{cfg: cfg}
}

func limitKey(l Limit, token common.Address) []byte {
	return state.Key([]byte("risk/limit/"), []byte(l), []byte("/"), token[:])
}

// Limit returns the configured value of l for token. Unset limits are zero.
func (c *Controller) Limit(rd state.Reader, l Limit, token common.Address) (*uint256.Int, error) {
	b, ok, err := rd.Get(limitKey(l, token))
	if err != nil || !ok {
		return new(uint256.Int), err
	}
	return new(uint256.Int).SetBytes(b), nil
}

// SetLimits sets l for each token.
func (c *Controller) SetLimits(kv state.KV, l Limit, tokens []common.Address, values []*uint256.Int) error {
	if len(tokens) != len(values) {
		return ErrLengthMismatch.Errorf("%d tokens, %d values", len(tokens), len(values))
	}
	for i, token := range tokens {
		v := xbridge.Amount(values[i])
		kv.Put(limitKey(l, token), v.Bytes())
	}
	kv.Emit(LimitUpdated{Limit: l, Tokens: tokens, Values: values})
	c.cfg.Logger.Info("Updated limit", zap.String("limit", string(l)), zap.Int("tokens", len(tokens)))
	return nil
}

func (c *Controller) EpochLength(rd state.Reader) (uint64, error) {
	return getUint64(rd, epochLengthKey)
}

func (c *Controller) SetEpochLength(kv state.KV, length uint64) error {
	if err := state.PutRLP(kv, epochLengthKey, length); err != nil {
		return err
	}
	kv.Emit(EpochLengthUpdated{Length: length})
	return nil
}

func (c *Controller) DelayPeriod(rd state.Reader) (uint64, error) {
	return getUint64(rd, delayPeriodKey)
}

func (c *Controller) SetDelayPeriod(kv state.KV, period uint64) error {
	if err := state.PutRLP(kv, delayPeriodKey, period); err != nil {
		return err
	}
	kv.Emit(DelayPeriodUpdated{Period: period})
	return nil
}

// CheckAmountBounds requires amount to lie within the bounds configured
// for op. A zero max is unbounded. Outbound operations never accept a zero
// amount.
func (c *Controller) CheckAmountBounds(rd state.Reader, token common.Address, amount *uint256.Int, op Op) error {
	minLimit, maxLimit := op.bounds()
	if minLimit != "" {
		if amount.IsZero() {
			return ErrAmountTooSmall.Errorf("%s of zero", op)
		}
		lower, err := c.Limit(rd, minLimit, token)
		if err != nil {
			return err
		}
		if amount.Lt(lower) {
			return ErrAmountTooSmall.Errorf("%s %s < %s", op, amount.Dec(), lower.Dec())
		}
	}
	if maxLimit != "" {
		upper, err := c.Limit(rd, maxLimit, token)
		if err != nil {
			return err
		}
		if !upper.IsZero() && amount.Gt(upper) {
			return ErrAmountTooLarge.Errorf("%s %s > %s", op, amount.Dec(), upper.Dec())
		}
	}
	return nil
}

func getUint64(rd state.Reader, key []byte) (uint64, error) {
	var v uint64
	_, err := state.GetRLP(rd, key, &v)
	return v, err
}
