// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package risk

import (
	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/ids"
)

const (
	EventDelayedTransferAdded    = "DelayedTransferAdded"
	EventDelayedTransferExecuted = "DelayedTransferExecuted"
	EventEpochLengthUpdated      = "EpochLengthUpdated"
	EventDelayPeriodUpdated      = "DelayPeriodUpdated"
)

// LimitUpdated is emitted under the limit's own event name, for example
// MinSendUpdated or EpochVolumeUpdated.
type LimitUpdated struct {
	Limit  Limit
	Tokens []common.Address
	Values []*uint256.Int
}

func (e LimitUpdated) EventName() string { return e.Limit.EventName() }

type EpochLengthUpdated struct {
	Length uint64
}

func (EpochLengthUpdated) EventName() string { return EventEpochLengthUpdated }

type DelayPeriodUpdated struct {
	Period uint64
}

func (DelayPeriodUpdated) EventName() string { return EventDelayPeriodUpdated }

type DelayedTransferAdded struct {
	ID ids.ID
}

func (DelayedTransferAdded) EventName() string { return EventDelayedTransferAdded }

type DelayedTransferExecuted struct {
	ID       ids.ID
	Receiver common.Address
	Token    common.Address
	Amount   *uint256.Int
}

func (DelayedTransferExecuted) EventName() string { return EventDelayedTransferExecuted }
