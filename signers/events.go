// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package signers

import (
	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
)

const (
	EventSignersUpdated      = "SignersUpdated"
	EventResetNotification   = "ResetNotification"
	EventNoticePeriodUpdated = "NoticePeriodUpdated"
)

type SignersUpdated struct {
	Signers []common.Address
	Powers  []*uint256.Int
}

func (SignersUpdated) EventName() string { return EventSignersUpdated }

type ResetNotification struct {
	ResetTime uint64
}

func (ResetNotification) EventName() string { return EventResetNotification }

type NoticePeriodUpdated struct {
	Period uint64
}

func (NoticePeriodUpdated) EventName() string { return EventNoticePeriodUpdated }
