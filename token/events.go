// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package token

import (
	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
)

const EventTransfer = "Transfer"

// Transfer is emitted for every balance change. From is zero on mint and
// To is zero on burn.
type Transfer struct {
	Token  common.Address
	From   common.Address
	To     common.Address
	Amount *uint256.Int
}

func (Transfer) EventName() string { return EventTransfer }
