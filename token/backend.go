// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package token

import (
	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"

	"github.com/luxfi/xbridge/state"
)

// Backend moves value for a bridge. Every call runs inside the caller's
// transition and fails without side effects when it cannot complete.
type Backend interface {
	// Transfer moves amount of token from one account to another.
	Transfer(kv state.KV, token, from, to common.Address, amount *uint256.Int) error

	// Mint creates amount of token for to.
	Mint(kv state.KV, token, to common.Address, amount *uint256.Int) error

	// Burn destroys amount of token held by from.
	Burn(kv state.KV, token, from common.Address, amount *uint256.Int) error
}

// Balances is implemented by backends that can report balances.
type Balances interface {
	BalanceOf(rd state.Reader, token, account common.Address) (*uint256.Int, error)
	TotalSupply(rd state.Reader, token common.Address) (*uint256.Int, error)
}
