// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package bridge

import (
	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/ids"
)

const (
	EventRelay                     = "Relay"
	EventWithdrawDone              = "WithdrawDone"
	EventMint                      = "Mint"
	EventWithdrawn                 = "Withdrawn"
	EventSend                      = "Send"
	EventLiquidityAdded            = "LiquidityAdded"
	EventDeposited                 = "Deposited"
	EventBurn                      = "Burn"
	EventMinimalMaxSlippageUpdated = "MinimalMaxSlippageUpdated"
)

// Relayed is emitted as Relay when a transfer is relayed.
type Relayed struct {
	TransferID    ids.ID
	Sender        common.Address
	Receiver      common.Address
	Token         common.Address
	Amount        *uint256.Int
	SrcChainID    uint64
	SrcTransferID common.Hash
}

func (Relayed) EventName() string { return EventRelay }

type WithdrawDone struct {
	WithdrawID ids.ID
	SeqNum     uint64
	Receiver   common.Address
	Token      common.Address
	Amount     *uint256.Int
	RefID      common.Hash
}

func (WithdrawDone) EventName() string { return EventWithdrawDone }

// Minted is emitted as Mint when pegged tokens are minted.
type Minted struct {
	MintID     ids.ID
	Token      common.Address
	Account    common.Address
	Amount     *uint256.Int
	RefChainID uint64
	RefID      common.Hash
	Depositor  common.Address
}

func (Minted) EventName() string { return EventMint }

type Withdrawn struct {
	WithdrawID  ids.ID
	Receiver    common.Address
	Token       common.Address
	Amount      *uint256.Int
	RefChainID  uint64
	RefID       common.Hash
	BurnAccount common.Address
}

func (Withdrawn) EventName() string { return EventWithdrawn }

// Sent is emitted as Send when a transfer leaves the chain.
type Sent struct {
	TransferID  ids.ID
	Sender      common.Address
	Receiver    common.Address
	Token       common.Address
	Amount      *uint256.Int
	DstChainID  uint64
	Nonce       uint64
	MaxSlippage uint32
}

func (Sent) EventName() string { return EventSend }

type LiquidityAdded struct {
	SeqNum   uint64
	Provider common.Address
	Token    common.Address
	Amount   *uint256.Int
}

func (LiquidityAdded) EventName() string { return EventLiquidityAdded }

type Deposited struct {
	DepositID   ids.ID
	Depositor   common.Address
	Token       common.Address
	Amount      *uint256.Int
	MintChainID uint64
	MintAccount common.Address
	Nonce       uint64
}

func (Deposited) EventName() string { return EventDeposited }

// Burned is emitted as Burn when pegged tokens are burned.
type Burned struct {
	BurnID          ids.ID
	Token           common.Address
	Account         common.Address
	Amount          *uint256.Int
	WithdrawAccount common.Address
}

func (Burned) EventName() string { return EventBurn }

type MinimalMaxSlippageUpdated struct {
	Slippage uint32
}

func (MinimalMaxSlippageUpdated) EventName() string { return EventMinimalMaxSlippageUpdated }
