// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package message

import (
	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/ids"
)

const (
	EventMessage             = "Message"
	EventMessageWithTransfer = "MessageWithTransfer"
	EventExecuted            = "Executed"
	EventNeedRetry           = "NeedRetry"
	EventCallReverted        = "CallReverted"
	EventFeeBaseUpdated      = "FeeBaseUpdated"
	EventFeePerByteUpdated   = "FeePerByteUpdated"
)

// Sent is emitted as Message when a message leaves the chain.
type Sent struct {
	Sender     common.Address
	Receiver   common.Address
	DstChainID uint64
	Message    []byte
	Fee        *uint256.Int
}

func (Sent) EventName() string { return EventMessage }

// SentWithTransfer is emitted as MessageWithTransfer.
type SentWithTransfer struct {
	Sender     common.Address
	Receiver   common.Address
	DstChainID uint64
	Bridge     common.Address
	SrcXferID  ids.ID
	Message    []byte
	Fee        *uint256.Int
}

func (SentWithTransfer) EventName() string { return EventMessageWithTransfer }

type Executed struct {
	Type       Type
	ID         ids.ID
	Status     TxStatus
	Receiver   common.Address
	SrcChainID uint64
	SrcTxHash  common.Hash
}

func (Executed) EventName() string { return EventExecuted }

type NeedRetry struct {
	Type       Type
	ID         ids.ID
	SrcChainID uint64
	SrcTxHash  common.Hash
}

func (NeedRetry) EventName() string { return EventNeedRetry }

type CallReverted struct {
	Reason string
}

func (CallReverted) EventName() string { return EventCallReverted }

type FeeBaseUpdated struct {
	FeeBase *uint256.Int
}

func (FeeBaseUpdated) EventName() string { return EventFeeBaseUpdated }

type FeePerByteUpdated struct {
	FeePerByte *uint256.Int
}

func (FeePerByteUpdated) EventName() string { return EventFeePerByteUpdated }
