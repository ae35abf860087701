// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package message

import (
	"context"
	"fmt"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/ids"

	"github.com/luxfi/xbridge/bridge"
	"github.com/luxfi/xbridge/codec"
	"github.com/luxfi/xbridge/signers"
)

// Domain names of message signatures.
const (
	DomainMessage                   = "Message"
	DomainMessageWithTransfer       = "MessageWithTransfer"
	DomainMessageWithTransferRefund = "MessageWithTransferRefund"
)

// AbortPrefix marks a receiver error that aborts the whole execution
// instead of recording a failure.
const AbortPrefix = "MSG::ABORT:"

// Type is the kind of an executed message.
type Type uint8

const (
	TypeMessageOnly Type = iota + 1
	TypeMessageWithTransfer
)

func (t Type) String() string {
	switch t {
	case TypeMessageOnly:
		return "message"
	case TypeMessageWithTransfer:
		return "message_with_transfer"
	default:
		return "unknown"
	}
}

// TxStatus is the recorded outcome of a message execution.
type TxStatus uint8

const (
	StatusNull TxStatus = iota
	StatusSuccess
	StatusFail
	StatusFallback
)

func (s TxStatus) String() string {
	switch s {
	case StatusNull:
		return "null"
	case StatusSuccess:
		return "success"
	case StatusFail:
		return "fail"
	case StatusFallback:
		return "fallback"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(s))
	}
}

// ExecutionStatus is what a receiver reports for one call.
type ExecutionStatus uint8

const (
	ExecutionFail ExecutionStatus = iota
	ExecutionSuccess
	ExecutionRetry
)

// Route identifies where a message came from and who receives it.
type Route struct {
	Sender     common.Address
	Receiver   common.Address
	SrcChainID uint64
	SrcTxHash  common.Hash
}

// TransferType names the bridge operation that carried a transfer.
type TransferType uint8

const (
	TransferLqRelay TransferType = iota + 1
	TransferLqWithdraw
	TransferPegMint
	TransferPegWithdraw
)

func (t TransferType) String() string {
	switch t {
	case TransferLqRelay:
		return "lq_relay"
	case TransferLqWithdraw:
		return "lq_withdraw"
	case TransferPegMint:
		return "peg_mint"
	case TransferPegWithdraw:
		return "peg_withdraw"
	default:
		return "unknown"
	}
}

// TransferInfo describes the bridge transfer a message rides on.
type TransferInfo struct {
	Type       TransferType
	Sender     common.Address
	Receiver   common.Address
	Token      common.Address
	Amount     *uint256.Int
	WdSeq      uint64
	SrcChainID uint64
	RefID      common.Hash
	SrcTxHash  common.Hash
}

// Receiver is an application that accepts messages. A non-nil error is a
// failed call; its message becomes the revert reason.
type Receiver interface {
	ExecuteMessage(ctx context.Context, sender common.Address, srcChainID uint64, message []byte) (ExecutionStatus, error)
	ExecuteMessageWithTransfer(ctx context.Context, sender, token common.Address, amount *uint256.Int, srcChainID uint64, message []byte) (ExecutionStatus, error)
	ExecuteMessageWithTransferFallback(ctx context.Context, sender, token common.Address, amount *uint256.Int, srcChainID uint64, message []byte) (ExecutionStatus, error)
	ExecuteMessageWithTransferRefund(ctx context.Context, token common.Address, amount *uint256.Int, message []byte) (ExecutionStatus, error)
}

// Verifier authenticates message digests against the bridge signer set.
type Verifier interface {
	VerifyDigest(digest common.Hash, bundle signers.Bundle) error
}

// TransferBridge is a bridge whose completed transfers messages can ride on.
type TransferBridge interface {
	Domain() codec.Domain
	IsRecorded(r bridge.Record, id ids.ID) (bool, error)
}
