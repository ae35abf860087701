// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package bridge

import "github.com/luxfi/xbridge"

var (
	ErrTransferExists       = xbridge.NewError(xbridge.KindReplay, "transfer exists")
	ErrWithdrawSucceeded    = xbridge.NewError(xbridge.KindReplay, "withdraw already succeeded")
	ErrRecordExists         = xbridge.NewError(xbridge.KindReplay, "record exists")
	ErrDstChainMismatch     = xbridge.NewError(xbridge.KindEncoding, "dst chainId not match")
	ErrUnsupportedOperation = xbridge.NewError(xbridge.KindState, "unsupported operation")
	ErrUnknownKind          = xbridge.NewError(xbridge.KindState, "unknown bridge kind")
	ErrSlippageTooSmall     = xbridge.NewError(xbridge.KindRiskControl, "max slippage too small")
	ErrSameChain            = xbridge.NewError(xbridge.KindState, "same chain id")
	ErrNilCodec             = xbridge.NewError(xbridge.KindState, "codec not configured")
	ErrNilStore             = xbridge.NewError(xbridge.KindState, "store not configured")
)
