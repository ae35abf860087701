// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

// Package message is the message bus: it carries arbitrary application
// messages between chains, alone or riding on a bridge transfer, and
// executes them against registered receivers once the bridge signers have
// signed them.
package message

import (
	"context"
	"strings"
	"sync"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/ids"
	"go.uber.org/zap"

	"github.com/luxfi/xbridge"
	"github.com/luxfi/xbridge/bridge"
	"github.com/luxfi/xbridge/codec"
	"github.com/luxfi/xbridge/metrics"
	"github.com/luxfi/xbridge/roles"
	"github.com/luxfi/xbridge/signers"
	"github.com/luxfi/xbridge/state"
)

var (
	ErrInsufficientFee        = xbridge.NewError(xbridge.KindRiskControl, "Insufficient fee")
	ErrInvalidChainID         = xbridge.NewError(xbridge.KindState, "Invalid chainId")
	ErrMessageExecuted        = xbridge.NewError(xbridge.KindReplay, "message already executed")
	ErrTransferExecuted       = xbridge.NewError(xbridge.KindReplay, "transfer already executed")
	ErrBridgeRelayNotExist    = xbridge.NewError(xbridge.KindState, "bridge relay not exist")
	ErrBridgeWithdrawNotExist = xbridge.NewError(xbridge.KindState, "bridge withdraw not exist")
	ErrBridgeMintNotExist     = xbridge.NewError(xbridge.KindState, "bridge mint not exist")
	ErrInvalidTransferType    = xbridge.NewError(xbridge.KindState, "invalid transfer type")
	ErrExecutionAborted       = xbridge.NewError(xbridge.KindState, "execution aborted")
	ErrNoVerifier             = xbridge.NewError(xbridge.KindState, "verifier not configured")
	ErrReceiverNotFound       = xbridge.NewError(xbridge.KindState, "receiver not found")

	feeBaseKey    = []byte("message/feeBase")
	feePerByteKey = []byte("message/feePerByte")
)

// Config configures a Bus
type Config struct {
	Domain    codec.Domain
	Store     *state.Store
	Verifier  Verifier
	Liquidity TransferBridge
	Pegged    TransferBridge
	Vault     TransferBridge
	Logger    *zap.Logger
	Metrics   *metrics.Metrics
}

// Bus is a message bus contract.
type Bus struct {
	cfg   Config
	log   *zap.Logger
	roles *roles.Table

	mu        sync.RWMutex
	receivers map[common.Address]Receiver
}

// New creates a new message bus
func New(cfg Config) (*Bus, error) {
	if cfg.Verifier == nil {
		return nil, ErrNoVerifier
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	log := cfg.Logger.With(zap.Stringer("bus", cfg.Domain.Contract))
	return &Bus{
		cfg:       cfg,
		log:       log,
		roles:     roles.New("message", log),
		receivers: make(map[common.Address]Receiver),
	}, nil
}

// Init sets the owner and the fee schedule.
func (b *Bus) Init(owner common.Address, feeBase, feePerByte *uint256.Int) error {
	return b.cfg.Store.Init(func(kv state.KV) error {
		if err := b.roles.Init(kv, owner); err != nil {
			return err
		}
		kv.Put(feeBaseKey, xbridge.Amount(feeBase).Bytes())
		kv.Put(feePerByteKey, xbridge.Amount(feePerByte).Bytes())
		return nil
	})
}

// Register binds addr to an application receiver.
func (b *Bus) Register(addr common.Address, r Receiver) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.receivers[addr] = r
}

func (b *Bus) receiver(addr common.Address) (Receiver, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	r, ok := b.receivers[addr]
	return r, ok
}

// SetFeeBase sets the flat part of the message fee. Owner only.
func (b *Bus) SetFeeBase(caller common.Address, fee *uint256.Int) error {
	return b.cfg.Store.Update(func(kv state.KV) error {
		if err := b.roles.Require(kv, caller, roles.Owner); err != nil {
			return err
		}
		fee = xbridge.Amount(fee)
		kv.Put(feeBaseKey, fee.Bytes())
		kv.Emit(FeeBaseUpdated{FeeBase: fee})
		return nil
	})
}

// SetFeePerByte sets the per-byte part of the message fee. Owner only.
func (b *Bus) SetFeePerByte(caller common.Address, fee *uint256.Int) error {
	return b.cfg.Store.Update(func(kv state.KV) error {
		if err := b.roles.Require(kv, caller, roles.Owner); err != nil {
			return err
		}
		fee = xbridge.Amount(fee)
		kv.Put(feePerByteKey, fee.Bytes())
		kv.Emit(FeePerByteUpdated{FeePerByte: fee})
		return nil
	})
}

// CalcFee returns the fee for sending message.
func (b *Bus) CalcFee(ctx context.Context, message []byte) (*uint256.Int, error) {
	var fee *uint256.Int
	err := b.cfg.Store.ViewContext(ctx, func(rd state.Reader) error {
		var err error
		fee, err = b.calcFee(rd, message)
		return err
	})
	return fee, err
}

func (b *Bus) calcFee(rd state.Reader, message []byte) (*uint256.Int, error) {
	base, err := getAmount(rd, feeBaseKey)
	if err != nil {
		return nil, err
	}
	perByte, err := getAmount(rd, feePerByteKey)
	if err != nil {
		return nil, err
	}
	fee, overflow := new(uint256.Int).MulOverflow(perByte, uint256.NewInt(uint64(len(message))))
	if overflow {
		return nil, ErrInsufficientFee.Errorf("fee overflow")
	}
	return xbridge.AddUint256(base, fee)
}

// SendMessage emits message for receiver on dstChainID. fee must cover
// CalcFee(message). Called with the ctx of a running execution, the send
// joins that execution's transition.
func (b *Bus) SendMessage(ctx context.Context, sender, receiver common.Address, dstChainID uint64, message []byte, fee *uint256.Int) error {
	return b.cfg.Store.UpdateContext(ctx, func(_ context.Context, kv state.KV) error {
		if err := b.checkSend(kv, dstChainID, message, fee); err != nil {
			return err
		}
		kv.Emit(Sent{
			Sender:     sender,
			Receiver:   receiver,
			DstChainID: dstChainID,
			Message:    message,
			Fee:        xbridge.Amount(fee),
		})
		return nil
	})
}

// SendMessageWithTransfer emits message bound to the transfer srcXferID
// sent through srcBridge.
func (b *Bus) SendMessageWithTransfer(ctx context.Context, sender, receiver common.Address, dstChainID uint64, srcBridge common.Address, srcXferID ids.ID, message []byte, fee *uint256.Int) error {
	return b.cfg.Store.UpdateContext(ctx, func(_ context.Context, kv state.KV) error {
		if err := b.checkSend(kv, dstChainID, message, fee); err != nil {
			return err
		}
		kv.Emit(SentWithTransfer{
			Sender:     sender,
			Receiver:   receiver,
			DstChainID: dstChainID,
			Bridge:     srcBridge,
			SrcXferID:  srcXferID,
			Message:    message,
			Fee:        xbridge.Amount(fee),
		})
		return nil
	})
}

func (b *Bus) checkSend(rd state.Reader, dstChainID uint64, message []byte, fee *uint256.Int) error {
	if dstChainID == b.cfg.Domain.ChainID {
		return ErrInvalidChainID.Errorf("%d", dstChainID)
	}
	required, err := b.calcFee(rd, message)
	if err != nil {
		return err
	}
	if xbridge.Amount(fee).Lt(required) {
		return ErrInsufficientFee.Errorf("%s < %s", xbridge.Amount(fee).Dec(), required.Dec())
	}
	return nil
}

// Status returns the recorded execution status of a message id.
func (b *Bus) Status(ctx context.Context, id ids.ID) (TxStatus, error) {
	var s TxStatus
	err := b.cfg.Store.ViewContext(ctx, func(rd state.Reader) error {
		var err error
		s, err = getStatus(rd, id)
		return err
	})
	return s, err
}

func statusKey(id ids.ID) []byte {
	return state.Key([]byte("message/executed/"), id[:])
}

func getStatus(rd state.Reader, id ids.ID) (TxStatus, error) {
	v, ok, err := rd.Get(statusKey(id))
	if err != nil || !ok || len(v) == 0 {
		return StatusNull, err
	}
	return TxStatus(v[0]), nil
}

func getAmount(rd state.Reader, key []byte) (*uint256.Int, error) {
	v, ok, err := rd.Get(key)
	if err != nil || !ok {
		return new(uint256.Int), err
	}
	return new(uint256.Int).SetBytes(v), nil
}

// callResult is the outcome of one receiver call.
type callResult struct {
	status ExecutionStatus
	reason string
}

// call runs fn against the receiver at addr in a nested transition, so the
// state a receiver changes through the bus is rolled back when it errors.
// Errors carrying AbortPrefix are returned; any other error becomes a failed
// result.
func (b *Bus) call(ctx context.Context, addr common.Address, fn func(context.Context, Receiver) (ExecutionStatus, error)) (callResult, error) {
	r, ok := b.receiver(addr)
	if !ok {
		return callResult{status: ExecutionFail, reason: ErrReceiverNotFound.Error()}, nil
	}
	var status ExecutionStatus
	err := b.cfg.Store.UpdateContext(ctx, func(ctx context.Context, _ state.KV) error {
		var err error
		status, err = fn(ctx, r)
		return err
	})
	if err == nil {
		return callResult{status: status}, nil
	}
	reason := err.Error()
	if strings.HasPrefix(reason, AbortPrefix) {
		return callResult{}, ErrExecutionAborted.Errorf("%s", strings.TrimPrefix(reason, AbortPrefix))
	}
	return callResult{status: ExecutionFail, reason: reason}, nil
}

// execution is one message execution attempt. run calls the receiver and
// maps its result to the status to record; a nil status means retry.
type execution struct {
	typ      Type
	id       ids.ID
	exists   error
	digest   common.Hash
	bundle   signers.Bundle
	receiver common.Address
	route    Route
	run      func(ctx context.Context, kv state.KV) (*TxStatus, error)
}

func (b *Bus) execute(ctx context.Context, e *execution) error {
	err := b.cfg.Store.UpdateContext(ctx, func(ctx context.Context, kv state.KV) error {
		status, err := getStatus(kv, e.id)
		if err != nil {
			return err
		}
		if status != StatusNull {
			return e.exists
		}
		if err := b.cfg.Verifier.VerifyDigest(e.digest, e.bundle); err != nil {
			return err
		}
		result, err := e.run(ctx, kv)
		if err != nil {
			return err
		}
		if result == nil {
			kv.Emit(NeedRetry{
				Type:       e.typ,
				ID:         e.id,
				SrcChainID: e.route.SrcChainID,
				SrcTxHash:  e.route.SrcTxHash,
			})
			b.log.Info("Message needs retry", zap.String("id", codec.Hex(e.id)))
			return nil
		}
		kv.Put(statusKey(e.id), []byte{byte(*result)})
		kv.Emit(Executed{
			Type:       e.typ,
			ID:         e.id,
			Status:     *result,
			Receiver:   e.receiver,
			SrcChainID: e.route.SrcChainID,
			SrcTxHash:  e.route.SrcTxHash,
		})
		outcome := result.String()
		kv.OnCommit(func() { b.cfg.Metrics.MessageExecuted(outcome) })
		b.log.Info("Executed message",
			zap.Stringer("type", e.typ),
			zap.String("id", codec.Hex(e.id)),
			zap.Stringer("status", result),
		)
		return nil
	})
	if err != nil {
		b.log.Debug("Rejected message execution",
			zap.String("id", codec.Hex(e.id)),
			zap.Error(err),
		)
	}
	return err
}

func (b *Bus) revert(kv state.KV, reason string) {
	if reason != "" {
		kv.Emit(CallReverted{Reason: reason})
	}
}

// ExecuteMessage executes a message sent without a transfer.
func (b *Bus) ExecuteMessage(ctx context.Context, message []byte, route Route, bundle signers.Bundle) error {
	id := codec.MessageID(route.Sender, route.Receiver, route.SrcChainID, route.SrcTxHash, b.cfg.Domain.ChainID, message)
	return b.execute(ctx, &execution{
		typ:      TypeMessageOnly,
		id:       id,
		exists:   ErrMessageExecuted,
		digest:   codec.SignedDigest(b.cfg.Domain.Separator(DomainMessage), id[:]),
		bundle:   bundle,
		receiver: route.Receiver,
		route:    route,
		run: func(ctx context.Context, kv state.KV) (*TxStatus, error) {
			res, err := b.call(ctx, route.Receiver, func(ctx context.Context, r Receiver) (ExecutionStatus, error) {
				return r.ExecuteMessage(ctx, route.Sender, route.SrcChainID, message)
			})
			if err != nil {
				return nil, err
			}
			switch res.status {
			case ExecutionRetry:
				return nil, nil
			case ExecutionSuccess:
				return statusPtr(StatusSuccess), nil
			default:
				b.revert(kv, res.reason)
				return statusPtr(StatusFail), nil
			}
		},
	})
}

// ExecuteMessageWithTransfer executes a message riding on a completed
// bridge transfer. When the receiver fails, its fallback is tried.
func (b *Bus) ExecuteMessageWithTransfer(ctx context.Context, message []byte, transfer TransferInfo, bundle signers.Bundle) error {
	xferID, srcBridge, err := b.verifyTransfer(transfer)
	if err != nil {
		return err
	}
	id := codec.MessageWithTransferID(srcBridge, xferID)
	return b.execute(ctx, &execution{
		typ:      TypeMessageWithTransfer,
		id:       id,
		exists:   ErrTransferExecuted,
		digest:   codec.SignedDigest(b.cfg.Domain.Separator(DomainMessageWithTransfer), id[:], message, transfer.SrcTxHash[:]),
		bundle:   bundle,
		receiver: transfer.Receiver,
		route:    Route{Sender: transfer.Sender, Receiver: transfer.Receiver, SrcChainID: transfer.SrcChainID, SrcTxHash: transfer.SrcTxHash},
		run: func(ctx context.Context, kv state.KV) (*TxStatus, error) {
			res, err := b.call(ctx, transfer.Receiver, func(ctx context.Context, r Receiver) (ExecutionStatus, error) {
				return r.ExecuteMessageWithTransfer(ctx, transfer.Sender, transfer.Token, transfer.Amount, transfer.SrcChainID, message)
			})
			if err != nil {
				return nil, err
			}
			switch res.status {
			case ExecutionRetry:
				return nil, nil
			case ExecutionSuccess:
				return statusPtr(StatusSuccess), nil
			}
			b.revert(kv, res.reason)

			res, err = b.call(ctx, transfer.Receiver, func(ctx context.Context, r Receiver) (ExecutionStatus, error) {
				return r.ExecuteMessageWithTransferFallback(ctx, transfer.Sender, transfer.Token, transfer.Amount, transfer.SrcChainID, message)
			})
			if err != nil {
				return nil, err
			}
			switch res.status {
			case ExecutionRetry:
				return nil, nil
			case ExecutionSuccess:
				return statusPtr(StatusFallback), nil
			default:
				b.revert(kv, res.reason)
				return statusPtr(StatusFail), nil
			}
		},
	})
}

// ExecuteMessageWithTransferRefund returns a transfer refunded by the bridge
// to the application that sent it.
func (b *Bus) ExecuteMessageWithTransferRefund(ctx context.Context, message []byte, transfer TransferInfo, bundle signers.Bundle) error {
	xferID, srcBridge, err := b.verifyTransfer(transfer)
	if err != nil {
		return err
	}
	id := codec.MessageWithTransferID(srcBridge, xferID)
	return b.execute(ctx, &execution{
		typ:      TypeMessageWithTransfer,
		id:       id,
		exists:   ErrTransferExecuted,
		digest:   codec.SignedDigest(b.cfg.Domain.Separator(DomainMessageWithTransferRefund), id[:], message, transfer.SrcTxHash[:]),
		bundle:   bundle,
		receiver: transfer.Receiver,
		route:    Route{Sender: transfer.Sender, Receiver: transfer.Receiver, SrcChainID: transfer.SrcChainID, SrcTxHash: transfer.SrcTxHash},
		run: func(ctx context.Context, kv state.KV) (*TxStatus, error) {
			res, err := b.call(ctx, transfer.Receiver, func(ctx context.Context, r Receiver) (ExecutionStatus, error) {
				return r.ExecuteMessageWithTransferRefund(ctx, transfer.Token, transfer.Amount, message)
			})
			if err != nil {
				return nil, err
			}
			switch res.status {
			case ExecutionRetry:
				return nil, nil
			case ExecutionSuccess:
				return statusPtr(StatusSuccess), nil
			default:
				b.revert(kv, res.reason)
				return statusPtr(StatusFail), nil
			}
		},
	})
}

// TransferID recomputes the bridge transfer id described by t and the
// address of the bridge that recorded it.
func (b *Bus) TransferID(t TransferInfo) (ids.ID, common.Address, error) {
	amount := xbridge.Amount(t.Amount)
	switch t.Type {
	case TransferLqRelay:
		d, err := bridgeDomain(b.cfg.Liquidity, t.Type)
		if err != nil {
			return ids.ID{}, common.Address{}, err
		}
		return codec.TransferID(d, &codec.RelayRequest{
			Sender:        t.Sender,
			Receiver:      t.Receiver,
			Token:         t.Token,
			Amount:        amount,
			SrcChainID:    t.SrcChainID,
			DstChainID:    d.ChainID,
			SrcTransferID: t.RefID,
		}), d.Contract, nil
	case TransferLqWithdraw:
		d, err := bridgeDomain(b.cfg.Liquidity, t.Type)
		if err != nil {
			return ids.ID{}, common.Address{}, err
		}
		return codec.WithdrawID(&codec.WithdrawRequest{
			ChainID:  d.ChainID,
			SeqNum:   t.WdSeq,
			Receiver: t.Receiver,
			Token:    t.Token,
			Amount:   amount,
		}), d.Contract, nil
	case TransferPegMint:
		d, err := bridgeDomain(b.cfg.Pegged, t.Type)
		if err != nil {
			return ids.ID{}, common.Address{}, err
		}
		return codec.MintID(d, &codec.MintRequest{
			Token:      t.Token,
			Account:    t.Receiver,
			Amount:     amount,
			Depositor:  t.Sender,
			RefChainID: t.SrcChainID,
			RefID:      t.RefID,
		}), d.Contract, nil
	case TransferPegWithdraw:
		d, err := bridgeDomain(b.cfg.Vault, t.Type)
		if err != nil {
			return ids.ID{}, common.Address{}, err
		}
		return codec.VaultWithdrawID(d, &codec.VaultWithdrawRequest{
			Token:       t.Token,
			Receiver:    t.Receiver,
			Amount:      amount,
			BurnAccount: t.Sender,
			RefChainID:  t.SrcChainID,
			RefID:       t.RefID,
		}), d.Contract, nil
	default:
		return ids.ID{}, common.Address{}, ErrInvalidTransferType.Errorf("%d", t.Type)
	}
}

func bridgeDomain(tb TransferBridge, t TransferType) (codec.Domain, error) {
	if tb == nil {
		return codec.Domain{}, ErrInvalidTransferType.Errorf("no bridge for %s", t)
	}
	return tb.Domain(), nil
}

// verifyTransfer requires the transfer described by t to be recorded by
// its bridge.
func (b *Bus) verifyTransfer(t TransferInfo) (ids.ID, common.Address, error) {
	id, srcBridge, err := b.TransferID(t)
	if err != nil {
		return ids.ID{}, common.Address{}, err
	}
	var (
		tb       TransferBridge
		record   bridge.Record
		notExist error
	)
	switch t.Type {
	case TransferLqRelay:
		tb, record, notExist = b.cfg.Liquidity, bridge.RecordTransfer, ErrBridgeRelayNotExist
	case TransferLqWithdraw:
		tb, record, notExist = b.cfg.Liquidity, bridge.RecordWithdraw, ErrBridgeWithdrawNotExist
	case TransferPegMint:
		tb, record, notExist = b.cfg.Pegged, bridge.RecordMint, ErrBridgeMintNotExist
	default:
		tb, record, notExist = b.cfg.Vault, bridge.RecordWithdraw, ErrBridgeWithdrawNotExist
	}
	ok, err := tb.IsRecorded(record, id)
	if err != nil {
		return ids.ID{}, common.Address{}, err
	}
	if !ok {
		return ids.ID{}, common.Address{}, notExist
	}
	return id, srcBridge, nil
}

func statusPtr(s TxStatus) *TxStatus {
	return &s
}
