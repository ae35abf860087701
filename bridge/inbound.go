// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package bridge

import (
	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/ids"
	"go.uber.org/zap"

	"github.com/luxfi/xbridge/codec"
	"github.com/luxfi/xbridge/risk"
	"github.com/luxfi/xbridge/signers"
	"github.com/luxfi/xbridge/state"
)

// inbound is the common admission path of a signed request: replay check,
// quorum verification, bounds, epoch volume, then the replay mark. The
// caller then either escrows or pays out.
type inbound struct {
	record   Record
	exists   error
	id       ids.ID
	domain   string
	payload  []byte
	bundle   signers.Bundle
	token    common.Address
	amount   *uint256.Int
	receiver common.Address
}

// admit runs the checks of in and marks it seen. It reports whether the
// transfer was escrowed as a delayed transfer.
func (b *Bridge) admit(kv state.KV, in *inbound) (bool, error) {
	if err := checkNotRecorded(kv, in.record, in.id, in.exists); err != nil {
		return false, err
	}
	if err := b.registry.Verify(kv, in.domain, in.payload, in.bundle); err != nil {
		return false, err
	}
	if err := b.risk.CheckAmountBounds(kv, in.token, in.amount, risk.OpReceive); err != nil {
		return false, err
	}
	if err := b.risk.CheckAndUpdateEpochVolume(kv, in.token, in.amount); err != nil {
		return false, err
	}
	if err := markRecorded(kv, in.record, in.id, in.exists); err != nil {
		return false, err
	}
	return b.risk.MaybeDelay(kv, in.id, in.receiver, in.token, in.amount)
}

// payout releases amount of token to receiver: a mint on a pegged bridge
// and a transfer out of custody otherwise.
func (b *Bridge) payout(kv state.KV, token, receiver common.Address, amount *uint256.Int) error {
	if b.cfg.Kind == Pegged {
		return b.cfg.Backend.Mint(kv, token, receiver, amount)
	}
	return b.cfg.Backend.Transfer(kv, token, b.Address(), receiver, amount)
}

// Relay releases liquidity for a transfer sent on another chain. It
// returns the destination transfer id.
func (b *Bridge) Relay(request []byte, bundle signers.Bundle) (ids.ID, error) {
	var id ids.ID
	err := b.transition(OpRelay, func(kv state.KV) error {
		if err := b.require(kv, OpRelay); err != nil {
			return err
		}
		req, err := codec.DecodeAs[*codec.RelayRequest](b.cfg.Codec, request)
		if err != nil {
			return err
		}
		if req.DstChainID != b.cfg.Domain.ChainID {
			return ErrDstChainMismatch.Errorf("%d != %d", req.DstChainID, b.cfg.Domain.ChainID)
		}
		id = codec.TransferID(b.cfg.Domain, req)
		delayed, err := b.admit(kv, &inbound{
			record:   RecordTransfer,
			exists:   ErrTransferExists,
			id:       id,
			domain:   codec.TypeRelay.DomainName(),
			payload:  request,
			bundle:   bundle,
			token:    req.Token,
			amount:   req.Amount,
			receiver: req.Receiver,
		})
		if err != nil {
			return err
		}
		if !delayed {
			if err := b.payout(kv, req.Token, req.Receiver, req.Amount); err != nil {
				return err
			}
		}
		kv.Emit(Relayed{
			TransferID:    id,
			Sender:        req.Sender,
			Receiver:      req.Receiver,
			Token:         req.Token,
			Amount:        req.Amount,
			SrcChainID:    req.SrcChainID,
			SrcTransferID: req.SrcTransferID,
		})
		b.logID("Relayed transfer", id,
			zap.Stringer("token", req.Token),
			zap.String("amount", req.Amount.Dec()),
			zap.Uint64("srcChainID", req.SrcChainID),
			zap.Bool("delayed", delayed),
		)
		return nil
	})
	return id, err
}

// Withdraw processes a liquidity withdrawal or a refund. It returns the
// withdrawal id.
func (b *Bridge) Withdraw(request []byte, bundle signers.Bundle) (ids.ID, error) {
	var id ids.ID
	err := b.transition(OpWithdraw, func(kv state.KV) error {
		if err := b.require(kv, OpWithdraw); err != nil {
			return err
		}
		req, err := codec.DecodeAs[*codec.WithdrawRequest](b.cfg.Codec, request)
		if err != nil {
			return err
		}
		id = codec.WithdrawID(req)
		delayed, err := b.admit(kv, &inbound{
			record:   RecordWithdraw,
			exists:   ErrWithdrawSucceeded,
			id:       id,
			domain:   codec.TypeWithdraw.DomainName(),
			payload:  request,
			bundle:   bundle,
			token:    req.Token,
			amount:   req.Amount,
			receiver: req.Receiver,
		})
		if err != nil {
			return err
		}
		if !delayed {
			if err := b.payout(kv, req.Token, req.Receiver, req.Amount); err != nil {
				return err
			}
		}
		kv.Emit(WithdrawDone{
			WithdrawID: id,
			SeqNum:     req.SeqNum,
			Receiver:   req.Receiver,
			Token:      req.Token,
			Amount:     req.Amount,
			RefID:      req.RefID,
		})
		b.logID("Withdrew liquidity", id,
			zap.Stringer("token", req.Token),
			zap.String("amount", req.Amount.Dec()),
			zap.Uint64("seqNum", req.SeqNum),
			zap.Bool("delayed", delayed),
		)
		return nil
	})
	return id, err
}

// Mint mints pegged tokens for a deposit on the origin chain. It returns
// the mint id.
func (b *Bridge) Mint(request []byte, bundle signers.Bundle) (ids.ID, error) {
	var id ids.ID
	err := b.transition(OpMint, func(kv state.KV) error {
		if err := b.require(kv, OpMint); err != nil {
			return err
		}
		req, err := codec.DecodeAs[*codec.MintRequest](b.cfg.Codec, request)
		if err != nil {
			return err
		}
		id = codec.MintID(b.cfg.Domain, req)
		delayed, err := b.admit(kv, &inbound{
			record:   RecordMint,
			exists:   ErrRecordExists,
			id:       id,
			domain:   codec.TypeMint.DomainName(),
			payload:  request,
			bundle:   bundle,
			token:    req.Token,
			amount:   req.Amount,
			receiver: req.Account,
		})
		if err != nil {
			return err
		}
		if !delayed {
			if err := b.payout(kv, req.Token, req.Account, req.Amount); err != nil {
				return err
			}
		}
		kv.Emit(Minted{
			MintID:     id,
			Token:      req.Token,
			Account:    req.Account,
			Amount:     req.Amount,
			RefChainID: req.RefChainID,
			RefID:      req.RefID,
			Depositor:  req.Depositor,
		})
		b.logID("Minted", id,
			zap.Stringer("token", req.Token),
			zap.String("amount", req.Amount.Dec()),
			zap.Uint64("refChainID", req.RefChainID),
			zap.Bool("delayed", delayed),
		)
		return nil
	})
	return id, err
}

// VaultWithdraw releases original tokens for a burn of their pegged
// counterpart. It returns the withdrawal id.
func (b *Bridge) VaultWithdraw(request []byte, bundle signers.Bundle) (ids.ID, error) {
	var id ids.ID
	err := b.transition(OpVaultWithdraw, func(kv state.KV) error {
		if err := b.require(kv, OpVaultWithdraw); err != nil {
			return err
		}
		req, err := codec.DecodeAs[*codec.VaultWithdrawRequest](b.cfg.Codec, request)
		if err != nil {
			return err
		}
		id = codec.VaultWithdrawID(b.cfg.Domain, req)
		delayed, err := b.admit(kv, &inbound{
			record:   RecordWithdraw,
			exists:   ErrRecordExists,
			id:       id,
			domain:   codec.TypeVaultWithdraw.DomainName(),
			payload:  request,
			bundle:   bundle,
			token:    req.Token,
			amount:   req.Amount,
			receiver: req.Receiver,
		})
		if err != nil {
			return err
		}
		if !delayed {
			if err := b.payout(kv, req.Token, req.Receiver, req.Amount); err != nil {
				return err
			}
		}
		kv.Emit(Withdrawn{
			WithdrawID:  id,
			Receiver:    req.Receiver,
			Token:       req.Token,
			Amount:      req.Amount,
			RefChainID:  req.RefChainID,
			RefID:       req.RefID,
			BurnAccount: req.BurnAccount,
		})
		b.logID("Withdrew from vault", id,
			zap.Stringer("token", req.Token),
			zap.String("amount", req.Amount.Dec()),
			zap.Uint64("refChainID", req.RefChainID),
			zap.Bool("delayed", delayed),
		)
		return nil
	})
	return id, err
}

// ExecuteDelayedTransfer pays out an escrowed transfer whose delay period
// has passed. Anyone may call it.
func (b *Bridge) ExecuteDelayedTransfer(id ids.ID) error {
	return b.transition(OpExecuteDelayed, func(kv state.KV) error {
		if err := b.require(kv, OpExecuteDelayed); err != nil {
			return err
		}
		dt, err := b.risk.ExecuteDelayedTransfer(kv, id)
		if err != nil {
			return err
		}
		if err := b.payout(kv, dt.Token, dt.Receiver, dt.Amount); err != nil {
			return err
		}
		b.logID("Executed delayed transfer", id,
			zap.Stringer("receiver", dt.Receiver),
			zap.Stringer("token", dt.Token),
			zap.String("amount", dt.Amount.Dec()),
		)
		return nil
	})
}

// DelayedTransfer returns the escrow recorded under id.
func (b *Bridge) DelayedTransfer(id ids.ID) (*risk.DelayedTransfer, bool, error) {
	var (
		dt *risk.DelayedTransfer
		ok bool
	)
	err := b.cfg.Store.View(func(rd state.Reader) error {
		var err error
		dt, ok, err = b.risk.GetDelayedTransfer(rd, id)
		return err
	})
	return dt, ok, err
}
