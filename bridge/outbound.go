// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package bridge

import (
	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/ids"
	"go.uber.org/zap"

	"github.com/luxfi/xbridge"
	"github.com/luxfi/xbridge/codec"
	"github.com/luxfi/xbridge/risk"
	"github.com/luxfi/xbridge/state"
)

// SendParams describes an outbound transfer from a liquidity bridge.
type SendParams struct {
	Sender      common.Address
	Receiver    common.Address
	Token       common.Address
	Amount      *uint256.Int
	DstChainID  uint64
	Nonce       uint64
	MaxSlippage uint32
}

// Send takes amount of token from the sender into custody for delivery on
// DstChainID. It returns the transfer id.
func (b *Bridge) Send(p SendParams) (ids.ID, error) {
	p.Amount = xbridge.Amount(p.Amount)
	var id ids.ID
	err := b.transition(OpSend, func(kv state.KV) error {
		if err := b.require(kv, OpSend); err != nil {
			return err
		}
		if p.DstChainID == b.cfg.Domain.ChainID {
			return ErrSameChain.Errorf("%d", p.DstChainID)
		}
		minSlippage, err := b.MinimalMaxSlippage(kv)
		if err != nil {
			return err
		}
		if p.MaxSlippage <= minSlippage {
			return ErrSlippageTooSmall.Errorf("%d <= %d", p.MaxSlippage, minSlippage)
		}
		if err := b.risk.CheckAmountBounds(kv, p.Token, p.Amount, risk.OpSend); err != nil {
			return err
		}
		id = codec.SendID(p.Sender, p.Receiver, p.Token, p.Amount, p.DstChainID, p.Nonce, b.cfg.Domain.ChainID)
		if err := markRecorded(kv, RecordSend, id, ErrTransferExists); err != nil {
			return err
		}
		if err := b.cfg.Backend.Transfer(kv, p.Token, p.Sender, b.Address(), p.Amount); err != nil {
			return err
		}
		kv.Emit(Sent{
			TransferID:  id,
			Sender:      p.Sender,
			Receiver:    p.Receiver,
			Token:       p.Token,
			Amount:      p.Amount,
			DstChainID:  p.DstChainID,
			Nonce:       p.Nonce,
			MaxSlippage: p.MaxSlippage,
		})
		b.logID("Sent transfer", id,
			zap.Stringer("token", p.Token),
			zap.String("amount", p.Amount.Dec()),
			zap.Uint64("dstChainID", p.DstChainID),
		)
		return nil
	})
	return id, err
}

// AddLiquidity moves amount of token from provider into the pool. It
// returns the liquidity sequence number.
func (b *Bridge) AddLiquidity(provider, token common.Address, amount *uint256.Int) (uint64, error) {
	amount = xbridge.Amount(amount)
	var seq uint64
	err := b.transition(OpAddLiquidity, func(kv state.KV) error {
		if err := b.require(kv, OpAddLiquidity); err != nil {
			return err
		}
		if err := b.risk.CheckAmountBounds(kv, token, amount, risk.OpAdd); err != nil {
			return err
		}
		if _, err := state.GetRLP(kv, addSeqKey, &seq); err != nil {
			return err
		}
		seq++
		if err := state.PutRLP(kv, addSeqKey, seq); err != nil {
			return err
		}
		if err := b.cfg.Backend.Transfer(kv, token, provider, b.Address(), amount); err != nil {
			return err
		}
		kv.Emit(LiquidityAdded{
			SeqNum:   seq,
			Provider: provider,
			Token:    token,
			Amount:   amount,
		})
		b.log.Info("Added liquidity",
			zap.Uint64("seqNum", seq),
			zap.Stringer("provider", provider),
			zap.Stringer("token", token),
			zap.String("amount", amount.Dec()),
		)
		return nil
	})
	return seq, err
}

// DepositParams describes a vault deposit to be minted on MintChainID.
type DepositParams struct {
	Depositor   common.Address
	Token       common.Address
	Amount      *uint256.Int
	MintChainID uint64
	MintAccount common.Address
	Nonce       uint64
}

// Deposit locks amount of token in the vault. It returns the deposit id.
func (b *Bridge) Deposit(p DepositParams) (ids.ID, error) {
	p.Amount = xbridge.Amount(p.Amount)
	var id ids.ID
	err := b.transition(OpDeposit, func(kv state.KV) error {
		if err := b.require(kv, OpDeposit); err != nil {
			return err
		}
		if err := b.risk.CheckAmountBounds(kv, p.Token, p.Amount, risk.OpDeposit); err != nil {
			return err
		}
		id = codec.DepositID(p.Depositor, p.Token, p.Amount, p.MintChainID, p.MintAccount, p.Nonce, b.cfg.Domain.ChainID)
		if err := markRecorded(kv, RecordDeposit, id, ErrRecordExists); err != nil {
			return err
		}
		if err := b.cfg.Backend.Transfer(kv, p.Token, p.Depositor, b.Address(), p.Amount); err != nil {
			return err
		}
		kv.Emit(Deposited{
			DepositID:   id,
			Depositor:   p.Depositor,
			Token:       p.Token,
			Amount:      p.Amount,
			MintChainID: p.MintChainID,
			MintAccount: p.MintAccount,
			Nonce:       p.Nonce,
		})
		b.logID("Deposited", id,
			zap.Stringer("token", p.Token),
			zap.String("amount", p.Amount.Dec()),
			zap.Uint64("mintChainID", p.MintChainID),
		)
		return nil
	})
	return id, err
}

// BurnParams describes a burn of pegged tokens to be withdrawn from the
// origin vault.
type BurnParams struct {
	Burner          common.Address
	Token           common.Address
	Amount          *uint256.Int
	WithdrawAccount common.Address
	Nonce           uint64
}

// Burn destroys amount of pegged token. It returns the burn id.
func (b *Bridge) Burn(p BurnParams) (ids.ID, error) {
	p.Amount = xbridge.Amount(p.Amount)
	var id ids.ID
	err := b.transition(OpBurn, func(kv state.KV) error {
		if err := b.require(kv, OpBurn); err != nil {
			return err
		}
		if err := b.risk.CheckAmountBounds(kv, p.Token, p.Amount, risk.OpBurn); err != nil {
			return err
		}
		id = codec.BurnID(p.Burner, p.Token, p.Amount, p.WithdrawAccount, p.Nonce, b.cfg.Domain.ChainID)
		if err := markRecorded(kv, RecordBurn, id, ErrRecordExists); err != nil {
			return err
		}
		if err := b.cfg.Backend.Burn(kv, p.Token, p.Burner, p.Amount); err != nil {
			return err
		}
		kv.Emit(Burned{
			BurnID:          id,
			Token:           p.Token,
			Account:         p.Burner,
			Amount:          p.Amount,
			WithdrawAccount: p.WithdrawAccount,
		})
		b.logID("Burned", id,
			zap.Stringer("token", p.Token),
			zap.String("amount", p.Amount.Dec()),
		)
		return nil
	})
	return id, err
}

// MinimalMaxSlippage is the bound a sender's max slippage must exceed.
func (b *Bridge) MinimalMaxSlippage(rd state.Reader) (uint32, error) {
	var v uint32
	_, err := state.GetRLP(rd, minSlippageKey, &v)
	return v, err
}
