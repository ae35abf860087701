// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package token

import (
	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"go.uber.org/zap"

	"github.com/luxfi/xbridge"
	"github.com/luxfi/xbridge/state"
)

var (
	ErrInsufficientBalance = xbridge.NewError(xbridge.KindState, "insufficient balance")
	ErrSupplyOverflow      = xbridge.NewError(xbridge.KindState, "total supply overflow")
	ErrZeroAccount         = xbridge.NewError(xbridge.KindState, "zero address account")

	_ Backend  = (*Ledger)(nil)
	_ Balances = (*Ledger)(nil)
)

// Ledger is a Backend keeping balances in the same store as the bridge
// state, so value transfer commits or discards with the transition.
type Ledger struct {
	logger *zap.Logger
}

// NewLedger creates a new ledger
func NewLedger(logger *zap.Logger) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{logger: logger}
}

func balanceKey(token, account common.Address) []byte {
	return state.Key([]byte("token/balance/"), token[:], account[:])
}

func supplyKey(token common.Address) []byte {
	return state.Key([]byte("token/supply/"), token[:])
}

func getAmount(rd state.Reader, key []byte) (*uint256.Int, error) {
	b, ok, err := rd.Get(key)
	if err != nil || !ok {
		return new(uint256.Int), err
	}
	return new(uint256.Int).SetBytes(b), nil
}

func putAmount(kv state.KV, key []byte, v *uint256.Int) {
	if v.IsZero() {
		kv.Delete(key)
		return
	}
	kv.Put(key, v.Bytes())
}

func (l *Ledger) BalanceOf(rd state.Reader, token, account common.Address) (*uint256.Int, error) {
	return getAmount(rd, balanceKey(token, account))
}

func (l *Ledger) TotalSupply(rd state.Reader, token common.Address) (*uint256.Int, error) {
	return getAmount(rd, supplyKey(token))
}

func (l *Ledger) Transfer(kv state.KV, token, from, to common.Address, amount *uint256.Int) error {
	if to == (common.Address{}) {
		return ErrZeroAccount.Errorf("transfer to zero address")
	}
	if err := l.debit(kv, token, from, amount); err != nil {
		return err
	}
	if err := l.credit(kv, token, to, amount); err != nil {
		return err
	}
	kv.Emit(Transfer{Token: token, From: from, To: to, Amount: amount})
	return nil
}

func (l *Ledger) Mint(kv state.KV, token, to common.Address, amount *uint256.Int) error {
	if to == (common.Address{}) {
		return ErrZeroAccount.Errorf("mint to zero address")
	}
	supply, err := l.TotalSupply(kv, token)
	if err != nil {
		return err
	}
	next, overflow := new(uint256.Int).AddOverflow(supply, amount)
	if overflow {
		return ErrSupplyOverflow.Errorf("%s + %s", supply.Dec(), amount.Dec())
	}
	if err := l.credit(kv, token, to, amount); err != nil {
		return err
	}
	putAmount(kv, supplyKey(token), next)
	kv.Emit(Transfer{Token: token, To: to, Amount: amount})
	l.logger.Debug("Minted",
		zap.Stringer("token", token),
		zap.Stringer("to", to),
		zap.String("amount", amount.Dec()),
	)
	return nil
}

func (l *Ledger) Burn(kv state.KV, token, from common.Address, amount *uint256.Int) error {
	if err := l.debit(kv, token, from, amount); err != nil {
		return err
	}
	supply, err := l.TotalSupply(kv, token)
	if err != nil {
		return err
	}
	putAmount(kv, supplyKey(token), new(uint256.Int).Sub(supply, amount))
	kv.Emit(Transfer{Token: token, From: from, Amount: amount})
	l.logger.Debug("Burned",
		zap.Stringer("token", token),
		zap.Stringer("from", from),
		zap.String("amount", amount.Dec()),
	)
	return nil
}

func (l *Ledger) debit(kv state.KV, token, account common.Address, amount *uint256.Int) error {
	balance, err := l.BalanceOf(kv, token, account)
	if err != nil {
		return err
	}
	if balance.Lt(amount) {
		return ErrInsufficientBalance.Errorf("%s has %s, needs %s", account, balance.Dec(), amount.Dec())
	}
	putAmount(kv, balanceKey(token, account), new(uint256.Int).Sub(balance, amount))
	return nil
}

func (l *Ledger) credit(kv state.KV, token, account common.Address, amount *uint256.Int) error {
	balance, err := l.BalanceOf(kv, token, account)
	if err != nil {
		return err
	}
	next, overflow := new(uint256.Int).AddOverflow(balance, amount)
	if overflow {
		return ErrSupplyOverflow.Errorf("balance of %s", account)
	}
	putAmount(kv, balanceKey(token, account), next)
	return nil
}
