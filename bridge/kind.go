// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package bridge

import (
	"fmt"
	"strings"
)

// Kind selects which side of the protocol a Bridge plays.
type Kind uint8

const (
	// Liquidity bridges hold pooled liquidity. They relay transfers and
	// process liquidity withdrawals and refunds.
	Liquidity Kind = iota + 1
	// Pegged bridges mint and burn wrapped tokens.
	Pegged
	// Vault bridges custody original tokens for a pegged bridge elsewhere.
	Vault
)

func (k Kind) String() string {
	switch k {
	case Liquidity:
		return "liquidity"
	case Pegged:
		return "pegged"
	case Vault:
		return "vault"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(k))
	}
}

// ParseKind parses a kind name.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(s) {
	case "liquidity":
		return Liquidity, nil
	case "pegged":
		return Pegged, nil
	case "vault":
		return Vault, nil
	default:
		return 0, ErrUnknownKind.Errorf("%q", s)
	}
}

// Operation is a state transition of a Bridge.
type Operation string

const (
	OpRelay          Operation = "relay"
	OpWithdraw       Operation = "withdraw"
	OpMint           Operation = "mint"
	OpVaultWithdraw  Operation = "vault_withdraw"
	OpSend           Operation = "send"
	OpAddLiquidity   Operation = "add_liquidity"
	OpDeposit        Operation = "deposit"
	OpBurn           Operation = "burn"
	OpExecuteDelayed Operation = "execute_delayed"
	OpUpdateSigners  Operation = "update_signers"
	OpResetSigners   Operation = "reset_signers"
	OpNotifyReset    Operation = "notify_reset_signers"
	OpIncreaseNotice Operation = "increase_notice_period"
	OpSetLimits      Operation = "set_limits"
	OpSetEpochLength Operation = "set_epoch_length"
	OpSetDelayPeriod Operation = "set_delay_period"
	OpSetMinSlippage Operation = "set_minimal_max_slippage"
	OpPause          Operation = "pause"
	OpUnpause        Operation = "unpause"
	OpGrantRole      Operation = "grant_role"
	OpRevokeRole     Operation = "revoke_role"
	OpTransferOwner  Operation = "transfer_ownership"
	OpInit           Operation = "init"
)

// Supports reports whether a bridge of kind k offers op.
func (k Kind) Supports(op Operation) bool {
	switch op {
	case OpRelay, OpWithdraw, OpSend, OpAddLiquidity, OpSetMinSlippage:
		return k == Liquidity
	case OpMint, OpBurn:
		return k == Pegged
	case OpVaultWithdraw, OpDeposit:
		return k == Vault
	default:
		return k >= Liquidity && k <= Vault
	}
}
