// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package codec

import (
	"fmt"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
)

// RequestType is the leading discriminant of an encoded request.
type RequestType uint8

const (
	TypeRelay RequestType = iota + 1
	TypeWithdraw
	TypeMint
	TypeVaultWithdraw
	TypeUpdateSigners
	TypeReward
	TypePenalty
)

func (t RequestType) String() string {
	switch t {
	case TypeRelay:
		return "relay"
	case TypeWithdraw:
		return "withdraw"
	case TypeMint:
		return "mint"
	case TypeVaultWithdraw:
		return "vault-withdraw"
	case TypeUpdateSigners:
		return "update-signers"
	case TypeReward:
		return "reward"
	case TypePenalty:
		return "penalty"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(t))
	}
}

// DomainName is the type string mixed into the domain separator of
// signatures over this request type.
func (t RequestType) DomainName() string {
	switch t {
	case TypeRelay:
		return "Relay"
	case TypeWithdraw:
		return "WithdrawMsg"
	case TypeMint:
		return "Mint"
	case TypeVaultWithdraw:
		return "Withdraw"
	case TypeUpdateSigners:
		return "UpdateSigners"
	case TypeReward:
		return "StakingReward"
	case TypePenalty:
		return "Slash"
	default:
		return ""
	}
}

// ParseRequestType parses the String form of a request type.
func ParseRequestType(s string) (RequestType, error) {
	for t := TypeRelay; t <= TypePenalty; t++ {
		if t.String() == s {
			return t, nil
		}
	}
	return 0, ErrUnknownRequestType.Errorf("%q", s)
}

// Request is one of the signed request variants.
type Request interface {
	Type() RequestType
	Validate() error
}

// RelayRequest releases liquidity on the destination chain for a transfer
// sent on the source chain.
type RelayRequest struct {
	Sender        common.Address
	Receiver      common.Address
	Token         common.Address
	Amount        *uint256.Int
	SrcChainID    uint64
	DstChainID    uint64
	SrcTransferID common.Hash
}

func (*RelayRequest) Type() RequestType { return TypeRelay }

func (r *RelayRequest) Validate() error {
	return validateAmount(r.Amount)
}

// WithdrawRequest withdraws liquidity, or refunds a failed transfer.
type WithdrawRequest struct {
	ChainID  uint64
	SeqNum   uint64
	Receiver common.Address
	Token    common.Address
	Amount   *uint256.Int
	RefID    common.Hash
}

func (*WithdrawRequest) Type() RequestType { return TypeWithdraw }

func (r *WithdrawRequest) Validate() error {
	return validateAmount(r.Amount)
}

// MintRequest mints pegged tokens for a deposit locked on the origin chain.
type MintRequest struct {
	Token      common.Address
	Account    common.Address
	Amount     *uint256.Int
	Depositor  common.Address
	RefChainID uint64
	RefID      common.Hash
}

func (*MintRequest) Type() RequestType { return TypeMint }

func (r *MintRequest) Validate() error {
	return validateAmount(r.Amount)
}

// VaultWithdrawRequest releases original tokens from the vault for a burn
// of pegged tokens on another chain.
type VaultWithdrawRequest struct {
	Token       common.Address
	Receiver    common.Address
	Amount      *uint256.Int
	BurnAccount common.Address
	RefChainID  uint64
	RefID       common.Hash
}

func (*VaultWithdrawRequest) Type() RequestType { return TypeVaultWithdraw }

func (r *VaultWithdrawRequest) Validate() error {
	return validateAmount(r.Amount)
}

// UpdateSignersRequest rotates the signer set.
type UpdateSignersRequest struct {
	TriggerTime uint64
	Signers     []common.Address
	Powers      []*uint256.Int
}

func (*UpdateSignersRequest) Type() RequestType { return TypeUpdateSigners }

func (r *UpdateSignersRequest) Validate() error {
	if len(r.Signers) != len(r.Powers) {
		return ErrInvalidField.Errorf("%d signers and %d powers", len(r.Signers), len(r.Powers))
	}
	for _, p := range r.Powers {
		if err := validateAmount(p); err != nil {
			return err
		}
	}
	return nil
}

// RewardRequest carries a recipient's cumulative staking reward.
type RewardRequest struct {
	Recipient              common.Address
	CumulativeRewardAmount *uint256.Int
}

func (*RewardRequest) Type() RequestType { return TypeReward }

func (r *RewardRequest) Validate() error {
	return validateAmount(r.CumulativeRewardAmount)
}

// AccountAmount is a payout of Amount to Account.
type AccountAmount struct {
	Account common.Address
	Amount  *uint256.Int
}

// PenaltyRequest records a penalty against a validator and distributes the
// collected amount to Collectors.
type PenaltyRequest struct {
	Validator   common.Address
	Nonce       uint64
	SlashFactor uint64
	ExpireTime  uint64
	JailPeriod  uint64
	Collectors  []AccountAmount
}

func (*PenaltyRequest) Type() RequestType { return TypePenalty }

func (r *PenaltyRequest) Validate() error {
	for _, c := range r.Collectors {
		if err := validateAmount(c.Amount); err != nil {
			return err
		}
	}
	return nil
}

func validateAmount(a *uint256.Int) error {
	if a == nil {
		return ErrInvalidField.Errorf("missing amount")
	}
	return nil
}
