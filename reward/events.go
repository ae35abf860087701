// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package reward

import (
	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"

	"github.com/luxfi/xbridge/codec"
)

const (
	EventStakingRewardClaimed   = "StakingRewardClaimed"
	EventRewardPoolContribution = "StakingRewardContributed"
	EventPenaltyApplied         = "PenaltyApplied"
)

// RewardClaimed is emitted as StakingRewardClaimed.
type RewardClaimed struct {
	Recipient common.Address
	Reward    *uint256.Int
}

func (RewardClaimed) EventName() string { return EventStakingRewardClaimed }

type RewardPoolContribution struct {
	Contributor common.Address
	Amount      *uint256.Int
}

func (RewardPoolContribution) EventName() string { return EventRewardPoolContribution }

type PenaltyApplied struct {
	Validator   common.Address
	Nonce       uint64
	SlashFactor uint64
	JailPeriod  uint64
	Collectors  []codec.AccountAmount
}

func (PenaltyApplied) EventName() string { return EventPenaltyApplied }
