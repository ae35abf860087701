// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package xbridge

import (
	"errors"
	"math/big"
	"time"

	"github.com/holiman/uint256"
)

var (
	errAmountNegative = errors.New("amount is negative")
	errAmountOverflow = errors.New("amount overflows uint256")
)

// AddUint256 adds two uint256 values and returns an error on overflow.
func AddUint256(a, b *uint256.Int) (*uint256.Int, error) {
	sum, overflow := new(uint256.Int).AddOverflow(a, b)
	if overflow {
		return nil, errors.New("addition would overflow")
	}
	return sum, nil
}

// AmountFromBig converts a big.Int into a uint256, rejecting negative and
// oversized values.
func AmountFromBig(b *big.Int) (*uint256.Int, error) {
	if b == nil {
		return new(uint256.Int), nil
	}
	if b.Sign() < 0 {
		return nil, errAmountNegative
	}
	v, overflow := uint256.FromBig(b)
	if overflow {
		return nil, errAmountOverflow
	}
	return v, nil
}

// Amount returns x as a uint256 or zero when x is nil.
func Amount(x *uint256.Int) *uint256.Int {
	if x == nil {
		return new(uint256.Int)
	}
	return x
}

// Unix returns t as block-style seconds.
func Unix(t time.Time) uint64 {
	s := t.Unix()
	if s < 0 {
		return 0
	}
	return uint64(s)
}
