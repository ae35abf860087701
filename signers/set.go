// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package signers

import (
	"bytes"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"

	"github.com/luxfi/xbridge"
	"github.com/luxfi/xbridge/codec"
)

// Signer is a member of a signer set.
type Signer struct {
	Addr  common.Address
	Power *uint256.Int
}

// Set is a weighted signer set in strictly ascending address order.
type Set struct {
	signers []Signer
	index   map[common.Address]int
	total   *uint256.Int
}

// NewSet validates and builds a signer set. Addresses must be strictly
// ascending, which also rules out duplicates and the zero address.
func NewSet(addrs []common.Address, powers []*uint256.Int) (*Set, error) {
	if len(addrs) != len(powers) {
		return nil, ErrLengthMismatch.Errorf("%d signers, %d powers", len(addrs), len(powers))
	}
	if len(addrs) == 0 {
		return nil, ErrEmptySignerSet
	}

	s := &Set{
		signers: make([]Signer, len(addrs)),
		index:   make(map[common.Address]int, len(addrs)),
		total:   new(uint256.Int),
	}
	var prev common.Address
	for i, addr := range addrs {
		if bytes.Compare(addr[:], prev[:]) <= 0 {
			return nil, ErrNewSignersNotAscending.Errorf("index %d", i)
		}
		prev = addr

		power := xbridge.Amount(powers[i])
		total, err := xbridge.AddUint256(s.total, power)
		if err != nil {
			return nil, ErrPowerOverflow
		}
		s.total = total
		s.signers[i] = Signer{Addr: addr, Power: new(uint256.Int).Set(power)}
		s.index[addr] = i
	}
	if _, overflow := new(uint256.Int).MulOverflow(s.total, uint256.NewInt(2)); overflow {
		return nil, ErrPowerOverflow
	}
	return s, nil
}

// Quorum returns totalPower*2/3 + 1.
func (s *Set) Quorum() *uint256.Int {
	return Quorum(s.total)
}

// Quorum returns the minimum signed power for total: strictly more than
// two thirds.
func Quorum(total *uint256.Int) *uint256.Int {
	q := new(uint256.Int).Mul(total, uint256.NewInt(2))
	q.Div(q, uint256.NewInt(3))
	return q.AddUint64(q, 1)
}

// TotalPower returns the sum of all powers.
func (s *Set) TotalPower() *uint256.Int {
	return new(uint256.Int).Set(s.total)
}

// Power returns the power of addr.
func (s *Set) Power(addr common.Address) (*uint256.Int, bool) {
	i, ok := s.index[addr]
	if !ok {
		return nil, false
	}
	return s.signers[i].Power, true
}

func (s *Set) Len() int {
	return len(s.signers)
}

// Signers returns the members in ascending address order.
func (s *Set) Signers() []Signer {
	out := make([]Signer, len(s.signers))
	copy(out, s.signers)
	return out
}

func (s *Set) Addresses() []common.Address {
	out := make([]common.Address, len(s.signers))
	for i, sg := range s.signers {
		out[i] = sg.Addr
	}
	return out
}

func (s *Set) Powers() []*uint256.Int {
	out := make([]*uint256.Int, len(s.signers))
	for i, sg := range s.signers {
		out[i] = new(uint256.Int).Set(sg.Power)
	}
	return out
}

// Commitment returns the hash the registry stores for this set.
func (s *Set) Commitment() common.Hash {
	return Commitment(s.Addresses(), s.Powers())
}

// Commitment returns keccak256 of the packed address and power arrays.
func Commitment(addrs []common.Address, powers []*uint256.Int) common.Hash {
	return codec.NewPacker().AddressArray(addrs).Uint256Array(powers).Keccak()
}
