// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package signers

import (
	"errors"
	"testing"

	"github.com/holiman/uint256"
	"github.com/luxfi/crypto"
	"github.com/luxfi/geth/common"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/xbridge"
)

var (
	addrA = common.HexToAddress("0x01")
	addrB = common.HexToAddress("0x02")
	addrC = common.HexToAddress("0x03")
	addrD = common.HexToAddress("0x04")
)

// mockRecoverer treats a signature as the address that made it.
var mockRecoverer = RecoverFunc(func(_ common.Hash, sig []byte) (common.Address, error) {
	if len(sig) != common.AddressLength {
		return common.Address{}, ErrInvalidSignature
	}
	return common.BytesToAddress(sig), nil
})

func mockSig(a common.Address) []byte {
	return append([]byte{}, a[:]...)
}

func powers(ps ...uint64) []*uint256.Int {
	out := make([]*uint256.Int, len(ps))
	for i, p := range ps {
		out[i] = uint256.NewInt(p)
	}
	return out
}

func abcSet(t *testing.T) *Set {
	set, err := NewSet([]common.Address{addrA, addrB, addrC}, powers(10, 10, 10))
	require.NoError(t, err)
	return set
}

func TestVerify(t *testing.T) {
	full := []common.Address{addrA, addrB, addrC}

	tests := []struct {
		name     string
		sigs     []common.Address
		signers  []common.Address
		powers   []*uint256.Int
		expected error
	}{
		{
			name:    "ordered quorum",
			sigs:    []common.Address{addrA, addrB, addrC},
			signers: []common.Address{addrA, addrB, addrC},
			powers:  powers(10, 10, 10),
		},
		{
			name:     "ordered below quorum",
			sigs:     []common.Address{addrA, addrB},
			signers:  []common.Address{addrA, addrB},
			powers:   powers(10, 10),
			expected: ErrQuorumNotReached,
		},
		{
			name:     "unordered below quorum",
			sigs:     []common.Address{addrC, addrA},
			signers:  []common.Address{addrC, addrA},
			powers:   powers(10, 10),
			expected: ErrSignersNotAscending,
		},
		{
			name:     "unordered pair",
			sigs:     []common.Address{addrB, addrA},
			signers:  []common.Address{addrB, addrA},
			powers:   powers(10, 10),
			expected: ErrSignersNotAscending,
		},
		{
			name:     "unordered with enough power",
			sigs:     []common.Address{addrC, addrA, addrB},
			signers:  []common.Address{addrC, addrA, addrB},
			powers:   powers(10, 10, 10),
			expected: ErrSignersNotAscending,
		},
		{
			name:     "signatures unordered against full set",
			sigs:     []common.Address{addrC, addrA, addrB},
			signers:  full,
			powers:   powers(10, 10, 10),
			expected: ErrSignersNotAscending,
		},
		{
			name:     "duplicate claimed signer",
			sigs:     []common.Address{addrA, addrA, addrB},
			signers:  []common.Address{addrA, addrA, addrB},
			powers:   powers(10, 10, 10),
			expected: ErrSignersNotAscending,
		},
		{
			name:     "duplicate signature",
			sigs:     []common.Address{addrA, addrA, addrB},
			signers:  full,
			powers:   powers(10, 10, 10),
			expected: ErrSignersNotAscending,
		},
		{
			name:     "forged power",
			sigs:     []common.Address{addrA, addrB},
			signers:  []common.Address{addrA, addrB},
			powers:   powers(20, 10),
			expected: ErrPowerMismatch,
		},
		{
			name:     "claimed signer not live",
			sigs:     []common.Address{addrA, addrB, addrD},
			signers:  []common.Address{addrA, addrB, addrD},
			powers:   powers(10, 10, 10),
			expected: ErrSignerNotFound,
		},
		{
			name:     "signature from outsider",
			sigs:     []common.Address{addrA, addrB, addrD},
			signers:  full,
			powers:   powers(10, 10, 10),
			expected: ErrSignerNotFound,
		},
		{
			name:     "signature not matching claim",
			sigs:     []common.Address{addrA, addrC},
			signers:  []common.Address{addrA, addrB},
			powers:   powers(10, 10),
			expected: ErrSignerNotFound,
		},
		{
			name:     "two of full set",
			sigs:     []common.Address{addrA, addrC},
			signers:  full,
			powers:   powers(10, 10, 10),
			expected: ErrQuorumNotReached,
		},
		{
			name:    "three of full set",
			sigs:    []common.Address{addrA, addrB, addrC},
			signers: full,
			powers:  powers(10, 10, 10),
		},
		{
			name:     "no signatures",
			signers:  full,
			powers:   powers(10, 10, 10),
			expected: ErrQuorumNotReached,
		},
		{
			name:     "length mismatch",
			sigs:     []common.Address{addrA},
			signers:  []common.Address{addrA},
			powers:   powers(10, 10),
			expected: ErrLengthMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)

			b := Bundle{Signers: tt.signers, Powers: tt.powers}
			for _, s := range tt.sigs {
				b.Sigs = append(b.Sigs, mockSig(s))
			}
			err := Verify(mockRecoverer, common.Hash{}, b, abcSet(t))
			require.ErrorIs(err, tt.expected)
			if tt.expected != nil {
				require.Equal(xbridge.KindAuthentication, xbridge.KindOf(err))
			}
		})
	}
}

func TestVerifyRecoveryError(t *testing.T) {
	require := require.New(t)

	b := Bundle{
		Sigs:    [][]byte{{0x01}},
		Signers: []common.Address{addrA},
		Powers:  powers(10),
	}
	require.ErrorIs(Verify(mockRecoverer, common.Hash{}, b, abcSet(t)), ErrInvalidSignature)
}

func TestQuorumMonotonicity(t *testing.T) {
	addrs := []common.Address{addrA, addrB, addrC, addrD}
	weights := []uint64{1, 5, 7, 13}
	set, err := NewSet(addrs, powers(weights...))
	require.NoError(t, err)
	require.Equal(t, uint256.NewInt(18), set.Quorum())

	for mask := 0; mask < 1<<len(addrs); mask++ {
		var (
			b   Bundle
			sum uint64
		)
		for i, a := range addrs {
			if mask&(1<<i) == 0 {
				continue
			}
			b.Sigs = append(b.Sigs, mockSig(a))
			b.Signers = append(b.Signers, a)
			b.Powers = append(b.Powers, uint256.NewInt(weights[i]))
			sum += weights[i]
		}
		err := Verify(mockRecoverer, common.Hash{}, b, set)
		if sum >= 18 {
			require.NoError(t, err, "mask %b", mask)
		} else {
			require.ErrorIs(t, err, ErrQuorumNotReached, "mask %b", mask)
		}
	}
}

func TestVerifyWithKeys(t *testing.T) {
	require := require.New(t)

	var keys []*LocalSigner
	for i := 0; i < 3; i++ {
		s, err := GenerateLocalSigner()
		require.NoError(err)
		keys = append(keys, s)
	}
	SortByAddress(keys)
	set, err := NewSet(
		[]common.Address{keys[0].Address(), keys[1].Address(), keys[2].Address()},
		powers(10, 10, 10),
	)
	require.NoError(err)

	recoverer, err := NewEthRecoverer(16)
	require.NoError(err)

	digest := common.Keccak256Hash([]byte("relay"))
	b, err := NewBundle(digest, set, keys[2], keys[0], keys[1])
	require.NoError(err)
	require.Equal(set.Addresses(), b.Signers)
	require.NoError(Verify(recoverer, digest, b, set))
	// Served from the cache the second time.
	require.NoError(Verify(recoverer, digest, b, set))

	// A signature over another digest recovers to a stranger.
	other := common.Keccak256Hash([]byte("other"))
	require.ErrorIs(Verify(recoverer, other, b, set), ErrSignerNotFound)

	two, err := NewBundle(digest, set, keys[0], keys[1])
	require.NoError(err)
	require.ErrorIs(Verify(recoverer, digest, two, set), ErrQuorumNotReached)
}

func TestEthRecoverer(t *testing.T) {
	require := require.New(t)

	s, err := GenerateLocalSigner()
	require.NoError(err)
	r, err := NewEthRecoverer(0)
	require.NoError(err)

	digest := common.Keccak256Hash([]byte("digest"))
	sig, err := s.Sign(digest)
	require.NoError(err)
	require.GreaterOrEqual(sig[64], byte(27))

	addr, err := r.Recover(digest, sig)
	require.NoError(err)
	require.Equal(s.Address(), addr)

	raw := append([]byte{}, sig...)
	raw[64] -= 27
	addr, err = r.Recover(digest, raw)
	require.NoError(err)
	require.Equal(s.Address(), addr)

	_, err = r.Recover(digest, sig[:64])
	require.ErrorIs(err, ErrInvalidSignature)

	// Flip s to the upper half of the curve order.
	malleable := append([]byte{}, sig...)
	n := crypto.S256().Params().N
	sVal := new(uint256.Int).SetBytes(malleable[32:64])
	flipped := new(uint256.Int).Sub(uint256.MustFromBig(n), sVal)
	fb := flipped.Bytes32()
	copy(malleable[32:64], fb[:])
	_, err = r.Recover(digest, malleable)
	require.ErrorIs(err, ErrInvalidSignature)

	bad := append([]byte{}, sig...)
	bad[64] = 5
	_, err = r.Recover(digest, bad)
	require.True(errors.Is(err, ErrInvalidSignature))
}

func TestLocalSignerFromHex(t *testing.T) {
	require := require.New(t)

	s, err := NewLocalSignerFromHex("0000000000000000000000000000000000000000000000000000000000000001")
	require.NoError(err)
	require.Equal(common.HexToAddress("0x7E5F4552091A69125d5DfCb7b8C2659029395Bdf"), s.Address())

	digest := common.Keccak256Hash([]byte("relay"))
	sig, err := s.Sign(digest)
	require.NoError(err)
	require.Len(sig, SignatureLen)

	pub, err := crypto.SigToPub(digest[:], append(sig[:64:64], sig[64]-27))
	require.NoError(err)
	require.Equal(s.Address(), common.PubkeyToAddress(*pub))

	_, err = NewLocalSignerFromHex("zz")
	require.Error(err)
}

func TestNewSet(t *testing.T) {
	tests := []struct {
		name     string
		addrs    []common.Address
		powers   []*uint256.Int
		expected error
	}{
		{
			name:   "valid",
			addrs:  []common.Address{addrA, addrB},
			powers: powers(1, 2),
		},
		{
			name:     "empty",
			expected: ErrEmptySignerSet,
		},
		{
			name:     "length",
			addrs:    []common.Address{addrA},
			powers:   powers(1, 2),
			expected: ErrLengthMismatch,
		},
		{
			name:     "descending",
			addrs:    []common.Address{addrB, addrA},
			powers:   powers(1, 2),
			expected: ErrNewSignersNotAscending,
		},
		{
			name:     "duplicate",
			addrs:    []common.Address{addrA, addrA},
			powers:   powers(1, 2),
			expected: ErrNewSignersNotAscending,
		},
		{
			name:     "zero address",
			addrs:    []common.Address{{}},
			powers:   powers(1),
			expected: ErrNewSignersNotAscending,
		},
		{
			name:     "overflow",
			addrs:    []common.Address{addrA, addrB},
			powers:   []*uint256.Int{new(uint256.Int).SetAllOne(), uint256.NewInt(1)},
			expected: ErrPowerOverflow,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)

			set, err := NewSet(tt.addrs, tt.powers)
			require.ErrorIs(err, tt.expected)
			if tt.expected == nil {
				require.Equal(tt.addrs, set.Addresses())
				require.Equal(Commitment(tt.addrs, tt.powers), set.Commitment())
			}
		})
	}
}
