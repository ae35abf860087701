// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package signers

import (
	"context"
	"testing"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/stretchr/testify/require"
)

func aggregatorSet(t *testing.T) *Set {
	t.Helper()
	live, err := NewSet(
		[]common.Address{addrA, addrB, addrC, addrD},
		[]*uint256.Int{uint256.NewInt(10), uint256.NewInt(20), uint256.NewInt(30), uint256.NewInt(40)},
	)
	require.NoError(t, err)
	return live
}

func TestAggregatorAdd(t *testing.T) {
	require := require.New(t)
	live := aggregatorSet(t)
	digest := common.HexToHash("0x01")
	agg := NewAggregator(mockRecoverer, digest, live, nil)

	// Quorum is 100*2/3+1 = 67.
	addr, err := agg.Add(addrD[:])
	require.NoError(err)
	require.Equal(addrD, addr)
	require.False(agg.QuorumReached())

	_, err = agg.Add(addrD[:])
	require.ErrorIs(err, ErrDuplicateSignature)
	_, err = agg.Add(common.HexToAddress("0x99").Bytes())
	require.ErrorIs(err, ErrSignerNotFound)
	_, err = agg.Add([]byte{1})
	require.ErrorIs(err, ErrInvalidSignature)

	_, err = agg.Add(addrA[:])
	require.NoError(err)
	require.Equal(uint64(50), agg.Power().Uint64())
	_, err = agg.Add(addrC[:])
	require.NoError(err)
	require.True(agg.QuorumReached())

	b := agg.Bundle()
	require.Equal([]common.Address{addrA, addrC, addrD}, b.Signers)
	require.Equal([][]byte{addrA.Bytes(), addrC.Bytes(), addrD.Bytes()}, b.Sigs)
	require.NoError(Verify(mockRecoverer, digest, b, live))
}

func TestAggregatorCollect(t *testing.T) {
	live := aggregatorSet(t)

	tests := []struct {
		name   string
		sigs   []common.Address
		signed uint64
		err    error
	}{
		{
			name:   "stops at quorum",
			sigs:   []common.Address{addrC, addrC, addrD, addrA},
			signed: 70,
		},
		{
			name:   "closed short of quorum",
			sigs:   []common.Address{addrA, addrB},
			signed: 30,
			err:    ErrQuorumNotReached,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)
			agg := NewAggregator(mockRecoverer, common.Hash{}, live, nil)
			sigs := make(chan []byte, len(tt.sigs))
			for _, a := range tt.sigs {
				sigs <- a.Bytes()
			}
			close(sigs)

			_, err := agg.Collect(context.Background(), sigs)
			require.ErrorIs(err, tt.err)
			require.Equal(tt.signed, agg.Power().Uint64())
		})
	}
}

func TestAggregatorCollectCanceled(t *testing.T) {
	require := require.New(t)
	agg := NewAggregator(mockRecoverer, common.Hash{}, aggregatorSet(t), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	b, err := agg.Collect(ctx, make(chan []byte))
	require.ErrorIs(err, ErrQuorumNotReached)
	require.Empty(b.Sigs)
}
