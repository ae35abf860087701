// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"context"
	"errors"
	"testing"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/ethdb/memorydb"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/xbridge"
)

type testEvent struct{ name string }

func (e testEvent) EventName() string { return e.name }

type record struct {
	Amount *uint256.Int
	Done   bool
}

func TestUpdateCommitsAtomically(t *testing.T) {
	require := require.New(t)

	log := xbridge.NewEventLog()
	s := NewMemoryStore("test", log)

	err := s.Update(func(kv KV) error {
		kv.Put([]byte("a"), []byte{1})
		kv.Emit(testEvent{"A"})
		v, ok, err := kv.Get([]byte("a"))
		require.NoError(err)
		require.True(ok)
		require.Equal([]byte{1}, v)
		return nil
	})
	require.NoError(err)
	require.Len(log.Events(), 1)

	failure := errors.New("boom")
	err = s.Update(func(kv KV) error {
		kv.Put([]byte("b"), []byte{2})
		kv.Delete([]byte("a"))
		kv.Emit(testEvent{"B"})
		return failure
	})
	require.ErrorIs(err, failure)
	require.Len(log.Events(), 1)

	require.NoError(s.View(func(r Reader) error {
		ok, err := Has(r, []byte("a"))
		require.NoError(err)
		require.True(ok)
		ok, err = Has(r, []byte("b"))
		require.NoError(err)
		require.False(ok)
		return nil
	}))
}

func TestDeleteWithinTx(t *testing.T) {
	require := require.New(t)

	s := NewMemoryStore("test", nil)
	require.NoError(s.Update(func(kv KV) error {
		SetFlag(kv, []byte("k"))
		return nil
	}))
	require.NoError(s.Update(func(kv KV) error {
		kv.Delete([]byte("k"))
		ok, err := Has(kv, []byte("k"))
		require.NoError(err)
		require.False(ok)
		return nil
	}))
	require.NoError(s.View(func(r Reader) error {
		ok, err := Has(r, []byte("k"))
		require.NoError(err)
		require.False(ok)
		return nil
	}))
}

func TestNamespaces(t *testing.T) {
	require := require.New(t)

	db := memorydb.New()
	a := NewStore(db, "a", nil)
	b := NewStore(db, "b", nil)

	require.NoError(a.Update(func(kv KV) error {
		return PutRLP(kv, []byte("rec"), &record{Amount: uint256.NewInt(5), Done: true})
	}))
	require.NoError(b.View(func(r Reader) error {
		var rec record
		ok, err := GetRLP(r, []byte("rec"), &rec)
		require.NoError(err)
		require.False(ok)
		return nil
	}))
	require.NoError(a.View(func(r Reader) error {
		var rec record
		ok, err := GetRLP(r, []byte("rec"), &rec)
		require.NoError(err)
		require.True(ok)
		require.Equal(uint256.NewInt(5), rec.Amount)
		require.True(rec.Done)
		return nil
	}))
}

func TestInit(t *testing.T) {
	require := require.New(t)

	s := NewMemoryStore("test", nil)
	ok, err := s.Initialized()
	require.NoError(err)
	require.False(ok)

	badGenesis := errors.New("bad genesis")
	require.ErrorIs(s.Init(func(KV) error { return badGenesis }), badGenesis)
	ok, err = s.Initialized()
	require.NoError(err)
	require.False(ok)

	require.NoError(s.Init(func(kv KV) error { return nil }))
	require.ErrorIs(s.Init(func(KV) error { return nil }), ErrInitialized)
}

func TestTxClosed(t *testing.T) {
	require := require.New(t)

	s := NewMemoryStore("test", nil)
	tx := s.begin()
	require.NoError(tx.Commit())
	require.ErrorIs(tx.Commit(), ErrTxClosed)
}

func TestOnCommitRunsAfterCommitOnly(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantRun int
	}{
		{name: "committed", wantRun: 1},
		{name: "discarded", err: errors.New("rejected"), wantRun: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)

			s := NewMemoryStore("test", nil)
			runs := 0
			err := s.Update(func(kv KV) error {
				kv.Put([]byte("a"), []byte{1})
				kv.OnCommit(func() { runs++ })
				require.Zero(runs)
				return tt.err
			})
			require.ErrorIs(err, tt.err)
			require.Equal(tt.wantRun, runs)
		})
	}
}

func TestUpdateContextNested(t *testing.T) {
	failure := errors.New("inner failed")
	tests := []struct {
		name       string
		innerErr   error
		outerErr   error
		wantInner  bool
		wantOuter  bool
		wantEvents int
		wantHooks  int
	}{
		{name: "both commit", wantInner: true, wantOuter: true, wantEvents: 2, wantHooks: 2},
		{name: "inner rolled back", innerErr: failure, wantOuter: true, wantEvents: 1, wantHooks: 1},
		{name: "outer rolled back", outerErr: failure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)

			log := xbridge.NewEventLog()
			s := NewMemoryStore("test", log)
			hooks := 0
			err := s.UpdateContext(context.Background(), func(ctx context.Context, kv KV) error {
				kv.Put([]byte("outer"), []byte{1})
				kv.Emit(testEvent{"Outer"})
				kv.OnCommit(func() { hooks++ })

				err := s.UpdateContext(ctx, func(ctx context.Context, kv KV) error {
					ok, err := Has(kv, []byte("outer"))
					require.NoError(err)
					require.True(ok)
					kv.Put([]byte("inner"), []byte{2})
					kv.Emit(testEvent{"Inner"})
					kv.OnCommit(func() { hooks++ })
					return tt.innerErr
				})
				require.ErrorIs(err, tt.innerErr)

				// reads made with the transition ctx see its pending writes
				require.NoError(s.ViewContext(ctx, func(r Reader) error {
					ok, err := Has(r, []byte("inner"))
					require.NoError(err)
					require.Equal(tt.innerErr == nil, ok)
					return nil
				}))
				return tt.outerErr
			})
			require.ErrorIs(err, tt.outerErr)
			require.Len(log.Events(), tt.wantEvents)
			require.Equal(tt.wantHooks, hooks)

			require.NoError(s.ViewContext(context.Background(), func(r Reader) error {
				ok, err := Has(r, []byte("outer"))
				require.NoError(err)
				require.Equal(tt.wantOuter, ok)
				ok, err = Has(r, []byte("inner"))
				require.NoError(err)
				require.Equal(tt.wantInner, ok)
				return nil
			}))
		})
	}
}
