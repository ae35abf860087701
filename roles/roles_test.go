// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package roles

import (
	"testing"

	"github.com/luxfi/geth/common"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/xbridge"
	"github.com/luxfi/xbridge/state"
)

var (
	owner    = common.HexToAddress("0x0a")
	alice    = common.HexToAddress("0x0b")
	mallory  = common.HexToAddress("0x0c")
	newOwner = common.HexToAddress("0x0d")
)

func newTable(t *testing.T) (*Table, *state.Store, *xbridge.EventLog) {
	log := xbridge.NewEventLog()
	store := state.NewMemoryStore("test", log)
	table := New("bridge", nil)
	require.NoError(t, store.Update(func(kv state.KV) error {
		return table.Init(kv, owner)
	}))
	return table, store, log
}

func TestRequire(t *testing.T) {
	table, store, _ := newTable(t)

	tests := []struct {
		name     string
		caller   common.Address
		role     Role
		expected error
	}{
		{name: "owner", caller: owner, role: Owner},
		{name: "owner is governor", caller: owner, role: Governor},
		{name: "owner is pauser", caller: owner, role: Pauser},
		{name: "not owner", caller: mallory, role: Owner, expected: ErrNotOwner},
		{name: "not governor", caller: mallory, role: Governor, expected: ErrNotGovernor},
		{name: "not pauser", caller: mallory, role: Pauser, expected: ErrNotPauser},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)

			err := store.View(func(r state.Reader) error {
				return table.Require(r, tt.caller, tt.role)
			})
			require.ErrorIs(err, tt.expected)
			if tt.expected != nil {
				require.Equal(xbridge.KindAuthorization, xbridge.KindOf(err))
			}
		})
	}
}

func TestGrantRevoke(t *testing.T) {
	require := require.New(t)

	table, store, log := newTable(t)
	update := func(fn func(kv state.KV) error) error { return store.Update(fn) }

	require.ErrorIs(update(func(kv state.KV) error {
		return table.Grant(kv, mallory, Governor, mallory)
	}), ErrNotOwner)

	require.NoError(update(func(kv state.KV) error {
		return table.Grant(kv, owner, Governor, alice)
	}))
	require.Equal(RoleAdded{Role: Governor, Account: alice}, log.Last())
	require.Equal("GovernorAdded", log.Last().EventName())

	require.ErrorIs(update(func(kv state.KV) error {
		return table.Grant(kv, owner, Governor, alice)
	}), ErrAlreadyMember)
	require.ErrorIs(update(func(kv state.KV) error {
		return table.Grant(kv, owner, Owner, alice)
	}), ErrUnknownRole)

	require.NoError(store.View(func(r state.Reader) error {
		members, err := table.Members(r, Governor)
		require.Equal(2, members.Len())
		require.True(members.Contains(alice))
		return err
	}))

	require.NoError(update(func(kv state.KV) error {
		return table.Revoke(kv, owner, Governor, alice)
	}))
	require.Equal("GovernorRemoved", log.Last().EventName())
	require.ErrorIs(update(func(kv state.KV) error {
		return table.Revoke(kv, owner, Governor, alice)
	}), ErrNotMember)

	require.NoError(update(func(kv state.KV) error {
		return table.Renounce(kv, owner, Pauser)
	}))
	require.ErrorIs(store.View(func(r state.Reader) error {
		return table.Require(r, owner, Pauser)
	}), ErrNotPauser)
}

func TestTransferOwnership(t *testing.T) {
	require := require.New(t)

	table, store, log := newTable(t)

	require.ErrorIs(store.Update(func(kv state.KV) error {
		return table.TransferOwnership(kv, mallory, mallory)
	}), ErrNotOwner)
	require.ErrorIs(store.Update(func(kv state.KV) error {
		return table.TransferOwnership(kv, owner, common.Address{})
	}), ErrZeroOwner)

	require.NoError(store.Update(func(kv state.KV) error {
		return table.TransferOwnership(kv, owner, newOwner)
	}))
	require.Equal(OwnershipTransferred{PreviousOwner: owner, NewOwner: newOwner}, log.Last())

	require.NoError(store.View(func(r state.Reader) error {
		got, err := table.Owner(r)
		require.Equal(newOwner, got)
		return err
	}))
	require.ErrorIs(store.View(func(r state.Reader) error {
		return table.Require(r, owner, Owner)
	}), ErrNotOwner)
}

func TestPause(t *testing.T) {
	require := require.New(t)

	table, store, log := newTable(t)
	pause := func(caller common.Address) error {
		return store.Update(func(kv state.KV) error { return table.Pause(kv, caller) })
	}
	unpause := func(caller common.Address) error {
		return store.Update(func(kv state.KV) error { return table.Unpause(kv, caller) })
	}
	notPaused := func() error {
		return store.View(func(r state.Reader) error { return table.RequireNotPaused(r) })
	}

	require.NoError(notPaused())
	require.ErrorIs(unpause(owner), ErrNotPaused)
	require.ErrorIs(pause(mallory), ErrNotPauser)

	require.NoError(pause(owner))
	require.Equal(Paused{Account: owner}, log.Last())
	require.ErrorIs(notPaused(), ErrPaused)
	require.ErrorIs(pause(owner), ErrPaused)

	require.NoError(unpause(owner))
	require.Equal(EventUnpaused, log.Last().EventName())
	require.NoError(notPaused())
}

func TestInitZeroOwner(t *testing.T) {
	store := state.NewMemoryStore("test", nil)
	err := store.Update(func(kv state.KV) error {
		return New("bridge", nil).Init(kv, common.Address{})
	})
	require.ErrorIs(t, err, ErrZeroOwner)
}
