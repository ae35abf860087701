// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

// Package roles keeps the owner, governor and pauser tables of a bridge
// component together with its pause flag.
package roles

import (
	"bytes"
	"slices"

	"github.com/luxfi/geth/common"
	"github.com/luxfi/math/set"
	"go.uber.org/zap"

	"github.com/luxfi/xbridge"
	"github.com/luxfi/xbridge/state"
)

var (
	ErrNotOwner      = xbridge.NewError(xbridge.KindAuthorization, "Caller is not owner")
	ErrNotGovernor   = xbridge.NewError(xbridge.KindAuthorization, "Caller is not governor")
	ErrNotPauser     = xbridge.NewError(xbridge.KindAuthorization, "Caller is not pauser")
	ErrZeroOwner     = xbridge.NewError(xbridge.KindState, "Ownable: new owner is the zero address")
	ErrAlreadyMember = xbridge.NewError(xbridge.KindState, "Account already has role")
	ErrNotMember     = xbridge.NewError(xbridge.KindState, "Account does not have role")
	ErrUnknownRole   = xbridge.NewError(xbridge.KindState, "unknown role")
	ErrPaused        = xbridge.NewError(xbridge.KindState, "Pausable: paused")
	ErrNotPaused     = xbridge.NewError(xbridge.KindState, "Pausable: not paused")
	ErrNoOwner       = xbridge.NewError(xbridge.KindState, "owner not set")
)

// Role is an authorization role.
type Role uint8

const (
	Owner Role = iota + 1
	Governor
	Pauser
)

func (r Role) String() string {
	switch r {
	case Owner:
		return "Owner"
	case Governor:
		return "Governor"
	case Pauser:
		return "Pauser"
	default:
		return "Unknown"
	}
}

func (r Role) err() error {
	switch r {
	case Owner:
		return ErrNotOwner
	case Governor:
		return ErrNotGovernor
	case Pauser:
		return ErrNotPauser
	default:
		return ErrUnknownRole
	}
}

// Table is a role table stored under a key prefix of a state.Store.
type Table struct {
	prefix []byte
	logger *zap.Logger
}

// New returns the role table stored under prefix.
func New(prefix string, logger *zap.Logger) *Table {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Table{
		prefix: []byte(prefix + "/roles/"),
		logger: logger,
	}
}

func (t *Table) key(parts ...string) []byte {
	k := slices.Clone(t.prefix)
	for _, p := range parts {
		k = append(k, p...)
	}
	return k
}

// Init sets the owner. The owner starts out as governor and pauser, as a
// freshly deployed contract would.
func (t *Table) Init(kv state.KV, owner common.Address) error {
	if owner == (common.Address{}) {
		return ErrZeroOwner
	}
	kv.Put(t.key("owner"), owner.Bytes())
	kv.Emit(OwnershipTransferred{NewOwner: owner})
	for _, r := range []Role{Governor, Pauser} {
		if err := t.add(kv, r, owner); err != nil {
			return err
		}
	}
	return nil
}

// Owner returns the current owner.
func (t *Table) Owner(rd state.Reader) (common.Address, error) {
	b, ok, err := rd.Get(t.key("owner"))
	if err != nil {
		return common.Address{}, err
	}
	if !ok {
		return common.Address{}, ErrNoOwner
	}
	return common.BytesToAddress(b), nil
}

// Members returns the accounts holding r.
func (t *Table) Members(rd state.Reader, r Role) (set.Set[common.Address], error) {
	if r == Owner {
		owner, err := t.Owner(rd)
		if err != nil {
			return nil, err
		}
		return set.Of(owner), nil
	}
	var list []common.Address
	if _, err := state.GetRLP(rd, t.key("members/", r.String()), &list); err != nil {
		return nil, err
	}
	return set.Of(list...), nil
}

// Has reports whether account holds r.
func (t *Table) Has(rd state.Reader, r Role, account common.Address) (bool, error) {
	members, err := t.Members(rd, r)
	if err != nil {
		return false, err
	}
	return members.Contains(account), nil
}

// Require fails with r's authorization error unless caller holds r.
func (t *Table) Require(rd state.Reader, caller common.Address, r Role) error {
	ok, err := t.Has(rd, r, caller)
	if err != nil {
		return err
	}
	if !ok {
		return r.err()
	}
	return nil
}

// TransferOwnership moves ownership from caller to newOwner.
func (t *Table) TransferOwnership(kv state.KV, caller, newOwner common.Address) error {
	if err := t.Require(kv, caller, Owner); err != nil {
		return err
	}
	if newOwner == (common.Address{}) {
		return ErrZeroOwner
	}
	kv.Put(t.key("owner"), newOwner.Bytes())
	kv.Emit(OwnershipTransferred{PreviousOwner: caller, NewOwner: newOwner})
	t.logger.Info("Transferred ownership",
		zap.Stringer("previous", caller),
		zap.Stringer("owner", newOwner),
	)
	return nil
}

// Grant gives account the governor or pauser role. Owner only.
func (t *Table) Grant(kv state.KV, caller common.Address, r Role, account common.Address) error {
	if err := t.Require(kv, caller, Owner); err != nil {
		return err
	}
	return t.add(kv, r, account)
}

// Revoke takes the governor or pauser role from account. Owner only.
func (t *Table) Revoke(kv state.KV, caller common.Address, r Role, account common.Address) error {
	if err := t.Require(kv, caller, Owner); err != nil {
		return err
	}
	return t.remove(kv, r, account)
}

// Renounce drops caller's own governor or pauser role.
func (t *Table) Renounce(kv state.KV, caller common.Address, r Role) error {
	return t.remove(kv, r, caller)
}

func (t *Table) add(kv state.KV, r Role, account common.Address) error {
	if r != Governor && r != Pauser {
		return ErrUnknownRole.Errorf("%s", r)
	}
	members, err := t.Members(kv, r)
	if err != nil {
		return err
	}
	if members.Contains(account) {
		return ErrAlreadyMember.Errorf("%s is already %s", account, r)
	}
	members.Add(account)
	if err := t.store(kv, r, members); err != nil {
		return err
	}
	kv.Emit(RoleAdded{Role: r, Account: account})
	t.logger.Info("Added role", zap.Stringer("role", r), zap.Stringer("account", account))
	return nil
}

func (t *Table) remove(kv state.KV, r Role, account common.Address) error {
	if r != Governor && r != Pauser {
		return ErrUnknownRole.Errorf("%s", r)
	}
	members, err := t.Members(kv, r)
	if err != nil {
		return err
	}
	if !members.Contains(account) {
		return ErrNotMember.Errorf("%s is not %s", account, r)
	}
	members.Remove(account)
	if err := t.store(kv, r, members); err != nil {
		return err
	}
	kv.Emit(RoleRemoved{Role: r, Account: account})
	t.logger.Info("Removed role", zap.Stringer("role", r), zap.Stringer("account", account))
	return nil
}

// store writes members sorted so the encoding does not depend on map order.
func (t *Table) store(kv state.KV, r Role, members set.Set[common.Address]) error {
	list := members.List()
	slices.SortFunc(list, func(a, b common.Address) int {
		return bytes.Compare(a[:], b[:])
	})
	return state.PutRLP(kv, t.key("members/", r.String()), list)
}

// Paused reports whether the component is paused.
func (t *Table) Paused(rd state.Reader) (bool, error) {
	return state.Has(rd, t.key("paused"))
}

// RequireNotPaused fails with ErrPaused while paused.
func (t *Table) RequireNotPaused(rd state.Reader) error {
	paused, err := t.Paused(rd)
	if err != nil {
		return err
	}
	if paused {
		return ErrPaused
	}
	return nil
}

// Pause pauses the component. Pauser only.
func (t *Table) Pause(kv state.KV, caller common.Address) error {
	if err := t.Require(kv, caller, Pauser); err != nil {
		return err
	}
	if err := t.RequireNotPaused(kv); err != nil {
		return err
	}
	state.SetFlag(kv, t.key("paused"))
	kv.Emit(Paused{Account: caller})
	t.logger.Warn("Paused", zap.Stringer("by", caller))
	return nil
}

// Unpause lifts a pause. Pauser only.
func (t *Table) Unpause(kv state.KV, caller common.Address) error {
	if err := t.Require(kv, caller, Pauser); err != nil {
		return err
	}
	paused, err := t.Paused(kv)
	if err != nil {
		return err
	}
	if !paused {
		return ErrNotPaused
	}
	kv.Delete(t.key("paused"))
	kv.Emit(Unpaused{Account: caller})
	t.logger.Info("Unpaused", zap.Stringer("by", caller))
	return nil
}
