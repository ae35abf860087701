// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package roles

import "github.com/luxfi/geth/common"

const (
	EventOwnershipTransferred = "OwnershipTransferred"
	EventPaused               = "Paused"
	EventUnpaused             = "Unpaused"
)

type OwnershipTransferred struct {
	PreviousOwner common.Address
	NewOwner      common.Address
}

func (OwnershipTransferred) EventName() string { return EventOwnershipTransferred }

// RoleAdded is emitted as GovernorAdded or PauserAdded.
type RoleAdded struct {
	Role    Role
	Account common.Address
}

func (e RoleAdded) EventName() string { return e.Role.String() + "Added" }

// RoleRemoved is emitted as GovernorRemoved or PauserRemoved.
type RoleRemoved struct {
	Role    Role
	Account common.Address
}

func (e RoleRemoved) EventName() string { return e.Role.String() + "Removed" }

type Paused struct {
	Account common.Address
}

func (Paused) EventName() string { return EventPaused }

type Unpaused struct {
	Account common.Address
}

func (Unpaused) EventName() string { return EventUnpaused }
