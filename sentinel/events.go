// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package sentinel

import "github.com/luxfi/geth/common"

const (
	EventGuardUpdated          = "GuardUpdated"
	EventRelaxStatusUpdated    = "RelaxStatusUpdated"
	EventRelaxThresholdUpdated = "RelaxThresholdUpdated"
	EventPauserUpdated         = "PauserUpdated"
	EventFailed                = "Failed"
)

type GuardUpdated struct {
	Account common.Address
	State   GuardState
}

func (GuardUpdated) EventName() string { return EventGuardUpdated }

type RelaxStatusUpdated struct {
	Relaxed bool
}

func (RelaxStatusUpdated) EventName() string { return EventRelaxStatusUpdated }

type RelaxThresholdUpdated struct {
	Threshold uint64
	Total     uint64
}

func (RelaxThresholdUpdated) EventName() string { return EventRelaxThresholdUpdated }

type PauserUpdated struct {
	Account common.Address
	Type    PauserType
}

func (PauserUpdated) EventName() string { return EventPauserUpdated }

// Failed reports a target call that failed during a multi-target pause or
// unpause.
type Failed struct {
	Target common.Address
	Reason string
}

func (Failed) EventName() string { return EventFailed }
