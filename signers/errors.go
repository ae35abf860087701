// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package signers

import "github.com/luxfi/xbridge"

var (
	ErrLengthMismatch         = xbridge.NewError(xbridge.KindAuthentication, "signers and powers length not match")
	ErrSignersNotAscending    = xbridge.NewError(xbridge.KindAuthentication, "signers not in ascending order")
	ErrSignerNotFound         = xbridge.NewError(xbridge.KindAuthentication, "signer not found")
	ErrPowerMismatch          = xbridge.NewError(xbridge.KindAuthentication, "signer power mismatch")
	ErrQuorumNotReached       = xbridge.NewError(xbridge.KindAuthentication, "quorum not reached")
	ErrInvalidSignature       = xbridge.NewError(xbridge.KindAuthentication, "invalid signature")
	ErrMismatchCurrentSigners = xbridge.NewError(xbridge.KindAuthentication, "mismatch current signers")

	ErrEmptySignerSet         = xbridge.NewError(xbridge.KindState, "empty signer set")
	ErrNewSignersNotAscending = xbridge.NewError(xbridge.KindState, "New signers not in ascending order")
	ErrPowerOverflow          = xbridge.NewError(xbridge.KindState, "total power overflow")
	ErrNoSigners              = xbridge.NewError(xbridge.KindState, "signers not initialized")

	ErrTriggerTimeNotIncreasing = xbridge.NewError(xbridge.KindTimelock, "Trigger time is not increasing")
	ErrTriggerTimeTooLarge      = xbridge.NewError(xbridge.KindTimelock, "Trigger time is too large")
	ErrResetNotReady            = xbridge.NewError(xbridge.KindTimelock, "not reach reset time")
	ErrNoticePeriodDecrease     = xbridge.NewError(xbridge.KindTimelock, "notice period can only be increased")
)
