// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package xbridge

import (
	"errors"
	"fmt"
)

// Kind classifies why a state transition was rejected.
type Kind int32

const (
	KindUnknown Kind = iota
	KindEncoding
	KindAuthentication
	KindReplay
	KindRiskControl
	KindAuthorization
	KindTimelock
	KindState
)

func (k Kind) String() string {
	switch k {
	case KindEncoding:
		return "encoding"
	case KindAuthentication:
		return "authentication"
	case KindReplay:
		return "replay"
	case KindRiskControl:
		return "risk-control"
	case KindAuthorization:
		return "authorization"
	case KindTimelock:
		return "timelock"
	case KindState:
		return "state"
	default:
		return "unknown"
	}
}

// Error is a rejected transition. Message is the reason string surfaced to
// callers and is stable across releases.
type Error struct {
	Code    Kind
	Message string
}

// NewError returns a new sentinel error of the given kind.
func NewError(code Kind, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Error implements the error interface
func (e *Error) Error() string {
	return e.Message
}

// Errorf wraps e with additional context while keeping it matchable by
// errors.Is.
func (e *Error) Errorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", e, fmt.Sprintf(format, args...))
}

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return KindUnknown
}
