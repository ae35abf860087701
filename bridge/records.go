// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package bridge

import (
	"github.com/luxfi/ids"

	"github.com/luxfi/xbridge/state"
)

// Record names a replay table.
type Record uint8

const (
	// RecordTransfer holds relayed transfers on a liquidity bridge.
	RecordTransfer Record = iota + 1
	// RecordWithdraw holds liquidity withdrawals and vault withdrawals.
	RecordWithdraw
	// RecordMint holds pegged mints.
	RecordMint
	// RecordSend holds outbound sends.
	RecordSend
	// RecordDeposit holds vault deposits.
	RecordDeposit
	// RecordBurn holds pegged burns.
	RecordBurn
)

func (r Record) String() string {
	switch r {
	case RecordTransfer:
		return "transfer"
	case RecordWithdraw:
		return "withdraw"
	case RecordMint:
		return "mint"
	case RecordSend:
		return "send"
	case RecordDeposit:
		return "deposit"
	case RecordBurn:
		return "burn"
	default:
		return "unknown"
	}
}

func recordKey(r Record, id ids.ID) []byte {
	return state.Key([]byte("bridge/records/"), []byte{byte(r)}, id[:])
}

// markRecorded records id in table r, failing with exists if it is there
// already.
func markRecorded(kv state.KV, r Record, id ids.ID, exists error) error {
	ok, err := state.Has(kv, recordKey(r, id))
	if err != nil {
		return err
	}
	if ok {
		return exists
	}
	state.SetFlag(kv, recordKey(r, id))
	return nil
}

func checkNotRecorded(rd state.Reader, r Record, id ids.ID, exists error) error {
	ok, err := state.Has(rd, recordKey(r, id))
	if err != nil {
		return err
	}
	if ok {
		return exists
	}
	return nil
}

// IsRecorded reports whether id is in table r.
func (b *Bridge) IsRecorded(r Record, id ids.ID) (bool, error) {
	var ok bool
	err := b.cfg.Store.View(func(rd state.Reader) error {
		var err error
		ok, err = state.Has(rd, recordKey(r, id))
		return err
	})
	return ok, err
}
