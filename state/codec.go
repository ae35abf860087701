// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"fmt"

	"github.com/luxfi/geth/rlp"
)

// Key joins key parts.
func Key(parts ...[]byte) []byte {
	n := 0
	for _, p := range parts {
		n += len(p)
	}
	out := make([]byte, 0, n)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// GetRLP decodes the RLP value stored at key into v.
func GetRLP(r Reader, key []byte, v any) (bool, error) {
	b, ok, err := r.Get(key)
	if err != nil || !ok {
		return false, err
	}
	if err := rlp.DecodeBytes(b, v); err != nil {
		return false, fmt.Errorf("failed to decode %x: %w", key, err)
	}
	return true, nil
}

// PutRLP stores the RLP encoding of v at key.
func PutRLP(kv KV, key []byte, v any) error {
	b, err := rlp.EncodeToBytes(v)
	if err != nil {
		return fmt.Errorf("failed to encode %x: %w", key, err)
	}
	kv.Put(key, b)
	return nil
}

// Has reports whether key is set.
func Has(r Reader, key []byte) (bool, error) {
	_, ok, err := r.Get(key)
	return ok, err
}

// SetFlag marks key as set.
func SetFlag(kv KV, key []byte) {
	kv.Put(key, []byte{1})
}
