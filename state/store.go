// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/luxfi/geth/ethdb"
	"github.com/luxfi/geth/ethdb/leveldb"
	"github.com/luxfi/geth/ethdb/memorydb"

	"github.com/luxfi/xbridge"
)

var (
	ErrTxClosed       = errors.New("transaction already closed")
	ErrNotInitialized = xbridge.NewError(xbridge.KindState, "store not initialized")
	ErrInitialized    = xbridge.NewError(xbridge.KindState, "store already initialized")

	initializedKey = []byte("initialized")
)

// Reader is a read-only view of a store.
type Reader interface {
	Get(key []byte) ([]byte, bool, error)
}

// KV is the state handle passed to every state transition. Writes and
// events are buffered until the enclosing transaction commits.
type KV interface {
	Reader
	Put(key, value []byte)
	Delete(key []byte)
	Emit(events ...xbridge.Event)
	OnCommit(fn func())
}

// Store is a namespaced view over a key-value database. All mutations run
// through Update, which serializes transitions and applies each one
// atomically.
type Store struct {
	mu        sync.RWMutex
	db        ethdb.KeyValueStore
	namespace []byte
	sink      xbridge.Sink
}

// NewStore creates a store that prefixes every key with namespace and
// publishes committed events to sink.
func NewStore(db ethdb.KeyValueStore, namespace string, sink xbridge.Sink) *Store {
	if sink == nil {
		sink = xbridge.NopSink
	}
	return &Store{
		db:        db,
		namespace: []byte(namespace + "/"),
		sink:      sink,
	}
}

// NewMemoryStore creates a store over a fresh in-memory database.
func NewMemoryStore(namespace string, sink xbridge.Sink) *Store {
	return NewStore(memorydb.New(), namespace, sink)
}

// OpenLevelDB opens (or creates) a LevelDB database at path.
func OpenLevelDB(path string, cacheMB, handles int) (ethdb.KeyValueStore, error) {
	db, err := leveldb.New(path, cacheMB, handles, "xbridge/db/", false)
	if err != nil {
		return nil, fmt.Errorf("failed to open leveldb at %s: %w", path, err)
	}
	return db, nil
}

// Init runs fn once over an uninitialized store and marks it initialized
// in the same commit.
func (s *Store) Init(fn func(kv KV) error) error {
	return s.Update(func(kv KV) error {
		_, ok, err := kv.Get(initializedKey)
		if err != nil {
			return err
		}
		if ok {
			return ErrInitialized
		}
		if err := fn(kv); err != nil {
			return err
		}
		kv.Put(initializedKey, []byte{1})
		return nil
	})
}

// Initialized reports whether Init has committed.
func (s *Store) Initialized() (bool, error) {
	var ok bool
	err := s.View(func(r Reader) error {
		var err error
		_, ok, err = r.Get(initializedKey)
		return err
	})
	return ok, err
}

// Update runs fn in a new transaction. The transaction commits when fn
// returns nil and is discarded otherwise, so a failed transition leaves no
// trace.
func (s *Store) Update(fn func(kv KV) error) error {
	return s.UpdateContext(context.Background(), func(_ context.Context, kv KV) error {
		return fn(kv)
	})
}

// View runs fn against the committed state.
func (s *Store) View(fn func(r Reader) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.begin())
}

type txKey struct{ store *Store }

// UpdateContext is Update for transitions that may re-enter the store. The
// ctx handed to fn carries the open transaction; an UpdateContext or
// ViewContext call made with it runs inside that transaction instead of
// waiting on the lock it holds. A nested transition that fails is rolled
// back alone, and one that succeeds only becomes durable when the outermost
// transition commits.
func (s *Store) UpdateContext(ctx context.Context, fn func(ctx context.Context, kv KV) error) error {
	if parent, ok := ctx.Value(txKey{s}).(*Tx); ok && !parent.closed {
		tx := parent.child()
		if err := fn(context.WithValue(ctx, txKey{s}, tx), tx); err != nil {
			tx.Discard()
			return err
		}
		return tx.Commit()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx := s.begin()
	if err := fn(context.WithValue(ctx, txKey{s}, tx), tx); err != nil {
		tx.Discard()
		return err
	}
	return tx.Commit()
}

// ViewContext runs fn against the transaction carried by ctx, or against the
// committed state when there is none.
func (s *Store) ViewContext(ctx context.Context, fn func(r Reader) error) error {
	if tx, ok := ctx.Value(txKey{s}).(*Tx); ok && !tx.closed {
		return fn(tx)
	}
	return s.View(fn)
}

func (s *Store) key(k []byte) []byte {
	out := make([]byte, 0, len(s.namespace)+len(k))
	out = append(out, s.namespace...)
	return append(out, k...)
}

func (s *Store) get(k []byte) ([]byte, bool, error) {
	key := s.key(k)
	ok, err := s.db.Has(key)
	if err != nil || !ok {
		return nil, false, err
	}
	v, err := s.db.Get(key)
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}
