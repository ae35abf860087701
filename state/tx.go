// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"github.com/luxfi/xbridge"
)

type write struct {
	value   []byte
	deleted bool
}

// Tx buffers the writes, events and commit hooks of a single transition. A
// Tx opened inside another one reads through its parent and folds into it on
// commit.
type Tx struct {
	store  *Store
	parent *Tx
	writes map[string]write
	order  []string
	events []xbridge.Event
	hooks  []func()
	closed bool
}

func (s *Store) begin() *Tx {
	return &Tx{
		store:  s,
		writes: make(map[string]write),
	}
}

func (t *Tx) child() *Tx {
	c := t.store.begin()
	c.parent = t
	return c
}

// Get returns the value at key as seen by this transaction.
func (t *Tx) Get(key []byte) ([]byte, bool, error) {
	if w, ok := t.writes[string(key)]; ok {
		if w.deleted {
			return nil, false, nil
		}
		return w.value, true, nil
	}
	if t.parent != nil {
		return t.parent.Get(key)
	}
	return t.store.get(key)
}

func (t *Tx) Put(key, value []byte) {
	t.set(key, write{value: append([]byte{}, value...)})
}

func (t *Tx) Delete(key []byte) {
	t.set(key, write{deleted: true})
}

func (t *Tx) set(key []byte, w write) {
	k := string(key)
	if _, ok := t.writes[k]; !ok {
		t.order = append(t.order, k)
	}
	t.writes[k] = w
}

// Emit queues events for publication after commit.
func (t *Tx) Emit(events ...xbridge.Event) {
	t.events = append(t.events, events...)
}

// OnCommit queues fn to run once the outermost transaction has been
// written. Discarded transactions never run their hooks.
func (t *Tx) OnCommit(fn func()) {
	t.hooks = append(t.hooks, fn)
}

// Commit writes all buffered changes in one batch, publishes the queued
// events and runs the commit hooks. A nested transaction instead hands its
// buffers to its parent.
func (t *Tx) Commit() error {
	if t.closed {
		return ErrTxClosed
	}
	t.closed = true

	if t.parent != nil {
		t.parent.absorb(t)
		return nil
	}

	batch := t.store.db.NewBatch()
	for _, k := range t.order {
		w := t.writes[k]
		var err error
		if w.deleted {
			err = batch.Delete(t.store.key([]byte(k)))
		} else {
			err = batch.Put(t.store.key([]byte(k)), w.value)
		}
		if err != nil {
			return err
		}
	}
	if err := batch.Write(); err != nil {
		return err
	}
	if len(t.events) > 0 {
		t.store.sink.Publish(t.events...)
	}
	for _, fn := range t.hooks {
		fn()
	}
	return nil
}

func (t *Tx) absorb(c *Tx) {
	for _, k := range c.order {
		t.set([]byte(k), c.writes[k])
	}
	t.events = append(t.events, c.events...)
	t.hooks = append(t.hooks, c.hooks...)
}

// Discard drops all buffered changes, events and hooks.
func (t *Tx) Discard() {
	t.closed = true
	t.writes = nil
	t.order = nil
	t.events = nil
	t.hooks = nil
}
