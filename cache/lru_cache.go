// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package cache

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// LRUCache memoizes results of a deterministic fetch. Only successful
// fetches are cached.
type LRUCache[K comparable, V any] struct {
	cache *lru.Cache[K, V]
}

// NewLRUCache creates a cache holding at most size entries.
func NewLRUCache[K comparable, V any](size int) (*LRUCache[K, V], error) {
	c, err := lru.New[K, V](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create lru cache: %w", err)
	}
	return &LRUCache[K, V]{cache: c}, nil
}

// Get returns the cached value for key, otherwise fetches it using fetchFunc.
// If [invalidate] is true, the value is cleared from the cache prior to
// fetching.
func (c *LRUCache[K, V]) Get(key K, fetchFunc func(K) (V, error), invalidate bool) (V, error) {
	if invalidate {
		c.cache.Remove(key)
	} else if value, found := c.cache.Get(key); found {
		return value, nil
	}

	newValue, err := fetchFunc(key)
	if err != nil {
		var zero V
		return zero, err
	}
	c.cache.Add(key, newValue)
	return newValue, nil
}

// Len returns the number of cached entries.
func (c *LRUCache[K, V]) Len() int {
	return c.cache.Len()
}
