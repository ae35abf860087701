// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package cache

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLRUCache(t *testing.T) {
	tests := []struct {
		name          string
		key           string
		invalidate    bool
		expectedValue int
		expectedCount int
	}{
		{
			name:          "fresh cache, fetch",
			key:           "test1",
			expectedValue: 42,
			expectedCount: 1,
		},
		{
			name:          "use cache, no fetch",
			key:           "test1",
			expectedValue: 42,
			expectedCount: 1,
		},
		{
			name:          "invalidate=true, fetch again",
			key:           "test1",
			invalidate:    true,
			expectedValue: 42,
			expectedCount: 2,
		},
		{
			name:          "different key, fetch",
			key:           "test2",
			expectedValue: 42,
			expectedCount: 3,
		},
	}

	cache, err := NewLRUCache[string, int](10)
	require.NoError(t, err)
	fetchCount := 0
	fetchFunc := func(key string) (int, error) {
		fetchCount++
		return 42, nil
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)

			val, err := cache.Get(tt.key, fetchFunc, tt.invalidate)
			require.NoError(err)
			require.Equal(tt.expectedValue, val)
			require.Equal(tt.expectedCount, fetchCount)
		})
	}
}

func TestLRUCacheSkipsErrors(t *testing.T) {
	require := require.New(t)

	cache, err := NewLRUCache[int, string](2)
	require.NoError(err)

	failure := errors.New("fetch failed")
	_, err = cache.Get(1, func(int) (string, error) { return "", failure }, false)
	require.ErrorIs(err, failure)
	require.Zero(cache.Len())

	for i := 0; i < 3; i++ {
		_, err := cache.Get(i, func(k int) (string, error) { return "v", nil }, false)
		require.NoError(err)
	}
	require.Equal(2, cache.Len())

	_, err = NewLRUCache[int, int](0)
	require.Error(err)
}
