// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/luxfi/xbridge/codec"
	"github.com/luxfi/xbridge/signers"
)

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{
			name:     "signer set readable",
			expected: http.StatusOK,
		},
		{
			name:     "signer set unreadable",
			err:      errors.New("leveldb: closed"),
			expected: http.StatusServiceUnavailable,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)

			handler := newHealthHandler(zap.NewNop(), func(context.Context) error {
				return tt.err
			})

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
			require.Equal(tt.expected, rec.Code)
			require.Contains(rec.Body.String(), "status")
		})
	}
}

func TestServeMetricsReadsCommittedVolume(t *testing.T) {
	usdt := common.HexToAddress("0x7777")

	tests := []struct {
		name     string
		mints    []uint64
		expected float64
	}{
		{
			name: "no transfers",
		},
		{
			name:     "one mint",
			mints:    []uint64{300},
			expected: 300,
		},
		{
			name:     "two mints",
			mints:    []uint64{300, 200},
			expected: 500,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)

			key, err := signers.GenerateLocalSigner()
			require.NoError(err)
			dir := t.TempDir()
			cfgPath := filepath.Join(dir, "config.json")
			require.NoError(os.WriteFile(cfgPath, []byte(fmt.Sprintf(`{
				"chain-id": 56,
				"contract": "0x00000000000000000000000000000000000000b1",
				"owner": "0x000000000000000000000000000000000000000a",
				"kind": "pegged",
				"data-dir": %q,
				"epoch-length": 1000000000000,
				"signers": [{"address": %q, "power": "1"}],
				"tokens": [{"token": %q, "limits": {"epochVolumeCap": "10000"}}]
			}`, filepath.Join(dir, "db"), key.Address().Hex(), usdt.Hex())), 0o600))

			cmd, _, err := newRootCmd().Find([]string{"serve-metrics"})
			require.NoError(err)
			require.NoError(cmd.ParseFlags([]string{"--config-file", cfgPath}))

			registry := prometheus.NewRegistry()
			n, err := openNode(cmd, registry)
			require.NoError(err)
			defer n.close()

			for i, amount := range tt.mints {
				payload, err := n.bridge.Codec().Encode(&codec.MintRequest{
					Token:      usdt,
					Account:    common.HexToAddress("0xa1"),
					Amount:     uint256.NewInt(amount),
					Depositor:  common.HexToAddress("0xa1"),
					RefChainID: 1,
					RefID:      common.Hash{byte(i + 1)},
				})
				require.NoError(err)
				digest, err := digestOf(n.bridge.Domain(), payload)
				require.NoError(err)
				sig, err := key.Sign(digest)
				require.NoError(err)
				_, err = n.apply(payload, [][]byte{sig})
				require.NoError(err)
			}

			n.refreshGauges()
			families, err := registry.Gather()
			require.NoError(err)
			var (
				found bool
				value float64
			)
			for _, f := range families {
				if f.GetName() != "epoch_volume" {
					continue
				}
				for _, m := range f.GetMetric() {
					for _, l := range m.GetLabel() {
						if l.GetValue() == usdt.Hex() {
							found = true
							value = m.GetGauge().GetValue()
						}
					}
				}
			}
			require.True(found)
			require.InDelta(tt.expected, value, 0)
		})
	}
}
