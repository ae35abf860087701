// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/xbridge"
)

func TestTransitionOutcomes(t *testing.T) {
	require := require.New(t)

	m := NewMetrics(prometheus.NewRegistry())
	m.Transition("relay", nil)
	m.Transition("relay", nil)
	m.Transition("relay", xbridge.NewError(xbridge.KindReplay, "transfer exists"))

	require.InDelta(2, testutil.ToFloat64(m.transitionCount.WithLabelValues("relay", "success")), 0)
	require.InDelta(1, testutil.ToFloat64(m.transitionCount.WithLabelValues("relay", "replay")), 0)

	m.DelayedTransferAdded()
	m.DelayedTransferAdded()
	m.DelayedTransferExecuted()
	require.InDelta(1, testutil.ToFloat64(m.delayedTransfersCount.WithLabelValues("pending")), 0)
	require.InDelta(1, testutil.ToFloat64(m.delayedTransfersCount.WithLabelValues("executed")), 0)
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	require.NotPanics(t, func() {
		m.Transition("relay", nil)
		m.DelayedTransferAdded()
		m.DelayedTransferExecuted()
		m.EpochVolume("0x0", 1)
		m.SignerSetUpdated()
		m.MessageExecuted("success")
	})
}
