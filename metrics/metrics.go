// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/luxfi/xbridge"
)

const outcomeSuccess = "success"

// Metrics are the protocol counters. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	transitionCount       *prometheus.CounterVec
	delayedTransfersCount *prometheus.GaugeVec
	epochVolume           *prometheus.GaugeVec
	signerSetUpdateCount  prometheus.Counter
	messageExecutionCount *prometheus.CounterVec
}

func NewMetrics(registerer prometheus.Registerer) *Metrics {
	m := Metrics{
		transitionCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "transition_count",
				Help: "Number of state transitions by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		delayedTransfersCount: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "delayed_transfers",
				Help: "Delayed transfers by state",
			},
			[]string{"state"},
		),
		epochVolume: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "epoch_volume",
				Help: "Volume accumulated in the current epoch by token",
			},
			[]string{"token"},
		),
		signerSetUpdateCount: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "signer_set_update_count",
				Help: "Number of signer set replacements",
			},
		),
		messageExecutionCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "message_execution_count",
				Help: "Number of message executions by status",
			},
			[]string{"status"},
		),
	}

	registerer.MustRegister(m.transitionCount)
	registerer.MustRegister(m.delayedTransfersCount)
	registerer.MustRegister(m.epochVolume)
	registerer.MustRegister(m.signerSetUpdateCount)
	registerer.MustRegister(m.messageExecutionCount)

	return &m
}

// Transition records the outcome of operation. Failures are labelled with
// the error kind.
func (m *Metrics) Transition(operation string, err error) {
	if m == nil {
		return
	}
	outcome := outcomeSuccess
	if err != nil {
		outcome = xbridge.KindOf(err).String()
	}
	m.transitionCount.WithLabelValues(operation, outcome).Inc()
}

func (m *Metrics) DelayedTransferAdded() {
	if m == nil {
		return
	}
	m.delayedTransfersCount.WithLabelValues("pending").Inc()
}

func (m *Metrics) DelayedTransferExecuted() {
	if m == nil {
		return
	}
	m.delayedTransfersCount.WithLabelValues("pending").Dec()
	m.delayedTransfersCount.WithLabelValues("executed").Inc()
}

func (m *Metrics) EpochVolume(token string, volume float64) {
	if m == nil {
		return
	}
	m.epochVolume.WithLabelValues(token).Set(volume)
}

func (m *Metrics) SignerSetUpdated() {
	if m == nil {
		return
	}
	m.signerSetUpdateCount.Inc()
}

func (m *Metrics) MessageExecuted(status string) {
	if m == nil {
		return
	}
	m.messageExecutionCount.WithLabelValues(status).Inc()
}
