// Copyright (C) 2024-2026, Ring Coordinator Authors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package metrics wires the structured counters named in spec §7
// (commitsGenerated, infoPending, extrapolationRatio, busReadHitRate,
// packetsSent/Dropped, ...) through prometheus.Registerer, mirroring the
// teacher's metrics/metrics.go Averager construction.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics is the full set of counters/gauges the core pipeline updates.
type Metrics struct {
	CommitsGenerated   prometheus.Counter
	InfoPending        prometheus.Gauge
	InfoAccepted       prometheus.Counter
	InfoRejected       prometheus.Counter
	InfoVerifying      prometheus.Gauge
	SanityGateRejected prometheus.Counter
	QueueOverflow      prometheus.Counter
	ActuatorReadFailed prometheus.Counter
	ActuatorWriteFailed prometheus.Counter
	BusReadHits        prometheus.Counter
	BusReadMisses      prometheus.Counter
	ExtrapolationRatio prometheus.Gauge
	PacketsSent        prometheus.Counter
	PacketsDropped     prometheus.Counter
	TransportFailures  prometheus.Counter
}

// New registers every metric on reg, mirroring NewAverager's one-metric-
// per-concern registration pattern. A nil Registerer is treated as "don't
// register anything" so library code can construct Metrics without a
// global default registry (spec Design Notes §9: no hidden module state).
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CommitsGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ring_commits_generated_total",
			Help: "Total commits produced by the AuthorityRing.",
		}),
		InfoPending: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ring_info_pending",
			Help: "Infos currently queued in the InfoRing intake.",
		}),
		InfoAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ring_info_accepted_total",
			Help: "Infos accepted by the InfoRing.",
		}),
		InfoRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ring_info_rejected_total",
			Help: "Infos rejected by the InfoRing.",
		}),
		InfoVerifying: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ring_info_verifying",
			Help: "Infos currently in the one-tick verification band.",
		}),
		SanityGateRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ring_sanity_gate_rejected_total",
			Help: "Candidates rejected by the AuthorityRing sanity gate.",
		}),
		QueueOverflow: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ring_queue_overflow_total",
			Help: "Bounded-queue overflow drops across intake/outbound queues.",
		}),
		ActuatorReadFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ring_actuator_read_failed_total",
			Help: "MemoryActuator read failures observed by the DataBus.",
		}),
		ActuatorWriteFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ring_actuator_write_failed_total",
			Help: "MemoryActuator write failures observed by the DataBus.",
		}),
		BusReadHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ring_bus_read_hits_total",
			Help: "DataBus reads served from the read cache.",
		}),
		BusReadMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ring_bus_read_misses_total",
			Help: "DataBus reads that fell through to the actuator.",
		}),
		ExtrapolationRatio: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ring_extrapolation_ratio",
			Help: "Fraction of recent AttributeRing samples produced in Extrapolate mode.",
		}),
		PacketsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ring_packets_sent_total",
			Help: "Packets successfully handed to the transport.",
		}),
		PacketsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ring_packets_dropped_total",
			Help: "Packets dropped from the outbound queue under pressure.",
		}),
		TransportFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ring_transport_failures_total",
			Help: "Per-peer transport failures.",
		}),
	}

	if reg != nil {
		for _, c := range m.collectors() {
			// Registration errors (e.g. duplicate registration against a
			// shared registry in tests) are non-fatal: the metric still
			// works locally, it just won't be exported twice.
			_ = reg.Register(c)
		}
	}
	return m
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.CommitsGenerated, m.InfoPending, m.InfoAccepted, m.InfoRejected,
		m.InfoVerifying, m.SanityGateRejected, m.QueueOverflow,
		m.ActuatorReadFailed, m.ActuatorWriteFailed, m.BusReadHits,
		m.BusReadMisses, m.ExtrapolationRatio, m.PacketsSent,
		m.PacketsDropped, m.TransportFailures,
	}
}
