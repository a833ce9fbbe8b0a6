// Copyright (C) 2024-2026, Ring Coordinator Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package transport

import (
	"context"
	"sort"
	"sync"

	"github.com/The404Studios/ring-coordinator/internal/authority"
	"github.com/The404Studios/ring-coordinator/internal/metrics"
	"github.com/The404Studios/ring-coordinator/internal/netid"
	"github.com/The404Studios/ring-coordinator/internal/schema"
)

// Channel names the delivery guarantee a frame is sent over (spec §4.7).
type Channel uint8

const (
	ReliableOrdered Channel = iota
	ReliableUnordered
	UnreliableSeq
	Control
)

// NetworkTransport is the port the coordinator drives; a real
// implementation owns the sockets, a fake one records calls for tests.
type NetworkTransport interface {
	SendReliable(ctx context.Context, peer netid.ID, f Frame, ch Channel) error
	SendUnreliable(ctx context.Context, peer netid.ID, f Frame, ch Channel) error
	Broadcast(ctx context.Context, f Frame, ch Channel) error
	Poll(ctx context.Context) ([]InboundFrame, error)
}

// InboundFrame pairs a decoded Frame with the peer it arrived from.
type InboundFrame struct {
	Peer  netid.ID
	Frame Frame
}

// schemaToPacketType maps a schema slot to its wire packet type (spec §4.7).
func schemaToPacketType(s schema.ID) (PacketType, bool) {
	switch s {
	case schema.Transform:
		return PositionUpdate, true
	case schema.Health:
		return HealthUpdate, true
	default:
		return 0, false
	}
}

func packetTypeToSchema(t PacketType) (schema.ID, bool) {
	switch t {
	case PositionUpdate:
		return schema.Transform, true
	case HealthUpdate:
		return schema.Health, true
	default:
		return 0, false
	}
}

func priorityFor(s schema.ID) Priority {
	switch s {
	case schema.Transform:
		return Normal
	case schema.Health:
		return High
	default:
		return Low
	}
}

// OutboundQueue is a bounded, priority-ordered packet queue for one peer
// (or the broadcast set). Packets are coalesced by (subject, schema): a
// newer packet for the same field replaces the queued one, mirroring the
// DataBus's coalescing behavior so the network never carries more than one
// in-flight update per field per flush (spec §4.7).
type OutboundQueue struct {
	registry *schema.Registry
	metrics  *metrics.Metrics
	maxLen   int

	mu     sync.Mutex
	byKey  map[outboundKey]queuedPacket
	order  []outboundKey
}

type outboundKey struct {
	subject netid.ID
	schema  schema.ID
}

type queuedPacket struct {
	packet Packet
}

// NewOutboundQueue constructs a queue capped at maxLen distinct fields.
func NewOutboundQueue(registry *schema.Registry, m *metrics.Metrics, maxLen int) *OutboundQueue {
	return &OutboundQueue{registry: registry, metrics: m, maxLen: maxLen, byKey: make(map[outboundKey]queuedPacket)}
}

// ApplyCommit implements authority.Sink: it serializes the commit's payload
// via the schema registry and enqueues it for the next flush.
func (q *OutboundQueue) ApplyCommit(c authority.Commit) {
	ptype, ok := schemaToPacketType(c.Schema)
	if !ok {
		return
	}
	desc, ok := q.registry.Lookup(c.Schema)
	if !ok || desc.Serializer == nil {
		return
	}
	payload, err := desc.Serializer.Encode(c.Payload)
	if err != nil {
		return
	}
	q.enqueue(c.SubjectID, c.Schema, Packet{
		Type:     ptype,
		Priority: priorityFor(c.Schema),
		EntityID: c.SubjectID,
		Tick:     int64(c.Tick),
		Payload:  payload,
	})
}

func (q *OutboundQueue) enqueue(subject netid.ID, schemaID schema.ID, p Packet) {
	q.mu.Lock()
	defer q.mu.Unlock()

	k := outboundKey{subject, schemaID}
	if _, exists := q.byKey[k]; !exists {
		if q.maxLen > 0 && len(q.byKey) >= q.maxLen {
			q.evictLowestPriorityLocked()
		}
		q.order = append(q.order, k)
	}
	q.byKey[k] = queuedPacket{packet: p}
}

func (q *OutboundQueue) evictLowestPriorityLocked() {
	if len(q.order) == 0 {
		return
	}
	worstIdx, worstPriority := 0, q.byKey[q.order[0]].packet.Priority
	for i, k := range q.order {
		if p := q.byKey[k].packet.Priority; p > worstPriority {
			worstPriority = p
			worstIdx = i
		}
	}
	delete(q.byKey, q.order[worstIdx])
	q.order = append(q.order[:worstIdx], q.order[worstIdx+1:]...)
	if q.metrics != nil {
		q.metrics.PacketsDropped.Inc()
	}
}

// Flush drains the queue into one Frame, highest priority first, and
// clears it. Called once per tick (or per FlushInterval) by the coordinator.
func (q *OutboundQueue) Flush(tick uint64, timestampMs uint64) Frame {
	q.mu.Lock()
	defer q.mu.Unlock()

	packets := make([]Packet, 0, len(q.order))
	for _, k := range q.order {
		packets = append(packets, q.byKey[k].packet)
	}
	sort.SliceStable(packets, func(i, j int) bool { return packets[i].Priority < packets[j].Priority })

	q.byKey = make(map[outboundKey]queuedPacket)
	q.order = q.order[:0]

	return Frame{Tick: tick, TimestampMs: timestampMs, Packets: packets}
}

// Len reports how many distinct fields are currently queued.
func (q *OutboundQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.order)
}
