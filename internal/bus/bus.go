// Copyright (C) 2024-2026, Ring Coordinator Authors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package bus implements the DataBus: a coalescing write queue sitting in
// front of the MemoryActuator, plus a short-lived read cache (spec §4.6).
package bus

import (
	"sync"

	"github.com/luxfi/log"

	"github.com/The404Studios/ring-coordinator/internal/actuator"
	"github.com/The404Studios/ring-coordinator/internal/authority"
	"github.com/The404Studios/ring-coordinator/internal/metrics"
	"github.com/The404Studios/ring-coordinator/internal/netid"
	"github.com/The404Studios/ring-coordinator/internal/schema"
)

type target struct {
	subject netid.ID
	schema  schema.ID
}

// pendingWrite is one coalesced entry in the write queue: the last writer
// for a given (target, field) within the current batch wins (spec §4.6).
type pendingWrite struct {
	value          any
	authorityEpoch uint64
}

type cacheEntry struct {
	value      any
	expiryTick uint64
}

// Config groups the DataBus's construction-time tunables.
type Config struct {
	MaxQueuedWrites   int
	EnableCoalescing  bool
	EnableReadCache   bool
	ReadCacheTTLTicks uint64
}

// Bus is the DataBus. It implements authority.Sink so the AuthorityRing can
// dispatch commits to it directly.
type Bus struct {
	log      log.Logger
	actuator actuator.MemoryActuator
	metrics  *metrics.Metrics
	cfg      Config

	mu          sync.Mutex
	queue       map[target]pendingWrite
	queueOrder  []target // insertion order of first-seen targets this batch, for deterministic flush
	lastEpoch   map[target]uint64
	readCache   map[target]cacheEntry
	droppedFull int
}

// New constructs a DataBus writing through actuator.
func New(logger log.Logger, act actuator.MemoryActuator, m *metrics.Metrics, cfg Config) *Bus {
	return &Bus{
		log:       logger,
		actuator:  act,
		metrics:   m,
		cfg:       cfg,
		queue:     make(map[target]pendingWrite),
		lastEpoch: make(map[target]uint64),
		readCache: make(map[target]cacheEntry),
	}
}

// ApplyCommit implements authority.Sink: it enqueues the commit's payload
// for the next FlushBatch rather than writing through synchronously, so a
// burst of commits for the same field within one tick only costs one
// actuator write (spec §4.6 "coalescing write queue").
func (b *Bus) ApplyCommit(c authority.Commit) {
	b.Write(c.SubjectID, c.Schema, c.Payload, c.AuthorityEpoch)
}

// Write enqueues a field write. A write whose authorityEpoch is older than
// one already queued or already applied for the same (subject, schema) is
// rejected outright (spec §4.6 "stale-epoch rejection").
func (b *Bus) Write(subject netid.ID, schemaID schema.ID, value any, epoch uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	t := target{subject, schemaID}

	if applied, ok := b.lastEpoch[t]; ok && epoch < applied {
		return
	}
	if existing, ok := b.queue[t]; ok && epoch < existing.authorityEpoch {
		return
	}

	if !b.cfg.EnableCoalescing {
		b.writeThroughLocked(t, value, epoch)
		return
	}

	if _, queued := b.queue[t]; !queued {
		if b.cfg.MaxQueuedWrites > 0 && len(b.queue) >= b.cfg.MaxQueuedWrites {
			b.droppedFull++
			if b.metrics != nil {
				b.metrics.QueueOverflow.Inc()
			}
			return
		}
		b.queueOrder = append(b.queueOrder, t)
	}
	b.queue[t] = pendingWrite{value: value, authorityEpoch: epoch}
}

func (b *Bus) writeThroughLocked(t target, value any, epoch uint64) {
	if err := b.actuator.WriteField(t.subject, t.schema, value); err != nil {
		if b.metrics != nil {
			b.metrics.ActuatorWriteFailed.Inc()
		}
		return
	}
	b.lastEpoch[t] = epoch
	b.invalidateLocked(t)
}

// FlushBatch applies every coalesced write to the actuator in the order
// their targets were first touched this batch, then clears the queue.
// Called once per tick from the coordinator loop, after AuthorityRing has
// finished dispatching (spec §4.1 step 4).
func (b *Bus) FlushBatch() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, t := range b.queueOrder {
		w, ok := b.queue[t]
		if !ok {
			continue
		}
		b.writeThroughLocked(t, w.value, w.authorityEpoch)
	}
	b.queue = make(map[target]pendingWrite)
	b.queueOrder = b.queueOrder[:0]
}

// Read returns the current value for (subject, schema), serving from the
// read cache when enabled and fresh (spec §4.6).
func (b *Bus) Read(subject netid.ID, schemaID schema.ID, currentTick uint64) (any, error) {
	t := target{subject, schemaID}

	b.mu.Lock()
	if b.cfg.EnableReadCache {
		if entry, ok := b.readCache[t]; ok && currentTick <= entry.expiryTick {
			b.mu.Unlock()
			if b.metrics != nil {
				b.metrics.BusReadHits.Inc()
			}
			return entry.value, nil
		}
	}
	b.mu.Unlock()

	v, err := b.actuator.ReadField(subject, schemaID)
	if err != nil {
		if b.metrics != nil {
			b.metrics.ActuatorReadFailed.Inc()
		}
		return nil, err
	}

	if b.metrics != nil {
		b.metrics.BusReadMisses.Inc()
	}
	if b.cfg.EnableReadCache {
		b.mu.Lock()
		b.readCache[t] = cacheEntry{value: v, expiryTick: currentTick + b.cfg.ReadCacheTTLTicks}
		b.mu.Unlock()
	}
	return v, nil
}

func (b *Bus) invalidateLocked(t target) {
	delete(b.readCache, t)
}

// ResolvePosition is a convenience read for the common Transform case,
// returning the whole TransformPayload (position, rotation, velocity) held
// for subject (spec §4.6 "resolvePosition").
func (b *Bus) ResolvePosition(subject netid.ID, currentTick uint64) (schema.TransformPayload, bool) {
	v, err := b.Read(subject, schema.Transform, currentTick)
	if err != nil {
		return schema.TransformPayload{}, false
	}
	tp, ok := v.(schema.TransformPayload)
	return tp, ok
}

// DroppedForQueueFull reports how many writes were dropped because the
// coalescing queue's target count reached MaxQueuedWrites.
func (b *Bus) DroppedForQueueFull() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.droppedFull
}
