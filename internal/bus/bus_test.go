// Copyright (C) 2024-2026, Ring Coordinator Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package bus

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/The404Studios/ring-coordinator/internal/actuator"
	"github.com/The404Studios/ring-coordinator/internal/metrics"
	"github.com/The404Studios/ring-coordinator/internal/netid"
	"github.com/The404Studios/ring-coordinator/internal/schema"
)

func newTestBus(t *testing.T) (*Bus, netid.ID) {
	t.Helper()
	b := New(nil, actuator.NewInMemory(), metrics.New(nil), Config{
		MaxQueuedWrites:   100,
		EnableCoalescing:  true,
		EnableReadCache:   true,
		ReadCacheTTLTicks: 2,
	})
	return b, netid.New(netid.Player, 1)
}

func TestWriteCoalescesLastWriterWinsWithinBatch(t *testing.T) {
	b, id := newTestBus(t)

	b.Write(id, schema.Health, schema.HealthPayload{Current: 90, Max: 100}, 1)
	b.Write(id, schema.Health, schema.HealthPayload{Current: 80, Max: 100}, 1)
	b.FlushBatch()

	v, err := b.Read(id, schema.Health, 0)
	require.NoError(t, err)
	require.Equal(t, schema.HealthPayload{Current: 80, Max: 100}, v)
}

func TestStaleEpochWriteIsRejected(t *testing.T) {
	b, id := newTestBus(t)

	b.Write(id, schema.Health, schema.HealthPayload{Current: 90, Max: 100}, 5)
	b.FlushBatch()

	b.Write(id, schema.Health, schema.HealthPayload{Current: 1, Max: 100}, 2)
	b.FlushBatch()

	v, err := b.Read(id, schema.Health, 0)
	require.NoError(t, err)
	require.Equal(t, schema.HealthPayload{Current: 90, Max: 100}, v)
}

func TestReadBeforeFlushFallsThroughToActuator(t *testing.T) {
	b, id := newTestBus(t)
	_, err := b.Read(id, schema.Health, 0)
	require.Error(t, err)
}

func TestReadCacheServesWithinTTL(t *testing.T) {
	b, id := newTestBus(t)
	b.Write(id, schema.Health, schema.HealthPayload{Current: 100, Max: 100}, 1)
	b.FlushBatch()

	_, err := b.Read(id, schema.Health, 0)
	require.NoError(t, err)

	v, err := b.Read(id, schema.Health, 2)
	require.NoError(t, err)
	require.Equal(t, schema.HealthPayload{Current: 100, Max: 100}, v)
}

func TestResolvePosition(t *testing.T) {
	b, id := newTestBus(t)
	tp := schema.TransformPayload{Position: schema.TransformPayload{}.Position}
	b.Write(id, schema.Transform, tp, 1)
	b.FlushBatch()

	got, ok := b.ResolvePosition(id, 0)
	require.True(t, ok)
	require.Equal(t, tp.Position, got.Position)
}
