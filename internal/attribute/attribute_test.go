// Copyright (C) 2024-2026, Ring Coordinator Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package attribute

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/The404Studios/ring-coordinator/internal/authority"
	"github.com/The404Studios/ring-coordinator/internal/config"
	"github.com/The404Studios/ring-coordinator/internal/mathutil"
	"github.com/The404Studios/ring-coordinator/internal/metrics"
	"github.com/The404Studios/ring-coordinator/internal/netid"
	"github.com/The404Studios/ring-coordinator/internal/schema"
)

func newTestRing() (*Ring, netid.ID) {
	cfg := config.Default().Buffer
	r := New(nil, metrics.New(nil), cfg, config.Default().Gate.SnapThreshold, 20)
	return r, netid.New(netid.Player, 1)
}

func commit(subject netid.ID, tick uint64, x float32, vx float32) authority.Commit {
	return authority.Commit{
		SubjectID: subject,
		Tick:      tick,
		Schema:    schema.Transform,
		Payload: schema.TransformPayload{
			Position: mathutil.Vec3{X: x},
			Rotation: mathutil.IdentityQuat(),
			Velocity: mathutil.Vec3{X: vx},
		},
	}
}

func TestSampleWithNoDataReturnsFalse(t *testing.T) {
	r, id := newTestRing()
	_, ok := r.Sample(id, 10, 0)
	require.False(t, ok)
}

func TestInterpolatesBetweenBracketingSamples(t *testing.T) {
	r, id := newTestRing()
	r.ApplyCommit(commit(id, 0, 0, 0))
	r.ApplyCommit(commit(id, 10, 10, 0))

	// delay defaults to InitialDelayTicks (2) until enough gap samples
	// accumulate, so target = currentTick - 2.
	out, ok := r.Sample(id, 7, 0)
	require.True(t, ok)
	require.Equal(t, ModeInterpolate, out.Mode)
	require.InDelta(t, 5, out.Position.X, 0.5)
}

func TestExtrapolatesPastNewestSample(t *testing.T) {
	r, id := newTestRing()
	r.ApplyCommit(commit(id, 0, 0, 1))

	out, ok := r.Sample(id, 100, 0)
	require.True(t, ok)
	require.Equal(t, ModeExtrapolate, out.Mode)
	require.Greater(t, out.Position.X, float32(0))
	require.Less(t, out.Confidence, 1.0)
}

func TestSnapOnLargeResidual(t *testing.T) {
	r, id := newTestRing()
	r.ApplyCommit(commit(id, 0, 0, 0))
	first, ok := r.Sample(id, 0, 0)
	require.True(t, ok)
	require.Equal(t, float32(0), first.Position.X)

	r.ApplyCommit(commit(id, 10, 10000, 0))
	// delay is still the 2-tick InitialDelayTicks default (too few arrival
	// gaps to adapt), so currentTick=12 lands exactly on the new sample.
	out, ok := r.Sample(id, 12, time.Millisecond)
	require.True(t, ok)
	require.InDelta(t, 10000, out.Position.X, 1.0, "residual beyond SnapThreshold must snap instantly")
}

func TestBlendsGraduallyOnSmallResidual(t *testing.T) {
	r, id := newTestRing()
	r.ApplyCommit(commit(id, 0, 0, 0))
	_, ok := r.Sample(id, 0, 0)
	require.True(t, ok)

	r.ApplyCommit(commit(id, 10, 1, 0))
	out, ok := r.Sample(id, 12, 16*time.Millisecond)
	require.True(t, ok)
	require.Greater(t, out.Position.X, float32(0))
	require.Less(t, out.Position.X, float32(1), "small residual should blend partway, not snap")
}
