// Copyright (C) 2024-2026, Ring Coordinator Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package authority

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/The404Studios/ring-coordinator/internal/config"
	"github.com/The404Studios/ring-coordinator/internal/container"
	"github.com/The404Studios/ring-coordinator/internal/frame"
	"github.com/The404Studios/ring-coordinator/internal/info"
	"github.com/The404Studios/ring-coordinator/internal/mathutil"
	"github.com/The404Studios/ring-coordinator/internal/metrics"
	"github.com/The404Studios/ring-coordinator/internal/netid"
	"github.com/The404Studios/ring-coordinator/internal/schema"
)

type fakeSink struct {
	commits []Commit
}

func (f *fakeSink) ApplyCommit(c Commit) { f.commits = append(f.commits, c) }

func newTestRing(t *testing.T) (*Ring, *container.Ring, netid.ID) {
	t.Helper()
	c := container.New(nil)
	subject := netid.New(netid.Player, 1)
	require.NoError(t, c.Register(subject, netid.Player, frame.World_(), nil, 0))

	cfg := config.Default()
	r := New(nil, schema.NewRegistry(), c, metrics.New(nil), cfg.Gate, cfg.TickRateHz)
	return r, c, subject
}

func TestProcessCycleEmitsCommitAndBumpsEpoch(t *testing.T) {
	r, c, subject := newTestRing(t)
	sink := &fakeSink{}

	winners := []info.Info{{
		Subject:   subject,
		Authority: info.LocalOwned,
		Schema:    schema.Transform,
		Payload:   schema.TransformPayload{Rotation: mathutil.IdentityQuat()},
	}}

	commits := r.ProcessCycle(winners, 5, sink)
	require.Len(t, commits, 1)
	require.Len(t, sink.commits, 1)
	require.Equal(t, commits[0].CommitID, sink.commits[0].CommitID)

	rec, ok := c.Lookup(subject)
	require.True(t, ok)
	require.Equal(t, uint64(1), rec.AuthorityEpoch)
}

func TestPositionJumpWithNoReportedVelocityIsRejected(t *testing.T) {
	// S2: a producer can leave Velocity at its zero value and still
	// teleport. The gate must catch the jump from the position delta, not
	// trust the payload's self-reported (here, absent) Velocity field.
	r, _, subject := newTestRing(t)

	good := []info.Info{{
		Subject: subject, Authority: info.LocalOwned, Schema: schema.Transform,
		Payload: schema.TransformPayload{Rotation: mathutil.IdentityQuat()},
	}}
	commits := r.ProcessCycle(good, 0)
	require.Len(t, commits, 1)

	teleport := []info.Info{{
		Subject: subject, Authority: info.PeerReport, Schema: schema.Transform,
		Payload: schema.TransformPayload{Position: mathutil.Vec3{X: 1000}, Rotation: mathutil.IdentityQuat()},
	}}
	commits = r.ProcessCycle(teleport, 1)
	require.Len(t, commits, 1, "a gate-rejected candidate still reaffirms the last good commit")
	require.Equal(t, info.CachedLastKnown, commits[0].Source)
}

func TestInBoundsPositionDeltaIsAccepted(t *testing.T) {
	r, _, subject := newTestRing(t)

	good := []info.Info{{
		Subject: subject, Authority: info.LocalOwned, Schema: schema.Transform,
		Payload: schema.TransformPayload{Rotation: mathutil.IdentityQuat()},
	}}
	commits := r.ProcessCycle(good, 0)
	require.Len(t, commits, 1)

	// At TickRateHz=20, one tick is 0.05s; MaxVelocity=15 allows a delta up
	// to 0.75 units, so 0.5 stays within the gate.
	step := []info.Info{{
		Subject: subject, Authority: info.LocalOwned, Schema: schema.Transform,
		Payload: schema.TransformPayload{Position: mathutil.Vec3{X: 0.5}, Rotation: mathutil.IdentityQuat()},
	}}
	commits = r.ProcessCycle(step, 1)
	require.Len(t, commits, 1)
	require.NotEqual(t, info.CachedLastKnown, commits[0].Source)
}

func TestServerCommitBypassesHealthDeltaCap(t *testing.T) {
	r, _, subject := newTestRing(t)

	base := []info.Info{{
		Subject: subject, Authority: info.ServerCommit, Schema: schema.Health,
		Payload: schema.HealthPayload{Current: 100, Max: 100},
	}}
	r.ProcessCycle(base, 0)

	hugeDrop := []info.Info{{
		Subject: subject, Authority: info.ServerCommit, Schema: schema.Health,
		Payload: schema.HealthPayload{Current: 1, Max: 100},
	}}
	commits := r.ProcessCycle(hugeDrop, 1)
	require.Len(t, commits, 1)
	require.Equal(t, info.ServerCommit, commits[0].Source)
}

func TestPeerReportHealthDeltaExceedingCapIsRejected(t *testing.T) {
	r, _, subject := newTestRing(t)

	base := []info.Info{{
		Subject: subject, Authority: info.ServerCommit, Schema: schema.Health,
		Payload: schema.HealthPayload{Current: 100, Max: 100},
	}}
	r.ProcessCycle(base, 0)

	hugeDrop := []info.Info{{
		Subject: subject, Authority: info.PeerReport, Schema: schema.Health,
		Payload: schema.HealthPayload{Current: 1, Max: 100},
	}}
	commits := r.ProcessCycle(hugeDrop, 1)
	require.Len(t, commits, 1)
	require.Equal(t, info.CachedLastKnown, commits[0].Source, "peer report exceeding the allowed delta falls back to the cached last commit")
}

func TestWithinSanityGateAgreesWithLastCommit(t *testing.T) {
	r, _, subject := newTestRing(t)

	winners := []info.Info{{
		Subject: subject, Authority: info.LocalOwned, Schema: schema.Transform,
		Payload: schema.TransformPayload{Position: mathutil.Vec3{X: 10}, Rotation: mathutil.IdentityQuat()},
	}}
	r.ProcessCycle(winners, 0)

	agree := schema.TransformPayload{Position: mathutil.Vec3{X: 10.1}, Rotation: mathutil.IdentityQuat()}
	require.True(t, r.WithinSanityGate(subject, schema.Transform, agree))

	disagree := schema.TransformPayload{Position: mathutil.Vec3{X: 500}, Rotation: mathutil.IdentityQuat()}
	require.False(t, r.WithinSanityGate(subject, schema.Transform, disagree))
}

func TestCommitForRemovedEntityIsDropped(t *testing.T) {
	r, c, subject := newTestRing(t)
	c.Unregister(subject)

	winners := []info.Info{{
		Subject: subject, Authority: info.LocalOwned, Schema: schema.Transform,
		Payload: schema.TransformPayload{Rotation: mathutil.IdentityQuat()},
	}}
	commits := r.ProcessCycle(winners, 0)
	require.Empty(t, commits)
}
