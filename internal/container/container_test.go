// Copyright (C) 2024-2026, Ring Coordinator Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package container

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/The404Studios/ring-coordinator/internal/frame"
	"github.com/The404Studios/ring-coordinator/internal/netid"
)

func TestRegisterUnregisterIdempotent(t *testing.T) {
	r := New(nil)
	id := netid.New(netid.Player, 1)

	require.NoError(t, r.Register(id, netid.Player, frame.World_(), nil, 0))
	require.ErrorIs(t, r.Register(id, netid.Player, frame.World_(), nil, 0), ErrAlreadyRegistered)

	r.Unregister(id)
	r.Unregister(id) // second call must be a no-op, not an error

	_, ok := r.Lookup(id)
	require.False(t, ok)
}

func TestLookupUnknownNeverPanics(t *testing.T) {
	r := New(nil)
	rec, ok := r.Lookup(netid.New(netid.Player, 99))
	require.False(t, ok)
	require.Zero(t, rec)
	require.Equal(t, uint64(1), r.UnknownLookups())
}

func TestBumpEpochMonotonic(t *testing.T) {
	r := New(nil)
	id := netid.New(netid.Player, 1)
	require.NoError(t, r.Register(id, netid.Player, frame.World_(), nil, 0))

	e1, ok := r.BumpEpoch(id)
	require.True(t, ok)
	e2, ok := r.BumpEpoch(id)
	require.True(t, ok)
	require.Greater(t, e2, e1)
}

func TestBumpEpochOnRemovedEntityIsNoOp(t *testing.T) {
	r := New(nil)
	id := netid.New(netid.Player, 1)
	_, ok := r.BumpEpoch(id)
	require.False(t, ok)
}

func TestExpireStale(t *testing.T) {
	r := New(nil)
	id := netid.New(netid.NPC, 1)
	require.NoError(t, r.Register(id, netid.NPC, frame.World_(), nil, 0))

	expired := r.ExpireStale(10, 5)
	require.Equal(t, []netid.ID{id}, expired)
	_, ok := r.Lookup(id)
	require.False(t, ok)
}

func TestExpireStaleKeepsLiveEntities(t *testing.T) {
	r := New(nil)
	id := netid.New(netid.NPC, 1)
	require.NoError(t, r.Register(id, netid.NPC, frame.World_(), nil, 0))
	r.TouchLive(id, 9)

	expired := r.ExpireStale(10, 5)
	require.Empty(t, expired)
	_, ok := r.Lookup(id)
	require.True(t, ok)
}

func TestLiveEntitiesPreservesInsertionOrder(t *testing.T) {
	r := New(nil)
	a := netid.New(netid.Player, 1)
	b := netid.New(netid.Player, 2)
	c := netid.New(netid.Player, 3)
	require.NoError(t, r.Register(a, netid.Player, frame.World_(), nil, 0))
	require.NoError(t, r.Register(b, netid.Player, frame.World_(), nil, 0))
	require.NoError(t, r.Register(c, netid.Player, frame.World_(), nil, 0))

	require.Equal(t, []netid.ID{a, b, c}, r.LiveEntities())
}
