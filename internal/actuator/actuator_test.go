// Copyright (C) 2024-2026, Ring Coordinator Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package actuator

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/The404Studios/ring-coordinator/internal/netid"
	"github.com/The404Studios/ring-coordinator/internal/schema"
)

func TestReadBeforeWriteReturnsNotFound(t *testing.T) {
	a := NewInMemory()
	_, err := a.ReadField(netid.New(netid.Player, 1), schema.Transform)
	require.ErrorIs(t, err, ErrFieldNotFound)
	require.False(t, a.HandleValid(netid.New(netid.Player, 1), schema.Transform))
}

func TestWriteThenReadRoundTrips(t *testing.T) {
	a := NewInMemory()
	id := netid.New(netid.Player, 1)
	require.NoError(t, a.WriteField(id, schema.Health, schema.HealthPayload{Current: 50, Max: 100}))

	v, err := a.ReadField(id, schema.Health)
	require.NoError(t, err)
	require.Equal(t, schema.HealthPayload{Current: 50, Max: 100}, v)
	require.True(t, a.HandleValid(id, schema.Health))
}
