// Copyright (C) 2024-2026, Ring Coordinator Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package server

import "github.com/The404Studios/ring-coordinator/internal/netid"

// InterestFilter narrows the set of entities broadcast to a player down to
// those within interestRadius zone cells of the player's own zone (spec
// §4.8). This is the server's outbound bandwidth control, independent of
// the AttributeRing's interpolation buffer.
type InterestFilter struct {
	radius int32
}

// NewInterestFilter constructs a filter with the default radius.
func NewInterestFilter() *InterestFilter {
	return &InterestFilter{radius: interestRadius}
}

// Visible reports whether an entity at entityZone is within playerZone's
// interest set.
func (f *InterestFilter) Visible(playerZone, entityZone [2]int32) bool {
	dx := abs32(playerZone[0] - entityZone[0])
	dy := abs32(playerZone[1] - entityZone[1])
	return dx <= f.radius && dy <= f.radius
}

// Filter returns the subset of entities visible to playerID at playerZone:
// zone-adjacent to the player and not owned by the player themselves (spec
// §4.8 — a player's own entity is never included in their own interest
// bundle, since it reaches them through other means).
func (f *InterestFilter) Filter(playerID netid.ID, playerZone [2]int32, entities []ServerEntity) []ServerEntity {
	out := make([]ServerEntity, 0, len(entities))
	for _, e := range entities {
		if e.OwnerID == playerID {
			continue
		}
		if f.Visible(playerZone, e.Zone) {
			out = append(out, e)
		}
	}
	return out
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}

// subjectsFor is a convenience for dispatch code that only needs the ids.
func subjectsFor(entities []ServerEntity) []netid.ID {
	out := make([]netid.ID, len(entities))
	for i, e := range entities {
		out[i] = e.ID
	}
	return out
}
