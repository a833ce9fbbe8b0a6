// Copyright (C) 2024-2026, Ring Coordinator Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package server

import (
	"encoding/json"

	"github.com/The404Studios/ring-coordinator/internal/netid"
)

// SnapshotEntity is the JSON-serializable shape of one entity in a world
// snapshot. Kept separate from ServerEntity so the wire/persistence
// representation can evolve without touching the live bookkeeping struct.
type SnapshotEntity struct {
	ID      netid.ID         `json:"id"`
	Kind    netid.EntityKind `json:"kind"`
	Zone    [2]int32         `json:"zone"`
	OwnerID netid.ID         `json:"ownerId"`
}

// Snapshot is the full world state (spec §4.8), the unit a caller persists
// or hands to a newly-connected player; in this repository it is persisted
// by cmd/ringd's admin save command. JSON is used deliberately here, not
// the wire binary frame format: this is an admin/bulk-sync channel, not a
// per-tick hot path.
type Snapshot struct {
	Tick     uint64           `json:"tick"`
	Entities []SnapshotEntity `json:"entities"`
}

// BuildSnapshot captures the current entity set.
func (s *Server) BuildSnapshot(tick uint64) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{Tick: tick, Entities: make([]SnapshotEntity, 0, len(s.entities))}
	for _, e := range s.entities {
		snap.Entities = append(snap.Entities, SnapshotEntity{ID: e.ID, Kind: e.Kind, Zone: e.Zone, OwnerID: e.OwnerID})
	}
	return snap
}

// FilteredFor returns the subset of a snapshot visible to a player's zone,
// the shape of an initial world-sync (spec §4.8). Handshake does not call
// it or send a world-sync itself.
func (snap Snapshot) FilteredFor(playerZone [2]int32, f *InterestFilter) Snapshot {
	out := Snapshot{Tick: snap.Tick}
	for _, e := range snap.Entities {
		if f.Visible(playerZone, e.Zone) {
			out.Entities = append(out.Entities, e)
		}
	}
	return out
}

// Marshal/Unmarshal let the caller hand the snapshot straight to
// persistence.Store.Save/Load or to the transport's WorldSync packet.
func (snap Snapshot) Marshal() ([]byte, error) { return json.Marshal(snap) }

func UnmarshalSnapshot(data []byte) (Snapshot, error) {
	var snap Snapshot
	err := json.Unmarshal(data, &snap)
	return snap, err
}
