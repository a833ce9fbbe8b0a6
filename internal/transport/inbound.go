// Copyright (C) 2024-2026, Ring Coordinator Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package transport

import (
	"github.com/The404Studios/ring-coordinator/internal/frame"
	"github.com/The404Studios/ring-coordinator/internal/info"
	"github.com/The404Studios/ring-coordinator/internal/netid"
	"github.com/The404Studios/ring-coordinator/internal/schema"
)

// FramesToInfo decodes every recognized packet in an InboundFrame into an
// Info for the InfoRing (spec §4.7 "inbound frame -> Info conversion").
// Packets whose type isn't a known schema (Ack, EntitySpawn/Despawn) are
// skipped and not forwarded anywhere else; unrecognized or
// malformed payloads are dropped, never treated as a fatal error (spec §7).
// Each packet carries its own entityId, so a single broadcast frame
// coalescing updates for several different entities (the normal
// OutboundQueue case) attributes each packet to its own subject instead of
// the frame's sender; entityOf translates the wire-level entityId into the
// locally-registered subject id (identity for peers using shared ids).
func FramesToInfo(registry *schema.Registry, in InboundFrame, authority info.AuthoritySource, entityOf func(entity netid.ID) netid.ID) []info.Info {
	var out []info.Info

	for _, p := range in.Frame.Packets {
		schemaID, ok := packetTypeToSchema(p.Type)
		if !ok {
			continue
		}
		desc, ok := registry.Lookup(schemaID)
		if !ok || desc.Serializer == nil {
			continue
		}
		payload, err := desc.Serializer.Decode(p.Payload)
		if err != nil {
			continue
		}
		out = append(out, info.Info{
			Tick:           uint64(p.Tick),
			Subject:        entityOf(p.EntityID),
			Authority:      authority,
			Source:         in.Peer,
			Frame:          frame.World_(),
			Schema:         schemaID,
			Payload:        payload,
			Confidence:     0.7,
			ObservedAtTick: in.Frame.Tick,
		})
	}
	return out
}
