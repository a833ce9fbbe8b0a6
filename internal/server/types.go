// Copyright (C) 2024-2026, Ring Coordinator Authors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package server implements the server-side authoritative state named in
// spec §4.8: connected players, zone-grid interest management, seeded
// deterministic combat resolution, handshake/version negotiation, world
// snapshots, periodic time sync, and an admin command surface.
package server

import (
	"time"

	"github.com/The404Studios/ring-coordinator/internal/frame"
	"github.com/The404Studios/ring-coordinator/internal/mathutil"
	"github.com/The404Studios/ring-coordinator/internal/netid"
)

// EntityFlags is a bitset of server-tracked entity state beyond position
// and health (spec §4.8): stunned, invisible, and so on.
type EntityFlags uint32

const (
	FlagStunned EntityFlags = 1 << iota
	FlagInvisible
	FlagInvulnerable
)

// equipmentSlotCount is the size of ServerEntity.Equipment (spec §4.8).
const equipmentSlotCount = 14

// ServerEntity is the server's bookkeeping record for one live entity
// (spec §4.8), distinct from container.Record: container owns the
// replication-core metadata (epoch, frame, TTL), this owns the
// gameplay-facing state. Position and Rotation hold the values the entity
// was registered with; nothing in this package updates them from
// AuthorityRing commits, and the AuthorityRing and DataBus remain the
// authoritative source. Health is per-body-part combat state owned by
// Combat.Resolve, not the DataBus's single-value HealthPayload schema;
// TotalHealth computes the seven-part sum, and nothing in this package
// writes it to the DataBus.
type ServerEntity struct {
	ID      netid.ID
	Kind    netid.EntityKind
	OwnerID netid.ID // the ConnectedPlayer that owns/controls it, zero for NPCs

	Position mathutil.Vec3
	Rotation mathutil.Quat
	Zone     [2]int32

	TemplateID   uint32
	TemplateName string
	FactionID    uint32

	Health    [bodyPartCount]float32
	AnimState uint32
	MoveSpeed float32
	Flags     EntityFlags
	Alive     bool

	Equipment [equipmentSlotCount]uint32
}

// TotalHealth sums the per-part health array into a single aggregate
// value, the shape the DataBus's Health schema carries.
func (e ServerEntity) TotalHealth() float32 {
	var sum float32
	for _, h := range e.Health {
		sum += h
	}
	return sum
}

// ConnectedPlayer is one live client connection.
type ConnectedPlayer struct {
	PlayerID      netid.ID
	DisplayName   string
	ProtocolVersion Version
	ConnectedAt   time.Time
	LastSeen      time.Time
	Zone          [2]int32
	Disconnected  bool
}

// Version is the wire protocol version negotiated at handshake.
type Version struct {
	Major, Minor, Patch int
}

func (v Version) String() string {
	return versionString(v)
}

// Compatible reports whether a client's version can talk to this server:
// same major version, client minor/patch may trail the server's.
func (v Version) Compatible(server Version) bool {
	if v.Major != server.Major {
		return false
	}
	if v.Minor > server.Minor {
		return false
	}
	return true
}

// interestRadius is how many zone cells in each direction around a
// player's own zone are included in their interest set (spec §4.8).
const interestRadius = 1

// ZoneOf is a small convenience wrapper over frame.ZoneOf for callers in
// this package that only have world coordinates.
func ZoneOf(x, z float32) [2]int32 {
	zx, zy := frame.ZoneOf(x, z)
	return [2]int32{zx, zy}
}
