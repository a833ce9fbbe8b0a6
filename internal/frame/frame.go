// Copyright (C) 2024-2026, Ring Coordinator Authors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package frame defines the coordinate reference a positional fact is
// expressed in, and the rules for converting between references.
package frame

import (
	"fmt"

	"github.com/The404Studios/ring-coordinator/internal/netid"
)

// Kind is the closed set of coordinate frame kinds.
type Kind uint8

const (
	World Kind = iota
	Zone
	AttachedTo
	Screen
)

// Type is a positional fact's frame of reference. Zone carries a grid
// coordinate offset; AttachedTo carries the NetId it is relative to.
type Type struct {
	Kind       Kind
	ZoneX      int32
	ZoneY      int32
	AttachedID netid.ID
}

func World_() Type { return Type{Kind: World} }

func InZone(x, y int32) Type { return Type{Kind: Zone, ZoneX: x, ZoneY: y} }

func Attached(to netid.ID) Type { return Type{Kind: AttachedTo, AttachedID: to} }

func OnScreen() Type { return Type{Kind: Screen} }

func (t Type) String() string {
	switch t.Kind {
	case World:
		return "World"
	case Zone:
		return fmt.Sprintf("Zone(%d,%d)", t.ZoneX, t.ZoneY)
	case AttachedTo:
		return fmt.Sprintf("AttachedTo(%s)", t.AttachedID)
	case Screen:
		return "Screen"
	default:
		return "Unknown"
	}
}

// Resolver converts a point expressed in one frame into another. AttachedTo
// resolution requires a lookup of the referenced entity's own frame and
// position, which the ContainerRing provides.
type Resolver interface {
	// ResolveAttached returns the world-space origin and whether the given
	// id is currently a live, resolvable entity.
	ResolveAttached(id netid.ID) (originX, originY, originZ float32, ok bool)
}

// Convertible reports whether a positional fact expressed in `from` can be
// converted into `into`, per spec §3: "InfoRing rejects facts whose frame is
// not convertible to the subject's registered frame."
func Convertible(from, into Type, resolver Resolver) bool {
	if from.Kind == into.Kind && from.Kind != AttachedTo {
		return true
	}
	switch {
	case from.Kind == World && into.Kind == Zone:
		return true
	case from.Kind == Zone && into.Kind == World:
		return true
	case from.Kind == AttachedTo:
		if resolver == nil {
			return false
		}
		_, _, _, ok := resolver.ResolveAttached(from.AttachedID)
		return ok
	case into.Kind == AttachedTo:
		if resolver == nil {
			return false
		}
		_, _, _, ok := resolver.ResolveAttached(into.AttachedID)
		return ok
	case from.Kind == Screen || into.Kind == Screen:
		return from.Kind == into.Kind
	default:
		return false
	}
}

// zoneSizeMeters is the fixed grid cell size used for World<->Zone offset
// conversion and for the server's interest-management partitioning (§4.8).
const zoneSizeMeters = 64.0

// ZoneOf returns the zone grid coordinate containing a world-space point.
func ZoneOf(worldX, worldZ float32) (x, y int32) {
	return int32(worldX / zoneSizeMeters), int32(worldZ / zoneSizeMeters)
}

// ToWorldOffset converts a Zone-frame position into a world-space offset,
// used by the World<->Zone conversion path in Convertible's callers.
func (t Type) ToWorldOffset() (x, z float32) {
	return float32(t.ZoneX) * zoneSizeMeters, float32(t.ZoneY) * zoneSizeMeters
}
