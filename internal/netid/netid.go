// Copyright (C) 2024-2026, Ring Coordinator Authors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package netid defines the packed entity identifier shared by every ring.
package netid

import "fmt"

// EntityKind is the closed set of entity categories the core understands.
type EntityKind uint8

const (
	Player EntityKind = iota
	NPC
	Building
	Item
	Projectile
	Zone
	World
)

func (k EntityKind) String() string {
	switch k {
	case Player:
		return "Player"
	case NPC:
		return "NPC"
	case Building:
		return "Building"
	case Item:
		return "Item"
	case Projectile:
		return "Projectile"
	case Zone:
		return "Zone"
	case World:
		return "World"
	default:
		return "Unknown"
	}
}

// ID is a packed 64-bit identifier carrying (EntityKind, local handle).
// The kind occupies the top byte, the handle the remaining 56 bits. Equality
// and ordering are defined on the packed value, so IDs hash and compare
// identically across peers without any lookup.
type ID uint64

// New packs a kind and a per-kind local handle into an ID. The handle is
// truncated to 56 bits; callers are expected to allocate handles from a
// per-kind counter that never exceeds that range.
func New(kind EntityKind, handle uint64) ID {
	return ID(uint64(kind)<<56 | (handle & handleMask))
}

const handleMask = (1 << 56) - 1

// Kind extracts the EntityKind packed into the ID.
func (id ID) Kind() EntityKind {
	return EntityKind(id >> 56)
}

// Handle extracts the per-kind local handle packed into the ID.
func (id ID) Handle() uint64 {
	return uint64(id) & handleMask
}

func (id ID) String() string {
	return fmt.Sprintf("%s:%d", id.Kind(), id.Handle())
}

// Less gives a deterministic total order over IDs, the same order the
// InfoRing arbitration tiebreak applies (spec §4.3: "smaller sourceId").
func (id ID) Less(other ID) bool {
	return id < other
}
