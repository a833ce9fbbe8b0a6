// Copyright (C) 2024-2026, Ring Coordinator Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package server

import (
	"math/rand"

	"github.com/The404Studios/ring-coordinator/internal/netid"
)

// BodyPart indexes a ServerEntity's Health array. The ordering matches the
// fixed weighted table combat rolls against (spec §4.8): chest and stomach
// dominate, the head is rare and lethal, each limb is an even split of the
// remainder.
type BodyPart uint8

const (
	Chest BodyPart = iota
	Stomach
	Head
	ArmLeft
	ArmRight
	LegLeft
	LegRight

	bodyPartCount = 7
)

// bodyPartTable is the cumulative weighted table combat rolls against;
// weights sum to 100 so the roll is a direct percentage draw.
var bodyPartTable = []struct {
	part   BodyPart
	weight int
}{
	{Chest, 30},
	{Stomach, 20},
	{Head, 10},
	{ArmLeft, 10},
	{ArmRight, 10},
	{LegLeft, 10},
	{LegRight, 10},
}

// WeaponType selects how resolved damage splits between cut and blunt
// components.
type WeaponType uint8

const (
	// Melee splits damage 50/50 between cut and blunt (spec §4.8).
	Melee WeaponType = iota
	// Ranged isn't given an explicit split by the spec; it's resolved as
	// pure cut damage, a deliberate default documented in DESIGN.md rather
	// than an invented split.
	Ranged
)

// AttackIntent is a client's request to resolve an attack against a target.
type AttackIntent struct {
	AttackerID netid.ID
	TargetID   netid.ID
	BaseDamage float32
	Defense    float32 // target's defense stat, [0,100]
	Weapon     WeaponType
}

// AttackOutcome is the deterministic result of resolving one AttackIntent.
type AttackOutcome struct {
	Part         BodyPart
	CutDamage    float32
	BluntDamage  float32
	TotalDamage  float32
	Blocked      bool
	KO           bool
	Killed       bool
}

// blockChance is the fixed probability a hit is blocked (spec §4.8); a
// block doesn't negate the hit, it reduces both damage components by
// blockMultiplier.
const (
	blockChance      = 0.20
	blockMultiplier  = 0.7
)

// Combat resolves attacks with a seeded RNG, so the same seed and intent
// sequence always produces the same outcomes (spec §4.8, testable property
// "combat determinism"). RNG draws happen in a fixed order per attack: body
// part, damage variance, block — so reordering them would change every
// outcome after the first for a given seed.
type Combat struct {
	rng            *rand.Rand
	koThreshold    float32
	deathThreshold float32
}

// NewCombat constructs a deterministic combat resolver seeded with seed.
func NewCombat(seed int64, koThreshold, deathThreshold float32) *Combat {
	return &Combat{
		rng:            rand.New(rand.NewSource(seed)),
		koThreshold:    koThreshold,
		deathThreshold: deathThreshold,
	}
}

// Resolve applies the weighted body-part roll, damage formula, and block
// roll to one AttackIntent against the target's current per-part health
// array, returning the outcome and the updated array. The passed array is
// not mutated in place.
func (c *Combat) Resolve(intent AttackIntent, health [bodyPartCount]float32) (AttackOutcome, [bodyPartCount]float32) {
	part := c.rollBodyPart()
	variance := 0.8 + c.rng.Float32()*0.4 // rand(0.8..1.2)
	defenseFactor := 1 - min32(intent.Defense/100, 0.9)
	damage := intent.BaseDamage * variance * defenseFactor

	cut, blunt := splitDamage(damage, intent.Weapon)

	blocked := c.rng.Float32() < blockChance
	if blocked {
		cut *= blockMultiplier
		blunt *= blockMultiplier
	}

	total := cut + blunt
	health[part] -= total

	outcome := AttackOutcome{
		Part:        part,
		CutDamage:   cut,
		BluntDamage: blunt,
		TotalDamage: total,
		Blocked:     blocked,
	}
	if health[part] <= c.koThreshold {
		outcome.KO = true
	}
	if (part == Chest || part == Head) && health[part] <= c.deathThreshold {
		outcome.Killed = true
	}

	return outcome, health
}

func splitDamage(damage float32, weapon WeaponType) (cut, blunt float32) {
	switch weapon {
	case Melee:
		return damage * 0.5, damage * 0.5
	default:
		return damage, 0
	}
}

func (c *Combat) rollBodyPart() BodyPart {
	total := 0
	for _, e := range bodyPartTable {
		total += e.weight
	}
	roll := c.rng.Intn(total)
	acc := 0
	for _, e := range bodyPartTable {
		acc += e.weight
		if roll < acc {
			return e.part
		}
	}
	return bodyPartTable[len(bodyPartTable)-1].part
}

func min32(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}
