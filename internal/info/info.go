// Copyright (C) 2024-2026, Ring Coordinator Authors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package info implements the InfoRing: fact intake, validation, confidence
// scoring, and per-(subject,schema) arbitration (spec §4.3).
package info

import (
	"github.com/The404Studios/ring-coordinator/internal/frame"
	"github.com/The404Studios/ring-coordinator/internal/netid"
	"github.com/The404Studios/ring-coordinator/internal/schema"
)

// AuthoritySource is the closed, ranked source enum from spec §3. Higher
// Rank wins ties.
type AuthoritySource uint8

const (
	CachedLastKnown AuthoritySource = iota
	DerivedCalculation
	PeerReport
	LocalOwned
	ServerCommit
)

// Rank returns the authority's position in the fixed priority order,
// highest wins on ties: ServerCommit > LocalOwned > PeerReport >
// DerivedCalculation > CachedLastKnown.
func (a AuthoritySource) Rank() int { return int(a) }

func (a AuthoritySource) String() string {
	switch a {
	case ServerCommit:
		return "ServerCommit"
	case LocalOwned:
		return "LocalOwned"
	case PeerReport:
		return "PeerReport"
	case DerivedCalculation:
		return "DerivedCalculation"
	case CachedLastKnown:
		return "CachedLastKnown"
	default:
		return "Unknown"
	}
}

// authorityBonus is the deterministic confidence modifier from spec §4.3.
func (a AuthoritySource) authorityBonus() float64 {
	switch a {
	case ServerCommit:
		return 0.25
	case LocalOwned:
		return 0.15
	case PeerReport:
		return 0.0
	case DerivedCalculation:
		return -0.1
	case CachedLastKnown:
		return -0.2
	default:
		return 0
	}
}

// Info is the unit crossing the InfoRing (spec §3).
type Info struct {
	Tick           uint64
	Subject        netid.ID
	Authority      AuthoritySource
	Source         netid.ID
	Frame          frame.Type
	Schema         schema.ID
	Payload        any
	Confidence     float64
	ObservedAtTick uint64
}

// key identifies the (subject, schema) pair arbitration operates over.
type key struct {
	subject netid.ID
	schema  schema.ID
}
