// Copyright (C) 2024-2026, Ring Coordinator Authors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package container implements the ContainerRing: the entity registry that
// owns the mapping from NetId to metadata (spec §4.2).
package container

import (
	"errors"
	"sync"

	"github.com/luxfi/log"

	"github.com/The404Studios/ring-coordinator/internal/frame"
	"github.com/The404Studios/ring-coordinator/internal/netid"
)

// ErrAlreadyRegistered is returned by Register when the id is already live.
var ErrAlreadyRegistered = errors.New("container: already registered")

// ActuatorHandle is an opaque handle into the external simulation; nil for
// remote-only entities (spec §3).
type ActuatorHandle any

// Record is the per-entity metadata the ring owns.
type Record struct {
	ID             netid.ID
	Kind           netid.EntityKind
	Frame          frame.Type
	ActuatorHandle ActuatorHandle
	AuthorityEpoch uint64
	OwnerPlayerID  netid.ID
	Zone           [2]int32
	CreatedTick    uint64
	LastLiveTick   uint64
}

// Ring is the ContainerRing. The tick thread is its only writer; Lookup may
// be called concurrently from observer threads (spec §5).
type Ring struct {
	log log.Logger

	mu       sync.RWMutex
	records  map[netid.ID]*Record
	order    []netid.ID // insertion order, for LiveEntities
	unknownLookups uint64
}

// New constructs an empty ContainerRing.
func New(logger log.Logger) *Ring {
	return &Ring{
		log:     logger,
		records: make(map[netid.ID]*Record),
	}
}

// Register adds a new entity. Idempotent registration is an error (spec
// §4.2); callers that want idempotent semantics should Lookup first.
func (r *Ring) Register(id netid.ID, kind netid.EntityKind, f frame.Type, handle ActuatorHandle, tick uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.records[id]; exists {
		return ErrAlreadyRegistered
	}

	r.records[id] = &Record{
		ID:             id,
		Kind:           kind,
		Frame:          f,
		ActuatorHandle: handle,
		CreatedTick:    tick,
		LastLiveTick:   tick,
	}
	r.order = append(r.order, id)
	return nil
}

// Unregister removes an entity. Idempotent: unregistering an unknown or
// already-removed id is a silent no-op (spec §3, §4.2, testable property 7).
func (r *Ring) Unregister(id netid.ID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.records[id]; !exists {
		return
	}
	delete(r.records, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Lookup returns a copy of the record for id, or false if unknown. Lookups
// of unknown ids never panic; they increment a diagnostic counter (spec
// §4.2 failure model).
func (r *Ring) Lookup(id netid.ID) (Record, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[id]
	if !ok {
		r.unknownLookups++
		return Record{}, false
	}
	return *rec, true
}

// UnknownLookups reports how many Lookup calls missed, for diagnostics.
func (r *Ring) UnknownLookups() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.unknownLookups
}

// LiveEntities returns the currently registered ids in insertion order.
func (r *Ring) LiveEntities() []netid.ID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]netid.ID, len(r.order))
	copy(out, r.order)
	return out
}

// BumpEpoch advances an entity's authorityEpoch monotonically. Called by
// AuthorityRing on every commit. A no-op if the entity no longer exists,
// per spec §4.2: "removal from the registry invalidates any later commit
// for that id in the same tick".
func (r *Ring) BumpEpoch(id netid.ID) (newEpoch uint64, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, exists := r.records[id]
	if !exists {
		return 0, false
	}
	rec.AuthorityEpoch++
	return rec.AuthorityEpoch, true
}

// TouchLive refreshes an entity's lastLiveTick, called whenever a commit or
// observation for it is processed.
func (r *Ring) TouchLive(id netid.ID, tick uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec, ok := r.records[id]; ok {
		rec.LastLiveTick = tick
	}
}

// ExpireStale times out entities whose lastLiveTick predates
// currentTick-entityTtlTicks (spec §4.1 step 2), returning the ids removed.
func (r *Ring) ExpireStale(currentTick, entityTTLTicks uint64) []netid.ID {
	r.mu.Lock()
	defer r.mu.Unlock()

	if currentTick < entityTTLTicks {
		return nil
	}
	cutoff := currentTick - entityTTLTicks

	var expired []netid.ID
	for _, id := range r.order {
		rec := r.records[id]
		if rec.LastLiveTick < cutoff {
			expired = append(expired, id)
		}
	}
	for _, id := range expired {
		delete(r.records, id)
	}
	if len(expired) > 0 {
		remaining := r.order[:0]
		expiredSet := make(map[netid.ID]struct{}, len(expired))
		for _, id := range expired {
			expiredSet[id] = struct{}{}
		}
		for _, id := range r.order {
			if _, gone := expiredSet[id]; !gone {
				remaining = append(remaining, id)
			}
		}
		r.order = remaining
		if r.log != nil {
			r.log.Debug("expired stale entities", "count", len(expired), "tick", currentTick)
		}
	}
	return expired
}

// ResolveAttached implements frame.Resolver for AttachedTo frame conversion.
func (r *Ring) ResolveAttached(id netid.ID) (x, y, z float32, ok bool) {
	rec, found := r.Lookup(id)
	if !found {
		return 0, 0, 0, false
	}
	wx, wz := rec.Frame.ToWorldOffset()
	return wx, 0, wz, true
}
