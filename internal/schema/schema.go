// Copyright (C) 2024-2026, Ring Coordinator Authors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package schema enumerates the typed fact slots (SchemaId) that flow
// through the InfoRing and AuthorityRing: each has a validator, a merge
// policy, a wire serializer, and a staleness budget.
package schema

import (
	"errors"
	"fmt"
)

// ID names a typed slot. Enumerated at build time; unknown schemas are
// dropped with a diagnostic (spec §3).
type ID uint16

const (
	Transform ID = iota
	Health
	FactionID
	AnimState
)

func (s ID) String() string {
	switch s {
	case Transform:
		return "Transform"
	case Health:
		return "Health"
	case FactionID:
		return "FactionId"
	case AnimState:
		return "AnimState"
	default:
		return fmt.Sprintf("Schema(%d)", uint16(s))
	}
}

// MergePolicy is the schema-specific merge rule (spec §4.4). AuthorityRing
// records it on each Commit as its Operation; the Commit's payload is the
// winning Info's payload as it arrived, so no policy combines it with an
// earlier commit.
type MergePolicy uint8

const (
	Set MergePolicy = iota
	Delta
	Clear
)

// Validator checks that a payload is well-formed for its schema.
type Validator func(payload any) error

// Serializer encodes/decodes a schema payload for the wire (spec §4.7).
type Serializer interface {
	Encode(payload any) ([]byte, error)
	Decode(data []byte) (any, error)
}

// Descriptor bundles everything the registry needs for one SchemaId.
type Descriptor struct {
	ID             ID
	Validator      Validator
	MergePolicy    MergePolicy
	Serializer     Serializer
	StalenessTicks uint64
	// ClearDefault is the schema's reset value for the Clear merge policy.
	// No ring in this repository reads it.
	ClearDefault any
}

var ErrUnknownSchema = errors.New("schema: unknown schema id")

// Registry is the build-time table of known schemas.
type Registry struct {
	descriptors map[ID]Descriptor
}

// NewRegistry returns a registry pre-populated with the four built-in
// schemas named in spec §3: Transform, Health, FactionId, AnimState.
func NewRegistry() *Registry {
	r := &Registry{descriptors: make(map[ID]Descriptor, 8)}
	r.Register(transformDescriptor())
	r.Register(healthDescriptor())
	r.Register(factionDescriptor())
	r.Register(animStateDescriptor())
	return r
}

// Register adds or replaces a schema descriptor.
func (r *Registry) Register(d Descriptor) {
	r.descriptors = cloneAndSet(r.descriptors, d)
}

func cloneAndSet(m map[ID]Descriptor, d Descriptor) map[ID]Descriptor {
	m[d.ID] = d
	return m
}

// Lookup returns the descriptor for a schema id, or false if unknown.
func (r *Registry) Lookup(id ID) (Descriptor, bool) {
	d, ok := r.descriptors[id]
	return d, ok
}

// Validate runs the schema's validator, translating an unknown schema into
// ErrUnknownSchema rather than panicking (spec §7: pipeline never panics on
// data errors).
func (r *Registry) Validate(id ID, payload any) error {
	d, ok := r.Lookup(id)
	if !ok {
		return ErrUnknownSchema
	}
	if d.Validator == nil {
		return nil
	}
	return d.Validator(payload)
}
