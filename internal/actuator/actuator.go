// Copyright (C) 2024-2026, Ring Coordinator Authors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package actuator defines the port the DataBus writes committed facts
// through into whatever owns the live simulation state (an ECS, a physics
// body, a plain struct) and an in-memory implementation used by
// tests and by any subject with no external simulation backing it.
package actuator

import (
	"errors"
	"sync"

	"github.com/The404Studios/ring-coordinator/internal/netid"
	"github.com/The404Studios/ring-coordinator/internal/schema"
)

// ErrFieldNotFound is returned by ReadField when the (subject, schema) slot
// has never been written.
var ErrFieldNotFound = errors.New("actuator: field not found")

// MemoryActuator is the port the DataBus drives (spec
// §4.6): read the field currently held for a subject's schema slot, write a
// new value into it, and report whether a value is currently valid.
type MemoryActuator interface {
	ReadField(subject netid.ID, schemaID schema.ID) (any, error)
	WriteField(subject netid.ID, schemaID schema.ID, value any) error
	HandleValid(subject netid.ID, schemaID schema.ID) bool
}

type slot struct {
	subject netid.ID
	schema  schema.ID
}

// InMemory is a MemoryActuator backed by a plain guarded map, standing in
// for the external simulation in tests and for server-only entities that
// have no actuator handle of their own (container.Record.ActuatorHandle ==
// nil, spec §3).
type InMemory struct {
	mu     sync.RWMutex
	values map[slot]any
}

// NewInMemory constructs an empty in-memory actuator.
func NewInMemory() *InMemory {
	return &InMemory{values: make(map[slot]any)}
}

func (a *InMemory) ReadField(subject netid.ID, schemaID schema.ID) (any, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	v, ok := a.values[slot{subject, schemaID}]
	if !ok {
		return nil, ErrFieldNotFound
	}
	return v, nil
}

func (a *InMemory) WriteField(subject netid.ID, schemaID schema.ID, value any) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.values[slot{subject, schemaID}] = value
	return nil
}

func (a *InMemory) HandleValid(subject netid.ID, schemaID schema.ID) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	_, ok := a.values[slot{subject, schemaID}]
	return ok
}
