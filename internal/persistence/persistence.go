// Copyright (C) 2024-2026, Ring Coordinator Authors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package persistence wraps github.com/luxfi/database for the server's
// periodic world-snapshot save/restore (spec §4.8), the way the teacher's
// engine/dag/state package wraps the same database.Database port for
// vertex storage.
package persistence

// KVStore is the subset of github.com/luxfi/database's Database interface
// the snapshot store needs. Any *database.Database the caller opens
// (cmd/ringd wires a real one) satisfies this structurally; scoping it
// down here keeps the snapshot store testable without reimplementing the
// rest of that interface (iterators, batches, health checks) in a fake.
type KVStore interface {
	Has(key []byte) (bool, error)
	Get(key []byte) ([]byte, error)
	Put(key, value []byte) error
	Close() error
}

// snapshotKey is the single fixed key the current snapshot blob is stored
// under; the store is intentionally opaque, so the schema of the blob is
// entirely owned by the caller (server.Snapshot's JSON encoding).
var snapshotKey = []byte("ringcoordinator/snapshot/current")

// Store persists and restores an opaque world-snapshot blob.
type Store struct {
	db KVStore
}

// NewStore wraps an already-open database.Database.
func NewStore(db KVStore) *Store {
	return &Store{db: db}
}

// Save overwrites the current snapshot.
func (s *Store) Save(blob []byte) error {
	return s.db.Put(snapshotKey, blob)
}

// Load returns the current snapshot, or (nil, false) if none has been
// saved yet.
func (s *Store) Load() ([]byte, bool, error) {
	has, err := s.db.Has(snapshotKey)
	if err != nil || !has {
		return nil, false, err
	}
	blob, err := s.db.Get(snapshotKey)
	if err != nil {
		return nil, false, err
	}
	return blob, true, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
