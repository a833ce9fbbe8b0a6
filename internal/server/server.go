// Copyright (C) 2024-2026, Ring Coordinator Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package server

import (
	"errors"
	"fmt"
	"sync"

	"github.com/luxfi/log"

	"github.com/The404Studios/ring-coordinator/internal/netid"
)

// ErrPlayerNotConnected is returned by operations targeting an unknown
// player.
var ErrPlayerNotConnected = errors.New("server: player not connected")

// Server owns the gameplay-facing bookkeeping layered on top of the
// replication core: connected players, server-tracked entities, and the
// subsystems (combat, interest, handshake, snapshot, admin) that operate
// on them.
type Server struct {
	log        log.Logger
	tickRateHz int
	maxPlayers int

	mu       sync.Mutex
	players  map[netid.ID]*ConnectedPlayer
	entities map[netid.ID]*ServerEntity

	Interest *InterestFilter
	Combat   *Combat
}

// Config groups Server's construction-time tunables.
type Config struct {
	TickRateHz     int
	MaxPlayers     int
	CombatSeed     int64
	KOThreshold    float32
	DeathThreshold float32
}

// New constructs a Server.
func New(logger log.Logger, cfg Config) *Server {
	return &Server{
		log:        logger,
		tickRateHz: cfg.TickRateHz,
		maxPlayers: cfg.MaxPlayers,
		players:    make(map[netid.ID]*ConnectedPlayer),
		entities:   make(map[netid.ID]*ServerEntity),
		Interest:   NewInterestFilter(),
		Combat:     NewCombat(cfg.CombatSeed, cfg.KOThreshold, cfg.DeathThreshold),
	}
}

// RegisterEntity adds or replaces the server's bookkeeping record for an
// entity, mirroring a ContainerRing registration.
func (s *Server) RegisterEntity(e ServerEntity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := e
	s.entities[e.ID] = &cp
}

// UnregisterEntity removes an entity. Idempotent.
func (s *Server) UnregisterEntity(id netid.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entities, id)
}

// MoveEntityZone updates an entity's tracked zone. Zone changes are not
// derived from Transform commits; the caller reports them.
func (s *Server) MoveEntityZone(id netid.ID, zone [2]int32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entities[id]; ok {
		e.Zone = zone
	}
}

// Disconnect marks a player as gone without removing their record
// outright, so a brief reconnect window can reuse it.
func (s *Server) Disconnect(id netid.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.players[id]; ok {
		p.Disconnected = true
	}
}

// Player returns a copy of a connected player's record.
func (s *Server) Player(id netid.ID) (ConnectedPlayer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.players[id]
	if !ok {
		return ConnectedPlayer{}, false
	}
	return *p, true
}

// EntitiesInZone returns the server's tracked entities within interest
// range of playerZone, excluding any entity owned by playerID (spec §4.8).
func (s *Server) EntitiesInZone(playerID netid.ID, playerZone [2]int32) []ServerEntity {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := make([]ServerEntity, 0, len(s.entities))
	for _, e := range s.entities {
		all = append(all, *e)
	}
	return s.Interest.Filter(playerID, playerZone, all)
}

// ResolveAttack validates and resolves one AttackIntent (spec §4.8): the
// attacker entity must be owned by callerID, and the target must exist and
// be alive. Defense is the flat damage-reduction stat fed into the damage
// formula; this server doesn't derive it from Equipment/TemplateID itself
// (no item/template catalog is in scope here), so callers that want
// equipment to matter must look it up and pass it in.
func (s *Server) ResolveAttack(callerID, attackerID, targetID netid.ID, baseDamage, defense float32, weapon WeaponType) (AttackOutcome, error) {
	s.mu.Lock()
	attacker, ok := s.entities[attackerID]
	if !ok || attacker.OwnerID != callerID {
		s.mu.Unlock()
		return AttackOutcome{}, fmt.Errorf("server: attacker %s not owned by %s", attackerID, callerID)
	}
	target, ok := s.entities[targetID]
	if !ok || !target.Alive {
		s.mu.Unlock()
		return AttackOutcome{}, fmt.Errorf("server: target %s not alive", targetID)
	}
	health := target.Health
	s.mu.Unlock()

	outcome, newHealth := s.Combat.Resolve(AttackIntent{
		AttackerID: attackerID,
		TargetID:   targetID,
		BaseDamage: baseDamage,
		Defense:    defense,
		Weapon:     weapon,
	}, health)

	s.mu.Lock()
	defer s.mu.Unlock()
	if target, ok := s.entities[targetID]; ok {
		target.Health = newHealth
		if outcome.Killed {
			target.Alive = false
		}
	}
	return outcome, nil
}

// PlayerCount reports the number of connected (non-disconnected) players.
func (s *Server) PlayerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, p := range s.players {
		if !p.Disconnected {
			n++
		}
	}
	return n
}
