// Copyright (C) 2024-2026, Ring Coordinator Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package server

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/The404Studios/ring-coordinator/internal/netid"
)

// ErrUnknownCommand is returned for an unrecognized admin verb.
var ErrUnknownCommand = errors.New("server: unknown admin command")

// AdminDispatcher is a line-oriented command surface over the
// ConnectedPlayer registry (status/players/kick/say/save/stop), the
// resolution the Open Questions section settled on for an admin surface
// with no ambient operator protocol in the distilled spec.
type AdminDispatcher struct {
	srv      *Server
	onSave   func() error
	onStop   func()
}

// NewAdminDispatcher constructs a dispatcher bound to srv. onSave persists
// the current snapshot; onStop begins a graceful shutdown.
func NewAdminDispatcher(srv *Server, onSave func() error, onStop func()) *AdminDispatcher {
	return &AdminDispatcher{srv: srv, onSave: onSave, onStop: onStop}
}

// Dispatch parses and executes one admin command line, returning its
// textual response.
func (a *AdminDispatcher) Dispatch(line string) (string, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil
	}

	switch strings.ToLower(fields[0]) {
	case "status":
		return a.status(), nil
	case "players":
		return a.listPlayers(), nil
	case "kick":
		if len(fields) < 2 {
			return "", fmt.Errorf("usage: kick <playerId>")
		}
		return a.kick(fields[1])
	case "attack":
		if len(fields) < 4 {
			return "", fmt.Errorf("usage: attack <playerHandle> <targetNpcHandle> <baseDamage>")
		}
		return a.attack(fields[1], fields[2], fields[3])
	case "say":
		return fmt.Sprintf("broadcast: %s", strings.Join(fields[1:], " ")), nil
	case "save":
		if a.onSave == nil {
			return "", errors.New("server: save not wired")
		}
		if err := a.onSave(); err != nil {
			return "", err
		}
		return "snapshot saved", nil
	case "stop":
		if a.onStop != nil {
			a.onStop()
		}
		return "stopping", nil
	default:
		return "", ErrUnknownCommand
	}
}

func (a *AdminDispatcher) status() string {
	a.srv.mu.Lock()
	defer a.srv.mu.Unlock()
	return fmt.Sprintf("players=%d entities=%d", len(a.srv.players), len(a.srv.entities))
}

func (a *AdminDispatcher) listPlayers() string {
	a.srv.mu.Lock()
	defer a.srv.mu.Unlock()

	var sb strings.Builder
	for id, p := range a.srv.players {
		fmt.Fprintf(&sb, "%s %s\n", id, p.DisplayName)
	}
	return sb.String()
}

// attack resolves a debug AttackIntent against an NPC target, assuming the
// console's caller and attacker entity are the same player (spec §4.8's
// attacker-ownership check), for exercising Combat outside unit tests.
func (a *AdminDispatcher) attack(playerRaw, targetRaw, damageRaw string) (string, error) {
	playerHandle, err := strconv.ParseUint(playerRaw, 10, 56)
	if err != nil {
		return "", fmt.Errorf("server: invalid player id %q: %w", playerRaw, err)
	}
	targetHandle, err := strconv.ParseUint(targetRaw, 10, 56)
	if err != nil {
		return "", fmt.Errorf("server: invalid target id %q: %w", targetRaw, err)
	}
	damage, err := strconv.ParseFloat(damageRaw, 32)
	if err != nil {
		return "", fmt.Errorf("server: invalid base damage %q: %w", damageRaw, err)
	}

	player := netid.New(netid.Player, playerHandle)
	target := netid.New(netid.NPC, targetHandle)

	outcome, err := a.srv.ResolveAttack(player, player, target, float32(damage), 0, Melee)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("hit part=%d cut=%.2f blunt=%.2f blocked=%t ko=%t killed=%t",
		outcome.Part, outcome.CutDamage, outcome.BluntDamage, outcome.Blocked, outcome.KO, outcome.Killed), nil
}

func (a *AdminDispatcher) kick(raw string) (string, error) {
	handle, err := strconv.ParseUint(raw, 10, 56)
	if err != nil {
		return "", fmt.Errorf("server: invalid player id %q: %w", raw, err)
	}
	id := netid.New(netid.Player, handle)

	a.srv.mu.Lock()
	defer a.srv.mu.Unlock()
	if _, ok := a.srv.players[id]; !ok {
		return "", fmt.Errorf("server: player %s not connected", id)
	}
	delete(a.srv.players, id)
	return fmt.Sprintf("kicked %s", id), nil
}
