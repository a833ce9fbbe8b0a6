// Copyright (C) 2024-2026, Ring Coordinator Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package server

import (
	"fmt"

	"github.com/The404Studios/ring-coordinator/internal/netid"
)

func versionString(v Version) string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// HandshakeAck is returned to a client whose version negotiation succeeded.
type HandshakeAck struct {
	PlayerID      netid.ID
	ServerVersion Version
	TickRateHz    int
}

// HandshakeReject is returned when negotiation fails.
type HandshakeReject struct {
	Reason string
}

// ServerVersion is this build's protocol version.
var ServerVersion = Version{Major: 1, Minor: 0, Patch: 0}

// Handshake negotiates protocol compatibility and, on success, registers
// the connecting client as a ConnectedPlayer (spec §4.8).
func (s *Server) Handshake(playerID netid.ID, displayName string, clientVersion Version) (HandshakeAck, *HandshakeReject) {
	if !clientVersion.Compatible(ServerVersion) {
		return HandshakeAck{}, &HandshakeReject{
			Reason: fmt.Sprintf("client version %s incompatible with server version %s", clientVersion, ServerVersion),
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.players) >= s.maxPlayers {
		return HandshakeAck{}, &HandshakeReject{Reason: "server full"}
	}

	s.players[playerID] = &ConnectedPlayer{
		PlayerID:        playerID,
		DisplayName:     displayName,
		ProtocolVersion: clientVersion,
	}

	return HandshakeAck{PlayerID: playerID, ServerVersion: ServerVersion, TickRateHz: s.tickRateHz}, nil
}
