// Copyright (C) 2024-2026, Ring Coordinator Authors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package transport implements the wire frame format and the outbound
// priority queue AuthorityRing commits flow through on their way to peers
// (spec §4.7).
package transport

import (
	"encoding/binary"
	"errors"

	"github.com/The404Studios/ring-coordinator/internal/netid"
)

// PacketType names the payload a Packet carries.
type PacketType uint8

const (
	PositionUpdate PacketType = iota
	EntitySpawn
	EntityDespawn
	HealthUpdate
	AuthorityCommitPacket
	WorldSyncPacket
	AckPacket
)

// Priority orders packets within the outbound queue; Critical drains first.
type Priority uint8

const (
	Critical Priority = iota
	High
	Normal
	Low
)

// Packet is one typed, already-serialized unit within a Frame. EntityID
// names the subject the payload applies to and Tick is the tick the
// AuthorityRing committed it on, so a single coalesced frame can carry
// updates for many different entities and the receiver can attribute each
// packet to its own subject instead of the frame's sender (spec §4.7).
type Packet struct {
	Type     PacketType
	Priority Priority
	EntityID netid.ID
	Tick     int64
	Payload  []byte
}

// Frame is the fixed little-endian wire layout for one outbound batch (spec
// §4.7): tick (8 bytes), timestampMs (8 bytes), packetCount (4 bytes),
// followed by packetCount packets of
// [type(1) priority(1) entityId(8) tick(8) length(4) payload].
type Frame struct {
	Tick        uint64
	TimestampMs uint64
	Packets     []Packet
}

var (
	ErrTruncatedFrame  = errors.New("transport: truncated frame")
	ErrFrameTooLarge   = errors.New("transport: frame exceeds max packet size")
	ErrPacketTooLarge  = errors.New("transport: packet payload exceeds max packet size")
)

// Encode serializes f into the fixed wire layout. maxSize bounds the
// produced frame (config.NetworkConfig.MaxPacketSize); a zero maxSize
// disables the check.
func (f Frame) Encode(maxSize int) ([]byte, error) {
	size := 8 + 8 + 4
	for _, p := range f.Packets {
		size += 1 + 1 + 8 + 8 + 4 + len(p.Payload)
	}
	if maxSize > 0 && size > maxSize {
		return nil, ErrFrameTooLarge
	}

	buf := make([]byte, size)
	binary.LittleEndian.PutUint64(buf[0:8], f.Tick)
	binary.LittleEndian.PutUint64(buf[8:16], f.TimestampMs)
	binary.LittleEndian.PutUint32(buf[16:20], uint32(len(f.Packets)))

	off := 20
	for _, p := range f.Packets {
		buf[off] = byte(p.Type)
		buf[off+1] = byte(p.Priority)
		binary.LittleEndian.PutUint64(buf[off+2:off+10], uint64(p.EntityID))
		binary.LittleEndian.PutUint64(buf[off+10:off+18], uint64(p.Tick))
		binary.LittleEndian.PutUint32(buf[off+18:off+22], uint32(len(p.Payload)))
		copy(buf[off+22:], p.Payload)
		off += 22 + len(p.Payload)
	}
	return buf, nil
}

// DecodeFrame reverses Encode.
func DecodeFrame(data []byte) (Frame, error) {
	if len(data) < 20 {
		return Frame{}, ErrTruncatedFrame
	}
	f := Frame{
		Tick:        binary.LittleEndian.Uint64(data[0:8]),
		TimestampMs: binary.LittleEndian.Uint64(data[8:16]),
	}
	count := binary.LittleEndian.Uint32(data[16:20])
	off := 20
	for i := uint32(0); i < count; i++ {
		if off+22 > len(data) {
			return Frame{}, ErrTruncatedFrame
		}
		ptype := PacketType(data[off])
		priority := Priority(data[off+1])
		entityID := netid.ID(binary.LittleEndian.Uint64(data[off+2 : off+10]))
		tick := int64(binary.LittleEndian.Uint64(data[off+10 : off+18]))
		length := int(binary.LittleEndian.Uint32(data[off+18 : off+22]))
		off += 22
		if off+length > len(data) {
			return Frame{}, ErrTruncatedFrame
		}
		payload := make([]byte, length)
		copy(payload, data[off:off+length])
		off += length
		f.Packets = append(f.Packets, Packet{Type: ptype, Priority: priority, EntityID: entityID, Tick: tick, Payload: payload})
	}
	return f, nil
}
