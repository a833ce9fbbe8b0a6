// Copyright (C) 2024-2026, Ring Coordinator Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package server

import "time"

// TimeSync is the clock-alignment message for connected players (spec
// §4.8), letting clients estimate clock offset and RTT the way the wire
// framing's timestampMs field assumes they can. Nothing in this repository
// sends it over a transport.
type TimeSync struct {
	ServerTimeMs int64
	Tick         uint64
}

// ShouldSync reports whether at least interval has elapsed since lastSync,
// a gate for emitting the next TimeSync.
func ShouldSync(lastSync time.Time, now time.Time, interval time.Duration) bool {
	return now.Sub(lastSync) >= interval
}

// BuildTimeSync captures the current tick and wall-clock time.
func (s *Server) BuildTimeSync(tick uint64, now time.Time) TimeSync {
	return TimeSync{ServerTimeMs: now.UnixMilli(), Tick: tick}
}
