// Copyright (C) 2024-2026, Ring Coordinator Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package transport

import (
	"context"
	"sync"

	"github.com/The404Studios/ring-coordinator/internal/netid"
)

// LoopbackTransport is an in-process NetworkTransport: everything sent
// through it is queued straight back into its own Poll() inbox instead of
// going over a socket. It exists so a single ringd process exercises the
// full inbound/outbound wire path (spec §4.1 step 1, §4.7) without needing
// a second peer — every reliable/unreliable send and broadcast the
// coordinator makes is decoded by the same process on its next Poll, the
// way a solo server talking to its own locally-simulated client would.
type LoopbackTransport struct {
	self netid.ID

	mu    sync.Mutex
	inbox []InboundFrame
}

// NewLoopbackTransport constructs a transport that loops everything back to
// self, the peer id frames are tagged with on arrival.
func NewLoopbackTransport(self netid.ID) *LoopbackTransport {
	return &LoopbackTransport{self: self}
}

func (l *LoopbackTransport) enqueue(f Frame) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.inbox = append(l.inbox, InboundFrame{Peer: l.self, Frame: f})
}

// SendReliable loops f back regardless of the named peer; there's only one
// process on the other end.
func (l *LoopbackTransport) SendReliable(_ context.Context, _ netid.ID, f Frame, _ Channel) error {
	l.enqueue(f)
	return nil
}

// SendUnreliable behaves identically to SendReliable: loopback delivery
// never drops a frame.
func (l *LoopbackTransport) SendUnreliable(_ context.Context, _ netid.ID, f Frame, _ Channel) error {
	l.enqueue(f)
	return nil
}

// Broadcast loops f back once.
func (l *LoopbackTransport) Broadcast(_ context.Context, f Frame, _ Channel) error {
	l.enqueue(f)
	return nil
}

// Poll drains and returns everything queued since the last Poll.
func (l *LoopbackTransport) Poll(_ context.Context) ([]InboundFrame, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := l.inbox
	l.inbox = nil
	return out, nil
}

var _ NetworkTransport = (*LoopbackTransport)(nil)
