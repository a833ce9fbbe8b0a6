// Copyright (C) 2024-2026, Ring Coordinator Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package transport

import (
	"context"
	"reflect"

	"go.uber.org/mock/gomock"

	"github.com/The404Studios/ring-coordinator/internal/netid"
)

// MockNetworkTransport is a hand-written gomock double for NetworkTransport,
// following the shape mockgen would generate, used where a test needs to
// assert call ordering/arguments rather than just inspect queued state.
type MockNetworkTransport struct {
	ctrl     *gomock.Controller
	recorder *MockNetworkTransportMockRecorder
}

type MockNetworkTransportMockRecorder struct {
	mock *MockNetworkTransport
}

func NewMockNetworkTransport(ctrl *gomock.Controller) *MockNetworkTransport {
	m := &MockNetworkTransport{ctrl: ctrl}
	m.recorder = &MockNetworkTransportMockRecorder{mock: m}
	return m
}

func (m *MockNetworkTransport) EXPECT() *MockNetworkTransportMockRecorder {
	return m.recorder
}

func (m *MockNetworkTransport) SendReliable(ctx context.Context, peer netid.ID, f Frame, ch Channel) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "SendReliable", ctx, peer, f, ch)
	err, _ := ret[0].(error)
	return err
}

func (mr *MockNetworkTransportMockRecorder) SendReliable(ctx, peer, f, ch any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "SendReliable",
		reflect.TypeOf((*MockNetworkTransport)(nil).SendReliable), ctx, peer, f, ch)
}

func (m *MockNetworkTransport) SendUnreliable(ctx context.Context, peer netid.ID, f Frame, ch Channel) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "SendUnreliable", ctx, peer, f, ch)
	err, _ := ret[0].(error)
	return err
}

func (mr *MockNetworkTransportMockRecorder) SendUnreliable(ctx, peer, f, ch any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "SendUnreliable",
		reflect.TypeOf((*MockNetworkTransport)(nil).SendUnreliable), ctx, peer, f, ch)
}

func (m *MockNetworkTransport) Broadcast(ctx context.Context, f Frame, ch Channel) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Broadcast", ctx, f, ch)
	err, _ := ret[0].(error)
	return err
}

func (mr *MockNetworkTransportMockRecorder) Broadcast(ctx, f, ch any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Broadcast",
		reflect.TypeOf((*MockNetworkTransport)(nil).Broadcast), ctx, f, ch)
}

func (m *MockNetworkTransport) Poll(ctx context.Context) ([]InboundFrame, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Poll", ctx)
	frames, _ := ret[0].([]InboundFrame)
	err, _ := ret[1].(error)
	return frames, err
}

func (mr *MockNetworkTransportMockRecorder) Poll(ctx any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Poll",
		reflect.TypeOf((*MockNetworkTransport)(nil).Poll), ctx)
}

var _ NetworkTransport = (*MockNetworkTransport)(nil)
