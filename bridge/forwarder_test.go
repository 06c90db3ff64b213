// Copyright 2024 The Heapbridge Authors
// This file is part of Heapbridge.
//
// Heapbridge is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Heapbridge is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with Heapbridge. If not, see <http://www.gnu.org/licenses/>.

package bridge

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/turbo-db/heapbridge/wire"
)

// fakeUpstream accepts exactly one connection and runs handle against it.
func fakeUpstream(t *testing.T, handle func(*wire.Framer)) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		handle(wire.NewFramer(conn))
	}()
	return ln.Addr().String()
}

func newInboundPair(t *testing.T, destAddr string) (*wire.Framer, *Forwarder, context.CancelFunc) {
	t.Helper()
	clientConn, serverConn := net.Pipe()
	t.Cleanup(func() { _ = clientConn.Close() })
	policies := NewPolicyTable()
	commands := NewCommandRegistry()
	f := NewForwarder(serverConn, destAddr, policies, commands)
	ctx, cancel := context.WithCancel(context.Background())
	go f.Run(ctx)
	return wire.NewFramer(clientConn), f, cancel
}

// S4 — admin command updates the policy table and replies OK.
func TestForwarderAdminCommandUpdatesPolicy(t *testing.T) {
	dest := fakeUpstream(t, func(*wire.Framer) {})
	clientConn, f, cancel := newInboundPair(t, dest)
	defer cancel()

	req, err := wire.NewCommand(1, "admin", "delayMessagesFrom",
		bson.D{{Key: "$forBridge", Value: true}},
		bson.D{{Key: "host", Value: "10.0.0.1:27017"}, {Key: "delay", Value: int32(200)}})
	require.NoError(t, err)

	ctx, done := context.WithTimeout(context.Background(), 2*time.Second)
	defer done()
	resp, err := clientConn.Call(ctx, req)
	require.NoError(t, err)
	require.Equal(t, wire.OpCommandReply, resp.OpCode())
	require.EqualValues(t, 1, resp.ResponseTo())

	ok, err := resp.CommandArgs().LookupErr("ok")
	require.NoError(t, err)
	require.EqualValues(t, 1, ok.Int32())

	p := f.policies.Get("10.0.0.1:27017")
	require.Equal(t, StateForward, p.State)
	require.Equal(t, 200*time.Millisecond, p.Delay)
}

// S5 — a rejected host's connection is closed, nothing forwarded upstream.
func TestForwarderRejectsKnownHangUpHost(t *testing.T) {
	upstreamSawTraffic := make(chan struct{}, 1)
	dest := fakeUpstream(t, func(upstream *wire.Framer) {
		ctx, done := context.WithTimeout(context.Background(), time.Second)
		defer done()
		if _, err := upstream.Recv(ctx); err == nil {
			upstreamSawTraffic <- struct{}{}
		}
	})
	clientConn, f, cancel := newInboundPair(t, dest)
	defer cancel()

	f.policies.SetReject("10.0.0.1:27017")

	query, err := wire.NewQuery(2, 0, "test.$cmd", bson.D{{Key: "ping", Value: 1}, {Key: "hostInfo", Value: "10.0.0.1:27017"}})
	require.NoError(t, err)

	ctx, done := context.WithTimeout(context.Background(), 2*time.Second)
	defer done()
	_ = clientConn.Say(query, 0)

	_, err = clientConn.Recv(ctx)
	require.Error(t, err)

	select {
	case <-upstreamSawTraffic:
		t.Fatal("upstream should not have received traffic for a rejected host")
	case <-time.After(200 * time.Millisecond):
	}
}

// S6 — exhaust streaming forwards every reply through cursorId 0.
func TestForwarderExhaustStreaming(t *testing.T) {
	dest := fakeUpstream(t, func(upstream *wire.Framer) {
		ctx, done := context.WithTimeout(context.Background(), 2*time.Second)
		defer done()
		req, err := upstream.Recv(ctx)
		if err != nil {
			return
		}
		reply1, _ := wire.NewReply(1, req.RequestID(), 42, bson.D{{Key: "batch", Value: 1}})
		_ = upstream.Say(reply1, req.RequestID())
		reply2, _ := wire.NewReply(1, req.RequestID(), 42, bson.D{{Key: "batch", Value: 2}})
		_ = upstream.Say(reply2, req.RequestID())
		reply3, _ := wire.NewReply(1, req.RequestID(), 0, bson.D{{Key: "batch", Value: 3}})
		_ = upstream.Say(reply3, req.RequestID())
	})
	clientConn, _, cancel := newInboundPair(t, dest)
	defer cancel()

	query, err := wire.NewQuery(9, wire.QueryFlagExhaust, "test.widgets", bson.D{{Key: "find", Value: "widgets"}})
	require.NoError(t, err)

	ctx, done := context.WithTimeout(context.Background(), 2*time.Second)
	defer done()
	_ = clientConn.Say(query, 0)

	var cursorIDs []int64
	for i := 0; i < 3; i++ {
		resp, err := clientConn.Recv(ctx)
		require.NoError(t, err)
		require.EqualValues(t, 9, resp.ResponseTo())
		cursorIDs = append(cursorIDs, resp.CursorID())
	}
	require.Equal(t, []int64{42, 42, 0}, cursorIDs)
}

// S6b — an exhaust query whose first reply already carries cursorId 0 must
// not trigger a further upstream read; the server sends nothing more.
func TestForwarderExhaustStopsOnFirstZeroCursor(t *testing.T) {
	extraRead := make(chan struct{}, 1)
	dest := fakeUpstream(t, func(upstream *wire.Framer) {
		ctx, done := context.WithTimeout(context.Background(), 2*time.Second)
		defer done()
		req, err := upstream.Recv(ctx)
		if err != nil {
			return
		}
		reply, _ := wire.NewReply(1, req.RequestID(), 0, bson.D{{Key: "batch", Value: 1}})
		_ = upstream.Say(reply, req.RequestID())

		shortCtx, shortDone := context.WithTimeout(context.Background(), 200*time.Millisecond)
		defer shortDone()
		if _, err := upstream.Recv(shortCtx); err == nil {
			extraRead <- struct{}{}
		}
	})
	clientConn, _, cancel := newInboundPair(t, dest)
	defer cancel()

	query, err := wire.NewQuery(9, wire.QueryFlagExhaust, "test.widgets", bson.D{{Key: "find", Value: "widgets"}})
	require.NoError(t, err)

	ctx, done := context.WithTimeout(context.Background(), 2*time.Second)
	defer done()
	_ = clientConn.Say(query, 0)

	resp, err := clientConn.Recv(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 0, resp.CursorID())

	select {
	case <-extraRead:
		t.Fatal("forwarder should not have issued a second upstream read after cursorId 0")
	case <-time.After(300 * time.Millisecond):
	}
}
