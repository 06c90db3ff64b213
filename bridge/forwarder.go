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
	"time"

	"github.com/cenkalti/backoff/v4"
	log "github.com/erigontech/erigon-lib/log/v3"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/turbo-db/heapbridge/wire"
)

// Forwarder is the per-inbound-connection session: it reads requests from
// an accepted connection, applies host policy, and relays traffic to a
// single upstream destination dialed for this session alone. Sessions
// never share an upstream connection.
type Forwarder struct {
	inbound  *wire.Framer
	destAddr string
	policies *PolicyTable
	commands CommandRegistry
	remote   string
}

// NewForwarder builds a session wrapping an already-accepted inbound
// connection.
func NewForwarder(inboundConn net.Conn, destAddr string, policies *PolicyTable, commands CommandRegistry) *Forwarder {
	return &Forwarder{
		inbound:  wire.NewFramer(inboundConn),
		destAddr: destAddr,
		policies: policies,
		commands: commands,
		remote:   inboundConn.RemoteAddr().String(),
	}
}

// Run drives the session to completion. It never panics on network
// failure: those end the session quietly. It returns once the session is
// over, whether due to peer disconnect, policy rejection, or an upstream
// dial failure.
func (f *Forwarder) Run(ctx context.Context) {
	defer f.inbound.Shutdown()

	upstreamConn, err := dialWithRetry(ctx, f.destAddr)
	if err != nil {
		log.Warn("[bridge] could not connect to destination, end connection", "dest", f.destAddr, "remote", f.remote, "err", err)
		return
	}
	upstream := wire.NewFramer(upstreamConn)
	defer upstream.Shutdown()

	var originHost string
	receivingFirstMessage := true

	for {
		req, err := f.inbound.Recv(ctx)
		if err != nil {
			log.Info("[bridge] end connection", "remote", f.remote)
			return
		}
		requestID := req.RequestID()

		if req.OpCode() == wire.OpQuery || req.OpCode() == wire.OpCommand {
			if receivingFirstMessage {
				originHost = extractHostInfo(req)
			}
			log.Info("[bridge] received command", "name", req.CommandName(), "args", req.CommandArgs(), "host", hostOrUnknown(originHost))
		}
		receivingFirstMessage = false

		if req.OpCode() == wire.OpCommand && req.ForBridge() {
			reply, err := f.runAdminCommand(req)
			if err != nil {
				return
			}
			if err := f.inbound.Say(reply, requestID); err != nil {
				return
			}
			continue
		}

		policy := f.policies.Get(originHost)
		switch policy.State {
		case StateHangUp:
			log.Info("[bridge] rejecting connection", "host", originHost, "remote", f.remote)
			return
		case StateForward:
			if policy.Delay > 0 {
				timer := time.NewTimer(policy.Delay)
				select {
				case <-timer.C:
				case <-ctx.Done():
					timer.Stop()
					return
				}
			}
		}

		switch req.OpCode() {
		case wire.OpQuery, wire.OpMsg, wire.OpGetMore, wire.OpCommand:
			resp, err := upstream.Call(ctx, req)
			if err != nil {
				log.Info("[bridge] received an empty response, end connection", "remote", f.remote)
				return
			}
			if err := f.inbound.Say(resp, requestID); err != nil {
				return
			}
			if req.OpCode() == wire.OpQuery && req.Flags().Has(wire.QueryFlagExhaust) && resp.CursorID() != 0 {
				if !f.streamExhaust(ctx, upstream, requestID) {
					return
				}
			}
		default:
			_ = upstream.Say(req, requestID)
		}
	}
}

// streamExhaust forwards further upstream replies to inbound until a cursor
// id of zero is seen. Callers only enter this once the reply already sent
// carried a nonzero cursor id; a first reply with cursor id 0 means the
// result fit in one batch and the server will send nothing more, so no
// additional read is attempted. It returns false if the session should end.
func (f *Forwarder) streamExhaust(ctx context.Context, upstream *wire.Framer, requestID int32) bool {
	for {
		resp, err := upstream.Recv(ctx)
		if err != nil {
			return false
		}
		if err := f.inbound.Say(resp, requestID); err != nil {
			return false
		}
		if resp.CursorID() == 0 {
			return true
		}
	}
}

func (f *Forwarder) runAdminCommand(req *wire.Message) (*wire.Message, error) {
	name := req.CommandName()
	cmd, err := f.commands.Lookup(name)
	if err != nil {
		return wire.NewCommandReply(req.RequestID(), req.RequestID(), bson.D{}, commandNotFoundReply(name))
	}
	if runErr := cmd.Run(req.CommandArgs(), f.policies); runErr != nil {
		return wire.NewCommandReply(req.RequestID(), req.RequestID(), bson.D{}, failureReply(runErr))
	}
	return wire.NewCommandReply(req.RequestID(), req.RequestID(), bson.D{}, bson.D{{Key: "ok", Value: int32(1)}})
}

func hostOrUnknown(host string) string {
	if host == "" {
		return "<unknown>"
	}
	return host
}

// extractHostInfo reads the "hostInfo" command argument identifying the
// connecting client. Run latches it once per connection, and only from the
// connection's very first message when that message is an OpQuery or
// OpCommand; otherwise the origin host stays unset.
func extractHostInfo(req *wire.Message) string {
	args := req.CommandArgs()
	if args == nil {
		return ""
	}
	v, err := args.LookupErr("hostInfo")
	if err != nil {
		return ""
	}
	s, ok := v.StringValueOK()
	if !ok {
		return ""
	}
	return s
}

// boundedConstantBackOff retries at a fixed interval until maxElapsed has
// passed since it was first consulted, then reports Stop — the same
// elapsed-time cap backoff.ExponentialBackOff applies internally, just
// with a constant rather than growing interval.
type boundedConstantBackOff struct {
	interval   time.Duration
	maxElapsed time.Duration
	start      time.Time
}

func newBoundedConstantBackOff(interval, maxElapsed time.Duration) *boundedConstantBackOff {
	return &boundedConstantBackOff{interval: interval, maxElapsed: maxElapsed}
}

func (b *boundedConstantBackOff) NextBackOff() time.Duration {
	if b.start.IsZero() {
		b.start = time.Now()
	}
	if time.Since(b.start) > b.maxElapsed {
		return backoff.Stop
	}
	return b.interval
}

func (b *boundedConstantBackOff) Reset() { b.start = time.Time{} }

// dialWithRetry dials addr, retrying every 500ms for up to 30s.
func dialWithRetry(ctx context.Context, addr string) (net.Conn, error) {
	var dialer net.Dialer
	var conn net.Conn
	operation := func() error {
		c, err := dialer.DialContext(ctx, "tcp", addr)
		if err != nil {
			return err
		}
		conn = c
		return nil
	}
	bo := backoff.WithContext(newBoundedConstantBackOff(500*time.Millisecond, 30*time.Second), ctx)
	if err := backoff.Retry(operation, bo); err != nil {
		return nil, err
	}
	return conn, nil
}
