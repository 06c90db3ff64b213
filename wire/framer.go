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

package wire

import (
	"context"
	"net"
	"time"
)

// Framer reads and writes whole wire messages over a net.Conn, honoring
// context cancellation by racing the blocking I/O against the context's
// Done channel and forcing the underlying deadline when it fires.
type Framer struct {
	conn net.Conn
}

// NewFramer wraps conn. The caller retains ownership of conn and must not
// use it directly once the Framer is in use.
func NewFramer(conn net.Conn) *Framer {
	return &Framer{conn: conn}
}

// Recv reads the next message, or returns ctx.Err() if ctx is done first.
func (f *Framer) Recv(ctx context.Context) (*Message, error) {
	stop, err := f.armDeadline(ctx)
	if err != nil {
		return nil, err
	}
	if stop != nil {
		defer close(stop)
	}
	msg, err := ReadMessage(f.conn)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	return msg, err
}

// Say writes msg with the given responseTo id already applied.
func (f *Framer) Say(msg *Message, responseTo int32) error {
	msg.Header.ResponseTo = responseTo
	_, err := msg.WriteTo(f.conn)
	return err
}

// Call writes req and waits for the single reply it provokes.
func (f *Framer) Call(ctx context.Context, req *Message) (*Message, error) {
	if _, err := req.WriteTo(f.conn); err != nil {
		return nil, err
	}
	return f.Recv(ctx)
}

// Shutdown closes the underlying connection, unblocking any in-flight Recv.
func (f *Framer) Shutdown() error {
	return f.conn.Close()
}

// armDeadline pushes ctx's deadline, if any, onto the connection. If ctx
// carries no deadline but can still be canceled, it returns a stop channel:
// the caller must close it once the read completes so the watcher goroutine
// it started exits instead of outliving the call.
func (f *Framer) armDeadline(ctx context.Context) (chan struct{}, error) {
	if deadline, ok := ctx.Deadline(); ok {
		return nil, f.conn.SetReadDeadline(deadline)
	}
	if err := f.conn.SetReadDeadline(time.Time{}); err != nil {
		return nil, err
	}
	if ctx.Done() == nil {
		return nil, nil
	}
	stop := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			_ = f.conn.SetReadDeadline(time.Now())
		case <-stop:
		}
	}()
	return stop, nil
}
