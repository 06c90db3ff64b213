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
	"sync"

	log "github.com/erigontech/erigon-lib/log/v3"
)

// Listener binds a single TCP port, accepts inbound connections, and spawns
// one Forwarder session per accepted connection. It tracks live sessions so
// that ShutdownAll can close every inbound connection currently in flight.
type Listener struct {
	ln       net.Listener
	destAddr string
	policies *PolicyTable
	commands CommandRegistry

	mu       sync.Mutex
	sessions []*Forwarder
	wg       sync.WaitGroup
}

// NewListener binds addr and returns a Listener ready to serve.
func NewListener(addr, destAddr string, policies *PolicyTable, commands CommandRegistry) (*Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Listener{
		ln:       ln,
		destAddr: destAddr,
		policies: policies,
		commands: commands,
	}, nil
}

// Addr returns the bound listening address.
func (l *Listener) Addr() net.Addr { return l.ln.Addr() }

// ListenAndServe accepts connections until ctx is cancelled or the
// listener's socket is closed, spawning a Forwarder goroutine per
// connection. Once accepting stops it waits for every spawned session to
// finish before returning. It always returns a non-nil error; a clean
// shutdown reports the listener-closed error from the underlying
// net.Listener.
func (l *Listener) ListenAndServe(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		_ = l.ln.Close()
	}()

	for {
		conn, err := l.ln.Accept()
		if err != nil {
			l.wg.Wait()
			return err
		}
		log.Info("[bridge] accepted connection", "remote", conn.RemoteAddr())
		f := NewForwarder(conn, l.destAddr, l.policies, l.commands)
		l.track(f)
		l.wg.Add(1)
		go func() {
			defer l.wg.Done()
			defer l.untrack(f)
			f.Run(ctx)
		}()
	}
}

// ShutdownAll closes the listening socket and every currently tracked
// inbound connection, unblocking their sessions' blocked reads.
func (l *Listener) ShutdownAll() error {
	err := l.ln.Close()
	l.mu.Lock()
	sessions := append([]*Forwarder(nil), l.sessions...)
	l.mu.Unlock()
	for _, f := range sessions {
		_ = f.inbound.Shutdown()
	}
	return err
}

func (l *Listener) track(f *Forwarder) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sessions = append(l.sessions, f)
}

func (l *Listener) untrack(f *Forwarder) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, s := range l.sessions {
		if s == f {
			l.sessions = append(l.sessions[:i], l.sessions[i+1:]...)
			break
		}
	}
}
