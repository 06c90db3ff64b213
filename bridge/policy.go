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

// Package bridge implements a protocol-aware proxy: it accepts inbound
// connections speaking the host database's wire protocol, applies a
// per-remote-host forwarding policy, and relays traffic to a single
// upstream destination per session. A small set of admin commands,
// carried as ordinary requests marked with a metadata flag, can change
// that policy while the proxy runs.
package bridge

import (
	"sync"
	"time"
)

// State is a host's forwarding disposition.
type State int

const (
	StateForward State = iota
	StateHangUp
)

// HostPolicy is the per-host record consulted on every inbound message.
type HostPolicy struct {
	State State
	Delay time.Duration
}

// PolicyTable is a thread-safe map from host identity to HostPolicy. All
// operations are short critical sections: the single mutex is never held
// across network I/O.
type PolicyTable struct {
	mu      sync.Mutex
	entries map[string]HostPolicy
}

// NewPolicyTable returns an empty table; absent hosts read as the default
// policy (forward, no delay).
func NewPolicyTable() *PolicyTable {
	return &PolicyTable{entries: make(map[string]HostPolicy)}
}

// Get copies the current policy for host, or the default if none is set.
func (t *PolicyTable) Get(host string) HostPolicy {
	t.mu.Lock()
	defer t.mu.Unlock()
	if p, ok := t.entries[host]; ok {
		return p
	}
	return HostPolicy{State: StateForward}
}

// SetDelay sets host's state to forward with the given delay.
func (t *PolicyTable) SetDelay(host string, delay time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[host] = HostPolicy{State: StateForward, Delay: delay}
}

// SetAccept sets host's state to forward without altering its delay.
func (t *PolicyTable) SetAccept(host string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p := t.entries[host]
	p.State = StateForward
	t.entries[host] = p
}

// SetReject sets host's state to hang up.
func (t *PolicyTable) SetReject(host string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p := t.entries[host]
	p.State = StateHangUp
	t.entries[host] = p
}
