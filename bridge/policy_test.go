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
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPolicyTableDefaultsToForward(t *testing.T) {
	table := NewPolicyTable()
	p := table.Get("10.0.0.1:27017")
	require.Equal(t, StateForward, p.State)
	require.Zero(t, p.Delay)
}

// S4 — delayMessagesFrom sets {kForward, delay}.
func TestPolicyTableSetDelay(t *testing.T) {
	table := NewPolicyTable()
	table.SetDelay("10.0.0.1:27017", 200*time.Millisecond)
	p := table.Get("10.0.0.1:27017")
	require.Equal(t, StateForward, p.State)
	require.Equal(t, 200*time.Millisecond, p.Delay)
}

func TestPolicyTableAcceptDoesNotResetDelay(t *testing.T) {
	table := NewPolicyTable()
	table.SetDelay("h", 500*time.Millisecond)
	table.SetReject("h")
	table.SetAccept("h")
	p := table.Get("h")
	require.Equal(t, StateForward, p.State)
	require.Equal(t, 500*time.Millisecond, p.Delay)
}

func TestPolicyTableReject(t *testing.T) {
	table := NewPolicyTable()
	table.SetReject("h")
	require.Equal(t, StateHangUp, table.Get("h").State)
}
