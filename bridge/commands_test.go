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
	"go.mongodb.org/mongo-driver/bson"
)

func raw(t *testing.T, v interface{}) bson.Raw {
	t.Helper()
	b, err := bson.Marshal(v)
	require.NoError(t, err)
	return bson.Raw(b)
}

func TestLookupUnknownCommand(t *testing.T) {
	reg := NewCommandRegistry()
	_, err := reg.Lookup("doSomethingElse")
	require.ErrorIs(t, err, ErrCommandNotFound)
}

func TestDelayMessagesFromRequiresHostAndDelay(t *testing.T) {
	reg := NewCommandRegistry()
	cmd, err := reg.Lookup("delayMessagesFrom")
	require.NoError(t, err)

	table := NewPolicyTable()
	err = cmd.Run(raw(t, bson.D{{Key: "delay", Value: int32(10)}}), table)
	require.ErrorIs(t, err, ErrBadValue)

	err = cmd.Run(raw(t, bson.D{{Key: "host", Value: 123}, {Key: "delay", Value: int32(10)}}), table)
	require.ErrorIs(t, err, ErrTypeMismatch)

	err = cmd.Run(raw(t, bson.D{{Key: "host", Value: "h"}, {Key: "delay", Value: "not-a-number"}}), table)
	require.ErrorIs(t, err, ErrTypeMismatch)
}

func TestDelayMessagesFromSetsPolicy(t *testing.T) {
	reg := NewCommandRegistry()
	cmd, _ := reg.Lookup("delayMessagesFrom")
	table := NewPolicyTable()

	err := cmd.Run(raw(t, bson.D{{Key: "host", Value: "10.0.0.1:27017"}, {Key: "delay", Value: int32(200)}}), table)
	require.NoError(t, err)

	p := table.Get("10.0.0.1:27017")
	require.Equal(t, StateForward, p.State)
	require.Equal(t, 200*time.Millisecond, p.Delay)
}

func TestRejectConnectionsFromSetsHangUp(t *testing.T) {
	reg := NewCommandRegistry()
	cmd, _ := reg.Lookup("rejectConnectionsFrom")
	table := NewPolicyTable()

	require.NoError(t, cmd.Run(raw(t, bson.D{{Key: "host", Value: "10.0.0.1:27017"}}), table))
	require.Equal(t, StateHangUp, table.Get("10.0.0.1:27017").State)
}

func TestAcceptConnectionsFromMissingHost(t *testing.T) {
	reg := NewCommandRegistry()
	cmd, _ := reg.Lookup("acceptConnectionsFrom")
	err := cmd.Run(raw(t, bson.D{}), NewPolicyTable())
	require.ErrorIs(t, err, ErrBadValue)
}
