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

package heapindex

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

type fixedOrdering []int8

func (f fixedOrdering) Ordering() []int8 { return f }

func newTestIndex(t *testing.T) *HeapIndex {
	t.Helper()
	idx, _ := MakeHeapIndex(fixedOrdering{1}, nil)
	return idx
}

// S1 — duplicate-key policy.
func TestInsertDuplicatePolicy(t *testing.T) {
	idx := newTestIndex(t)
	key := k(int32(1))
	loc1 := Locator{File: 0, Offset: 1}
	loc2 := Locator{File: 0, Offset: 2}

	require.NoError(t, idx.Insert(key, loc1, false))
	require.NoError(t, idx.Insert(key, loc1, false)) // idempotent re-insert

	err := idx.Insert(key, loc2, false)
	require.Error(t, err)
	require.True(t, IsDuplicateKey(err))
	require.Contains(t, err.Error(), "E11000 duplicate key error")
}

func TestInsertDupsAllowed(t *testing.T) {
	idx := newTestIndex(t)
	key := k(int32(1))
	require.NoError(t, idx.Insert(key, Locator{File: 0, Offset: 1}, true))
	require.NoError(t, idx.Insert(key, Locator{File: 0, Offset: 2}, true))
	count, err := idx.FullValidate(false)
	require.NoError(t, err)
	require.EqualValues(t, 2, count)
}

func TestInsertRejectsNamedFieldsAndInvalidLocator(t *testing.T) {
	idx := newTestIndex(t)
	require.Panics(t, func() {
		_ = idx.Insert(NewKey(bson.E{Key: "a", Value: int32(1)}), Locator{File: 0, Offset: 1}, true)
	})
	require.Panics(t, func() {
		_ = idx.Insert(k(int32(1)), NullLocator, true)
	})
}

func TestUnindexSizeInvariant(t *testing.T) {
	idx := newTestIndex(t)
	inserted := 0
	for i := int32(0); i < 10; i++ {
		require.NoError(t, idx.Insert(k(i), Locator{File: 0, Offset: i}, false))
		inserted++
	}
	removed := 0
	for i := int32(0); i < 5; i++ {
		if idx.Unindex(k(i), Locator{File: 0, Offset: i}) {
			removed++
		}
	}
	count, err := idx.FullValidate(true)
	require.NoError(t, err)
	require.EqualValues(t, inserted-removed, count)
}

// S2 — forward and reverse cursor traversal.
func TestCursorForwardAndReverse(t *testing.T) {
	idx := newTestIndex(t)
	require.NoError(t, idx.Insert(k(int32(1)), Locator{File: 0, Offset: 10}, false))
	require.NoError(t, idx.Insert(k(int32(2)), Locator{File: 0, Offset: 20}, false))
	require.NoError(t, idx.Insert(k(int32(3)), Locator{File: 0, Offset: 30}, false))

	fwd := idx.NewCursor(1)
	require.True(t, fwd.Locate(k(int32(2)), Locator{File: 0, Offset: 0}))
	require.EqualValues(t, 20, fwd.GetLocator().Offset)
	fwd.Advance()
	require.False(t, fwd.IsEOF())
	require.EqualValues(t, 30, fwd.GetLocator().Offset)
	fwd.Advance()
	require.True(t, fwd.IsEOF())

	rev := idx.NewCursor(-1)
	require.True(t, rev.Locate(k(int32(2)), locatorPosInf))
	require.EqualValues(t, 20, rev.GetLocator().Offset)
	rev.Advance()
	require.False(t, rev.IsEOF())
	require.EqualValues(t, 10, rev.GetLocator().Offset)
}

// S3 — save/restore across deletion.
func TestCursorSaveRestoreAcrossDeletion(t *testing.T) {
	idx := newTestIndex(t)
	require.NoError(t, idx.Insert(k(int32(1)), Locator{File: 0, Offset: 10}, false))
	require.NoError(t, idx.Insert(k(int32(2)), Locator{File: 0, Offset: 20}, false))
	require.NoError(t, idx.Insert(k(int32(3)), Locator{File: 0, Offset: 30}, false))

	c := idx.NewCursor(1)
	require.True(t, c.Locate(k(int32(2)), Locator{File: 0, Offset: 0}))
	c.SavePosition()

	require.True(t, idx.Unindex(k(int32(2)), Locator{File: 0, Offset: 20}))

	c.RestorePosition()
	require.False(t, c.IsEOF())
	require.EqualValues(t, 3, c.GetKey().D[0].Value)
	require.EqualValues(t, 30, c.GetLocator().Offset)
}

func TestCursorSaveRestoreToEOFWhenNothingLeft(t *testing.T) {
	idx := newTestIndex(t)
	require.NoError(t, idx.Insert(k(int32(1)), Locator{File: 0, Offset: 10}, false))

	c := idx.NewCursor(1)
	require.True(t, c.Locate(k(int32(1)), Locator{File: 0, Offset: 0}))
	c.SavePosition()
	require.True(t, idx.Unindex(k(int32(1)), Locator{File: 0, Offset: 10}))
	c.RestorePosition()
	require.True(t, c.IsEOF())
}

func TestBulkBuilderLifecycle(t *testing.T) {
	idx := newTestIndex(t)
	b, err := idx.GetBulkBuilder(false)
	require.NoError(t, err)
	require.NoError(t, b.AddKey(k(int32(1)), Locator{File: 0, Offset: 1}))
	require.NoError(t, b.AddKey(k(int32(2)), Locator{File: 0, Offset: 2}))
	require.EqualValues(t, 2, b.Commit())
	b.Close()
	require.False(t, idx.IsEmpty())
}

func TestBulkBuilderAbortedClearsStore(t *testing.T) {
	idx := newTestIndex(t)
	b, err := idx.GetBulkBuilder(false)
	require.NoError(t, err)
	require.NoError(t, b.AddKey(k(int32(1)), Locator{File: 0, Offset: 1}))
	b.Close() // never committed
	require.True(t, idx.IsEmpty())
}

func TestGetBulkBuilderRequiresEmptyStore(t *testing.T) {
	idx := newTestIndex(t)
	require.NoError(t, idx.Insert(k(int32(1)), Locator{File: 0, Offset: 1}, false))
	_, err := idx.GetBulkBuilder(false)
	require.Error(t, err)
}
