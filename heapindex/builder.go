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

import "fmt"

// BulkBuilder performs append-only construction of a fresh index. Callers
// are expected to present keys in non-decreasing order, but correctness
// does not depend on that hint: every AddKey goes through the same
// comparator-ordered insert as HeapIndex.Insert, so an out-of-order input
// still yields a correctly sorted store. In-order input takes the same
// logarithmic insert path; there is no append fast path.
type BulkBuilder struct {
	shared      *SharedState
	dupsAllowed bool
	committed   bool
	closed      bool
}

// AddKey appends key/locator to the index under construction, performing
// the same duplicate check as HeapIndex.Insert unless dupsAllowed was set.
func (b *BulkBuilder) AddKey(key Key, loc Locator) error {
	if b.closed {
		panic("heapindex: AddKey called on a closed BulkBuilder")
	}
	if !loc.IsValid() {
		panic(fmt.Sprintf("heapindex: AddKey requires a valid, non-null locator, got %s", loc))
	}
	assertNoFieldNames(key)

	if !b.dupsAllowed {
		var found bool
		b.shared.store.AscendWhileKeyEqual(b.shared.cmp, key, func(item *Entry) bool {
			if item.Locator != loc {
				found = true
				return false
			}
			return true
		})
		if found {
			return &DuplicateKeyError{Key: key}
		}
	}
	b.shared.store.Insert(&Entry{Key: key.clone(), Locator: loc})
	return nil
}

// Commit marks the build successful and returns the final entry count.
// After Commit, Close is a no-op: the store is kept as built.
func (b *BulkBuilder) Commit() int64 {
	b.committed = true
	return int64(b.shared.store.Len())
}

// Close releases the builder. If the caller never called Commit, the store
// is cleared, matching the source's builder-destructor behaviour. Go has no
// destructors, so callers must defer Close() themselves; Close is
// idempotent and safe to call after Commit.
func (b *BulkBuilder) Close() {
	if b.closed {
		return
	}
	b.closed = true
	if !b.committed {
		b.shared.store.Clear()
	}
}
