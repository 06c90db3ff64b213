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

// IndexInfo is the catalog collaborator this index depends on: the
// immutable per-field direction vector for the index being backed. The
// catalog entry itself (naming, key pattern, drop/reopen lifecycle) lives
// outside this package.
type IndexInfo interface {
	Ordering() []int8
}

// SharedState is the catalog-owned cell backing one index: the entry store
// plus the comparator derived from its ordering. It is created once by
// MakeHeapIndex and handed back to the caller so it can be threaded through
// index drops and reopens without this package knowing about catalog
// lifecycle at all.
type SharedState struct {
	cmp   *Comparator
	store *entryStore
}

// HeapIndex is the sorted-data facade: the only surface its owner (a
// collection's index catalog entry) sees. All reads and writes are expected
// to run under the caller's own collection/IX lock discipline; HeapIndex
// performs no internal locking.
type HeapIndex struct {
	shared *SharedState
}

// MakeHeapIndex is the sorted-data factory. If shared is nil, a fresh empty
// entry store bound to a comparator derived from info.Ordering() is
// created; otherwise the existing shared state (and its data) is reused, as
// happens when an index is reopened rather than newly built.
func MakeHeapIndex(info IndexInfo, shared *SharedState) (*HeapIndex, *SharedState) {
	if shared == nil {
		cmp := NewComparator(info.Ordering())
		shared = &SharedState{cmp: cmp, store: newEntryStore(cmp)}
	}
	return &HeapIndex{shared: shared}, shared
}

// isDup reports whether an entry with an equal key but a different locator
// than loc already exists, and if so, which locator it holds. Re-inserting
// the exact same (key, locator) is never a dup: that is what distinguishes
// this check from plain key membership.
func (idx *HeapIndex) isDup(key Key, loc Locator) (bool, Locator) {
	var found bool
	var other Locator
	idx.shared.store.AscendWhileKeyEqual(idx.shared.cmp, key, func(item *Entry) bool {
		if item.Locator != loc {
			found = true
			other = item.Locator
			return false
		}
		return true
	})
	return found, other
}

// Insert adds key/locator to the index. If dupsAllowed is false and an
// entry with an equal key but a different locator already exists, it fails
// with a DuplicateKeyError; re-inserting the exact same (key, locator) is
// always a no-op success.
func (idx *HeapIndex) Insert(key Key, loc Locator, dupsAllowed bool) error {
	if !loc.IsValid() {
		panic(fmt.Sprintf("heapindex: insert requires a valid, non-null locator, got %s", loc))
	}
	assertNoFieldNames(key)

	if !dupsAllowed {
		if dup, existing := idx.isDup(key, loc); dup {
			return &DuplicateKeyError{Key: key, Existing: existing}
		}
	}
	idx.shared.store.Insert(&Entry{Key: key.clone(), Locator: loc})
	return nil
}

// Unindex erases the exact (key, locator) entry, returning true iff exactly
// one entry was removed.
func (idx *HeapIndex) Unindex(key Key, loc Locator) bool {
	if !loc.IsValid() {
		panic(fmt.Sprintf("heapindex: unindex requires a valid, non-null locator, got %s", loc))
	}
	assertNoFieldNames(key)

	removed := idx.shared.store.Erase(&Entry{Key: key, Locator: loc})
	if removed > 1 {
		panic("heapindex: more than one entry matched an exact (key, locator) erase")
	}
	return removed == 1
}

// DupKeyCheck reports a DuplicateKeyError iff an entry with an equal key
// exists whose locator is not loc.
func (idx *HeapIndex) DupKeyCheck(key Key, loc Locator) error {
	assertNoFieldNames(key)
	if dup, existing := idx.isDup(key, loc); dup {
		return &DuplicateKeyError{Key: key, Existing: existing}
	}
	return nil
}

// IsEmpty reports whether the index holds no entries.
func (idx *HeapIndex) IsEmpty() bool { return idx.shared.store.Len() == 0 }

// FullValidate reports the number of entries in the index. When checkOrder
// is true it additionally sweeps the store once, verifying strict ascending
// order under the comparator; the original implementation left this sweep
// as a TODO, so here it is opt-in rather than unconditional.
func (idx *HeapIndex) FullValidate(checkOrder bool) (int64, error) {
	count := int64(idx.shared.store.Len())
	if !checkOrder {
		return count, nil
	}
	var prev *Entry
	var err error
	idx.shared.store.tree.Ascend(func(item *Entry) bool {
		if prev != nil && idx.shared.cmp.CompareEntries(prev, item) >= 0 {
			err = fmt.Errorf("heapindex: entries out of order at %s -> %s", prev.Key, item.Key)
			return false
		}
		prev = item
		return true
	})
	return count, err
}

// Touch is a no-op: the index is already fully resident in memory.
func (idx *HeapIndex) Touch() error { return nil }

// InitAsEmpty is a no-op for the same reason as Touch.
func (idx *HeapIndex) InitAsEmpty() error { return nil }

// GetBulkBuilder returns a builder for populating a fresh index. The store
// must be empty; callers typically defer builder.Close() immediately so an
// abandoned build clears the store, mirroring this corpus's own
// defer tx.Rollback() discipline for transactions that may never commit.
func (idx *HeapIndex) GetBulkBuilder(dupsAllowed bool) (*BulkBuilder, error) {
	if idx.shared.store.Len() != 0 {
		return nil, fmt.Errorf("heapindex: GetBulkBuilder requires an empty store, has %d entries", idx.shared.store.Len())
	}
	return &BulkBuilder{shared: idx.shared, dupsAllowed: dupsAllowed}, nil
}

// NewCursor returns a bidirectional cursor over the index. direction must
// be +1 (forward) or -1 (reverse).
func (idx *HeapIndex) NewCursor(direction int8) *Cursor {
	if direction != 1 && direction != -1 {
		panic(fmt.Sprintf("heapindex: cursor direction must be +1 or -1, got %d", direction))
	}
	return &Cursor{store: idx.shared.store, cmp: idx.shared.cmp, dir: direction}
}
