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

import "github.com/google/btree"

// btreeDegree matches this corpus's own btree.NewG[*CommitmentItem](32, ...)
// convention for comparator-ordered generic trees.
const btreeDegree = 32

// entryStore is an ordered, comparator-driven collection of entries with
// unique (key, locator) pairs and logarithmic insert/erase/lower-bound/
// upper-bound operations, backed by github.com/google/btree.
type entryStore struct {
	tree *btree.BTreeG[*Entry]
}

func newEntryStore(cmp *Comparator) *entryStore {
	return &entryStore{tree: btree.NewG[*Entry](btreeDegree, cmp.Less)}
}

// Insert adds entry, returning whether it was new.
func (s *entryStore) Insert(entry *Entry) bool {
	_, existed := s.tree.ReplaceOrInsert(entry)
	return !existed
}

// Erase deletes the entry with exactly matching key and locator, returning
// the number removed (0 or 1, since (key, locator) pairs are unique).
func (s *entryStore) Erase(entry *Entry) int {
	if _, ok := s.tree.Delete(entry); ok {
		return 1
	}
	return 0
}

// Len reports the number of entries in the store.
func (s *entryStore) Len() int { return s.tree.Len() }

// Clear empties the store in place, used when a bulk build is abandoned
// before commit.
func (s *entryStore) Clear() {
	s.tree.Clear(false)
}

// LowerBound returns the first entry greater than or equal to query.
func (s *entryStore) LowerBound(query *Entry) (*Entry, bool) {
	var result *Entry
	s.tree.AscendGreaterOrEqual(query, func(item *Entry) bool {
		result = item
		return false
	})
	return result, result != nil
}

// UpperBound returns the first entry strictly greater than query.
func (s *entryStore) UpperBound(cmp *Comparator, query *Entry) (*Entry, bool) {
	var result *Entry
	seenPivot := false
	s.tree.AscendGreaterOrEqual(query, func(item *Entry) bool {
		if !seenPivot && cmp.CompareEntries(item, query) == 0 {
			seenPivot = true
			return true
		}
		result = item
		return false
	})
	return result, result != nil
}

// LastLessOrEqual returns the last entry less than or equal to query: the
// reverse-cursor counterpart of LowerBound, used so a reverse cursor can
// locate its starting point without a separate upper_bound-then-step.
func (s *entryStore) LastLessOrEqual(query *Entry) (*Entry, bool) {
	var result *Entry
	s.tree.DescendLessOrEqual(query, func(item *Entry) bool {
		result = item
		return false
	})
	return result, result != nil
}

// Successor returns the entry immediately after e in ascending order.
func (s *entryStore) Successor(e *Entry) (*Entry, bool) {
	var result *Entry
	skippedSelf := false
	s.tree.AscendGreaterOrEqual(e, func(item *Entry) bool {
		if !skippedSelf {
			skippedSelf = true
			return true
		}
		result = item
		return false
	})
	return result, result != nil
}

// Predecessor returns the entry immediately before e in ascending order.
func (s *entryStore) Predecessor(e *Entry) (*Entry, bool) {
	var result *Entry
	skippedSelf := false
	s.tree.DescendLessOrEqual(e, func(item *Entry) bool {
		if !skippedSelf {
			skippedSelf = true
			return true
		}
		result = item
		return false
	})
	return result, result != nil
}

// AscendWhileKeyEqual walks entries in ascending order starting at the first
// entry with key >= key, invoking fn until it returns false or the key
// changes (used by duplicate-key scans).
func (s *entryStore) AscendWhileKeyEqual(cmp *Comparator, key Key, fn func(item *Entry) bool) {
	s.tree.AscendGreaterOrEqual(&Entry{Key: key, Locator: locatorNegInf}, func(item *Entry) bool {
		if cmp.CompareKeys(item.Key, key) != 0 {
			return false
		}
		return fn(item)
	})
}
