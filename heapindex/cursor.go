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

// Cursor is a forward or reverse positioned iterator over an index's entry
// store. Its state is either PositionedAt(entry) or AtEnd; a separate saved
// slot holds {none, at-end, (key, locator)} so a position can survive
// concurrent mutation of the store via SavePosition/RestorePosition.
type Cursor struct {
	store *entryStore
	cmp   *Comparator
	dir   int8

	pos *Entry // nil means AtEnd

	haveSaved   bool
	savedAtEnd  bool
	savedKey    Key
	savedLoc    Locator
}

// Direction returns +1 for a forward cursor, -1 for reverse. It is
// immutable for the cursor's life.
func (c *Cursor) Direction() int8 { return c.dir }

// IsEOF reports whether the cursor is positioned past the last element in
// its direction.
func (c *Cursor) IsEOF() bool { return c.pos == nil }

func (c *Cursor) setPos(e *Entry, ok bool) {
	if ok {
		c.pos = e
	} else {
		c.pos = nil
	}
}

func (c *Cursor) position(key Key, loc Locator) {
	if c.dir > 0 {
		e, ok := c.store.LowerBound(&Entry{Key: key, Locator: loc})
		c.setPos(e, ok)
	} else {
		e, ok := c.store.LastLessOrEqual(&Entry{Key: key, Locator: loc})
		c.setPos(e, ok)
	}
}

// Locate strips field names from key, then positions the cursor to the
// first entry satisfying the direction's ordering with respect to (key,
// loc): for a forward cursor, the first entry >= (key, loc); for a reverse
// cursor, the first entry <= (key, loc). It returns true iff the resulting
// entry's key equals key; the locator is intentionally ignored in the
// return value.
func (c *Cursor) Locate(key Key, loc Locator) bool {
	stripped := key.stripFieldNames()
	c.position(stripped, loc)
	return c.pos != nil && c.cmp.CompareKeys(c.pos.Key, stripped) == 0
}

// CustomLocate builds a query key from the comparator's query-object
// constructor (using this cursor's direction) and positions analogously to
// Locate.
func (c *Cursor) CustomLocate(keyBegin Key, keyBeginLen int, afterKey bool, keyEnd Key, keyEndInclusive []bool) {
	q := c.cmp.MakeQueryObject(keyBegin, keyBeginLen, afterKey, keyEnd, keyEndInclusive, c.dir)
	c.position(q, Locator{})
}

// AdvanceTo is specified to behave identically to CustomLocate; the source
// this index was extracted from comments "I think these do the same
// thing????" about its own two methods, and this spec treats them as
// identical rather than inferring an undocumented difference.
func (c *Cursor) AdvanceTo(keyBegin Key, keyBeginLen int, afterKey bool, keyEnd Key, keyEndInclusive []bool) {
	c.CustomLocate(keyBegin, keyBeginLen, afterKey, keyEnd, keyEndInclusive)
}

// GetKey returns the key at the cursor's current position. Precondition:
// not AtEnd.
func (c *Cursor) GetKey() Key {
	if c.pos == nil {
		panic("heapindex: GetKey called on a cursor at EOF")
	}
	return c.pos.Key
}

// GetLocator returns the locator at the cursor's current position.
// Precondition: not AtEnd.
func (c *Cursor) GetLocator() Locator {
	if c.pos == nil {
		panic("heapindex: GetLocator called on a cursor at EOF")
	}
	return c.pos.Locator
}

// Advance steps one entry in the cursor's direction, transitioning to AtEnd
// when it would step past the last element. Advancing a cursor already at
// EOF is a no-op.
func (c *Cursor) Advance() {
	if c.pos == nil {
		return
	}
	if c.dir > 0 {
		e, ok := c.store.Successor(c.pos)
		c.setPos(e, ok)
	} else {
		e, ok := c.store.Predecessor(c.pos)
		c.setPos(e, ok)
	}
}

// SavePosition records the current position so it can be recovered after
// the store is mutated. If the cursor is at EOF, it records that; otherwise
// it snapshots the (key, locator) of the current entry. The cursor itself
// may become invalid for direct use immediately afterward.
func (c *Cursor) SavePosition() {
	c.haveSaved = true
	if c.pos == nil {
		c.savedAtEnd = true
		return
	}
	c.savedAtEnd = false
	c.savedKey = c.pos.Key
	c.savedLoc = c.pos.Locator
}

// RestorePosition re-locates the cursor using the last saved position. If
// the save recorded EOF, the cursor becomes AtEnd; otherwise it performs
// Locate(savedKey, savedLoc) against the (possibly mutated) store. The
// result may land on EOF or on an entry that is not the one saved — that is
// by design, visible to callers, whenever the saved entry itself was
// removed by the intervening mutation.
func (c *Cursor) RestorePosition() {
	if !c.haveSaved {
		panic("heapindex: RestorePosition called without a prior SavePosition")
	}
	if c.savedAtEnd {
		c.pos = nil
		return
	}
	c.Locate(c.savedKey, c.savedLoc)
}

// PointsToSamePlaceAs reports whether c and other are positioned at the
// same entry. Precondition: both cursors share the same underlying store.
func (c *Cursor) PointsToSamePlaceAs(other *Cursor) bool {
	if c.store != other.store {
		panic("heapindex: PointsToSamePlaceAs requires cursors over the same store")
	}
	return c.pos == other.pos
}

// AboutToDeleteBucket must never be called against this implementation:
// there are no buckets to delete out from under a cursor in an in-memory
// comparator-ordered tree.
func (c *Cursor) AboutToDeleteBucket(bucket Locator) {
	panic("heapindex: aboutToDeleteBucket should not be called")
}
