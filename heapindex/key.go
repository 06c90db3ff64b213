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
	"fmt"
	"math"

	"go.mongodb.org/mongo-driver/bson"
)

// Key is a structured, field-ordered sort key: the host system's document
// type. Field names are significant only while a key is in caller-supplied
// form; every comparison and storage operation works on the positional
// sequence of values.
type Key struct {
	D bson.D
}

// NewKey builds a Key from field name/value pairs, in field order.
func NewKey(fields ...bson.E) Key {
	return Key{D: append(bson.D{}, fields...)}
}

// HasFieldNames reports whether any field of the key carries a non-empty
// name, mirroring hasFieldNames in the original heap1 B-tree implementation.
func (k Key) HasFieldNames() bool {
	for _, e := range k.D {
		if e.Key != "" {
			return true
		}
	}
	return false
}

// stripFieldNames returns a copy of k with every field name cleared. Cursor
// positioning methods apply this silently before use; insert/unindex/dup
// checks instead reject a named key outright (see assertNoFieldNames).
func (k Key) stripFieldNames() Key {
	if !k.HasFieldNames() {
		return k
	}
	out := make(bson.D, len(k.D))
	for i, e := range k.D {
		out[i] = bson.E{Key: "", Value: e.Value}
	}
	return Key{D: out}
}

// clone copies the key's element slice so the index owns top-level storage
// independent of the caller's buffer. Nested document and array values are
// not copied and stay shared with the caller.
func (k Key) clone() Key {
	out := make(bson.D, len(k.D))
	copy(out, k.D)
	return Key{D: out}
}

func (k Key) String() string {
	ext, err := bson.MarshalExtJSON(k.D, true, false)
	if err != nil {
		return fmt.Sprintf("%v", k.D)
	}
	return string(ext)
}

// assertNoFieldNames panics with an invariant-violation message; per spec
// §7, a key presented to insert/unindex/dupKeyCheck with named fields is a
// programmer error, not a recoverable one.
func assertNoFieldNames(key Key) {
	if key.HasFieldNames() {
		panic("heapindex: key must not carry field names")
	}
}

// Locator is a compact, totally ordered record identifier: a (file, offset)
// pair, mirroring the two-integer DiskLoc of the system this index backend
// was extracted from.
type Locator struct {
	File   int32
	Offset int32
}

// NullLocator is the designated "no such locator" value; it is neither valid
// nor ever produced for a real record.
var NullLocator = Locator{File: -1, Offset: -1}

// locatorNegInf and locatorPosInf bound every valid locator from below and
// above respectively. They are used as entry-store query sentinels and are
// never themselves a record's locator (IsValid rejects them).
var (
	locatorNegInf = Locator{File: math.MinInt32, Offset: math.MinInt32}
	locatorPosInf = Locator{File: math.MaxInt32, Offset: math.MaxInt32}
)

// IsNull reports whether l is the sentinel "no locator" value.
func (l Locator) IsNull() bool { return l == NullLocator }

// IsValid reports whether l could plausibly identify a stored record: not
// null, and not one of the internal range sentinels.
func (l Locator) IsValid() bool {
	return !l.IsNull() && l != locatorNegInf && l != locatorPosInf
}

// Compare gives the total order over locators used as the tie-break for
// entries sharing a key: ascending by file, then by offset.
func (l Locator) Compare(o Locator) int {
	if l.File != o.File {
		if l.File < o.File {
			return -1
		}
		return 1
	}
	switch {
	case l.Offset < o.Offset:
		return -1
	case l.Offset > o.Offset:
		return 1
	default:
		return 0
	}
}

func (l Locator) String() string {
	return fmt.Sprintf("%d:%d", l.File, l.Offset)
}
