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
	"bytes"
	"strconv"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Comparator is the total order over keys for one index: a per-field
// direction vector, +1 for ascending and -1 for descending. It is stateless
// and deterministic, and is also used to build lower/upper-bound query
// entries and customLocate query objects.
type Comparator struct {
	Ordering []int8
}

// NewComparator builds a Comparator from an index's per-field direction
// vector, as supplied by the catalog's IndexInfo.Ordering().
func NewComparator(ordering []int8) *Comparator {
	cp := make([]int8, len(ordering))
	copy(cp, ordering)
	return &Comparator{Ordering: cp}
}

func (c *Comparator) direction(pos int) int8 {
	if pos < len(c.Ordering) {
		return c.Ordering[pos]
	}
	return 1
}

// CompareKeys walks corresponding fields of a and b pairwise, multiplying
// each field's BSON element-order result by that field's direction. The
// first non-zero product wins; if one key is a strict prefix of the other,
// the shorter key is less.
func (c *Comparator) CompareKeys(a, b Key) int {
	n := len(a.D)
	if len(b.D) < n {
		n = len(b.D)
	}
	for i := 0; i < n; i++ {
		d := compareElementOrder(a.D[i].Value, b.D[i].Value)
		if c.direction(i) < 0 {
			d = -d
		}
		if d != 0 {
			return d
		}
	}
	return len(a.D) - len(b.D)
}

// CompareEntries orders entries by key first, then by locator ascending as
// an unconditional secondary tie-break. The locator comparison never
// applies the field-direction vector: it exists purely so that distinct
// locators sharing a key are never collapsed by the comparator.
func (c *Comparator) CompareEntries(a, b *Entry) int {
	if d := c.CompareKeys(a.Key, b.Key); d != 0 {
		return d
	}
	return a.Locator.Compare(b.Locator)
}

// Less adapts CompareEntries to the github.com/google/btree ordering
// contract used by entryStore.
func (c *Comparator) Less(a, b *Entry) bool {
	return c.CompareEntries(a, b) < 0
}

// MakeQueryObject synthesises a fully specified key for customLocate/
// advanceTo: keyBegin's first keyBeginLen fields form the prefix; for each
// remaining position, an inclusive keyEnd field contributes its real value
// and an exclusive one contributes a BSON MinKey/MaxKey sentinel and
// terminates the key, since no field placed after a Min/MaxKey can change
// the comparison. direction is the requesting cursor's direction (+1
// forward, -1 reverse): a reverse cursor positions by "last entry <= query"
// rather than "first entry >= query", so it needs the opposite sentinel to
// land on the same logical boundary as a forward cursor would.
func (c *Comparator) MakeQueryObject(keyBegin Key, keyBeginLen int, afterKey bool, keyEnd Key, keyEndInclusive []bool, direction int8) Key {
	out := make(bson.D, 0, keyBeginLen+1)
	for i := 0; i < keyBeginLen && i < len(keyBegin.D); i++ {
		out = append(out, bson.E{Value: keyBegin.D[i].Value})
	}

	wantGreater := afterKey
	if direction < 0 {
		wantGreater = !afterKey
	}
	sentinel := func() interface{} {
		if wantGreater {
			return primitive.MaxKey{}
		}
		return primitive.MinKey{}
	}

	terminated := false
	for i := keyBeginLen; i < len(keyEnd.D); i++ {
		inclusive := i < len(keyEndInclusive) && keyEndInclusive[i]
		if inclusive {
			out = append(out, bson.E{Value: keyEnd.D[i].Value})
			continue
		}
		out = append(out, bson.E{Value: sentinel()})
		terminated = true
		break
	}
	if !terminated {
		out = append(out, bson.E{Value: sentinel()})
	}
	return Key{D: out}
}

// compareElementOrder implements a practical subset of BSON's canonical
// element-order comparison: MinKey lowest, then null, numbers (compared by
// numeric value across int32/int64/float64/Decimal128), strings, embedded
// documents, arrays, binary data, object IDs, booleans, datetimes,
// timestamps, regexes, MaxKey highest. Types outside this set sort after
// everything else named here but before MaxKey.
func compareElementOrder(a, b interface{}) int {
	ra, rb := typeRank(a), typeRank(b)
	if ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}
	switch ra {
	case rankNull:
		return 0
	case rankNumber:
		return compareNumeric(a, b)
	case rankString:
		return bytes.Compare([]byte(toString(a)), []byte(toString(b)))
	case rankDocument:
		return compareDocuments(asD(a), asD(b))
	case rankArray:
		return compareArrays(asA(a), asA(b))
	case rankBinary:
		return bytes.Compare(asBinary(a), asBinary(b))
	case rankObjectID:
		x, y := a.(primitive.ObjectID), b.(primitive.ObjectID)
		return bytes.Compare(x[:], y[:])
	case rankBool:
		x, y := a.(bool), b.(bool)
		if x == y {
			return 0
		}
		if !x {
			return -1
		}
		return 1
	case rankDateTime:
		return compareInt64(int64(a.(primitive.DateTime)), int64(b.(primitive.DateTime)))
	case rankTimestamp:
		x, y := a.(primitive.Timestamp), b.(primitive.Timestamp)
		if x.T != y.T {
			return compareInt64(int64(x.T), int64(y.T))
		}
		return compareInt64(int64(x.I), int64(y.I))
	case rankRegex:
		x, y := a.(primitive.Regex), b.(primitive.Regex)
		if d := bytes.Compare([]byte(x.Pattern), []byte(y.Pattern)); d != 0 {
			return d
		}
		return bytes.Compare([]byte(x.Options), []byte(y.Options))
	default:
		return 0
	}
}

const (
	rankMinKey = iota
	rankNull
	rankNumber
	rankString
	rankDocument
	rankArray
	rankBinary
	rankObjectID
	rankBool
	rankDateTime
	rankTimestamp
	rankRegex
	rankOther
	rankMaxKey
)

func typeRank(v interface{}) int {
	switch v.(type) {
	case primitive.MinKey:
		return rankMinKey
	case nil, primitive.Undefined:
		return rankNull
	case int32, int64, float64, primitive.Decimal128:
		return rankNumber
	case string, primitive.Symbol:
		return rankString
	case bson.D, primitive.M:
		return rankDocument
	case bson.A:
		return rankArray
	case primitive.Binary:
		return rankBinary
	case primitive.ObjectID:
		return rankObjectID
	case bool:
		return rankBool
	case primitive.DateTime:
		return rankDateTime
	case primitive.Timestamp:
		return rankTimestamp
	case primitive.Regex:
		return rankRegex
	case primitive.MaxKey:
		return rankMaxKey
	default:
		return rankOther
	}
}

func toFloat64(v interface{}) float64 {
	switch n := v.(type) {
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case float64:
		return n
	case primitive.Decimal128:
		f, _ := strconv.ParseFloat(n.String(), 64)
		return f
	default:
		return 0
	}
}

func compareNumeric(a, b interface{}) int {
	x, y := toFloat64(a), toFloat64(b)
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	default:
		return 0
	}
}

func compareInt64(x, y int64) int {
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	default:
		return 0
	}
}

func toString(v interface{}) string {
	switch s := v.(type) {
	case string:
		return s
	case primitive.Symbol:
		return string(s)
	default:
		return ""
	}
}

func asD(v interface{}) bson.D {
	switch d := v.(type) {
	case bson.D:
		return d
	case primitive.M:
		out := make(bson.D, 0, len(d))
		for k, val := range d {
			out = append(out, bson.E{Key: k, Value: val})
		}
		return out
	default:
		return nil
	}
}

func asA(v interface{}) bson.A {
	a, _ := v.(bson.A)
	return a
}

func asBinary(v interface{}) []byte {
	b, _ := v.(primitive.Binary)
	return b.Data
}

// compareDocuments compares embedded documents element by element: field
// name first, then value, in document order, matching BSON object
// comparison semantics.
func compareDocuments(a, b bson.D) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if d := bytes.Compare([]byte(a[i].Key), []byte(b[i].Key)); d != 0 {
			return d
		}
		if d := compareElementOrder(a[i].Value, b[i].Value); d != 0 {
			return d
		}
	}
	return len(a) - len(b)
}

func compareArrays(a, b bson.A) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if d := compareElementOrder(a[i], b[i]); d != 0 {
			return d
		}
	}
	return len(a) - len(b)
}
