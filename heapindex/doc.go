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

// Package heapindex implements a pluggable, in-memory sorted-data index: an
// ordered multiset of (key, locator) entries with bidirectional cursors that
// survive concurrent mutation via save/restore. It holds no file handles and
// never spills to disk; the backing store is a github.com/google/btree
// ordered tree keyed by a per-index field-direction comparator.
package heapindex
