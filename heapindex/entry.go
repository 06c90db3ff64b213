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

// Entry is a single (key, locator) pair held in the ordered store. Two
// entries compare by key first, then by locator ascending as a tie-break;
// that secondary order is what lets duplicate keys coexist as distinct set
// members instead of collapsing under the comparator.
type Entry struct {
	Key     Key
	Locator Locator
}
