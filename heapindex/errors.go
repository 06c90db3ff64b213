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

// DuplicateKeyError reports a unique-index constraint violation: two
// distinct locators sharing an equal key under the index's comparator.
type DuplicateKeyError struct {
	Key      Key
	Existing Locator
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("E11000 duplicate key error dup key: %s", e.Key.String())
}

// IsDuplicateKey reports whether err is a *DuplicateKeyError.
func IsDuplicateKey(err error) bool {
	_, ok := err.(*DuplicateKeyError)
	return ok
}
