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

package bridge

import (
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
)

// codeForError maps a taxonomy sentinel to its reply code, mirroring the
// host database's ErrorCodes enum values for these four kinds.
func codeForError(err error) int32 {
	switch {
	case errors.Is(err, ErrBadValue):
		return 2
	case errors.Is(err, ErrTypeMismatch):
		return 14
	case errors.Is(err, ErrCommandNotFound):
		return 59
	default:
		return 1 // OperationFailed, or anything else unwrapped
	}
}

func failureReply(err error) bson.D {
	return bson.D{
		{Key: "ok", Value: int32(0)},
		{Key: "errmsg", Value: err.Error()},
		{Key: "code", Value: codeForError(err)},
	}
}

func commandNotFoundReply(name string) bson.D {
	return failureReply(errors.Wrapf(ErrCommandNotFound, "no such command: %q", name))
}
