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

package wire

// OpCode identifies a wire message's operation, as carried in the message
// header. Values match the host database's historic wire protocol.
type OpCode int32

const (
	OpReply        OpCode = 1
	OpUpdate       OpCode = 2001
	OpInsert       OpCode = 2002
	OpQuery        OpCode = 2004
	OpGetMore      OpCode = 2005
	OpDelete       OpCode = 2006
	OpKillCursors  OpCode = 2007
	OpCommand      OpCode = 2010
	OpCommandReply OpCode = 2011
	OpMsg          OpCode = 2013
)

func (op OpCode) String() string {
	switch op {
	case OpReply:
		return "reply"
	case OpUpdate:
		return "update"
	case OpInsert:
		return "insert"
	case OpQuery:
		return "query"
	case OpGetMore:
		return "getMore"
	case OpDelete:
		return "delete"
	case OpKillCursors:
		return "killCursors"
	case OpCommand:
		return "command"
	case OpCommandReply:
		return "commandReply"
	case OpMsg:
		return "msg"
	default:
		return "unknown"
	}
}

// QueryFlags are the OP_QUERY bit flags.
type QueryFlags int32

const (
	QueryFlagTailableCursor  QueryFlags = 1 << 1
	QueryFlagSlaveOK         QueryFlags = 1 << 2
	QueryFlagOplogReplay     QueryFlags = 1 << 3
	QueryFlagNoCursorTimeout QueryFlags = 1 << 4
	QueryFlagAwaitData       QueryFlags = 1 << 5
	// QueryFlagExhaust marks a query whose reply is a stream of OP_REPLY
	// messages terminated by a zero cursor id, rather than a single reply.
	QueryFlagExhaust QueryFlags = 1 << 6
	QueryFlagPartial QueryFlags = 1 << 7
)

// Has reports whether flag is set.
func (f QueryFlags) Has(flag QueryFlags) bool { return f&flag != 0 }
