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

import (
	"encoding/binary"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
)

// NewQuery builds an OP_QUERY message.
func NewQuery(requestID int32, flags QueryFlags, fullCollectionName string, query bson.D) (*Message, error) {
	queryBytes, err := bson.Marshal(query)
	if err != nil {
		return nil, err
	}
	body := make([]byte, 0, 4+len(fullCollectionName)+1+8+len(queryBytes))
	var flagBuf [4]byte
	binary.LittleEndian.PutUint32(flagBuf[:], uint32(flags))
	body = append(body, flagBuf[:]...)
	body = append(body, fullCollectionName...)
	body = append(body, 0)
	body = append(body, 0, 0, 0, 0, 0, 0, 0, 0) // numberToSkip, numberToReturn
	body = append(body, queryBytes...)
	return NewMessage(OpQuery, requestID, 0, body), nil
}

// NewReply builds an OP_REPLY message carrying the given cursor id and
// documents.
func NewReply(requestID, responseTo int32, cursorID int64, docs ...bson.D) (*Message, error) {
	body := make([]byte, 20)
	binary.LittleEndian.PutUint64(body[4:12], uint64(cursorID))
	binary.LittleEndian.PutUint32(body[16:20], uint32(len(docs)))
	for _, d := range docs {
		b, err := bson.Marshal(d)
		if err != nil {
			return nil, err
		}
		body = append(body, b...)
	}
	return NewMessage(OpReply, requestID, responseTo, body), nil
}

// Flags returns the OP_QUERY flag bits. Valid only when OpCode() == OpQuery.
func (m *Message) Flags() QueryFlags {
	if len(m.Body) < 4 {
		return 0
	}
	return QueryFlags(int32(binary.LittleEndian.Uint32(m.Body[0:4])))
}

// FullCollectionName returns the "db.collection" target of an OP_QUERY,
// or "" if this isn't one.
func (m *Message) FullCollectionName() string {
	if m.Header.OpCode != OpQuery {
		return ""
	}
	name, _, err := cstring(m.Body, 4)
	if err != nil {
		return ""
	}
	return name
}

// Query returns the OP_QUERY query document.
func (m *Message) Query() bson.Raw {
	if m.Header.OpCode != OpQuery {
		return nil
	}
	_, off, err := cstring(m.Body, 4)
	if err != nil {
		return nil
	}
	off += 8 // numberToSkip, numberToReturn
	doc, _, err := readDocument(m.Body, off)
	if err != nil {
		return nil
	}
	return doc
}

// CursorID returns the cursor id carried by an OP_REPLY, or 0 for any other
// message (including a legitimately exhausted cursor, which is also 0).
func (m *Message) CursorID() int64 {
	if m.Header.OpCode != OpReply {
		return 0
	}
	if len(m.Body) < 16 {
		return 0
	}
	return int64(binary.LittleEndian.Uint64(m.Body[4:12]))
}

// Documents returns the documents carried by an OP_REPLY.
func (m *Message) Documents() ([]bson.Raw, error) {
	if m.Header.OpCode != OpReply {
		return nil, fmt.Errorf("wire: Documents called on %s message", m.Header.OpCode)
	}
	if len(m.Body) < 20 {
		return nil, nil
	}
	return readDocuments(m.Body, 20)
}
