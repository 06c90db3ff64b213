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
	"strings"

	"go.mongodb.org/mongo-driver/bson"
)

// commandBody is the decoded fixed-position fields of an OP_COMMAND /
// OP_COMMAND_REPLY body; parsed once and cached on first access.
type commandBody struct {
	database    string
	commandName string
	metadata    bson.Raw
	commandArgs bson.Raw
}

func (m *Message) parseCommand() (commandBody, bool) {
	switch m.Header.OpCode {
	case OpCommand:
		db, off, err := cstring(m.Body, 0)
		if err != nil {
			return commandBody{}, false
		}
		name, off2, err := cstring(m.Body, off)
		if err != nil {
			return commandBody{}, false
		}
		metadata, off3, err := readDocument(m.Body, off2)
		if err != nil {
			return commandBody{}, false
		}
		args, _, err := readDocument(m.Body, off3)
		if err != nil {
			return commandBody{}, false
		}
		return commandBody{database: db, commandName: name, metadata: metadata, commandArgs: args}, true
	case OpCommandReply:
		metadata, off, err := readDocument(m.Body, 0)
		if err != nil {
			return commandBody{}, false
		}
		reply, _, err := readDocument(m.Body, off)
		if err != nil {
			return commandBody{}, false
		}
		return commandBody{metadata: metadata, commandArgs: reply}, true
	default:
		return commandBody{}, false
	}
}

// CommandName returns the command name carried by this message: directly
// for OpCommand, or derived from the first element of the query document
// for an OpQuery addressed to a "$cmd" collection (the legacy command
// convention). Returns "" for any other message.
func (m *Message) CommandName() string {
	if cb, ok := m.parseCommand(); ok {
		return cb.commandName
	}
	if m.Header.OpCode == OpQuery && strings.HasSuffix(m.FullCollectionName(), ".$cmd") {
		if q := m.Query(); q != nil {
			var d bson.D
			if err := bson.Unmarshal(q, &d); err == nil && len(d) > 0 {
				return d[0].Key
			}
		}
	}
	return ""
}

// CommandArgs returns the command's argument document: commandArgs for
// OpCommand, commandReply for OpCommandReply, or the query document itself
// for a legacy "$cmd" OpQuery.
func (m *Message) CommandArgs() bson.Raw {
	if cb, ok := m.parseCommand(); ok {
		return cb.commandArgs
	}
	if m.Header.OpCode == OpQuery && strings.HasSuffix(m.FullCollectionName(), ".$cmd") {
		return m.Query()
	}
	return nil
}

// Metadata returns the OP_COMMAND metadata document, or nil for any other
// message type (legacy OP_QUERY commands carry no separate metadata).
func (m *Message) Metadata() bson.Raw {
	if cb, ok := m.parseCommand(); ok {
		return cb.metadata
	}
	return nil
}

// NewCommand builds an OP_COMMAND message.
func NewCommand(requestID int32, database, name string, metadata, args bson.D) (*Message, error) {
	metaBytes, err := bson.Marshal(metadata)
	if err != nil {
		return nil, err
	}
	argBytes, err := bson.Marshal(args)
	if err != nil {
		return nil, err
	}
	body := make([]byte, 0, len(database)+1+len(name)+1+len(metaBytes)+len(argBytes))
	body = append(body, database...)
	body = append(body, 0)
	body = append(body, name...)
	body = append(body, 0)
	body = append(body, metaBytes...)
	body = append(body, argBytes...)
	return NewMessage(OpCommand, requestID, 0, body), nil
}

// NewCommandReply builds an OP_COMMAND_REPLY message.
func NewCommandReply(requestID, responseTo int32, metadata, reply bson.D) (*Message, error) {
	metaBytes, err := bson.Marshal(metadata)
	if err != nil {
		return nil, err
	}
	replyBytes, err := bson.Marshal(reply)
	if err != nil {
		return nil, err
	}
	body := make([]byte, 0, len(metaBytes)+len(replyBytes))
	body = append(body, metaBytes...)
	body = append(body, replyBytes...)
	return NewMessage(OpCommandReply, requestID, responseTo, body), nil
}

// ForBridge reports whether this command's metadata sets "$forBridge" to a
// true value, marking it as an admin command meant for the proxy itself
// rather than the destination server.
func (m *Message) ForBridge() bool {
	md := m.Metadata()
	if md == nil {
		return false
	}
	v, err := md.LookupErr("$forBridge")
	if err != nil {
		return false
	}
	b, ok := v.BooleanOK()
	return ok && b
}
