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
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"go.mongodb.org/mongo-driver/bson"
)

// Message is a single wire protocol message: a header plus its body, kept
// as opaque bytes. Accessors parse only as much of the body as needed to
// answer a specific question; the body itself is never rewritten.
type Message struct {
	Header MsgHeader
	Body   []byte
}

// NewMessage builds a message with a freshly computed MessageLength.
func NewMessage(op OpCode, requestID, responseTo int32, body []byte) *Message {
	return &Message{
		Header: MsgHeader{
			MessageLength: int32(headerLen + len(body)),
			RequestID:     requestID,
			ResponseTo:    responseTo,
			OpCode:        op,
		},
		Body: body,
	}
}

// ReadMessage reads one complete message from r.
func ReadMessage(r io.Reader) (*Message, error) {
	h, err := readHeader(r)
	if err != nil {
		return nil, err
	}
	body := make([]byte, h.MessageLength-headerLen)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, err
	}
	return &Message{Header: h, Body: body}, nil
}

// WriteTo writes the message's header and body to w.
func (m *Message) WriteTo(w io.Writer) (int64, error) {
	m.Header.MessageLength = int32(headerLen + len(m.Body))
	buf := make([]byte, headerLen+len(m.Body))
	m.Header.put(buf)
	copy(buf[headerLen:], m.Body)
	n, err := w.Write(buf)
	return int64(n), err
}

func (m *Message) OpCode() OpCode     { return m.Header.OpCode }
func (m *Message) RequestID() int32   { return m.Header.RequestID }
func (m *Message) ResponseTo() int32  { return m.Header.ResponseTo }

// cstring reads a NUL-terminated string starting at offset off, returning
// the string and the offset immediately after the terminator.
func cstring(buf []byte, off int) (string, int, error) {
	idx := bytes.IndexByte(buf[off:], 0)
	if idx < 0 {
		return "", 0, fmt.Errorf("wire: unterminated cstring")
	}
	return string(buf[off : off+idx]), off + idx + 1, nil
}

// readDocument reads one BSON document starting at offset off, returning
// it as bson.Raw and the offset immediately after it.
func readDocument(buf []byte, off int) (bson.Raw, int, error) {
	if off+4 > len(buf) {
		return nil, 0, fmt.Errorf("wire: truncated document length")
	}
	size := int(int32(binary.LittleEndian.Uint32(buf[off : off+4])))
	if size < 5 || off+size > len(buf) {
		return nil, 0, fmt.Errorf("wire: invalid document size %d", size)
	}
	return bson.Raw(buf[off : off+size]), off + size, nil
}

// readDocuments reads every remaining BSON document in buf starting at off.
func readDocuments(buf []byte, off int) ([]bson.Raw, error) {
	var docs []bson.Raw
	for off < len(buf) {
		doc, next, err := readDocument(buf, off)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
		off = next
	}
	return docs, nil
}
