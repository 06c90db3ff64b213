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
	"io"
)

const headerLen = 16

// MsgHeader is the fixed-size header every wire message begins with.
type MsgHeader struct {
	MessageLength int32
	RequestID     int32
	ResponseTo    int32
	OpCode        OpCode
}

func readHeader(r io.Reader) (MsgHeader, error) {
	var buf [headerLen]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return MsgHeader{}, err
	}
	h := MsgHeader{
		MessageLength: int32(binary.LittleEndian.Uint32(buf[0:4])),
		RequestID:     int32(binary.LittleEndian.Uint32(buf[4:8])),
		ResponseTo:    int32(binary.LittleEndian.Uint32(buf[8:12])),
		OpCode:        OpCode(int32(binary.LittleEndian.Uint32(buf[12:16]))),
	}
	if h.MessageLength < headerLen {
		return MsgHeader{}, fmt.Errorf("wire: invalid message length %d", h.MessageLength)
	}
	return h, nil
}

func (h MsgHeader) put(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], uint32(h.MessageLength))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(h.RequestID))
	binary.LittleEndian.PutUint32(buf[8:12], uint32(h.ResponseTo))
	binary.LittleEndian.PutUint32(buf[12:16], uint32(h.OpCode))
}
