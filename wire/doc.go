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

// Package wire implements just enough of the host database's framed wire
// protocol to identify command requests, extract routing metadata, and
// forward messages byte-for-byte in both directions. It never rewrites a
// payload: bodies are read and written as opaque bytes, parsed only far
// enough to answer operation(), commandName(), commandArgs(), metadata(),
// and the exhaust query flag.
package wire
