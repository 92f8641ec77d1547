// Copyright 2015 Google Inc. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package wasip1

import (
	"encoding/binary"
	"fmt"

	"github.com/bytecodealliance/wasmtime-go/v25"
)

// guestMemory returns the bytes backing the calling instance's
// exported linear memory, or an error if it doesn't export one named
// "memory" (every module wasi-libc links against does).
func guestMemory(caller *wasmtime.Caller) ([]byte, error) {
	ext := caller.GetExport("memory")
	if ext == nil {
		return nil, fmt.Errorf("wasip1: guest does not export a memory named \"memory\"")
	}

	mem := ext.Memory()
	if mem == nil {
		return nil, fmt.Errorf("wasip1: export \"memory\" is not a memory")
	}

	return mem.UnsafeData(caller), nil
}

// readBytes returns a view of n bytes starting at offset, bounds
// checked against the guest's memory.
func readBytes(mem []byte, offset, n uint32) ([]byte, bool) {
	end := uint64(offset) + uint64(n)
	if end > uint64(len(mem)) {
		return nil, false
	}
	return mem[offset:end], true
}

func readUint32LE(mem []byte, offset uint32) (uint32, bool) {
	b, ok := readBytes(mem, offset, 4)
	if !ok {
		return 0, false
	}
	return binary.LittleEndian.Uint32(b), true
}

func writeUint32LE(mem []byte, offset uint32, v uint32) bool {
	b, ok := readBytes(mem, offset, 4)
	if !ok {
		return false
	}
	binary.LittleEndian.PutUint32(b, v)
	return true
}

func writeUint64LE(mem []byte, offset uint32, v uint64) bool {
	b, ok := readBytes(mem, offset, 8)
	if !ok {
		return false
	}
	binary.LittleEndian.PutUint64(b, v)
	return true
}

// iovec is one element of the iovec/ciovec arrays fd_read/fd_write
// consume: an 8-byte (offset uint32le, length uint32le) pair.
type iovec struct {
	offset uint32
	length uint32
}

// readIovecs reads count consecutive iovec pairs starting at base.
func readIovecs(mem []byte, base uint32, count uint32) ([]iovec, bool) {
	out := make([]iovec, count)
	for i := uint32(0); i < count; i++ {
		ptr := base + i*8
		off, ok := readUint32LE(mem, ptr)
		if !ok {
			return nil, false
		}
		length, ok := readUint32LE(mem, ptr+4)
		if !ok {
			return nil, false
		}
		out[i] = iovec{offset: off, length: length}
	}
	return out, true
}

// writeFdstat encodes the 24-byte fdstat record: 1-byte filetype,
// 2-byte flags, 5 pad bytes, 8-byte rights_base, 8-byte
// rights_inheriting.
func writeFdstat(mem []byte, offset uint32, filetype Filetype, flags uint16) bool {
	b, ok := readBytes(mem, offset, 24)
	if !ok {
		return false
	}

	for i := range b {
		b[i] = 0
	}

	b[0] = byte(filetype)
	binary.LittleEndian.PutUint16(b[2:4], flags)
	binary.LittleEndian.PutUint64(b[8:16], fullRights)
	binary.LittleEndian.PutUint64(b[16:24], fullRights)

	return true
}

// writePrestat encodes the 8-byte prestat record: a zero tag
// (prestat_dir, the only tag that exists) followed by 3 pad bytes and
// the uint32le path length.
func writePrestat(mem []byte, offset uint32, pathLen uint32) bool {
	b, ok := readBytes(mem, offset, 8)
	if !ok {
		return false
	}

	b[0], b[1], b[2], b[3] = 0, 0, 0, 0
	binary.LittleEndian.PutUint32(b[4:8], pathLen)

	return true
}

// filestatSize is the byte size of a filestat record: dev(8) +
// ino(8) + filetype(1) + 7 pad + nlink(8) + size(8) + atim(8) +
// mtim(8) + ctim(8).
const filestatSize = 64

// writeFilestat encodes a full filestat record at offset.
func writeFilestat(mem []byte, offset uint32, st Stat) bool {
	b, ok := readBytes(mem, offset, filestatSize)
	if !ok {
		return false
	}

	for i := range b {
		b[i] = 0
	}

	binary.LittleEndian.PutUint64(b[8:16], st.Inode)
	b[16] = byte(st.Type)
	binary.LittleEndian.PutUint64(b[24:32], 1) // nlink
	binary.LittleEndian.PutUint64(b[32:40], st.Size)

	nsec := uint64(st.ModTime.UnixNano())
	binary.LittleEndian.PutUint64(b[40:48], nsec) // atim
	binary.LittleEndian.PutUint64(b[48:56], nsec) // mtim
	binary.LittleEndian.PutUint64(b[56:64], nsec) // ctim

	return true
}

// direntSize is the byte size of a fixed dirent header, before the
// variable-length name: d_next(8) + d_ino(8) + d_namlen(4) + d_type(4).
const direntSize = 24

// writeDirent writes one preview1 directory entry header plus name
// into buf at offset 0, truncating to fit, and returns the number of
// bytes actually written. This mirrors fuseutil.WriteDirent's
// manual-layout-plus-truncation style, adapted to the preview1 wire
// format instead of the Linux fuse_dirent format.
func writeDirent(buf []byte, next uint64, d Dirent) (n int) {
	if len(buf) < direntSize {
		return 0
	}

	binary.LittleEndian.PutUint64(buf[0:8], next)
	binary.LittleEndian.PutUint64(buf[8:16], d.Inode)
	binary.LittleEndian.PutUint32(buf[16:20], uint32(len(d.Name)))
	binary.LittleEndian.PutUint32(buf[20:24], uint32(d.Type))
	n = direntSize

	copied := copy(buf[n:], d.Name)
	n += copied

	return n
}
