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

package hull

import "fmt"

// LimitedBuffer is an append-only byte buffer with a fixed capacity.
// A Write that would push the buffer past its capacity is rejected in
// full: the buffer is left unchanged and no partial write occurs. This
// is used to back a guest's stdout/stderr/output files so that a
// misbehaving program cannot exhaust host memory by writing forever.
//
// The zero value is not usable; construct with NewLimitedBuffer.
type LimitedBuffer struct {
	buf      []byte
	capacity int
}

// NewLimitedBuffer returns a LimitedBuffer that rejects writes once
// its contents would exceed capacity bytes.
func NewLimitedBuffer(capacity int) *LimitedBuffer {
	return &LimitedBuffer{capacity: capacity}
}

// Write appends p to the buffer, or fails atomically if doing so would
// exceed the buffer's capacity.
func (b *LimitedBuffer) Write(p []byte) (n int, err error) {
	if len(b.buf)+len(p) > b.capacity {
		return 0, fmt.Errorf("hull: write of %d bytes would exceed limit of %d bytes (currently %d)",
			len(p), b.capacity, len(b.buf))
	}

	b.buf = append(b.buf, p...)
	return len(p), nil
}

// Flush is a no-op; LimitedBuffer has no underlying sink to flush to.
func (b *LimitedBuffer) Flush() error {
	return nil
}

// Len returns the number of bytes currently held.
func (b *LimitedBuffer) Len() int {
	return len(b.buf)
}

// Bytes returns the buffer's contents. The caller must not retain or
// mutate the returned slice across a further Write.
func (b *LimitedBuffer) Bytes() []byte {
	return b.buf
}
