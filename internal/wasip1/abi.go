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

// Package wasip1 hand-rolls the subset of the WASI preview1 ABI this
// judge needs, as host functions registered on a wasmtime.Linker.
// wasmtime-go's own WASI support only binds real host files and
// directories; it has no hook for a pluggable virtual filesystem, so
// every import the guest needs is implemented here directly against
// the File/FS interfaces in this package instead.
package wasip1

// Errno is a WASI preview1 error number, returned as the i32 result
// of nearly every preview1 host call.
type Errno uint32

// The subset of the preview1 errno space this judge ever returns.
// Numeric values match the WASI snapshot-01 witx definition exactly,
// since guest libc (wasi-libc) decodes them positionally.
const (
	ErrnoSuccess Errno = 0
	ErrnoBadf    Errno = 8
	ErrnoExist   Errno = 20
	ErrnoFault   Errno = 21
	ErrnoInval   Errno = 28
	ErrnoIo      Errno = 29
	ErrnoIsdir   Errno = 31
	ErrnoNoent   Errno = 44
	ErrnoNosys   Errno = 52
	ErrnoNotdir  Errno = 54
	ErrnoNotsup  Errno = 58
	ErrnoPerm    Errno = 63
)

// Filetype identifies the kind of a file in a filestat/dirent record.
type Filetype uint8

const (
	FiletypeUnknown         Filetype = 0
	FiletypeCharacterDevice Filetype = 2
	FiletypeDirectory       Filetype = 3
	FiletypeRegularFile     Filetype = 4
)

// Whence values for fd_seek, matching the witx enum order (set, cur, end).
const (
	WhenceSet uint8 = 0
	WhenceCur uint8 = 1
	WhenceEnd uint8 = 2
)

// Oflags bits for path_open.
const (
	OflagsCreat     uint16 = 1 << 0
	OflagsDirectory uint16 = 1 << 1
	OflagsExcl      uint16 = 1 << 2
	OflagsTrunc     uint16 = 1 << 3
)

// Fdflags bits for path_open/fd_fdstat.
const (
	FdflagsAppend   uint16 = 1 << 0
	FdflagsNonblock uint16 = 1 << 2
)

// The two preview1 rights bits this judge actually inspects. WASI's
// full rights bitmask has around thirty bits; everything else is
// granted unconditionally (see fullRights) since this judge's access
// control is enforced by JudgeDir's own read-only/write-only policy,
// not by the rights mechanism.
const (
	RightsFDRead  uint64 = 1 << 1
	RightsFDWrite uint64 = 1 << 6
)

// fullRights is granted for every descriptor this judge ever opens.
// WASI's rights mechanism was never meaningfully enforced by any
// production runtime and its own standards body has said as much
// (https://github.com/WebAssembly/WASI/issues/469#issuecomment-1045251844);
// real access control here is done entirely by JudgeDir's own
// read-only/write-only policy, not by the rights bitmask.
const fullRights uint64 = ^uint64(0)

// exitError is returned internally by proc_exit's host function to
// unwind the guest call. It never crosses the wasmtime/cgo boundary as
// a typed value, only as an opaque trap message, so the runner does not
// inspect it; Host records the exit code directly instead (see
// Host.Exited).
type exitError struct {
	code int32
}

func (e *exitError) Error() string {
	return "wasi proc_exit"
}
