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
	"errors"
	"io"
	"io/fs"
	"log"
	"math/rand"
	"sync"

	"github.com/bytecodealliance/wasmtime-go/v25"
	"github.com/jacobsa/timeutil"
)

const (
	fdStdin  uint32 = 0
	fdStdout uint32 = 1
	fdStderr uint32 = 2
	fdRoot   uint32 = 3
)

// randSeed is fixed so that two runs of the same module observe
// identical guest-visible randomness, mirroring the original judge's
// StdRng::seed_from_u64(0).
const randSeed = 0

// Host holds all per-run state shared by the WASI preview1 host
// functions registered by Register: the guest's open file table, its
// frozen clock, its deterministic RNG, and its argv. One Host backs
// exactly one guest instantiation.
type Host struct {
	mu sync.Mutex

	args  []string
	clock timeutil.Clock
	rng   *rand.Rand
	root  FS

	files  map[uint32]File
	nextFD uint32

	exited   bool
	exitCode int32

	logger *log.Logger
}

// NewHost constructs the host-side state for one guest run. argv[0]
// is always set by the caller to a fixed prefix before any
// caller-supplied arguments, per the determinism envelope; root may
// be nil if the guest has no preopened directory.
func NewHost(args []string, stdin io.Reader, stdout, stderr io.Writer, clock timeutil.Clock, root FS, logger *log.Logger) *Host {
	h := &Host{
		args:   args,
		clock:  clock,
		rng:    rand.New(rand.NewSource(randSeed)),
		root:   root,
		files:  make(map[uint32]File),
		nextFD: fdRoot + 1,
		logger: logger,
	}

	h.files[fdStdin] = NewReaderFile(stdin)
	h.files[fdStdout] = NewWriterFile(stdout)
	h.files[fdStderr] = NewWriterFile(stderr)
	if root != nil {
		h.files[fdRoot] = root.Root()
	}

	return h
}

// Exited reports whether the guest called proc_exit, and with what
// code. The runner checks this after a failed call to distinguish a
// deliberate exit from an arbitrary trap.
func (h *Host) Exited() (bool, int32) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.exited, h.exitCode
}

func (h *Host) getFile(fd uint32) (File, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	f, ok := h.files[fd]
	return f, ok
}

func (h *Host) allocFD(f File) uint32 {
	h.mu.Lock()
	defer h.mu.Unlock()
	fd := h.nextFD
	h.nextFD++
	h.files[fd] = f
	return fd
}

func (h *Host) closeFD(fd uint32) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	f, ok := h.files[fd]
	if !ok {
		return false
	}
	delete(h.files, fd)
	_ = f.Close()
	return true
}

// Register binds every preview1 import this judge's guests may
// reference onto linker, under the "wasi_snapshot_preview1" module
// namespace. Imports the guest never calls, but which wasi-libc still
// references at link time, are bound to stubs that answer ErrnoNosys,
// the same philosophy as fuseutil.NotImplementedFileSystem: every
// method exists so embedding/linking never fails, but only the ones
// this judge cares about do real work.
func (h *Host) Register(linker *wasmtime.Linker) error {
	const mod = "wasi_snapshot_preview1"

	fns := map[string]interface{}{
		"args_sizes_get":       h.argsSizesGet,
		"args_get":             h.argsGet,
		"environ_sizes_get":    h.environSizesGet,
		"environ_get":          h.environGet,
		"clock_res_get":        h.clockResGet,
		"clock_time_get":       h.clockTimeGet,
		"random_get":           h.randomGet,
		"proc_exit":            h.procExit,
		"sched_yield":          h.schedYield,
		"fd_close":             h.fdClose,
		"fd_fdstat_get":        h.fdFdstatGet,
		"fd_prestat_get":       h.fdPrestatGet,
		"fd_prestat_dir_name":  h.fdPrestatDirName,
		"fd_read":              h.fdRead,
		"fd_write":             h.fdWrite,
		"fd_seek":              h.fdSeek,
		"fd_readdir":           h.fdReaddir,
		"fd_filestat_get":      h.fdFilestatGet,
		"path_open":            h.pathOpen,
		"path_filestat_get":    h.pathFilestatGet,

		"fd_fdstat_set_flags":    func(uint32, uint32) Errno { return ErrnoNosys },
		"fd_fdstat_set_rights":   func(uint32, uint64, uint64) Errno { return ErrnoNosys },
		"fd_filestat_set_size":   func(uint32, uint64) Errno { return ErrnoNosys },
		"fd_filestat_set_times":  func(uint32, uint64, uint64, uint32) Errno { return ErrnoNosys },
		"fd_sync":                func(uint32) Errno { return ErrnoNosys },
		"fd_datasync":            func(uint32) Errno { return ErrnoNosys },
		"fd_advise":              func(uint32, uint64, uint64, uint32) Errno { return ErrnoNosys },
		"fd_allocate":            func(uint32, uint64, uint64) Errno { return ErrnoNosys },
		"fd_tell":                func(uint32, uint32) Errno { return ErrnoNosys },
		"fd_pread":               func(uint32, uint32, uint32, uint64, uint32) Errno { return ErrnoNosys },
		"fd_pwrite":              func(uint32, uint32, uint32, uint64, uint32) Errno { return ErrnoNosys },
		"fd_renumber":            func(uint32, uint32) Errno { return ErrnoNosys },
		"path_create_directory":  func(uint32, uint32, uint32) Errno { return ErrnoNosys },
		"path_filestat_set_times": func(uint32, uint32, uint32, uint32, uint64, uint64, uint32) Errno {
			return ErrnoNosys
		},
		"path_link": func(uint32, uint32, uint32, uint32, uint32, uint32, uint32) Errno {
			return ErrnoNosys
		},
		"path_readlink":         func(uint32, uint32, uint32, uint32, uint32, uint32) Errno { return ErrnoNosys },
		"path_remove_directory": func(uint32, uint32, uint32) Errno { return ErrnoNosys },
		"path_rename":           func(uint32, uint32, uint32, uint32, uint32, uint32) Errno { return ErrnoNosys },
		"path_symlink":          func(uint32, uint32, uint32, uint32, uint32) Errno { return ErrnoNosys },
		"path_unlink_file":      func(uint32, uint32, uint32) Errno { return ErrnoNosys },
		"poll_oneoff":           func(uint32, uint32, uint32, uint32) Errno { return ErrnoNosys },
		"sock_accept":           func(uint32, uint32, uint32) Errno { return ErrnoNosys },
		"sock_recv":             func(uint32, uint32, uint32, uint32, uint32, uint32) Errno { return ErrnoNosys },
		"sock_send":             func(uint32, uint32, uint32, uint32, uint32) Errno { return ErrnoNosys },
		"sock_shutdown":         func(uint32, uint32) Errno { return ErrnoNosys },
	}

	for name, fn := range fns {
		if err := linker.FuncWrap(mod, name, fn); err != nil {
			return err
		}
	}

	return nil
}

func (h *Host) argsSizesGet(caller *wasmtime.Caller, argcPtr, bufSizePtr uint32) Errno {
	mem, err := guestMemory(caller)
	if err != nil {
		return ErrnoFault
	}

	var bufSize uint32
	for _, a := range h.args {
		bufSize += uint32(len(a)) + 1
	}

	if !writeUint32LE(mem, argcPtr, uint32(len(h.args))) {
		return ErrnoFault
	}
	if !writeUint32LE(mem, bufSizePtr, bufSize) {
		return ErrnoFault
	}
	return ErrnoSuccess
}

func (h *Host) argsGet(caller *wasmtime.Caller, argvPtr, argvBufPtr uint32) Errno {
	mem, err := guestMemory(caller)
	if err != nil {
		return ErrnoFault
	}

	cursor := argvBufPtr
	for i, a := range h.args {
		if !writeUint32LE(mem, argvPtr+uint32(i)*4, cursor) {
			return ErrnoFault
		}

		b, ok := readBytes(mem, cursor, uint32(len(a))+1)
		if !ok {
			return ErrnoFault
		}
		copy(b, a)
		b[len(a)] = 0

		cursor += uint32(len(a)) + 1
	}

	return ErrnoSuccess
}

// environSizesGet always reports zero environment variables: the
// determinism envelope excludes the host environment from the guest
// entirely.
func (h *Host) environSizesGet(caller *wasmtime.Caller, countPtr, bufSizePtr uint32) Errno {
	mem, err := guestMemory(caller)
	if err != nil {
		return ErrnoFault
	}
	if !writeUint32LE(mem, countPtr, 0) {
		return ErrnoFault
	}
	if !writeUint32LE(mem, bufSizePtr, 0) {
		return ErrnoFault
	}
	return ErrnoSuccess
}

func (h *Host) environGet(caller *wasmtime.Caller, environPtr, environBufPtr uint32) Errno {
	return ErrnoSuccess
}

func (h *Host) clockResGet(caller *wasmtime.Caller, id uint32, resultPtr uint32) Errno {
	mem, err := guestMemory(caller)
	if err != nil {
		return ErrnoFault
	}
	if !writeUint64LE(mem, resultPtr, 1) { // 1ns resolution, always.
		return ErrnoFault
	}
	return ErrnoSuccess
}

func (h *Host) clockTimeGet(caller *wasmtime.Caller, id uint32, precision uint64, resultPtr uint32) Errno {
	mem, err := guestMemory(caller)
	if err != nil {
		return ErrnoFault
	}

	now := h.clock.Now()
	if !writeUint64LE(mem, resultPtr, uint64(now.UnixNano())) {
		return ErrnoFault
	}
	return ErrnoSuccess
}

func (h *Host) randomGet(caller *wasmtime.Caller, bufPtr, bufLen uint32) Errno {
	mem, err := guestMemory(caller)
	if err != nil {
		return ErrnoFault
	}

	b, ok := readBytes(mem, bufPtr, bufLen)
	if !ok {
		return ErrnoFault
	}

	h.mu.Lock()
	h.rng.Read(b)
	h.mu.Unlock()

	return ErrnoSuccess
}

// procExit records the guest's requested exit code and returns an
// error, which wasmtime surfaces as a trap that unwinds the call
// immediately. The runner checks Exited() after any failed call,
// ahead of generic trap classification, to recover the exit code.
func (h *Host) procExit(caller *wasmtime.Caller, code int32) error {
	h.mu.Lock()
	h.exited = true
	h.exitCode = code
	h.mu.Unlock()

	h.logger.Printf("guest called proc_exit(%d)", code)
	return &exitError{code: code}
}

func (h *Host) schedYield() Errno {
	return ErrnoSuccess
}

func (h *Host) fdClose(fd uint32) Errno {
	if !h.closeFD(fd) {
		return ErrnoBadf
	}
	return ErrnoSuccess
}

func (h *Host) fdFdstatGet(caller *wasmtime.Caller, fd uint32, resultPtr uint32) Errno {
	f, ok := h.getFile(fd)
	if !ok {
		return ErrnoBadf
	}

	st, err := f.Stat()
	if err != nil {
		return ErrnoIo
	}

	mem, err := guestMemory(caller)
	if err != nil {
		return ErrnoFault
	}
	if !writeFdstat(mem, resultPtr, st.Type, 0) {
		return ErrnoFault
	}
	return ErrnoSuccess
}

func (h *Host) fdPrestatGet(caller *wasmtime.Caller, fd uint32, resultPtr uint32) Errno {
	if fd != fdRoot || h.root == nil {
		return ErrnoBadf
	}

	mem, err := guestMemory(caller)
	if err != nil {
		return ErrnoFault
	}
	if !writePrestat(mem, resultPtr, 1) { // preopened path is always "/"
		return ErrnoFault
	}
	return ErrnoSuccess
}

func (h *Host) fdPrestatDirName(caller *wasmtime.Caller, fd uint32, pathPtr, pathLen uint32) Errno {
	if fd != fdRoot || h.root == nil {
		return ErrnoBadf
	}

	mem, err := guestMemory(caller)
	if err != nil {
		return ErrnoFault
	}

	b, ok := readBytes(mem, pathPtr, pathLen)
	if !ok || pathLen < 1 {
		return ErrnoFault
	}
	b[0] = '/'
	return ErrnoSuccess
}

func (h *Host) fdRead(caller *wasmtime.Caller, fd, iovsPtr, iovsLen, resultPtr uint32) Errno {
	f, ok := h.getFile(fd)
	if !ok {
		return ErrnoBadf
	}

	mem, err := guestMemory(caller)
	if err != nil {
		return ErrnoFault
	}

	iovs, ok := readIovecs(mem, iovsPtr, iovsLen)
	if !ok {
		return ErrnoFault
	}

	var nread uint32
	for _, iov := range iovs {
		b, ok := readBytes(mem, iov.offset, iov.length)
		if !ok {
			return ErrnoFault
		}

		n, err := f.Read(b)
		nread += uint32(n)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return ErrnoIo
		}
		if uint32(n) < iov.length {
			break
		}
	}

	if !writeUint32LE(mem, resultPtr, nread) {
		return ErrnoFault
	}
	return ErrnoSuccess
}

func (h *Host) fdWrite(caller *wasmtime.Caller, fd, iovsPtr, iovsLen, resultPtr uint32) Errno {
	f, ok := h.getFile(fd)
	if !ok {
		return ErrnoBadf
	}

	mem, err := guestMemory(caller)
	if err != nil {
		return ErrnoFault
	}

	iovs, ok := readIovecs(mem, iovsPtr, iovsLen)
	if !ok {
		return ErrnoFault
	}

	var nwritten uint32
	for _, iov := range iovs {
		b, ok := readBytes(mem, iov.offset, iov.length)
		if !ok {
			return ErrnoFault
		}

		n, err := f.Write(b)
		nwritten += uint32(n)
		if err != nil {
			return ErrnoIo
		}
	}

	if !writeUint32LE(mem, resultPtr, nwritten) {
		return ErrnoFault
	}
	return ErrnoSuccess
}

func (h *Host) fdSeek(caller *wasmtime.Caller, fd uint32, offset int64, whence uint32, resultPtr uint32) Errno {
	f, ok := h.getFile(fd)
	if !ok {
		return ErrnoBadf
	}

	goWhence := io.SeekStart
	switch uint8(whence) {
	case WhenceSet:
		goWhence = io.SeekStart
	case WhenceCur:
		goWhence = io.SeekCurrent
	case WhenceEnd:
		goWhence = io.SeekEnd
	default:
		return ErrnoInval
	}

	newOffset, err := f.Seek(offset, goWhence)
	if err != nil {
		return ErrnoIo
	}

	mem, err := guestMemory(caller)
	if err != nil {
		return ErrnoFault
	}
	if !writeUint64LE(mem, resultPtr, uint64(newOffset)) {
		return ErrnoFault
	}
	return ErrnoSuccess
}

func (h *Host) fdReaddir(caller *wasmtime.Caller, fd, bufPtr, bufLen uint32, cookie uint64, resultPtr uint32) Errno {
	f, ok := h.getFile(fd)
	if !ok {
		return ErrnoBadf
	}

	entries, err := f.Readdir(int(cookie), 0)
	if err != nil {
		return ErrnoNotdir
	}

	mem, err2 := guestMemory(caller)
	if err2 != nil {
		return ErrnoFault
	}

	b, ok := readBytes(mem, bufPtr, bufLen)
	if !ok {
		return ErrnoFault
	}

	var written int
	next := cookie
	for _, e := range entries {
		next++
		remaining := b[written:]
		n := writeDirent(remaining, next, e)
		if n == 0 {
			break // doesn't fit; preview1 truncates silently here
		}
		written += n
		if written >= len(b) {
			written = len(b)
			break
		}
	}

	if !writeUint32LE(mem, resultPtr, uint32(written)) {
		return ErrnoFault
	}
	return ErrnoSuccess
}

func (h *Host) fdFilestatGet(caller *wasmtime.Caller, fd uint32, resultPtr uint32) Errno {
	f, ok := h.getFile(fd)
	if !ok {
		return ErrnoBadf
	}

	st, err := f.Stat()
	if err != nil {
		return ErrnoIo
	}

	mem, err := guestMemory(caller)
	if err != nil {
		return ErrnoFault
	}
	if !writeFilestat(mem, resultPtr, st) {
		return ErrnoFault
	}
	return ErrnoSuccess
}

func (h *Host) pathOpen(
	caller *wasmtime.Caller,
	fd, dirflags, pathPtr, pathLen, oflags uint32,
	fsRightsBase, fsRightsInheriting uint64,
	fdflags, resultPtr uint32,
) Errno {
	if fd != fdRoot || h.root == nil {
		return ErrnoBadf
	}

	mem, err := guestMemory(caller)
	if err != nil {
		return ErrnoFault
	}

	b, ok := readBytes(mem, pathPtr, pathLen)
	if !ok {
		return ErrnoFault
	}
	name := string(b)

	f, openErr := h.root.OpenFile(name, uint16(oflags), uint16(fdflags), fsRightsBase)
	if openErr != nil {
		switch {
		case errors.Is(openErr, fs.ErrNotExist):
			return ErrnoNoent
		case errors.Is(openErr, fs.ErrExist):
			return ErrnoExist
		case errors.Is(openErr, fs.ErrPermission):
			return ErrnoPerm
		case errors.Is(openErr, ErrNotDirectory):
			return ErrnoNotdir
		default:
			return ErrnoIo
		}
	}

	newFD := h.allocFD(f)
	if !writeUint32LE(mem, resultPtr, newFD) {
		h.closeFD(newFD)
		return ErrnoFault
	}
	return ErrnoSuccess
}

func (h *Host) pathFilestatGet(caller *wasmtime.Caller, fd, flags, pathPtr, pathLen, resultPtr uint32) Errno {
	if fd != fdRoot || h.root == nil {
		return ErrnoBadf
	}

	mem, err := guestMemory(caller)
	if err != nil {
		return ErrnoFault
	}

	b, ok := readBytes(mem, pathPtr, pathLen)
	if !ok {
		return ErrnoFault
	}

	path := string(b)
	if path == ".." {
		path = "."
	}

	f, openErr := h.root.OpenFile(path, 0, 0, 0)
	if openErr != nil {
		if errors.Is(openErr, fs.ErrNotExist) {
			return ErrnoNoent
		}
		return ErrnoIo
	}
	defer f.Close()

	st, statErr := f.Stat()
	if statErr != nil {
		return ErrnoIo
	}

	if !writeFilestat(mem, resultPtr, st) {
		return ErrnoFault
	}
	return ErrnoSuccess
}
