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

package judgedir

import (
	"errors"
	"io"

	"github.com/rindag-devs/hull/internal/wasip1"
)

var (
	errIsDirectory  = errors.New("judgedir: is a directory")
	errNotReadable  = errors.New("judgedir: file is write-only")
	errNotWritable  = errors.New("judgedir: file is read-only")
	errNotSeekable  = errors.New("judgedir: write-only file does not support seeking")
)

// dirFile is the File view of the JudgeDir root itself: the single
// preopened descriptor every guest receives as fd 3.
type dirFile struct {
	jd *JudgeDir
}

func (f *dirFile) Read(p []byte) (int, error)  { return 0, errIsDirectory }
func (f *dirFile) Write(p []byte) (int, error) { return 0, errIsDirectory }
func (f *dirFile) Seek(offset int64, whence int) (int64, error) {
	return 0, errIsDirectory
}
func (f *dirFile) Close() error { return nil }

func (f *dirFile) Stat() (wasip1.Stat, error) {
	return dirStat(), nil
}

func (f *dirFile) Readdir(cursor int, n int) ([]wasip1.Dirent, error) {
	all := f.jd.entries()
	if cursor >= len(all) {
		return nil, nil
	}
	all = all[cursor:]
	if n > 0 && n < len(all) {
		all = all[:n]
	}
	return all, nil
}

// readOnlyFile is the File view of a registered read-only entry: a
// plain byte slice the guest may read and seek within, never write.
type readOnlyFile struct {
	e   *entry
	off int64
}

func (f *readOnlyFile) Read(p []byte) (int, error) {
	if f.off >= int64(len(f.e.data)) {
		return 0, io.EOF
	}
	n := copy(p, f.e.data[f.off:])
	f.off += int64(n)
	return n, nil
}

func (f *readOnlyFile) Write(p []byte) (int, error) { return 0, errNotWritable }

func (f *readOnlyFile) Seek(offset int64, whence int) (int64, error) {
	var base int64
	switch whence {
	case int(wasip1.WhenceSet):
		base = 0
	case int(wasip1.WhenceCur):
		base = f.off
	case int(wasip1.WhenceEnd):
		base = int64(len(f.e.data))
	default:
		return 0, errors.New("judgedir: invalid whence")
	}
	newOff := base + offset
	if newOff < 0 {
		return 0, errors.New("judgedir: negative seek position")
	}
	f.off = newOff
	return f.off, nil
}

func (f *readOnlyFile) Close() error { return nil }

func (f *readOnlyFile) Stat() (wasip1.Stat, error) { return f.e.stat(), nil }

func (f *readOnlyFile) Readdir(cursor int, n int) ([]wasip1.Dirent, error) {
	return nil, wasip1.ErrNotDirectory
}

// writeOnlyFile is the File view of a registered write-only entry.
// Every byte written is forwarded to the entry's sink in order; like
// hull.LimitedBuffer, it is append-only and never seekable or
// readable back.
type writeOnlyFile struct {
	jd *JudgeDir
	e  *entry
}

func (f *writeOnlyFile) Read(p []byte) (int, error) { return 0, errNotReadable }

func (f *writeOnlyFile) Write(p []byte) (int, error) {
	n, err := f.e.sink.Write(p)
	f.jd.mu.Lock()
	f.e.size += n
	f.jd.mu.Unlock()
	return n, err
}

func (f *writeOnlyFile) Seek(offset int64, whence int) (int64, error) {
	return 0, errNotSeekable
}

func (f *writeOnlyFile) Close() error { return nil }

func (f *writeOnlyFile) Stat() (wasip1.Stat, error) {
	f.jd.mu.RLock()
	defer f.jd.mu.RUnlock()
	return f.e.stat(), nil
}

func (f *writeOnlyFile) Readdir(cursor int, n int) ([]wasip1.Dirent, error) {
	return nil, wasip1.ErrNotDirectory
}
