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
	"time"
)

var errNotSeekable = errors.New("wasip1: stream does not support seeking")
var errNotReadable = errors.New("wasip1: file is write-only")
var errNotWritable = errors.New("wasip1: file is read-only")

// ErrNotDirectory is returned by an FS's OpenFile when the caller
// requested the DIRECTORY oflag against a name that does not resolve
// to a directory.
var ErrNotDirectory = errors.New("wasip1: not a directory")

// streamFile adapts a plain io.Reader or io.Writer (stdin, stdout,
// stderr) to the File interface. It never supports seeking or
// directory listing; Stat reports it as a character device, matching
// how a real terminal-backed fd would be classified.
type streamFile struct {
	r io.Reader
	w io.Writer
}

// NewReaderFile wraps r as a read-only, non-seekable File suitable
// for fd 0 (stdin).
func NewReaderFile(r io.Reader) File {
	return &streamFile{r: r}
}

// NewWriterFile wraps w as a write-only, non-seekable File suitable
// for fd 1/2 (stdout/stderr).
func NewWriterFile(w io.Writer) File {
	return &streamFile{w: w}
}

func (f *streamFile) Read(p []byte) (int, error) {
	if f.r == nil {
		return 0, errNotReadable
	}
	return f.r.Read(p)
}

func (f *streamFile) Write(p []byte) (int, error) {
	if f.w == nil {
		return 0, errNotWritable
	}
	return f.w.Write(p)
}

func (f *streamFile) Seek(offset int64, whence int) (int64, error) {
	return 0, errNotSeekable
}

func (f *streamFile) Close() error {
	return nil
}

func (f *streamFile) Stat() (Stat, error) {
	return Stat{
		Inode:   0,
		Type:    FiletypeCharacterDevice,
		Size:    0,
		ModTime: time.Unix(0, 0).UTC(),
	}, nil
}

func (f *streamFile) Readdir(cursor int, n int) ([]Dirent, error) {
	return nil, ErrNotDirectory
}
