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
	"io"
	"time"
)

// Stat describes the metadata preview1 exposes for a file or
// directory through fd_filestat_get/path_filestat_get.
type Stat struct {
	Inode   uint64
	Type    Filetype
	Size    uint64
	ModTime time.Time
}

// Dirent is a single entry produced by a directory's Readdir.
type Dirent struct {
	Name  string
	Inode uint64
	Type  Filetype
}

// File is the pluggable per-descriptor object backing every open fd
// the guest holds. Not every method applies to every file: a
// read-only file's Write always fails, and a directory's Read always
// fails, mirroring how the directory-specific methods below are only
// meaningful when Stat().Type == FiletypeDirectory.
//
// This is this repository's equivalent of wazero's internal
// experimentalsys.File interface, trimmed to the operations this
// judge's guests can actually reach.
type File interface {
	io.Reader
	io.Writer
	io.Seeker
	io.Closer

	// Stat returns the file's metadata.
	Stat() (Stat, error)

	// Readdir returns up to n entries starting at the given cursor
	// (a count of entries already produced), or all remaining entries
	// if n <= 0. It returns an error for anything that is not a
	// directory.
	Readdir(cursor int, n int) ([]Dirent, error)
}

// FS is the pluggable virtual filesystem a guest's single preopened
// root resolves against. open is always relative to that root; this
// judge never exposes more than one preopened directory, so paths are
// always relative, slash-separated, and never contain "..".
type FS interface {
	// OpenFile opens name with the given oflags/fdflags (see the
	// Oflags*/Fdflags* constants) and the requested base rights (see
	// RightsFDRead/RightsFDWrite), or returns an error satisfying
	// errors.Is against fs.ErrNotExist/fs.ErrExist/fs.ErrPermission as
	// appropriate.
	OpenFile(name string, oflags, fdflags uint16, rightsBase uint64) (File, error)

	// Root returns a File representing "." itself, used to answer
	// fd_prestat_get/fd_prestat_dir_name and readdir on the preopened
	// descriptor without a preceding path_open.
	Root() File
}
