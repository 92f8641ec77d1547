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

// Package judgedir implements the single curated virtual directory a
// guest sees as its preopened root: a fixed set of read-only files
// (typically the test case's input) and write-only files (typically
// the guest's declared output), and nothing else. Every other
// filesystem operation a guest might attempt against this directory
// is refused.
package judgedir

import (
	"fmt"
	"io"
	"io/fs"
	"time"

	"github.com/jacobsa/syncutil"
	"github.com/rindag-devs/hull/internal/wasip1"
)

// ReadOnlyFile describes one read-only entry to register with New.
type ReadOnlyFile struct {
	Name string
	Data []byte
}

// WriteOnlyFile describes one write-only entry to register with New.
// Sink receives every byte the guest writes, in order; it is never
// read back by JudgeDir itself, only by whatever the caller wired
// Sink to (typically a hull.LimitedBuffer).
type WriteOnlyFile struct {
	Name string
	Sink io.Writer
}

type entry struct {
	name     string
	inode    uint64
	writable bool

	data []byte    // valid when !writable
	sink io.Writer // valid when writable
	size int       // bytes written so far, when writable
}

// JudgeDir is an in-memory virtual directory exposing exactly the
// files it was constructed with, in the canonical order ".", "..",
// every read-only file (registration order), then every write-only
// file (registration order). It implements wasip1.FS.
//
// A JudgeDir is built once for a single Run and is not safe to reuse
// across runs: write-only files retain how many bytes have been
// written so far.
type JudgeDir struct {
	mu syncutil.InvariantMutex

	roNames []string
	woNames []string
	byName  map[string]*entry
}

var _ wasip1.FS = (*JudgeDir)(nil)

// New builds a JudgeDir exposing exactly the given read-only and
// write-only files. Names must be unique across both lists.
func New(readOnly []ReadOnlyFile, writeOnly []WriteOnlyFile) *JudgeDir {
	jd := &JudgeDir{
		byName: make(map[string]*entry, len(readOnly)+len(writeOnly)),
	}
	jd.mu = syncutil.NewInvariantMutex(jd.checkInvariants)

	for _, f := range readOnly {
		jd.roNames = append(jd.roNames, f.Name)
		jd.byName[f.Name] = &entry{
			name:  f.Name,
			inode: fileInode(f.Name),
			data:  f.Data,
		}
	}

	for _, f := range writeOnly {
		jd.woNames = append(jd.woNames, f.Name)
		jd.byName[f.Name] = &entry{
			name:     f.Name,
			inode:    fileInode(f.Name),
			writable: true,
			sink:     f.Sink,
		}
	}

	return jd
}

func (jd *JudgeDir) checkInvariants() {
	if len(jd.roNames)+len(jd.woNames) != len(jd.byName) {
		panic("judgedir: roNames/woNames out of sync with byName")
	}
	for _, name := range jd.roNames {
		if e, ok := jd.byName[name]; !ok || e.writable {
			panic(fmt.Sprintf("judgedir: %q missing from byName or marked writable", name))
		}
	}
	for _, name := range jd.woNames {
		if e, ok := jd.byName[name]; !ok || !e.writable {
			panic(fmt.Sprintf("judgedir: %q missing from byName or marked read-only", name))
		}
	}
}

// Root returns the directory itself as a wasip1.File, used to answer
// the guest's single preopened descriptor.
func (jd *JudgeDir) Root() wasip1.File {
	return &dirFile{jd: jd}
}

// OpenFile resolves name against the curated file set. "." resolves
// to the directory itself. Any other name not registered at
// construction returns an fs.ErrNotExist-wrapped error. The
// DIRECTORY oflag is only honored against ".": every registered entry
// is a plain file, never a subdirectory.
func (jd *JudgeDir) OpenFile(name string, oflags, fdflags uint16, rightsBase uint64) (wasip1.File, error) {
	if name == "." || name == "" {
		return jd.Root(), nil
	}

	if oflags&wasip1.OflagsDirectory != 0 {
		return nil, wasip1.ErrNotDirectory
	}

	jd.mu.RLock()
	e, ok := jd.byName[name]
	jd.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("judgedir: %q: %w", name, fs.ErrNotExist)
	}

	if e.writable {
		if rightsBase&wasip1.RightsFDRead != 0 {
			return nil, fmt.Errorf("judgedir: %q is write-only: %w", name, fs.ErrPermission)
		}
		return &writeOnlyFile{jd: jd, e: e}, nil
	}

	if oflags&(wasip1.OflagsCreat|wasip1.OflagsTrunc|wasip1.OflagsExcl) != 0 || rightsBase&wasip1.RightsFDWrite != 0 {
		return nil, fmt.Errorf("judgedir: %q is read-only: %w", name, fs.ErrPermission)
	}
	return &readOnlyFile{e: e}, nil
}

// dirStat returns the filestat of the directory itself.
func dirStat() wasip1.Stat {
	return wasip1.Stat{
		Inode:   DirInode,
		Type:    wasip1.FiletypeDirectory,
		Size:    0,
		ModTime: time.Unix(0, 0).UTC(),
	}
}

func (e *entry) stat() wasip1.Stat {
	size := len(e.data)
	if e.writable {
		size = e.size
	}
	return wasip1.Stat{
		Inode:   e.inode,
		Type:    wasip1.FiletypeRegularFile,
		Size:    uint64(size),
		ModTime: time.Unix(0, 0).UTC(),
	}
}

// entries returns the full canonical directory listing: ".", "..",
// then every read-only name, then every write-only name, each in
// registration order.
func (jd *JudgeDir) entries() []wasip1.Dirent {
	jd.mu.RLock()
	defer jd.mu.RUnlock()

	out := make([]wasip1.Dirent, 0, 2+len(jd.roNames)+len(jd.woNames))
	out = append(out,
		wasip1.Dirent{Name: ".", Inode: DirInode, Type: wasip1.FiletypeDirectory},
		wasip1.Dirent{Name: "..", Inode: DirInode, Type: wasip1.FiletypeDirectory},
	)
	for _, name := range jd.roNames {
		out = append(out, wasip1.Dirent{Name: name, Inode: jd.byName[name].inode, Type: wasip1.FiletypeRegularFile})
	}
	for _, name := range jd.woNames {
		out = append(out, wasip1.Dirent{Name: name, Inode: jd.byName[name].inode, Type: wasip1.FiletypeRegularFile})
	}
	return out
}
