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

import "github.com/cespare/xxhash/v2"

// DirInode is the fixed inode number of the JudgeDir root itself,
// analogous to fuseops.RootInodeID in this tree's FUSE lineage.
const DirInode uint64 = 1

// fileInode deterministically hashes name into a stable inode number
// that can never collide with DirInode. Two JudgeDir instances
// registering the same file name always produce the same inode, which
// is what makes a guest's repeated stat() of the same path stable
// within and across runs.
func fileInode(name string) uint64 {
	h := xxhash.Sum64([]byte(name))
	if h == DirInode {
		h++
	}
	return h
}
