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

import (
	"github.com/bytecodealliance/wasmtime-go/v25"
	"github.com/jacobsa/syncutil"
)

// MemoryLimiter enforces a cap on a guest's linear memory while
// tracking the peak number of bytes it ever asked for, even when a
// request is refused. Table growth is bounded only by the maximum the
// caller supplies for that particular growth request; it is never
// counted against the memory cap.
//
// A MemoryLimiter is used for exactly one Run call and discarded
// afterward.
type MemoryLimiter struct {
	mu syncutil.InvariantMutex

	// capacity is the maximum number of linear-memory bytes the guest
	// may hold at once.
	capacity uint64

	// peak is the largest "desired" size ever requested, updated
	// before the allow/deny decision is made, so it reflects the high
	// water mark even for a refused request.
	peak uint64

	// exceeded latches true the first time a growth request is
	// refused, and never resets.
	exceeded bool
}

var _ wasmtime.ResourceLimiter = (*MemoryLimiter)(nil)

// NewMemoryLimiter returns a limiter that permits linear memory to
// grow up to capacity bytes.
func NewMemoryLimiter(capacity uint64) *MemoryLimiter {
	l := &MemoryLimiter{capacity: capacity}
	l.mu = syncutil.NewInvariantMutex(l.checkInvariants)
	return l
}

func (l *MemoryLimiter) checkInvariants() {
	if l.exceeded && l.peak <= l.capacity {
		panic("MemoryLimiter: exceeded latched but peak does not exceed capacity")
	}
}

// MemoryGrowing is called by wasmtime before a guest's linear memory
// grows from current to desired bytes. maximum, if non-nil, is the
// module-declared maximum for that memory.
func (l *MemoryLimiter) MemoryGrowing(current, desired uint64, maximum *uint64) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if desired > l.peak {
		l.peak = desired
	}

	if desired > l.capacity {
		l.exceeded = true
		return false, nil
	}

	return true, nil
}

// TableGrowing is called before a guest's table grows. Tables are
// never counted against the memory cap; growth is refused only if it
// would exceed the per-table maximum the guest itself declared.
func (l *MemoryLimiter) TableGrowing(current, desired uint32, maximum *uint32) (bool, error) {
	if maximum != nil && desired > *maximum {
		return false, nil
	}
	return true, nil
}

// Peak returns the largest linear-memory size ever requested, whether
// or not the request was granted.
func (l *MemoryLimiter) Peak() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.peak
}

// Exceeded reports whether any growth request has ever been refused.
func (l *MemoryLimiter) Exceeded() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.exceeded
}
