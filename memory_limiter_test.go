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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMemoryLimiter_GrantsWithinCapacity(t *testing.T) {
	l := NewMemoryLimiter(1024)

	ok, err := l.MemoryGrowing(0, 512, nil)
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint64(512), l.Peak())
	assert.False(t, l.Exceeded())
}

func TestMemoryLimiter_RefusesBeyondCapacityAndLatches(t *testing.T) {
	l := NewMemoryLimiter(1024)

	ok, err := l.MemoryGrowing(0, 2048, nil)
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.True(t, l.Exceeded())
	assert.Equal(t, uint64(2048), l.Peak())
}

func TestMemoryLimiter_PeakUpdatesBeforeDecisionEvenOnRefusal(t *testing.T) {
	l := NewMemoryLimiter(1024)

	_, _ = l.MemoryGrowing(0, 512, nil)
	_, _ = l.MemoryGrowing(512, 4096, nil)

	assert.Equal(t, uint64(4096), l.Peak(), "peak must reflect the refused request too")
	assert.True(t, l.Exceeded())
}

func TestMemoryLimiter_LatchNeverResets(t *testing.T) {
	l := NewMemoryLimiter(1024)

	_, _ = l.MemoryGrowing(0, 4096, nil)
	assert.True(t, l.Exceeded())

	ok, err := l.MemoryGrowing(4096, 100, nil)
	assert.NoError(t, err)
	assert.True(t, ok, "a later small growth below capacity is independently grantable")
	assert.True(t, l.Exceeded(), "but the latch must stay set")
}

func TestMemoryLimiter_TableGrowingIgnoresMemoryCap(t *testing.T) {
	l := NewMemoryLimiter(1)

	max := uint32(10)
	ok, err := l.TableGrowing(0, 5, &max)
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, l.Exceeded(), "table growth must never affect the memory latch")
}

func TestMemoryLimiter_TableGrowingRefusedPastItsOwnMaximum(t *testing.T) {
	l := NewMemoryLimiter(1 << 30)

	max := uint32(10)
	ok, err := l.TableGrowing(0, 11, &max)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryLimiter_TableGrowingUnboundedWithoutMaximum(t *testing.T) {
	l := NewMemoryLimiter(1 << 30)

	ok, err := l.TableGrowing(0, 1<<20, nil)
	assert.NoError(t, err)
	assert.True(t, ok)
}
