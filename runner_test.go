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
	"bytes"
	"context"
	"testing"

	"github.com/rindag-devs/hull/judgedir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	smallMemoryLimit = 16 * 1024 * 1024
	generousTicks    = 10_000_000
)

func TestRun_Accepted(t *testing.T) {
	stdout := NewLimitedBuffer(4096)
	stderr := NewLimitedBuffer(4096)

	result, err := Run(context.Background(), wasmNoopModule(), nil, generousTicks, smallMemoryLimit,
		bytes.NewReader(nil), stdout, stderr, nil)
	require.NoError(t, err)

	assert.Equal(t, StatusAccepted, result.Status)
	assert.Empty(t, result.ErrorMessage)
	assert.EqualValues(t, 0, result.ExitCode)
}

func TestRun_NoEntryPoint(t *testing.T) {
	stdout := NewLimitedBuffer(4096)
	stderr := NewLimitedBuffer(4096)

	result, err := Run(context.Background(), wasmEmptyModule(), nil, generousTicks, smallMemoryLimit,
		bytes.NewReader(nil), stdout, stderr, nil)
	require.NoError(t, err)

	assert.Equal(t, StatusInternalError, result.Status)
	assert.Contains(t, result.ErrorMessage, "entry point")
}

func TestRun_TimeLimitExceeded(t *testing.T) {
	stdout := NewLimitedBuffer(4096)
	stderr := NewLimitedBuffer(4096)

	result, err := Run(context.Background(), wasmInfiniteLoopModule(), nil, 1000, smallMemoryLimit,
		bytes.NewReader(nil), stdout, stderr, nil)
	require.NoError(t, err)

	assert.Equal(t, StatusTimeLimitExceeded, result.Status)
	assert.LessOrEqual(t, result.Tick, uint64(1000))
	assert.Greater(t, result.Tick, uint64(0))
}

func TestRun_MemoryLimitExceeded(t *testing.T) {
	stdout := NewLimitedBuffer(4096)
	stderr := NewLimitedBuffer(4096)

	const memoryLimit = 128 * 1024 // two 64 KiB pages

	result, err := Run(context.Background(), wasmGrowMemoryModule(1000), nil, generousTicks, memoryLimit,
		bytes.NewReader(nil), stdout, stderr, nil)
	require.NoError(t, err)

	assert.Equal(t, StatusMemoryLimitExceeded, result.Status)
	assert.Greater(t, result.Memory, uint64(memoryLimit))
}

func TestRun_RuntimeErrorExitCode(t *testing.T) {
	stdout := NewLimitedBuffer(4096)
	stderr := NewLimitedBuffer(4096)

	result, err := Run(context.Background(), wasmProcExitModule(42), nil, generousTicks, smallMemoryLimit,
		bytes.NewReader(nil), stdout, stderr, nil)
	require.NoError(t, err)

	assert.Equal(t, StatusRuntimeError, result.Status)
	assert.EqualValues(t, 42, result.ExitCode)
}

func TestRun_WithJudgeDirAccepted(t *testing.T) {
	stdout := NewLimitedBuffer(4096)
	stderr := NewLimitedBuffer(4096)
	output := NewLimitedBuffer(4096)

	dir := judgedir.New(
		[]judgedir.ReadOnlyFile{{Name: "input.txt", Data: []byte("hello")}},
		[]judgedir.WriteOnlyFile{{Name: "output.txt", Sink: output}},
	)

	result, err := Run(context.Background(), wasmNoopModule(), nil, generousTicks, smallMemoryLimit,
		bytes.NewReader(nil), stdout, stderr, dir)
	require.NoError(t, err)

	assert.Equal(t, StatusAccepted, result.Status)
	assert.Equal(t, 0, output.Len())
}

func TestRun_ContextAlreadyCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stdout := NewLimitedBuffer(4096)
	stderr := NewLimitedBuffer(4096)

	result, err := Run(ctx, wasmNoopModule(), nil, generousTicks, smallMemoryLimit,
		bytes.NewReader(nil), stdout, stderr, nil)
	require.NoError(t, err)
	assert.Equal(t, StatusInternalError, result.Status)
}

func TestCompile_RoundTrip(t *testing.T) {
	compiled, err := Compile(context.Background(), wasmNoopModule())
	require.NoError(t, err)
	require.NotEmpty(t, compiled)

	stdout := NewLimitedBuffer(4096)
	stderr := NewLimitedBuffer(4096)

	result, err := Run(context.Background(), compiled, nil, generousTicks, smallMemoryLimit,
		bytes.NewReader(nil), stdout, stderr, nil)
	require.NoError(t, err)
	assert.Equal(t, StatusAccepted, result.Status)
}

func TestCompile_InvalidBytes(t *testing.T) {
	_, err := Compile(context.Background(), []byte("not a wasm module"))
	assert.Error(t, err)
}
