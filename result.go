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

// RunStatus classifies the outcome of a single Run call.
type RunStatus string

const (
	// StatusInternalError means something failed before or outside of
	// guest execution proper: malformed module bytes, engine
	// construction failure, or any other condition the guest itself
	// never had a chance to cause.
	StatusInternalError RunStatus = "internal_error"

	// StatusAccepted means the guest's entry point returned cleanly.
	StatusAccepted RunStatus = "accepted"

	// StatusRuntimeError means the guest trapped, exited with a
	// nonzero or otherwise notable WASI exit code, or otherwise failed
	// in a way attributable to the guest program itself.
	StatusRuntimeError RunStatus = "runtime_error"

	// StatusTimeLimitExceeded means the guest exhausted its fuel
	// budget before returning.
	StatusTimeLimitExceeded RunStatus = "time_limit_exceeded"

	// StatusMemoryLimitExceeded means the guest was refused a linear
	// memory growth that would have exceeded its configured cap.
	StatusMemoryLimitExceeded RunStatus = "memory_limit_exceeded"
)

// RunResult is the canonical verdict produced by Run.
type RunResult struct {
	Status RunStatus `json:"status"`

	// Tick is tick_limit minus the fuel remaining when execution
	// stopped, computed unconditionally regardless of outcome.
	Tick uint64 `json:"tick"`

	// Memory is the peak number of linear-memory bytes the guest ever
	// requested, as observed by the MemoryLimiter, regardless of
	// whether every request was granted.
	Memory uint64 `json:"memory"`

	// ExitCode is the WASI-style exit code carried by a StatusRuntimeError
	// outcome that came from an explicit exit call. It is -1 for every
	// other outcome, including RuntimeError outcomes that did not carry
	// an explicit exit code, and 0 for StatusAccepted.
	ExitCode int32 `json:"exit_code"`

	// ErrorMessage is the guest- or host-attributable failure text for
	// StatusInternalError and for StatusRuntimeError outcomes that did
	// not carry an explicit exit code (traps, malformed modules,
	// host-side failures). It is the empty string for every other
	// outcome.
	ErrorMessage string `json:"error_message"`
}

func newInternalError(err error) *RunResult {
	return &RunResult{
		Status:       StatusInternalError,
		ExitCode:     -1,
		ErrorMessage: err.Error(),
	}
}

func newAccepted(tick, memory uint64) *RunResult {
	return &RunResult{
		Status:   StatusAccepted,
		Tick:     tick,
		Memory:   memory,
		ExitCode: 0,
	}
}

func newTimeLimitExceeded(tick, memory uint64) *RunResult {
	return &RunResult{
		Status:   StatusTimeLimitExceeded,
		Tick:     tick,
		Memory:   memory,
		ExitCode: -1,
	}
}

func newMemoryLimitExceeded(tick, memory uint64) *RunResult {
	return &RunResult{
		Status:   StatusMemoryLimitExceeded,
		Tick:     tick,
		Memory:   memory,
		ExitCode: -1,
	}
}

func newRuntimeErrorExit(tick, memory uint64, exitCode int32) *RunResult {
	return &RunResult{
		Status:   StatusRuntimeError,
		Tick:     tick,
		Memory:   memory,
		ExitCode: exitCode,
	}
}

func newRuntimeErrorMessage(tick, memory uint64, message string) *RunResult {
	return &RunResult{
		Status:       StatusRuntimeError,
		Tick:         tick,
		Memory:       memory,
		ExitCode:     -1,
		ErrorMessage: message,
	}
}
