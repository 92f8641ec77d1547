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

// Package hull runs untrusted WebAssembly programs under strict,
// reproducible resource limits and reports a structured verdict.
//
// The primary elements of interest are:
//
//  *  Compile, which precompiles raw WASM bytes into the engine's
//     serialized module format ahead of time.
//
//  *  Run, which instantiates a module (raw or precompiled) against a
//     fuel budget, a memory cap, and an optional judgedir.JudgeDir,
//     and returns a RunResult classifying the outcome.
//
//  *  judgedir.JudgeDir, an in-memory virtual directory of curated
//     read-only and write-only files exposed to the guest as its sole
//     preopened root.
//
// Every run is deterministic: the guest sees a frozen system clock, a
// fixed-seed random source, a fixed argv[0] prefix, and an engine with
// the bulk memory, multi-value, reference types, SIMD, memory64,
// multi-memory and threads proposals disabled (other proposals keep
// the engine's defaults).
package hull
