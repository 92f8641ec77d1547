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
	"fmt"

	"github.com/bytecodealliance/wasmtime-go/v25"
)

// loadModule turns either a raw WASM binary or bytes previously
// produced by Compile into a *wasmtime.Module against engine.
//
// wasmtime-go has no public API to ask "are these bytes a precompiled
// module," so this mirrors the original judge's detect-then-branch
// behavior by trying deserialization first: a precompiled blob
// deserializes happily, while raw WASM bytes fail deserialization
// (they don't carry the engine's serialization header) and fall
// through to ordinary compilation.
func loadModule(engine *wasmtime.Engine, moduleBytes []byte) (*wasmtime.Module, error) {
	if module, err := wasmtime.NewModuleDeserialize(engine, moduleBytes); err == nil {
		return module, nil
	}

	module, err := wasmtime.NewModule(engine, moduleBytes)
	if err != nil {
		return nil, fmt.Errorf("hull: loading module: %w", err)
	}

	return module, nil
}
