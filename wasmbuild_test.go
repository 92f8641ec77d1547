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

// This file hand-assembles a handful of minimal WebAssembly binaries
// for runner_test.go, rather than shipping prebuilt .wasm fixtures, so
// that every guest module a test exercises is visible as plain Go
// alongside the assertions it backs.

const wasmMagicVersion = "\x00asm\x01\x00\x00\x00"

func uleb128(x uint64) []byte {
	var out []byte
	for {
		b := byte(x & 0x7f)
		x >>= 7
		if x != 0 {
			b |= 0x80
		}
		out = append(out, b)
		if x == 0 {
			return out
		}
	}
}

func sleb128(x int64) []byte {
	var out []byte
	more := true
	for more {
		b := byte(x & 0x7f)
		x >>= 7
		signBitSet := b&0x40 != 0
		if (x == 0 && !signBitSet) || (x == -1 && signBitSet) {
			more = false
		} else {
			b |= 0x80
		}
		out = append(out, b)
	}
	return out
}

func wasmSection(id byte, content []byte) []byte {
	out := []byte{id}
	out = append(out, uleb128(uint64(len(content)))...)
	return append(out, content...)
}

func wasmVec(items [][]byte) []byte {
	out := uleb128(uint64(len(items)))
	for _, it := range items {
		out = append(out, it...)
	}
	return out
}

func wasmName(s string) []byte {
	return append(uleb128(uint64(len(s))), []byte(s)...)
}

// funcType encodes a function type with the given number of i32
// parameters and i32 results.
func funcType(params, results int) []byte {
	b := []byte{0x60}
	b = append(b, uleb128(uint64(params))...)
	for i := 0; i < params; i++ {
		b = append(b, 0x7f)
	}
	b = append(b, uleb128(uint64(results))...)
	for i := 0; i < results; i++ {
		b = append(b, 0x7f)
	}
	return b
}

// wasmImport describes one entry of the import section: a reference
// to a host function of the given type, by module/field name.
type wasmImport struct {
	module, field string
	typeIndex     uint64
}

func (im wasmImport) encode() []byte {
	out := wasmName(im.module)
	out = append(out, wasmName(im.field)...)
	out = append(out, 0x00) // import kind: func
	out = append(out, uleb128(im.typeIndex)...)
	return out
}

// buildModule assembles a complete module binary: types, then
// imported functions, then one locally-defined function per entry in
// bodies (each typed as typeIndex 0, () -> ()), exported under the
// given names in order, optionally with a linear memory declared with
// the given page bounds.
func buildModule(imports []wasmImport, bodies [][]byte, exportNames []string, memMinPages, memMaxPages uint32, declareMemory bool) []byte {
	types := [][]byte{funcType(0, 0), funcType(1, 0)}
	typeSec := wasmSection(1, wasmVec(types))

	var importEncoded [][]byte
	for _, im := range imports {
		importEncoded = append(importEncoded, im.encode())
	}
	var importSec []byte
	if len(imports) > 0 {
		importSec = wasmSection(2, wasmVec(importEncoded))
	}

	var funcIdx [][]byte
	for range bodies {
		funcIdx = append(funcIdx, uleb128(0)) // every locally-defined function is type 0
	}
	funcSec := wasmSection(3, wasmVec(funcIdx))

	var memSec []byte
	if declareMemory {
		limits := []byte{0x01} // flag: has max
		limits = append(limits, uleb128(uint64(memMinPages))...)
		limits = append(limits, uleb128(uint64(memMaxPages))...)
		memSec = wasmSection(5, wasmVec([][]byte{limits}))
	}

	firstLocalFuncIdx := uint64(len(imports))
	var exportEncoded [][]byte
	for i, name := range exportNames {
		e := wasmName(name)
		e = append(e, 0x00) // export kind: func
		e = append(e, uleb128(firstLocalFuncIdx+uint64(i))...)
		exportEncoded = append(exportEncoded, e)
	}
	exportSec := wasmSection(7, wasmVec(exportEncoded))

	var codeEncoded [][]byte
	for _, instrs := range bodies {
		body := []byte{0x00} // zero local declarations
		body = append(body, instrs...)
		entry := uleb128(uint64(len(body)))
		entry = append(entry, body...)
		codeEncoded = append(codeEncoded, entry)
	}
	codeSec := wasmSection(10, wasmVec(codeEncoded))

	out := []byte(wasmMagicVersion)
	out = append(out, typeSec...)
	out = append(out, importSec...)
	out = append(out, funcSec...)
	out = append(out, memSec...)
	out = append(out, exportSec...)
	out = append(out, codeSec...)
	return out
}

const (
	opUnreachable   = 0x00
	opEnd           = 0x0B
	opCall          = 0x10
	opI32Const      = 0x41
	opLoop          = 0x03
	opBr            = 0x0C
	opBlockTypeVoid = 0x40
	opMemoryGrow    = 0x40
	opDrop          = 0x1A
)

// wasmEmptyModule has no exports at all.
func wasmEmptyModule() []byte {
	return buildModule(nil, nil, nil, 0, 0, false)
}

// wasmNoopModule exports "" as a function that does nothing.
func wasmNoopModule() []byte {
	body := []byte{opEnd}
	return buildModule(nil, [][]byte{body}, []string{""}, 0, 0, false)
}

// wasmInfiniteLoopModule exports "" as a function that loops forever,
// burning fuel until the host's tick budget runs out.
func wasmInfiniteLoopModule() []byte {
	body := []byte{opLoop, opBlockTypeVoid, opBr, 0x00, opEnd, opEnd}
	return buildModule(nil, [][]byte{body}, []string{""}, 0, 0, false)
}

// wasmGrowMemoryModule exports "" as a function that declares a small
// memory and then asks to grow it by growPages pages, discarding the
// result (which is -1 if the host's MemoryLimiter refuses the
// growth), then traps unconditionally so the call always fails,
// mirroring how a guest's allocator typically aborts on an OOM signal
// from memory.grow.
func wasmGrowMemoryModule(growPages int64) []byte {
	body := append([]byte{opI32Const}, sleb128(growPages)...)
	body = append(body, opMemoryGrow, 0x00, opDrop)
	body = append(body, opUnreachable)
	body = append(body, opEnd)
	return buildModule(nil, [][]byte{body}, []string{""}, 1, 65536, true)
}

// wasmProcExitModule exports "" as a function that imports
// wasi_snapshot_preview1.proc_exit and calls it with the given code.
func wasmProcExitModule(code int32) []byte {
	imports := []wasmImport{{module: "wasi_snapshot_preview1", field: "proc_exit", typeIndex: 1}}
	body := append([]byte{opI32Const}, sleb128(int64(code))...)
	body = append(body, opCall, 0x00) // call imported function index 0
	body = append(body, opEnd)
	return buildModule(imports, [][]byte{body}, []string{""}, 0, 0, false)
}
