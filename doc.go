// Copyright 2025 floss-core Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package floss recovers strings from Windows PE binaries that a plain
// linear scan misses: language string blobs emitted by Rust/Go toolchains,
// and tightstrings assembled byte-by-byte on the stack by an inner loop.
//
// The package is split into five components: an FP filter that strips
// known-noise text, an xref harvester and a struct-string harvester that
// both locate candidate string addresses in code and data, a blob string
// engine that turns a read-only section plus those addresses into final
// strings, and a tightstring engine that drives an external emulator to
// recover stack-built strings. None of PE parsing, disassembly, or
// emulation is implemented here; they are accepted as injected
// collaborators through the interfaces in interfaces.go.
package floss
