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

package floss

import "errors"

// Sentinel errors for the recoverable conditions the spec calls out.
// Callers compare with errors.Is; the engines themselves swallow these and
// return empty results rather than propagating them further, per the
// error-handling design.
var (
	// ErrNotAPE indicates the sample failed PE parsing.
	ErrNotAPE = errors.New("floss: not a PE file")

	// ErrNoRdata indicates the read-only data section is absent.
	ErrNoRdata = errors.New("floss: no rdata section")

	// ErrUnsupportedMachine indicates the PE is neither 32- nor 64-bit x86.
	ErrUnsupportedMachine = errors.New("floss: unsupported machine type")

	// ErrStackRead indicates a stack-memory read failed while capturing a
	// call context.
	ErrStackRead = errors.New("floss: stack read failed")

	// ErrEmulatorFault indicates the emulator faulted while driving a
	// function.
	ErrEmulatorFault = errors.New("floss: emulator fault")
)
