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

import "fmt"

// StringEncoding is the decoded representation of a recovered string.
type StringEncoding int

const (
	ASCII StringEncoding = iota
	UTF8
	UTF16LE
)

func (e StringEncoding) String() string {
	switch e {
	case ASCII:
		return "ASCII"
	case UTF8:
		return "UTF8"
	case UTF16LE:
		return "UTF16LE"
	default:
		return fmt.Sprintf("StringEncoding(%d)", int(e))
	}
}

// Machine is a tagged variant over the PE machine types this module
// understands. Anything else is Unsupported.
type Machine int

const (
	Unsupported Machine = iota
	X86
	X64
)

// PE COFF machine type constants (IMAGE_FILE_MACHINE_*).
const (
	imageFileMachineI386  = 0x014c
	imageFileMachineAMD64 = 0x8664
)

// MachineFromPE translates a PE COFF file header Machine field into the
// tagged variant this module dispatches on.
func MachineFromPE(machine uint16) Machine {
	switch machine {
	case imageFileMachineI386:
		return X86
	case imageFileMachineAMD64:
		return X64
	default:
		return Unsupported
	}
}

func (m Machine) String() string {
	switch m {
	case X86:
		return "x86"
	case X64:
		return "x64"
	default:
		return "unsupported"
	}
}

// PointerSize returns the pointer width in bytes for the machine, or 0 if
// the machine is Unsupported.
func (m Machine) PointerSize() int {
	switch m {
	case X86:
		return 4
	case X64:
		return 8
	default:
		return 0
	}
}

// StaticString is a recovered string with provenance. It is constructed by
// the blob engine (or an external static-scan collaborator) and never
// mutated afterwards; splitting replaces an instance with up to two new
// ones instead of editing in place.
type StaticString struct {
	Bytes    string
	Offset   int64
	Encoding StringEncoding
}

// NewStaticString enforces the length invariant at construction time: the
// second return value is false if bytes does not meet minLength, in which
// case the zero StaticString is returned and must be discarded by the
// caller.
func NewStaticString(bytes string, offset int64, encoding StringEncoding, minLength int) (StaticString, bool) {
	if len(bytes) < minLength {
		return StaticString{}, false
	}
	return StaticString{Bytes: bytes, Offset: offset, Encoding: encoding}, true
}

// TightString is a string recovered from a stack snapshot taken at the
// boundary of an inner loop that built it byte-by-byte.
type TightString struct {
	FunctionVA      uint64
	Bytes           string
	Encoding        StringEncoding
	ProgramCounter  uint64
	StackPointer    uint64
	InitialStackPtr uint64
	StackOffset     int64
	FrameOffset     int64
}

// NewTightString computes FrameOffset per the formula
// (initialSP - sp) - stackOffset - pointerSize and returns the resulting
// value.
func NewTightString(fva uint64, bytes string, enc StringEncoding, pc, sp, initialSP uint64, stackOffset int64, pointerSize int) TightString {
	frameOffset := int64(initialSP-sp) - stackOffset - int64(pointerSize)
	return TightString{
		FunctionVA:      fva,
		Bytes:           bytes,
		Encoding:        enc,
		ProgramCounter:  pc,
		StackPointer:    sp,
		InitialStackPtr: initialSP,
		StackOffset:     stackOffset,
		FrameOffset:     frameOffset,
	}
}

// StructCandidate is an inferred (pointer, length) descriptor found in the
// read-only section. Length only participates in filtering upstream; it is
// not exported beyond this package.
type StructCandidate struct {
	address uint64
	length  uint64
}

// Address is the VA the candidate's pointer field targets.
func (c StructCandidate) Address() uint64 { return c.address }

// Xref is a single code-to-data reference discovered while scanning
// instruction bytes.
type Xref struct {
	TargetVA uint64
}

// CallContext is a snapshot of emulator state at one point of interest
// during emulation of a single function.
type CallContext struct {
	ProgramCounter  uint64
	StackPointer    uint64
	InitialStackPtr uint64
	StackMemory     []byte
}

// SectionView is an immutable descriptor of a PE section's layout and raw
// bytes, as exposed for the read-only data section.
type SectionView struct {
	VirtualAddress   uint32
	PointerToRawData uint32
	SizeOfRawData    uint32
	RawBytes         []byte
}

// Start is the file offset of the first byte of the section.
func (s SectionView) Start() int64 { return int64(s.PointerToRawData) }

// End is the file offset one past the last byte of the section.
func (s SectionView) End() int64 { return int64(s.PointerToRawData) + int64(s.SizeOfRawData) }

// FileOffset translates a virtual address into a file offset within this
// section, given the image base the section's VirtualAddress is relative
// to.
func (s SectionView) FileOffset(va, imageBase uint64) int64 {
	return int64(va) - int64(imageBase) - int64(s.VirtualAddress) + int64(s.PointerToRawData)
}

// Contains reports whether off is a valid byte position within the
// section's raw data.
func (s SectionView) Contains(off int64) bool {
	return off >= s.Start() && off < s.End()
}
