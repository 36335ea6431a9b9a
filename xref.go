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

import (
	"encoding/binary"

	"github.com/samber/lo"
)

// x86 opcode bytes this harvester recognizes.
const (
	opcodeLEAModRM   = 0x8D
	opcodePushImm32  = 0x68
	opcodeMovImm32Op = 0xB8 // mov r32, imm32: one opcode per register, 0xB8..0xBF
	opcodeMovImm32RM = 0xC7 // mov r/m32, imm32 (ModRM /0)
)

// vaInSection reports whether va lands inside sec once translated through
// the section's own FileOffset/Contains — i.e. whether va is a plausible
// pointer into rdata.
func vaInSection(va uint64, imageBase uint64, sec SectionView) bool {
	off := sec.FileOffset(va, imageBase)
	return sec.Contains(off)
}

// FindLEAXrefs scans every executable section for `lea reg, [rip+disp32]`
// (64-bit) and `lea reg, [disp32]` (32-bit absolute) forms whose resolved
// target VA lands inside rdata. Valid for both 32- and 64-bit PEs.
func FindLEAXrefs(pe PEFile, rdata SectionView) []Xref {
	var xrefs []Xref
	imageBase := pe.ImageBase()
	is64 := pe.Machine() == X64

	for _, sec := range pe.ExecutableSections() {
		buf := sec.RawBytes
		for i := 0; i+7 <= len(buf); i++ {
			// In 64-bit PEs only the REX.W-prefixed form is recognized; an
			// unprefixed LEA there is skipped below.
			modrmIdx := i
			hasREX := false
			if is64 && i+1 < len(buf) && buf[i]&0xF8 == 0x48 {
				hasREX = true
				modrmIdx = i + 1
			}
			if modrmIdx >= len(buf) || buf[modrmIdx] != opcodeLEAModRM {
				continue
			}
			if modrmIdx+1 >= len(buf) {
				continue
			}
			modrm := buf[modrmIdx+1]
			mod := modrm >> 6
			rm := modrm & 0x07
			if mod != 0 || rm != 5 {
				// only the disp32-only addressing form is handled: no SIB,
				// no register-indirect bases.
				continue
			}
			dispStart := modrmIdx + 2
			if dispStart+4 > len(buf) {
				continue
			}
			disp := int32(binary.LittleEndian.Uint32(buf[dispStart : dispStart+4]))

			var target uint64
			if is64 && hasREX {
				// RIP-relative: target = VA of next instruction + disp.
				nextInsnVA := imageBase + uint64(sec.VirtualAddress) + uint64(dispStart+4)
				target = uint64(int64(nextInsnVA) + int64(disp))
			} else if !is64 {
				// 32-bit absolute displacement is itself the target VA.
				target = uint64(int32(disp))
			} else {
				continue
			}

			if vaInSection(target, imageBase, rdata) {
				xrefs = append(xrefs, Xref{TargetVA: target})
			}
		}
	}
	return xrefs
}

// FindMOVXrefs scans for `mov reg, imm32` and `mov r/m32, imm32` forms
// whose immediate equals an rdata VA. 32-bit PEs only.
func FindMOVXrefs(pe PEFile, rdata SectionView) []Xref {
	var xrefs []Xref
	imageBase := pe.ImageBase()

	for _, sec := range pe.ExecutableSections() {
		buf := sec.RawBytes
		for i := 0; i < len(buf); i++ {
			switch {
			case buf[i] >= opcodeMovImm32Op && buf[i] <= opcodeMovImm32Op+7:
				if i+5 > len(buf) {
					continue
				}
				imm := binary.LittleEndian.Uint32(buf[i+1 : i+5])
				if vaInSection(uint64(imm), imageBase, rdata) {
					xrefs = append(xrefs, Xref{TargetVA: uint64(imm)})
				}
			case buf[i] == opcodeMovImm32RM:
				if i+2 > len(buf) {
					continue
				}
				modrm := buf[i+1]
				if modrm>>3&0x07 != 0 {
					continue // not /0
				}
				mod := modrm >> 6
				rm := modrm & 0x07
				immStart := i + 2
				if mod == 3 {
					// register destination, no displacement.
				} else if mod == 0 && rm == 5 {
					immStart += 4 // disp32
				} else if mod == 1 {
					immStart += 1
				} else if mod == 2 {
					immStart += 4
				}
				if immStart+4 > len(buf) {
					continue
				}
				imm := binary.LittleEndian.Uint32(buf[immStart : immStart+4])
				if vaInSection(uint64(imm), imageBase, rdata) {
					xrefs = append(xrefs, Xref{TargetVA: uint64(imm)})
				}
			}
		}
	}
	return xrefs
}

// FindPUSHXrefs scans for `push imm32` whose immediate equals an rdata VA.
// 32-bit PEs only.
func FindPUSHXrefs(pe PEFile, rdata SectionView) []Xref {
	var xrefs []Xref
	imageBase := pe.ImageBase()

	for _, sec := range pe.ExecutableSections() {
		buf := sec.RawBytes
		for i := 0; i+5 <= len(buf); i++ {
			if buf[i] != opcodePushImm32 {
				continue
			}
			imm := binary.LittleEndian.Uint32(buf[i+1 : i+5])
			if vaInSection(uint64(imm), imageBase, rdata) {
				xrefs = append(xrefs, Xref{TargetVA: uint64(imm)})
			}
		}
	}
	return xrefs
}

// XrefVAs collects the architecture-appropriate mix of xrefs per §4.4 step
// 5 (32-bit: LEA ∪ MOV ∪ PUSH, 64-bit: LEA only) and dedups the resulting
// VA sequence into a set, per the §9 design note on set-vs-list xref
// semantics.
func XrefVAs(pe PEFile, rdata SectionView) []uint64 {
	var all []Xref
	switch pe.Machine() {
	case X86:
		all = append(all, FindLEAXrefs(pe, rdata)...)
		all = append(all, FindMOVXrefs(pe, rdata)...)
		all = append(all, FindPUSHXrefs(pe, rdata)...)
	case X64:
		all = append(all, FindLEAXrefs(pe, rdata)...)
	default:
		return nil
	}
	vas := lo.Map(all, func(x Xref, _ int) uint64 { return x.TargetVA })
	return lo.Uniq(vas)
}
